package cv

// Kind is the routing decision for an incoming Update.
type Kind int

const (
	// Empty means no populated field survived filtering; the update is
	// dropped before it reaches the gate or the merge engine.
	Empty Kind = iota
	// Auto updates touch only the visual configuration and apply
	// without user approval.
	Auto
	// Gated updates touch document content and wait for an explicit
	// accept or deny.
	Gated
)

func (k Kind) String() string {
	switch k {
	case Auto:
		return "auto"
	case Gated:
		return "gated"
	default:
		return "empty"
	}
}

// Classify decides how an update is routed. An update is Auto if and
// only if the visual configuration is its sole populated field; any
// content field, alone or mixed with configuration, makes it Gated.
func Classify(u Update) Kind {
	content := false
	if u.PersonalInfo != nil && !u.PersonalInfo.isZero() {
		content = true
	}
	if len(u.Experience) > 0 || len(u.Education) > 0 || len(u.Skills) > 0 ||
		len(u.Projects) > 0 || len(u.Languages) > 0 || len(u.Certifications) > 0 ||
		len(u.Interests) > 0 {
		content = true
	}
	visual := !u.Config.isZero()

	switch {
	case content:
		return Gated
	case visual:
		return Auto
	default:
		return Empty
	}
}
