package conversation

import "strings"

// Phase is the coarse progress tag of a conversation. It only moves
// forward; a reset is the sole way back to the start.
type Phase string

const (
	PhaseWelcome   Phase = "welcome"
	PhaseGathering Phase = "gathering"
	PhaseRefining  Phase = "refining"
	PhaseReady     Phase = "ready"
)

var phaseRank = map[Phase]int{
	PhaseWelcome:   0,
	PhaseGathering: 1,
	PhaseRefining:  2,
	PhaseReady:     3,
}

// advancePhase returns next if it is a known phase later than cur,
// otherwise cur. Unknown phases from the transport are ignored.
func advancePhase(cur Phase, next string) Phase {
	candidate := Phase(strings.TrimSpace(strings.ToLower(next)))
	nr, ok := phaseRank[candidate]
	if !ok {
		return cur
	}
	if nr > phaseRank[cur] {
		return candidate
	}
	return cur
}
