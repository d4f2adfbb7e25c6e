package cv

import "strings"

// PersonalInfo is the singleton contact block of a Document.
// All fields are plain strings; a blank field is treated as absent
// when the struct is used inside an Update.
type PersonalInfo struct {
	FullName string `json:"fullName,omitempty"`
	Role     string `json:"role,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Location string `json:"location,omitempty"`
	Website  string `json:"website,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
	GitHub   string `json:"github,omitempty"`
	Summary  string `json:"summary,omitempty"`
}

type Experience struct {
	ID          string   `json:"id"`
	Company     string   `json:"company,omitempty"`
	Position    string   `json:"position,omitempty"`
	StartDate   string   `json:"startDate,omitempty"`
	EndDate     string   `json:"endDate,omitempty"`
	Current     bool     `json:"current,omitempty"`
	Location    string   `json:"location,omitempty"`
	Description string   `json:"description,omitempty"`
	Highlights  []string `json:"highlights,omitempty"`
}

type Education struct {
	ID           string `json:"id"`
	Institution  string `json:"institution,omitempty"`
	Degree       string `json:"degree,omitempty"`
	FieldOfStudy string `json:"fieldOfStudy,omitempty"`
	StartDate    string `json:"startDate,omitempty"`
	EndDate      string `json:"endDate,omitempty"`
	Location     string `json:"location,omitempty"`
	Description  string `json:"description,omitempty"`
}

type Skill struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Level    string `json:"level,omitempty"`
	Category string `json:"category,omitempty"`
}

type Project struct {
	ID           string   `json:"id"`
	Name         string   `json:"name,omitempty"`
	Description  string   `json:"description,omitempty"`
	URL          string   `json:"url,omitempty"`
	Technologies []string `json:"technologies,omitempty"`
}

type Language struct {
	ID       string `json:"id"`
	Language string `json:"language,omitempty"`
	Fluency  string `json:"fluency,omitempty"`
}

type Certification struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Issuer string `json:"issuer,omitempty"`
	Date   string `json:"date,omitempty"`
}

// Colors, Fonts and Layout are the visual knobs a template reads.
type Colors struct {
	Primary    string `json:"primary,omitempty"`
	Accent     string `json:"accent,omitempty"`
	Background string `json:"background,omitempty"`
}

type Fonts struct {
	Heading string `json:"heading,omitempty"`
	Body    string `json:"body,omitempty"`
}

type Layout struct {
	Density string `json:"density,omitempty"`
}

// SectionConfig overrides visibility and title of one document section.
type SectionConfig struct {
	Hidden bool   `json:"hidden,omitempty"`
	Title  string `json:"title,omitempty"`
}

// TemplateConfig is the visual configuration of a Document. It doubles
// as its own sparse update shape: blank strings and nil sub-records are
// skipped on merge.
type TemplateConfig struct {
	TemplateID string                   `json:"templateId,omitempty"`
	Colors     *Colors                  `json:"colors,omitempty"`
	Fonts      *Fonts                   `json:"fonts,omitempty"`
	Layout     *Layout                  `json:"layout,omitempty"`
	Sections   map[string]SectionConfig `json:"sections,omitempty"`
}

// Document is the canonical CV. Collection entries carry stable string
// IDs assigned on first merge and never reassigned; IDs are the sole key
// used to match entries across merges. Order is meaningful: matched
// entries keep their position, new entries are appended.
type Document struct {
	PersonalInfo   PersonalInfo    `json:"personalInfo"`
	Experience     []Experience    `json:"experience"`
	Education      []Education     `json:"education"`
	Skills         []Skill         `json:"skills"`
	Projects       []Project       `json:"projects"`
	Languages      []Language      `json:"languages"`
	Certifications []Certification `json:"certifications"`
	Interests      []string        `json:"interests,omitempty"`
	Config         *TemplateConfig `json:"config,omitempty"`
}

// ExperienceUpdate is the sparse counterpart of Experience. Current is a
// pointer so "not mentioned" and "no longer current" stay distinguishable.
type ExperienceUpdate struct {
	ID          string   `json:"id,omitempty"`
	Company     string   `json:"company,omitempty"`
	Position    string   `json:"position,omitempty"`
	StartDate   string   `json:"startDate,omitempty"`
	EndDate     string   `json:"endDate,omitempty"`
	Current     *bool    `json:"current,omitempty"`
	Location    string   `json:"location,omitempty"`
	Description string   `json:"description,omitempty"`
	Highlights  []string `json:"highlights,omitempty"`
}

// Update is a sparse, partially populated shape of Document. Any subset
// of top-level fields may be set; entry types with only string fields
// serve as their own update shape (blank means absent).
type Update struct {
	PersonalInfo   *PersonalInfo      `json:"personalInfo,omitempty"`
	Experience     []ExperienceUpdate `json:"experience,omitempty"`
	Education      []Education        `json:"education,omitempty"`
	Skills         []Skill            `json:"skills,omitempty"`
	Projects       []Project          `json:"projects,omitempty"`
	Languages      []Language         `json:"languages,omitempty"`
	Certifications []Certification    `json:"certifications,omitempty"`
	Interests      []string           `json:"interests,omitempty"`
	Config         *TemplateConfig    `json:"config,omitempty"`
}

// NewDocument returns an empty Document with non-nil collections.
func NewDocument() Document {
	return Document{
		Experience:     []Experience{},
		Education:      []Education{},
		Skills:         []Skill{},
		Projects:       []Project{},
		Languages:      []Language{},
		Certifications: []Certification{},
	}
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

func (p PersonalInfo) isZero() bool {
	return blank(p.FullName) && blank(p.Role) && blank(p.Email) && blank(p.Phone) &&
		blank(p.Location) && blank(p.Website) && blank(p.LinkedIn) && blank(p.GitHub) &&
		blank(p.Summary)
}

func (c *TemplateConfig) isZero() bool {
	if c == nil {
		return true
	}
	return blank(c.TemplateID) && c.Colors == nil && c.Fonts == nil && c.Layout == nil && len(c.Sections) == 0
}
