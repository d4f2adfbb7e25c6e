// Package render turns a Document into standalone HTML. Rendering is a
// pure function of the document and its template config; the same input
// always yields the same bytes.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
	"strings"

	"cvarchitect/internal/cv"
)

// DefaultTemplate is used when the config names no template or an
// unknown one.
const DefaultTemplate = "creative"

// style is the per-template look: palette, typography, spacing.
type style struct {
	DisplayName string
	Primary     string
	Accent      string
	Background  string
	Heading     string
	Body        string
	Density     string
}

// styles registers the built-in templates.
var styles = map[string]style{
	"professional": {DisplayName: "Executive", Primary: "#1a2332", Accent: "#b08d57", Background: "#ffffff", Heading: "Georgia, serif", Body: "Helvetica, Arial, sans-serif", Density: "standard"},
	"harvard":      {DisplayName: "Ivy", Primary: "#111111", Accent: "#7b1e2b", Background: "#ffffff", Heading: "Garamond, Georgia, serif", Body: "Garamond, Georgia, serif", Density: "compact"},
	"creative":     {DisplayName: "Studio", Primary: "#2d1b4e", Accent: "#e85d75", Background: "#faf7f2", Heading: "Futura, Avenir, sans-serif", Body: "Avenir, Helvetica, sans-serif", Density: "relaxed"},
	"pure":         {DisplayName: "Swiss", Primary: "#000000", Accent: "#d40000", Background: "#ffffff", Heading: "Helvetica Neue, Helvetica, sans-serif", Body: "Helvetica Neue, Helvetica, sans-serif", Density: "standard"},
	"terminal":     {DisplayName: "Code", Primary: "#0f1419", Accent: "#2f9e44", Background: "#fafafa", Heading: "Menlo, Consolas, monospace", Body: "Menlo, Consolas, monospace", Density: "compact"},
	"care":         {DisplayName: "Care", Primary: "#234f4b", Accent: "#5aa89f", Background: "#fbfdfc", Heading: "Verdana, Geneva, sans-serif", Body: "Verdana, Geneva, sans-serif", Density: "relaxed"},
	"capital":      {DisplayName: "Capital", Primary: "#0c2340", Accent: "#8a6d3b", Background: "#ffffff", Heading: "Times New Roman, serif", Body: "Helvetica, Arial, sans-serif", Density: "standard"},
	"scholar":      {DisplayName: "Scholar", Primary: "#222222", Accent: "#31577e", Background: "#ffffff", Heading: "Palatino, Georgia, serif", Body: "Palatino, Georgia, serif", Density: "compact"},
}

// Templates lists the registered template IDs, sorted.
func Templates() []string {
	ids := make([]string, 0, len(styles))
	for id := range styles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Known reports whether id names a registered template.
func Known(id string) bool {
	_, ok := styles[id]
	return ok
}

// section keys used in TemplateConfig.Sections.
const (
	SectionSummary        = "summary"
	SectionExperience     = "experience"
	SectionEducation      = "education"
	SectionSkills         = "skills"
	SectionProjects       = "projects"
	SectionLanguages      = "languages"
	SectionCertifications = "certifications"
	SectionInterests      = "interests"
)

var defaultTitles = map[string]string{
	SectionSummary:        "Summary",
	SectionExperience:     "Experience",
	SectionEducation:      "Education",
	SectionSkills:         "Skills",
	SectionProjects:       "Projects",
	SectionLanguages:      "Languages",
	SectionCertifications: "Certifications",
	SectionInterests:      "Interests",
}

type viewData struct {
	Doc   cv.Document
	Style style
	cfg   *cv.TemplateConfig
}

// Visible reports whether a section should render. A section with no
// content is always skipped; the config can additionally hide it.
func (v viewData) Visible(key string) bool {
	if v.cfg != nil {
		if sc, ok := v.cfg.Sections[key]; ok && sc.Hidden {
			return false
		}
	}
	switch key {
	case SectionSummary:
		return strings.TrimSpace(v.Doc.PersonalInfo.Summary) != ""
	case SectionExperience:
		return len(v.Doc.Experience) > 0
	case SectionEducation:
		return len(v.Doc.Education) > 0
	case SectionSkills:
		return len(v.Doc.Skills) > 0
	case SectionProjects:
		return len(v.Doc.Projects) > 0
	case SectionLanguages:
		return len(v.Doc.Languages) > 0
	case SectionCertifications:
		return len(v.Doc.Certifications) > 0
	case SectionInterests:
		return len(v.Doc.Interests) > 0
	}
	return false
}

// Title returns the section heading, honoring a config override.
func (v viewData) Title(key string) string {
	if v.cfg != nil {
		if sc, ok := v.cfg.Sections[key]; ok && strings.TrimSpace(sc.Title) != "" {
			return sc.Title
		}
	}
	return defaultTitles[key]
}

// Contact joins the populated contact fields for the header line.
func (v viewData) Contact() []string {
	p := v.Doc.PersonalInfo
	var out []string
	for _, s := range []string{p.Email, p.Phone, p.Location, p.Website, p.LinkedIn, p.GitHub} {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

// Render produces the standalone HTML for doc under its template
// config. An unregistered or absent template id falls back to
// DefaultTemplate.
func Render(doc cv.Document) ([]byte, error) {
	id := DefaultTemplate
	cfg := doc.Config
	if cfg != nil && Known(cfg.TemplateID) {
		id = cfg.TemplateID
	}
	st := styles[id]
	if cfg != nil {
		if c := cfg.Colors; c != nil {
			st.Primary = pick(st.Primary, c.Primary)
			st.Accent = pick(st.Accent, c.Accent)
			st.Background = pick(st.Background, c.Background)
		}
		if f := cfg.Fonts; f != nil {
			st.Heading = pick(st.Heading, f.Heading)
			st.Body = pick(st.Body, f.Body)
		}
		if l := cfg.Layout; l != nil {
			st.Density = pick(st.Density, l.Density)
		}
	}

	var buf bytes.Buffer
	if err := page.Execute(&buf, viewData{Doc: doc, Style: st, cfg: cfg}); err != nil {
		return nil, fmt.Errorf("render %s: %w", id, err)
	}
	return buf.Bytes(), nil
}

func pick(base, override string) string {
	if strings.TrimSpace(override) != "" {
		return override
	}
	return base
}

var page = template.Must(template.New("cv").Funcs(template.FuncMap{
	"join": strings.Join,
}).Parse(pageHTML))

const pageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Doc.PersonalInfo.FullName}}</title>
<style>
:root {
  --primary: {{.Style.Primary}};
  --accent: {{.Style.Accent}};
  --background: {{.Style.Background}};
}
body {
  font-family: {{.Style.Body}};
  color: var(--primary);
  background: var(--background);
  max-width: 52rem;
  margin: 0 auto;
  padding: {{if eq .Style.Density "compact"}}1.5rem{{else if eq .Style.Density "relaxed"}}3.5rem{{else}}2.5rem{{end}};
  line-height: {{if eq .Style.Density "compact"}}1.3{{else if eq .Style.Density "relaxed"}}1.7{{else}}1.5{{end}};
}
h1, h2 { font-family: {{.Style.Heading}}; }
h1 { margin-bottom: 0.2rem; }
h2 { color: var(--accent); border-bottom: 1px solid var(--accent); padding-bottom: 0.15rem; }
.role { font-size: 1.1rem; color: var(--accent); margin-top: 0; }
.contact { font-size: 0.85rem; }
.entry { margin-bottom: {{if eq .Style.Density "compact"}}0.4rem{{else}}0.9rem{{end}}; }
.meta { font-size: 0.85rem; opacity: 0.75; }
.tags span { display: inline-block; border: 1px solid var(--accent); border-radius: 3px; padding: 0 0.4rem; margin: 0 0.3rem 0.3rem 0; font-size: 0.8rem; }
</style>
</head>
<body>
<header>
<h1>{{.Doc.PersonalInfo.FullName}}</h1>
{{with .Doc.PersonalInfo.Role}}<p class="role">{{.}}</p>{{end}}
<p class="contact">{{join .Contact " · "}}</p>
</header>
{{if .Visible "summary"}}
<section><h2>{{.Title "summary"}}</h2><p>{{.Doc.PersonalInfo.Summary}}</p></section>
{{end}}
{{if .Visible "experience"}}
<section><h2>{{.Title "experience"}}</h2>
{{range .Doc.Experience}}<div class="entry">
<strong>{{.Position}}</strong>{{with .Company}} — {{.}}{{end}}
<div class="meta">{{.StartDate}}{{if .Current}} – Present{{else if .EndDate}} – {{.EndDate}}{{end}}{{with .Location}} · {{.}}{{end}}</div>
{{with .Description}}<p>{{.}}</p>{{end}}
{{with .Highlights}}<ul>{{range .}}<li>{{.}}</li>{{end}}</ul>{{end}}
</div>{{end}}
</section>
{{end}}
{{if .Visible "education"}}
<section><h2>{{.Title "education"}}</h2>
{{range .Doc.Education}}<div class="entry">
<strong>{{.Degree}}</strong>{{with .FieldOfStudy}}, {{.}}{{end}}{{with .Institution}} — {{.}}{{end}}
<div class="meta">{{.StartDate}}{{with .EndDate}} – {{.}}{{end}}{{with .Location}} · {{.}}{{end}}</div>
{{with .Description}}<p>{{.}}</p>{{end}}
</div>{{end}}
</section>
{{end}}
{{if .Visible "skills"}}
<section><h2>{{.Title "skills"}}</h2><div class="tags">
{{range .Doc.Skills}}<span>{{.Name}}{{with .Level}} ({{.}}){{end}}</span>{{end}}
</div></section>
{{end}}
{{if .Visible "projects"}}
<section><h2>{{.Title "projects"}}</h2>
{{range .Doc.Projects}}<div class="entry">
<strong>{{.Name}}</strong>{{with .URL}} · {{.}}{{end}}
{{with .Description}}<p>{{.}}</p>{{end}}
{{with .Technologies}}<div class="meta">{{join . ", "}}</div>{{end}}
</div>{{end}}
</section>
{{end}}
{{if .Visible "languages"}}
<section><h2>{{.Title "languages"}}</h2><div class="tags">
{{range .Doc.Languages}}<span>{{.Language}}{{with .Fluency}} ({{.}}){{end}}</span>{{end}}
</div></section>
{{end}}
{{if .Visible "certifications"}}
<section><h2>{{.Title "certifications"}}</h2>
{{range .Doc.Certifications}}<div class="entry">
<strong>{{.Name}}</strong>{{with .Issuer}} — {{.}}{{end}}{{with .Date}} <span class="meta">{{.}}</span>{{end}}
</div>{{end}}
</section>
{{end}}
{{if .Visible "interests"}}
<section><h2>{{.Title "interests"}}</h2><div class="tags">
{{range .Doc.Interests}}<span>{{.}}</span>{{end}}
</div></section>
{{end}}
</body>
</html>
`
