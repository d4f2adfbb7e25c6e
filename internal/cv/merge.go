package cv

import (
	"encoding/json"
	"strings"

	"cvarchitect/internal/util/jsonutil"
)

// Merge reconciles a sparse Update into base and returns a new Document.
// base is never mutated.
//
// Per field of the update:
//   - blank strings, nil pointers and empty slices are skipped entirely;
//     an update cannot erase a field by omission or blank value
//   - collection items with an ID matching a base entry are field-merged
//     in place, preserving the base position
//   - items without a matching ID are treated as new: they get a fresh
//     identifier and are appended in encounter order, unless an existing
//     entry already carries the same content
//   - nested records (personal info, visual config) merge recursively
//   - everything else replaces outright, including on type disagreement
//
// Merging an update that is already fully reflected in base yields a
// document structurally equal to base.
func Merge(base Document, upd Update) Document {
	out := clone(base)

	if upd.PersonalInfo != nil {
		out.PersonalInfo = mergePersonalInfo(out.PersonalInfo, *upd.PersonalInfo)
	}
	out.Experience = mergeByID(out.Experience, upd.Experience,
		func(e Experience) string { return e.ID },
		func(u ExperienceUpdate) string { return u.ID },
		mergeExperience, newExperience)
	out.Education = mergeByID(out.Education, upd.Education,
		func(e Education) string { return e.ID },
		func(u Education) string { return u.ID },
		mergeEducation, newEducation)
	out.Skills = mergeByID(out.Skills, upd.Skills,
		func(e Skill) string { return e.ID },
		func(u Skill) string { return u.ID },
		mergeSkill, newSkill)
	out.Projects = mergeByID(out.Projects, upd.Projects,
		func(e Project) string { return e.ID },
		func(u Project) string { return u.ID },
		mergeProject, newProject)
	out.Languages = mergeByID(out.Languages, upd.Languages,
		func(e Language) string { return e.ID },
		func(u Language) string { return u.ID },
		mergeLanguage, newLanguage)
	out.Certifications = mergeByID(out.Certifications, upd.Certifications,
		func(e Certification) string { return e.ID },
		func(u Certification) string { return u.ID },
		mergeCertification, newCertification)
	out.Interests = mergeTags(out.Interests, upd.Interests)
	if !upd.Config.isZero() {
		out.Config = mergeConfig(out.Config, upd.Config)
	}
	return out
}

// mergeByID reconciles an update collection into a base collection.
// Matched entries keep their position; unmatched non-empty entries are
// appended with a fresh ID unless an entry with identical content
// (ignoring ID) already exists, which keeps Merge idempotent for
// updates whose new entries were already applied.
func mergeByID[B any, U any](
	base []B, updates []U,
	baseID func(B) string,
	updateID func(U) string,
	merge func(B, U) B,
	create func(U) B,
) []B {
	out := base
	for _, u := range updates {
		id := strings.TrimSpace(updateID(u))
		if id != "" {
			matched := false
			for i := range out {
				if baseID(out[i]) == id {
					out[i] = merge(out[i], u)
					matched = true
					break
				}
			}
			if matched {
				continue
			}
		}
		fresh := create(u)
		if entryContentEqual(fresh, *new(B)) {
			continue // nothing populated
		}
		dup := false
		for i := range out {
			if entryContentEqual(out[i], fresh) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		out = append(out, withID(fresh))
	}
	return out
}

// entryContentEqual compares two entries by their JSON form with IDs
// blanked out.
func entryContentEqual[B any](a, b B) bool {
	am, err := json.Marshal(clearID(a))
	if err != nil {
		return false
	}
	bm, err := json.Marshal(clearID(b))
	if err != nil {
		return false
	}
	return string(am) == string(bm)
}

func clearID[B any](v B) map[string]any {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil
	}
	delete(m, "id")
	return m
}

// withID stamps a fresh identifier onto an entry; create funcs always
// hand over entries with a blank ID.
func withID[B any](v B) B {
	b, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return v
	}
	m["id"] = NewEntryID()
	b, err = json.Marshal(m)
	if err != nil {
		return v
	}
	var out B
	if err := json.Unmarshal(b, &out); err != nil {
		return v
	}
	return out
}

// pick returns upd unless it is blank.
func pick(base, upd string) string {
	if blank(upd) {
		return base
	}
	return upd
}

func pickSlice(base, upd []string) []string {
	if len(upd) == 0 {
		return base
	}
	return append([]string(nil), upd...)
}

func mergePersonalInfo(base, upd PersonalInfo) PersonalInfo {
	base.FullName = pick(base.FullName, upd.FullName)
	base.Role = pick(base.Role, upd.Role)
	base.Email = pick(base.Email, upd.Email)
	base.Phone = pick(base.Phone, upd.Phone)
	base.Location = pick(base.Location, upd.Location)
	base.Website = pick(base.Website, upd.Website)
	base.LinkedIn = pick(base.LinkedIn, upd.LinkedIn)
	base.GitHub = pick(base.GitHub, upd.GitHub)
	base.Summary = pick(base.Summary, upd.Summary)
	return base
}

func mergeExperience(base Experience, upd ExperienceUpdate) Experience {
	base.Company = pick(base.Company, upd.Company)
	base.Position = pick(base.Position, upd.Position)
	base.StartDate = pick(base.StartDate, upd.StartDate)
	base.EndDate = pick(base.EndDate, upd.EndDate)
	if upd.Current != nil {
		base.Current = *upd.Current
	}
	base.Location = pick(base.Location, upd.Location)
	base.Description = pick(base.Description, upd.Description)
	base.Highlights = pickSlice(base.Highlights, upd.Highlights)
	return base
}

func newExperience(u ExperienceUpdate) Experience {
	e := Experience{
		Company:     strings.TrimSpace(u.Company),
		Position:    strings.TrimSpace(u.Position),
		StartDate:   strings.TrimSpace(u.StartDate),
		EndDate:     strings.TrimSpace(u.EndDate),
		Location:    strings.TrimSpace(u.Location),
		Description: strings.TrimSpace(u.Description),
		Highlights:  append([]string(nil), u.Highlights...),
	}
	if u.Current != nil {
		e.Current = *u.Current
	}
	return e
}

func mergeEducation(base, upd Education) Education {
	base.Institution = pick(base.Institution, upd.Institution)
	base.Degree = pick(base.Degree, upd.Degree)
	base.FieldOfStudy = pick(base.FieldOfStudy, upd.FieldOfStudy)
	base.StartDate = pick(base.StartDate, upd.StartDate)
	base.EndDate = pick(base.EndDate, upd.EndDate)
	base.Location = pick(base.Location, upd.Location)
	base.Description = pick(base.Description, upd.Description)
	return base
}

func newEducation(u Education) Education {
	u.ID = ""
	return u
}

func mergeSkill(base, upd Skill) Skill {
	base.Name = pick(base.Name, upd.Name)
	base.Level = pick(base.Level, upd.Level)
	base.Category = pick(base.Category, upd.Category)
	return base
}

func newSkill(u Skill) Skill {
	u.ID = ""
	return u
}

func mergeProject(base, upd Project) Project {
	base.Name = pick(base.Name, upd.Name)
	base.Description = pick(base.Description, upd.Description)
	base.URL = pick(base.URL, upd.URL)
	base.Technologies = pickSlice(base.Technologies, upd.Technologies)
	return base
}

func newProject(u Project) Project {
	u.ID = ""
	return u
}

func mergeLanguage(base, upd Language) Language {
	base.Language = pick(base.Language, upd.Language)
	base.Fluency = pick(base.Fluency, upd.Fluency)
	return base
}

func newLanguage(u Language) Language {
	u.ID = ""
	return u
}

func mergeCertification(base, upd Certification) Certification {
	base.Name = pick(base.Name, upd.Name)
	base.Issuer = pick(base.Issuer, upd.Issuer)
	base.Date = pick(base.Date, upd.Date)
	return base
}

func newCertification(u Certification) Certification {
	u.ID = ""
	return u
}

// mergeTags appends tags not already present. Matching is
// case-insensitive on the trimmed value; primitive collections have no
// IDs to reconcile on.
func mergeTags(base, upd []string) []string {
	out := base
	for _, tag := range upd {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		exists := false
		for _, have := range out {
			if strings.EqualFold(strings.TrimSpace(have), tag) {
				exists = true
				break
			}
		}
		if !exists {
			out = append(out, tag)
		}
	}
	return out
}

func mergeConfig(base, upd *TemplateConfig) *TemplateConfig {
	if base == nil {
		base = &TemplateConfig{}
	}
	out := *base
	out.TemplateID = pick(out.TemplateID, upd.TemplateID)
	if upd.Colors != nil {
		c := Colors{}
		if out.Colors != nil {
			c = *out.Colors
		}
		c.Primary = pick(c.Primary, upd.Colors.Primary)
		c.Accent = pick(c.Accent, upd.Colors.Accent)
		c.Background = pick(c.Background, upd.Colors.Background)
		out.Colors = &c
	}
	if upd.Fonts != nil {
		f := Fonts{}
		if out.Fonts != nil {
			f = *out.Fonts
		}
		f.Heading = pick(f.Heading, upd.Fonts.Heading)
		f.Body = pick(f.Body, upd.Fonts.Body)
		out.Fonts = &f
	}
	if upd.Layout != nil {
		l := Layout{}
		if out.Layout != nil {
			l = *out.Layout
		}
		l.Density = pick(l.Density, upd.Layout.Density)
		out.Layout = &l
	}
	if len(upd.Sections) > 0 {
		sections := make(map[string]SectionConfig, len(out.Sections)+len(upd.Sections))
		for k, v := range out.Sections {
			sections[k] = v
		}
		for k, v := range upd.Sections {
			sections[k] = v
		}
		out.Sections = sections
	}
	return &out
}

// clone deep-copies a Document through its JSON form.
func clone(d Document) Document {
	out, err := jsonutil.Clone(d)
	if err != nil {
		return d
	}
	return out
}
