package cv

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMergeDoesNotMutateBase(t *testing.T) {
	base := NewDocument()
	base.Experience = []Experience{{ID: "1", Company: "Acme"}}

	_ = Merge(base, Update{Experience: []ExperienceUpdate{{ID: "1", Company: "Initech"}}})

	require.Equal(t, "Acme", base.Experience[0].Company)
}

func TestMergeSkipsBlankFields(t *testing.T) {
	base := NewDocument()
	base.PersonalInfo = PersonalInfo{FullName: "Ada Lovelace", Email: "ada@example.com"}

	got := Merge(base, Update{PersonalInfo: &PersonalInfo{FullName: "", Email: "  ", Phone: "+44 1"}})

	require.Equal(t, "Ada Lovelace", got.PersonalInfo.FullName)
	require.Equal(t, "ada@example.com", got.PersonalInfo.Email)
	require.Equal(t, "+44 1", got.PersonalInfo.Phone)
}

func TestMergeEmptyUpdateIsIdentity(t *testing.T) {
	base := NewDocument()
	base.PersonalInfo = PersonalInfo{FullName: "Ada"}
	base.Skills = []Skill{{ID: "s1", Name: "Go"}}

	got := Merge(base, Update{})

	require.Equal(t, base, got)
}

func TestMergeCollectionIdentityMatching(t *testing.T) {
	base := NewDocument()
	base.Skills = []Skill{{ID: "1", Name: "A"}}

	got := Merge(base, Update{Skills: []Skill{
		{ID: "1", Name: "B"},
		{Name: "C"},
	}})

	require.Len(t, got.Skills, 2)
	require.Equal(t, "1", got.Skills[0].ID)
	require.Equal(t, "B", got.Skills[0].Name)
	require.NotEmpty(t, got.Skills[1].ID)
	require.NotEqual(t, "1", got.Skills[1].ID)
	require.Equal(t, "C", got.Skills[1].Name)
}

func TestMergeIdempotent(t *testing.T) {
	base := NewDocument()
	base.Experience = []Experience{{ID: "1", Company: "Acme", Position: "Eng"}}

	upd := Update{
		PersonalInfo: &PersonalInfo{FullName: "Ada"},
		Experience: []ExperienceUpdate{
			{ID: "1", Position: "Staff Eng"},
			{Company: "Initech", Position: "SRE"},
		},
		Interests: []string{"chess"},
		Config:    &TemplateConfig{TemplateID: "terminal"},
	}

	once := Merge(base, upd)
	twice := Merge(once, upd)

	require.Equal(t, once, twice)
}

func TestMergeMatchedEntryKeepsPosition(t *testing.T) {
	base := NewDocument()
	base.Experience = []Experience{
		{ID: "1", Company: "Acme"},
		{ID: "2", Company: "Initech"},
	}

	got := Merge(base, Update{Experience: []ExperienceUpdate{{ID: "1", Position: "Eng"}}})

	require.Equal(t, "1", got.Experience[0].ID)
	require.Equal(t, "Eng", got.Experience[0].Position)
	require.Equal(t, "2", got.Experience[1].ID)
}

func TestMergeUnknownIDAppendsAsNew(t *testing.T) {
	base := NewDocument()
	base.Skills = []Skill{{ID: "known", Name: "Go"}}

	got := Merge(base, Update{Skills: []Skill{{ID: "invented-by-model", Name: "Rust"}}})

	require.Len(t, got.Skills, 2)
	require.NotEqual(t, "invented-by-model", got.Skills[1].ID)
	require.Equal(t, "Rust", got.Skills[1].Name)
}

func TestMergeCurrentFlagExplicitFalse(t *testing.T) {
	base := NewDocument()
	base.Experience = []Experience{{ID: "1", Company: "Acme", Current: true}}

	no := false
	got := Merge(base, Update{Experience: []ExperienceUpdate{{ID: "1", Current: &no, EndDate: "2024-06"}}})

	require.False(t, got.Experience[0].Current)
	require.Equal(t, "2024-06", got.Experience[0].EndDate)

	// A later update that omits the flag leaves it alone.
	got = Merge(got, Update{Experience: []ExperienceUpdate{{ID: "1", Location: "Remote"}}})
	require.False(t, got.Experience[0].Current)
}

func TestMergeInterestsDeduplicated(t *testing.T) {
	base := NewDocument()
	base.Interests = []string{"Chess", "Running"}

	got := Merge(base, Update{Interests: []string{"chess", "", "Photography"}})

	require.Equal(t, []string{"Chess", "Running", "Photography"}, got.Interests)
}

func TestMergeConfigNestedRecords(t *testing.T) {
	base := NewDocument()
	base.Config = &TemplateConfig{
		TemplateID: "professional",
		Colors:     &Colors{Primary: "#0f172a", Accent: "#10b981"},
	}

	got := Merge(base, Update{Config: &TemplateConfig{
		Colors: &Colors{Accent: "#f59e0b"},
		Fonts:  &Fonts{Heading: "Playfair Display"},
	}})

	require.Equal(t, "professional", got.Config.TemplateID)
	require.Equal(t, "#0f172a", got.Config.Colors.Primary)
	require.Equal(t, "#f59e0b", got.Config.Colors.Accent)
	require.Equal(t, "Playfair Display", got.Config.Fonts.Heading)
}

func TestMergeEmptyCollectionEntriesDropped(t *testing.T) {
	base := NewDocument()

	got := Merge(base, Update{Experience: []ExperienceUpdate{{}, {Company: "  "}}})

	require.Empty(t, got.Experience)
}

func TestEnsureIDsAssignsMissingOnly(t *testing.T) {
	doc := NewDocument()
	doc.Experience = []Experience{{ID: "keep", Company: "Acme"}, {Company: "Initech"}}
	doc.Skills = []Skill{{Name: "Go"}}

	EnsureIDs(&doc)

	require.Equal(t, "keep", doc.Experience[0].ID)
	require.NotEmpty(t, doc.Experience[1].ID)
	require.NotEmpty(t, doc.Skills[0].ID)
	require.NotEqual(t, doc.Experience[1].ID, doc.Skills[0].ID)
}
