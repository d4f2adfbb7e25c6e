package cv

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		upd  Update
		want Kind
	}{
		{
			name: "config only is auto",
			upd:  Update{Config: &TemplateConfig{Colors: &Colors{Primary: "#fff"}}},
			want: Auto,
		},
		{
			name: "template id only is auto",
			upd:  Update{Config: &TemplateConfig{TemplateID: "terminal"}},
			want: Auto,
		},
		{
			name: "content is gated",
			upd:  Update{Experience: []ExperienceUpdate{{Company: "Acme"}}},
			want: Gated,
		},
		{
			name: "config mixed with content is gated",
			upd: Update{
				Config:       &TemplateConfig{TemplateID: "pure"},
				PersonalInfo: &PersonalInfo{FullName: "Ada"},
			},
			want: Gated,
		},
		{
			name: "interests are content",
			upd:  Update{Interests: []string{"chess"}},
			want: Gated,
		},
		{
			name: "nothing populated is empty",
			upd:  Update{},
			want: Empty,
		},
		{
			name: "blank personal info is empty",
			upd:  Update{PersonalInfo: &PersonalInfo{FullName: "  "}},
			want: Empty,
		},
		{
			name: "empty config record is empty",
			upd:  Update{Config: &TemplateConfig{}},
			want: Empty,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Classify(tt.upd))
		})
	}
}
