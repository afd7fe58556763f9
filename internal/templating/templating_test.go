package templating

import (
	"strings"
	"testing"
)

func TestRenderDescription(t *testing.T) {
	t.Setenv("RELEASE_TAG", "v1.4.0")

	cases := []struct {
		name string
		text string
		want string
	}{
		{"empty", "", ""},
		{"plain text", "nightly build", "nightly build"},
		{"environment value", "release $RELEASE_TAG", "release v1.4.0"},
		{"braced environment value", "release ${RELEASE_TAG}", "release v1.4.0"},
		{"unset variable", "by $NO_SUCH_VARIABLE.", "by ."},
		{"template function", `{{ "deploy" | upper }}`, "DEPLOY"},
		{"date function present", `{{ now | date "2006" }}`, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := RenderDescription(tc.text)
			if err != nil {
				t.Fatalf("RenderDescription(%q): %v", tc.text, err)
			}
			if tc.want != "" && got != tc.want {
				t.Fatalf("RenderDescription(%q) = %q, want %q", tc.text, got, tc.want)
			}
			if tc.want == "" && tc.text != "" && got == "" {
				t.Fatalf("RenderDescription(%q) produced nothing", tc.text)
			}
		})
	}
}

func TestRenderDescriptionRejectsBadTemplate(t *testing.T) {
	_, err := RenderDescription("{{ bogus }")
	if err == nil || !strings.Contains(err.Error(), "description template") {
		t.Fatalf("err = %v", err)
	}
}
