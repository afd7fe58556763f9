// Where: internal/templating/templating.go
// What: Description template rendering for published versions.
// Why: Deploy descriptions may reference environment values and
//      template functions for traceable version messages.
package templating

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// RenderDescription expands $NAME/${NAME} environment references and
// renders the result as a template with the sprig function set.
func RenderDescription(text string) (string, error) {
	if text == "" {
		return "", nil
	}
	expanded := os.Expand(text, func(name string) string {
		return os.Getenv(name)
	})

	parsed, err := template.New("description").Funcs(sprig.FuncMap()).Parse(expanded)
	if err != nil {
		return "", fmt.Errorf("parse description template: %w", err)
	}
	var out bytes.Buffer
	if err := parsed.Execute(&out, nil); err != nil {
		return "", fmt.Errorf("render description template: %w", err)
	}
	return out.String(), nil
}
