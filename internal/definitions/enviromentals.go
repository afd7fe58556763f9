// Where: internal/definitions/enviromentals.go
// What: Environment variable definition for function targets.
// Why: Resolve per-function values with only/except scoping and
//      preserve semantics for externally-managed variables.
package definitions

import (
	"fmt"
	"strings"
)

// EnvironmentVariable declares one environment variable applied to the
// functions of a target during configuration updates.
type EnvironmentVariable struct {
	Specification

	// Target is the owning function target.
	Target *Target
}

func newEnvironmentVariable(target *Target, data map[string]any) *EnvironmentVariable {
	return &EnvironmentVariable{
		Specification: newSpecification(target.Directory, data),
		Target:        target,
	}
}

// Name returns the variable name, derived from the NAME=value arg form
// when no explicit name is declared.
func (v *EnvironmentVariable) Name() string {
	if name := v.GetString("name"); name != "" {
		return name
	}
	if arg := v.GetString("arg"); arg != "" {
		return strings.SplitN(arg, "=", 2)[0]
	}
	return "unknown-environment-variable"
}

// Preserve reports whether the variable's deployed value must be kept
// untouched during updates. Used for values managed by other systems.
func (v *EnvironmentVariable) Preserve() bool {
	return v.GetBool("preserve")
}

// Restrictions lists function name patterns this variable applies to.
// Empty means apply to all of the target's functions.
func (v *EnvironmentVariable) Restrictions() []string {
	return v.GetFirstStringList([]string{"only"})
}

// Exclusions lists function name patterns this variable never applies
// to.
func (v *EnvironmentVariable) Exclusions() []string {
	return v.GetFirstStringList([]string{"except"})
}

// Value resolves the variable's value for the named function, returning
// ok=false when the variable does not apply to that function. Map
// values select by matching the function name against pattern keys.
func (v *EnvironmentVariable) Value(functionName string) (string, bool) {
	if !matchesScope(functionName, v.Restrictions(), v.Exclusions()) {
		return "", false
	}

	var raw any
	if !v.Has("value") {
		if arg := v.GetString("arg"); strings.Contains(arg, "=") {
			raw = strings.SplitN(arg, "=", 2)[1]
		}
	} else {
		raw = v.Get("value")
	}

	if byPattern, ok := raw.(map[string]any); ok {
		raw = nil
		for pattern, value := range byPattern {
			if matchesName(pattern, functionName) {
				raw = value
				break
			}
		}
	}

	if raw == nil {
		return "", false
	}
	if value, ok := raw.(string); ok {
		return value, true
	}
	return fmt.Sprint(raw), true
}

// Serialize renders the variable for display. Preserved variables never
// render values.
func (v *EnvironmentVariable) Serialize() map[string]any {
	out := map[string]any{
		"name":     v.Name(),
		"only":     v.Restrictions(),
		"except":   v.Exclusions(),
		"preserve": v.Preserve(),
	}
	if !v.Preserve() {
		values := map[string]string{}
		for _, name := range v.Target.Names() {
			if value, ok := v.Value(name); ok {
				values[name] = value
			}
		}
		out["values"] = values
	}
	return out
}
