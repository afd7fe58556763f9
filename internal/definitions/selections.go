// Where: internal/definitions/selections.go
// What: Immutable target selection filter and its matching rules.
// Why: Narrow the configured target set to the operating subset.
package definitions

import (
	"path"
	"strings"
)

// Selection describes which targets are in play. Exact names and fuzzy
// needles are tracked per kind; exact names take precedence over needles
// for the same kind. A freshly constructed Selection matches everything.
type Selection struct {
	MatchAll        bool
	FunctionNames   []string
	FunctionNeedles []string
	LayerNames      []string
	LayerNeedles    []string
}

// NewSelection returns the select-all selection.
func NewSelection() Selection {
	return Selection{MatchAll: true}
}

// WithExact returns a copy of the selection narrowed to literal names
// for the chosen kinds, clearing any needles for those kinds.
func (s Selection) WithExact(names []string, functions bool, layers bool) Selection {
	both := !functions && !layers
	out := s
	out.MatchAll = false
	out.FunctionNames = nil
	out.FunctionNeedles = nil
	out.LayerNames = nil
	out.LayerNeedles = nil
	if functions || both {
		out.FunctionNames = append([]string(nil), names...)
	}
	if layers || both {
		out.LayerNames = append([]string(nil), names...)
	}
	return out
}

// WithFuzzy returns a copy of the selection narrowed to fuzzy needles
// for the chosen kinds, clearing any exact names for those kinds.
func (s Selection) WithFuzzy(needles []string, functions bool, layers bool) Selection {
	both := !functions && !layers
	out := s
	out.MatchAll = false
	out.FunctionNames = nil
	out.FunctionNeedles = nil
	out.LayerNames = nil
	out.LayerNeedles = nil
	if functions || both {
		out.FunctionNeedles = append([]string(nil), needles...)
	}
	if layers || both {
		out.LayerNeedles = append([]string(nil), needles...)
	}
	return out
}

// IsMatch decides membership for a candidate name of the given kind.
//
// Exact names for the kind, when present, are authoritative and disable
// fuzzy matching entirely. Otherwise a name is selected when the
// selection matches all, when no needles exist for either kind, or when
// any needle matches literally, as a shell-style glob, or as a
// case-insensitive substring.
func (s Selection) IsMatch(kind TargetKind, name string) bool {
	exacts := s.FunctionNames
	needles := s.FunctionNeedles
	if kind == TargetKindLayer {
		exacts = s.LayerNames
		needles = s.LayerNeedles
	}

	if len(exacts) > 0 {
		return contains(exacts, name)
	}

	anyNeedles := len(s.FunctionNeedles) > 0 || len(s.LayerNeedles) > 0
	if s.MatchAll || !anyNeedles {
		return true
	}

	for _, needle := range needles {
		if needle == name {
			return true
		}
		if ok, err := path.Match(needle, name); err == nil && ok {
			return true
		}
		if strings.Contains(strings.ToLower(name), strings.ToLower(needle)) {
			return true
		}
	}
	return false
}

func contains(items []string, value string) bool {
	for _, item := range items {
		if item == value {
			return true
		}
	}
	return false
}
