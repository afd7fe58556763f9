// Where: internal/definitions/layering.go
// What: Layer attachment definition for function targets.
// Why: Resolve attachment names, versions and ARNs with only/except
//      scoping across a target's function names.
package definitions

import (
	"fmt"
	"path"
	"strconv"
	"strings"
)

const layerArnPrefix = "arn:aws:lambda:"

// AttachedLayer declares a layer to attach to the functions of a
// target, optionally restricted to a subset of the target's names.
type AttachedLayer struct {
	Specification

	// Target is the owning function target.
	Target *Target
}

func newAttachedLayer(target *Target, data map[string]any) *AttachedLayer {
	return &AttachedLayer{
		Specification: newSpecification(target.Directory, data),
		Target:        target,
	}
}

// Name returns the bare layer name, extracted from the ARN when the
// attachment is declared by ARN.
func (l *AttachedLayer) Name() string {
	value := l.GetString("name")
	if value == "" {
		value = l.GetString("arn")
	}
	parts := strings.Split(value, ":")
	if strings.HasPrefix(value, layerArnPrefix) && len(parts) > 6 {
		return parts[6]
	}
	return parts[0]
}

// Version returns the pinned layer version, or 0 when the attachment
// floats to the latest published version.
func (l *AttachedLayer) Version() int {
	if value := l.Get("version"); value != nil {
		return leadingInt(value)
	}
	for _, key := range []string{"arn", "name"} {
		parts := strings.Split(l.GetString(key), ":")
		if version, err := strconv.Atoi(parts[len(parts)-1]); err == nil {
			return version
		}
	}
	return 0
}

// Arn returns the attachment's layer ARN, qualified with the version
// when one is pinned.
func (l *AttachedLayer) Arn() string {
	if arn := l.GetString("arn"); arn != "" {
		return arn
	}
	if name := l.GetString("name"); strings.HasPrefix(name, layerArnPrefix) {
		return name
	}
	arn := fmt.Sprintf(
		"%s%s:%s:layer:%s",
		layerArnPrefix,
		l.Target.Region(),
		l.Target.Configuration.AccountID(),
		l.Name(),
	)
	if version := l.Version(); version > 0 {
		return fmt.Sprintf("%s:%d", arn, version)
	}
	return arn
}

// Restrictions lists function name patterns this layer attaches to.
// Empty means attach to all of the target's functions.
func (l *AttachedLayer) Restrictions() []string {
	return l.GetFirstStringList([]string{"only"})
}

// Exclusions lists function name patterns this layer never attaches to.
func (l *AttachedLayer) Exclusions() []string {
	return l.GetFirstStringList([]string{"except"})
}

// IsAttachable reports whether this layer attaches to the named
// function given the only/except patterns.
func (l *AttachedLayer) IsAttachable(functionName string) bool {
	return matchesScope(functionName, l.Restrictions(), l.Exclusions())
}

// Serialize renders the attachment for display.
func (l *AttachedLayer) Serialize() map[string]any {
	var functions []string
	for _, name := range l.Target.Names() {
		if l.IsAttachable(name) {
			functions = append(functions, name)
		}
	}
	return map[string]any{
		"name":      l.Name(),
		"version":   l.Version(),
		"arn":       l.Arn(),
		"only":      l.Restrictions(),
		"except":    l.Exclusions(),
		"functions": functions,
	}
}

// matchesScope applies only/except glob patterns to a function name.
// Empty restrictions include everything; exclusions always win.
func matchesScope(functionName string, restrictions []string, exclusions []string) bool {
	included := len(restrictions) == 0
	for _, pattern := range restrictions {
		if matchesName(pattern, functionName) {
			included = true
			break
		}
	}
	if !included {
		return false
	}
	for _, pattern := range exclusions {
		if matchesName(pattern, functionName) {
			return false
		}
	}
	return true
}

func matchesName(pattern string, name string) bool {
	if pattern == name {
		return true
	}
	ok, err := path.Match(pattern, name)
	return err == nil && ok
}
