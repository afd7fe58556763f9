// Where: internal/definitions/targeting.go
// What: Function/layer target definition view.
// Why: Compose names, bundle, dependencies and attachments per target.
package definitions

import (
	"path/filepath"
	"strconv"
	"strings"
)

// Target is a homogeneous function-or-layer definition that may expand
// to several deployed names. Layer-kind targets never expose memory,
// timeout, environment variables or layer attachments.
type Target struct {
	Specification

	// Configuration is the owning root view.
	Configuration *Configuration

	// selection, when set, filters the expanded names.
	selection *Selection
}

func newTarget(configuration *Configuration, data map[string]any, selection *Selection) *Target {
	return &Target{
		Specification: newSpecification(configuration.Directory, data),
		Configuration: configuration,
		selection:     selection,
	}
}

// WithSelection returns a copy of the target whose Names are filtered
// by the provided selection. The backing document node is shared.
func (t *Target) WithSelection(selection Selection) *Target {
	return newTarget(t.Configuration, t.Data(), &selection)
}

// Kind returns the target kind, defaulting to function.
func (t *Target) Kind() TargetKind {
	if TargetKind(t.GetString("kind")) == TargetKindLayer {
		return TargetKindLayer
	}
	return TargetKindFunction
}

// Names expands the declared name(s), filtered through the selection
// when one has been applied.
func (t *Target) Names() []string {
	names := t.GetFirstStringList([]string{"names"}, []string{"name"})
	out := make([]string, 0, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		if t.selection != nil && !t.selection.IsMatch(t.Kind(), name) {
			continue
		}
		out = append(out, name)
	}
	return out
}

// Region returns the region this target deploys into.
func (t *Target) Region() string {
	if region := t.GetString("region"); region != "" {
		return region
	}
	return t.Configuration.Region()
}

// Bucket resolves the upload bucket for the target, preferring the
// target's explicit value over the configuration default.
func (t *Target) Bucket() string {
	value := t.GetFirst([]string{"buckets"}, []string{"bucket"})
	return MatchingBucket(value, t.Configuration.AccountID(), t.Region(), t.Configuration.Bucket())
}

// Runtime returns the runtime tag published with this target.
func (t *Target) Runtime() string {
	if runtime := t.GetString("runtime"); runtime != "" {
		return runtime
	}
	return DefaultRuntime
}

// Memory returns the function memory in MB, or 0 when unset. Layer
// targets always return 0. String values such as "512MB" parse their
// leading integer.
func (t *Target) Memory() int {
	if t.Kind() == TargetKindLayer {
		return 0
	}
	return leadingInt(t.Get("memory"))
}

// Timeout returns the function timeout in seconds, or 0 when unset.
// Layer targets always return 0.
func (t *Target) Timeout() int {
	if t.Kind() == TargetKindLayer {
		return 0
	}
	return leadingInt(t.Get("timeout"))
}

// Ignores lists configuration fields that deploys must never touch for
// this target, lowercased.
func (t *Target) Ignores() []string {
	values := t.GetFirstStringList([]string{"ignores"}, []string{"ignore"})
	out := make([]string, 0, len(values))
	for _, value := range values {
		out = append(out, strings.ToLower(value))
	}
	return out
}

// IgnoresAny reports whether any of the given fields appear in the
// target's ignore list.
func (t *Target) IgnoresAny(fields ...string) bool {
	ignores := t.Ignores()
	for _, field := range fields {
		if contains(ignores, field) {
			return true
		}
	}
	return false
}

// Bundle returns the bundle view for this target.
func (t *Target) Bundle() *Bundle {
	data, _ := t.Get("bundle").(map[string]any)
	if data == nil {
		data = map[string]any{}
		t.SetDefault(data, "bundle")
	}
	return newBundle(t, data)
}

// Dependencies returns the dependency group for this target. A plain
// list of sources forms an anonymous, unshared group.
func (t *Target) Dependencies() *DependencyGroup {
	return newDependencyGroup(t)
}

// LayerAttachments lists the layers to attach to this target's
// functions. Always empty for layer targets.
func (t *Target) LayerAttachments() []*AttachedLayer {
	if t.Kind() == TargetKindLayer {
		return nil
	}
	entries := t.GetFirstList([]string{"layers"}, []string{"layer"})
	out := make([]*AttachedLayer, 0, len(entries))
	for _, entry := range entries {
		data, ok := entry.(map[string]any)
		if !ok {
			if name, ok := entry.(string); ok {
				data = map[string]any{"name": name}
			} else {
				continue
			}
		}
		out = append(out, newAttachedLayer(t, data))
	}
	return out
}

// Variables lists the environment variables applied during function
// updates. Always empty for layer targets.
func (t *Target) Variables() []*EnvironmentVariable {
	if t.Kind() == TargetKindLayer {
		return nil
	}
	entries := t.GetFirstList([]string{"variables"}, []string{"variable"})
	out := make([]*EnvironmentVariable, 0, len(entries))
	for _, entry := range entries {
		data, ok := entry.(map[string]any)
		if !ok {
			if arg, ok := entry.(string); ok {
				data = map[string]any{"arg": arg}
			} else {
				continue
			}
		}
		out = append(out, newEnvironmentVariable(t, data))
	}
	return out
}

// BundleDirectory is the working location where the target's bundle is
// assembled, addressed by the target's identity token.
func (t *Target) BundleDirectory() string {
	return filepath.Join(t.Configuration.WorkRoot, t.UUID())
}

// BundleZipPath is the working location of the target's zip artifact.
func (t *Target) BundleZipPath() string {
	return filepath.Join(t.Configuration.WorkRoot, t.UUID()+".zip")
}

// SitePackagesDirectory is where resolved dependencies land for this
// target. Layers keep the runtime-specific `python` subdirectory so the
// archive mounts correctly when attached.
func (t *Target) SitePackagesDirectory() string {
	if t.Kind() == TargetKindLayer {
		return filepath.Join(t.BundleDirectory(), "python")
	}
	return filepath.Join(t.BundleDirectory(), "site_packages")
}

// Serialize renders the target's derived values for display.
func (t *Target) Serialize() map[string]any {
	out := map[string]any{
		"kind":         string(t.Kind()),
		"names":        t.Names(),
		"region":       t.Region(),
		"bundle":       t.Bundle().Serialize(),
		"dependencies": t.Dependencies().Serialize(),
	}
	if t.Kind() == TargetKindFunction {
		attachments := t.LayerAttachments()
		layers := make([]map[string]any, 0, len(attachments))
		for _, attachment := range attachments {
			layers = append(layers, attachment.Serialize())
		}
		variables := t.Variables()
		serializedVariables := make([]map[string]any, 0, len(variables))
		for _, variable := range variables {
			serializedVariables = append(serializedVariables, variable.Serialize())
		}
		out["layers"] = layers
		out["variables"] = serializedVariables
		out["memory"] = t.Memory()
		out["timeout"] = t.Timeout()
		out["ignores"] = t.Ignores()
	}
	return out
}

// leadingInt parses ints directly and extracts the leading digit run
// from strings such as "30s" or "512MB". Anything else yields 0.
func leadingInt(value any) int {
	switch typed := value.(type) {
	case int:
		return typed
	case int64:
		return int(typed)
	case float64:
		return int(typed)
	case string:
		end := 0
		for end < len(typed) && typed[end] >= '0' && typed[end] <= '9' {
			end++
		}
		if end == 0 {
			return 0
		}
		parsed, err := strconv.Atoi(typed[:end])
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}
