// Where: internal/definitions/configuration.go
// What: Root configuration view over the loaded document.
// Why: Expand raw target entries into typed Target views.
package definitions

// AccountInfo supplies the account and region context the configuration
// derives values against. The AWS connection implements this; tests may
// substitute a fixture.
type AccountInfo interface {
	AccountID() string
	Region() string
}

// Configuration wraps the root of the loaded document and owns the
// target views derived from it.
type Configuration struct {
	Specification

	// Account provides the cloud account/region context. May be nil, in
	// which case derived values fall back to configuration defaults.
	Account AccountInfo

	// WorkRoot is the directory under which per-entity working
	// locations are created. Defaults to the OS temporary directory.
	WorkRoot string
}

// NewConfiguration builds the root view. The document map is retained
// and mutated only through identity-token stamping.
func NewConfiguration(directory string, data map[string]any, account AccountInfo, workRoot string) *Configuration {
	return &Configuration{
		Specification: newSpecification(directory, data),
		Account:       account,
		WorkRoot:      workRoot,
	}
}

// Region returns the region this configuration targets, preferring the
// explicit document value, then the session region, then us-east-1.
func (c *Configuration) Region() string {
	if region := c.GetString("region"); region != "" {
		return region
	}
	if c.Account != nil && c.Account.Region() != "" {
		return c.Account.Region()
	}
	return "us-east-1"
}

// AccountID returns the cloud account identifier, or "" when unknown.
func (c *Configuration) AccountID() string {
	if c.Account == nil {
		return ""
	}
	return c.Account.AccountID()
}

// Bucket resolves the default upload bucket for the configuration.
func (c *Configuration) Bucket() string {
	value := c.GetFirst([]string{"buckets"}, []string{"bucket"})
	return MatchingBucket(value, c.AccountID(), c.Region(), "")
}

// Targets expands the document's target entries into views. Views are
// cheap and re-derivable; only identity tokens persist between calls.
func (c *Configuration) Targets() []*Target {
	entries := c.GetList("targets")
	out := make([]*Target, 0, len(entries))
	for _, entry := range entries {
		data, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, newTarget(c, data, nil))
	}
	return out
}

// FunctionTargets filters Targets to function-kind definitions.
func (c *Configuration) FunctionTargets() []*Target {
	return filterTargets(c.Targets(), TargetKindFunction)
}

// LayerTargets filters Targets to layer-kind definitions.
func (c *Configuration) LayerTargets() []*Target {
	return filterTargets(c.Targets(), TargetKindLayer)
}

// GetFunction returns the function target declaring the given name, or
// nil when no target does.
func (c *Configuration) GetFunction(name string) *Target {
	return findTarget(c.FunctionTargets(), name)
}

// GetLayer returns the layer target declaring the given name, or nil
// when no target does.
func (c *Configuration) GetLayer(name string) *Target {
	return findTarget(c.LayerTargets(), name)
}

// RunGroup returns the named command group from the `run:` section, or
// nil when the group is not defined.
func (c *Configuration) RunGroup(name string) []string {
	if name == "" {
		return nil
	}
	return c.GetStringList("run", name)
}

// Serialize renders the configuration's derived values for display.
func (c *Configuration) Serialize() map[string]any {
	functions := c.FunctionTargets()
	layers := c.LayerTargets()
	serializedFunctions := make([]map[string]any, 0, len(functions))
	for _, target := range functions {
		serializedFunctions = append(serializedFunctions, target.Serialize())
	}
	serializedLayers := make([]map[string]any, 0, len(layers))
	for _, target := range layers {
		serializedLayers = append(serializedLayers, target.Serialize())
	}
	return map[string]any{
		"bucket":           c.Bucket(),
		"region":           c.Region(),
		"run":              c.Get("run"),
		"function_targets": serializedFunctions,
		"layer_targets":    serializedLayers,
	}
}

func findTarget(targets []*Target, name string) *Target {
	for _, target := range targets {
		if contains(target.Names(), name) {
			return target
		}
	}
	return nil
}

func filterTargets(targets []*Target, kind TargetKind) []*Target {
	out := make([]*Target, 0, len(targets))
	for _, target := range targets {
		if target.Kind() == kind {
			out = append(out, target)
		}
	}
	return out
}
