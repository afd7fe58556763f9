// Where: internal/definitions/contexts.go
// What: Invocation context and configuration file loading.
// Why: One place to read, validate and bind the configuration document.
package definitions

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigFilename is the conventional configuration file name.
const DefaultConfigFilename = "lambda.yaml"

// SelectedTargets holds the targets that survived selection filtering,
// each carrying the selection that admitted it.
type SelectedTargets struct {
	Targets []*Target
}

// FunctionTargets lists the function-kind members of the selection.
func (s SelectedTargets) FunctionTargets() []*Target {
	return filterTargets(s.Targets, TargetKindFunction)
}

// LayerTargets lists the layer-kind members of the selection.
func (s SelectedTargets) LayerTargets() []*Target {
	return filterTargets(s.Targets, TargetKindLayer)
}

// Context is the execution context for one invocation: the loaded
// configuration plus the account session it was bound against.
type Context struct {
	// Configuration is the root view over the loaded document.
	Configuration *Configuration

	// ConfigPath is the file the configuration was loaded from.
	ConfigPath string
}

// SelectedTargets filters the configured targets through the selection,
// dropping targets whose filtered name lists come up empty.
func (c *Context) SelectedTargets(selection Selection) SelectedTargets {
	var out []*Target
	for _, target := range c.Configuration.Targets() {
		selected := target.WithSelection(selection)
		if len(selected.Names()) > 0 {
			out = append(out, selected)
		}
	}
	return SelectedTargets{Targets: out}
}

// CommandQueue returns the command group to run non-interactively, or
// nil when no group name was given or the group is not defined.
func (c *Context) CommandQueue(groupName string) []string {
	return c.Configuration.RunGroup(groupName)
}

// LoadContext reads, validates and binds the configuration at the given
// path. An empty path loads lambda.yaml from the working directory; a
// directory path loads lambda.yaml within it.
func LoadContext(path string, account AccountInfo, workRoot string) (*Context, error) {
	target := path
	if target == "" {
		target = DefaultConfigFilename
	}
	target, err := filepath.Abs(target)
	if err != nil {
		return nil, fmt.Errorf("resolve configuration path: %w", err)
	}
	if info, err := os.Stat(target); err == nil && info.IsDir() {
		target = filepath.Join(target, DefaultConfigFilename)
	}

	contents, err := os.ReadFile(target)
	if err != nil {
		return nil, fmt.Errorf("read configuration: %w", err)
	}

	data, err := validateConfiguration(contents)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration %s: %w", target, err)
	}

	if workRoot == "" {
		workRoot = filepath.Join(os.TempDir(), "lambda-shepherd")
	}

	return &Context{
		Configuration: NewConfiguration(filepath.Dir(target), data, account, workRoot),
		ConfigPath:    target,
	}, nil
}
