// Where: internal/definitions/enumerations.go
// What: Shared enumerations for target and dependency kinds.
// Why: Single place for kind tags and their defaults.
package definitions

// DefaultRuntime is the runtime tag applied to functions and layers when
// the configuration does not specify one.
const DefaultRuntime = "python3.12"

// TargetKind enumerates the homogeneous kinds a target can declare.
type TargetKind string

const (
	TargetKindFunction TargetKind = "function"
	TargetKindLayer    TargetKind = "layer"
)

// DependencyKind enumerates the supported package-manager backends.
type DependencyKind string

const (
	DependencyKindPip           DependencyKind = "pip"
	DependencyKindPipper        DependencyKind = "pipper"
	DependencyKindPoetry        DependencyKind = "poetry"
	DependencyKindUv            DependencyKind = "uv"
	DependencyKindPoetryCommand DependencyKind = "poetry_command"
	DependencyKindUvCommand     DependencyKind = "uv_command"
)

// DefaultManifestFile returns the conventional manifest filename for a
// dependency kind, used when neither a file nor an inline package list
// is configured.
func DefaultManifestFile(kind DependencyKind) string {
	switch kind {
	case DependencyKindPipper:
		return "pipper.json"
	case DependencyKindPoetry, DependencyKindPoetryCommand:
		return "pyproject.toml"
	case DependencyKindUv, DependencyKindUvCommand:
		return "pyproject.toml"
	default:
		return "requirements.txt"
	}
}
