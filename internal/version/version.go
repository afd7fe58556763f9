// Where: internal/version/version.go
// What: Build version reporting.
// Why: Surface the VCS revision the binary was built from.
package version

import (
	"runtime/debug"
)

// String derives a version string from the embedded build info: the
// short VCS revision, "-dirty" when the tree was modified, or "dev"
// when no build info is available.
func String() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "dev"
	}

	revision := ""
	dirty := false
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
			if len(revision) > 7 {
				revision = revision[:7]
			}
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}

	if revision == "" {
		return "dev"
	}
	if dirty {
		return revision + "-dirty"
	}
	return revision
}
