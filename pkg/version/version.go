// Package version reports the build identity of the docsplice binary.
package version

import (
	"fmt"
	"runtime/debug"
)

const unknown = "unknown"

// Build identity, set with -ldflags "-X" at release time.
var (
	Version = "dev"
	Commit  = unknown
	Date    = unknown
)

// InitBinaryVersion fills Version and Commit from the module build info when they were
// not set by the linker, so `go install` builds still report something useful.
func InitBinaryVersion() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	apply(info)
}

func apply(info *debug.BuildInfo) {
	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if Commit == unknown {
				Commit = setting.Value
			}
		case "vcs.time":
			if Date == unknown {
				Date = setting.Value
			}
		}
	}
}

// String formats the build identity for display.
func String() string {
	return fmt.Sprintf("docsplice %s (commit: %s, built: %s)", Version, Commit, Date)
}
