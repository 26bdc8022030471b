// Package version holds the build identity of the bstviz binary.
package version

import (
	"runtime/debug"
)

const unknown = "<unknown>"

// Build identity, overridden with -ldflags "-X ...".
var (
	Version = "dev"
	Commit  = unknown
	Date    = unknown
)

// InitBinaryVersion fills Commit and Date from the embedded VCS stamp when
// the linker did not set them.
func InitBinaryVersion() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

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

// String returns the one-line identity printed by the version command.
func String() string {
	return "bstviz " + Version + " (commit: " + Commit + ", built: " + Date + ")"
}
