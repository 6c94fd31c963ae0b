// Package version holds build metadata injected at link time.
package version

import (
	"runtime/debug"
	"strings"
)

// Build metadata. Overridden with -ldflags "-X ...".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// InitBinaryVersion fills Version and Commit from the embedded build info
// when they were not set by the linker.
func InitBinaryVersion() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = strings.TrimPrefix(info.Main.Version, "v")
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if Commit == "none" {
				Commit = setting.Value
			}
		case "vcs.time":
			if Date == "unknown" {
				Date = setting.Value
			}
		}
	}
}

// UserAgent returns the HTTP User-Agent string for this binary.
func UserAgent() string {
	return "colprofile/" + Version
}
