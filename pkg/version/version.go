// Package version carries the build metadata of the mqtree binary.
package version

import "runtime/debug"

// Build metadata, overridden at link time with
// -ldflags "-X github.com/bpowers/mathquill/pkg/version.Version=...".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

const revisionKey = "vcs.revision"

const shortCommitLen = 12

// InitBinaryVersion fills the metadata left at its defaults from the module
// build info embedded by the Go toolchain.
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
		case revisionKey:
			if Commit == "none" {
				Commit = shorten(setting.Value)
			}
		case "vcs.time":
			if Date == "unknown" {
				Date = setting.Value
			}
		}
	}
}

// String formats the metadata for version output.
func String() string {
	return Version + " (commit: " + Commit + ", built: " + Date + ")"
}

func shorten(rev string) string {
	if len(rev) > shortCommitLen {
		return rev[:shortCommitLen]
	}

	return rev
}
