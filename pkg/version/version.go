// Package version exposes build metadata for the adoptrack binary.
package version

import "runtime/debug"

// Build metadata, overridden at link time via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// InitBinaryVersion fills in missing build metadata from the embedded
// module build info when the binary was built without ldflags.
func InitBinaryVersion() {
	if Version != "dev" {
		return
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" {
			Commit = setting.Value
		}

		if setting.Key == "vcs.time" {
			Date = setting.Value
		}
	}
}
