package version

import (
	"runtime"
	"runtime/debug"
)

const Service = "yggdrasil"

// Set via -ldflags "-X .../version.Version=... -X .../version.Commit=...".
var (
	Version   = "dev"
	Commit    = ""
	BuildTime = ""
)

// Info is served at /version and attached to traces.
type Info struct {
	Service   string `json:"service"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	Modified  bool   `json:"modified"`
	GoVersion string `json:"go_version"`
}

// Get merges the ldflags values with the VCS stamp the Go toolchain embeds.
// ldflags win when both are present.
func Get() Info {
	info := Info{
		Service:   Service,
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}
	if build, ok := debug.ReadBuildInfo(); ok {
		applyBuildSettings(&info, build.Settings)
	}
	if info.Commit == "" {
		info.Commit = "unknown"
	}
	if info.BuildTime == "" {
		info.BuildTime = "unknown"
	}
	return info
}

func applyBuildSettings(info *Info, settings []debug.BuildSetting) {
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "" {
				info.Commit = s.Value
			}
		case "vcs.time":
			if info.BuildTime == "" {
				info.BuildTime = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
}

// UserAgent identifies outbound requests to upstream services.
func UserAgent() string {
	return Service + "/" + Version
}
