// Package version carries build metadata injected with -ldflags, e.g.
//
//	go build -ldflags "-X github.com/HerbHall/qualitywatch/internal/version.Version=v0.3.0"
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"golang.org/x/mod/semver"
)

var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Short returns the version string.
func Short() string {
	return Version
}

// Map returns build metadata for JSON responses.
func Map() map[string]string {
	return map[string]string{
		"version":    Version,
		"git_commit": commit(),
		"build_date": BuildDate,
		"go_version": runtime.Version(),
		"os_arch":    runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// String is the one-line form printed by the version subcommand.
func String() string {
	return fmt.Sprintf("qualitywatch %s (commit %s, built %s, %s %s/%s)",
		Version, commit(), BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// IsRelease reports whether Version is a semantic version rather than a
// development build.
func IsRelease() bool {
	return semver.IsValid(Version)
}

// commit falls back to the VCS revision stamped by the go tool.
func commit() string {
	if GitCommit != "unknown" {
		return GitCommit
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && len(s.Value) >= 7 {
				return s.Value[:7]
			}
		}
	}
	return GitCommit
}
