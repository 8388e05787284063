// Package version exposes build information injected via ldflags:
//
//	go build -ldflags "-X github.com/llehouerou/rhythm/internal/version.Version=v1.2.0"
package version

import (
	"fmt"
	"runtime"
)

// Build information, injected via ldflags at build time
var (
	// Version is the git tag or semantic version
	Version = "dev"
	// Commit is the git commit SHA
	Commit = "unknown"
	// BuildTime is the ISO 8601 build timestamp
	BuildTime = "unknown"
)

// Info holds complete build information
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// Get returns the current build information
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}
}

// IsRelease reports whether the binary was built from a tagged version.
// Development builds never see updates as newer.
func (i Info) IsRelease() bool {
	return i.Version != "" && i.Version != "dev"
}

func (i Info) String() string {
	return fmt.Sprintf("rhythm %s (commit %s, built %s, %s)", i.Version, i.Commit, i.BuildTime, i.GoVersion)
}
