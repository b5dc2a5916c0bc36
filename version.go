package imagemeta

import "runtime"

// Version is the semantic version of the imagemeta library.
const Version = "0.1.0"

// BuildInfo describes the library build.
type BuildInfo struct {
	// Version is the semantic version.
	Version string
	// GitCommit is the commit hash, set via -ldflags at build time.
	GitCommit string
	// BuildTime is the build timestamp, set via -ldflags at build time.
	BuildTime string
	// GoVersion is the Go toolchain version.
	GoVersion string
}

// GetBuildInfo returns the build metadata. GitCommit and BuildTime read
// "unknown" unless injected at build time:
//
//	go build -ldflags="-X github.com/ssoj13/imagemeta.gitCommit=$(git rev-parse HEAD) \
//	  -X github.com/ssoj13/imagemeta.buildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		GitCommit: gitCommit,
		BuildTime: buildTime,
		GoVersion: runtime.Version(),
	}
}

// Populated at build time via -ldflags.
var (
	gitCommit = "unknown"
	buildTime = "unknown"
)
