// Package version holds build metadata, set at link time with
// -ldflags "-X github.com/yunkee-lee/mcp-tmap/pkg/version.BuildVersion=...".
package version

import (
	"fmt"
	"runtime"
)

var (
	// BuildVersion is the release version.
	BuildVersion = "0.1.0"
	// BuildCommit is the git commit of the build.
	BuildCommit = "unknown"
	// BuildDate is when the binary was built.
	BuildDate = "unknown"
	// GoVersion is the toolchain that built the binary.
	GoVersion = runtime.Version()
)

// String is the line printed by `tmapmcp version`.
func String() string {
	return fmt.Sprintf("tmapmcp version %s (%s) built on %s with %s",
		BuildVersion, BuildCommit, BuildDate, GoVersion)
}

// Info returns the build metadata reported by the health endpoint.
func Info() map[string]string {
	return map[string]string{
		"version":    BuildVersion,
		"commit":     BuildCommit,
		"build_date": BuildDate,
		"go_version": GoVersion,
	}
}
