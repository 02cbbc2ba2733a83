// Package version holds build-time version information.
package version

// Set via -ldflags at release time.
var (
	// Version is the semantic version of the build.
	Version = "dev"
	// Commit is the git commit hash of the build.
	Commit = "unknown"
)
