// Package version exposes build-time version information.
// The variables are overridden at build time via -ldflags.
package version

// Build information. Populated at build time via -ldflags.
var (
	// Version is the semantic version of the build.
	Version = "1.0.0"
	// Commit is the git commit hash the binary was built from.
	Commit = "none"
	// BuildTime is the timestamp of the build.
	BuildTime = "unknown"
)

// Short returns the bare semantic version.
func Short() string {
	return Version
}

// Full returns the version with commit and build time details.
func Full() string {
	return "version: " + Version + ", commit: " + Commit + ", built at: " + BuildTime
}
