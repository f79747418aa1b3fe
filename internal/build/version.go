// Package build provides version and build information for autoupdater.
// This package intentionally has no dependencies on other internal packages
// to avoid import cycles.
package build

var (
	// Version information - set via ldflags during build
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// IsDevBuild returns true if running a development build (not a release).
// Development builds carry no comparable version and never self-update.
func IsDevBuild() bool {
	return Version == "dev" || Version == ""
}
