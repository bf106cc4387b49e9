// Package version exposes the daemon's build version information.
// Values are overridden at build time via -ldflags.
package version

import "fmt"

var (
	// Version is the semantic version of the build ("dev" for local builds).
	Version = "dev"

	// Commit is the short git commit hash the binary was built from.
	Commit = "unknown"

	// Date is the build timestamp in RFC 3339 format.
	Date = "unknown"
)

// Short returns just the version string.
func Short() string {
	return Version
}

// Info returns a human-readable one-line version summary.
func Info() string {
	return fmt.Sprintf("hydrapingd %s (commit %s, built %s)", Version, Commit, Date)
}

// Map returns version fields for JSON responses.
func Map() map[string]string {
	return map[string]string{
		"version": Version,
		"commit":  Commit,
		"date":    Date,
	}
}
