// Package constant defines immutable application-level identifiers and configuration defaults.
package constant

const (
	// Quadview is the canonical application identifier used for filesystem paths and CLI branding.
	Quadview = "quadview"

	// Version is the current application semantic version string.
	Version = "0.1.0"
)

// Build metadata, set with -ldflags "-X" at release time.
var (
	BuiltAt  = "unknown"
	BuiltBy  = "unknown"
	Revision = "unknown"
)
