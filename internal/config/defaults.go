package config

// Default configuration values applied before file and environment
// overrides.
const (
	// DefaultTimezone aligns calendar days with the organization's working
	// hours rather than UTC.
	DefaultTimezone = "Europe/London"

	// DefaultStrictRoster keeps unmatched identities in the report.
	DefaultStrictRoster = false

	// DefaultTopUsers caps the terminal per-user table.
	DefaultTopUsers = 15

	// DefaultNoColor leaves ANSI styling on.
	DefaultNoColor = false
)
