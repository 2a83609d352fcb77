// Package config holds the runtime configuration for adoptrack: the report
// timezone, roster policy, output defaults and the per-feed field aliases.
// Values come from a config file, environment variables and built-in
// defaults, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/Sumatoshi-tech/adoptrack/pkg/feed"
)

// Config is the top-level configuration struct for adoptrack.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Timezone string        `mapstructure:"timezone"`
	Report   ReportConfig  `mapstructure:"report"`
	Output   OutputConfig  `mapstructure:"output"`
	Aliases  AliasesConfig `mapstructure:"aliases"`
}

// ReportConfig holds reconciliation and rendering policy.
type ReportConfig struct {
	// StrictRoster drops activity from identities absent from the roster
	// instead of carrying them through.
	StrictRoster bool `mapstructure:"strict_roster"`
	// TopUsers caps the per-user table in terminal output.
	TopUsers int `mapstructure:"top_users"`
}

// OutputConfig holds default output paths. Empty means the corresponding
// artifact is not written unless requested on the command line.
type OutputConfig struct {
	CSV     string `mapstructure:"csv"`
	HTML    string `mapstructure:"html"`
	YAML    string `mapstructure:"yaml"`
	NoColor bool   `mapstructure:"no_color"`
}

// AliasesConfig holds the per-feed field alias lists. Unset feeds fall back
// to the built-in aliases.
type AliasesConfig struct {
	GitHub    *feed.Aliases `mapstructure:"github"`
	Workbench *feed.Aliases `mapstructure:"workbench"`
}

// Sentinel errors for configuration validation.
var (
	// ErrInvalidTimezone indicates the timezone name cannot be loaded.
	ErrInvalidTimezone = errors.New("timezone is not a valid IANA zone name")
	// ErrInvalidTopUsers indicates the top users cap is negative.
	ErrInvalidTopUsers = errors.New("report.top_users must be non-negative")
	// ErrEmptyAlias indicates a feed alias list lost its required fields.
	ErrEmptyAlias = errors.New("feed aliases must keep identity and day entries")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	_, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidTimezone, c.Timezone)
	}

	if c.Report.TopUsers < 0 {
		return ErrInvalidTopUsers
	}

	for _, aliases := range []*feed.Aliases{c.Aliases.GitHub, c.Aliases.Workbench} {
		if aliases == nil {
			continue
		}

		if len(aliases.Identity) == 0 || len(aliases.Day) == 0 {
			return ErrEmptyAlias
		}
	}

	return nil
}

// Location loads the configured report timezone. Validate guarantees this
// cannot fail on a validated config.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}

	return loc, nil
}

// GitHubAliases returns the configured GitHub aliases or the built-in set.
func (c *Config) GitHubAliases() feed.Aliases {
	if c.Aliases.GitHub != nil {
		return *c.Aliases.GitHub
	}

	return feed.DefaultGitHubAliases()
}

// WorkbenchAliases returns the configured Workbench aliases or the built-in
// set.
func (c *Config) WorkbenchAliases() feed.Aliases {
	if c.Aliases.Workbench != nil {
		return *c.Aliases.Workbench
	}

	return feed.DefaultWorkbenchAliases()
}
