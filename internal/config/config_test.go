package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/adoptrack/pkg/feed"
)

func TestLoadConfigDefaults(t *testing.T) {
	// An explicit path that does not exist is an error.
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, DefaultTimezone, cfg.Timezone)
	assert.False(t, cfg.Report.StrictRoster)
	assert.Equal(t, DefaultTopUsers, cfg.Report.TopUsers)
	assert.Empty(t, cfg.Output.CSV)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/London", loc.String())
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "adoptrack.yaml")

	payload := `
timezone: UTC
report:
  strict_roster: true
  top_users: 5
output:
  csv: out.csv
aliases:
  github:
    identity: [dev_login]
    day: [activity_date]
`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "UTC", cfg.Timezone)
	assert.True(t, cfg.Report.StrictRoster)
	assert.Equal(t, 5, cfg.Report.TopUsers)
	assert.Equal(t, "out.csv", cfg.Output.CSV)

	assert.Equal(t, []string{"dev_login"}, cfg.GitHubAliases().Identity)
	// The workbench feed keeps the built-in aliases when not configured.
	assert.Equal(t, feed.DefaultWorkbenchAliases(), cfg.WorkbenchAliases())
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("ADOPTRACK_TIMEZONE", "America/New_York")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "America/New_York", cfg.Timezone)
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr error
	}{
		{
			name:    "bad_timezone",
			mutate:  func(cfg *Config) { cfg.Timezone = "Mars/Olympus" },
			wantErr: ErrInvalidTimezone,
		},
		{
			name:    "negative_top_users",
			mutate:  func(cfg *Config) { cfg.Report.TopUsers = -1 },
			wantErr: ErrInvalidTopUsers,
		},
		{
			name: "aliases_without_day",
			mutate: func(cfg *Config) {
				cfg.Aliases.GitHub = &feed.Aliases{Identity: []string{"login"}}
			},
			wantErr: ErrEmptyAlias,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := &Config{Timezone: DefaultTimezone}
			tt.mutate(cfg)

			assert.ErrorIs(t, cfg.Validate(), tt.wantErr)
		})
	}
}
