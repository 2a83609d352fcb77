package identity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/adoptrack/internal/observability"
)

func TestResolvePrecedence(t *testing.T) {
	t.Parallel()

	mapping := map[string]string{
		"octocat": " Octo.Cat@Example.com ",
	}

	tests := []struct {
		name      string
		hint      string
		wantKey   string
		wantClass Class
	}{
		{name: "mapped_login", hint: "octocat", wantKey: "octo.cat@example.com", wantClass: ClassMappedEmail},
		{name: "direct_email_lowercased", hint: " Dev@Example.COM ", wantKey: "dev@example.com", wantClass: ClassDirectEmail},
		{name: "unmapped_login_kept_verbatim", hint: "ghost-user", wantKey: "ghost-user", wantClass: ClassLogin},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			stats := &observability.RunStats{}
			resolver := NewResolver(mapping, nil, false, stats)

			key, class, ok := resolver.Resolve(tt.hint)
			require.True(t, ok)

			assert.Equal(t, tt.wantKey, key)
			assert.Equal(t, tt.wantClass, class)
		})
	}
}

func TestResolveTalliesLoginFallback(t *testing.T) {
	t.Parallel()

	stats := &observability.RunStats{}
	resolver := NewResolver(nil, nil, false, stats)

	_, _, ok := resolver.Resolve("some-login")
	require.True(t, ok)

	assert.Equal(t, int64(1), stats.FallbackIdentities)
}

func TestResolveStrictRoster(t *testing.T) {
	t.Parallel()

	roster := rosterFromCSV(t, "email,chapter\nknown@example.com,Platform\n")

	t.Run("strict_excludes_unrostered", func(t *testing.T) {
		t.Parallel()

		stats := &observability.RunStats{}
		resolver := NewResolver(nil, roster, true, stats)

		_, _, ok := resolver.Resolve("stranger@example.com")
		assert.False(t, ok)
		assert.Equal(t, int64(1), stats.RosterExcluded)

		_, _, ok = resolver.Resolve("known@example.com")
		assert.True(t, ok)
	})

	t.Run("open_policy_keeps_unrostered", func(t *testing.T) {
		t.Parallel()

		stats := &observability.RunStats{}
		resolver := NewResolver(nil, roster, false, stats)

		key, _, ok := resolver.Resolve("stranger@example.com")
		assert.True(t, ok)
		assert.Equal(t, "stranger@example.com", key)
	})
}

func TestLoadMapping(t *testing.T) {
	t.Parallel()

	t.Run("valid_mapping", func(t *testing.T) {
		t.Parallel()

		mapping, err := LoadMapping([]byte(`{"octocat": "octo@example.com"}`))
		require.NoError(t, err)

		assert.Equal(t, "octo@example.com", mapping["octocat"])
	})

	t.Run("non_string_value_rejected", func(t *testing.T) {
		t.Parallel()

		_, err := LoadMapping([]byte(`{"octocat": 42}`))
		assert.ErrorIs(t, err, ErrBadMapping)
	})

	t.Run("array_rejected", func(t *testing.T) {
		t.Parallel()

		_, err := LoadMapping([]byte(`["octocat"]`))
		assert.ErrorIs(t, err, ErrBadMapping)
	})

	t.Run("garbage_rejected", func(t *testing.T) {
		t.Parallel()

		_, err := LoadMapping([]byte(`{nope`))
		assert.ErrorIs(t, err, ErrBadMapping)
	})
}

func rosterFromCSV(t *testing.T, payload string) *Roster {
	t.Helper()

	roster, err := LoadRoster(strings.NewReader(payload))
	require.NoError(t, err)

	return roster
}

func TestLoadRoster(t *testing.T) {
	t.Parallel()

	t.Run("metadata_columns", func(t *testing.T) {
		t.Parallel()

		roster := rosterFromCSV(t,
			"email,chapter,Current Squad,Manager\n"+
				"Dev@Example.com,Engineering,Payments,Ada\n"+
				",NoEmail,Skipped,Row\n")

		require.Equal(t, 1, roster.Len())

		member, ok := roster.Member("dev@example.com")
		require.True(t, ok)
		assert.Equal(t, "Engineering", member.Chapter)
		assert.Equal(t, "Payments", member.Squad)
		assert.Equal(t, "Ada", member.Manager)
	})

	t.Run("bom_stripped_from_header", func(t *testing.T) {
		t.Parallel()

		roster := rosterFromCSV(t, "\ufeffemail\ndev@example.com\n")
		assert.True(t, roster.Contains("dev@example.com"))
	})

	t.Run("missing_email_column", func(t *testing.T) {
		t.Parallel()

		_, err := LoadRoster(strings.NewReader("name,team\nAda,Payments\n"))
		assert.ErrorIs(t, err, ErrNoEmailColumn)
	})

	t.Run("emails_sorted", func(t *testing.T) {
		t.Parallel()

		roster := rosterFromCSV(t, "email\nzed@x.y\nann@x.y\n")
		assert.Equal(t, []string{"ann@x.y", "zed@x.y"}, roster.Emails())
	})
}
