package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/Sumatoshi-tech/adoptrack/internal/observability"
	"github.com/Sumatoshi-tech/adoptrack/pkg/timewin"
)

func septemberWindow(t *testing.T) timewin.Window {
	t.Helper()

	w, err := timewin.FromMonth("2025-09", time.UTC)
	require.NoError(t, err)

	return w
}

func TestNormalizeGitHubRecord(t *testing.T) {
	t.Parallel()

	stats := &observability.RunStats{}
	n := NewNormalizer(GitHub, septemberWindow(t), time.UTC, stats)

	raw := gjson.Parse(`{
		"user_login": "octocat",
		"day": "2025-09-03",
		"user_initiated_interaction_count": 12,
		"code_generation_activity_count": 30,
		"code_acceptance_activity_count": 18,
		"loc_added_sum": 240,
		"loc_deleted_sum": 60,
		"used_agent": true,
		"totals_by_feature": [
			{"feature": "chat_panel", "user_initiated_interaction_count": 8},
			{"feature": "inline", "user_initiated_interaction_count": 4}
		],
		"totals_by_model_feature": [
			{"feature": "chat_panel", "model": "gpt-5", "count": 9},
			{"feature": "CHAT_PANEL_UNKNOWN_MODE", "model": "claude-sonnet", "count": 3}
		]
	}`)

	rec, ok := n.Normalize(raw)
	require.True(t, ok)

	assert.Equal(t, GitHub, rec.Platform)
	assert.Equal(t, "octocat", rec.Identity)
	assert.Equal(t, "2025-09-03", rec.Day.Format("2006-01-02"))
	assert.Equal(t, int64(12), rec.Requests)
	assert.Equal(t, int64(30), rec.CodeGenerated)
	assert.Equal(t, int64(18), rec.CodeAccepted)
	assert.Equal(t, int64(240), rec.LOCAdded)
	assert.Equal(t, int64(60), rec.LOCDeleted)
	assert.True(t, rec.UsedAgent)
	assert.True(t, rec.UsedRoo)
	assert.Equal(t, int64(9), rec.ModelRequests["gpt-5"])
	assert.Equal(t, int64(3), rec.ModelRequests["claude-sonnet"])
	assert.Equal(t, int64(8), rec.FeatureRequests["chat_panel"])
	assert.Equal(t, int64(1), stats.Normalized)
}

func TestNormalizeRooRequiresKnownModel(t *testing.T) {
	t.Parallel()

	stats := &observability.RunStats{}
	n := NewNormalizer(GitHub, septemberWindow(t), time.UTC, stats)

	raw := gjson.Parse(`{
		"user_login": "octocat",
		"day": "2025-09-03",
		"totals_by_model_feature": [
			{"feature": "chat_panel_unknown_mode", "model": "unknown", "count": 3}
		]
	}`)

	rec, ok := n.Normalize(raw)
	require.True(t, ok)
	assert.False(t, rec.UsedRoo)
}

func TestNormalizeWorkbenchRecord(t *testing.T) {
	t.Parallel()

	stats := &observability.RunStats{}
	n := NewNormalizer(Workbench, septemberWindow(t), time.UTC, stats)

	raw := gjson.Parse(`{
		"email": "Dev@Example.COM",
		"date": "2025-09-03T14:22:01Z",
		"api_requests": 40,
		"spend": 1.25,
		"model": "claude-sonnet",
		"cache_read_input_tokens": 1000,
		"cache_creation_input_tokens": 200
	}`)

	rec, ok := n.Normalize(raw)
	require.True(t, ok)

	assert.Equal(t, Workbench, rec.Platform)
	assert.Equal(t, "Dev@Example.COM", rec.Identity)
	assert.Equal(t, "2025-09-03", rec.Day.Format("2006-01-02"))
	assert.Equal(t, int64(40), rec.Requests)
	assert.InDelta(t, 1.25, rec.Spend, 0.0001)
	assert.Equal(t, int64(0), rec.EmbeddingRequests)
	assert.Equal(t, int64(40), rec.ModelRequests["claude-sonnet"])
	assert.Equal(t, int64(1000), rec.CacheReadTokens)
	assert.Equal(t, int64(200), rec.CacheCreationTokens)
}

func TestNormalizeEmbeddingModel(t *testing.T) {
	t.Parallel()

	stats := &observability.RunStats{}
	n := NewNormalizer(Workbench, septemberWindow(t), time.UTC, stats)

	raw := gjson.Parse(`{
		"email": "dev@example.com",
		"date": "2025-09-03",
		"api_requests": 7,
		"model": "text-embedding-3-large"
	}`)

	rec, ok := n.Normalize(raw)
	require.True(t, ok)

	assert.Equal(t, int64(7), rec.Requests)
	assert.Equal(t, int64(7), rec.EmbeddingRequests)
}

func TestNormalizeCounterCoercion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		payload      string
		wantRequests int64
		wantCoerced  int64
	}{
		{
			name:         "string_number_parses",
			payload:      `{"email": "a@b.c", "date": "2025-09-03", "api_requests": "5"}`,
			wantRequests: 5,
			wantCoerced:  0,
		},
		{
			name:         "garbage_string_coerces_to_zero",
			payload:      `{"email": "a@b.c", "date": "2025-09-03", "api_requests": "abc"}`,
			wantRequests: 0,
			wantCoerced:  1,
		},
		{
			name:         "null_coerces_to_zero",
			payload:      `{"email": "a@b.c", "date": "2025-09-03", "api_requests": null}`,
			wantRequests: 0,
			wantCoerced:  1,
		},
		{
			name:         "absent_is_plain_zero",
			payload:      `{"email": "a@b.c", "date": "2025-09-03"}`,
			wantRequests: 0,
			wantCoerced:  0,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			stats := &observability.RunStats{}
			n := NewNormalizer(Workbench, septemberWindow(t), time.UTC, stats)

			rec, ok := n.Normalize(gjson.Parse(tt.payload))
			require.True(t, ok, "a bad counter must never reject the record")

			assert.Equal(t, tt.wantRequests, rec.Requests)
			assert.Equal(t, tt.wantCoerced, stats.CoercedCounters)
			assert.Equal(t, int64(1), stats.Normalized)
		})
	}
}

func TestNormalizeRejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload string
		reason  observability.RejectReason
	}{
		{
			name:    "missing_identity",
			payload: `{"day": "2025-09-03", "user_initiated_interaction_count": 3}`,
			reason:  observability.ReasonMissingIdentity,
		},
		{
			name:    "null_identity",
			payload: `{"user_login": null, "day": "2025-09-03"}`,
			reason:  observability.ReasonMissingIdentity,
		},
		{
			name:    "missing_date",
			payload: `{"user_login": "octocat"}`,
			reason:  observability.ReasonMissingDate,
		},
		{
			name:    "unparseable_date",
			payload: `{"user_login": "octocat", "day": "last tuesday"}`,
			reason:  observability.ReasonUnparseableDate,
		},
		{
			name:    "out_of_window",
			payload: `{"user_login": "octocat", "day": "2025-10-15"}`,
			reason:  observability.ReasonOutOfWindow,
		},
		{
			name:    "non_object_payload",
			payload: `"just a string"`,
			reason:  observability.ReasonBadPayload,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			stats := &observability.RunStats{}
			n := NewNormalizer(GitHub, septemberWindow(t), time.UTC, stats)

			_, ok := n.Normalize(gjson.Parse(tt.payload))
			assert.False(t, ok)
			assert.Equal(t, int64(1), stats.Rejections()[tt.reason])
			assert.Equal(t, int64(0), stats.Normalized)
			assert.True(t, stats.Balanced())
		})
	}
}

func TestAliasOrderIsPolicy(t *testing.T) {
	t.Parallel()

	stats := &observability.RunStats{}
	n := NewNormalizer(Workbench, septemberWindow(t), time.UTC, stats)
	// email is first in the workbench alias order, user_email second.
	raw := gjson.Parse(`{"email": "first@x.y", "user_email": "second@x.y", "date": "2025-09-03"}`)

	rec, ok := n.Normalize(raw)
	require.True(t, ok)
	assert.Equal(t, "first@x.y", rec.Identity)
}

func TestIsEmbeddingModel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		model    string
		expected bool
	}{
		{model: "text-embedding-3-small", expected: true},
		{model: "amazon.titan-embed-text-v1", expected: true},
		{model: "cohere.embed-english-v3", expected: true},
		{model: "voyage-embedding-2", expected: true},
		{model: "claude-sonnet", expected: false},
		{model: "", expected: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.model, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, IsEmbeddingModel(tt.model))
		})
	}
}
