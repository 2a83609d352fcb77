package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStatsAccounting(t *testing.T) {
	t.Parallel()

	t.Run("balanced_when_all_accounted", func(t *testing.T) {
		t.Parallel()

		var stats RunStats

		for i := 0; i < 5; i++ {
			stats.Seen()
		}

		stats.Accept()
		stats.Accept()
		stats.Accept()
		stats.Reject(ReasonMissingIdentity)
		stats.Reject(ReasonOutOfWindow)

		assert.True(t, stats.Balanced())
		assert.Equal(t, int64(2), stats.TotalRejected())
	})

	t.Run("unbalanced_when_record_lost", func(t *testing.T) {
		t.Parallel()

		var stats RunStats

		stats.Seen()
		stats.Seen()
		stats.Accept()

		assert.False(t, stats.Balanced())
	})

	t.Run("rejections_keyed_by_reason", func(t *testing.T) {
		t.Parallel()

		var stats RunStats

		stats.Reject(ReasonUnparseableDate)
		stats.Reject(ReasonUnparseableDate)
		stats.Reject(ReasonMissingDate)

		rejections := stats.Rejections()
		assert.Equal(t, int64(2), rejections[ReasonUnparseableDate])
		assert.Equal(t, int64(1), rejections[ReasonMissingDate])
		assert.Equal(t, int64(0), rejections[ReasonBadPayload])
	})
}

func TestRunStatsMerge(t *testing.T) {
	t.Parallel()

	left := RunStats{InputRecords: 10, Normalized: 8, MissingIdentity: 2, CoercedCounters: 1}
	right := RunStats{InputRecords: 4, Normalized: 3, OutOfWindow: 1, FallbackIdentities: 2}

	left.Merge(&right)

	assert.Equal(t, int64(14), left.InputRecords)
	assert.Equal(t, int64(11), left.Normalized)
	assert.Equal(t, int64(3), left.TotalRejected())
	assert.Equal(t, int64(2), left.FallbackIdentities)
	assert.True(t, left.Balanced())
}

func TestRunStatsCollector(t *testing.T) {
	t.Parallel()

	var stats RunStats

	stats.Seen()
	stats.Seen()
	stats.Accept()
	stats.Reject(ReasonMissingIdentity)

	registry, err := stats.Registry()
	require.NoError(t, err)

	families, err := registry.Gather()
	require.NoError(t, err)

	byName := make(map[string]float64)

	for _, family := range families {
		for _, metric := range family.GetMetric() {
			name := family.GetName()
			if len(metric.GetLabel()) > 0 {
				name += "/" + metric.GetLabel()[0].GetValue()
			}

			byName[name] = metric.GetCounter().GetValue()
		}
	}

	assert.InDelta(t, 2, byName["adoptrack_ingest_input_records_total"], 0.0001)
	assert.InDelta(t, 1, byName["adoptrack_ingest_normalized_records_total"], 0.0001)
	assert.InDelta(t, 1, byName["adoptrack_ingest_rejected_records_total/missing_identity"], 0.0001)

	// The collector reads live values at gather time.
	stats.Seen()
	count := testutil.CollectAndCount(stats.Collector())
	assert.Positive(t, count)
}
