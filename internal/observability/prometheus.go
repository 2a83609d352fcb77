package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const metricNamespace = "adoptrack"

var (
	inputRecordsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(metricNamespace, "ingest", "input_records_total"),
		"Raw records seen before filtering.",
		nil, nil,
	)
	normalizedDesc = prometheus.NewDesc(
		prometheus.BuildFQName(metricNamespace, "ingest", "normalized_records_total"),
		"Records that passed normalization and window filtering.",
		nil, nil,
	)
	rejectedDesc = prometheus.NewDesc(
		prometheus.BuildFQName(metricNamespace, "ingest", "rejected_records_total"),
		"Records skipped during normalization, by reason.",
		[]string{"reason"}, nil,
	)
	coercedDesc = prometheus.NewDesc(
		prometheus.BuildFQName(metricNamespace, "ingest", "coerced_counters_total"),
		"Non-numeric counter values coerced to zero.",
		nil, nil,
	)
	fallbackDesc = prometheus.NewDesc(
		prometheus.BuildFQName(metricNamespace, "identity", "fallback_identities_total"),
		"Identities resolved via platform login instead of a mapped email.",
		nil, nil,
	)
	rosterExcludedDesc = prometheus.NewDesc(
		prometheus.BuildFQName(metricNamespace, "identity", "roster_excluded_total"),
		"Records dropped because their identity is absent from the roster.",
		nil, nil,
	)
)

// statsCollector exposes a RunStats snapshot as Prometheus const metrics.
type statsCollector struct {
	stats *RunStats
}

// Collector returns a Prometheus view over the run's counters. Values are
// read at scrape/gather time, so the collector stays accurate as the run
// progresses.
func (s *RunStats) Collector() prometheus.Collector {
	return statsCollector{stats: s}
}

// Registry builds a fresh per-run registry with the stats collector
// registered. Each run gets its own registry so repeated runs inside one
// process never collide on collector registration.
func (s *RunStats) Registry() (*prometheus.Registry, error) {
	registry := prometheus.NewRegistry()

	err := registry.Register(s.Collector())
	if err != nil {
		return nil, fmt.Errorf("register run stats collector: %w", err)
	}

	return registry, nil
}

func (c statsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- inputRecordsDesc
	ch <- normalizedDesc
	ch <- rejectedDesc
	ch <- coercedDesc
	ch <- fallbackDesc
	ch <- rosterExcludedDesc
}

func (c statsCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(inputRecordsDesc, prometheus.CounterValue, float64(c.stats.InputRecords))
	ch <- prometheus.MustNewConstMetric(normalizedDesc, prometheus.CounterValue, float64(c.stats.Normalized))

	for reason, count := range c.stats.Rejections() {
		ch <- prometheus.MustNewConstMetric(rejectedDesc, prometheus.CounterValue, float64(count), string(reason))
	}

	ch <- prometheus.MustNewConstMetric(coercedDesc, prometheus.CounterValue, float64(c.stats.CoercedCounters))
	ch <- prometheus.MustNewConstMetric(fallbackDesc, prometheus.CounterValue, float64(c.stats.FallbackIdentities))
	ch <- prometheus.MustNewConstMetric(rosterExcludedDesc, prometheus.CounterValue, float64(c.stats.RosterExcluded))
}
