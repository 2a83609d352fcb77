// Package report renders the finalized adoption summary and per-user rows
// into the output formats: CSV, terminal text, an HTML dashboard and a YAML
// summary export. Field names and row ordering are stable across runs so
// downstream consumers of the CSV do not break.
package report

import (
	"sort"
	"strconv"
	"strings"
)

// formatBreakdown renders a name→count map as "name: count, name: count",
// ordered by count descending, then name, so equal counts render stably.
func formatBreakdown(counts map[string]int64) string {
	if len(counts) == 0 {
		return ""
	}

	type entry struct {
		name  string
		count int64
	}

	entries := make([]entry, 0, len(counts))
	for name, count := range counts {
		entries = append(entries, entry{name: name, count: count})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}

		return entries[i].name < entries[j].name
	})

	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, e.name+": "+strconv.FormatInt(e.count, 10))
	}

	return strings.Join(parts, ", ")
}

func yesNo(flag bool) string {
	if flag {
		return "Yes"
	}

	return "No"
}
