package feed

import (
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/Sumatoshi-tech/adoptrack/internal/observability"
)

// Read consumes an entire feed from r and normalizes every record in it.
// Per-record problems are tallied and skipped; only a payload that cannot be
// decoded at all is returned as an error.
func Read(r io.Reader, normalizer *Normalizer) ([]Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s feed: %w", normalizer.Platform, err)
	}

	rawRecords, badLines, err := DecodeRecords(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s feed: %w", normalizer.Platform, err)
	}

	// Undecodable NDJSON lines are per-record losses, not fatal.
	for i := 0; i < badLines; i++ {
		normalizer.Stats.Seen()
		normalizer.Stats.Reject(observability.ReasonBadPayload)
	}

	records := make([]Record, 0, len(rawRecords))

	for _, raw := range rawRecords {
		rec, ok := normalizer.Normalize(raw)
		if ok {
			records = append(records, rec)
		}
	}

	return records, nil
}

// DecodeRecords splits a raw feed payload into individual JSON records.
// Accepted payload shapes:
//
//   - a JSON array of records
//   - a single JSON object (one record)
//   - an object with exactly one key whose value is an array of records;
//     some exports wrap their rows in the SQL query that produced them
//   - newline-delimited JSON, where each line may itself be any of the above
//
// badLines counts NDJSON lines that failed to parse. An error is returned
// only when the payload as a whole yields nothing parseable.
func DecodeRecords(data []byte) (records []gjson.Result, badLines int, err error) {
	content := strings.TrimSpace(string(data))
	if content == "" {
		return nil, 0, nil
	}

	if gjson.Valid(content) {
		return flatten(gjson.Parse(content)), 0, nil
	}

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if !gjson.Valid(line) {
			badLines++

			continue
		}

		records = append(records, flatten(gjson.Parse(line))...)
	}

	if len(records) == 0 {
		return nil, 0, ErrUnparseableFeed
	}

	return records, badLines, nil
}

// flatten unwraps a parsed payload into record-level results.
func flatten(parsed gjson.Result) []gjson.Result {
	if parsed.IsArray() {
		return parsed.Array()
	}

	if parsed.IsObject() {
		entries := parsed.Map()
		if len(entries) == 1 {
			for _, value := range entries {
				if value.IsArray() {
					return value.Array()
				}
			}
		}

		return []gjson.Result{parsed}
	}

	return []gjson.Result{parsed}
}
