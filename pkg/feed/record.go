// Package feed parses the two raw usage feeds (GitHub Copilot activity and
// Workbench API usage) into canonical per-user-per-day records. Field names
// in the source files are inconsistent between exports, so every logical
// field is resolved through an ordered alias list; the first alias present
// in a record wins. A record is rejected only for a missing identity or a
// missing/unparseable date — a bad counter value coerces to zero and the
// record still counts as activity.
package feed

import (
	"errors"
	"strings"
	"time"
)

// Platform identifies the source feed of a record.
type Platform string

// Supported source platforms.
const (
	GitHub    Platform = "github"
	Workbench Platform = "workbench"
)

// Record is one normalized activity observation: a user, a calendar day and
// the intensity counters reported for that day. Day is midnight in the
// reporting time zone.
type Record struct {
	Platform Platform
	Identity string
	Day      time.Time

	Requests          int64
	EmbeddingRequests int64
	Spend             float64

	CodeGenerated int64
	CodeAccepted  int64
	LOCAdded      int64
	LOCDeleted    int64

	CacheReadTokens     int64
	CacheCreationTokens int64

	UsedAgent bool
	UsedRoo   bool

	Model           string
	ModelRequests   map[string]int64
	FeatureRequests map[string]int64
}

// ErrUnparseableFeed indicates a feed file that could not be decoded as a
// whole: not a JSON array, not an object wrapper, and no line of it parses
// as newline-delimited JSON. This aborts the run.
var ErrUnparseableFeed = errors.New("feed: unparseable input")

// embeddingPrefixes are model-name prefixes that identify embedding models.
var embeddingPrefixes = []string{
	"text-embedding-",
	"amazon.titan-embed-",
	"titan-embed-",
	"cohere.embed-",
}

// IsEmbeddingModel reports whether model is an embedding/indexing model
// rather than a generative one. Embedding traffic is tracked separately
// because it reflects indexing jobs, not hands-on assistant usage.
func IsEmbeddingModel(model string) bool {
	if model == "" {
		return false
	}

	lower := strings.ToLower(model)
	if strings.Contains(lower, "embed") {
		return true
	}

	for _, prefix := range embeddingPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}

	return false
}
