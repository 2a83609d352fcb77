package feed

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/Sumatoshi-tech/adoptrack/internal/observability"
	"github.com/Sumatoshi-tech/adoptrack/pkg/timewin"
)

// rooFeatureMarker flags Copilot traffic proxied through the Roo extension:
// it shows up as an unknown chat panel mode with a real model name attached.
const rooFeatureMarker = "chat_panel_unknown_mode"

// Normalizer turns raw JSON records of one platform into canonical Records,
// filtering by the reporting window and tallying every outcome in Stats.
type Normalizer struct {
	Platform Platform
	Aliases  Aliases
	Window   timewin.Window
	Location *time.Location
	Stats    *observability.RunStats
}

// NewNormalizer builds a normalizer for the given platform with its default
// alias order.
func NewNormalizer(
	platform Platform,
	window timewin.Window,
	loc *time.Location,
	stats *observability.RunStats,
) *Normalizer {
	aliases := DefaultGitHubAliases()
	if platform == Workbench {
		aliases = DefaultWorkbenchAliases()
	}

	return &Normalizer{
		Platform: platform,
		Aliases:  aliases,
		Window:   window,
		Location: loc,
		Stats:    stats,
	}
}

// Normalize converts one raw record. It returns the canonical record and
// true when the record should flow into the merge engine; false means the
// record was rejected or fell outside the window, with the reason already
// tallied. Rejected records are dropped, never zero-filled.
func (n *Normalizer) Normalize(raw gjson.Result) (Record, bool) {
	n.Stats.Seen()

	if !raw.IsObject() {
		n.Stats.Reject(observability.ReasonBadPayload)

		return Record{}, false
	}

	identity := strings.TrimSpace(firstField(raw, n.Aliases.Identity).String())
	if identity == "" {
		n.Stats.Reject(observability.ReasonMissingIdentity)

		return Record{}, false
	}

	day, err := n.resolveDay(raw)
	if err != nil {
		return Record{}, false
	}

	if !n.Window.Contains(day) {
		n.Stats.Reject(observability.ReasonOutOfWindow)

		return Record{}, false
	}

	rec := Record{
		Platform: n.Platform,
		Identity: identity,
		Day:      day,
		Requests: n.coerceInt(firstField(raw, n.Aliases.Requests)),
	}

	switch n.Platform {
	case GitHub:
		n.fillGitHub(&rec, raw)
	case Workbench:
		n.fillWorkbench(&rec, raw)
	}

	n.Stats.Accept()

	return rec, true
}

// resolveDay extracts and parses the record's day field, tallying the
// missing-date and unparseable-date reasons separately.
func (n *Normalizer) resolveDay(raw gjson.Result) (time.Time, error) {
	value := strings.TrimSpace(firstField(raw, n.Aliases.Day).String())
	if value == "" {
		n.Stats.Reject(observability.ReasonMissingDate)

		return time.Time{}, errors.New("missing date")
	}

	day, err := timewin.ParseDay(value, n.Location)
	if err != nil {
		n.Stats.Reject(observability.ReasonUnparseableDate)

		return time.Time{}, err
	}

	return day, nil
}

// coerceInt reads a counter value leniently. Proper numbers pass through,
// numeric strings are parsed, and anything else (null, absent, garbage)
// becomes 0 with a data-quality tally. A user who logged in but had a
// malformed spend field still counts as active.
func (n *Normalizer) coerceInt(value gjson.Result) int64 {
	return int64(n.coerceFloat(value))
}

// coerceFloat reads a numeric field leniently. An absent field is a plain
// zero; a present but non-numeric value is zero plus a data-quality tally.
func (n *Normalizer) coerceFloat(value gjson.Result) float64 {
	if !value.Exists() {
		return 0
	}

	switch value.Type {
	case gjson.Number:
		return value.Float()
	case gjson.String:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value.Str), 64)
		if err != nil {
			n.Stats.CoercedCounters++

			return 0
		}

		return parsed
	default:
		n.Stats.CoercedCounters++

		return 0
	}
}

// fillGitHub extracts the Copilot-specific counters: code generation and
// acceptance activity, line counts, agent mode, per-feature and per-model
// breakdowns, and the Roo usage signal.
func (n *Normalizer) fillGitHub(rec *Record, raw gjson.Result) {
	rec.CodeGenerated = n.coerceInt(raw.Get("code_generation_activity_count"))
	rec.CodeAccepted = n.coerceInt(raw.Get("code_acceptance_activity_count"))
	rec.LOCAdded = n.coerceInt(raw.Get("loc_added_sum"))
	rec.LOCDeleted = n.coerceInt(raw.Get("loc_deleted_sum"))
	rec.UsedAgent = raw.Get("used_agent").Bool()

	features := raw.Get("totals_by_feature")
	if features.IsArray() {
		for _, entry := range features.Array() {
			name := entry.Get("feature").String()
			if name == "" {
				continue
			}

			if rec.FeatureRequests == nil {
				rec.FeatureRequests = make(map[string]int64)
			}

			rec.FeatureRequests[name] += n.coerceInt(entry.Get("user_initiated_interaction_count"))
		}
	}

	modelFeatures := raw.Get("totals_by_model_feature")
	if modelFeatures.IsArray() {
		for _, entry := range modelFeatures.Array() {
			model := entry.Get("model").String()
			feature := entry.Get("feature").String()
			count := n.coerceInt(entry.Get("count"))

			if model != "" {
				if rec.ModelRequests == nil {
					rec.ModelRequests = make(map[string]int64)
				}

				rec.ModelRequests[model] += count
			}

			if strings.Contains(strings.ToLower(feature), rooFeatureMarker) &&
				model != "" && !strings.EqualFold(model, "unknown") {
				rec.UsedRoo = true
			}
		}
	}
}

// fillWorkbench extracts the API-usage counters: spend, cache token totals
// and the model, splitting embedding traffic out of the request count.
func (n *Normalizer) fillWorkbench(rec *Record, raw gjson.Result) {
	rec.Spend = n.coerceFloat(firstField(raw, n.Aliases.Spend))
	rec.CacheReadTokens = n.coerceInt(raw.Get("cache_read_input_tokens"))
	rec.CacheCreationTokens = n.coerceInt(raw.Get("cache_creation_input_tokens"))
	rec.Model = firstField(raw, n.Aliases.Model).String()

	if rec.Model != "" {
		rec.ModelRequests = map[string]int64{rec.Model: rec.Requests}
	}

	if IsEmbeddingModel(rec.Model) {
		rec.EmbeddingRequests = rec.Requests
	}
}
