// Package observability provides run-scoped diagnostic accounting for the
// ingestion pipeline. Counters are plain struct fields owned by a single run
// and passed explicitly; repeated or concurrent runs can never
// cross-contaminate each other's counts. Silent record loss is the single
// most damaging failure mode of this system, so every skipped record is
// tallied under a named reason and surfaced after the run.
package observability

// RejectReason classifies why a record was skipped during normalization.
type RejectReason string

// Rejection reasons. OutOfWindow is deliberately separate from
// UnparseableDate: "happened outside the window" and "cannot tell when this
// happened" are different failure classes operators must distinguish.
const (
	ReasonMissingIdentity RejectReason = "missing_identity"
	ReasonMissingDate     RejectReason = "missing_date"
	ReasonUnparseableDate RejectReason = "unparseable_date"
	ReasonOutOfWindow     RejectReason = "out_of_window"
	ReasonBadPayload      RejectReason = "bad_payload"
)

// RunStats accumulates per-run diagnostic counters. Not safe for concurrent
// mutation; parallel ingestion uses one RunStats per worker and combines the
// partials with Merge.
type RunStats struct {
	// InputRecords is the number of raw records seen, before any filtering.
	InputRecords int64
	// Normalized is the number of records that passed normalization and
	// window filtering and were handed to the merge engine.
	Normalized int64

	// Per-reason rejection counts.
	MissingIdentity int64
	MissingDate     int64
	UnparseableDate int64
	OutOfWindow     int64
	BadPayload      int64

	// Data-quality warnings. These records were kept.
	CoercedCounters    int64
	FallbackIdentities int64
	RosterExcluded     int64
}

// Seen tallies one raw input record.
func (s *RunStats) Seen() {
	s.InputRecords++
}

// Accept tallies one successfully normalized, in-window record.
func (s *RunStats) Accept() {
	s.Normalized++
}

// Reject tallies one skipped record under the given reason.
func (s *RunStats) Reject(reason RejectReason) {
	switch reason {
	case ReasonMissingIdentity:
		s.MissingIdentity++
	case ReasonMissingDate:
		s.MissingDate++
	case ReasonUnparseableDate:
		s.UnparseableDate++
	case ReasonOutOfWindow:
		s.OutOfWindow++
	case ReasonBadPayload:
		s.BadPayload++
	}
}

// Rejections returns the per-reason rejection counts keyed by reason.
func (s *RunStats) Rejections() map[RejectReason]int64 {
	return map[RejectReason]int64{
		ReasonMissingIdentity: s.MissingIdentity,
		ReasonMissingDate:     s.MissingDate,
		ReasonUnparseableDate: s.UnparseableDate,
		ReasonOutOfWindow:     s.OutOfWindow,
		ReasonBadPayload:      s.BadPayload,
	}
}

// TotalRejected returns the sum of all rejection counters.
func (s *RunStats) TotalRejected() int64 {
	return s.MissingIdentity + s.MissingDate + s.UnparseableDate + s.OutOfWindow + s.BadPayload
}

// Balanced reports whether every input record is accounted for as either
// normalized or rejected. A false result means records were lost silently
// and the run cannot be trusted.
func (s *RunStats) Balanced() bool {
	return s.InputRecords == s.Normalized+s.TotalRejected()
}

// Merge folds the counters of other into s. Used to combine per-worker
// partial stats after parallel ingestion.
func (s *RunStats) Merge(other *RunStats) {
	s.InputRecords += other.InputRecords
	s.Normalized += other.Normalized
	s.MissingIdentity += other.MissingIdentity
	s.MissingDate += other.MissingDate
	s.UnparseableDate += other.UnparseableDate
	s.OutOfWindow += other.OutOfWindow
	s.BadPayload += other.BadPayload
	s.CoercedCounters += other.CoercedCounters
	s.FallbackIdentities += other.FallbackIdentities
	s.RosterExcluded += other.RosterExcluded
}
