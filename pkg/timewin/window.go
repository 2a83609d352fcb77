// Package timewin implements the reporting window: month or explicit date
// range selection, heterogeneous day parsing, and business-day arithmetic.
//
// All days are normalized to midnight in a single reporting time zone before
// any comparison. Timestamps carrying an offset are converted into the
// reporting zone first; naive timestamps are assumed to already be in it.
package timewin

import (
	"errors"
	"fmt"
	"time"
)

// Error definitions for window construction and day parsing.
var (
	// ErrStartAfterEnd indicates a range whose start date is after its end date.
	ErrStartAfterEnd = errors.New("timewin: start date is after end date")
	// ErrBadMonth indicates a month string that is not in YYYY-MM form.
	ErrBadMonth = errors.New("timewin: invalid month, expected YYYY-MM")
	// ErrUnparseableDay indicates a day value no accepted layout could parse.
	// This is a distinct failure class from "outside the window": operators
	// must be able to tell "cannot tell when this happened" apart from
	// "happened at another time".
	ErrUnparseableDay = errors.New("timewin: unparseable day")
)

const (
	dayLayout        = "2006-01-02"
	monthLayout      = "2006-01"
	naiveLayout      = "2006-01-02T15:04:05"
	naiveSpaceLayout = "2006-01-02 15:04:05"
)

// Window is an inclusive [Start, End] date range in the reporting zone.
// Start and End are always midnight in that zone.
type Window struct {
	Start time.Time
	End   time.Time
}

// FromMonth builds a window spanning a whole calendar month ("2025-09").
func FromMonth(month string, loc *time.Location) (Window, error) {
	first, err := time.ParseInLocation(monthLayout, month, loc)
	if err != nil {
		return Window{}, fmt.Errorf("%w: %q", ErrBadMonth, month)
	}

	last := first.AddDate(0, 1, -1)

	return Window{Start: first, End: last}, nil
}

// FromRange builds a window from explicit start and end days (YYYY-MM-DD).
func FromRange(start, end string, loc *time.Location) (Window, error) {
	startDay, err := time.ParseInLocation(dayLayout, start, loc)
	if err != nil {
		return Window{}, fmt.Errorf("%w: %q", ErrUnparseableDay, start)
	}

	endDay, err := time.ParseInLocation(dayLayout, end, loc)
	if err != nil {
		return Window{}, fmt.Errorf("%w: %q", ErrUnparseableDay, end)
	}

	if startDay.After(endDay) {
		return Window{}, fmt.Errorf("%w: %s > %s", ErrStartAfterEnd, start, end)
	}

	return Window{Start: startDay, End: endDay}, nil
}

// Contains reports whether day falls inside the window, inclusive on both ends.
func (w Window) Contains(day time.Time) bool {
	return !day.Before(w.Start) && !day.After(w.End)
}

// BusinessDays counts the Monday-to-Friday days in the window.
// Holidays are not excluded.
func (w Window) BusinessDays() int {
	count := 0

	for day := w.Start; !day.After(w.End); day = day.AddDate(0, 0, 1) {
		wd := day.Weekday()
		if wd != time.Saturday && wd != time.Sunday {
			count++
		}
	}

	return count
}

// Days returns every calendar day in the window, in order.
func (w Window) Days() []time.Time {
	var days []time.Time

	for day := w.Start; !day.After(w.End); day = day.AddDate(0, 0, 1) {
		days = append(days, day)
	}

	return days
}

// String renders the window as "YYYY-MM-DD to YYYY-MM-DD".
func (w Window) String() string {
	return w.Start.Format(dayLayout) + " to " + w.End.Format(dayLayout)
}

// ParseDay parses a heterogeneously encoded day value and normalizes it to
// midnight in loc. Accepted layouts, in order:
//
//   - plain date: 2025-09-03
//   - RFC 3339 timestamp with offset: 2025-09-03T22:15:04-04:00 (converted
//     into loc, then truncated to the date)
//   - naive datetime without offset: 2025-09-03T22:15:04 or with a space
//     separator (assumed to already be in loc)
func ParseDay(value string, loc *time.Location) (time.Time, error) {
	if t, err := time.ParseInLocation(dayLayout, value, loc); err == nil {
		return t, nil
	}

	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return DayOf(t, loc), nil
	}

	if t, err := time.ParseInLocation(naiveLayout, value, loc); err == nil {
		return DayOf(t, loc), nil
	}

	if t, err := time.ParseInLocation(naiveSpaceLayout, value, loc); err == nil {
		return DayOf(t, loc), nil
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseableDay, value)
}

// DayOf truncates t to midnight of its calendar day in loc.
func DayOf(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	year, month, day := local.Date()

	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}
