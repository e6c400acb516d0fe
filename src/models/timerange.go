package models

import (
	"math"
	"time"
)

// TimeRange is an inclusive time window. A zero bound is open.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// -----------------------------------------------------------------------------

// HasStart reports whether the range has a lower bound.
func (tr TimeRange) HasStart() bool {
	return !tr.Start.IsZero()
}

// HasEnd reports whether the range has an upper bound.
func (tr TimeRange) HasEnd() bool {
	return !tr.End.IsZero()
}

// -----------------------------------------------------------------------------

// Contains reports whether ts (unix ms) falls inside the range.
func (tr TimeRange) Contains(ts int64) bool {
	if tr.HasStart() && ts < tr.Start.UnixMilli() {
		return false
	}
	if tr.HasEnd() && ts > tr.End.UnixMilli() {
		return false
	}
	return true
}

// -----------------------------------------------------------------------------

// Days returns the length of the range in whole days, rounded up.
// An open end is measured against now. Without a start it returns 0.
func (tr TimeRange) Days(now time.Time) int {
	if !tr.HasStart() {
		return 0
	}
	end := now
	if tr.HasEnd() {
		end = tr.End
	}
	if !end.After(tr.Start) {
		return 0
	}
	return int(math.Ceil(end.Sub(tr.Start).Hours() / 24))
}

// -----------------------------------------------------------------------------

func (tr TimeRange) String() string {
	const layout = "20060102"
	s, e := "", ""
	if tr.HasStart() {
		s = tr.Start.UTC().Format(layout)
	}
	if tr.HasEnd() {
		e = tr.End.UTC().Format(layout)
	}
	return s + "-" + e
}
