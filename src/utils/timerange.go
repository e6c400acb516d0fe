package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"pair-analysis/src/models"
)

var (
	reDateRange = regexp.MustCompile(`^(\d{8})?-(\d{8})?$`)
	reUnixRange = regexp.MustCompile(`^(\d{10})?-(\d{10})?$`)
)

// -----------------------------------------------------------------------------

// ParseTimeRange parses "YYYYMMDD-YYYYMMDD", either side may be omitted, or
// the same shape with 10 digit unix seconds. An empty string is unbounded.
func ParseTimeRange(text string) (models.TimeRange, error) {
	var tr models.TimeRange
	if text == "" {
		return tr, nil
	}

	if m := reDateRange.FindStringSubmatch(text); m != nil {
		start, err := parseDay(m[1])
		if err != nil {
			return tr, err
		}
		end, err := parseDay(m[2])
		if err != nil {
			return tr, err
		}
		tr = models.TimeRange{Start: start, End: end}
	} else if m := reUnixRange.FindStringSubmatch(text); m != nil {
		tr = models.TimeRange{Start: parseUnix(m[1]), End: parseUnix(m[2])}
	} else {
		return tr, fmt.Errorf("incorrect syntax for timerange %q", text)
	}

	if tr.HasStart() && tr.HasEnd() && tr.End.Before(tr.Start) {
		return models.TimeRange{}, fmt.Errorf("timerange %q ends before it starts", text)
	}
	return tr, nil
}

// -----------------------------------------------------------------------------

func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation("20060102", s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

func parseUnix(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	sec, _ := strconv.ParseInt(s, 10, 64)
	return time.Unix(sec, 0).UTC()
}

// -----------------------------------------------------------------------------

// NewPairsDays is the lookback used for pairs without local data.
func NewPairsDays(tr models.TimeRange, now time.Time) int {
	if d := tr.Days(now); d > 0 {
		return d
	}
	return DefaultNewPairsDays
}
