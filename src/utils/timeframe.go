package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var reTimeframe = regexp.MustCompile(`^(\d+)([smhdwM])$`)

// -----------------------------------------------------------------------------

// TimeframeToDuration converts "5m", "1h", "1d", "1w" or "1M" to a duration.
// A month counts as 30 days; candle boundaries come from CandleOpen and
// StepCandle.
func TimeframeToDuration(tf string) (time.Duration, error) {
	n, u, err := parseTimeframe(tf)
	if err != nil {
		return 0, err
	}

	var unit time.Duration
	switch u {
	case "s":
		unit = time.Second
	case "m":
		unit = time.Minute
	case "h":
		unit = time.Hour
	case "d":
		unit = 24 * time.Hour
	case "w":
		unit = 7 * 24 * time.Hour
	case "M":
		unit = 30 * 24 * time.Hour
	}
	return time.Duration(n) * unit, nil
}

// -----------------------------------------------------------------------------

const (
	dayMs = int64(24 * time.Hour / time.Millisecond)
	// 1970-01-05, the first Monday after the epoch.
	firstMondayMs = 4 * dayMs
)

// CandleOpen returns the open time (ms) of the tf candle holding ts. Weeks
// open on Monday and months on the first day, in UTC.
func CandleOpen(ts int64, tf string) (int64, error) {
	n, unit, err := parseTimeframe(tf)
	if err != nil {
		return 0, err
	}

	switch unit {
	case "M":
		t := time.UnixMilli(ts).UTC()
		months := (t.Year()-1970)*12 + int(t.Month()) - 1
		months -= int(floorMod(int64(months), int64(n)))
		return time.Date(1970, time.Month(months+1), 1, 0, 0, 0, 0, time.UTC).UnixMilli(), nil
	case "w":
		width := int64(n) * 7 * dayMs
		return ts - floorMod(ts-firstMondayMs, width), nil
	}

	d, _ := TimeframeToDuration(tf)
	return ts - floorMod(ts, d.Milliseconds()), nil
}

// StepCandle moves a candle open time by k candles. Months step by calendar
// month.
func StepCandle(open int64, tf string, k int) (int64, error) {
	n, unit, err := parseTimeframe(tf)
	if err != nil {
		return 0, err
	}
	if unit == "M" {
		return time.UnixMilli(open).UTC().AddDate(0, k*n, 0).UnixMilli(), nil
	}
	d, _ := TimeframeToDuration(tf)
	return open + int64(k)*d.Milliseconds(), nil
}

func parseTimeframe(tf string) (int, string, error) {
	m := reTimeframe.FindStringSubmatch(tf)
	if m == nil {
		return 0, "", fmt.Errorf("invalid timeframe %q", tf)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0, "", fmt.Errorf("invalid timeframe %q", tf)
	}
	return n, m[2], nil
}

func floorMod(a, b int64) int64 {
	r := a % b
	if r < 0 {
		r += b
	}
	return r
}
