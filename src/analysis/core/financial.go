package core

import (
	"math"
	"sort"
)

// -----------------------------------------------------------------------------

// Ratio divides values by ref element-wise. A missing or zero denominator
// gives NaN.
func Ratio(values, ref []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		if i >= len(ref) || ref[i] == 0 || math.IsNaN(ref[i]) {
			out[i] = math.NaN()
			continue
		}
		out[i] = v / ref[i]
	}
	return out
}

// -----------------------------------------------------------------------------

// FirstValid returns the first non-NaN value, back-filling leading gaps.
func FirstValid(values []float64) (float64, bool) {
	for _, v := range values {
		if !math.IsNaN(v) {
			return v, true
		}
	}
	return math.NaN(), false
}

// Normalize rebases values so the first valid point is 1.
func Normalize(values []float64) []float64 {
	out := make([]float64, len(values))
	base, ok := FirstValid(values)
	for i, v := range values {
		if !ok || base == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = v / base
	}
	return out
}

// -----------------------------------------------------------------------------

// Ranked is a labelled value used for ordering.
type Ranked struct {
	Label string
	Value float64
}

// TopN returns the n highest values, largest first. NaN is never ranked and
// ties keep input order.
func TopN(items []Ranked, n int) []Ranked {
	valid := make([]Ranked, 0, len(items))
	for _, it := range items {
		if !math.IsNaN(it.Value) {
			valid = append(valid, it)
		}
	}
	sort.SliceStable(valid, func(i, j int) bool { return valid[i].Value > valid[j].Value })
	if n >= 0 && len(valid) > n {
		valid = valid[:n]
	}
	return valid
}
