// Package stats provides the statistical primitives used by the adoption
// metrics engine. Percentiles use linear interpolation between closest
// ranks; this method is part of the public reporting contract and must not
// change between releases, since median/p75/p90 values on small user
// populations differ materially across interpolation methods.
package stats

import (
	"cmp"
	"math"
	"slices"
)

// Well-known percentile thresholds used by adoption summaries.
const (
	PercentileMedian = 0.5
	PercentileP75    = 0.75
	PercentileP90    = 0.9
)

const percentScale = 100.0

// Mean returns the arithmetic mean of values.
// Returns 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64

	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

// Percentile returns the p-th percentile of values using linear interpolation
// between the two closest ranks. p must be in [0, 1]. The input slice is not
// modified (a copy is sorted internally). Returns 0 for an empty slice.
func Percentile(values []float64, p float64) float64 {
	count := len(values)
	if count == 0 {
		return 0
	}

	sorted := make([]float64, count)
	copy(sorted, values)
	slices.Sort(sorted)

	idx := p * float64(count-1)
	lower := int(math.Floor(idx))
	upper := int(math.Ceil(idx))

	if lower == upper || upper >= count {
		return sorted[lower]
	}

	frac := idx - float64(lower)

	return sorted[lower]*(1-frac) + sorted[upper]*frac
}

// Median returns the 50th percentile of values.
// Returns 0 for an empty slice.
func Median(values []float64) float64 {
	return Percentile(values, PercentileMedian)
}

// Clamp restricts val to the range [lo, hi].
func Clamp[T cmp.Ordered](val, lo, hi T) T {
	return max(lo, min(val, hi))
}

// Sum returns the sum of all elements in values.
// Returns the zero value of T for an empty slice.
func Sum[T cmp.Ordered](values []T) T {
	var result T

	for _, v := range values {
		result += v
	}

	return result
}

// Ratio returns numerator/denominator scaled to a percentage, or 0 when the
// denominator is zero. Callers that need capping apply Clamp explicitly.
func Ratio(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}

	return numerator / denominator * percentScale
}
