package segcore

import "math"

// roundSlice applies spec.md §4.5's rounding filter to dist in place.
// roundDecimal == -1 means "no rounding" and is a no-op. Otherwise every
// value is rounded to roundDecimal fractional digits using round-half-
// away-from-zero, which is what math.Round already implements for both
// positive and negative inputs, so no third-party decimal library is
// pulled in for this (see DESIGN.md).
//
// Rounding runs exactly once, after the final merge, never per-chunk or
// per-kernel-call: rounding distances before comparing them would corrupt
// the merge's tie-break and ordering guarantees.
func roundSlice(roundDecimal int, dist []float32) {
	if roundDecimal < 0 {
		return
	}
	scale := math.Pow(10, float64(roundDecimal))
	for i, d := range dist {
		if math.IsInf(float64(d), 0) {
			continue
		}
		dist[i] = float32(math.Round(float64(d)*scale) / scale)
	}
}
