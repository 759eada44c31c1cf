// Package angles estimates the extent of cyclic quantities such as longitude
// and azimuth.
package angles

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Full is the coverage reported when the samples cannot be told apart from a
// complete circle.
var (
	Full         = [2]float64{0, 360}
	FullMinus180 = [2]float64{-180, 180}
)

// Mod360 reduces v into [0, 360).
func Mod360(v float64) float64 {
	v = math.Mod(v, 360)
	if v < 0 {
		v += 360
	}
	if v >= 360 {
		v -= 360
	}
	return v
}

// Minus180 maps v into [-180, 180).
func Minus180(v float64) float64 {
	return Mod360(v+180) - 180
}

// GapThreshold is the smallest largest-gap, in degrees, for which n samples
// give 90% confidence that coverage is incomplete.
func GapThreshold(n int) float64 {
	if n < len(ninetyPercentRange) {
		return 360 - ninetyPercentRange[n]
	}
	return 1808 * math.Pow(float64(n), -0.912)
}

// EstimateRange returns [lower, upper] bounding the samples along the
// shortest arc that leaves out the largest gap. When the largest gap is too
// small to rule out complete coverage the full circle is returned. With
// minus180 set, results are expressed in [-180, 180).
func EstimateRange(samples []float64, minus180 bool) [2]float64 {
	conv := Mod360
	full := Full
	if minus180 {
		conv = Minus180
		full = FullMinus180
	}

	switch len(samples) {
	case 0:
		return [2]float64{math.NaN(), math.NaN()}
	case 1:
		v := conv(samples[0])
		return [2]float64{v, v}
	}

	vals := make([]float64, len(samples))
	for i, s := range samples {
		vals[i] = Mod360(s)
	}
	sort.Float64s(vals)

	n := len(vals)
	diffs := make([]float64, n)
	for i := 0; i < n-1; i++ {
		diffs[i] = vals[i+1] - vals[i]
	}
	diffs[n-1] = vals[0] + 360 - vals[n-1]

	gap := floats.MaxIdx(diffs)
	if diffs[gap] < GapThreshold(n) {
		return full
	}
	lower, upper := vals[(gap+1)%n], vals[gap]
	if minus180 {
		lower, upper = Minus180(lower), Minus180(upper)
	}
	return [2]float64{lower, upper}
}

// RangeOfNAngles draws n uniform angles tests times and returns the span,
// in degrees, that contains all n angles with probability prob.
func RangeOfNAngles(n int, prob float64, tests int, rng *rand.Rand) float64 {
	if n < 2 || tests < 1 {
		return 0
	}
	maxDiffs := make([]float64, tests)
	vals := make([]float64, n)
	diffs := make([]float64, n)
	for k := range maxDiffs {
		for i := range vals {
			vals[i] = rng.Float64() * 360
		}
		sort.Float64s(vals)
		for i := 0; i < n-1; i++ {
			diffs[i] = vals[i+1] - vals[i]
		}
		diffs[n-1] = vals[0] + 360 - vals[n-1]
		maxDiffs[k] = floats.Max(diffs)
	}
	sort.Float64s(maxDiffs)
	cutoff := int((1-prob)*float64(tests) + 0.5)
	if cutoff >= tests {
		cutoff = tests - 1
	}
	return 360 - maxDiffs[cutoff]
}
