package angles

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func spread(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + (hi-lo)*float64(i)/float64(n-1)
	}
	return out
}

func TestEstimateRangeSingleSample(t *testing.T) {
	assert.Equal(t, [2]float64{42, 42}, EstimateRange([]float64{42}, false))
	assert.Equal(t, [2]float64{-10, -10}, EstimateRange([]float64{350}, true))
}

func TestEstimateRangeEmpty(t *testing.T) {
	r := EstimateRange(nil, false)
	assert.True(t, math.IsNaN(r[0]))
	assert.True(t, math.IsNaN(r[1]))
}

func TestEstimateRangeNarrowBand(t *testing.T) {
	r := EstimateRange(spread(80, 100, 100), false)
	assert.InDelta(t, 80, r[0], 1e-9)
	assert.InDelta(t, 100, r[1], 1e-9)
}

func TestEstimateRangeAcrossZero(t *testing.T) {
	samples := append(spread(350, 359.9, 50), spread(0, 10, 50)...)

	r := EstimateRange(samples, false)
	assert.InDelta(t, 350, r[0], 1e-9)
	assert.InDelta(t, 10, r[1], 1e-9)

	r = EstimateRange(samples, true)
	assert.InDelta(t, -10, r[0], 1e-9)
	assert.InDelta(t, 10, r[1], 1e-9)
}

func TestEstimateRangeNegativeInputs(t *testing.T) {
	r := EstimateRange(spread(-10, 10, 100), false)
	assert.InDelta(t, 350, r[0], 1e-9)
	assert.InDelta(t, 10, r[1], 1e-9)
}

func TestEstimateRangeUniformCoverage(t *testing.T) {
	samples := make([]float64, 360)
	for i := range samples {
		samples[i] = float64(i)
	}
	assert.Equal(t, Full, EstimateRange(samples, false))
	assert.Equal(t, FullMinus180, EstimateRange(samples, true))
}

func TestGapThreshold(t *testing.T) {
	assert.InDelta(t, 360-335.909, GapThreshold(100), 1e-9)
	assert.InDelta(t, 360-356.717, GapThreshold(999), 1e-9)
	assert.InDelta(t, 1808*math.Pow(5000, -0.912), GapThreshold(5000), 1e-9)
}

func TestRangeOfNAnglesTracksTable(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	got := RangeOfNAngles(10, 0.1, 20000, rng)
	assert.InDelta(t, ninetyPercentRange[10], got, 3)
}

func TestMinus180(t *testing.T) {
	assert.Equal(t, -180.0, Minus180(180))
	assert.Equal(t, 179.0, Minus180(179))
	assert.Equal(t, -1.0, Minus180(359))
}
