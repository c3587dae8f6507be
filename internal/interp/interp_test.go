package interp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHoldReturnsX0(t *testing.T) {
	f := For(Hold)
	assert.Equal(t, float32(3.5), f([]float32{3.5}, 0.7))
}

func TestLinearInterpolatesBetweenEndpoints(t *testing.T) {
	f := For(Linear)

	assert.InDelta(t, 0.0, f([]float32{0, 10}, 0), 1e-6)
	assert.InDelta(t, 10.0, f([]float32{0, 10}, 1), 1e-6)
	assert.InDelta(t, 5.0, f([]float32{0, 10}, 0.5), 1e-6)
}

func TestSpline3PassesThroughControlPoints(t *testing.T) {
	f := For(Spline3)
	window := []float32{1, 2, 5, 9} // ym1, y0, y1, y2

	assert.InDelta(t, 2.0, f(window, 0), 1e-4, "phi=0 should reproduce y0")
	assert.InDelta(t, 5.0, f(window, 1), 1e-4, "phi=1 should reproduce y1")
}

func TestSpline5PassesThroughControlPoints(t *testing.T) {
	f := For(Spline5)
	window := []float32{-2, -1, 0, 1, 2, 3} // ym2..y3, linear ramp

	// A perfectly linear ramp should interpolate linearly at any phase.
	for _, phi := range []float64{0, 0.25, 0.5, 0.75} {
		got := f(window, phi)
		want := phi // y0=0, y1=1
		assert.InDelta(t, want, got, 1e-3)
	}
}

func TestLeftRightTapCounts(t *testing.T) {
	cases := []struct {
		o                  Order
		wantLeft, wantRight int
	}{
		{Hold, 0, 0},
		{Linear, 0, 1},
		{Spline3, 1, 2},
		{Spline5, 2, 3},
	}
	for _, c := range cases {
		assert.Equal(t, c.wantLeft, c.o.LeftTaps())
		assert.Equal(t, c.wantRight, c.o.RightTaps())
	}
}

func TestExtrapolateHoldIsFlat(t *testing.T) {
	got := Extrapolate(Hold, 4.0, 2.0, 0.5)
	assert.Equal(t, float32(4.0), got)
}

func TestExtrapolateLinearContinuesSlope(t *testing.T) {
	got := Extrapolate(Linear, 4.0, 2.0, 1.0)
	assert.InDelta(t, 6.0, got, 1e-6)
}

func TestNoInterpolatorProducesNaNOrInf(t *testing.T) {
	window := []float32{-2, -1, 0, 1, 2, 3}
	for _, o := range []Order{Hold, Linear, Spline3, Spline5} {
		f := For(o)
		v := f(window, 0.37)
		assert.False(t, math.IsNaN(float64(v)) || math.IsInf(float64(v), 0))
	}
}
