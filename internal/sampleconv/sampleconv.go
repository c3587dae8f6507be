// Package sampleconv converts samples across the Q31 signed-integer
// boundary ats.h's push/pop surface uses and the float32 domain the
// rest of ats-go computes in (original_source/ats_core/include/ats.h:
// "int32_t *data" on push/pop, scaled as a signed fraction of 2^31).
package sampleconv

import "math"

const (
	q31Scale = 1 << 31 // 2147483648
	q31Max   = math.MaxInt32
	q31Min   = math.MinInt32
)

// Int32ToFloat converts a Q31 sample to a float32 in (roughly) [-1, 1).
func Int32ToFloat(x int32) float32 {
	return float32(float64(x) / q31Scale)
}

// FloatToInt32 converts a float32 sample back to Q31, using a
// symmetric saturating round (round-half-away-from-zero, then clamp
// to the int32 range) — the Open Question's chosen policy for values
// that overflow or fall on a bin boundary.
func FloatToInt32(x float32) int32 {
	v := float64(x) * q31Scale

	if math.IsNaN(v) {
		return 0
	}

	var r float64
	if v >= 0 {
		r = math.Floor(v + 0.5)
	} else {
		r = math.Ceil(v - 0.5)
	}

	if r >= q31Max {
		return q31Max
	}
	if r <= q31Min {
		return q31Min
	}
	return int32(r)
}

// BufferToFloat converts a Q31 buffer into dst, which must be at
// least len(src) long.
func BufferToFloat(dst []float32, src []int32) {
	for i, x := range src {
		dst[i] = Int32ToFloat(x)
	}
}

// BufferToInt32 converts a float32 buffer into dst, which must be at
// least len(src) long.
func BufferToInt32(dst []int32, src []float32) {
	for i, x := range src {
		dst[i] = FloatToInt32(x)
	}
}
