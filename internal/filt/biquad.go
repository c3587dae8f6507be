package filt

import "math"

// Biquad is a single direct-form-II transposed IIR section, the shape
// spec.md §4.B calls for: "single canonical direct-form-II transposed
// section". State is two history registers per channel, recomputed
// whenever inRate/outRate changes (spec.md §3 FilterState).
type Biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
	z1, z2     []float64 // per channel
}

// NewBiquadLowpass builds a Butterworth low-pass section at cutoff Hz
// (Q = 1/sqrt(2), the Butterworth Q) for the given sample rate and
// channel count, following the RBJ audio-EQ-cookbook formulas — the
// standard vocabulary for this kind of filter in the absence of a
// teacher implementation (see DESIGN.md).
func NewBiquadLowpass(cutoffHz, sampleRate float64, channels int) *Biquad {
	b := &Biquad{z1: make([]float64, channels), z2: make([]float64, channels)}
	b.Retune(cutoffHz, sampleRate)
	return b
}

// Retune recomputes coefficients for a new cutoff/sample rate without
// disturbing per-channel history, matching spec.md's "recomputed on
// rate change" without the implicit reset a full Reset would cause.
func (b *Biquad) Retune(cutoffHz, sampleRate float64) {
	const q = math.Sqrt2 / 2 // Butterworth Q

	w0 := 2 * math.Pi * cutoffHz / sampleRate
	cosW0, sinW0 := math.Cos(w0), math.Sin(w0)
	alpha := sinW0 / (2 * q)

	a0 := 1 + alpha
	b0 := (1 - cosW0) / 2 / a0
	b1 := (1 - cosW0) / a0
	b2 := (1 - cosW0) / 2 / a0
	a1 := -2 * cosW0 / a0
	a2 := (1 - alpha) / a0

	b.b0, b.b1, b.b2, b.a1, b.a2 = b0, b1, b2, a1, a2
}

// Process filters one sample on channel ch through the section,
// updating that channel's history in place.
func (b *Biquad) Process(ch int, x float32) float32 {
	xf := float64(x)
	y := b.b0*xf + b.z1[ch]
	b.z1[ch] = b.b1*xf - b.a1*y + b.z2[ch]
	b.z2[ch] = b.b2*xf - b.a2*y
	return float32(y)
}

// Reset clears filter history (spec.md §3 structural reset).
func (b *Biquad) Reset() {
	for i := range b.z1 {
		b.z1[i] = 0
		b.z2[i] = 0
	}
}

// Cascade chains two identical-cutoff Biquad sections for the 4th
// order "Biquad2" mode (spec.md §4.B: "two cascaded sections giving
// Linkwitz-style rolloff with the same cutoff rule").
type Cascade struct {
	stages [2]*Biquad
}

func NewCascadeLowpass(cutoffHz, sampleRate float64, channels int) *Cascade {
	return &Cascade{stages: [2]*Biquad{
		NewBiquadLowpass(cutoffHz, sampleRate, channels),
		NewBiquadLowpass(cutoffHz, sampleRate, channels),
	}}
}

func (c *Cascade) Retune(cutoffHz, sampleRate float64) {
	for _, s := range c.stages {
		s.Retune(cutoffHz, sampleRate)
	}
}

func (c *Cascade) Process(ch int, x float32) float32 {
	return c.stages[1].Process(ch, c.stages[0].Process(ch, x))
}

func (c *Cascade) Reset() {
	for _, s := range c.stages {
		s.Reset()
	}
}

// LowpassCutoff implements spec.md §4.B's shared cutoff rule:
// min(inRate, outRate) * k, k ~= 0.45.
func LowpassCutoff(inRate, outRate float64) float64 {
	const k = 0.45
	return math.Min(inRate, outRate) * k
}
