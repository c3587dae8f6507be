package filt

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenLowpassUnityDCGain(t *testing.T) {
	kernel := GenLowpass(0.1, 33, WindowHamming)

	var sum float64
	for _, v := range kernel {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestGenLowpassKaiserUnityDCGain(t *testing.T) {
	kernel := GenLowpass(0.25, 64, WindowKaiser)

	var sum float64
	for _, v := range kernel {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestBiquadDCPassesThrough(t *testing.T) {
	b := NewBiquadLowpass(1000, 48000, 1)

	var y float32
	for i := 0; i < 2000; i++ {
		y = b.Process(0, 1.0)
	}
	assert.InDelta(t, 1.0, y, 0.02, "settled DC response should be near unity")
}

func TestBiquadAttenuatesAboveCutoff(t *testing.T) {
	b := NewBiquadLowpass(1000, 48000, 1)

	var sumSq float64
	n := 4096
	for i := 0; i < n; i++ {
		x := float32(math.Sin(2 * math.Pi * 20000 / 48000 * float64(i)))
		y := b.Process(0, x)
		if i > n/2 { // past settling
			sumSq += float64(y) * float64(y)
		}
	}
	rms := math.Sqrt(sumSq / float64(n/2))
	assert.Less(t, rms, 0.3, "20kHz should be well attenuated by a 1kHz lowpass")
}

func TestCascadeResetClearsHistory(t *testing.T) {
	c := NewCascadeLowpass(1000, 48000, 1)
	for i := 0; i < 10; i++ {
		c.Process(0, 1.0)
	}
	c.Reset()
	y := c.Process(0, 0.0)
	assert.Zero(t, y)
}

func TestFIRGroupDelayMatchesTapCount(t *testing.T) {
	taps := GenLowpass(0.1, 15, WindowHamming)
	f := NewFIR(taps, 1)
	assert.InDelta(t, 7.0, f.GroupDelay(), 1e-9)
}

func TestFIR2xDoublesSampleCount(t *testing.T) {
	f := NewFIR2x(1)
	a, b := f.Process(0, 1.0)
	assert.False(t, math.IsNaN(float64(a)) || math.IsNaN(float64(b)))
}

func TestChainFactorReflectsFIR2X(t *testing.T) {
	plain := NewChain(2, 48000, 48000, Config{})
	assert.Equal(t, 1, plain.Factor())

	withFir2x := NewChain(2, 48000, 48000, Config{FIR2X: true})
	assert.Equal(t, 2, withFir2x.Factor())
}

func TestChainProcessInterleavesChannelsAtDoubledRate(t *testing.T) {
	c := NewChain(2, 48000, 24000, Config{FIR2X: true})

	src := []float32{1, 2, 3, 4} // 2 samples, 2 channels each
	out := c.Process(nil, src, 2, 2, 1)

	assert.Len(t, out, 8) // 2 input samples * 2 channels * factor 2
}

func TestChainWithoutStagesPassesThroughUnchanged(t *testing.T) {
	c := NewChain(1, 48000, 48000, Config{})

	src := []float32{1, 2, 3}
	out := c.Process(nil, src, 3, 1, 1)

	assert.Equal(t, src, out)
}

func TestBiquadBiquad2MutualExclusionFavoursBiquad2(t *testing.T) {
	// With both bits set, NewChain itself builds only the Biquad2
	// cascade (ats.Config also clears Biquad before building a Chain).
	c := NewChain(1, 48000, 48000, Config{Biquad: true, Biquad2: true})
	assert.NotNil(t, c.cascade)
	assert.Nil(t, c.biquad)
}
