// Package filt implements the input filter chain of spec.md §4.B:
// an optional biquad (2nd or 4th order) stage, an optional 2x FIR
// oversampler, and an optional custom FIR, applied to samples as they
// are pushed — before they ever reach the ring buffer — so that
// interpolation at pop time always sees already-bandlimited data.
package filt

// Config selects which stages are active. Biquad and Biquad2 are
// mutually exclusive: ats.Config clears Biquad when both bits are set,
// and NewChain builds only the Biquad2 cascade if both still arrive
// set, matching spec.md §4.B's "Biquad2 wins".
type Config struct {
	Biquad     bool
	Biquad2    bool
	FIR2X      bool
	CustomTaps []float64 // nil disables the custom FIR stage
}

// Chain is the tagged-variant dispatcher spec.md §9 calls for: which
// stages run is decided once, in NewChain, not per sample.
type Chain struct {
	cfg      Config
	channels int

	biquad  *Biquad
	cascade *Cascade
	fir2x   *FIR2x
	custom  *FIR

	firstScratch  []float32 // Process per-sample scratch, sized once for channels
	secondScratch []float32
}

// NewChain builds a chain for the given channel count, rates and
// config. Coefficients are computed immediately (spec.md §4.B:
// "recomputed on rate change").
func NewChain(channels int, inRate, outRate float64, cfg Config) *Chain {
	c := &Chain{cfg: cfg, channels: channels}
	c.firstScratch = make([]float32, channels)
	c.secondScratch = make([]float32, channels)

	cutoff := LowpassCutoff(inRate, outRate)
	switch {
	case cfg.Biquad2:
		c.cascade = NewCascadeLowpass(cutoff, inRate, channels)
	case cfg.Biquad:
		c.biquad = NewBiquadLowpass(cutoff, inRate, channels)
	}

	if cfg.FIR2X {
		c.fir2x = NewFIR2x(channels)
	}
	if cfg.CustomTaps != nil {
		c.custom = NewFIR(cfg.CustomTaps, channels)
	}
	return c
}

// Retune recomputes the IIR stage coefficients for a new rate pair,
// without resetting FIR history (the FIR kernels don't depend on the
// rate pair once designed).
func (c *Chain) Retune(inRate, outRate float64) {
	cutoff := LowpassCutoff(inRate, outRate)
	switch {
	case c.cascade != nil:
		c.cascade.Retune(cutoff, inRate)
	case c.biquad != nil:
		c.biquad.Retune(cutoff, inRate)
	}
}

// Factor is the output-sample-count multiplier the chain applies:
// 2 when FIR2X is enabled (it doubles the sample count, per spec.md
// §4.B "the ring buffer's effective capacity halves in seconds"), 1
// otherwise.
func (c *Chain) Factor() int {
	if c.cfg.FIR2X {
		return 2
	}
	return 1
}

// GroupDelay reports the chain's linear-phase delay in samples at the
// chain's *output* rate (i.e. after the Factor() multiplier). ATS does
// not call it; the ring's read index is not offset by it.
// Only FIR stages contribute: IIR biquad sections have no fixed group
// delay worth compensating for near their cutoff.
func (c *Chain) GroupDelay() float64 {
	var delay float64
	if c.fir2x != nil {
		delay = delay*2 + c.fir2x.GroupDelay()*2
	}
	if c.custom != nil {
		delay += c.custom.GroupDelay()
	}
	return delay
}

// Process filters nSamples of interleaved input (using sampleStride/
// channelStride the same way ring.Buffer.Write does) and appends the
// result, interleaved, to dst. It returns dst extended by
// nSamples * Factor() output samples per channel. The per-sample scratch is
// Chain-owned and sized once in NewChain, so Process itself never
// allocates (spec.md §1/§5: push/pop never allocate).
func (c *Chain) Process(dst []float32, src []float32, nSamples, sampleStride, channelStride int) []float32 {
	first := c.firstScratch
	second := c.secondScratch

	for i := 0; i < nSamples; i++ {
		base := i * sampleStride
		for ch := 0; ch < c.channels; ch++ {
			x := src[base+ch*channelStride]

			switch {
			case c.cascade != nil:
				x = c.cascade.Process(ch, x)
			case c.biquad != nil:
				x = c.biquad.Process(ch, x)
			}

			if c.fir2x != nil {
				a, b := c.fir2x.Process(ch, x)
				if c.custom != nil {
					a = c.custom.Process(ch, a)
					b = c.custom.Process(ch, b)
				}
				first[ch], second[ch] = a, b
				continue
			}

			if c.custom != nil {
				x = c.custom.Process(ch, x)
			}
			first[ch] = x
		}

		dst = append(dst, first...)
		if c.fir2x != nil {
			dst = append(dst, second...)
		}
	}
	return dst
}

// Reset clears all stage history (spec.md §3 structural reset).
func (c *Chain) Reset() {
	if c.biquad != nil {
		c.biquad.Reset()
	}
	if c.cascade != nil {
		c.cascade.Reset()
	}
	if c.fir2x != nil {
		c.fir2x.Reset()
	}
	if c.custom != nil {
		c.custom.Reset()
	}
}
