package filt

// FIR is a per-channel tap-delay-line finite impulse response filter,
// generalizing the teacher's dsp.go convolve() kernel to own its own
// history rather than being handed a pre-populated window each call.
type FIR struct {
	taps  []float64
	delay [][]float64 // per channel, most recent sample at index 0
}

// NewFIR builds an FIR filter from an explicit tap array, used both
// for the built-in FIR2x anti-imaging kernel and for
// spec.md §4.B's "Custom FIR: externally supplied tap array".
func NewFIR(taps []float64, channels int) *FIR {
	f := &FIR{taps: taps, delay: make([][]float64, channels)}
	for c := range f.delay {
		f.delay[c] = make([]float64, len(taps))
	}
	return f
}

// GroupDelay reports the filter's delay in samples: (taps-1)/2 for a
// linear-phase (symmetric) kernel.
func (f *FIR) GroupDelay() float64 {
	return float64(len(f.taps)-1) / 2
}

// Process filters one input sample on channel ch and returns the
// filtered output, shifting the channel's delay line.
func (f *FIR) Process(ch int, x float32) float32 {
	line := f.delay[ch]
	copy(line[1:], line[:len(line)-1])
	line[0] = float64(x)

	var sum float64
	for j, tap := range f.taps {
		sum += tap * line[j]
	}
	return float32(sum)
}

func (f *FIR) Reset() {
	for c := range f.delay {
		for i := range f.delay[c] {
			f.delay[c][i] = 0
		}
	}
}
