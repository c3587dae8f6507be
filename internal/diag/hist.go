// Package diag implements the diagnostic capability spec.md §1 and §6
// describe as an external collaborator: a Histogram/Chrono pair that
// the ATS core only ever calls through add(value)/timestamp(event).
// It is ported here (rather than left unimplemented) so the rest of
// ats-go is self-contained, grounded directly on
// original_source/chrono/include/hist.h — the C++ header this spec was
// distilled from.
package diag

import (
	"math"
	"math/rand"
)

// Flag mirrors hist.h's HistFlag bitmask.
type Flag int

const (
	FlagNone    Flag = 0
	FlagDither  Flag = 1 << 0
	FlagCounter Flag = 1 << 1
	FlagLogX    Flag = 1 << 2
)

// Histogram is a fixed-bin linear distribution with optional
// stochastic-resonance dithering, per hist.h. FlagLogX is stored with
// the other flags but has no effect: binning is always linear. Bins are centred (not
// edged), overflow accumulates into the first/last bin, and dithering
// adds a uniform offset in [-0.5, 0.5) bin widths before quantizing so
// that derived moments (mean, std) are unbiased.
type Histogram struct {
	bin0, binN float64
	bins       int
	flags      Flag
	name       string

	counts []uint32
	n      uint64
	sumX   float64
	sumX2  float64
}

// NewHistogram builds and configures a histogram in one step, mirroring
// hist.h's constructor-plus-config convenience overload.
func NewHistogram(bin0, binN float64, bins int, flags Flag, name string) *Histogram {
	h := &Histogram{}
	h.Config(bin0, binN, bins, flags, name)
	return h
}

// Config (re)configures bin range/count/flags and clears accumulated
// data, per hist.h's Histogram::config.
func (h *Histogram) Config(bin0, binN float64, bins int, flags Flag, name string) bool {
	if bins < 1 {
		return false
	}
	h.bin0, h.binN, h.bins, h.flags, h.name = bin0, binN, bins, flags, name
	h.counts = make([]uint32, bins)
	h.Reset()
	return true
}

// Reset clears accumulated counts without changing the configuration.
func (h *Histogram) Reset() {
	for i := range h.counts {
		h.counts[i] = 0
	}
	h.n = 0
	h.sumX = 0
	h.sumX2 = 0
}

func (h *Histogram) width() float64 {
	if h.bins <= 1 {
		return 0
	}
	return (h.binN - h.bin0) / float64(h.bins-1)
}

// binIndex resolves x to a bin, clamping overflow into the first/last
// bin as hist.h specifies.
func (h *Histogram) binIndex(x float64) int {
	w := h.width()
	if w == 0 {
		return 0
	}
	idx := int((x-h.bin0)/w + 0.5)
	if idx < 0 {
		return 0
	}
	if idx >= h.bins {
		return h.bins - 1
	}
	return idx
}

// Add is the low-overhead per-event call (spec.md §6: "Histogram::add(x, n)").
// Dithering, when enabled, adds a uniform offset in [-0.5, 0.5) bin
// widths before binning, eliminating quantization bias in the derived
// moments per hist.h's "stochastic resonance" design.
func (h *Histogram) Add(x float64, n uint32) {
	if n == 0 {
		n = 1
	}

	v := x
	if h.flags&FlagDither != 0 {
		w := h.width()
		v += (rand.Float64() - 0.5) * w
	}

	h.counts[h.binIndex(v)] += n
	h.n += uint64(n)
	h.sumX += x * float64(n)
	h.sumX2 += x * x * float64(n)
}

// N returns the cumulative total count.
func (h *Histogram) N() uint64 { return h.n }

// Sum returns the cumulative (undithered, unbinned) sum of added values
// — the "most unbiased" sum per hist.h.
func (h *Histogram) Sum() float64 { return h.sumX }

// Mean returns sumX/N, hist.h's "most unbiased mean".
func (h *Histogram) Mean() float64 {
	if h.n == 0 {
		return 0
	}
	return h.sumX / float64(h.n)
}

// Std returns sqrt(sumX2/N - mean^2), hist.h's "most unbiased standard
// deviation".
func (h *Histogram) Std() float64 {
	if h.n == 0 {
		return 0
	}
	mean := h.Mean()
	variance := h.sumX2/float64(h.n) - mean*mean
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

// Bins returns the configured bin count.
func (h *Histogram) Bins() int { return h.bins }

// BinWidth returns the centre-to-centre spacing between bins.
func (h *Histogram) BinWidth() float64 { return h.width() }

// BinCenter returns the centre value of bin i.
func (h *Histogram) BinCenter(i int) float64 {
	return h.bin0 + float64(i)*h.width()
}

// Bin returns the raw count in bin i.
func (h *Histogram) Bin(i int) uint32 { return h.counts[i] }

// Peak returns the largest bin count, useful for scaling a rendering.
func (h *Histogram) Peak() uint32 {
	var peak uint32
	for _, c := range h.counts {
		if c > peak {
			peak = c
		}
	}
	return peak
}
