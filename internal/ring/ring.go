// Package ring implements the interleaved, power-of-two circular sample
// store described in spec.md §4.A. It is the only place that owns raw
// audio storage: everything above it addresses samples by monotonic
// index and never sees the wraparound.
package ring

// Buffer is an interleaved multichannel circular store of size B per
// channel, B a compile-time power of two. Slot s of channel c lives at
// linear position (s & mask)*channels + c, so wraparound is a single
// AND with no modulo.
type Buffer struct {
	data     []float32
	channels int
	mask     uint64
	size     int // B, samples per channel

	writeIx uint64 // samples pushed (post-filter), never decreases except via Reset
	readIx  uint64 // whole samples consumed, never decreases except via Reset/SetReadIx
}

// New allocates a buffer for the given channel count and power-of-two
// size B. It panics if size is not a power of two; the channel count
// is not checked here — callers are expected to have validated it via
// Config() before construction (see ats.Config).
func New(channels, size int) *Buffer {
	if size <= 0 || size&(size-1) != 0 {
		panic("ring: size must be a power of two")
	}
	return &Buffer{
		data:     make([]float32, channels*size),
		channels: channels,
		mask:     uint64(size - 1),
		size:     size,
	}
}

// Channels returns the configured channel count.
func (b *Buffer) Channels() int { return b.channels }

// Size returns B, the per-channel slot count.
func (b *Buffer) Size() int { return b.size }

func (b *Buffer) slot(ch int, ix uint64) float32 {
	return b.data[(ix&b.mask)*uint64(b.channels)+uint64(ch)]
}

func (b *Buffer) setSlot(ch int, ix uint64, v float32) {
	b.data[(ix&b.mask)*uint64(b.channels)+uint64(ch)] = v
}

// WriteIx returns the number of samples pushed so far (post-filter).
func (b *Buffer) WriteIx() uint64 { return b.writeIx }

// ReadIx returns the number of whole samples consumed so far.
func (b *Buffer) ReadIx() uint64 { return b.readIx }

// Depth returns the current occupancy: writeIx - readIx. Invariant:
// 0 <= Depth() <= B (spec.md §3, §8.1).
func (b *Buffer) Depth() int {
	return int(b.writeIx - b.readIx)
}

// Write appends nSamples per channel from src, an interleaved buffer
// addressed with the given sampleStride (between consecutive time
// points of one channel) and channelStride (between channels at one
// time point), both in samples. It returns the number of oldest
// samples that were dropped to make room (spec.md §4.A overrun:
// "accepts the tail and advances readIx equal to the overflow").
func (b *Buffer) Write(src []float32, nSamples, sampleStride, channelStride int) (dropped int) {
	for i := 0; i < nSamples; i++ {
		base := i * sampleStride
		for c := 0; c < b.channels; c++ {
			b.setSlot(c, b.writeIx, src[base+c*channelStride])
		}
		b.writeIx++
	}

	if over := int(b.writeIx-b.readIx) - b.size; over > 0 {
		b.readIx += uint64(over)
		dropped = over
	}
	return dropped
}

// Sample returns the sample for channel ch at absolute index ix. The
// caller must ensure ix is within [readIx, writeIx) (or within the left
// history window retained by the mask); reading stale overwritten data
// past (writeIx - B) is undefined — the orchestrator is responsible for
// only asking for taps the invariants in spec.md §3/§4.C guarantee are
// still valid.
func (b *Buffer) Sample(ch int, ix uint64) float32 {
	return b.slot(ch, ix)
}

// AdvanceRead moves readIx forward by n samples, never past writeIx,
// without producing output. It is used by Skip (spec.md §4.F), by the
// pop path's phase advance, and by tracker-reset handling (spec.md
// §4.6); overrun is handled inside Write.
func (b *Buffer) AdvanceRead(n uint64) {
	b.readIx += n
	if b.readIx > b.writeIx {
		b.readIx = b.writeIx
	}
}

// SetReadIx forces readIx to an absolute value, which may be below the
// current one. It never moves readIx past writeIx.
func (b *Buffer) SetReadIx(ix uint64) {
	if ix > b.writeIx {
		ix = b.writeIx
	}
	b.readIx = ix
}

// Reset clears indices and storage, used by a structural Config change
// (spec.md §3 Lifecycle).
func (b *Buffer) Reset() {
	for i := range b.data {
		b.data[i] = 0
	}
	b.writeIx = 0
	b.readIx = 0
}
