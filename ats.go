// Package ats implements the Audio Temporal Stretcher: a real-time,
// allocation-free resampling and timing-recovery engine that sits
// between a producer pushing audio at inRate and a consumer popping it
// at outRate, continuously warping the playback ratio to hold a target
// buffer occupancy despite clock drift and jitter.
package ats

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/dickinsaudio/ats-go/internal/diag"
	"github.com/dickinsaudio/ats-go/internal/estimate"
	"github.com/dickinsaudio/ats-go/internal/filt"
	"github.com/dickinsaudio/ats-go/internal/interp"
	"github.com/dickinsaudio/ats-go/internal/ring"
	"github.com/dickinsaudio/ats-go/internal/sampleconv"
	"github.com/dickinsaudio/ats-go/internal/track"
)

// ATS is the orchestrator (spec §4.F): it owns configuration and
// drives the ring buffer, filter chain, interpolator, rate estimators
// and PI tracker, exposing push/pop/skip/depth/latency to callers.
// ATS has no internal synchronization: the ring indices are plain
// fields and Push and Pop both write the UNDER_RUN channel, so Config,
// Push and Pop must not run concurrently with one another.
type ATS struct {
	cfg Config

	ring        *ring.Buffer
	chain       *filt.Chain
	interpOrder interp.Order
	interpFn    interp.Func

	phase float64 // fractional offset in [0,1) between readIx and the next output sample

	pushEstimator *estimate.Estimator
	popEstimator  *estimate.Estimator
	tracker       *track.Tracker
	clock         diag.Chrono

	nominalRatio float64 // inRate/outRate, the fallback ratio_obs before estimators warm up

	diagChannels [EVENTS]diag.Channel

	lastPopTime int64

	pushFloatBuf []float32 // Q31->float32 scratch, grown on demand
	pushFiltBuf  []float32 // post-filter-chain scratch, grown on demand
	popScratch   []float32 // tight-packed (channels-stride) pop output scratch
	popWindow    []float32 // reused interpolation tap window
}

// New builds an ATS configured with DefaultConfig.
func New() *ATS {
	a := &ATS{}
	cfg := DefaultConfig()
	if !a.Config(&cfg) {
		panic("ats: default configuration rejected") // unreachable: DefaultConfig is always valid
	}
	return a
}

// Config applies a new configuration (spec §4.F). Returns false,
// leaving all state untouched, if the configuration is invalid. A
// structural change (channel count or filter/interpolation selection)
// fully resets ring, filter, phase and tracker state, preserving
// diagnostic channels; a non-structural change (rates, gains, windows)
// retunes in place.
func (a *ATS) Config(cfg *Config) bool {
	c := cfg.normalize()
	if !c.validate() {
		return false
	}

	structural := a.ring == nil || structuralChange(a.cfg, c)
	a.cfg = c
	a.nominalRatio = c.InRate / c.OutRate

	if structural {
		a.ring = ring.New(c.Channels, BufferSize)

		filterCfg := filt.Config{
			Biquad:  c.Mode.hasFilter(FilterBiquad),
			Biquad2: c.Mode.hasFilter(FilterBiquad2),
			FIR2X:   c.Mode.hasFilter(FilterFIR2X),
		}
		if c.Mode.hasFilter(FilterFIR) {
			filterCfg.CustomTaps = c.FIRTaps
		}
		a.chain = filt.NewChain(c.Channels, c.InRate, c.OutRate, filterCfg)

		a.interpOrder = interp.Order(c.Mode & InterpMask)
		a.interpFn = interp.For(a.interpOrder)

		a.pushEstimator = estimate.New(float64(c.FilterPush), &a.clock)
		a.popEstimator = estimate.New(float64(c.FilterPop), &a.clock)
		a.tracker = track.New(trackConfigFrom(c), a.nominalRatio)

		a.phase = 0
		taps := a.interpOrder.LeftTaps() + 1 + a.interpOrder.RightTaps()
		a.popWindow = make([]float32, taps)
		a.lastPopTime = 0
	} else {
		a.chain.Retune(c.InRate, c.OutRate)
		a.pushEstimator.SetWindow(float64(c.FilterPush))
		a.popEstimator.SetWindow(float64(c.FilterPop))
		a.tracker.SetConfig(trackConfigFrom(c))
	}
	return true
}

// GetConfig returns a copy of the active configuration.
func (a *ATS) GetConfig() Config { return a.cfg }

func structuralChange(old, newCfg Config) bool {
	if old.Channels != newCfg.Channels {
		return true
	}
	mask := FilterMask | InterpMask
	return old.Mode&mask != newCfg.Mode&mask
}

func trackConfigFrom(c Config) track.Config {
	return track.Config{
		TrackTarget: c.TrackTarget,
		TrackRange:  c.TrackRange,
		Kp:          c.TrackKp,
		Ki:          c.TrackKi,
		Warp:        c.TrackWarp,
		RateLimit:   c.TrackRate,
		RatioMin:    c.RatioMin,
		RatioMax:    c.RatioMax,
	}
}

// Push scales Q31 samples to float, routes them through the input
// filter chain, and stores the result in the ring (spec §4.F). data is
// interleaved and addressed the same way ring.Buffer.Write is:
// sampleStride between consecutive time points of one channel,
// channelStride between channels at one time point. callTime == 0
// falls back to wall-clock for the rate estimator.
func (a *ATS) Push(nSamples, sampleStride, channelStride int, data []int32, callTime int64) {
	start := time.Now()
	ch := a.cfg.Channels

	if cap(a.pushFloatBuf) < len(data) {
		a.pushFloatBuf = make([]float32, len(data))
	}
	floatBuf := a.pushFloatBuf[:len(data)]
	sampleconv.BufferToFloat(floatBuf, data)

	factor := a.chain.Factor()
	need := nSamples * ch * factor
	if cap(a.pushFiltBuf) < need {
		a.pushFiltBuf = make([]float32, 0, need)
	}
	filtered := a.chain.Process(a.pushFiltBuf[:0], floatBuf, nSamples, sampleStride, channelStride)
	a.pushFiltBuf = filtered

	outSamples := nSamples * factor
	a.ring.Write(filtered, outSamples, ch, 1)

	instRate, accepted := a.pushEstimator.Update(outSamples, callTime)
	execSeconds := time.Since(start).Seconds()

	a.diagChannels[PUSH].Add(float64(outSamples))
	a.diagChannels[PUSH_RATE].Add(instRate)
	a.diagChannels[PUSH_EXEC].Add(execSeconds)
	if !accepted && a.pushEstimator.Rate() > 0 {
		// glitch guard rejected the sample (spec §4.D): no dedicated
		// push-side event exists in the Event enum, so this is
		// recorded the same way a rejected pop-side sample is. The
		// Rate()>0 guard excludes the estimator's first-call seed,
		// which is also unaccepted but isn't a glitch.
		a.diagChannels[UNDER_RUN].Add(0)
	}
}

// Skip advances readIx by nSamples without producing output (spec
// §4.F), used to drop audio explicitly. readIx never moves past
// writeIx, so skipping more than the current depth empties the ring.
func (a *ATS) Skip(nSamples int) {
	a.ring.AdvanceRead(uint64(nSamples))
}

// GetDepth returns the current ring occupancy.
func (a *ATS) GetDepth() int { return a.ring.Depth() }

// SetDepth asynchronously nudges the tracker's target occupancy (spec
// §4.F / §9 Open Question): this is not an instantaneous repositioning,
// the controller drifts there over subsequent pops.
func (a *ATS) SetDepth(depth int) {
	a.cfg.TrackTarget = depth
	a.tracker.SetConfig(trackConfigFrom(a.cfg))
}

// GetLatency returns the most recent latency estimate in seconds:
// depth / outRate_est, falling back to the nominal outRate before the
// pop estimator has warmed up.
func (a *ATS) GetLatency() float64 {
	rate := a.popEstimator.Rate()
	if rate <= 0 {
		rate = a.cfg.OutRate
	}
	return float64(a.ring.Depth()) / rate
}

// SetRate sets the tracker's current resample ratio to r, returning
// false if r falls outside [ratio_min, ratio_max]. The nominal
// inRate/outRate ratio is unchanged; with tracking on, later pops move
// the ratio on from r.
func (a *ATS) SetRate(r float64) bool {
	if r < a.cfg.RatioMin || r > a.cfg.RatioMax {
		return false
	}
	a.tracker.SetRatio(r)
	return true
}

// GetRate returns the tracker's current resample ratio.
func (a *ATS) GetRate() float64 { return a.tracker.Ratio() }

// TrackReset clears tracker integral, resets phase and the smoothed
// rate estimators to their just-configured state (spec §4.F).
func (a *ATS) TrackReset() {
	a.tracker.Reset(a.nominalRatio)
	a.pushEstimator.Reset()
	a.popEstimator.Reset()
	a.phase = 0
}

// Chrono returns the timestamper for a diagnostic event, creating
// nothing further since every channel already owns one (spec §4.F:
// "will create and enable if not already").
func (a *ATS) Chrono(event Event) *diag.Chrono {
	return &a.diagChannels[event].Chrono
}

// ChronoReset resets one channel's histogram, or all of them when
// index == ALL.
func (a *ATS) ChronoReset(index Event) {
	if index == ALL {
		for i := range a.diagChannels {
			a.diagChannels[i].Reset()
		}
		return
	}
	a.diagChannels[index].Reset()
}

// ChronoDefault configures every channel's histogram to a sensible
// per-event range (spec §6: "chronoDefault(bins=101, T=0.01)"), T
// bounding the *_EXEC time-domain histograms in seconds.
func (a *ATS) ChronoDefault(bins int, T float64) {
	c := &a.cfg
	ppmRange := (c.RatioMax - 1) * 1e6
	if ppmRange <= 0 {
		ppmRange = 1e5
	}

	a.diagChannels[PUSH].DefaultConfig(0, float64(BufferSize), bins, diag.FlagDither)
	a.diagChannels[PUSH_RATE].DefaultConfig(c.InRate*0.5, c.InRate*1.5, bins, diag.FlagDither)
	a.diagChannels[PUSH_EXEC].DefaultConfig(0, T, bins, diag.FlagDither)
	a.diagChannels[POP].DefaultConfig(0, float64(BufferSize), bins, diag.FlagDither)
	a.diagChannels[POP_RATE].DefaultConfig(c.OutRate*0.5, c.OutRate*1.5, bins, diag.FlagDither)
	a.diagChannels[POP_EXEC].DefaultConfig(0, T, bins, diag.FlagDither)
	a.diagChannels[UNDER_RUN].DefaultConfig(0, float64(BufferSize), bins, diag.FlagCounter)
	a.diagChannels[UNDER_RUN_SIZE].DefaultConfig(0, float64(BufferSize), bins, diag.FlagCounter)
	a.diagChannels[OFFSET].DefaultConfig(-ppmRange, ppmRange, bins, diag.FlagDither)
	a.diagChannels[DEPTH].DefaultConfig(0, float64(BufferSize), bins, diag.FlagDither)
	a.diagChannels[LATENCY].DefaultConfig(0, float64(BufferSize)/c.OutRate, bins, diag.FlagDither)
	a.diagChannels[TRACK].DefaultConfig(0, float64(bins), bins, diag.FlagCounter)
}

// Histogram returns the histogram backing a diagnostic event, or nil
// if ChronoDefault (or an equivalent manual Config) hasn't been called
// for it yet.
func (a *ATS) Histogram(event Event) *diag.Histogram {
	return a.diagChannels[event].Histogram
}

// Trace writes a single human-readable line covering depth, latency,
// ratio, ppm offset and underrun count (spec §6: "not a machine-parsed
// contract").
func (a *ATS) Trace(w io.Writer) {
	depth := a.ring.Depth()
	ratioObs := estimate.ObservedRatio(a.pushEstimator, a.popEstimator, a.nominalRatio)
	offsetPPM := estimate.OffsetPPM(ratioObs, a.nominalRatio)

	var underrunCount uint64
	if h := a.diagChannels[UNDER_RUN].Histogram; h != nil {
		underrunCount = h.N()
	}

	fmt.Fprintf(w, "depth=%d latency=%.6f ratio=%.8f offset_ppm=%.2f underrun=%d\n",
		depth, a.GetLatency(), a.tracker.Ratio(), offsetPPM, underrunCount)
}

// Pop produces nSamples of interleaved float32 output, advancing the
// fractional read phase and invoking the pop rate estimator and
// tracker once per call (spec §4.F, §4.C, §4.E).
func (a *ATS) Pop(nSamples, sampleStride, channelStride int, dst []float32, callTime int64) {
	start := time.Now()
	underruns := a.popCore(nSamples)

	ch := a.cfg.Channels
	for i := 0; i < nSamples; i++ {
		base := i * sampleStride
		for c := 0; c < ch; c++ {
			dst[base+c*channelStride] = a.popScratch[i*ch+c]
		}
	}
	a.popFinish(nSamples, underruns, callTime, time.Since(start).Seconds())
}

// PopInt32 is Pop's Q31 destination overload (spec §4.F, §6 "Sample
// I/O"), using the symmetric-saturating-round policy of
// internal/sampleconv.
func (a *ATS) PopInt32(nSamples, sampleStride, channelStride int, dst []int32, callTime int64) {
	start := time.Now()
	underruns := a.popCore(nSamples)

	ch := a.cfg.Channels
	for i := 0; i < nSamples; i++ {
		base := i * sampleStride
		for c := 0; c < ch; c++ {
			dst[base+c*channelStride] = sampleconv.FloatToInt32(a.popScratch[i*ch+c])
		}
	}
	a.popFinish(nSamples, underruns, callTime, time.Since(start).Seconds())
}

// popCore fills a.popScratch (tight channels-stride layout) with
// nSamples of interpolated output and returns the underrun count,
// shared by Pop and PopInt32 so the interpolation/extrapolation logic
// is written once.
func (a *ATS) popCore(nSamples int) (underruns int) {
	ch := a.cfg.Channels
	left := a.interpOrder.LeftTaps()
	right := a.interpOrder.RightTaps()
	taps := left + 1 + right

	need := nSamples * ch
	if cap(a.popScratch) < need {
		a.popScratch = make([]float32, need)
	}
	scratch := a.popScratch[:need]

	ratio := a.tracker.Ratio() // held constant across this call's samples (spec §4.E: invoked once per pop)
	win := a.popWindow

	for i := 0; i < nSamples; i++ {
		readIx := a.ring.ReadIx()
		writeIx := a.ring.WriteIx()
		haveRight := readIx+uint64(right) < writeIx
		haveLeft := readIx >= uint64(left)

		if !(haveRight && haveLeft) {
			underruns++
		}

		for c := 0; c < ch; c++ {
			var y float32
			if haveRight && haveLeft {
				for k := 0; k < taps; k++ {
					win[k] = a.ring.Sample(c, readIx-uint64(left)+uint64(k))
				}
				y = a.interpFn(win, a.phase)
			} else {
				var last, prev float32
				if writeIx > 0 {
					last = a.ring.Sample(c, writeIx-1)
				}
				if writeIx > 1 {
					prev = a.ring.Sample(c, writeIx-2)
				}
				y = interp.Extrapolate(a.interpOrder, last, prev, a.phase)
			}
			scratch[i*ch+c] = y
		}

		if haveRight && haveLeft {
			a.phase += ratio
			whole := math.Floor(a.phase)
			a.phase -= whole
			a.ring.AdvanceRead(uint64(whole))
		}
	}
	return underruns
}

// popFinish runs the shared post-interpolation bookkeeping: pop rate
// estimation, tracking, and diagnostic channel updates (spec §4.F).
// execSeconds is the caller's measured Pop/PopInt32 wall-clock cost,
// fed into POP_EXEC the same way Push feeds PUSH_EXEC.
func (a *ATS) popFinish(nSamples, underruns int, callTime int64, execSeconds float64) {
	depth := a.ring.Depth()
	instRate, accepted := a.popEstimator.Update(nSamples, callTime)

	ratioObs := estimate.ObservedRatio(a.pushEstimator, a.popEstimator, a.nominalRatio)
	offsetPPM := estimate.OffsetPPM(ratioObs, a.nominalRatio)

	now := callTime
	if now == 0 {
		now = a.clock.Timestamp()
	}

	if !a.cfg.Mode.trackingOff() {
		if _, reset := a.tracker.Update(depth, ratioObs, now); reset {
			a.repositionOnReset(depth)
			depth = a.ring.Depth()
		}
	}
	a.lastPopTime = now

	latency := a.GetLatency()

	a.diagChannels[POP].Add(float64(nSamples))
	a.diagChannels[POP_RATE].Add(instRate)
	a.diagChannels[POP_EXEC].Add(execSeconds)
	a.diagChannels[DEPTH].Add(float64(depth))
	a.diagChannels[LATENCY].Add(latency)
	a.diagChannels[OFFSET].Add(offsetPPM)
	a.diagChannels[TRACK].Add(1)
	if underruns > 0 {
		a.diagChannels[UNDER_RUN].Add(float64(underruns))
		a.diagChannels[UNDER_RUN_SIZE].Add(float64(underruns))
	}
	if !accepted && a.popEstimator.Rate() > 0 {
		// glitch guard rejected the pop-side rate sample (spec §4.D):
		// no dedicated event exists for this, so it is folded into
		// UNDER_RUN like the push-side rejection in Push. Rate()>0
		// excludes the estimator's first-call seed.
		a.diagChannels[UNDER_RUN].Add(0)
	}
}

// repositionOnReset implements spec §4.6's tracking-reset repositioning:
// drop the excess when depth exceeds target; when depth falls short,
// ring indices can't manufacture samples that were never pushed, so
// phase is simply re-armed at 0 and depth is left to refill naturally
// on the next pushes (see DESIGN.md's Open Question decision).
func (a *ATS) repositionOnReset(depth int) {
	target := a.cfg.TrackTarget
	if depth > target {
		a.ring.AdvanceRead(uint64(depth - target))
	}
	a.phase = 0
}
