// Package estimate implements the per-event exponentially-windowed
// rate estimators of spec.md §4.D: one independent instance each for
// the push side and the pop side, producing a low-noise estimate of
// observed inRate/outRate from (sample-count, call-time) pairs.
package estimate

import "math"

// Clock supplies a wall-clock fallback timestamp when a caller passes
// callTime == 0, matching spec.md §4.D: "If callTime == 0, the
// estimator falls back to wall-clock from the chrono module." It is
// satisfied by internal/diag.Chrono.
type Clock interface {
	Timestamp() int64 // nanoseconds
}

// Estimator holds a windowed mean of samples-per-second, smoothed with
// a first-order IIR whose time constant corresponds to the configured
// window size, following the same fast-attack single-pole shape as the
// teacher's demod_9600.go agc() (here the attack coefficient is
// derived from the window rather than a fixed constant).
type Estimator struct {
	window       float64 // W, in samples of this side
	clock        Clock
	initialized  bool
	lastCallTime int64 // nanoseconds
	smoothedRate float64
}

// New builds an estimator with window size W (samples) and a clock for
// the callTime==0 fallback.
func New(window float64, clock Clock) *Estimator {
	return &Estimator{window: window, clock: clock}
}

// SetWindow updates W without resetting the smoothed estimate, for a
// non-structural config() change.
func (e *Estimator) SetWindow(w float64) { e.window = w }

// Rate returns the current smoothed rate estimate in samples/second, or
// 0 if no sample has been accepted yet.
func (e *Estimator) Rate() float64 { return e.smoothedRate }

// Update folds in nSamples observed at callTime (nanoseconds since some
// epoch; 0 means "use the clock"). It returns the instantaneous rate
// and whether the sample was accepted. A rejected sample (non-positive
// dt, or more than 4x off the current smoothed rate — spec.md §4.D's
// "glitch guard") does not update the smoothed estimate.
func (e *Estimator) Update(nSamples int, callTime int64) (instantaneous float64, accepted bool) {
	if callTime == 0 {
		callTime = e.clock.Timestamp()
	}

	if !e.initialized {
		e.initialized = true
		e.lastCallTime = callTime
		return 0, false
	}

	dtNanos := callTime - e.lastCallTime
	e.lastCallTime = callTime
	if dtNanos <= 0 {
		return 0, false
	}
	dt := float64(dtNanos) / 1e9
	instantaneous = float64(nSamples) / dt

	if e.smoothedRate > 0 {
		ratio := instantaneous / e.smoothedRate
		if ratio > 4 || ratio < 0.25 {
			return instantaneous, false // glitch guard: reject, don't update
		}
	}

	alpha := 1 - math.Exp(-float64(nSamples)/e.window)
	if e.smoothedRate == 0 {
		e.smoothedRate = instantaneous
	} else {
		e.smoothedRate += alpha * (instantaneous - e.smoothedRate)
	}
	return instantaneous, true
}

// Reset clears the smoothed estimate and call-time history (used by
// ATS.TrackReset per spec.md §4.F).
func (e *Estimator) Reset() {
	e.initialized = false
	e.lastCallTime = 0
	e.smoothedRate = 0
}

// ObservedRatio computes spec.md §4.D's ratio_obs = inRate_est /
// outRate_est, falling back to the nominal ratio if either estimate is
// not yet available.
func ObservedRatio(inEst, outEst *Estimator, nominal float64) float64 {
	if inEst.Rate() <= 0 || outEst.Rate() <= 0 {
		return nominal
	}
	return inEst.Rate() / outEst.Rate()
}

// OffsetPPM computes spec.md §4.D's OFFSET event value: (ratio_obs /
// nominal_ratio - 1) * 1e6.
func OffsetPPM(ratioObs, nominalRatio float64) float64 {
	if nominalRatio == 0 {
		return 0
	}
	return (ratioObs/nominalRatio - 1) * 1e6
}
