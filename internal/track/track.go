// Package track implements the PI tracker with quadratic warp of
// spec.md §4.E: a proportional-integral controller, gated by occupancy
// error and rate-limited, that modulates the resampling ratio to drive
// occupancy toward trackTarget.
//
// The warp term scales the proportional gain by 1/(1+(e/warp)²): full
// gain near target, falling off quadratically far from it, where the
// proportional term tends to Kp·warp²/e. This shaping mirrors the
// hysteresis idea in the teacher's
// pll_dcd.go lock detector (distinct thresholds/inertia for entering
// vs. leaving lock), generalized here from a binary decision into a
// continuous gain.
package track

// Config holds the tuning parameters from spec.md's Config table that
// the tracker needs; ats.Config carries the full set, this is the
// subset relevant to the control loop.
type Config struct {
	TrackTarget int     // samples
	TrackRange  int     // samples; 0 disables reset detection
	Kp          float64 // ppm per sample of error
	Ki          float64 // ppm per sample*second
	Warp        float64 // samples
	RateLimit   float64 // ppm per second (trackRate)
	RatioMin    float64
	RatioMax    float64
}

// Tracker is the mutable control-loop state: TrackerState in spec.md §3.
type Tracker struct {
	cfg Config

	ratio         float64
	integral      float64
	haveLastTime  bool
	lastTrackTime int64 // nanoseconds
}

// New builds a tracker with the given config, ratio initialized to the
// nominal inRate/outRate ratio (the caller passes this in since the
// tracker itself has no notion of rates).
func New(cfg Config, initialRatio float64) *Tracker {
	return &Tracker{cfg: cfg, ratio: initialRatio}
}

// SetConfig updates tuning parameters without resetting integral/ratio
// state (a non-structural config() change).
func (t *Tracker) SetConfig(cfg Config) { t.cfg = cfg }

// Ratio returns the current resample ratio.
func (t *Tracker) Ratio() float64 { return t.ratio }

// SetRatio forces the ratio, used by ats.SetRate's nominal override and
// by Reset.
func (t *Tracker) SetRatio(r float64) {
	t.ratio = clamp(r, t.cfg.RatioMin, t.cfg.RatioMax)
}

// Integral exposes the accumulated integral term, mostly for tests and
// diagnostics.
func (t *Tracker) Integral() float64 { return t.integral }

// Update runs one control-loop step (spec.md §4.E steps 1-6) and
// returns the new ratio. reset reports whether the |error| > trackRange
// reset fired (spec.md §4.6): callers (the orchestrator) are
// responsible for repositioning the ring on a reset, the tracker only
// owns its own integral/ratio state.
func (t *Tracker) Update(depth int, ratioObs float64, now int64) (ratio float64, reset bool) {
	e := float64(depth - t.cfg.TrackTarget)

	if t.cfg.TrackRange > 0 && abs(e) > float64(t.cfg.TrackRange) {
		t.integral = 0
		t.ratio = clamp(ratioObs, t.cfg.RatioMin, t.cfg.RatioMax)
		t.haveLastTime = true
		t.lastTrackTime = now
		return t.ratio, true
	}

	if !t.haveLastTime {
		t.haveLastTime = true
		t.lastTrackTime = now
		return t.ratio, false
	}

	dt := float64(now-t.lastTrackTime) / 1e9
	t.lastTrackTime = now
	if dt < 0 {
		dt = 0
	}

	warpDenom := 1 + (e/t.cfg.Warp)*(e/t.cfg.Warp)
	kpEff := t.cfg.Kp / warpDenom

	t.integral += t.cfg.Ki * e * dt
	iMax := ratioHeadroomPPM(t.cfg.RatioMin, t.cfg.RatioMax, ratioObs)
	t.integral = clamp(t.integral, -iMax, iMax)

	target := ratioObs * (1 + (kpEff*e+t.integral)*1e-6)

	dRatio := target - t.ratio
	maxStepPPM := t.cfg.RateLimit * dt
	maxStep := t.ratio * maxStepPPM * 1e-6
	if dRatio > maxStep {
		dRatio = maxStep
	} else if dRatio < -maxStep {
		dRatio = -maxStep
	}

	t.ratio = clamp(t.ratio+dRatio, t.cfg.RatioMin, t.cfg.RatioMax)
	return t.ratio, false
}

// Reset fully clears the tracker (ats.TrackReset / spec.md §4.F).
func (t *Tracker) Reset(initialRatio float64) {
	t.integral = 0
	t.ratio = clamp(initialRatio, t.cfg.RatioMin, t.cfg.RatioMax)
	t.haveLastTime = false
	t.lastTrackTime = 0
}

// ratioHeadroomPPM derives I_max from the ratio-range headroom around
// ratioObs (spec.md §4.E step 4: "I_max derived from ratio-range
// headroom"): how many ppm of adjustment remain before the clamp,
// whichever side is tighter.
func ratioHeadroomPPM(ratioMin, ratioMax, ratioObs float64) float64 {
	if ratioObs <= 0 {
		return 0
	}
	upPPM := (ratioMax/ratioObs - 1) * 1e6
	downPPM := (1 - ratioMin/ratioObs) * 1e6
	if upPPM < downPPM {
		return abs(upPPM)
	}
	return abs(downPPM)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
