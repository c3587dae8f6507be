package ats

import "math"

// BufferSizeLog2 fixes the ring buffer's per-channel slot count at
// compile time, a power of two per spec.md §3/§9 ("runtime-variable B
// is an explicit non-goal").
const (
	BufferSizeLog2 = 12
	BufferSize     = 1 << BufferSizeLog2
)

// Config mirrors original_source/ats_core/include/ats.h's Config
// struct field-for-field, including its documented defaults.
type Config struct {
	Channels int  // interleaved channel count
	Mode     Mode // interpolation / filter / tracking flags

	InRate  float64 // nominal input sample rate, Hz
	OutRate float64 // nominal output sample rate, Hz

	FilterPush int // push-side rate estimator window, samples
	FilterPop  int // pop-side rate estimator window, samples

	TrackTarget int     // desired occupancy, samples
	TrackRange  int     // drift before reset, samples; 0 disables
	TrackKp     float64 // proportional gain, ppm/sample
	TrackKi     float64 // integral gain, ppm/(sample*s)
	TrackWarp   float64 // quadratic warp scale, samples
	TrackRate   float64 // slew cap, ppm/s

	// RatioMin/RatioMax hard-clamp the resample ratio the tracker may
	// produce (spec.md §3 invariant, §8.4). DefaultConfig sets [0.5,
	// 2.0]; normalize fills in the same values for either one left zero.
	RatioMin float64
	RatioMax float64

	// FIRTaps supplies the custom FIR tap array spec.md §4.B requires
	// for FilterFIR; §9's Open Question says no embedded default may
	// be guessed, so selecting FilterFIR with FIRTaps == nil is a
	// configuration error (ATS.Config returns false).
	FIRTaps []float64
}

// DefaultConfig returns the sensible-defaults configuration spec.md §6
// documents: 48kHz 1:1, two channels, SPLINE5 interpolation, tracking
// on, target occupancy B/4.
func DefaultConfig() Config {
	return Config{
		Channels:    2,
		Mode:        InterpSpline5,
		InRate:      48000,
		OutRate:     48000,
		FilterPush:  200,
		FilterPop:   200,
		TrackTarget: BufferSize / 4,
		TrackRange:  0,
		TrackKp:     2.0,
		TrackKi:     0.1,
		TrackWarp:   10.0,
		TrackRate:   10.0,
		RatioMin:    0.5,
		RatioMax:    2.0,
	}
}

// validate applies spec.md §4.F's config() rejection rules: illegal
// flag combinations, excessive channels, non-finite rates. It never
// mutates cfg; callers resolve the Biquad/Biquad2 "both set" case
// before this is reached (normalize does that).
func (cfg Config) validate() bool {
	if cfg.Channels <= 0 {
		return false
	}
	if cfg.Channels > BufferSize {
		return false // channels * B would not fit reserved storage
	}
	if !isFinitePositive(cfg.InRate) || !isFinitePositive(cfg.OutRate) {
		return false
	}
	if cfg.RatioMin <= 0 || cfg.RatioMax <= cfg.RatioMin {
		return false
	}
	if cfg.Mode.hasFilter(FilterFIR) && cfg.FIRTaps == nil {
		return false // §9 Open Question: no embedded default, caller must supply taps
	}
	if cfg.FilterPush <= 0 || cfg.FilterPop <= 0 {
		return false
	}
	return true
}

// normalize resolves mutually exclusive flag combinations (Biquad2
// wins over Biquad, spec.md §4.B) before the config is applied.
func (cfg Config) normalize() Config {
	if cfg.Mode.hasFilter(FilterBiquad2) && cfg.Mode.hasFilter(FilterBiquad) {
		cfg.Mode &^= FilterBiquad
	}
	if cfg.RatioMin == 0 {
		cfg.RatioMin = 0.5
	}
	if cfg.RatioMax == 0 {
		cfg.RatioMax = 2.0
	}
	return cfg
}

func isFinitePositive(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0) && x > 0
}
