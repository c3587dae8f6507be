package ats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig().normalize()
	assert.True(t, cfg.validate())
}

func TestValidateRejectsNonFinitesRates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InRate = math.NaN()
	assert.False(t, cfg.validate())

	cfg = DefaultConfig()
	cfg.OutRate = math.Inf(1)
	assert.False(t, cfg.validate())
}

func TestValidateRejectsBadRatioRange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RatioMin = 1.5
	cfg.RatioMax = 1.0
	assert.False(t, cfg.validate())
}

func TestValidateRejectsFIRWithoutTaps(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mode = InterpHold | FilterFIR
	assert.False(t, cfg.validate())

	cfg.FIRTaps = []float64{1.0}
	assert.True(t, cfg.validate())
}

func TestNormalizeResolvesBiquadConflictInFavourOfBiquad2(t *testing.T) {
	cfg := Config{Mode: FilterBiquad | FilterBiquad2}
	norm := cfg.normalize()
	assert.True(t, norm.Mode.hasFilter(FilterBiquad2))
	assert.False(t, norm.Mode.hasFilter(FilterBiquad))
}

func TestNormalizeFillsZeroRatioBounds(t *testing.T) {
	cfg := Config{}
	norm := cfg.normalize()
	assert.Equal(t, 0.5, norm.RatioMin)
	assert.Equal(t, 2.0, norm.RatioMax)
}
