package main

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dickinsaudio/ats-go"
)

// fileConfig is the on-disk profile shape (ats.yaml), analogous to the
// teacher's tocalls.yaml loading in deviceid.go: decoded once at
// startup, never on the hot path.
type fileConfig struct {
	Channels    int     `yaml:"channels"`
	InRate      float64 `yaml:"inRate"`
	OutRate     float64 `yaml:"outRate"`
	Interp      string  `yaml:"interp"` // hold|linear|spline3|spline5
	Biquad      bool    `yaml:"biquad"`
	Biquad2     bool    `yaml:"biquad2"`
	FIR2X       bool    `yaml:"fir2x"`
	TrackTarget int     `yaml:"trackTarget"`
	TrackRange  int     `yaml:"trackRange"`
	TrackKp     float64 `yaml:"trackKp"`
	TrackKi     float64 `yaml:"trackKi"`
	TrackWarp   float64 `yaml:"trackWarp"`
	TrackRate   float64 `yaml:"trackRate"`
}

func loadFileConfig(path string) (fileConfig, error) {
	var fc fileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	err = yaml.Unmarshal(data, &fc)
	return fc, err
}

func interpMode(name string) ats.Mode {
	switch name {
	case "hold":
		return ats.InterpHold
	case "linear":
		return ats.InterpLinear
	case "spline3":
		return ats.InterpSpline3
	default:
		return ats.InterpSpline5
	}
}

// buildConfig layers flags over an optional yaml file over ats'
// built-in defaults, flags taking precedence.
func buildConfig(flags cliFlags) ats.Config {
	cfg := ats.DefaultConfig()

	if flags.configPath != "" {
		if fc, err := loadFileConfig(flags.configPath); err == nil {
			applyFileConfig(&cfg, fc)
		}
	}

	if flags.channels > 0 {
		cfg.Channels = flags.channels
	}
	if flags.inRate > 0 {
		cfg.InRate = flags.inRate
	}
	if flags.outRate > 0 {
		cfg.OutRate = flags.outRate
	}
	if flags.interp != "" {
		cfg.Mode = (cfg.Mode &^ ats.InterpMask) | interpMode(flags.interp)
	}
	if flags.biquad {
		cfg.Mode |= ats.FilterBiquad
	}
	if flags.biquad2 {
		cfg.Mode |= ats.FilterBiquad2
	}
	if flags.fir2x {
		cfg.Mode |= ats.FilterFIR2X
	}
	if flags.trackingOff {
		cfg.Mode |= ats.TrackingOff
	}
	return cfg
}

func applyFileConfig(cfg *ats.Config, fc fileConfig) {
	if fc.Channels > 0 {
		cfg.Channels = fc.Channels
	}
	if fc.InRate > 0 {
		cfg.InRate = fc.InRate
	}
	if fc.OutRate > 0 {
		cfg.OutRate = fc.OutRate
	}
	if fc.Interp != "" {
		cfg.Mode = (cfg.Mode &^ ats.InterpMask) | interpMode(fc.Interp)
	}
	if fc.Biquad {
		cfg.Mode |= ats.FilterBiquad
	}
	if fc.Biquad2 {
		cfg.Mode |= ats.FilterBiquad2
	}
	if fc.FIR2X {
		cfg.Mode |= ats.FilterFIR2X
	}
	if fc.TrackTarget > 0 {
		cfg.TrackTarget = fc.TrackTarget
	}
	if fc.TrackRange > 0 {
		cfg.TrackRange = fc.TrackRange
	}
	if fc.TrackKp > 0 {
		cfg.TrackKp = fc.TrackKp
	}
	if fc.TrackKi > 0 {
		cfg.TrackKi = fc.TrackKi
	}
	if fc.TrackWarp > 0 {
		cfg.TrackWarp = fc.TrackWarp
	}
	if fc.TrackRate > 0 {
		cfg.TrackRate = fc.TrackRate
	}
}
