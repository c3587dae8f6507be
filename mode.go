package ats

// Mode is the bitfield configuring interpolation order, filter chain
// selection and tracking on/off, mirroring the C layout of
// original_source/ats_core/include/ats.h's Mode enum exactly so the
// numeric flag values are stable across ports.
type Mode uint32

const (
	// Interpolation (bits 0-3), selected by & InterpMask.
	InterpMask    Mode = 0x0000000F
	InterpHold    Mode = 0x00000000
	InterpLinear  Mode = 0x00000001
	InterpSpline3 Mode = 0x00000002
	InterpSpline5 Mode = 0x00000003

	// Input filtering (bits 4-7), composable except Biquad/Biquad2
	// which are mutually exclusive (Biquad2 wins if both set).
	FilterMask    Mode = 0x000000F0
	FilterBiquad  Mode = 0x00000010
	FilterBiquad2 Mode = 0x00000020
	FilterFIR2X   Mode = 0x00000040
	FilterFIR     Mode = 0x00000080

	// Additional flags.
	TrackingOff Mode = 0x10000000
)

func (m Mode) hasFilter(f Mode) bool { return m&f != 0 }

func (m Mode) trackingOff() bool { return m&TrackingOff != 0 }
