// Package sweep maps a measurement onto a set of LEDs of an addressable
// strip, with independent alert LEDs, and drives the strip as a gauge
// component.
package sweep

import "github.com/sweeney/gauge-fw/internal/gauge"

// Policy picks the color of the LED at position given how many LEDs the
// current reading lights. It must be a pure function.
type Policy interface {
	Color(position, litCount int, base, blank gauge.Color) gauge.Color
}

// FullSweep lights every LED from the start of the sweep up to the level.
type FullSweep struct{}

func (FullSweep) Color(position, litCount int, base, blank gauge.Color) gauge.Color {
	if position <= litCount {
		return base
	}
	return blank
}

// InverseSweep lights every LED from the level to the end of the sweep.
type InverseSweep struct{}

func (InverseSweep) Color(position, litCount int, base, blank gauge.Color) gauge.Color {
	if position >= litCount {
		return base
	}
	return blank
}

// LevelOnlyDim divides the base color of LEDs next to the level.
const LevelOnlyDim = 4

// LevelOnly lights the level LED and dims Radius LEDs on each side of it.
type LevelOnly struct {
	Radius int
}

func (p LevelOnly) Color(position, litCount int, base, blank gauge.Color) gauge.Color {
	if position == litCount {
		return base
	}
	if position >= litCount-p.Radius && position <= litCount+p.Radius {
		return base.Scaled(LevelOnlyDim)
	}
	return blank
}
