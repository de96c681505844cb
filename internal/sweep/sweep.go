package sweep

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/sweeney/gauge-fw/internal/gauge"
)

// Compare decides whether a raw reading is in alert.
type Compare int

const (
	// AtOrAbove alerts when raw >= level.
	AtOrAbove Compare = iota
	// Above alerts when raw > level.
	Above
)

// Alerting reports whether raw is in alert against level.
func (c Compare) Alerting(raw, level int) bool {
	if c == Above {
		return raw > level
	}
	return raw >= level
}

func (c Compare) String() string {
	switch c {
	case AtOrAbove:
		return ">="
	case Above:
		return ">"
	default:
		return fmt.Sprintf("Compare(%d)", int(c))
	}
}

// ParseCompare parses ">=" or ">". An empty string is AtOrAbove.
func ParseCompare(s string) (Compare, error) {
	switch s {
	case "", ">=":
		return AtOrAbove, nil
	case ">":
		return Above, nil
	default:
		return 0, fmt.Errorf("unknown alert comparison %q", s)
	}
}

// Config holds the immutable parameters of a sweep. Slices and colors are
// shared read-only with the owning configuration and never modified.
type Config struct {
	Min, Max   int
	AlertLevel int
	Compare    Compare

	// SweepLeds are strip indices in sweep order. AlertLeds may overlap them.
	SweepLeds []int
	AlertLeds []int

	Base, Alert, Blank gauge.Color
	Policy             Policy
}

// Painter paints its part of a strip's pixel buffer.
type Painter interface {
	Update(dev gauge.PixelDevice)
}

// Sweep lights sweep LEDs proportionally to a source's raw reading and
// sets alert LEDs on threshold crossings.
//
// Min must differ from Max. Readings outside [Min, Max] yield lit counts
// outside the sweep and are not clamped.
type Sweep struct {
	source gauge.Source
	cfg    Config

	alerting         bool
	previousLitCount int
}

// New creates a sweep reading from source.
func New(source gauge.Source, cfg Config) *Sweep {
	if cfg.Policy == nil {
		cfg.Policy = FullSweep{}
	}
	return &Sweep{source: source, cfg: cfg}
}

// Alerting reports whether the alert LEDs are currently lit.
func (s *Sweep) Alerting() bool {
	return s.alerting
}

// LitCount returns the lit count computed by the last Update.
func (s *Sweep) LitCount() int {
	return s.previousLitCount
}

// Config returns the sweep parameters.
func (s *Sweep) Config() Config {
	return s.cfg
}

// litCount returns floor(percentile * len(SweepLeds)) - 1.
func (s *Sweep) litCount(raw int) int {
	percentile := float32(raw-s.cfg.Min) / float32(s.cfg.Max-s.cfg.Min)
	return int(math32.Floor(percentile*float32(len(s.cfg.SweepLeds)))) - 1
}

// Update paints the sweep, then the alert LEDs.
func (s *Sweep) Update(dev gauge.PixelDevice) {
	raw := s.source.Raw()
	lit := s.litCount(raw)
	s.previousLitCount = lit

	for p, idx := range s.cfg.SweepLeds {
		dev.SetPixel(idx, s.cfg.Policy.Color(p, lit, s.cfg.Base, s.cfg.Blank))
	}

	s.updateAlert(dev, raw, nil, nil)
}

// updateAlert applies alert hysteresis. Indices written are recorded in
// touched when it is non-nil. When clearing, indices in repainted are left
// for the sweep pass.
func (s *Sweep) updateAlert(dev gauge.PixelDevice, raw int, touched, repainted map[int]struct{}) {
	if s.cfg.Compare.Alerting(raw, s.cfg.AlertLevel) {
		s.alerting = true
		for _, idx := range s.cfg.AlertLeds {
			dev.SetPixel(idx, s.cfg.Alert)
			if touched != nil {
				touched[idx] = struct{}{}
			}
		}
		return
	}

	if !s.alerting {
		return
	}
	s.alerting = false
	for _, idx := range s.cfg.AlertLeds {
		if _, ok := repainted[idx]; ok {
			continue
		}
		dev.SetPixel(idx, s.cfg.Blank)
	}
}

// OverlappedSweep is a Sweep for layouts where alert LEDs are also sweep
// LEDs. The alert pass runs first and the sweep pass skips every index it
// touched, so each LED is written at most once per tick and the alert color
// wins.
type OverlappedSweep struct {
	*Sweep
	sweepSet map[int]struct{}
	touched  map[int]struct{}
}

// NewOverlapped creates an overlap-aware sweep reading from source.
func NewOverlapped(source gauge.Source, cfg Config) *OverlappedSweep {
	sweepSet := make(map[int]struct{}, len(cfg.SweepLeds))
	for _, idx := range cfg.SweepLeds {
		sweepSet[idx] = struct{}{}
	}
	return &OverlappedSweep{
		Sweep:    New(source, cfg),
		sweepSet: sweepSet,
		touched:  make(map[int]struct{}, len(cfg.AlertLeds)),
	}
}

// Update paints the alert LEDs, then the sweep LEDs not already painted.
func (s *OverlappedSweep) Update(dev gauge.PixelDevice) {
	clear(s.touched)
	raw := s.source.Raw()

	s.updateAlert(dev, raw, s.touched, s.sweepSet)

	lit := s.litCount(raw)
	s.previousLitCount = lit
	for p, idx := range s.cfg.SweepLeds {
		if _, done := s.touched[idx]; done {
			continue
		}
		dev.SetPixel(idx, s.cfg.Policy.Color(p, lit, s.cfg.Base, s.cfg.Blank))
	}
}
