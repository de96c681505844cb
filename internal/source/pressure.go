package source

import (
	"fmt"

	"github.com/sweeney/gauge-fw/internal/pressure"
)

// Mode selects how a pressure sensor formats its reading.
type Mode int

const (
	PSIRel Mode = iota
	PSIAbs
	KPaAbs
	KPaRel
)

var modeNames = map[Mode]string{
	PSIRel: "psi-rel",
	PSIAbs: "psi-abs",
	KPaAbs: "kpa-abs",
	KPaRel: "kpa-rel",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode parses a mode name such as "psi-rel".
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if name == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown pressure mode %q", s)
}

// DefaultMode returns the natural display mode of model.
func DefaultMode(model pressure.Model) Mode {
	if model.Absolute {
		return PSIAbs
	}
	return PSIRel
}

// PressureSensor is an analog pressure transducer.
type PressureSensor struct {
	AnalogSensor
	cal       pressure.Calibration
	mode      Mode
	reference Reference
}

// PressureOption configures a PressureSensor.
type PressureOption func(*PressureSensor)

// WithMode sets the display mode.
func WithMode(m Mode) PressureOption {
	return func(s *PressureSensor) { s.mode = m }
}

// WithReference uses a live barometer instead of one standard atmosphere for
// relative modes.
func WithReference(r Reference) PressureOption {
	return func(s *PressureSensor) { s.reference = r }
}

// NewPressure creates a pressure sensor on channel with calibration cal.
func NewPressure(reader AnalogReader, channel int, cal pressure.Calibration, opts ...PressureOption) *PressureSensor {
	s := &PressureSensor{
		AnalogSensor: AnalogSensor{reader: reader, channel: channel},
		cal:          cal,
		mode:         PSIRel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mode returns the display mode.
func (s *PressureSensor) Mode() Mode { return s.mode }

// referenceKPa returns the live reference, or one atmosphere.
func (s *PressureSensor) referenceKPa() float32 {
	if s.reference != nil {
		if kpa, ok := s.reference.ReferenceKPa(); ok {
			return kpa
		}
	}
	return pressure.OneAtmKPa
}

// KPaAbs returns the last reading as absolute kPa.
func (s *PressureSensor) KPaAbs() float32 {
	return s.cal.KPaAbs(s.raw)
}

// KPaRel returns the last reading as kPa relative to the reference.
func (s *PressureSensor) KPaRel() float32 {
	return s.cal.KPaRel(s.raw, s.referenceKPa())
}

// Value returns the last reading in the unit of the display mode.
func (s *PressureSensor) Value() float32 {
	switch s.mode {
	case PSIAbs:
		return pressure.ToPSI(s.KPaAbs())
	case KPaAbs:
		return s.KPaAbs()
	case KPaRel:
		return s.KPaRel()
	default:
		return pressure.ToPSI(s.KPaRel())
	}
}

func (s *PressureSensor) Format() string {
	return formatValue(s.Value())
}

func (s *PressureSensor) Unit() string {
	switch s.mode {
	case KPaAbs, KPaRel:
		return "kPa"
	default:
		return "psi"
	}
}
