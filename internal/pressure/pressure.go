// Package pressure converts raw analog readings of ratiometric pressure
// transducers into physical units. All functions are pure.
package pressure

import "github.com/chewxy/math32"

// Physics constants.
const (
	OneAtmKPa float32 = 101.3
	OneAtmPSI float32 = 14.7
)

// ADC resolution constants for a 10-bit converter: counts per volt.
const (
	VResolutionInv5V  = 204 // ~1024 / 5
	VResolutionInv3V3 = 310 // ~1024 / 3.3
)

// Calibration holds the per-installation constants of an analog pressure
// sensor. It is a value type and never changes after construction.
type Calibration struct {
	// ADCOffset is subtracted from the raw reading before conversion.
	ADCOffset int
	// MilliVoltPerKPa is the transducer sensitivity.
	MilliVoltPerKPa float32
	// KPaOffsetAtZero is the pressure reported at 0 V output.
	KPaOffsetAtZero float32
	// Error is the multiplicative correction, e.g. 0.015 for +1.5%.
	Error float32
	// VResolutionInv is the number of ADC counts per volt.
	VResolutionInv float32
}

// KPaAbs converts a raw ADC reading to absolute kPa.
func (c Calibration) KPaAbs(raw int) float32 {
	volts := float32(raw-c.ADCOffset) / c.VResolutionInv
	return (volts/(c.MilliVoltPerKPa/1000) + c.KPaOffsetAtZero) * (1 + c.Error)
}

// KPaRel converts a raw ADC reading to kPa relative to reference.
func (c Calibration) KPaRel(raw int, reference float32) float32 {
	return c.KPaAbs(raw) - reference
}

// ToPSI scales a kPa value to psi using the atmosphere ratio.
func ToPSI(kpa float32) float32 {
	return kpa * OneAtmPSI / OneAtmKPa
}

// Round1 rounds v to one decimal place.
func Round1(v float32) float32 {
	return math32.Round(v*10) / 10
}

// Model is a transducer family's datasheet constants.
type Model struct {
	Name            string
	MilliVoltPerKPa float32
	KPaOffsetAtZero float32
	DefaultError    float32
	// Absolute is true for sensors whose natural display is absolute
	// pressure (differential sensors referenced to ambient).
	Absolute bool
}

// Calibration returns a calibration for this model at the given ADC offset
// and resolution, using the model's default error.
func (m Model) Calibration(adcOffset int, vResolutionInv float32) Calibration {
	return Calibration{
		ADCOffset:       adcOffset,
		MilliVoltPerKPa: m.MilliVoltPerKPa,
		KPaOffsetAtZero: m.KPaOffsetAtZero,
		Error:           m.DefaultError,
		VResolutionInv:  vResolutionInv,
	}
}

// Known transducers. The 3V3 variants are for boards running the sensor
// output through a 3.3 V reference.
var (
	MPX4250   = Model{Name: "MPX4250AP", MilliVoltPerKPa: 20, KPaOffsetAtZero: 20, DefaultError: 0.015}
	MPX4250V3 = Model{Name: "MPX4250AP-3V3", MilliVoltPerKPa: 13, KPaOffsetAtZero: 13, DefaultError: 0.015}
	MPX5500   = Model{Name: "MPX5500DP", MilliVoltPerKPa: 9, DefaultError: 0.0025, Absolute: true}
	MPX5500V3 = Model{Name: "MPX5500DP-3V3", MilliVoltPerKPa: 6, DefaultError: 0.0025, Absolute: true}
	GM3Bar    = Model{Name: "GM3BAR", MilliVoltPerKPa: 16, KPaOffsetAtZero: 4, DefaultError: 0.0125}
)

// Models indexes the known transducers by name.
var Models = map[string]Model{
	MPX4250.Name:   MPX4250,
	MPX4250V3.Name: MPX4250V3,
	MPX5500.Name:   MPX5500,
	MPX5500V3.Name: MPX5500V3,
	GM3Bar.Name:    GM3Bar,
}
