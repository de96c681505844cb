// Package source provides the measurement sources a gauge renders: analog
// channels, pressure transducers, serial line sensors, OBD2 PIDs, a battery
// monitor, a barometer and a software test wave.
//
// Sources are read on Tick and cache their last reading. Raw, Format and
// Unit never touch hardware and return the same values until the next read.
// Transient read failures keep the previous value.
package source

import (
	"errors"
	"fmt"

	"github.com/sweeney/gauge-fw/internal/gauge"
)

// Source is a measurement source that can be registered as a gauge
// component. Tick performs a Read.
type Source interface {
	gauge.Tickable
	gauge.Source
	Read()
}

// AnalogReader reads one analog channel, returning counts on a 10-bit scale.
type AnalogReader interface {
	ReadChannel(channel int) (int, error)
}

// AnalogReaderFunc adapts a function to AnalogReader.
type AnalogReaderFunc func(channel int) (int, error)

func (f AnalogReaderFunc) ReadChannel(channel int) (int, error) {
	return f(channel)
}

// Reference supplies a live atmospheric pressure for relative readings.
// ok is false until a valid reading exists.
type Reference interface {
	ReferenceKPa() (kpa float32, ok bool)
}

// ErrNotReady is returned while a device has not reported ready.
var ErrNotReady = errors.New("device not ready")

// formatValue renders v in a 5-wide field with one decimal.
func formatValue(v float32) string {
	return fmt.Sprintf("%5.1f", v)
}
