// Package obd reads engine data from an ELM327 OBD2 adapter on a serial port.
package obd

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Mode 01 PIDs the gauge can display.
const (
	PIDCoolantTemp   = "05"
	PIDIntakeMAP     = "0B"
	PIDEngineRPM     = "0C"
	PIDVehicleSpeed  = "0D"
	PIDIntakeAirTemp = "0F"
	PIDThrottle      = "11"
	PIDModuleVoltage = "42"
)

// Command returns the mode 01 query for pid, e.g. "010C".
func Command(pid string) string {
	return "01" + strings.ToUpper(pid)
}

// decoder turns the data bytes of a mode 01 answer into a raw integer, the
// physical value and its unit.
type decoder struct {
	bytes  int
	unit   string
	format string
	decode func(d []byte) (raw int, value float32)
}

var decoders = map[string]decoder{
	PIDCoolantTemp: {1, "C", "%5.0f", func(d []byte) (int, float32) {
		v := int(d[0]) - 40
		return v, float32(v)
	}},
	PIDIntakeMAP: {1, "kPa", "%5.0f", func(d []byte) (int, float32) {
		return int(d[0]), float32(d[0])
	}},
	PIDEngineRPM: {2, "rpm", "%5.0f", func(d []byte) (int, float32) {
		v := (int(d[0])*256 + int(d[1])) / 4
		return v, float32(int(d[0])*256+int(d[1])) / 4
	}},
	PIDVehicleSpeed: {1, "km/h", "%5.0f", func(d []byte) (int, float32) {
		return int(d[0]), float32(d[0])
	}},
	PIDIntakeAirTemp: {1, "C", "%5.0f", func(d []byte) (int, float32) {
		v := int(d[0]) - 40
		return v, float32(v)
	}},
	PIDThrottle: {1, "%", "%5.1f", func(d []byte) (int, float32) {
		return int(d[0]), float32(d[0]) * 100 / 255
	}},
	PIDModuleVoltage: {2, "V", "%5.1f", func(d []byte) (int, float32) {
		mv := int(d[0])*256 + int(d[1])
		return mv, float32(mv) / 1000
	}},
}

// Supported reports whether command is a mode 01 query this package decodes.
func Supported(command string) bool {
	if len(command) != 4 || !strings.HasPrefix(command, "01") {
		return false
	}
	_, ok := decoders[strings.ToUpper(command[2:])]
	return ok
}

// Measurement is a decoded answer. The zero value is not present.
type Measurement struct {
	Command string
	Raw     int
	Number  float32
	Unit    string
	Text    string
	present bool
}

func (m Measurement) RawValue() int    { return m.Raw }
func (m Measurement) Value() string    { return m.Text }
func (m Measurement) UnitName() string { return m.Unit }
func (m Measurement) Present() bool    { return m.present }

// Errors returned by Decode.
var (
	ErrNoData      = errors.New("obd: no data")
	ErrUnsupported = errors.New("obd: unsupported command")
)

// Decode parses the adapter's answer to command. The answer may contain
// echo, "SEARCHING..." and blank lines; headers and spaces must be off or
// are stripped.
func Decode(command, answer string) (Measurement, error) {
	command = strings.ToUpper(command)
	if !Supported(command) {
		return Measurement{}, fmt.Errorf("%w: %s", ErrUnsupported, command)
	}
	pid := command[2:]
	dec := decoders[pid]
	want := "41" + pid

	for _, line := range strings.FieldsFunc(answer, func(r rune) bool { return r == '\r' || r == '\n' }) {
		line = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(line), " ", ""))
		if !strings.HasPrefix(line, want) {
			continue
		}
		data, err := hex.DecodeString(line[len(want):])
		if err != nil {
			return Measurement{}, fmt.Errorf("obd: decode %q: %w", line, err)
		}
		if len(data) < dec.bytes {
			return Measurement{}, fmt.Errorf("obd: short answer %q for %s", line, command)
		}
		raw, value := dec.decode(data)
		return Measurement{
			Command: command,
			Raw:     raw,
			Number:  value,
			Unit:    dec.unit,
			Text:    fmt.Sprintf(dec.format, value),
			present: true,
		}, nil
	}
	return Measurement{}, fmt.Errorf("%w for %s: %q", ErrNoData, command, strings.TrimSpace(answer))
}
