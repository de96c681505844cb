package source

import (
	"strconv"
	"strings"
)

// LineSource yields complete newline-terminated lines without blocking.
// ok is false when no complete line is buffered.
type LineSource interface {
	ReadLine() (line string, ok bool)
}

// SerialSensor reads one integer per line from a serial device.
type SerialSensor struct {
	lines LineSource
	unit  string
	raw   int
}

// NewSerial creates a serial sensor reporting in unit.
func NewSerial(lines LineSource, unit string) *SerialSensor {
	return &SerialSensor{lines: lines, unit: unit}
}

func (s *SerialSensor) Init() error { return nil }

func (s *SerialSensor) Tick() { s.Read() }

// Read consumes at most one line. Without a complete line, or with one that
// is not an integer, the previous value is kept.
func (s *SerialSensor) Read() {
	line, ok := s.lines.ReadLine()
	if !ok {
		return
	}
	v, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		return
	}
	s.raw = v
}

func (s *SerialSensor) Raw() int { return s.raw }

func (s *SerialSensor) Format() string { return formatValue(float32(s.raw)) }

func (s *SerialSensor) Unit() string { return s.unit }
