package source

import "fmt"

// Measurement is one answer from an OBD2 driver.
type Measurement interface {
	RawValue() int
	Value() string
	UnitName() string
	// Present is false when the vehicle did not answer.
	Present() bool
}

// Driver queries a vehicle bus by command, e.g. "010C" for engine RPM.
type Driver[M Measurement] interface {
	Init() error
	Get(command string) M
}

// OBD2Source caches the last present measurement of one command.
type OBD2Source[M Measurement] struct {
	driver  Driver[M]
	command string

	raw   int
	value string
	unit  string
}

// NewOBD2 creates a source querying command through driver.
func NewOBD2[M Measurement](driver Driver[M], command string) *OBD2Source[M] {
	return &OBD2Source[M]{driver: driver, command: command}
}

// Init initialises the driver.
func (s *OBD2Source[M]) Init() error {
	if err := s.driver.Init(); err != nil {
		return fmt.Errorf("init obd2 driver for %s: %w", s.command, err)
	}
	return nil
}

func (s *OBD2Source[M]) Tick() { s.Read() }

// Read queries the driver. Absent measurements leave the cache untouched.
func (s *OBD2Source[M]) Read() {
	m := s.driver.Get(s.command)
	if !m.Present() {
		return
	}
	s.raw = m.RawValue()
	s.value = m.Value()
	s.unit = m.UnitName()
}

// Command returns the queried command.
func (s *OBD2Source[M]) Command() string { return s.command }

func (s *OBD2Source[M]) Raw() int { return s.raw }

func (s *OBD2Source[M]) Format() string { return s.value }

func (s *OBD2Source[M]) Unit() string { return s.unit }
