package gpio

import "errors"

// FakeLine is a test double that returns scripted GPIO levels.
type FakeLine struct {
	// Samples contains scripted levels to return.
	// Each call to Value() consumes the next sample.
	Samples []bool

	// index tracks current position in Samples
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Value()
	ReadError error
}

// NewFakeLine creates a FakeLine with the given samples.
func NewFakeLine(samples ...bool) *FakeLine {
	return &FakeLine{Samples: samples}
}

// Value returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeLine) Value() (bool, error) {
	if f.ReadError != nil {
		return false, f.ReadError
	}

	if len(f.Samples) == 0 {
		return false, errors.New("no samples configured")
	}

	v := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return v, nil
}

// Close marks the line as closed.
func (f *FakeLine) Close() error {
	f.Closed = true
	return nil
}

// Reset resets the line to the beginning of samples.
func (f *FakeLine) Reset() {
	f.index = 0
	f.Closed = false
}
