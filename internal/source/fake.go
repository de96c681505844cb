package source

import "sync"

// FakeReader is an AnalogReader with settable channel values.
type FakeReader struct {
	mu     sync.Mutex
	values map[int]int
	errs   map[int]error
	reads  int
}

// NewFakeReader creates a reader where every channel reads 0.
func NewFakeReader() *FakeReader {
	return &FakeReader{values: map[int]int{}, errs: map[int]error{}}
}

// Set sets the value of channel and clears its error.
func (f *FakeReader) Set(channel, value int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[channel] = value
	delete(f.errs, channel)
}

// Fail makes reads of channel return err.
func (f *FakeReader) Fail(channel int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[channel] = err
}

func (f *FakeReader) ReadChannel(channel int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if err := f.errs[channel]; err != nil {
		return 0, err
	}
	return f.values[channel], nil
}

// Reads returns the number of ReadChannel calls.
func (f *FakeReader) Reads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

// FakeLines is a LineSource fed from a queue.
type FakeLines struct {
	Lines []string
}

func (f *FakeLines) ReadLine() (string, bool) {
	if len(f.Lines) == 0 {
		return "", false
	}
	line := f.Lines[0]
	f.Lines = f.Lines[1:]
	return line, true
}

// FakeMeasurement is a Measurement with literal fields.
type FakeMeasurement struct {
	Raw     int
	Text    string
	Unit    string
	Missing bool
}

func (m FakeMeasurement) RawValue() int    { return m.Raw }
func (m FakeMeasurement) Value() string    { return m.Text }
func (m FakeMeasurement) UnitName() string { return m.Unit }
func (m FakeMeasurement) Present() bool    { return !m.Missing }

// FakeDriver answers commands from a map.
type FakeDriver struct {
	Answers  map[string]FakeMeasurement
	InitErr  error
	Inits    int
	Commands []string
}

func (d *FakeDriver) Init() error {
	d.Inits++
	return d.InitErr
}

func (d *FakeDriver) Get(command string) FakeMeasurement {
	d.Commands = append(d.Commands, command)
	m, ok := d.Answers[command]
	if !ok {
		return FakeMeasurement{Missing: true}
	}
	return m
}

// FakeBarometer is a PressureReader that becomes ready after a number of
// polls.
type FakeBarometer struct {
	ReadyAfter int
	KPa        float32
	Err        error
	polls      int
}

func (f *FakeBarometer) Ready() bool {
	f.polls++
	return f.polls > f.ReadyAfter
}

func (f *FakeBarometer) PressureKPa() (float32, error) {
	if f.Err != nil {
		return 0, f.Err
	}
	return f.KPa, nil
}

// Polls returns the number of Ready calls.
func (f *FakeBarometer) Polls() int { return f.polls }
