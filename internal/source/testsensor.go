package source

// TestSensor produces a triangle wave between MinLevel and MaxLevel for
// bench testing without hardware.
type TestSensor struct {
	minLevel int
	maxLevel int
	step     int

	up  bool
	raw int
}

// NewTest creates a test sensor starting at minLevel, going up by step per
// tick.
func NewTest(minLevel, maxLevel, step int) *TestSensor {
	return &TestSensor{minLevel: minLevel, maxLevel: maxLevel, step: step, up: true, raw: minLevel}
}

func (s *TestSensor) Init() error { return nil }

func (s *TestSensor) Tick() { s.Read() }

// Read advances the wave by one step.
func (s *TestSensor) Read() {
	if s.up && s.raw > s.maxLevel {
		s.up = false
	}
	if !s.up && s.raw < s.minLevel+s.step {
		s.up = true
	}
	if s.up {
		s.raw += s.step
	} else {
		s.raw -= s.step
	}
}

func (s *TestSensor) Raw() int { return s.raw }

func (s *TestSensor) Format() string {
	return formatValue(float32(s.raw)/10 - 50)
}

func (s *TestSensor) Unit() string { return "unit" }
