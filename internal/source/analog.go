package source

// AnalogSensor is a raw analog channel.
type AnalogSensor struct {
	reader  AnalogReader
	channel int
	raw     int
}

// NewAnalog creates a sensor reading channel through reader.
func NewAnalog(reader AnalogReader, channel int) *AnalogSensor {
	return &AnalogSensor{reader: reader, channel: channel}
}

func (s *AnalogSensor) Init() error { return nil }

func (s *AnalogSensor) Tick() { s.Read() }

// Read samples the channel. On error the previous value is kept.
func (s *AnalogSensor) Read() {
	v, err := s.reader.ReadChannel(s.channel)
	if err != nil {
		return
	}
	s.raw = v
}

func (s *AnalogSensor) Raw() int { return s.raw }

// Channel returns the channel this sensor reads.
func (s *AnalogSensor) Channel() int { return s.channel }

func (s *AnalogSensor) Format() string { return formatValue(float32(s.raw)) }

func (s *AnalogSensor) Unit() string { return "adc" }
