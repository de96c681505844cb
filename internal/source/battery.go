package source

// BatteryConfig describes a cell measured through a resistor divider.
type BatteryConfig struct {
	// MilliVoltPerCount converts ADC counts to cell millivolts, divider
	// ratio included.
	MilliVoltPerCount float32
	EmptyMilliVolt    float32
	FullMilliVolt     float32
}

// BatterySource reports the charge of a cell as a percentage.
type BatterySource struct {
	AnalogSensor
	cfg BatteryConfig
}

// NewBattery creates a battery monitor on channel.
func NewBattery(reader AnalogReader, channel int, cfg BatteryConfig) *BatterySource {
	return &BatterySource{
		AnalogSensor: AnalogSensor{reader: reader, channel: channel},
		cfg:          cfg,
	}
}

// MilliVolts returns the last cell voltage.
func (b *BatterySource) MilliVolts() float32 {
	return float32(b.raw) * b.cfg.MilliVoltPerCount
}

// Percent returns the charge, linear between empty and full, within 0..100.
func (b *BatterySource) Percent() float32 {
	span := b.cfg.FullMilliVolt - b.cfg.EmptyMilliVolt
	if span <= 0 {
		return 0
	}
	p := (b.MilliVolts() - b.cfg.EmptyMilliVolt) / span * 100
	return min(max(p, 0), 100)
}

func (b *BatterySource) Format() string { return formatValue(b.Percent()) }

func (b *BatterySource) Unit() string { return "%" }
