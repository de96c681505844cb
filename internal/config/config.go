// Package config loads the gauge description from YAML and builds the gauge
// pipeline from it.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/gauge-fw/internal/gauge"
	"github.com/sweeney/gauge-fw/internal/obd"
	"github.com/sweeney/gauge-fw/internal/pressure"
	"github.com/sweeney/gauge-fw/internal/source"
	"github.com/sweeney/gauge-fw/internal/sweep"
)

// Config represents the application configuration.
type Config struct {
	Tick        time.Duration     `yaml:"tick"`
	Hardware    HardwareConfig    `yaml:"hardware"`
	MQTT        MQTTConfig        `yaml:"mqtt"`
	HTTP        HTTPConfig        `yaml:"http"`
	Sources     []SourceConfig    `yaml:"sources"`
	Gauges      []GaugeConfig     `yaml:"gauges"`
	Multiplexer MultiplexerConfig `yaml:"multiplexer"`
}

// HardwareConfig describes the peripherals attached to the Pi.
type HardwareConfig struct {
	ADC       ADCConfig       `yaml:"adc"`
	Display   DisplayConfig   `yaml:"display"`
	Barometer BarometerConfig `yaml:"barometer"`
	Button    ButtonConfig    `yaml:"button"`
	Strip     StripConfig     `yaml:"strip"`
	OBD       OBDConfig       `yaml:"obd"`
}

// ADCConfig configures the ADS1115 converter.
type ADCConfig struct {
	Enabled bool    `yaml:"enabled"`
	Address int     `yaml:"address"`
	Gain    string  `yaml:"gain"` // "2/3", "1" or "2"
	VRef    float32 `yaml:"vref"` // reference the calibrations assume: 5 or 3.3
}

// VResolutionInv returns the counts per volt of a 10-bit converter at VRef.
func (a ADCConfig) VResolutionInv() float32 {
	switch a.VRef {
	case 5:
		return pressure.VResolutionInv5V
	case 3.3:
		return pressure.VResolutionInv3V3
	default:
		return float32(int(1024 / a.VRef))
	}
}

// DisplayConfig configures the character display.
type DisplayConfig struct {
	Enabled bool `yaml:"enabled"`
	Address int  `yaml:"address"`
	Width   int  `yaml:"width"`
	Height  int  `yaml:"height"`
}

// BarometerConfig configures the BMP280.
type BarometerConfig struct {
	Enabled      bool          `yaml:"enabled"`
	ReadyTimeout time.Duration `yaml:"ready_timeout"` // 0 waits forever
}

// ButtonConfig configures the gauge selector button.
type ButtonConfig struct {
	Chip     string        `yaml:"chip"`
	Pin      int           `yaml:"pin"`
	Debounce time.Duration `yaml:"debounce"`
}

// StripConfig configures the LED ring, driven through WLED over MQTT.
type StripConfig struct {
	Pixels int    `yaml:"pixels"`
	Topic  string `yaml:"topic"`
}

// OBDConfig configures the ELM327 adapter.
type OBDConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    string `yaml:"port"`
	Baud    int    `yaml:"baud"`
}

// MQTTConfig configures telemetry publishing.
type MQTTConfig struct {
	Broker      string        `yaml:"broker"`
	ReportEvery int           `yaml:"report_every"` // ticks between reading reports
	Heartbeat   time.Duration `yaml:"heartbeat"`    // 0 disables
}

// HTTPConfig configures the status server.
type HTTPConfig struct {
	Addr string `yaml:"addr"` // empty disables
}

// Source types.
const (
	TypeAnalog    = "analog"
	TypePressure  = "pressure"
	TypeSerial    = "serial"
	TypeOBD2      = "obd2"
	TypeTest      = "test"
	TypeBattery   = "battery"
	TypeBarometer = "barometer"
)

// SourceConfig describes one measurement source. Which fields apply depends
// on Type.
type SourceConfig struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`

	// analog, pressure, battery
	Channel int `yaml:"channel"`

	// pressure
	Model     string   `yaml:"model,omitempty"`
	ADCOffset int      `yaml:"adc_offset,omitempty"`
	Error     *float32 `yaml:"error,omitempty"` // overrides the model default
	Mode      string   `yaml:"mode,omitempty"`
	Reference string   `yaml:"reference,omitempty"` // name of a barometer source

	// serial
	Port string `yaml:"port,omitempty"`
	Baud int    `yaml:"baud,omitempty"`
	Unit string `yaml:"unit,omitempty"`

	// obd2
	PID string `yaml:"pid,omitempty"`

	// test
	Min  int `yaml:"min,omitempty"`
	Max  int `yaml:"max,omitempty"`
	Step int `yaml:"step,omitempty"`

	// battery
	MilliVoltPerCount float32 `yaml:"mv_per_count,omitempty"`
	EmptyMilliVolt    float32 `yaml:"empty_mv,omitempty"`
	FullMilliVolt     float32 `yaml:"full_mv,omitempty"`
}

// RGB is a color as [r, g, b].
type RGB []int

// Color converts c. Validate guarantees three channels in range.
func (c RGB) Color() gauge.Color {
	if len(c) != 3 {
		return gauge.Black
	}
	return gauge.Color{R: uint8(c[0]), G: uint8(c[1]), B: uint8(c[2])}
}

func (c RGB) validate() error {
	if len(c) != 3 {
		return fmt.Errorf("color %v must have 3 channels", []int(c))
	}
	for _, v := range c {
		if v < 0 || v > 255 {
			return fmt.Errorf("color %v has a channel outside 0..255", []int(c))
		}
	}
	return nil
}

// Illumination policies.
const (
	PolicyFull    = "full"
	PolicyInverse = "inverse"
	PolicyLevel   = "level"
)

// SweepConfig describes one sweep on the LED ring.
type SweepConfig struct {
	Source       string `yaml:"source"`
	Min          int    `yaml:"min"`
	Max          int    `yaml:"max"`
	AlertLevel   int    `yaml:"alert_level"`
	AlertCompare string `yaml:"alert_compare,omitempty"` // ">=" (default) or ">"
	SweepLeds    []int  `yaml:"sweep_leds"`
	AlertLeds    []int  `yaml:"alert_leds"`
	BaseColor    RGB    `yaml:"base_color"`
	AlertColor   RGB    `yaml:"alert_color"`
	BlankColor   RGB    `yaml:"blank_color,omitempty"`
	Policy       string `yaml:"policy,omitempty"`
	Radius       int    `yaml:"radius,omitempty"`
	Overlapped   bool   `yaml:"overlapped,omitempty"`
}

// Screen types.
const (
	ScreenSingle = "single"
	ScreenDual   = "dual"
)

// ScreenConfig describes what a gauge shows on the display.
type ScreenConfig struct {
	Type     string   `yaml:"type"`
	Sources  []string `yaml:"sources"`
	Col      int      `yaml:"col"`
	ValueRow int      `yaml:"value_row,omitempty"` // single
	UnitRow  int      `yaml:"unit_row,omitempty"`  // single
	Rows     []int    `yaml:"rows,omitempty"`      // dual: overrides rows derived from the height
}

// GaugeConfig describes one selectable gauge.
type GaugeConfig struct {
	Name   string        `yaml:"name"`
	Sweeps []SweepConfig `yaml:"sweeps"`
	Screen *ScreenConfig `yaml:"screen,omitempty"`
}

// MultiplexerConfig configures gauge switching.
type MultiplexerConfig struct {
	TransitionTicks int `yaml:"transition_ticks"`
	TransitionColor RGB `yaml:"transition_color"`
}

// RingSweepLeds is the sweep of a 24-LED ring: 18 LEDs clockwise from the
// bottom left.
var RingSweepLeds = []int{15, 16, 17, 18, 19, 20, 21, 22, 23, 0, 1, 2, 3, 4, 5, 6, 7, 8}

// RingAlertLeds is the bottom arc of a 24-LED ring.
var RingAlertLeds = []int{9, 10, 11, 12, 13, 14}

// Default returns a default configuration with sensible values: one bench
// gauge driven by a test wave.
func Default() *Config {
	return &Config{
		Tick: 20 * time.Millisecond,
		Hardware: HardwareConfig{
			ADC: ADCConfig{
				Address: 0x48,
				Gain:    "2/3",
				VRef:    5,
			},
			Display: DisplayConfig{
				Address: 0x27,
				Width:   20,
				Height:  4,
			},
			Button: ButtonConfig{
				Chip:     "gpiochip0",
				Pin:      17,
				Debounce: 25 * time.Millisecond,
			},
			Strip: StripConfig{
				Pixels: 24,
				Topic:  "wled/gauge/api",
			},
			OBD: OBDConfig{
				Port: "/dev/ttyUSB0",
				Baud: obd.DefaultBaud,
			},
		},
		MQTT: MQTTConfig{
			Broker:      "tcp://localhost:1883",
			ReportEvery: 50,
			Heartbeat:   15 * time.Minute,
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
		Sources: []SourceConfig{
			{Name: "bench", Type: TypeTest, Min: 175, Max: 410, Step: 3},
		},
		Gauges: []GaugeConfig{
			{
				Name: "bench",
				Sweeps: []SweepConfig{
					{
						Source:     "bench",
						Min:        175,
						Max:        410,
						AlertLevel: 400,
						SweepLeds:  RingSweepLeds,
						AlertLeds:  RingAlertLeds,
						BaseColor:  RGB{0, 40, 60},
						AlertColor: RGB{120, 0, 0},
						BlankColor: RGB{0, 0, 0},
						Policy:     PolicyFull,
					},
				},
				Screen: &ScreenConfig{Type: ScreenSingle, Sources: []string{"bench"}, ValueRow: 0, UnitRow: 2},
			},
		},
		Multiplexer: MultiplexerConfig{
			TransitionTicks: gauge.DefaultTransitionTicks,
			TransitionColor: RGB{60, 60, 60},
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist it
// returns the defaults; missing fields are filled from them. The result is
// validated.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err = Parse(data)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result. Sources and
// gauges in the document replace the default ones.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	cfg.Sources = nil
	cfg.Gauges = nil

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// YAML encodes the configuration.
func (c *Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// ensureDefaults ensures that all required fields have default values if
// missing. Fields where zero is meaningful, such as the button pin and the
// transition length, keep the value decoded over Default.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Tick == 0 {
		c.Tick = def.Tick
	}

	if c.Hardware.ADC.Address == 0 {
		c.Hardware.ADC.Address = def.Hardware.ADC.Address
	}
	if c.Hardware.ADC.Gain == "" {
		c.Hardware.ADC.Gain = def.Hardware.ADC.Gain
	}
	if c.Hardware.ADC.VRef == 0 {
		c.Hardware.ADC.VRef = def.Hardware.ADC.VRef
	}

	if c.Hardware.Display.Address == 0 {
		c.Hardware.Display.Address = def.Hardware.Display.Address
	}
	if c.Hardware.Display.Width == 0 {
		c.Hardware.Display.Width = def.Hardware.Display.Width
	}
	if c.Hardware.Display.Height == 0 {
		c.Hardware.Display.Height = def.Hardware.Display.Height
	}

	if c.Hardware.Button.Chip == "" {
		c.Hardware.Button.Chip = def.Hardware.Button.Chip
	}
	if c.Hardware.Button.Debounce == 0 {
		c.Hardware.Button.Debounce = def.Hardware.Button.Debounce
	}

	if c.Hardware.Strip.Pixels == 0 {
		c.Hardware.Strip.Pixels = def.Hardware.Strip.Pixels
	}
	if c.Hardware.Strip.Topic == "" {
		c.Hardware.Strip.Topic = def.Hardware.Strip.Topic
	}

	if c.Hardware.OBD.Port == "" {
		c.Hardware.OBD.Port = def.Hardware.OBD.Port
	}
	if c.Hardware.OBD.Baud == 0 {
		c.Hardware.OBD.Baud = def.Hardware.OBD.Baud
	}

	if c.MQTT.Broker == "" {
		c.MQTT.Broker = def.MQTT.Broker
	}
	if c.MQTT.ReportEvery == 0 {
		c.MQTT.ReportEvery = def.MQTT.ReportEvery
	}

	if len(c.Sources) == 0 && len(c.Gauges) == 0 {
		c.Sources = def.Sources
		c.Gauges = def.Gauges
	}

	for i := range c.Sources {
		s := &c.Sources[i]
		if s.Type == TypeSerial && s.Baud == 0 {
			s.Baud = 9600
		}
		if s.Type == TypeTest && s.Step == 0 {
			s.Step = 1
		}
	}

	for i := range c.Gauges {
		for j := range c.Gauges[i].Sweeps {
			sw := &c.Gauges[i].Sweeps[j]
			if len(sw.BlankColor) == 0 {
				sw.BlankColor = RGB{0, 0, 0}
			}
			if sw.Policy == "" {
				sw.Policy = PolicyFull
			}
		}
	}

	if len(c.Multiplexer.TransitionColor) == 0 {
		c.Multiplexer.TransitionColor = def.Multiplexer.TransitionColor
	}
}

// minDualRows is the character display height a dual screen needs: a value
// and a unit row per source.
const minDualRows = 4

// Validation errors.
var (
	ErrNoGauges      = errors.New("at least one gauge is required")
	ErrUnknownSource = errors.New("unknown source")
)

// Validate rejects configurations the gauge core would misbehave on:
// degenerate ranges, empty LED lists, LED indices outside the strip and
// dangling source references.
func (c *Config) Validate() error {
	if c.Tick <= 0 {
		return fmt.Errorf("tick must be positive, got %v", c.Tick)
	}
	if len(c.Gauges) == 0 {
		return ErrNoGauges
	}
	if _, err := c.Hardware.ADC.gain(); err != nil {
		return err
	}
	if c.Hardware.ADC.VRef <= 0 {
		return fmt.Errorf("adc vref must be positive, got %v", c.Hardware.ADC.VRef)
	}
	if c.Hardware.Strip.Pixels <= 0 {
		return fmt.Errorf("strip pixels must be positive, got %d", c.Hardware.Strip.Pixels)
	}
	if err := c.Multiplexer.TransitionColor.validate(); err != nil {
		return fmt.Errorf("multiplexer transition color: %w", err)
	}
	if c.Multiplexer.TransitionTicks < 0 {
		return fmt.Errorf("multiplexer transition ticks must not be negative")
	}

	byName := make(map[string]SourceConfig, len(c.Sources))
	for i, s := range c.Sources {
		if s.Name == "" {
			return fmt.Errorf("source %d: name is required", i)
		}
		if _, dup := byName[s.Name]; dup {
			return fmt.Errorf("source %q: duplicate name", s.Name)
		}
		byName[s.Name] = s
	}
	for _, s := range c.Sources {
		if err := c.validateSource(s, byName); err != nil {
			return fmt.Errorf("source %q: %w", s.Name, err)
		}
	}

	names := map[string]bool{}
	for i, g := range c.Gauges {
		if g.Name == "" {
			return fmt.Errorf("gauge %d: name is required", i)
		}
		if names[g.Name] {
			return fmt.Errorf("gauge %q: duplicate name", g.Name)
		}
		names[g.Name] = true
		if g.Screen != nil && g.Screen.Type == ScreenDual && c.Hardware.Display.Enabled && c.Hardware.Display.Height < minDualRows {
			return fmt.Errorf("gauge %q: dual screen needs a display with at least %d rows, got %d", g.Name, minDualRows, c.Hardware.Display.Height)
		}
		if err := c.validateGauge(g, byName); err != nil {
			return fmt.Errorf("gauge %q: %w", g.Name, err)
		}
	}
	return nil
}

func (c *Config) validateSource(s SourceConfig, byName map[string]SourceConfig) error {
	switch s.Type {
	case TypeAnalog:
	case TypePressure:
		if _, ok := pressure.Models[s.Model]; !ok {
			return fmt.Errorf("unknown pressure model %q", s.Model)
		}
		if s.Mode != "" {
			if _, err := source.ParseMode(s.Mode); err != nil {
				return err
			}
		}
		if s.Reference != "" {
			ref, ok := byName[s.Reference]
			if !ok {
				return fmt.Errorf("reference %q: %w", s.Reference, ErrUnknownSource)
			}
			if ref.Type != TypeBarometer {
				return fmt.Errorf("reference %q must be a barometer", s.Reference)
			}
		}
	case TypeSerial:
		if s.Port == "" {
			return errors.New("serial port is required")
		}
	case TypeOBD2:
		if !obd.Supported(obd.Command(s.PID)) {
			return fmt.Errorf("unsupported obd2 pid %q", s.PID)
		}
	case TypeTest:
		if s.Max <= s.Min {
			return fmt.Errorf("test range %d..%d is empty", s.Min, s.Max)
		}
		if s.Step <= 0 {
			return fmt.Errorf("test step must be positive")
		}
	case TypeBattery:
		if s.FullMilliVolt <= s.EmptyMilliVolt {
			return fmt.Errorf("battery range %v..%v mV is empty", s.EmptyMilliVolt, s.FullMilliVolt)
		}
		if s.MilliVoltPerCount <= 0 {
			return errors.New("battery mv_per_count must be positive")
		}
	case TypeBarometer:
	default:
		return fmt.Errorf("unknown source type %q", s.Type)
	}
	if s.Channel < 0 || s.Channel > 3 {
		return fmt.Errorf("channel %d outside 0..3", s.Channel)
	}
	return nil
}

func (c *Config) validateGauge(g GaugeConfig, byName map[string]SourceConfig) error {
	if len(g.Sweeps) == 0 && g.Screen == nil {
		return errors.New("gauge shows nothing: no sweeps and no screen")
	}
	pixels := c.Hardware.Strip.Pixels
	for i, sw := range g.Sweeps {
		if _, ok := byName[sw.Source]; !ok {
			return fmt.Errorf("sweep %d: source %q: %w", i, sw.Source, ErrUnknownSource)
		}
		if sw.Max <= sw.Min {
			return fmt.Errorf("sweep %d: max %d must be greater than min %d", i, sw.Max, sw.Min)
		}
		if len(sw.SweepLeds) == 0 {
			return fmt.Errorf("sweep %d: sweep_leds is empty", i)
		}
		for _, idx := range append(append([]int(nil), sw.SweepLeds...), sw.AlertLeds...) {
			if idx < 0 || idx >= pixels {
				return fmt.Errorf("sweep %d: led %d outside strip of %d", i, idx, pixels)
			}
		}
		if _, err := sweep.ParseCompare(sw.AlertCompare); err != nil {
			return fmt.Errorf("sweep %d: %w", i, err)
		}
		switch sw.Policy {
		case PolicyFull, PolicyInverse, PolicyLevel:
		default:
			return fmt.Errorf("sweep %d: unknown policy %q", i, sw.Policy)
		}
		if sw.Radius < 0 {
			return fmt.Errorf("sweep %d: radius must not be negative", i)
		}
		for name, col := range map[string]RGB{"base": sw.BaseColor, "alert": sw.AlertColor, "blank": sw.BlankColor} {
			if err := col.validate(); err != nil {
				return fmt.Errorf("sweep %d: %s %w", i, name, err)
			}
		}
	}

	if g.Screen == nil {
		return nil
	}
	want := 1
	switch g.Screen.Type {
	case ScreenSingle:
	case ScreenDual:
		want = 2
		if len(g.Screen.Rows) != 0 && len(g.Screen.Rows) != 2 {
			return errors.New("screen: rows must list a top and a bottom row")
		}
	default:
		return fmt.Errorf("screen: unknown type %q", g.Screen.Type)
	}
	if len(g.Screen.Sources) != want {
		return fmt.Errorf("screen: %s screen needs %d sources, got %d", g.Screen.Type, want, len(g.Screen.Sources))
	}
	for _, name := range g.Screen.Sources {
		if _, ok := byName[name]; !ok {
			return fmt.Errorf("screen: source %q: %w", name, ErrUnknownSource)
		}
	}
	return nil
}
