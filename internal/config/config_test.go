package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 20*time.Millisecond, cfg.Tick)
	assert.Len(t, cfg.Gauges, 1)
	assert.Equal(t, 10, cfg.Multiplexer.TransitionTicks)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gauge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tick: 50ms
sources:
  - name: boost
    type: pressure
    channel: 1
    model: MPX4250AP
    mode: psi-rel
gauges:
  - name: boost
    sweeps:
      - source: boost
        min: 175
        max: 410
        alert_level: 400
        sweep_leds: [0, 1, 2, 3]
        alert_leds: [4]
        base_color: [0, 0, 40]
        alert_color: [80, 0, 0]
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 50*time.Millisecond, cfg.Tick)
	require.Len(t, cfg.Sources, 1)
	assert.Equal(t, "boost", cfg.Sources[0].Name)
	require.Len(t, cfg.Gauges, 1)

	sw := cfg.Gauges[0].Sweeps[0]
	assert.Equal(t, RGB{0, 0, 0}, sw.BlankColor, "blank color defaults to off")
	assert.Equal(t, PolicyFull, sw.Policy)
	assert.Equal(t, 24, cfg.Hardware.Strip.Pixels)
	assert.Equal(t, "2/3", cfg.Hardware.ADC.Gain)
}

func TestLoadUnreadableFile(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.Error(t, err)
}

func TestParseRejectsInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("tick: [1, 2"))
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestParseEmptyDocumentUsesDefaultGauge(t *testing.T) {
	cfg, err := Parse([]byte("http:\n  addr: \"\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "bench", cfg.Gauges[0].Name)
	assert.Empty(t, cfg.HTTP.Addr)
}

func TestParseKeepsMeaningfulZeros(t *testing.T) {
	cfg, err := Parse([]byte(`
hardware:
  button:
    pin: 0
multiplexer:
  transition_ticks: 0
`))
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Hardware.Button.Pin)
	assert.Equal(t, 0, cfg.Multiplexer.TransitionTicks)

	cfg, err = Parse([]byte(`
hardware:
  button:
    debounce: 30ms
multiplexer:
  transition_color: [1, 2, 3]
`))
	require.NoError(t, err)
	assert.Equal(t, 17, cfg.Hardware.Button.Pin, "absent pin keeps the default")
	assert.Equal(t, 10, cfg.Multiplexer.TransitionTicks, "absent length keeps the default")
}

func TestYAMLRoundTrip(t *testing.T) {
	data, err := Default().YAML()
	require.NoError(t, err)

	cfg, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestSourceDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
sources:
  - {name: wave, type: test, min: 0, max: 10}
  - {name: afr, type: serial, port: /dev/ttyS0}
gauges:
  - name: wave
    screen: {type: dual, sources: [wave, afr]}
`))
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Sources[0].Step)
	assert.Equal(t, 9600, cfg.Sources[1].Baud)
}

func validGauge() GaugeConfig {
	return GaugeConfig{
		Name: "g",
		Sweeps: []SweepConfig{{
			Source:     "s",
			Min:        0,
			Max:        100,
			SweepLeds:  []int{0, 1},
			AlertLeds:  []int{2},
			BaseColor:  RGB{1, 2, 3},
			AlertColor: RGB{4, 5, 6},
			BlankColor: RGB{0, 0, 0},
			Policy:     PolicyFull,
		}},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"no gauges", func(c *Config) { c.Gauges = nil }, "at least one gauge"},
		{"zero tick", func(c *Config) { c.Tick = 0 }, "tick must be positive"},
		{"bad gain", func(c *Config) { c.Hardware.ADC.Gain = "4" }, "unknown adc gain"},
		{"empty range", func(c *Config) { c.Gauges[0].Sweeps[0].Max = 0 }, "must be greater than min"},
		{"no sweep leds", func(c *Config) { c.Gauges[0].Sweeps[0].SweepLeds = nil }, "sweep_leds is empty"},
		{"led outside strip", func(c *Config) { c.Gauges[0].Sweeps[0].AlertLeds = []int{24} }, "outside strip"},
		{"unknown sweep source", func(c *Config) { c.Gauges[0].Sweeps[0].Source = "nope" }, "unknown source"},
		{"bad compare", func(c *Config) { c.Gauges[0].Sweeps[0].AlertCompare = "<" }, "unknown alert comparison"},
		{"bad policy", func(c *Config) { c.Gauges[0].Sweeps[0].Policy = "random" }, "unknown policy"},
		{"bad color", func(c *Config) { c.Gauges[0].Sweeps[0].BaseColor = RGB{1, 2} }, "3 channels"},
		{"color range", func(c *Config) { c.Gauges[0].Sweeps[0].AlertColor = RGB{1, 2, 256} }, "outside 0..255"},
		{"duplicate gauge", func(c *Config) { c.Gauges = append(c.Gauges, c.Gauges[0]) }, "duplicate name"},
		{"duplicate source", func(c *Config) { c.Sources = append(c.Sources, c.Sources[0]) }, "duplicate name"},
		{"empty gauge", func(c *Config) { c.Gauges[0].Sweeps = nil }, "shows nothing"},
		{"unknown source type", func(c *Config) { c.Sources[0].Type = "laser" }, "unknown source type"},
		{"bad channel", func(c *Config) { c.Sources[0].Channel = 4 }, "outside 0..3"},
		{"unknown model", func(c *Config) {
			c.Sources[0] = SourceConfig{Name: "s", Type: TypePressure, Model: "MPX9999"}
		}, "unknown pressure model"},
		{"bad mode", func(c *Config) {
			c.Sources[0] = SourceConfig{Name: "s", Type: TypePressure, Model: "MPX4250AP", Mode: "bar"}
		}, "bar"},
		{"dangling reference", func(c *Config) {
			c.Sources[0] = SourceConfig{Name: "s", Type: TypePressure, Model: "MPX4250AP", Reference: "baro"}
		}, "unknown source"},
		{"reference not a barometer", func(c *Config) {
			c.Sources[0] = SourceConfig{Name: "s", Type: TypePressure, Model: "MPX4250AP", Reference: "t"}
			c.Sources = append(c.Sources, SourceConfig{Name: "t", Type: TypeTest, Min: 0, Max: 1, Step: 1})
		}, "must be a barometer"},
		{"serial without port", func(c *Config) { c.Sources[0] = SourceConfig{Name: "s", Type: TypeSerial} }, "serial port is required"},
		{"unsupported pid", func(c *Config) { c.Sources[0] = SourceConfig{Name: "s", Type: TypeOBD2, PID: "99"} }, "unsupported obd2 pid"},
		{"battery range", func(c *Config) {
			c.Sources[0] = SourceConfig{Name: "s", Type: TypeBattery, MilliVoltPerCount: 1, EmptyMilliVolt: 4200, FullMilliVolt: 3300}
		}, "battery range"},
		{"screen type", func(c *Config) { c.Gauges[0].Screen = &ScreenConfig{Type: "triple", Sources: []string{"s"}} }, "unknown type"},
		{"dual screen sources", func(c *Config) { c.Gauges[0].Screen = &ScreenConfig{Type: ScreenDual, Sources: []string{"s"}} }, "needs 2 sources"},
		{"dual screen rows", func(c *Config) {
			c.Gauges[0].Screen = &ScreenConfig{Type: ScreenDual, Sources: []string{"s", "s"}, Rows: []int{1}}
		}, "top and a bottom row"},
		{"dual screen on short display", func(c *Config) {
			c.Hardware.Display.Enabled = true
			c.Hardware.Display.Height = 2
			c.Gauges[0].Screen = &ScreenConfig{Type: ScreenDual, Sources: []string{"s", "s"}}
		}, "at least 4 rows"},
		{"screen source", func(c *Config) { c.Gauges[0].Screen = &ScreenConfig{Type: ScreenSingle, Sources: []string{"x"}} }, "unknown source"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Sources = []SourceConfig{{Name: "s", Type: TypeTest, Min: 0, Max: 100, Step: 1}}
			cfg.Gauges = []GaugeConfig{validGauge()}
			require.NoError(t, cfg.Validate())

			tt.modify(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}

func TestValidateAcceptsSupportedSources(t *testing.T) {
	cfg := Default()
	cfg.Sources = []SourceConfig{
		{Name: "baro", Type: TypeBarometer},
		{Name: "boost", Type: TypePressure, Model: "MPX4250AP", Mode: "kpa-rel", Reference: "baro"},
		{Name: "rpm", Type: TypeOBD2, PID: "0c"},
		{Name: "afr", Type: TypeSerial, Port: "/dev/ttyS0"},
		{Name: "batt", Type: TypeBattery, Channel: 3, MilliVoltPerCount: 4.9, EmptyMilliVolt: 3300, FullMilliVolt: 4200},
		{Name: "raw", Type: TypeAnalog, Channel: 2},
	}
	cfg.Gauges = []GaugeConfig{{Name: "all", Screen: &ScreenConfig{Type: ScreenDual, Sources: []string{"boost", "rpm"}}}}
	assert.NoError(t, cfg.Validate())
}

func TestVResolutionInv(t *testing.T) {
	assert.Equal(t, float32(204), ADCConfig{VRef: 5}.VResolutionInv())
	assert.Equal(t, float32(310), ADCConfig{VRef: 3.3}.VResolutionInv())
	assert.Equal(t, float32(409), ADCConfig{VRef: 2.5}.VResolutionInv())
}

func TestRGBColor(t *testing.T) {
	c := RGB{1, 2, 3}.Color()
	assert.Equal(t, uint8(1), c.R)
	assert.Equal(t, uint8(2), c.G)
	assert.Equal(t, uint8(3), c.B)
	assert.Zero(t, RGB{1}.Color())
}
