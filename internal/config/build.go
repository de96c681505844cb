package config

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/sweeney/gauge-fw/internal/display"
	"github.com/sweeney/gauge-fw/internal/gauge"
	"github.com/sweeney/gauge-fw/internal/hw"
	"github.com/sweeney/gauge-fw/internal/obd"
	"github.com/sweeney/gauge-fw/internal/pressure"
	"github.com/sweeney/gauge-fw/internal/source"
	"github.com/sweeney/gauge-fw/internal/sweep"
)

func (a ADCConfig) gain() (hw.Gain, error) {
	switch a.Gain {
	case "2/3":
		return hw.GainTwoThirds, nil
	case "1":
		return hw.GainOne, nil
	case "2":
		return hw.GainTwo, nil
	default:
		return 0, fmt.Errorf("unknown adc gain %q", a.Gain)
	}
}

// ADCGain returns the configured converter gain.
func (c *Config) ADCGain() (hw.Gain, error) {
	return c.Hardware.ADC.gain()
}

// Devices are the peripherals the pipeline is built on. Fields a
// configuration does not use may be nil.
type Devices struct {
	Strip  gauge.PixelDevice
	Button gauge.DebouncedInput

	Text         gauge.TextDevice
	TextHeightPx int

	// TextRows is set for character displays that cannot magnify text; dual
	// screens then lay out by text row instead of by pixel height.
	TextRows int

	Analog    source.AnalogReader
	Barometer source.PressureReader
	OBD       source.Driver[obd.Measurement]

	// OpenLines opens a serial line sensor port.
	OpenLines func(port string, baud int) (source.LineSource, error)
}

// Built is the assembled pipeline.
type Built struct {
	Multiplexer *gauge.Multiplexer
	Gauges      []*gauge.Composite
	// Sources by name, in configuration order.
	Sources     map[string]source.Source
	SourceOrder []string
	// GaugeSources lists the source names each gauge ticks.
	GaugeSources map[string][]string
}

// sharedSource lets several gauges tick one source while initialising it
// once.
type sharedSource struct {
	source.Source
	initDone bool
	initErr  error
}

func (s *sharedSource) Init() error {
	if !s.initDone {
		s.initDone = true
		s.initErr = s.Source.Init()
	}
	return s.initErr
}

// Build creates sources, gauges and the multiplexer. Gauge components are
// initialised as they are added; the first initialisation error aborts the
// build.
func Build(cfg *Config, dev Devices, logger *zap.SugaredLogger, opts ...gauge.MultiplexerOption) (*Built, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if dev.Strip == nil || dev.Button == nil {
		return nil, fmt.Errorf("build: strip and button devices are required")
	}

	b := &Built{
		Sources:      map[string]source.Source{},
		GaugeSources: map[string][]string{},
	}
	byName := map[string]SourceConfig{}
	for _, sc := range cfg.Sources {
		byName[sc.Name] = sc
	}

	// Barometers first so pressure sensors can reference them.
	for _, pass := range []bool{true, false} {
		for _, sc := range cfg.Sources {
			if (sc.Type == TypeBarometer) != pass {
				continue
			}
			src, err := b.newSource(cfg, sc, dev)
			if err != nil {
				return nil, fmt.Errorf("source %q: %w", sc.Name, err)
			}
			b.Sources[sc.Name] = &sharedSource{Source: src}
		}
	}
	for _, sc := range cfg.Sources {
		b.SourceOrder = append(b.SourceOrder, sc.Name)
	}

	opts = append([]gauge.MultiplexerOption{
		gauge.WithTransitionTicks(cfg.Multiplexer.TransitionTicks),
		gauge.WithLogger(logger),
	}, opts...)
	b.Multiplexer = gauge.NewMultiplexer(dev.Button, dev.Strip, cfg.Multiplexer.TransitionColor.Color(), opts...)

	for _, gc := range cfg.Gauges {
		g, names, err := b.newGauge(gc, byName, dev, logger)
		if err != nil {
			return nil, fmt.Errorf("gauge %q: %w", gc.Name, err)
		}
		b.GaugeSources[gc.Name] = names
		b.Gauges = append(b.Gauges, g)
		if err := b.Multiplexer.AddGauge(g); err != nil {
			return nil, fmt.Errorf("gauge %q: %w", gc.Name, err)
		}
	}
	return b, nil
}

func (b *Built) newSource(cfg *Config, sc SourceConfig, dev Devices) (source.Source, error) {
	switch sc.Type {
	case TypeAnalog, TypePressure, TypeBattery:
		if dev.Analog == nil {
			return nil, fmt.Errorf("%s source needs an analog converter", sc.Type)
		}
	}

	switch sc.Type {
	case TypeAnalog:
		return source.NewAnalog(dev.Analog, sc.Channel), nil

	case TypePressure:
		model := pressure.Models[sc.Model]
		cal := model.Calibration(sc.ADCOffset, cfg.Hardware.ADC.VResolutionInv())
		if sc.Error != nil {
			cal.Error = *sc.Error
		}
		mode := source.DefaultMode(model)
		if sc.Mode != "" {
			m, err := source.ParseMode(sc.Mode)
			if err != nil {
				return nil, err
			}
			mode = m
		}
		opts := []source.PressureOption{source.WithMode(mode)}
		if sc.Reference != "" {
			ref, ok := b.Sources[sc.Reference]
			if !ok {
				return nil, fmt.Errorf("reference %q: %w", sc.Reference, ErrUnknownSource)
			}
			baro, ok := ref.(*sharedSource).Source.(*source.BarometerSource)
			if !ok {
				return nil, fmt.Errorf("reference %q is not a barometer", sc.Reference)
			}
			opts = append(opts, source.WithReference(baro))
		}
		return source.NewPressure(dev.Analog, sc.Channel, cal, opts...), nil

	case TypeSerial:
		if dev.OpenLines == nil {
			return nil, fmt.Errorf("serial source needs a serial port opener")
		}
		lines, err := dev.OpenLines(sc.Port, sc.Baud)
		if err != nil {
			return nil, err
		}
		return source.NewSerial(lines, sc.Unit), nil

	case TypeOBD2:
		if dev.OBD == nil {
			return nil, fmt.Errorf("obd2 source needs an obd adapter")
		}
		return source.NewOBD2(dev.OBD, obd.Command(sc.PID)), nil

	case TypeTest:
		return source.NewTest(sc.Min, sc.Max, sc.Step), nil

	case TypeBattery:
		return source.NewBattery(dev.Analog, sc.Channel, source.BatteryConfig{
			MilliVoltPerCount: sc.MilliVoltPerCount,
			EmptyMilliVolt:    sc.EmptyMilliVolt,
			FullMilliVolt:     sc.FullMilliVolt,
		}), nil

	case TypeBarometer:
		if dev.Barometer == nil {
			return nil, fmt.Errorf("barometer source needs a barometer")
		}
		return source.NewBarometer(dev.Barometer, source.WithReadyTimeout(cfg.Hardware.Barometer.ReadyTimeout)), nil

	default:
		return nil, fmt.Errorf("unknown source type %q", sc.Type)
	}
}

// gaugeSourceNames lists the sources a gauge must tick, each once, with
// barometer references ahead of the sensors that use them.
func gaugeSourceNames(gc GaugeConfig, byName map[string]SourceConfig) []string {
	var names []string
	seen := map[string]bool{}
	add := func(name string) {
		if seen[name] {
			return
		}
		if ref := byName[name].Reference; ref != "" && !seen[ref] {
			seen[ref] = true
			names = append(names, ref)
		}
		seen[name] = true
		names = append(names, name)
	}
	for _, sw := range gc.Sweeps {
		add(sw.Source)
	}
	if gc.Screen != nil {
		for _, name := range gc.Screen.Sources {
			add(name)
		}
	}
	return names
}

func (b *Built) newGauge(gc GaugeConfig, byName map[string]SourceConfig, dev Devices, logger *zap.SugaredLogger) (*gauge.Composite, []string, error) {
	g := gauge.NewComposite(gc.Name)
	names := gaugeSourceNames(gc, byName)
	for _, name := range names {
		if err := g.Add(b.Sources[name]); err != nil {
			return nil, nil, err
		}
	}

	if len(gc.Sweeps) > 0 {
		strip := sweep.NewStrip(dev.Strip, logger)
		for _, sc := range gc.Sweeps {
			painter, err := newSweep(sc, b.Sources[sc.Source])
			if err != nil {
				return nil, nil, err
			}
			strip.AddSweep(painter)
		}
		if err := g.Add(strip); err != nil {
			return nil, nil, err
		}
	}

	if gc.Screen != nil {
		if dev.Text == nil {
			logger.Warnw("gauge has a screen but no display is attached", "gauge", gc.Name)
			return g, names, nil
		}
		var screen gauge.Tickable
		sc := gc.Screen
		switch sc.Type {
		case ScreenDual:
			var opts []display.DualOption
			if dev.TextRows > 0 {
				opts = append(opts, display.CharacterLayout(dev.TextRows))
			}
			if len(sc.Rows) == 2 {
				opts = append(opts, display.WithRows(sc.Rows[0], sc.Rows[1]))
			}
			screen = display.NewDual(dev.Text, b.Sources[sc.Sources[0]], b.Sources[sc.Sources[1]], sc.Col, dev.TextHeightPx, opts...)
		default:
			screen = display.NewSingle(dev.Text, b.Sources[sc.Sources[0]], sc.Col, sc.ValueRow, sc.UnitRow)
		}
		if err := g.Add(screen); err != nil {
			return nil, nil, err
		}
	}
	return g, names, nil
}

func newSweep(sc SweepConfig, src gauge.Source) (sweep.Painter, error) {
	cmp, err := sweep.ParseCompare(sc.AlertCompare)
	if err != nil {
		return nil, err
	}
	var policy sweep.Policy
	switch sc.Policy {
	case PolicyInverse:
		policy = sweep.InverseSweep{}
	case PolicyLevel:
		policy = sweep.LevelOnly{Radius: sc.Radius}
	default:
		policy = sweep.FullSweep{}
	}
	cfg := sweep.Config{
		Min:        sc.Min,
		Max:        sc.Max,
		AlertLevel: sc.AlertLevel,
		Compare:    cmp,
		SweepLeds:  sc.SweepLeds,
		AlertLeds:  sc.AlertLeds,
		Base:       sc.BaseColor.Color(),
		Alert:      sc.AlertColor.Color(),
		Blank:      sc.BlankColor.Color(),
		Policy:     policy,
	}
	if sc.Overlapped {
		return sweep.NewOverlapped(src, cfg), nil
	}
	return sweep.New(src, cfg), nil
}
