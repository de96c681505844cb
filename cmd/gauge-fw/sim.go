package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sweeney/gauge-fw/internal/config"
	"github.com/sweeney/gauge-fw/internal/sim"
	"github.com/sweeney/gauge-fw/internal/source"
)

// simDevices returns simulated peripherals for cfg.
func simDevices(cfg *config.Config) (config.Devices, *sim.Strip, *sim.Text, *sim.Button) {
	strip := sim.NewStrip(cfg.Hardware.Strip.Pixels)
	text := sim.NewText(cfg.Hardware.Display.Width, cfg.Hardware.Display.Height)
	button := &sim.Button{}

	dev := config.Devices{
		Strip:        strip,
		Button:       button,
		Text:         text,
		TextHeightPx: text.HeightPx(),
		Analog:       sim.NewAnalog(),
		Barometer:    sim.Barometer{},
		OBD:          sim.NewOBD(),
		OpenLines: func(port string, baud int) (source.LineSource, error) {
			return sim.NewLines(), nil
		},
	}
	return dev, strip, text, button
}

func runSim(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// The terminal belongs to the UI: only log when debugging, to stderr.
	logger := zap.NewNop().Sugar()
	if flagDebug {
		if logger, err = newLogger(true); err != nil {
			return err
		}
		defer logger.Sync()
	}

	dev, strip, text, button := simDevices(cfg)
	p, err := assemble(cfg, dev, nil, nil, logger)
	if err != nil {
		return err
	}

	prog := tea.NewProgram(
		sim.New(p.Multiplexer, strip, text, button, cfg.Tick),
		tea.WithAltScreen(),
	)
	_, err = prog.Run()
	return err
}
