// Command gauge-fw drives a multi-gauge automotive display: an LED ring sweep
// and a character display per gauge, switched with a single button.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sweeney/gauge-fw/internal/config"
)

var (
	flagConfig string
	flagTick   time.Duration
	flagDebug  bool
	flagHTTP   string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gauge-fw",
		Short: "Multi-gauge display firmware for a Raspberry Pi",
		Long: `gauge-fw reads engine sensors (analog pressure senders, a barometer,
serial wideband controllers and an OBD-II adapter) and shows them on an LED
ring and a character display. A single button cycles through the gauges.

Use "gauge-fw sim" to run the configured gauges in the terminal with
simulated sensors.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "/etc/gauge-fw/gauge.yaml", "Configuration file (defaults are used when missing)")
	rootCmd.PersistentFlags().DurationVar(&flagTick, "tick", 0, "Tick period (overrides the configuration)")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagHTTP, "http", "", `HTTP status address (overrides the configuration, "off" disables)`)

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Run the gauges on the attached hardware",
			RunE:  runHardware,
		},
		&cobra.Command{
			Use:   "sim",
			Short: "Run the gauges in the terminal with simulated sensors",
			RunE:  runSim,
		},
		&cobra.Command{
			Use:   "config",
			Short: "Print the effective configuration",
			RunE:  printConfig,
		},
	)
	return rootCmd
}

// loadConfig loads the configuration file and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagTick > 0 {
		cfg.Tick = flagTick
	}
	switch flagHTTP {
	case "":
	case "off":
		cfg.HTTP.Addr = ""
	default:
		cfg.HTTP.Addr = flagHTTP
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newLogger(debug bool) (*zap.SugaredLogger, error) {
	var (
		l   *zap.Logger
		err error
	)
	if debug {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return l.Sugar(), nil
}

func printConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	data, err := cfg.YAML()
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
