package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sweeney/gauge-fw/internal/config"
	"github.com/sweeney/gauge-fw/internal/gpio"
	"github.com/sweeney/gauge-fw/internal/hw"
	"github.com/sweeney/gauge-fw/internal/logic"
	"github.com/sweeney/gauge-fw/internal/mqtt"
	"github.com/sweeney/gauge-fw/internal/obd"
	"github.com/sweeney/gauge-fw/internal/source"
	"github.com/sweeney/gauge-fw/internal/status"
	"github.com/sweeney/gauge-fw/internal/web"
)

const clientID = "gauge-fw"

func runHardware(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(flagDebug)
	if err != nil {
		return err
	}
	defer logger.Sync()

	return run(cmd.Context(), cfg, logger)
}

func run(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) error {
	// Initialize MQTT first: the LED ring is driven through it.
	publisher := mqtt.NewRealPublisher(cfg.MQTT.Broker, clientID, logger)
	defer publisher.Close()

	devs, err := openDevices(cfg, logger)
	defer devs.Close()
	if err != nil {
		return err
	}
	devs.Strip = mqtt.NewStripDevice(publisher, cfg.Hardware.Strip.Topic, cfg.Hardware.Strip.Pixels)

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		TickMs:      cfg.Tick.Milliseconds(),
		HeartbeatMs: cfg.MQTT.Heartbeat.Milliseconds(),
		ReportEvery: cfg.MQTT.ReportEvery,
		Broker:      cfg.MQTT.Broker,
		HTTPAddr:    cfg.HTTP.Addr,
		ConfigFile:  flagConfig,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	p, err := assemble(cfg, devs.Devices, tracker, publisher, logger)
	if err != nil {
		return fmt.Errorf("build gauges: %w", err)
	}

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		logger.Warnw("failed to publish startup event", "error", err)
	} else {
		logger.Infow("published startup event")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	errg, ctx := errgroup.WithContext(ctx)

	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker, web.WithLogger(logger))
		errg.Go(func() error {
			logger.Infow("http status server listening", "addr", cfg.HTTP.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		errg.Go(func() error {
			<-ctx.Done()
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			return srv.Shutdown(shutdownCtx)
		})
	}

	logger.Infow("started",
		"tick", cfg.Tick,
		"gauges", p.Multiplexer.Len(),
		"broker", cfg.MQTT.Broker,
		"heartbeat", cfg.MQTT.Heartbeat,
	)

	errg.Go(func() error {
		defer cancel()

		ticker := time.NewTicker(cfg.Tick)
		defer ticker.Stop()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		return runLoop(ctx, p, publisher, publisher, tracker, cfg.MQTT.Heartbeat, time.Now, ticker.C, sigCh, logger)
	})

	return errg.Wait()
}

// devices are the opened peripherals and what must be closed on exit.
type devices struct {
	config.Devices
	closers []io.Closer
	logger  *zap.SugaredLogger
}

// Close closes every opened device in reverse order.
func (d *devices) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i].Close(); err != nil {
			d.logger.Warnw("close device", "error", err)
		}
	}
	d.closers = nil
}

// openDevices opens the peripherals cfg enables. The result must be closed
// even when an error is returned.
func openDevices(cfg *config.Config, logger *zap.SugaredLogger) (*devices, error) {
	d := &devices{logger: logger}

	line, err := gpio.NewRealLine(cfg.Hardware.Button.Chip, cfg.Hardware.Button.Pin)
	if err != nil {
		return d, fmt.Errorf("init button: %w", err)
	}
	button := gpio.NewButton(line,
		gpio.WithDebounce(cfg.Hardware.Button.Debounce),
		gpio.WithLogger(logger),
	)
	d.closers = append(d.closers, button)
	d.Button = button

	hwc := cfg.Hardware
	if hwc.ADC.Enabled || hwc.Display.Enabled || hwc.Barometer.Enabled {
		bus, err := hw.OpenBus()
		if err != nil {
			return d, fmt.Errorf("open i2c bus: %w", err)
		}
		d.closers = append(d.closers, bus)

		if hwc.ADC.Enabled {
			gain, err := cfg.ADCGain()
			if err != nil {
				return d, err
			}
			adc, err := hw.NewADS1115(bus.Raw(), byte(hwc.ADC.Address), gain, hwc.ADC.VResolutionInv())
			if err != nil {
				return d, fmt.Errorf("init adc: %w", err)
			}
			d.Analog = adc
		}
		if hwc.Display.Enabled {
			lcd, err := hw.NewLCD(bus, uint8(hwc.Display.Address), hwc.Display.Width, hwc.Display.Height)
			if err != nil {
				return d, err
			}
			d.Text = lcd
			d.TextHeightPx = lcd.HeightPx()
			d.TextRows = lcd.Rows()
		}
		if hwc.Barometer.Enabled {
			d.Barometer = hw.NewBMP280(bus)
		}
	}

	if hwc.OBD.Enabled {
		elm, err := obd.Open(hwc.OBD.Port, hwc.OBD.Baud, obd.WithLogger(logger))
		if err != nil {
			return d, fmt.Errorf("open obd adapter: %w", err)
		}
		d.closers = append(d.closers, elm)
		d.OBD = elm
	}

	d.OpenLines = func(port string, baud int) (source.LineSource, error) {
		lines, err := hw.OpenSerialLines(port, baud, logger)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, lines)
		return lines, nil
	}
	return d, nil
}

// runLoop ticks the multiplexer until a signal arrives or ctx is done. The
// gauges only ever run on this goroutine; other goroutines see their state
// through tracker.
func runLoop(ctx context.Context, p *pipeline, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal, logger *zap.SugaredLogger) error {
	hb := logic.NewHeartbeat(heartbeat, now())
	mux := p.Multiplexer
	ticks := 0

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case s := <-sig:
			logger.Infow("shutting down", "signal", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				snap := tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				logger.Warnw("failed to publish shutdown event", "error", err)
			} else {
				logger.Infow("published shutdown event")
			}
			return nil

		case <-tick:
			mux.Tick()
			ticks++

			// Update status tracker for HTTP consumers
			if tracker != nil {
				tracker.Update(mux.Active(), mux.Transitioning(), ticks, p.switches)
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
			}

			hbData := hb.Check(now(), ticks, p.switches)
			if hbData == nil {
				continue
			}
			logger.Infow("heartbeat",
				"uptime", hbData.Uptime,
				"ticks", hbData.Ticks,
				"switches", hbData.Switches,
				"gauge", mux.ActiveName(),
			)
			hbEvent := mqtt.SystemEvent{
				Timestamp: hbData.Timestamp,
				Event:     "HEARTBEAT",
			}
			if tracker != nil {
				// Refresh network info for heartbeat
				if net := readNetworkInfo(); net != nil {
					tracker.SetNetwork(net)
				}
				snap := tracker.Snapshot()
				hbEvent.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
			}
			if err := publisher.PublishSystem(hbEvent); err != nil {
				logger.Warnw("heartbeat publish error", "error", err)
			}
		}
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
