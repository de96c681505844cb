package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/sweeney/gauge-fw/internal/config"
	"github.com/sweeney/gauge-fw/internal/gauge"
	"github.com/sweeney/gauge-fw/internal/mqtt"
	"github.com/sweeney/gauge-fw/internal/report"
	"github.com/sweeney/gauge-fw/internal/status"
)

// pipeline is the built gauge pipeline plus the counters the tick loop
// reports.
type pipeline struct {
	*config.Built
	switches int
}

// assemble builds the gauges from cfg on dev and adds a reporter to each
// gauge. tracker and publisher may be nil.
func assemble(cfg *config.Config, dev config.Devices, tracker *status.Tracker, publisher mqtt.Publisher, logger *zap.SugaredLogger) (*pipeline, error) {
	p := &pipeline{}
	built, err := config.Build(cfg, dev, logger, gauge.WithSwitchHandler(func(i int) {
		p.switches++
		logger.Debugw("gauge selected", "index", i)
	}))
	if err != nil {
		return nil, err
	}
	p.Built = built

	names := make([]string, 0, len(built.Gauges))
	for _, g := range built.Gauges {
		names = append(names, g.Name())

		var sources []report.Named
		for _, name := range built.GaugeSources[g.Name()] {
			sources = append(sources, report.Named{Name: name, Source: built.Sources[name]})
		}
		opts := []report.Option{
			report.WithEvery(cfg.MQTT.ReportEvery),
			report.WithLogger(logger),
		}
		if tracker != nil {
			opts = append(opts, report.WithTracker(tracker))
		}
		if publisher != nil {
			opts = append(opts, report.WithPublisher(publisher))
		}
		if err := g.Add(report.New(g.Name(), sources, opts...)); err != nil {
			return nil, fmt.Errorf("gauge %q: reporter: %w", g.Name(), err)
		}
	}
	if tracker != nil {
		tracker.SetGauges(names)
	}
	return p, nil
}
