// Package report publishes the readings of the active gauge.
package report

import (
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/gauge-fw/internal/gauge"
	"github.com/sweeney/gauge-fw/internal/mqtt"
	"github.com/sweeney/gauge-fw/internal/status"
)

// DefaultEvery is the number of ticks between reports.
const DefaultEvery = 50

// Named is a source with the name it was configured under.
type Named struct {
	Name   string
	Source gauge.Source
}

// Reporter is a gauge component that, every N ticks of its gauge, records
// the readings of the gauge's sources in the status tracker and publishes
// them. It only runs while its gauge is active.
type Reporter struct {
	gauge   string
	sources []Named
	every   int
	count   int

	tracker   *status.Tracker
	publisher mqtt.Publisher
	now       func() time.Time
	logger    *zap.SugaredLogger
}

// Option configures a Reporter.
type Option func(*Reporter)

// WithEvery sets the number of ticks between reports. Values below 1 report
// on every tick.
func WithEvery(n int) Option {
	return func(r *Reporter) { r.every = max(n, 1) }
}

// WithTracker records readings in t.
func WithTracker(t *status.Tracker) Option {
	return func(r *Reporter) { r.tracker = t }
}

// WithPublisher publishes readings through p.
func WithPublisher(p mqtt.Publisher) Option {
	return func(r *Reporter) { r.publisher = p }
}

// WithClock sets the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Reporter) { r.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(r *Reporter) { r.logger = l }
}

// New creates a reporter for the named gauge.
func New(gaugeName string, sources []Named, opts ...Option) *Reporter {
	r := &Reporter{
		gauge:   gaugeName,
		sources: sources,
		every:   DefaultEvery,
		now:     time.Now,
		logger:  zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Init makes the first report happen on the first tick.
func (r *Reporter) Init() error {
	r.count = r.every - 1
	return nil
}

// Tick reports every N ticks.
func (r *Reporter) Tick() {
	r.count++
	if r.count < r.every {
		return
	}
	r.count = 0
	r.Report()
}

// Report records and publishes the current readings immediately.
func (r *Reporter) Report() {
	readings := make([]mqtt.Reading, 0, len(r.sources))
	tracked := make([]status.Reading, 0, len(r.sources))
	for _, n := range r.sources {
		raw, value, unit := n.Source.Raw(), n.Source.Format(), n.Source.Unit()
		readings = append(readings, mqtt.Reading{Source: n.Name, Raw: raw, Value: value, Unit: unit})
		tracked = append(tracked, status.Reading{Source: n.Name, Raw: raw, Value: value, Unit: unit})
	}

	if r.tracker != nil {
		r.tracker.SetReadings(r.gauge, tracked)
	}
	if r.publisher != nil {
		err := r.publisher.PublishReadings(mqtt.Readings{Timestamp: r.now(), Gauge: r.gauge, Readings: readings})
		if err != nil {
			r.logger.Debugw("readings publish failed", "gauge", r.gauge, "error", err)
		}
	}
}
