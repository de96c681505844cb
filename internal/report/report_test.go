package report

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/gauge-fw/internal/gauge"
	"github.com/sweeney/gauge-fw/internal/mqtt"
	"github.com/sweeney/gauge-fw/internal/status"
)

var fixed = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newReporter(t *testing.T, every int) (*Reporter, *gauge.FakeSource, *mqtt.FakePublisher, *status.Tracker) {
	t.Helper()
	src := &gauge.FakeSource{Value: 512, Text: "  6.7", UnitText: "psi"}
	pub := mqtt.NewFakePublisher()
	tr := status.NewTracker(fixed, status.Config{})
	r := New("boost", []Named{{Name: "boost", Source: src}},
		WithEvery(every), WithPublisher(pub), WithTracker(tr), WithClock(func() time.Time { return fixed }))
	require.NoError(t, r.Init())
	return r, src, pub, tr
}

func TestReporterFirstTickReports(t *testing.T) {
	r, _, pub, tr := newReporter(t, 3)

	r.Tick()

	require.Len(t, pub.Readings, 1)
	got := pub.Readings[0]
	assert.Equal(t, "boost", got.Gauge)
	assert.Equal(t, fixed, got.Timestamp)
	assert.Equal(t, []mqtt.Reading{{Source: "boost", Raw: 512, Value: "  6.7", Unit: "psi"}}, got.Readings)

	assert.Equal(t, []status.Reading{{Source: "boost", Raw: 512, Value: "  6.7", Unit: "psi"}}, tr.Snapshot().Readings["boost"])
}

func TestReporterEveryNTicks(t *testing.T) {
	r, src, pub, _ := newReporter(t, 3)

	for i := 0; i < 7; i++ {
		src.Value = i
		r.Tick()
	}

	// Ticks 1, 4 and 7.
	require.Len(t, pub.Readings, 3)
	assert.Equal(t, 0, pub.Readings[0].Readings[0].Raw)
	assert.Equal(t, 3, pub.Readings[1].Readings[0].Raw)
	assert.Equal(t, 6, pub.Readings[2].Readings[0].Raw)
}

func TestReporterInitRestartsCount(t *testing.T) {
	r, _, pub, _ := newReporter(t, 5)
	r.Tick()
	r.Tick()

	require.NoError(t, r.Init())
	r.Tick()
	assert.Len(t, pub.Readings, 2)
}

func TestReporterPublishErrorIgnored(t *testing.T) {
	r, _, pub, tr := newReporter(t, 1)
	pub.PublishError = errors.New("offline")

	r.Tick()

	assert.Empty(t, pub.Readings)
	assert.Len(t, tr.Snapshot().Readings["boost"], 1, "tracker still updated")
}

func TestReporterWithoutSinks(t *testing.T) {
	r := New("bare", nil, WithEvery(0))
	require.NoError(t, r.Init())
	assert.NotPanics(t, r.Tick)
}

func TestReporterAsGaugeComponent(t *testing.T) {
	r, _, pub, _ := newReporter(t, 2)
	g := gauge.NewComposite("boost")
	require.NoError(t, g.Add(r))

	g.Tick()
	g.Tick()
	g.Tick()
	assert.Len(t, pub.Readings, 2)
}
