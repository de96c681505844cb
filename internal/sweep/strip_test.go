package sweep

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/gauge-fw/internal/gauge"
)

func TestStripInitBlanks(t *testing.T) {
	dev := gauge.NewFakeStrip(4)
	for i := range dev.Pixels {
		dev.Pixels[i] = base
	}
	s := NewStrip(dev, nil)

	require.NoError(t, s.Init())
	assert.Equal(t, []gauge.Color{blank, blank, blank, blank}, dev.Pixels)
	assert.Equal(t, 1, dev.Flushes)
}

func TestStripInitFlushError(t *testing.T) {
	dev := gauge.NewFakeStrip(2)
	dev.FlushError = errors.New("bus gone")
	s := NewStrip(dev, nil)

	err := s.Init()
	require.Error(t, err)
	assert.ErrorIs(t, err, dev.FlushError)
}

func TestStripTickPaintsInOrderThenFlushes(t *testing.T) {
	dev := gauge.NewFakeStrip(3)
	s := NewStrip(dev, nil)

	first := New(&gauge.FakeSource{Value: 100}, Config{
		Min: 0, Max: 100, AlertLevel: 1000,
		SweepLeds: []int{0, 1, 2}, Base: base, Blank: blank,
	})
	second := New(&gauge.FakeSource{Value: 100}, Config{
		Min: 0, Max: 100, AlertLevel: 1000,
		SweepLeds: []int{2}, Base: alert, Blank: blank,
	})
	s.AddSweep(first)
	s.AddSweep(second)
	assert.Len(t, s.Sweeps(), 2)

	s.Tick()

	assert.Equal(t, []gauge.Color{base, base, alert}, dev.Pixels)
	assert.Equal(t, 1, dev.Flushes)
}

func TestStripTickSurvivesFlushError(t *testing.T) {
	dev := gauge.NewFakeStrip(1)
	dev.FlushError = errors.New("nope")
	s := NewStrip(dev, nil)
	s.AddSweep(New(&gauge.FakeSource{}, Config{Min: 0, Max: 1, SweepLeds: []int{0}}))

	assert.NotPanics(t, s.Tick)
}
