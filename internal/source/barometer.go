package source

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/chewxy/math32"
)

// PressureReader is a barometric pressure sensor such as the BMP280.
type PressureReader interface {
	// Ready reports whether the device answers and has a measurement.
	Ready() bool
	// PressureKPa returns the absolute pressure.
	PressureKPa() (float32, error)
}

// DefaultReadyDelay is the pause between readiness polls.
const DefaultReadyDelay = 100 * time.Millisecond

// BarometerSource reports ambient pressure, raw in tenths of kPa. It can be
// the Reference of a PressureSensor.
type BarometerSource struct {
	reader  PressureReader
	ctx     context.Context
	delay   time.Duration
	timeout time.Duration

	kpa   float32
	valid bool
}

// BarometerOption configures a BarometerSource.
type BarometerOption func(*BarometerSource)

// WithReadyContext bounds the readiness wait in Init. Without it Init waits
// until the device is ready.
func WithReadyContext(ctx context.Context) BarometerOption {
	return func(b *BarometerSource) { b.ctx = ctx }
}

// WithReadyTimeout bounds the readiness wait in Init to d. Zero waits
// until the device is ready.
func WithReadyTimeout(d time.Duration) BarometerOption {
	return func(b *BarometerSource) { b.timeout = d }
}

// WithReadyDelay sets the pause between readiness polls.
func WithReadyDelay(d time.Duration) BarometerOption {
	return func(b *BarometerSource) { b.delay = d }
}

// NewBarometer creates a barometer source.
func NewBarometer(reader PressureReader, opts ...BarometerOption) *BarometerSource {
	b := &BarometerSource{
		reader: reader,
		ctx:    context.Background(),
		delay:  DefaultReadyDelay,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Init blocks until the device reports ready, then takes a first reading.
func (b *BarometerSource) Init() error {
	ctx := b.ctx
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	err := retry.Do(
		func() error {
			if !b.reader.Ready() {
				return ErrNotReady
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(0),
		retry.Delay(b.delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return fmt.Errorf("wait for barometer: %w", err)
	}
	b.Read()
	return nil
}

func (b *BarometerSource) Tick() { b.Read() }

// Read samples the sensor. On error the previous value is kept.
func (b *BarometerSource) Read() {
	kpa, err := b.reader.PressureKPa()
	if err != nil {
		return
	}
	b.kpa = kpa
	b.valid = true
}

// ReferenceKPa returns the last pressure once one has been read.
func (b *BarometerSource) ReferenceKPa() (float32, bool) {
	return b.kpa, b.valid
}

func (b *BarometerSource) Raw() int { return int(math32.Round(b.kpa * 10)) }

func (b *BarometerSource) Format() string { return formatValue(b.kpa) }

func (b *BarometerSource) Unit() string { return "kPa" }
