package gpio

import (
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/gauge-fw/internal/logic"
)

// DefaultDebounce is the debounce interval of the push button.
const DefaultDebounce = 25 * time.Millisecond

// Button is a debounced active-low push button on a GPIO line.
type Button struct {
	line      Line
	debouncer *logic.Debouncer
	now       func() time.Time
	logger    *zap.SugaredLogger
}

// ButtonOption configures a Button.
type ButtonOption func(*Button)

// WithClock sets the time source used to debounce samples.
func WithClock(now func() time.Time) ButtonOption {
	return func(b *Button) { b.now = now }
}

// WithDebounce sets the debounce interval.
func WithDebounce(d time.Duration) ButtonOption {
	return func(b *Button) { b.debouncer = logic.NewDebouncer(d) }
}

// WithLogger sets the logger for read errors.
func WithLogger(l *zap.SugaredLogger) ButtonOption {
	return func(b *Button) { b.logger = l }
}

// NewButton creates a button reading line.
func NewButton(line Line, opts ...ButtonOption) *Button {
	b := &Button{
		line:      line,
		debouncer: logic.NewDebouncer(DefaultDebounce),
		now:       time.Now,
		logger:    zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Poll samples the line once. A failed read counts as no edge.
func (b *Button) Poll() {
	high, err := b.line.Value()
	if err != nil {
		b.logger.Debugw("button read failed", "error", err)
		b.debouncer.Skip()
		return
	}
	b.debouncer.Update(logic.Sample{High: high, Time: b.now()})
}

// Fell reports whether the last Poll registered a press.
func (b *Button) Fell() bool {
	return b.debouncer.Fell()
}

// Presses returns the number of presses since creation.
func (b *Button) Presses() int {
	return b.debouncer.Presses()
}

// Close releases the line.
func (b *Button) Close() error {
	return b.line.Close()
}
