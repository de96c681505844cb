package gauge

import (
	"fmt"

	"go.uber.org/zap"
)

// DefaultTransitionTicks is the number of ticks the transition frame is shown
// after switching gauges.
const DefaultTransitionTicks = 10

// Multiplexer cycles between gauges that share one LED strip.
//
// State machine:
//
//	STEADY(i)            -> button fell          -> TRANSITIONING(i+1 mod n, 0)
//	TRANSITIONING(i, k)  -> k < max              -> draw frame, TRANSITIONING(i, k+1)
//	TRANSITIONING(i, k)  -> k >= max             -> STEADY(i), tick gauge i
//
// During a transition the multiplexer owns the strip; otherwise the active
// gauge's own components do. Never both in the same tick.
type Multiplexer struct {
	button          DebouncedInput
	strip           PixelDevice
	transitionColor Color
	maxTransition   int

	gauges   []Tickable
	names    []string
	active   int
	elapsed  int
	onSwitch func(index int)

	logger *zap.SugaredLogger
}

// MultiplexerOption configures a Multiplexer.
type MultiplexerOption func(*Multiplexer)

// WithTransitionTicks sets how many ticks the transition frame is shown.
func WithTransitionTicks(n int) MultiplexerOption {
	return func(m *Multiplexer) {
		m.maxTransition = n
	}
}

// WithLogger sets a logger for gauge switches.
func WithLogger(l *zap.SugaredLogger) MultiplexerOption {
	return func(m *Multiplexer) {
		m.logger = l
	}
}

// WithSwitchHandler registers a function called with the new index whenever
// the active gauge changes.
func WithSwitchHandler(fn func(index int)) MultiplexerOption {
	return func(m *Multiplexer) {
		m.onSwitch = fn
	}
}

// NewMultiplexer creates a multiplexer driving strip, switching on button.
func NewMultiplexer(button DebouncedInput, strip PixelDevice, transitionColor Color, opts ...MultiplexerOption) *Multiplexer {
	m := &Multiplexer{
		button:          button,
		strip:           strip,
		transitionColor: transitionColor,
		maxTransition:   DefaultTransitionTicks,
		logger:          zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(m)
	}
	// Boot in STEADY(0): no animation before the first press.
	m.elapsed = m.maxTransition
	return m
}

// AddGauge registers a gauge and initializes it.
func (m *Multiplexer) AddGauge(g Tickable) error {
	m.gauges = append(m.gauges, g)
	name := fmt.Sprintf("gauge-%d", len(m.gauges)-1)
	if n, ok := g.(interface{ Name() string }); ok && n.Name() != "" {
		name = n.Name()
	}
	m.names = append(m.names, name)
	return g.Init()
}

// Init satisfies Tickable. Gauges are initialized by AddGauge.
func (m *Multiplexer) Init() error {
	return nil
}

// Len returns the number of registered gauges.
func (m *Multiplexer) Len() int {
	return len(m.gauges)
}

// Active returns the index of the active gauge.
func (m *Multiplexer) Active() int {
	return m.active
}

// ActiveName returns the name of the active gauge, or "" when empty.
func (m *Multiplexer) ActiveName() string {
	if len(m.names) == 0 {
		return ""
	}
	return m.names[m.active]
}

// Transitioning reports whether the transition frame is being shown.
func (m *Multiplexer) Transitioning() bool {
	return m.elapsed < m.maxTransition
}

// TransitionTicks returns the number of transition frames drawn since the
// last switch.
func (m *Multiplexer) TransitionTicks() int {
	return m.elapsed
}

// SetActive selects gauge i and starts a transition.
// Out of range indices are ignored.
func (m *Multiplexer) SetActive(i int) {
	if i < 0 || i >= len(m.gauges) {
		return
	}
	m.active = i
	m.elapsed = 0
	m.logger.Debugw("gauge selected", "index", i, "name", m.names[i])
	if m.onSwitch != nil {
		m.onSwitch(i)
	}
}

// Next advances to the next gauge, wrapping around.
func (m *Multiplexer) Next() {
	if len(m.gauges) == 0 {
		return
	}
	m.SetActive((m.active + 1) % len(m.gauges))
}

// Tick runs one iteration of the state machine.
func (m *Multiplexer) Tick() {
	m.button.Poll()
	if m.button.Fell() {
		m.Next()
		return
	}

	if m.elapsed < m.maxTransition {
		m.drawTransition()
		m.elapsed++
		return
	}

	if len(m.gauges) == 0 {
		return
	}
	m.gauges[m.active].Tick()
}

func (m *Multiplexer) drawTransition() {
	for i := 0; i < m.strip.PixelCount(); i++ {
		m.strip.SetPixel(i, Black)
	}
	m.strip.SetPixel(m.active, m.transitionColor)
	if err := m.strip.Flush(); err != nil {
		m.logger.Debugw("transition flush failed", "error", err)
	}
}
