// Package status provides a thread-safe status tracker for the gauge.
// The tick loop writes it; HTTP handlers and MQTT events read it.
package status

import (
	"maps"
	"sync"
	"time"
)

// NetworkInfo contains network state as reported by pi-helper.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains gauge configuration for display.
type Config struct {
	TickMs      int64
	HeartbeatMs int64
	ReportEvery int
	Broker      string
	HTTPAddr    string
	ConfigFile  string
}

// Reading is the last reported value of one source.
type Reading struct {
	Source string
	Raw    int
	Value  string
	Unit   string
}

// Snapshot is a point-in-time view of gauge state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Gauges        []string
	ActiveIndex   int
	ActiveGauge   string
	Transitioning bool
	Ticks         int
	Switches      int
	// Readings holds the last reported readings per gauge name.
	Readings      map[string][]Reading
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the gauge started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable gauge state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
			Readings:  map[string][]Reading{},
		},
		now: time.Now,
	}
}

// SetGauges sets the gauge names in multiplexer order.
func (t *Tracker) SetGauges(names []string) {
	names = append([]string(nil), names...)
	t.mu.Lock()
	t.snap.Gauges = names
	t.snap.ActiveGauge = t.nameLocked(t.snap.ActiveIndex)
	t.mu.Unlock()
}

func (t *Tracker) nameLocked(i int) string {
	if i < 0 || i >= len(t.snap.Gauges) {
		return ""
	}
	return t.snap.Gauges[i]
}

// Update sets the multiplexer state and loop counters.
// Called from the tick loop on every tick.
func (t *Tracker) Update(active int, transitioning bool, ticks, switches int) {
	t.mu.Lock()
	t.snap.ActiveIndex = active
	t.snap.ActiveGauge = t.nameLocked(active)
	t.snap.Transitioning = transitioning
	t.snap.Ticks = ticks
	t.snap.Switches = switches
	t.mu.Unlock()
}

// SetReadings replaces the readings of a gauge.
func (t *Tracker) SetReadings(gauge string, readings []Reading) {
	readings = append([]Reading(nil), readings...)
	t.mu.Lock()
	t.snap.Readings[gauge] = readings
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the gauge state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Readings = maps.Clone(t.snap.Readings)
	t.mu.RUnlock()
	s.Now = t.now()
	return s
}
