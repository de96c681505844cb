package status

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestNewTracker(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := Config{TickMs: 20, ReportEvery: 50, Broker: "tcp://localhost:1883", HTTPAddr: ":8080"}
	tr := NewTracker(start, cfg)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if snap.Config.TickMs != 20 {
		t.Errorf("Config.TickMs: got %d, want 20", snap.Config.TickMs)
	}
	if snap.Config.HTTPAddr != ":8080" {
		t.Errorf("Config.HTTPAddr: got %q, want %q", snap.Config.HTTPAddr, ":8080")
	}
	if snap.ActiveGauge != "" {
		t.Errorf("expected no active gauge initially, got %q", snap.ActiveGauge)
	}
	if snap.MQTTConnected {
		t.Error("expected MQTTConnected=false initially")
	}
}

func TestUpdateAndSnapshot(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.SetGauges([]string{"boost", "afr", "rpm"})

	tr.Update(1, true, 120, 4)

	snap := tr.Snapshot()
	if snap.ActiveIndex != 1 || snap.ActiveGauge != "afr" {
		t.Errorf("active: got %d %q, want 1 afr", snap.ActiveIndex, snap.ActiveGauge)
	}
	if !snap.Transitioning {
		t.Error("expected Transitioning=true")
	}
	if snap.Ticks != 120 {
		t.Errorf("Ticks: got %d, want 120", snap.Ticks)
	}
	if snap.Switches != 4 {
		t.Errorf("Switches: got %d, want 4", snap.Switches)
	}
}

func TestUpdateIndexOutOfRange(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.SetGauges([]string{"boost"})
	tr.Update(3, false, 1, 0)

	if got := tr.Snapshot().ActiveGauge; got != "" {
		t.Errorf("ActiveGauge: got %q, want empty", got)
	}
}

func TestSetGaugesResolvesActiveName(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.Update(0, false, 0, 0)
	tr.SetGauges([]string{"boost"})

	if got := tr.Snapshot().ActiveGauge; got != "boost" {
		t.Errorf("ActiveGauge: got %q, want boost", got)
	}
}

func TestSetReadings(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	in := []Reading{{Source: "boost", Raw: 512, Value: "  6.7", Unit: "psi"}}
	tr.SetReadings("boost", in)

	// The tracker keeps its own copy.
	in[0].Raw = 0

	got := tr.Snapshot().Readings["boost"]
	if len(got) != 1 || got[0].Raw != 512 {
		t.Errorf("Readings: got %+v", got)
	}
}

func TestSetMQTTConnected(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.SetMQTTConnected(true)
	if !tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=true")
	}

	tr.SetMQTTConnected(false)
	if tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=false")
	}
}

func TestSetNetwork(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	if tr.Snapshot().Network != nil {
		t.Error("expected nil Network initially")
	}

	tr.SetNetwork(&NetworkInfo{Type: "wifi", IP: "192.168.1.42", Status: "connected"})

	snap := tr.Snapshot()
	if snap.Network == nil {
		t.Fatal("expected non-nil Network")
	}
	if snap.Network.IP != "192.168.1.42" {
		t.Errorf("Network.IP: got %q, want %q", snap.Network.IP, "192.168.1.42")
	}
}

func TestSnapshotUptime(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{StartTime: start, Now: start.Add(15 * time.Minute)}

	if snap.Uptime() != 15*time.Minute {
		t.Errorf("Uptime: got %v, want 15m", snap.Uptime())
	}
}

func TestSnapshotNowIsSet(t *testing.T) {
	tr := NewTracker(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Config{})

	before := time.Now()
	snap := tr.Snapshot()
	after := time.Now()

	if snap.Now.Before(before) || snap.Now.After(after) {
		t.Errorf("Now (%v) not between %v and %v", snap.Now, before, after)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.SetGauges([]string{"a", "b"})
	tr.Update(0, false, 1, 0)
	tr.SetReadings("a", []Reading{{Source: "x", Raw: 1}})

	snap1 := tr.Snapshot()

	tr.Update(1, true, 2, 1)
	tr.SetReadings("b", []Reading{{Source: "y", Raw: 2}})

	if snap1.ActiveGauge != "a" || snap1.Ticks != 1 {
		t.Error("snapshot should be a copy; multiplexer state was modified")
	}
	if _, ok := snap1.Readings["b"]; ok {
		t.Error("snapshot should be a copy; readings map was modified")
	}
}

func testSnapshot() Snapshot {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return Snapshot{
		Gauges:        []string{"boost", "afr"},
		ActiveIndex:   0,
		ActiveGauge:   "boost",
		Ticks:         45000,
		Switches:      2,
		Readings:      map[string][]Reading{"boost": {{Source: "boost", Raw: 512, Value: "  6.7", Unit: "psi"}}},
		StartTime:     start,
		Now:           start.Add(15 * time.Minute),
		MQTTConnected: true,
		Config:        Config{TickMs: 20, HeartbeatMs: 900000, ReportEvery: 50, Broker: "tcp://localhost:1883", HTTPAddr: ":8080"},
	}
}

func TestFormatJSON(t *testing.T) {
	data := FormatJSON(testSnapshot())

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	s := parsed.Status
	if s.ActiveGauge != "boost" {
		t.Errorf("ActiveGauge: got %q, want boost", s.ActiveGauge)
	}
	if len(s.Gauges) != 2 {
		t.Errorf("Gauges: got %v", s.Gauges)
	}
	if s.UptimeSeconds != 900 {
		t.Errorf("UptimeSeconds: got %d, want 900", s.UptimeSeconds)
	}
	if !s.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if got := s.Readings["boost"]; len(got) != 1 || got[0].Value != "6.7" {
		t.Errorf("Readings: got %+v, want trimmed 6.7", got)
	}
	if s.Config.ReportEvery != 50 {
		t.Errorf("Config.ReportEvery: got %d, want 50", s.Config.ReportEvery)
	}
	if s.Event != "" || s.Reason != "" {
		t.Errorf("expected no event/reason for web format, got %q %q", s.Event, s.Reason)
	}
	if !strings.Contains(string(data), "\n  ") {
		t.Error("web JSON should be indented")
	}
}

func TestFormatJSONEmpty(t *testing.T) {
	snap := Snapshot{
		StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC),
	}

	var raw map[string]map[string]interface{}
	if err := json.Unmarshal(FormatJSON(snap), &raw); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if g, ok := raw["status"]["gauges"].([]interface{}); !ok || len(g) != 0 {
		t.Errorf("gauges should be an empty list, got %v", raw["status"]["gauges"])
	}
	if _, exists := raw["status"]["network"]; exists {
		t.Error("network should be omitted when nil")
	}
}

func TestFormatStatusEvent(t *testing.T) {
	tests := []struct {
		event, reason string
	}{
		{"HEARTBEAT", ""},
		{"SHUTDOWN", "SIGTERM"},
	}
	for _, tt := range tests {
		t.Run(tt.event, func(t *testing.T) {
			data := FormatStatusEvent(testSnapshot(), tt.event, tt.reason)

			var parsed StatusJSON
			if err := json.Unmarshal(data, &parsed); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if parsed.Status.Event != tt.event {
				t.Errorf("Event: got %q, want %s", parsed.Status.Event, tt.event)
			}
			if parsed.Status.Reason != tt.reason {
				t.Errorf("Reason: got %q, want %q", parsed.Status.Reason, tt.reason)
			}
			if parsed.Status.Ticks != 45000 {
				t.Errorf("Ticks: got %d, want 45000", parsed.Status.Ticks)
			}
		})
	}
}

func TestFormatStatusEventOmitsReasonWhenEmpty(t *testing.T) {
	data := FormatStatusEvent(testSnapshot(), "STARTUP", "")

	var raw map[string]map[string]interface{}
	json.Unmarshal(data, &raw)
	if _, exists := raw["status"]["reason"]; exists {
		t.Error("reason should be omitted when empty")
	}
	if raw["status"]["event"] != "STARTUP" {
		t.Errorf("event: got %v, want STARTUP", raw["status"]["event"])
	}
}

func TestFormatJSONWithNetwork(t *testing.T) {
	snap := testSnapshot()
	snap.Network = &NetworkInfo{Type: "wifi", IP: "192.168.1.42", Status: "connected", SSID: "MyNet"}

	var parsed StatusJSON
	json.Unmarshal(FormatJSON(snap), &parsed)

	if parsed.Status.Network == nil {
		t.Fatal("expected Network in JSON")
	}
	if parsed.Status.Network.IP != "192.168.1.42" {
		t.Errorf("Network.IP: got %q, want 192.168.1.42", parsed.Status.Network.IP)
	}
	if parsed.Status.Network.SSID != "MyNet" {
		t.Errorf("Network.SSID: got %q, want MyNet", parsed.Status.Network.SSID)
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.SetGauges([]string{"a", "b"})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			tr.Update(i%2, i%3 == 0, i, i/10)
			tr.SetReadings("a", []Reading{{Source: "x", Raw: i}})
			tr.SetMQTTConnected(i%2 == 0)
			tr.SetNetwork(&NetworkInfo{IP: "1.2.3.4"})
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			snap := tr.Snapshot()
			_ = snap.Uptime()
			_ = FormatJSON(snap)
		}
	}()

	wg.Wait()
}

func TestFormatGaugeJSON(t *testing.T) {
	tr := NewTracker(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Config{})
	tr.SetGauges([]string{"boost", "afr"})
	tr.Update(0, false, 3, 0)
	tr.SetReadings("boost", []Reading{{Source: "boost", Raw: 512, Value: "  6.7", Unit: "psi"}})
	snap := tr.Snapshot()

	data, ok := FormatGaugeJSON(snap, "boost")
	if !ok {
		t.Fatal("expected boost to be found")
	}
	var g GaugeJSON
	if err := json.Unmarshal(data, &g); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if g.Name != "boost" || g.Index != 0 || !g.Active || g.Transitioning {
		t.Errorf("gauge: got %+v", g)
	}
	if len(g.Readings) != 1 || g.Readings[0].Value != "6.7" || g.Readings[0].Raw != 512 {
		t.Errorf("readings: got %+v", g.Readings)
	}

	if _, ok := FormatGaugeJSON(snap, "oil"); ok {
		t.Error("expected unknown gauge to be reported missing")
	}
}
