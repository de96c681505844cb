package status

import (
	"encoding/json"
	"strings"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string                   `json:"event,omitempty"`
	Reason        string                   `json:"reason,omitempty"`
	ActiveGauge   string                   `json:"active_gauge"`
	Transitioning bool                     `json:"transitioning"`
	Gauges        []string                 `json:"gauges"`
	Readings      map[string][]ReadingJSON `json:"readings"`
	Ticks         int                      `json:"ticks"`
	Switches      int                      `json:"switches"`
	UptimeSeconds int64                    `json:"uptime_seconds"`
	StartTime     string                   `json:"start_time"`
	Timestamp     string                   `json:"timestamp"`
	MQTT          MQTTStatus               `json:"mqtt"`
	Network       *NetworkJSON             `json:"network,omitempty"`
	Config        ConfigJSON               `json:"config"`
}

// ReadingJSON is the JSON representation of a reading.
type ReadingJSON struct {
	Source string `json:"source"`
	Raw    int    `json:"raw"`
	Value  string `json:"value"`
	Unit   string `json:"unit"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of gauge config.
type ConfigJSON struct {
	TickMs      int64  `json:"tick_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	ReportEvery int    `json:"report_every"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
	ConfigFile  string `json:"config_file,omitempty"`
}

// GaugeJSON is the state of a single gauge.
type GaugeJSON struct {
	Name          string        `json:"name"`
	Index         int           `json:"index"`
	Active        bool          `json:"active"`
	Transitioning bool          `json:"transitioning"`
	Readings      []ReadingJSON `json:"readings"`
}

func readingsJSON(rs []Reading) []ReadingJSON {
	out := make([]ReadingJSON, 0, len(rs))
	for _, r := range rs {
		out = append(out, ReadingJSON{
			Source: r.Source,
			Raw:    r.Raw,
			Value:  strings.TrimSpace(r.Value),
			Unit:   r.Unit,
		})
	}
	return out
}

func buildInner(snap Snapshot) StatusInner {
	gauges := snap.Gauges
	if gauges == nil {
		gauges = []string{}
	}
	readings := make(map[string][]ReadingJSON, len(snap.Readings))
	for g, rs := range snap.Readings {
		readings[g] = readingsJSON(rs)
	}

	inner := StatusInner{
		ActiveGauge:   snap.ActiveGauge,
		Transitioning: snap.Transitioning,
		Gauges:        gauges,
		Readings:      readings,
		Ticks:         snap.Ticks,
		Switches:      snap.Switches,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Config: ConfigJSON{
			TickMs:      snap.Config.TickMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			ReportEvery: snap.Config.ReportEvery,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			ConfigFile:  snap.Config.ConfigFile,
		},
	}
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
	return inner
}

// FormatJSON returns the indented JSON status for the web endpoint
// (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}

// FormatGaugeJSON returns the indented JSON state of the named gauge. It
// reports false when no gauge has that name.
func FormatGaugeJSON(snap Snapshot, name string) ([]byte, bool) {
	for i, g := range snap.Gauges {
		if g != name {
			continue
		}
		active := i == snap.ActiveIndex
		data, _ := json.MarshalIndent(GaugeJSON{
			Name:          g,
			Index:         i,
			Active:        active,
			Transitioning: active && snap.Transitioning,
			Readings:      readingsJSON(snap.Readings[g]),
		}, "", "  ")
		return data, true
	}
	return nil, false
}
