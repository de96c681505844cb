// Package mqtt publishes gauge telemetry and drives a WLED LED ring over
// MQTT, with an abstraction for testing.
package mqtt

import (
	"encoding/json"
	"strings"
	"time"
)

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "gauge/system"

// ReadingsTopic returns the topic a gauge's readings are published on.
func ReadingsTopic(gauge string) string {
	return "gauge/" + gauge + "/readings"
}

// Publisher publishes gauge telemetry to MQTT.
type Publisher interface {
	// PublishReadings sends the latest readings of one gauge.
	// Returns error if publishing fails (should not crash the process).
	PublishReadings(r Readings) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// RawPublisher sends a preformatted payload.
type RawPublisher interface {
	PublishRaw(topic string, qos byte, retained bool, payload []byte) error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Reading is one source's value at report time.
type Reading struct {
	Source string
	Raw    int
	Value  string
	Unit   string
}

// Readings are the readings of one gauge's sources.
type Readings struct {
	Timestamp time.Time
	Gauge     string
	Readings  []Reading
}

// ReadingsPayload represents the MQTT message payload for gauge readings.
type ReadingsPayload struct {
	Gauge GaugePayload `json:"gauge"`
}

// GaugePayload contains the readings of one gauge.
type GaugePayload struct {
	Timestamp string           `json:"timestamp"`
	Name      string           `json:"name"`
	Readings  []ReadingPayload `json:"readings"`
}

// ReadingPayload is a single source reading. Value is the formatted text
// without display padding.
type ReadingPayload struct {
	Source string `json:"source"`
	Raw    int    `json:"raw"`
	Value  string `json:"value"`
	Unit   string `json:"unit"`
}

// FormatReadingsPayload creates the JSON payload for gauge readings.
func FormatReadingsPayload(r Readings) ([]byte, error) {
	payload := ReadingsPayload{
		Gauge: GaugePayload{
			Timestamp: r.Timestamp.UTC().Format(time.RFC3339),
			Name:      r.Gauge,
			Readings:  make([]ReadingPayload, 0, len(r.Readings)),
		},
	}
	for _, rd := range r.Readings {
		payload.Gauge.Readings = append(payload.Gauge.Readings, ReadingPayload{
			Source: rd.Source,
			Raw:    rd.Raw,
			Value:  strings.TrimSpace(rd.Value),
			Unit:   rd.Unit,
		})
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

// willPayload is published by the broker when the connection drops
// without a clean disconnect.
func willPayload() []byte {
	data, _ := json.Marshal(SystemPayload{System: SystemPayloadInner{Event: "OFFLINE", Reason: "CONNECTION_LOST"}})
	return data
}
