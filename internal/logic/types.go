// Package logic contains pure input-handling logic for the gauge.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// Level is the debounced level of a digital input.
type Level string

const (
	LevelHigh Level = "HIGH"
	LevelLow  Level = "LOW"
)

// Edge is a debounced transition.
type Edge string

const (
	EdgeNone Edge = ""
	// EdgeFell is a high to low transition: a press on an active-low button.
	EdgeFell Edge = "FELL"
	// EdgeRose is a low to high transition: a release.
	EdgeRose Edge = "ROSE"
)

// InputState tracks debounce state for a single input.
type InputState struct {
	// Current stable (debounced) level
	Stable Level
	// Pending level during debounce
	Pending Level
	// Time when pending level was first observed
	PendingSince time.Time
	// Whether we have established a baseline
	Baselined bool
}

// Sample is a single raw reading of an input.
type Sample struct {
	High bool
	Time time.Time
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Ticks     int
	Switches  int
}
