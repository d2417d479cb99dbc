// Package logic contains pure business logic for presence state tracking.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// Reason explains why a proximity event was emitted.
type Reason string

const (
	// ReasonChange marks a debounce-confirmed state transition.
	ReasonChange Reason = "change"
	// ReasonHeartbeat marks a synthetic liveness event.
	ReasonHeartbeat Reason = "heartbeat"
)

// Sample is a single raw sensor reading.
type Sample struct {
	Detected bool // raw PIR output: true = motion seen this instant
	Time     time.Time
}

// Event represents a proximity state event to be published.
type Event struct {
	Detected bool
	Reason   Reason
	Time     time.Time
}

// Handler is a transition subscriber. Handlers are invoked synchronously,
// in subscription order, before Process returns. A slow handler delays
// the next poll tick; the polling loop is single-threaded.
type Handler func(Event)

// EventCounts tracks the number of each event kind since startup.
type EventCounts struct {
	Activations   int
	Deactivations int
	Heartbeats    int
}
