package logic

import "time"

// Liveness records the last event handed to the publisher, real or
// heartbeat. Change events and heartbeats share this one sequencing
// point, so a real transition inside the heartbeat window suppresses the
// heartbeat that would otherwise fire at the old deadline.
//
// Not safe for concurrent use: the polling loop and the heartbeat timer
// share a single goroutine.
type Liveness struct {
	lastValue bool
	lastAt    time.Time
}

// NewLiveness creates a tracker seeded with the process start time, so
// the first heartbeat fires one full window after boot even if no real
// event is ever sent.
func NewLiveness(start time.Time) *Liveness {
	return &Liveness{lastAt: start}
}

// MarkSent records a publish attempt. Callers invoke this even when the
// publish fails: the telemetry path is best-effort, and advancing the
// clock on failure avoids a heartbeat storm against a dead broker.
func (l *Liveness) MarkSent(value bool, at time.Time) {
	l.lastValue = value
	l.lastAt = at
}

// LastValue returns the value of the last sent event.
func (l *Liveness) LastValue() bool {
	return l.lastValue
}

// LastSentAt returns the time of the last sent event.
func (l *Liveness) LastSentAt() time.Time {
	return l.lastAt
}

// Heartbeat emits synthetic liveness events when the outbound stream has
// been quiet for a full window.
type Heartbeat struct {
	window   time.Duration
	liveness *Liveness
	sent     int
}

// NewHeartbeat creates a heartbeat scheduler sharing the given liveness
// tracker with the publish path. A window <= 0 disables heartbeats.
func NewHeartbeat(window time.Duration, liveness *Liveness) *Heartbeat {
	return &Heartbeat{window: window, liveness: liveness}
}

// Check returns a heartbeat event carrying the last confirmed value if
// nothing has been sent within the window, nil otherwise. Returning an
// event also advances the tracker, so the next heartbeat is due one full
// window later regardless of whether the publish succeeds.
func (h *Heartbeat) Check(now time.Time) *Event {
	if h.window <= 0 {
		return nil
	}
	if now.Sub(h.liveness.LastSentAt()) < h.window {
		return nil
	}

	h.liveness.MarkSent(h.liveness.LastValue(), now)
	h.sent++
	return &Event{
		Detected: h.liveness.LastValue(),
		Reason:   ReasonHeartbeat,
		Time:     now,
	}
}

// Sent returns the number of heartbeats emitted since startup.
func (h *Heartbeat) Sent() int {
	return h.sent
}
