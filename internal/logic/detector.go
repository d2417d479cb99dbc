package logic

import "time"

// Detector tracks presence state and detects debounced transitions.
// The confirmed state starts idle (not detected) at startTime; the start
// time is a neutral baseline, so a sensor that reads active at boot still
// has to hold that reading for the full debounce window before the first
// activation is emitted.
type Detector struct {
	debounceWindow time.Duration
	detected       bool      // confirmed state: false = idle, true = active
	lastEdge       time.Time // zero until the first confirmed transition
	pending        bool      // a contradicting reading is being debounced
	pendingSince   time.Time
	startTime      time.Time
	handlers       []Handler
	counts         EventCounts
}

// NewDetector creates a transition detector with the given debounce window.
func NewDetector(debounceWindow time.Duration, startTime time.Time) *Detector {
	return &Detector{
		debounceWindow: debounceWindow,
		startTime:      startTime,
	}
}

// Subscribe registers a handler for confirmed transitions. Handlers are
// called in subscription order.
func (d *Detector) Subscribe(h Handler) {
	d.handlers = append(d.handlers, h)
}

// Process takes a new raw sample and returns the confirmed transition, if
// any. A reading matching the confirmed state clears any pending
// transition; a contradicting reading must hold for the full debounce
// window before the state flips. At most one event is returned per
// confirmed transition, and registered handlers are notified before
// Process returns.
func (d *Detector) Process(s Sample) *Event {
	if s.Detected == d.detected {
		// Back to the confirmed state: abandon any pending transition.
		d.pending = false
		return nil
	}

	if !d.pending {
		d.pending = true
		d.pendingSince = s.Time
		return nil
	}

	if s.Time.Sub(d.pendingSince) < d.debounceWindow {
		return nil
	}

	// Debounce window satisfied: flip the confirmed state.
	d.detected = s.Detected
	d.pending = false
	d.lastEdge = s.Time

	if d.detected {
		d.counts.Activations++
	} else {
		d.counts.Deactivations++
	}

	ev := Event{
		Detected: d.detected,
		Reason:   ReasonChange,
		Time:     s.Time,
	}
	for _, h := range d.handlers {
		h(ev)
	}
	return &ev
}

// Detected returns the current confirmed state.
func (d *Detector) Detected() bool {
	return d.detected
}

// LastEdge returns the time of the last confirmed transition.
// The zero time means no transition has been confirmed yet.
func (d *Detector) LastEdge() time.Time {
	return d.lastEdge
}

// Counts returns a snapshot of the transition counts. The Heartbeats
// field is always zero here; heartbeats are counted by the scheduler.
func (d *Detector) Counts() EventCounts {
	return d.counts
}
