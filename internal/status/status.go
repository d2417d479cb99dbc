// Package status provides a thread-safe status tracker for the
// presence-agent daemon. It is read by the HTTP status handlers.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/presence-sensor/internal/logic"
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

// Config contains daemon configuration for display.
type Config struct {
	PollMs      int64
	DebounceMs  int64
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
	DeviceID    string
	Chip        string
	Pin         int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	Detected      bool
	LastEdge      time.Time // zero until the first confirmed transition
	Counts        logic.EventCounts
	LastSentAt    time.Time
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update sets the confirmed state, last transition time, and event counts.
// Called from the polling loop on every tick.
func (t *Tracker) Update(detected bool, lastEdge time.Time, counts logic.EventCounts) {
	t.mu.Lock()
	t.snap.Detected = detected
	t.snap.LastEdge = lastEdge
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetLastSent records the time of the last outbound event.
func (t *Tracker) SetLastSent(at time.Time) {
	t.mu.Lock()
	t.snap.LastSentAt = at
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

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
