package mqtt

import (
	"time"

	"github.com/sweeney/presence-sensor/internal/logic"
)

// FakePublisher records published events for test assertions.
type FakePublisher struct {
	// Events contains all proximity events that were published.
	Events []logic.Event

	// Payloads contains the JSON payloads that were published.
	Payloads [][]byte

	// StartedAt contains the timestamps of published DeviceStarted events.
	StartedAt []time.Time

	// PublishError, if set, will be returned by Publish.
	PublishError error

	// PublishStartedError, if set, will be returned by PublishStarted.
	PublishStartedError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// Publish records the proximity event.
func (f *FakePublisher) Publish(event logic.Event) error {
	if f.PublishError != nil {
		return f.PublishError
	}

	f.Events = append(f.Events, event)

	payload, err := FormatPayload(event)
	if err != nil {
		return err
	}
	f.Payloads = append(f.Payloads, payload)

	return nil
}

// PublishStarted records the DeviceStarted event.
func (f *FakePublisher) PublishStarted(at time.Time) error {
	if f.PublishStartedError != nil {
		return f.PublishStartedError
	}
	f.StartedAt = append(f.StartedAt, at)
	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Reset clears recorded events.
func (f *FakePublisher) Reset() {
	f.Events = nil
	f.Payloads = nil
	f.StartedAt = nil
	f.Closed = false
	f.PublishError = nil
	f.PublishStartedError = nil
	f.Connected = false
}
