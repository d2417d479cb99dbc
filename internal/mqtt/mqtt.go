// Package mqtt provides MQTT publishing of presence events with
// abstraction for testing. It also owns the wire envelope consumed by the
// ingestion pipeline.
package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sweeney/presence-sensor/internal/logic"
)

// TopicPrefix is the root of the per-device topic tree.
const TopicPrefix = "sensors/presence/"

// EventsTopic returns the proximity event topic for a device.
func EventsTopic(deviceID string) string {
	return TopicPrefix + deviceID + "/events"
}

// SystemTopic returns the lifecycle event topic for a device.
func SystemTopic(deviceID string) string {
	return TopicPrefix + deviceID + "/system"
}

// MessageType tags an envelope for downstream routing.
type MessageType string

const (
	// MessageTypeProximityInfo tags debounced state and heartbeat events.
	MessageTypeProximityInfo MessageType = "ProximityInfo"
	// MessageTypeDeviceStarted tags the one-shot boot event.
	MessageTypeDeviceStarted MessageType = "DeviceStarted"
)

// Publisher publishes presence events.
type Publisher interface {
	// Publish sends a proximity event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

	// PublishStarted sends the retained DeviceStarted event.
	PublishStarted(at time.Time) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// Envelope is the JSON wire contract consumed by the ingestion pipeline.
// IsProximityDetected and Reason are present only for ProximityInfo.
type Envelope struct {
	DeviceTimestamp     string      `json:"deviceTimestamp"`
	MessageType         MessageType `json:"messageType"`
	IsProximityDetected *bool       `json:"isProximityDetected,omitempty"`
	Reason              string      `json:"reason,omitempty"`
}

// FormatPayload creates the ProximityInfo envelope for an event.
func FormatPayload(event logic.Event) ([]byte, error) {
	detected := event.Detected
	return json.Marshal(Envelope{
		DeviceTimestamp:     event.Time.UTC().Format(time.RFC3339),
		MessageType:         MessageTypeProximityInfo,
		IsProximityDetected: &detected,
		Reason:              string(event.Reason),
	})
}

// FormatStartedPayload creates the DeviceStarted envelope.
func FormatStartedPayload(at time.Time) ([]byte, error) {
	return json.Marshal(Envelope{
		DeviceTimestamp: at.UTC().Format(time.RFC3339),
		MessageType:     MessageTypeDeviceStarted,
	})
}

// ParseEnvelope decodes a wire payload. Used by the bridge and the
// listener to route on MessageType.
func ParseEnvelope(data []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if e.MessageType == "" {
		return Envelope{}, fmt.Errorf("envelope missing messageType")
	}
	return e, nil
}
