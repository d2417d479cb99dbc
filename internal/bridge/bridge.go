// Package bridge forwards presence events from MQTT into the partitioned
// Kafka stream consumed by the listener. Messages are keyed by device
// identity, so per-device ordering survives the hop; messageType rides
// as a header for routing without payload inspection.
package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/segmentio/kafka-go"

	"github.com/sweeney/presence-sensor/internal/mqtt"
)

// StreamWriter is the subset of kafka.Writer the bridge needs.
type StreamWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Bridge forwards MQTT payloads onto the event stream.
type Bridge struct {
	writer StreamWriter
	log    *slog.Logger
}

// New creates a Bridge writing to the given stream.
func New(writer StreamWriter, log *slog.Logger) *Bridge {
	return &Bridge{
		writer: writer,
		log:    log.With(slog.String("component", "bridge")),
	}
}

// Forward publishes one MQTT message onto the stream. Malformed payloads
// and unrecognized topics are logged and dropped; they never stall the
// subscription. A stream write failure is returned to the caller.
func (b *Bridge) Forward(ctx context.Context, topic string, payload []byte) error {
	deviceID, ok := DeviceFromTopic(topic)
	if !ok {
		b.log.Warn("unrecognized topic, dropping", slog.String("topic", topic))
		return nil
	}

	env, err := mqtt.ParseEnvelope(payload)
	if err != nil {
		b.log.Warn("malformed payload, dropping",
			slog.String("device", deviceID), slog.Any("error", err))
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(deviceID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "messageType", Value: []byte(env.MessageType)},
			{Key: "deviceId", Value: []byte(deviceID)},
		},
	}
	if err := b.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write stream message: %w", err)
	}

	b.log.Debug("forwarded",
		slog.String("device", deviceID),
		slog.String("messageType", string(env.MessageType)))
	return nil
}

// DeviceFromTopic extracts the device identity from a presence topic
// (sensors/presence/<device>/events or .../system).
func DeviceFromTopic(topic string) (string, bool) {
	rest, ok := strings.CutPrefix(topic, mqtt.TopicPrefix)
	if !ok {
		return "", false
	}
	device, leaf, ok := strings.Cut(rest, "/")
	if !ok || device == "" {
		return "", false
	}
	if leaf != "events" && leaf != "system" {
		return "", false
	}
	return device, true
}
