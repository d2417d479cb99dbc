package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/relvacode/iso8601"
	"github.com/segmentio/kafka-go"

	"github.com/sweeney/presence-sensor/internal/mqtt"
)

// StreamReader is the subset of kafka.Reader the consumer needs.
// Fetch and commit are split so an insert failure leaves the offset
// uncommitted: the consumer group checkpoint is the retry mechanism,
// not this loop.
type StreamReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Consumer reads the event stream and persists ProximityInfo events.
// Events of any other tag are ignored. Ordering is only guaranteed
// within a partition; each row is self-contained, so that suffices.
type Consumer struct {
	reader StreamReader
	store  Store
	log    *slog.Logger
}

// NewConsumer creates a Consumer over the given stream and store.
func NewConsumer(reader StreamReader, store Store, log *slog.Logger) *Consumer {
	return &Consumer{
		reader: reader,
		store:  store,
		log:    log.With(slog.String("component", "consumer")),
	}
}

// Run processes messages until the context is cancelled or a failure
// propagates. A storage insert failure is returned without committing
// the offset, so the message is redelivered.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("fetch message: %w", err)
		}

		if err := c.handle(ctx, msg); err != nil {
			return err
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return fmt.Errorf("commit offset: %w", err)
		}
	}
}

// handle routes one message. Only storage failures are returned;
// everything else (wrong tag, malformed payload, missing identity) is
// logged and skipped so the stream keeps moving.
func (c *Consumer) handle(ctx context.Context, msg kafka.Message) error {
	if mt := headerValue(msg, "messageType"); mt != "" && mt != string(mqtt.MessageTypeProximityInfo) {
		c.log.Debug("ignoring message", slog.String("messageType", mt))
		return nil
	}

	env, err := mqtt.ParseEnvelope(msg.Value)
	if err != nil {
		c.log.Warn("malformed payload, skipping",
			slog.Int64("offset", msg.Offset), slog.Any("error", err))
		return nil
	}
	if env.MessageType != mqtt.MessageTypeProximityInfo {
		c.log.Debug("ignoring message", slog.String("messageType", string(env.MessageType)))
		return nil
	}
	if env.IsProximityDetected == nil {
		c.log.Warn("ProximityInfo without isProximityDetected, skipping",
			slog.Int64("offset", msg.Offset))
		return nil
	}
	if _, err := iso8601.ParseString(env.DeviceTimestamp); err != nil {
		c.log.Warn("invalid deviceTimestamp, skipping",
			slog.String("deviceTimestamp", env.DeviceTimestamp), slog.Any("error", err))
		return nil
	}

	device := string(msg.Key)
	if device == "" {
		device = headerValue(msg, "deviceId")
	}
	if device == "" {
		c.log.Warn("message without device identity, skipping",
			slog.Int64("offset", msg.Offset))
		return nil
	}

	row := Row{
		PartitionKey:     device,
		RowKey:           NewRowKey(msg.Time, env.DeviceTimestamp),
		EnqueuedAt:       msg.Time.UTC(),
		Detected:         *env.IsProximityDetected,
		Reason:           env.Reason,
		Body:             string(msg.Value),
		Properties:       headersJSON(msg),
		SystemProperties: coordinatesJSON(msg),
	}

	if err := c.store.Insert(ctx, row); err != nil {
		return fmt.Errorf("persist event for %s: %w", device, err)
	}

	c.log.Info("persisted event",
		slog.String("device", device),
		slog.Bool("detected", row.Detected),
		slog.String("reason", row.Reason))
	return nil
}

func headerValue(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func headersJSON(msg kafka.Message) string {
	m := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		m[h.Key] = string(h.Value)
	}
	data, _ := json.Marshal(m)
	return string(data)
}

func coordinatesJSON(msg kafka.Message) string {
	data, _ := json.Marshal(map[string]interface{}{
		"topic":     msg.Topic,
		"partition": msg.Partition,
		"offset":    msg.Offset,
		"time":      msg.Time.UTC().Format(time.RFC3339),
	})
	return string(data)
}
