package mqtt

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/presence-sensor/internal/logic"
)

// defaultBufferCapacity bounds the store-and-forward buffer. At one event
// per heartbeat window this covers several hours of broker outage.
const defaultBufferCapacity = 256

// RealPublisher publishes to an actual MQTT broker. Messages submitted
// while the connection is down are held in a ring buffer and replayed
// when the connection comes back.
type RealPublisher struct {
	client   paho.Client
	deviceID string
	log      *slog.Logger

	mu     sync.Mutex
	buffer *ringBuffer
}

// NewRealPublisher creates a publisher connected to the given broker.
func NewRealPublisher(broker, deviceID string, log *slog.Logger) (*RealPublisher, error) {
	p := &RealPublisher{
		deviceID: deviceID,
		log:      log.With(slog.String("component", "mqtt")),
		buffer:   newRingBuffer(defaultBufferCapacity),
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("presence-agent-" + deviceID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(paho.Client) { p.replayBuffered() })

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return p, nil
}

// Publish sends a proximity event to the MQTT broker.
func (p *RealPublisher) Publish(event logic.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	// QoS 0 (at-most-once), not retained
	return p.send(EventsTopic(p.deviceID), payload, 0, false)
}

// PublishStarted sends the retained DeviceStarted event.
func (p *RealPublisher) PublishStarted(at time.Time) error {
	payload, err := FormatStartedPayload(at)
	if err != nil {
		return fmt.Errorf("format started payload: %w", err)
	}
	// QoS 1 (at-least-once), retained so late subscribers see the boot
	return p.send(SystemTopic(p.deviceID), payload, 1, true)
}

func (p *RealPublisher) send(topic string, payload []byte, qos byte, retained bool) error {
	if !p.client.IsConnected() {
		p.mu.Lock()
		dropped := p.buffer.push(bufferedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		n := p.buffer.len()
		p.mu.Unlock()
		if dropped {
			p.log.Warn("buffer full, dropped oldest message", slog.Int("buffered", n))
		} else {
			p.log.Info("disconnected, buffered message", slog.Int("buffered", n))
		}
		return nil
	}

	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// replayBuffered flushes messages queued while disconnected.
// Runs on paho's connect callback goroutine.
func (p *RealPublisher) replayBuffered() {
	p.mu.Lock()
	msgs := p.buffer.drainAll()
	p.mu.Unlock()

	if len(msgs) == 0 {
		return
	}
	p.log.Info("replaying buffered messages", slog.Int("count", len(msgs)))
	for _, m := range msgs {
		token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
		if !token.WaitTimeout(5 * time.Second) {
			p.log.Warn("replay publish timeout", slog.String("topic", m.topic))
			continue
		}
		if err := token.Error(); err != nil {
			p.log.Warn("replay publish failed", slog.String("topic", m.topic), slog.Any("error", err))
		}
	}
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnected()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
