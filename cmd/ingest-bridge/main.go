// Command ingest-bridge subscribes to the presence MQTT topics and forwards
// every message onto the partitioned Kafka stream, keyed by device.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/segmentio/kafka-go"

	"github.com/sweeney/presence-sensor/internal/bridge"
	"github.com/sweeney/presence-sensor/internal/config"
	"github.com/sweeney/presence-sensor/internal/mqtt"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	cfg, err := config.LoadBridge()
	if err != nil {
		log.Error("configuration", slog.Any("error", err))
		os.Exit(1)
	}

	if err := run(log, cfg); err != nil {
		log.Error("fatal", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(log *slog.Logger, cfg *config.BridgeConfig) error {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{}, // same key, same partition
		RequiredAcks: kafka.RequireOne,
	}
	defer writer.Close()

	b := bridge.New(writer, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	handler := func(_ paho.Client, msg paho.Message) {
		if err := b.Forward(ctx, msg.Topic(), msg.Payload()); err != nil {
			log.Error("stream write", slog.String("topic", msg.Topic()), slog.Any("error", err))
		}
	}

	opts := paho.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID("ingest-bridge").
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetOnConnectHandler(func(c paho.Client) {
			// Resubscribe after every (re)connect; subscriptions do not
			// survive a clean-session reconnect.
			for _, topic := range subscribeTopics() {
				if token := c.Subscribe(topic, 1, handler); token.Wait() && token.Error() != nil {
					log.Error("subscribe", slog.String("topic", topic), slog.Any("error", token.Error()))
				} else {
					log.Info("subscribed", slog.String("topic", topic))
				}
			}
		})

	client := paho.NewClient(opts)
	if token := client.Connect(); token.WaitTimeout(30*time.Second) && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)

	log.Info("started",
		slog.String("mqtt", cfg.MQTTBroker),
		slog.Any("kafka", cfg.KafkaBrokers),
		slog.String("topic", cfg.Topic))

	<-ctx.Done()
	log.Info("shutting down")
	return nil
}

// subscribeTopics covers both the event and system leaves for all devices.
func subscribeTopics() []string {
	return []string{
		mqtt.TopicPrefix + "+/events",
		mqtt.TopicPrefix + "+/system",
	}
}
