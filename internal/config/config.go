// Package config loads service configuration from the environment.
// The device agent uses flags with env fallbacks instead; this package
// serves the bridge and listener services.
package config

import (
	"errors"
	"os"
	"strings"
	"time"
)

// ListenerConfig holds the presence-listener runtime configuration.
type ListenerConfig struct {
	KafkaBrokers []string // bootstrap servers, comma-separated in KAFKA_BROKERS
	Topic        string   // partitioned event stream topic
	GroupID      string   // consumer group for offset checkpoints
	MongoURI     string   // table store connection string
	Database     string
	Collection   string
	HTTPBind     string // health/status endpoint bind address
}

// LoadListener reads listener configuration from the environment.
// KAFKA_BROKERS and MONGO_URI are required; everything else has defaults.
func LoadListener() (*ListenerConfig, error) {
	cfg := &ListenerConfig{
		KafkaBrokers: SplitAndTrim(os.Getenv("KAFKA_BROKERS"), ","),
		Topic:        Getenv("PRESENCE_TOPIC", "presence.events"),
		GroupID:      Getenv("KAFKA_GROUP_ID", "presence-listener"),
		MongoURI:     os.Getenv("MONGO_URI"),
		Database:     Getenv("MONGO_DATABASE", "presence"),
		Collection:   Getenv("MONGO_COLLECTION", "proximityevents"),
		HTTPBind:     Getenv("HTTP_BIND", ":8080"),
	}
	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required (comma-separated)")
	}
	if cfg.MongoURI == "" {
		return nil, errors.New("MONGO_URI is required")
	}
	return cfg, nil
}

// BridgeConfig holds the ingest-bridge runtime configuration.
type BridgeConfig struct {
	MQTTBroker   string
	KafkaBrokers []string
	Topic        string
}

// LoadBridge reads bridge configuration from the environment.
// KAFKA_BROKERS is required.
func LoadBridge() (*BridgeConfig, error) {
	cfg := &BridgeConfig{
		MQTTBroker:   Getenv("MQTT_BROKER", "tcp://localhost:1883"),
		KafkaBrokers: SplitAndTrim(os.Getenv("KAFKA_BROKERS"), ","),
		Topic:        Getenv("PRESENCE_TOPIC", "presence.events"),
	}
	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required (comma-separated)")
	}
	return cfg, nil
}

// Getenv returns the value of key, or def if unset or empty.
func Getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// GetenvDuration returns the duration value of key, or def if unset or
// unparseable.
func GetenvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// SplitAndTrim splits s on sep and drops empty elements.
func SplitAndTrim(s, sep string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, sep) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
