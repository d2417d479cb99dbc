package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoadListenerDefaults(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")

	cfg, err := LoadListener()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"kafka-1:9092", "kafka-2:9092"}
	if !reflect.DeepEqual(cfg.KafkaBrokers, want) {
		t.Errorf("KafkaBrokers: got %v, want %v", cfg.KafkaBrokers, want)
	}
	if cfg.Topic != "presence.events" {
		t.Errorf("Topic: got %q, want presence.events", cfg.Topic)
	}
	if cfg.GroupID != "presence-listener" {
		t.Errorf("GroupID: got %q", cfg.GroupID)
	}
	if cfg.Database != "presence" || cfg.Collection != "proximityevents" {
		t.Errorf("store defaults: got %q/%q", cfg.Database, cfg.Collection)
	}
	if cfg.HTTPBind != ":8080" {
		t.Errorf("HTTPBind: got %q, want :8080", cfg.HTTPBind)
	}
}

func TestLoadListenerMissingBrokers(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")

	if _, err := LoadListener(); err == nil {
		t.Error("expected error when KAFKA_BROKERS is unset")
	}
}

func TestLoadListenerMissingMongoURI(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092")
	t.Setenv("MONGO_URI", "")

	if _, err := LoadListener(); err == nil {
		t.Error("expected error when MONGO_URI is unset")
	}
}

func TestLoadBridge(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092")
	t.Setenv("MQTT_BROKER", "tcp://broker:1883")
	t.Setenv("PRESENCE_TOPIC", "presence.test")

	cfg, err := LoadBridge()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MQTTBroker != "tcp://broker:1883" {
		t.Errorf("MQTTBroker: got %q", cfg.MQTTBroker)
	}
	if cfg.Topic != "presence.test" {
		t.Errorf("Topic: got %q", cfg.Topic)
	}
}

func TestGetenvDuration(t *testing.T) {
	t.Setenv("TEST_DURATION", "45s")
	if d := GetenvDuration("TEST_DURATION", time.Minute); d != 45*time.Second {
		t.Errorf("got %v, want 45s", d)
	}

	t.Setenv("TEST_DURATION", "garbage")
	if d := GetenvDuration("TEST_DURATION", time.Minute); d != time.Minute {
		t.Errorf("got %v, want default on parse failure", d)
	}

	if d := GetenvDuration("TEST_DURATION_UNSET", time.Minute); d != time.Minute {
		t.Errorf("got %v, want default when unset", d)
	}
}

func TestSplitAndTrim(t *testing.T) {
	got := SplitAndTrim(" a:1 ,, b:2 ", ",")
	want := []string{"a:1", "b:2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if SplitAndTrim("", ",") != nil {
		t.Error("expected nil for empty input")
	}
}
