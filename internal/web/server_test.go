package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/presence-sensor/internal/logic"
	"github.com/sweeney/presence-sensor/internal/status"
)

func newTestServer(t *testing.T) (*httptest.Server, *status.Tracker) {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := status.Config{
		PollMs:      100,
		DebounceMs:  20000,
		HeartbeatMs: 60000,
		Broker:      "tcp://192.168.1.200:1883",
		HTTPAddr:    ":80",
		DeviceID:    "hall-01",
		Chip:        "gpiochip0",
		Pin:         17,
	}
	tr := status.NewTracker(start, cfg)
	srv := New(":0", tr)
	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)
	return ts, tr
}

func TestJSONEndpoint(t *testing.T) {
	ts, tr := newTestServer(t)
	edge := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	tr.Update(true, edge, logic.EventCounts{Activations: 5, Deactivations: 2, Heartbeats: 9})
	tr.SetMQTTConnected(true)

	resp, err := http.Get(ts.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	var sj StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}

	if sj.Status.Presence != "PRESENT" {
		t.Errorf("Presence: got %q, want PRESENT", sj.Status.Presence)
	}
	if sj.Status.LastEdge != "2026-01-01T08:00:00Z" {
		t.Errorf("LastEdge: got %q", sj.Status.LastEdge)
	}
	if !sj.Status.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if sj.Status.Counts.Activations != 5 {
		t.Errorf("Counts.Activations: got %d, want 5", sj.Status.Counts.Activations)
	}
	if sj.Status.Counts.Heartbeats != 9 {
		t.Errorf("Counts.Heartbeats: got %d, want 9", sj.Status.Counts.Heartbeats)
	}
	if sj.Status.Config.DeviceID != "hall-01" {
		t.Errorf("Config.DeviceID: got %q", sj.Status.Config.DeviceID)
	}
	if sj.Status.Config.DebounceMs != 20000 {
		t.Errorf("Config.DebounceMs: got %d, want 20000", sj.Status.Config.DebounceMs)
	}
}

func TestJSONEndpointOmitsZeroTimes(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if strings.Contains(string(body), "last_transition") {
		t.Error("expected last_transition omitted before first transition")
	}
	if strings.Contains(string(body), "last_sent") {
		t.Error("expected last_sent omitted before first publish")
	}
}

func TestIndexPage(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.Update(false, time.Time{}, logic.EventCounts{})

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type: got %q, want text/html", ct)
	}

	body, _ := io.ReadAll(resp.Body)
	html := string(body)
	if !strings.Contains(html, "CLEAR") {
		t.Error("expected CLEAR state on page")
	}
	if !strings.Contains(html, "hall-01") {
		t.Error("expected device id on page")
	}
	if !strings.Contains(html, "gpiochip0") {
		t.Error("expected sensor chip on page")
	}
}

func TestIndexPagePresent(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.Update(true, time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC), logic.EventCounts{Activations: 1})

	resp, err := http.Get(ts.URL + "/index.html")
	if err != nil {
		t.Fatalf("GET /index.html: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "PRESENT") {
		t.Error("expected PRESENT state on page")
	}
}

func TestUnknownPathIs404(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/nope")
	if err != nil {
		t.Fatalf("GET /nope: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 404 {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}
