package web

import (
	"encoding/json"
	"time"

	"github.com/sweeney/presence-sensor/internal/status"
)

// StatusJSON is the JSON representation of the daemon status.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Presence      string       `json:"presence"`
	LastEdge      string       `json:"last_transition,omitempty"`
	LastSent      string       `json:"last_sent,omitempty"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"event_counts"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	Activations   int `json:"activations"`
	Deactivations int `json:"deactivations"`
	Heartbeats    int `json:"heartbeats"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs      int64  `json:"poll_ms"`
	DebounceMs  int64  `json:"debounce_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
	DeviceID    string `json:"device_id"`
	Chip        string `json:"chip"`
	Pin         int    `json:"pin"`
}

func presenceString(detected bool) string {
	if detected {
		return "PRESENT"
	}
	return "CLEAR"
}

func formatJSON(snap status.Snapshot) []byte {
	sj := StatusJSON{
		Status: StatusInner{
			Presence:      presenceString(snap.Detected),
			UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
			StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
			Timestamp:     snap.Now.UTC().Format(time.RFC3339),
			MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
			Counts: CountsJSON{
				Activations:   snap.Counts.Activations,
				Deactivations: snap.Counts.Deactivations,
				Heartbeats:    snap.Counts.Heartbeats,
			},
			Config: ConfigJSON{
				PollMs:      snap.Config.PollMs,
				DebounceMs:  snap.Config.DebounceMs,
				HeartbeatMs: snap.Config.HeartbeatMs,
				Broker:      snap.Config.Broker,
				HTTPAddr:    snap.Config.HTTPAddr,
				DeviceID:    snap.Config.DeviceID,
				Chip:        snap.Config.Chip,
				Pin:         snap.Config.Pin,
			},
		},
	}

	if !snap.LastEdge.IsZero() {
		sj.Status.LastEdge = snap.LastEdge.UTC().Format(time.RFC3339)
	}
	if !snap.LastSentAt.IsZero() {
		sj.Status.LastSent = snap.LastSentAt.UTC().Format(time.RFC3339)
	}

	if snap.Network != nil {
		sj.Status.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}

	data, _ := json.MarshalIndent(sj, "", "  ")
	return data
}
