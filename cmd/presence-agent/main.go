// Command presence-agent polls a PIR motion sensor over GPIO and publishes
// debounced presence transitions and liveness heartbeats to MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/presence-sensor/internal/config"
	"github.com/sweeney/presence-sensor/internal/gpio"
	"github.com/sweeney/presence-sensor/internal/logic"
	"github.com/sweeney/presence-sensor/internal/mqtt"
	"github.com/sweeney/presence-sensor/internal/status"
	"github.com/sweeney/presence-sensor/internal/web"
)

func main() {
	poll := flag.Duration("poll", config.GetenvDuration("PRESENCE_POLL", 100*time.Millisecond), "GPIO polling interval")
	debounce := flag.Duration("debounce", config.GetenvDuration("PRESENCE_DEBOUNCE", 20*time.Second), "Debounce window")
	heartbeat := flag.Duration("heartbeat", config.GetenvDuration("PRESENCE_HEARTBEAT", 60*time.Second), "Heartbeat interval (0 to disable)")
	broker := flag.String("broker", config.Getenv("PRESENCE_BROKER", "tcp://localhost:1883"), "MQTT broker address")
	deviceID := flag.String("device", config.Getenv("PRESENCE_DEVICE_ID", defaultDeviceID()), "Device identifier (MQTT topic segment and stream key)")
	chip := flag.String("chip", gpio.DefaultChip, "GPIO chip name")
	pin := flag.Int("pin", gpio.DefaultPin, "BCM pin number for the PIR data line")
	httpAddr := flag.String("http", ":8080", "HTTP status address (empty to disable)")
	printState := flag.Bool("print-state", false, "Print current sensor state and exit")

	flag.Parse()

	log := slog.New(slog.NewJSONHandler(os.Stderr, nil)).With(slog.String("device", *deviceID))

	if err := run(log, *poll, *debounce, *heartbeat, *broker, *deviceID, *chip, *pin, *httpAddr, *printState); err != nil {
		log.Error("fatal", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(log *slog.Logger, poll, debounce, heartbeat time.Duration, broker, deviceID, chip string, pin int, httpAddr string, printState bool) error {
	reader, err := gpio.NewRealReader(chip, pin)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer reader.Close()

	if printState {
		detected, err := reader.Read()
		if err != nil {
			return fmt.Errorf("read gpio: %w", err)
		}
		fmt.Println(presenceString(detected))
		return nil
	}

	publisher, err := mqtt.NewRealPublisher(broker, deviceID, log)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:      poll.Milliseconds(),
		DebounceMs:  debounce.Milliseconds(),
		HeartbeatMs: heartbeat.Milliseconds(),
		Broker:      broker,
		HTTPAddr:    httpAddr,
		DeviceID:    deviceID,
		Chip:        chip,
		Pin:         pin,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	if err := publisher.PublishStarted(time.Now()); err != nil {
		log.Warn("failed to publish DeviceStarted", slog.Any("error", err))
	} else {
		log.Info("published DeviceStarted")
	}

	if httpAddr != "" {
		srv := web.New(httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("http server", slog.Any("error", err))
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Info("http status server listening", slog.String("addr", httpAddr))
	}

	log.Info("started",
		slog.Duration("poll", poll),
		slog.Duration("debounce", debounce),
		slog.Duration("heartbeat", heartbeat),
		slog.String("broker", broker))

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	// The heartbeat runs on its own timer but shares the event loop with
	// polling, so transition and heartbeat emissions never race.
	var hbTick <-chan time.Time
	if heartbeat > 0 {
		hbTicker := time.NewTicker(heartbeat)
		defer hbTicker.Stop()
		hbTick = hbTicker.C
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(reader, publisher, publisher, tracker, log, debounce, heartbeat, time.Now, ticker.C, hbTick, sigCh)
}

// runLoop is the single-goroutine control loop. Polling, debouncing,
// heartbeat checks, and publishing all happen here in sequence; the
// injected clock and channels make the loop fully testable.
func runLoop(reader gpio.Reader, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, log *slog.Logger, debounce, heartbeat time.Duration, now func() time.Time, tick, hbTick <-chan time.Time, sig <-chan os.Signal) error {
	startTime := now()
	detector := logic.NewDetector(debounce, startTime)
	liveness := logic.NewLiveness(startTime)
	hb := logic.NewHeartbeat(heartbeat, liveness)

	for {
		select {
		case s := <-sig:
			log.Info("shutting down", slog.String("signal", s.String()))
			return nil

		case <-tick:
			t := now()
			detected, err := reader.Read()
			if err != nil {
				log.Error("gpio read", slog.Any("error", err))
				continue
			}

			if event := detector.Process(logic.Sample{Detected: detected, Time: t}); event != nil {
				log.Info("presence transition",
					slog.String("state", presenceString(event.Detected)))
				if err := publisher.Publish(*event); err != nil {
					log.Error("publish", slog.Any("error", err))
				}
				// Liveness advances even when the publish fails. A dead
				// broker should not produce a heartbeat burst on top of
				// the buffered replay.
				liveness.MarkSent(event.Detected, t)
				if tracker != nil {
					tracker.SetLastSent(t)
				}
			}

			if tracker != nil {
				counts := detector.Counts()
				counts.Heartbeats = hb.Sent()
				tracker.Update(detector.Detected(), detector.LastEdge(), counts)
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
			}

		case <-hbTick:
			t := now()
			event := hb.Check(t)
			if event == nil {
				// A real transition already reset the liveness clock.
				continue
			}
			log.Info("heartbeat",
				slog.String("state", presenceString(event.Detected)),
				slog.Int("sent", hb.Sent()))
			if err := publisher.Publish(*event); err != nil {
				log.Error("heartbeat publish", slog.Any("error", err))
			}
			if tracker != nil {
				tracker.SetLastSent(event.Time)
				counts := detector.Counts()
				counts.Heartbeats = hb.Sent()
				tracker.Update(detector.Detected(), detector.LastEdge(), counts)
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				if net := readNetworkInfo(); net != nil {
					tracker.SetNetwork(net)
				}
			}
		}
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}

func presenceString(detected bool) string {
	if detected {
		return "PRESENT"
	}
	return "CLEAR"
}

func defaultDeviceID() string {
	host, err := os.Hostname()
	if err != nil {
		return "presence-sensor"
	}
	return host
}
