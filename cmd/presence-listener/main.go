// Command presence-listener consumes the partitioned presence event stream
// and persists ProximityInfo events as rows in the table store.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/segmentio/kafka-go"

	"github.com/sweeney/presence-sensor/internal/config"
	"github.com/sweeney/presence-sensor/internal/ingest"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	cfg, err := config.LoadListener()
	if err != nil {
		log.Error("configuration", slog.Any("error", err))
		os.Exit(1)
	}

	if err := run(log, cfg); err != nil {
		log.Error("fatal", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(log *slog.Logger, cfg *config.ListenerConfig) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := ingest.NewMongoStore(ctx, cfg.MongoURI, cfg.Database, cfg.Collection)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  500 * time.Millisecond,
	})
	defer reader.Close()

	if cfg.HTTPBind != "" {
		go serveHealth(log, cfg.HTTPBind)
	}

	log.Info("started",
		slog.Any("brokers", cfg.KafkaBrokers),
		slog.String("topic", cfg.Topic),
		slog.String("group", cfg.GroupID),
		slog.String("collection", cfg.Collection))

	consumer := ingest.NewConsumer(reader, store, log)
	return consumer.Run(ctx)
}

func serveHealth(log *slog.Logger, bind string) {
	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)

	log.Info("health endpoint listening", slog.String("bind", bind))
	if err := http.ListenAndServe(bind, handlers.LoggingHandler(os.Stdout, r)); err != nil {
		log.Error("health server", slog.Any("error", err))
	}
}
