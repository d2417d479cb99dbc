// Package ingest consumes the presence event stream and persists
// qualifying events to the table store.
package ingest

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Row is one persisted proximity event. The partition key is the device
// identity; the row key combines both timestamps with a random suffix so
// it stays unique under clock skew and duplicate delivery.
type Row struct {
	PartitionKey     string    `bson:"partitionKey"`
	RowKey           string    `bson:"rowKey"`
	EnqueuedAt       time.Time `bson:"enqueuedAt"`
	Detected         bool      `bson:"detected"`
	Reason           string    `bson:"reason"`
	Body             string    `bson:"body"`             // raw wire payload for audit
	Properties       string    `bson:"properties"`       // message headers, JSON
	SystemProperties string    `bson:"systemProperties"` // stream coordinates, JSON
}

// NewRowKey builds the composite row key
// {enqueue ISO-8601}-{deviceTimestamp}-{uuid}.
func NewRowKey(enqueued time.Time, deviceTimestamp string) string {
	return fmt.Sprintf("%s-%s-%s",
		enqueued.UTC().Format(time.RFC3339), deviceTimestamp, uuid.NewString())
}
