package ingest

import "context"

// Store persists proximity event rows.
type Store interface {
	// Insert writes one row. Inserting a row whose (partitionKey, rowKey)
	// already exists is not an error: delivery is at-least-once and the
	// insert must be idempotent.
	Insert(ctx context.Context, row Row) error

	// Close releases store resources.
	Close(ctx context.Context) error
}
