package ingest

import "context"

// FakeStore records inserted rows for test assertions.
type FakeStore struct {
	// Rows contains all inserted rows in insertion order.
	Rows []Row

	// InsertError, if set, will be returned by Insert.
	InsertError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeStore creates a FakeStore for testing.
func NewFakeStore() *FakeStore {
	return &FakeStore{}
}

// Insert records the row.
func (f *FakeStore) Insert(ctx context.Context, row Row) error {
	if f.InsertError != nil {
		return f.InsertError
	}
	f.Rows = append(f.Rows, row)
	return nil
}

// Close marks the store as closed.
func (f *FakeStore) Close(ctx context.Context) error {
	f.Closed = true
	return nil
}
