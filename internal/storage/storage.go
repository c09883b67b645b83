package storage

import (
	"context"
	"errors"
	"io"
)

// Common errors returned by storage implementations.
var (
	ErrStorageClosed = errors.New("storage: storage is closed")
)

// Store defines the interface for record buffers.
// Implementations must be safe for concurrent use.
type Store interface {
	// Append parses each raw line as a JSON document and stores the
	// valid ones in order. Lines that fail to parse are skipped and
	// reported; they never fail the batch.
	// Returns the number of entries stored.
	Append(ctx context.Context, lines []string) (int, error)

	// Query returns the entries selected by w, or nil when the window
	// is empty (zero count or empty store). If w.FlushAfter is set the
	// store is cleared atomically with the read.
	Query(ctx context.Context, w Window) ([]Entry, error)

	// Len returns the number of entries currently stored.
	Len() int

	// Stats returns store statistics.
	Stats() Stats

	// Close releases resources.
	io.Closer
}
