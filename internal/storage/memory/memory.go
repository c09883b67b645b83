// Package memory implements storage.Store as an unbounded in-memory buffer.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rwatch/datagen/internal/storage"
	"github.com/rwatch/datagen/internal/storage/parser"
)

// Store keeps entries in insertion order behind a single mutex.
//
// Parsing and logging happen outside the lock; the critical section only
// copies or mutates the slice, so a flushing query is atomic with respect
// to concurrent appends.
type Store struct {
	parser *parser.Parser

	mu      sync.Mutex // Protects entries and closed
	entries []storage.Entry
	closed  bool

	totalAppended atomic.Int64
	totalRejected atomic.Int64
	totalFlushed  atomic.Int64

	metrics *storeMetrics
}

// Option configures a Store.
type Option func(*options)

type options struct {
	registerer prometheus.Registerer
	capacity   int
}

// WithMetrics registers buffer metrics on reg. A nil registerer is ignored.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithInitialCapacity preallocates room for n entries.
func WithInitialCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.capacity = n
		}
	}
}

// New creates an empty in-memory store.
// Returns an error only if metrics registration fails.
func New(opts ...Option) (*Store, error) {
	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	s := &Store{
		parser:  parser.New(),
		entries: make([]storage.Entry, 0, o.capacity),
	}

	if o.registerer != nil {
		m, err := newStoreMetrics(o.registerer, s.Len)
		if err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
		s.metrics = m
	}

	return s, nil
}

// Append implements storage.Store.
func (s *Store) Append(ctx context.Context, lines []string) (int, error) {
	entries, failures := s.parser.ParseAll(lines)

	for _, f := range failures {
		slog.Warn("failed to parse line",
			"line", f.Line,
			"raw", f.Raw,
			"error", f.Err,
		)
	}
	if n := len(failures); n > 0 {
		s.totalRejected.Add(int64(n))
		if s.metrics != nil {
			s.metrics.rejected.Add(float64(n))
		}
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0, storage.ErrStorageClosed
	}
	s.entries = append(s.entries, entries...)
	size := len(s.entries)
	s.mu.Unlock()

	s.totalAppended.Add(int64(len(entries)))
	if s.metrics != nil {
		s.metrics.appended.Add(float64(len(entries)))
	}

	if len(entries) > 0 {
		slog.Debug("entries appended",
			"appended", len(entries),
			"rejected", len(failures),
			"size", size,
		)
	}

	return len(entries), nil
}

// Query implements storage.Store.
func (s *Store) Query(ctx context.Context, w storage.Window) ([]storage.Entry, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, storage.ErrStorageClosed
	}

	start, end, ok := w.Bounds(len(s.entries))
	if !ok {
		s.mu.Unlock()
		s.recordQuery(0)
		return nil, nil
	}

	result := make([]storage.Entry, end-start)
	copy(result, s.entries[start:end])

	flushed := 0
	if w.FlushAfter {
		flushed = len(s.entries)
		clear(s.entries)
		s.entries = s.entries[:0]
	}
	s.mu.Unlock()

	s.recordQuery(flushed)

	if flushed > 0 {
		slog.Debug("buffer flushed",
			"returned", len(result),
			"flushed", flushed,
		)
	}

	return result, nil
}

// recordQuery updates counters after a query.
func (s *Store) recordQuery(flushed int) {
	s.totalFlushed.Add(int64(flushed))
	if s.metrics == nil {
		return
	}
	s.metrics.queries.Inc()
	if flushed > 0 {
		s.metrics.flushed.Add(float64(flushed))
	}
}

// Len implements storage.Store.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Stats implements storage.Store.
func (s *Store) Stats() storage.Stats {
	return storage.Stats{
		Entries:       s.Len(),
		TotalAppended: s.totalAppended.Load(),
		TotalRejected: s.totalRejected.Load(),
		TotalFlushed:  s.totalFlushed.Load(),
	}
}

// Close implements storage.Store. It drops all entries; calling it more
// than once is a no-op.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.entries = nil
	return nil
}

var _ storage.Store = (*Store)(nil)
