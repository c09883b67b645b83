package loadgen

import (
	"sync"
	"sync/atomic"
)

// Staging holds raw lines produced by the Generator until the Storer
// drains them. It offers two acquisition strategies on the same lock:
// TryPush never waits, Push and Drain always do.
type Staging struct {
	mu    sync.Mutex
	lines []string

	// Metrics
	totalStaged  atomic.Int64
	totalDrained atomic.Int64
	contended    atomic.Int64
}

// StagingStats contains staging area statistics.
type StagingStats struct {
	Pending      int
	TotalStaged  int64
	TotalDrained int64
	Contended    int64
}

// NewStaging creates an empty staging area.
func NewStaging() *Staging {
	return &Staging{}
}

// TryPush appends lines if the lock is free and reports whether it did.
// On contention nothing is staged and the caller keeps ownership of lines.
func (s *Staging) TryPush(lines []string) bool {
	if !s.mu.TryLock() {
		s.contended.Add(1)
		return false
	}
	s.lines = append(s.lines, lines...)
	s.mu.Unlock()

	s.totalStaged.Add(int64(len(lines)))
	return true
}

// Push appends lines, waiting for the lock if needed.
func (s *Staging) Push(lines []string) {
	s.mu.Lock()
	s.lines = append(s.lines, lines...)
	s.mu.Unlock()

	s.totalStaged.Add(int64(len(lines)))
}

// Drain hands every staged line to fn while holding the lock, then clears
// the staging area. If fn returns an error or panics the lines stay staged.
// Returns the number of lines handed to fn.
func (s *Staging) Drain(fn func(lines []string) error) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.lines) == 0 {
		return 0, nil
	}

	n := len(s.lines)
	if err := fn(s.lines); err != nil {
		return n, err
	}

	clear(s.lines)
	s.lines = s.lines[:0]
	s.totalDrained.Add(int64(n))
	return n, nil
}

// Len returns the number of lines waiting to be drained.
func (s *Staging) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

// Stats returns staging statistics.
func (s *Staging) Stats() StagingStats {
	return StagingStats{
		Pending:      s.Len(),
		TotalStaged:  s.totalStaged.Load(),
		TotalDrained: s.totalDrained.Load(),
		Contended:    s.contended.Load(),
	}
}
