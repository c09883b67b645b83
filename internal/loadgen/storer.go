package loadgen

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/rwatch/datagen/internal/storage"
)

// Storer periodically drains the staging area into a store.
type Storer struct {
	store    storage.Store
	staging  *Staging
	interval time.Duration

	// Metrics
	totalTicks   atomic.Int64
	totalDrained atomic.Int64
	totalStored  atomic.Int64
	failedTicks  atomic.Int64
}

// StorerStats contains storer statistics.
type StorerStats struct {
	TotalTicks   int64
	TotalDrained int64
	TotalStored  int64
	FailedTicks  int64
}

// NewStorer creates a storer draining staging into store every interval.
func NewStorer(store storage.Store, staging *Staging, interval time.Duration) *Storer {
	return &Storer{
		store:    store,
		staging:  staging,
		interval: interval,
	}
}

// Run drains the staging area every interval until ctx is canceled.
// Performs a final drain on shutdown.
func (s *Storer) Run(ctx context.Context) {
	slog.Info("storer starting", "interval", s.interval)

	wait.UntilWithContext(ctx, func(ctx context.Context) {
		runTick("storer", func() { s.drain(ctx) })
	}, s.interval)

	// The tick context is already canceled; Append does not block on it.
	runTick("storer", func() { s.drain(context.Background()) })

	slog.Info("storer stopping")
}

// Drain forces an immediate drain of the staging area.
func (s *Storer) Drain(ctx context.Context) error {
	return s.drain(ctx)
}

func (s *Storer) drain(ctx context.Context) error {
	s.totalTicks.Add(1)

	var stored int
	drained, err := s.staging.Drain(func(lines []string) error {
		n, err := s.store.Append(ctx, lines)
		stored = n
		return err
	})
	if err != nil {
		s.failedTicks.Add(1)
		slog.Error("failed to store staged entries",
			"entries", drained,
			"error", err,
		)
		return err
	}

	s.totalDrained.Add(int64(drained))
	s.totalStored.Add(int64(stored))

	if drained > 0 {
		slog.Debug("staged entries stored",
			"drained", drained,
			"stored", stored,
			"dropped", drained-stored,
		)
	}
	return nil
}

// Stats returns storer statistics.
func (s *Storer) Stats() StorerStats {
	return StorerStats{
		TotalTicks:   s.totalTicks.Load(),
		TotalDrained: s.totalDrained.Load(),
		TotalStored:  s.totalStored.Load(),
		FailedTicks:  s.failedTicks.Load(),
	}
}
