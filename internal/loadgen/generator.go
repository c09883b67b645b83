package loadgen

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/utils/clock"
)

// Bounds of the synthetic random value, both inclusive.
const (
	MinRandomValue = 1
	MaxRandomValue = 100
)

// ErrClockBeforeEpoch is returned when the wall clock reads earlier than
// the Unix epoch, i.e. it went backwards past any usable timestamp.
var ErrClockBeforeEpoch = errors.New("loadgen: clock is before unix epoch")

// Sample is one synthetic entry.
type Sample struct {
	// Time is milliseconds since the Unix epoch.
	Time int64 `json:"time"`

	// RandomValue is uniformly distributed in [MinRandomValue, MaxRandomValue].
	RandomValue int `json:"random_value"`
}

// Generator periodically creates synthetic samples and stages them
// without ever blocking on the staging lock.
type Generator struct {
	staging  *Staging
	interval time.Duration
	clock    clock.PassiveClock

	rngMu sync.Mutex
	rng   *rand.Rand

	// pending is only touched by the goroutine running Run.
	pending []string

	// Metrics
	totalGenerated atomic.Int64
	totalDelivered atomic.Int64
	clockErrors    atomic.Int64
	pendingCount   atomic.Int64
}

// GeneratorStats contains generator statistics.
type GeneratorStats struct {
	TotalGenerated int64
	TotalDelivered int64
	ClockErrors    int64
	Pending        int64
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithClock overrides the wall clock.
func WithClock(c clock.PassiveClock) GeneratorOption {
	return func(g *Generator) {
		g.clock = c
	}
}

// WithSeed makes the random sequence deterministic.
func WithSeed(seed int64) GeneratorOption {
	return func(g *Generator) {
		g.rng = rand.New(rand.NewSource(seed))
	}
}

// NewGenerator creates a generator feeding staging every interval.
func NewGenerator(staging *Staging, interval time.Duration, opts ...GeneratorOption) *Generator {
	g := &Generator{
		staging:  staging,
		interval: interval,
		clock:    clock.RealClock{},
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Next generates the next sample.
func (g *Generator) Next() (Sample, error) {
	now := g.clock.Now()
	if now.Before(time.Unix(0, 0)) {
		return Sample{}, ErrClockBeforeEpoch
	}

	g.rngMu.Lock()
	value := g.rng.Intn(MaxRandomValue-MinRandomValue+1) + MinRandomValue
	g.rngMu.Unlock()

	return Sample{
		Time:        now.UnixMilli(),
		RandomValue: value,
	}, nil
}

// NextLine generates the next sample encoded as a JSON line.
func (g *Generator) NextLine() (string, error) {
	sample, err := g.Next()
	if err != nil {
		return "", err
	}
	b, err := json.Marshal(sample)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Run generates one sample per interval until ctx is canceled.
// Anything still pending on shutdown is staged with a blocking push.
func (g *Generator) Run(ctx context.Context) {
	slog.Info("generator starting", "interval", g.interval)

	wait.UntilWithContext(ctx, func(ctx context.Context) {
		runTick("generator", g.tick)
	}, g.interval)

	if len(g.pending) > 0 {
		g.staging.Push(g.pending)
		g.delivered(len(g.pending))
		g.pending = nil
	}

	slog.Info("generator stopping")
}

// tick produces one sample and tries to hand over everything pending.
func (g *Generator) tick() {
	line, err := g.NextLine()
	if err != nil {
		g.clockErrors.Add(1)
		slog.Warn("skipping generator tick", "error", err)
	} else {
		g.pending = append(g.pending, line)
		g.totalGenerated.Add(1)
		slog.Debug("sample generated", "entry", line)
	}

	if len(g.pending) == 0 {
		return
	}

	if !g.staging.TryPush(g.pending) {
		g.pendingCount.Store(int64(len(g.pending)))
		slog.Debug("staging area busy, keeping entries pending", "pending", len(g.pending))
		return
	}

	g.delivered(len(g.pending))
	g.pending = g.pending[:0]
}

func (g *Generator) delivered(n int) {
	g.totalDelivered.Add(int64(n))
	g.pendingCount.Store(0)
}

// Stats returns generator statistics.
func (g *Generator) Stats() GeneratorStats {
	return GeneratorStats{
		TotalGenerated: g.totalGenerated.Load(),
		TotalDelivered: g.totalDelivered.Load(),
		ClockErrors:    g.clockErrors.Load(),
		Pending:        g.pendingCount.Load(),
	}
}
