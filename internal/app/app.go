// Package app wires configuration, storage and the selected run mode.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/rwatch/datagen/internal/console"
	"github.com/rwatch/datagen/internal/loadgen"
	"github.com/rwatch/datagen/internal/storage/memory"
)

const shutdownTimeout = 5 * time.Second

// App runs either the interactive command loop or the generator pipeline
// against a single in-memory store. The two modes are never combined.
type App struct {
	cfg      Config
	store    *memory.Store
	registry *prometheus.Registry
	pipeline *loadgen.Pipeline
	loop     *console.Loop
}

// New creates an App. in and out are used by the interactive loop: commands
// are read from in, prompts and send results are written to out.
func New(cfg Config, in io.Reader, out io.Writer) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	store, err := memory.New(memory.WithMetrics(registry))
	if err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}

	a := &App{
		cfg:      cfg,
		store:    store,
		registry: registry,
	}

	if cfg.Random {
		p, err := loadgen.NewPipeline(store, cfg.Loadgen())
		if err != nil {
			store.Close()
			return nil, err
		}
		if err := loadgen.RegisterMetrics(registry, p); err != nil {
			store.Close()
			return nil, fmt.Errorf("register loadgen metrics: %w", err)
		}
		a.pipeline = p
	} else {
		d := console.NewDispatcher(store, console.NewWriterSink(out))
		a.loop = console.NewLoop(d, in, out)
	}

	return a, nil
}

// Run blocks until the selected mode finishes or ctx is canceled.
func (a *App) Run(ctx context.Context) error {
	defer a.store.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.cfg.MetricsAddr != "" {
		srv, err := a.startHTTP()
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	if a.pipeline != nil {
		slog.Info("running in random mode",
			"generate_interval", a.cfg.GenerateInterval,
			"store_interval", a.cfg.StoreInterval,
		)
		a.pipeline.Run(ctx)

		stats := a.pipeline.Stats()
		slog.Info("random mode stopped",
			"generated", stats.Generator.TotalGenerated,
			"stored", stats.Storer.TotalStored,
			"buffered", a.store.Len(),
		)
		return nil
	}

	slog.Info("running in interactive mode")
	return a.loop.Run(ctx)
}

// Store returns the underlying store.
func (a *App) Store() *memory.Store {
	return a.store
}

func (a *App) startHTTP() (*http.Server, error) {
	lis, err := net.Listen("tcp", a.cfg.MetricsAddr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", a.cfg.MetricsAddr, err)
	}

	srv := &http.Server{
		Handler:           NewHTTPServer(a.store, a.pipeline, a.registry).Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("diagnostics server starting", "address", lis.Addr().String())
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("diagnostics server error", "error", err)
		}
	}()

	return srv, nil
}
