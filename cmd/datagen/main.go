package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rwatch/datagen/internal/app"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	// Parse configuration from file, environment and flags
	cfg, err := app.LoadConfig(os.Args[1:], os.Getenv, os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	slog.SetDefault(app.NewLogger(cfg, os.Stderr))

	slog.Info("datagen starting",
		"version", Version,
		"commit", Commit,
		"build_time", BuildTime,
		"random", cfg.Random,
		"port", cfg.Port,
	)

	a, err := app.New(cfg, os.Stdin, os.Stdout)
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		os.Exit(1)
	}

	// Handle shutdown signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("datagen stopped with error", "error", err)
		os.Exit(1)
	}

	slog.Info("datagen stopped")
}
