package loadgen

import (
	"errors"
	"time"
)

// Config holds generator mode configuration.
type Config struct {
	// GenerateInterval is the period between two synthetic entries.
	GenerateInterval time.Duration

	// StoreInterval is the period between two drains of the staging area
	// into the store. It is independent of GenerateInterval.
	StoreInterval time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		GenerateInterval: 500 * time.Millisecond,
		StoreInterval:    30 * time.Second,
	}
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if c.GenerateInterval <= 0 {
		return errors.New("generate-interval must be positive")
	}
	if c.StoreInterval <= 0 {
		return errors.New("store-interval must be positive")
	}
	return nil
}
