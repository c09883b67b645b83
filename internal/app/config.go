package app

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rwatch/datagen/internal/loadgen"
)

// Port bounds accepted for the outbound transport.
const (
	MinPort = 1001
	MaxPort = 65535
)

// Config holds the process configuration.
type Config struct {
	// Port is the port of the outbound transport. Required.
	// Validated here; the transport itself lives outside this process.
	Port int

	// Random selects generator mode instead of the interactive loop.
	Random bool

	// GenerateInterval is the generator period.
	// Default: 500ms. A bare integer is read as milliseconds.
	GenerateInterval time.Duration

	// StoreInterval is the storer period.
	// Default: 30s. A bare integer is read as seconds.
	StoreInterval time.Duration

	// LogLevel is one of debug, info, warn, error.
	// Default: info.
	LogLevel string

	// LogFormat is text or json.
	// Default: text.
	LogFormat string

	// MetricsAddr is the listen address of the diagnostics HTTP server.
	// Empty disables it.
	MetricsAddr string

	// ConfigFile is an optional YAML file loaded before env and flags.
	ConfigFile string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	lg := loadgen.DefaultConfig()
	return Config{
		GenerateInterval: lg.GenerateInterval,
		StoreInterval:    lg.StoreInterval,
		LogLevel:         "info",
		LogFormat:        "text",
	}
}

// Loadgen returns the generator mode part of the configuration.
func (c Config) Loadgen() loadgen.Config {
	return loadgen.Config{
		GenerateInterval: c.GenerateInterval,
		StoreInterval:    c.StoreInterval,
	}
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if c.Port == 0 {
		return &ConfigError{Field: "Port", Message: "no port value provided"}
	}
	if c.Port < MinPort || c.Port > MaxPort {
		return &ConfigError{Field: "Port", Message: fmt.Sprintf("must be between %d and %d", MinPort, MaxPort)}
	}
	if c.GenerateInterval <= 0 {
		return &ConfigError{Field: "GenerateInterval", Message: "must be positive"}
	}
	if c.StoreInterval <= 0 {
		return &ConfigError{Field: "StoreInterval", Message: "must be positive"}
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return &ConfigError{Field: "LogLevel", Message: err.Error()}
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return &ConfigError{Field: "LogFormat", Message: "must be text or json"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config: " + e.Field + ": " + e.Message
}

// LoadConfig builds the configuration from defaults, an optional YAML file,
// environment variables and command-line flags, in increasing precedence.
// The result is validated.
func LoadConfig(args []string, getenv func(string) string, output io.Writer) (Config, error) {
	flagCfg := DefaultConfig()
	fs := newFlagSet(&flagCfg, output)
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if fs.NArg() > 0 {
		return Config{}, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}

	cfg := DefaultConfig()

	path := flagCfg.ConfigFile
	if path == "" {
		path = getenv("DATAGEN_CONFIG")
	}
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
		cfg.ConfigFile = path
	}

	if err := applyEnv(&cfg, getenv); err != nil {
		return Config{}, err
	}

	fs.Visit(func(f *flag.Flag) {
		if apply, ok := flagAppliers[f.Name]; ok {
			apply(&cfg, flagCfg)
		}
	})

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// flagAppliers copy a set flag from the flag-bound config onto the result.
var flagAppliers = map[string]func(dst *Config, src Config){
	"port":              func(d *Config, s Config) { d.Port = s.Port },
	"p":                 func(d *Config, s Config) { d.Port = s.Port },
	"random":            func(d *Config, s Config) { d.Random = s.Random },
	"r":                 func(d *Config, s Config) { d.Random = s.Random },
	"generate-interval": func(d *Config, s Config) { d.GenerateInterval = s.GenerateInterval },
	"store-interval":    func(d *Config, s Config) { d.StoreInterval = s.StoreInterval },
	"log-level":         func(d *Config, s Config) { d.LogLevel = s.LogLevel },
	"log-format":        func(d *Config, s Config) { d.LogFormat = s.LogFormat },
	"metrics-addr":      func(d *Config, s Config) { d.MetricsAddr = s.MetricsAddr },
}

func newFlagSet(cfg *Config, output io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("datagen", flag.ContinueOnError)
	if output != nil {
		fs.SetOutput(output)
	}

	fs.IntVar(&cfg.Port, "port", cfg.Port, "transport port (1001-65535)")
	fs.IntVar(&cfg.Port, "p", cfg.Port, "shorthand for -port")
	fs.BoolVar(&cfg.Random, "random", cfg.Random, "generate random data instead of reading commands")
	fs.BoolVar(&cfg.Random, "r", cfg.Random, "shorthand for -random")
	fs.Var(&intervalValue{d: &cfg.GenerateInterval, unit: time.Millisecond}, "generate-interval",
		"period between generated entries (duration, or bare milliseconds)")
	fs.Var(&intervalValue{d: &cfg.StoreInterval, unit: time.Second}, "store-interval",
		"period between stores of generated entries (duration, or bare seconds)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format: text or json")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "diagnostics HTTP listen address (empty disables)")
	fs.StringVar(&cfg.ConfigFile, "config", cfg.ConfigFile, "YAML configuration file")

	return fs
}

// fileConfig is the YAML layout of a configuration file.
type fileConfig struct {
	Port             *int    `yaml:"port"`
	Random           *bool   `yaml:"random"`
	GenerateInterval *string `yaml:"generate_interval"`
	StoreInterval    *string `yaml:"store_interval"`
	LogLevel         *string `yaml:"log_level"`
	LogFormat        *string `yaml:"log_format"`
	MetricsAddr      *string `yaml:"metrics_addr"`
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.Port != nil {
		cfg.Port = *fc.Port
	}
	if fc.Random != nil {
		cfg.Random = *fc.Random
	}
	if fc.GenerateInterval != nil {
		d, err := parseInterval(*fc.GenerateInterval, time.Millisecond)
		if err != nil {
			return &ConfigError{Field: "GenerateInterval", Message: err.Error()}
		}
		cfg.GenerateInterval = d
	}
	if fc.StoreInterval != nil {
		d, err := parseInterval(*fc.StoreInterval, time.Second)
		if err != nil {
			return &ConfigError{Field: "StoreInterval", Message: err.Error()}
		}
		cfg.StoreInterval = d
	}
	if fc.LogLevel != nil {
		cfg.LogLevel = *fc.LogLevel
	}
	if fc.LogFormat != nil {
		cfg.LogFormat = *fc.LogFormat
	}
	if fc.MetricsAddr != nil {
		cfg.MetricsAddr = *fc.MetricsAddr
	}
	return nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	if v := getenv("DATAGEN_PORT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return &ConfigError{Field: "Port", Message: "error with port value " + strconv.Quote(v)}
		}
		cfg.Port = n
	}

	if v := getenv("DATAGEN_RANDOM"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return &ConfigError{Field: "Random", Message: "invalid boolean " + strconv.Quote(v)}
		}
		cfg.Random = b
	}

	if v := getenv("DATAGEN_GENERATE_INTERVAL"); v != "" {
		d, err := parseInterval(v, time.Millisecond)
		if err != nil {
			return &ConfigError{Field: "GenerateInterval", Message: err.Error()}
		}
		cfg.GenerateInterval = d
	}

	if v := getenv("DATAGEN_STORE_INTERVAL"); v != "" {
		d, err := parseInterval(v, time.Second)
		if err != nil {
			return &ConfigError{Field: "StoreInterval", Message: err.Error()}
		}
		cfg.StoreInterval = d
	}

	if v := getenv("DATAGEN_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	if v := getenv("DATAGEN_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}

	return nil
}

// parseInterval parses a Go duration, or a bare non-negative integer
// expressed in unit.
func parseInterval(s string, unit time.Duration) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseUint(s, 10, 63); err == nil {
		return time.Duration(n) * unit, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return d, nil
}

// intervalValue is a flag.Value accepting the same syntax as parseInterval.
type intervalValue struct {
	d    *time.Duration
	unit time.Duration
}

func (v *intervalValue) String() string {
	if v == nil || v.d == nil {
		return ""
	}
	return v.d.String()
}

func (v *intervalValue) Set(s string) error {
	d, err := parseInterval(s, v.unit)
	if err != nil {
		return err
	}
	*v.d = d
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, errors.New("must be debug, info, warn or error")
	}
	return level, nil
}
