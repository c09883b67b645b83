package app

import (
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig([]string{"-port", "1002"}, env(nil), io.Discard)
	require.NoError(t, err)

	assert.Equal(t, 1002, cfg.Port)
	assert.False(t, cfg.Random)
	assert.Equal(t, 500*time.Millisecond, cfg.GenerateInterval)
	assert.Equal(t, 30*time.Second, cfg.StoreInterval)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Empty(t, cfg.MetricsAddr)
}

func TestLoadConfig_Port(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    int
		wantErr bool
	}{
		{"missing", nil, 0, true},
		{"long flag", []string{"-port", "1002"}, 1002, false},
		{"short flag", []string{"-p", "65535"}, 65535, false},
		{"double dash", []string{"--port=1001"}, 1001, false},
		{"not numeric", []string{"-p", "abc1234"}, 0, true},
		{"too high", []string{"-p", "123456789"}, 0, true},
		{"too low", []string{"-p", "123"}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig(tt.args, env(nil), io.Discard)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Port)
		})
	}
}

func TestLoadConfig_PortErrorMessages(t *testing.T) {
	_, err := LoadConfig(nil, env(nil), io.Discard)
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "Port", ce.Field)
	assert.Contains(t, ce.Message, "no port")

	_, err = LoadConfig([]string{"-p", "123"}, env(nil), io.Discard)
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "config: Port: must be between 1001 and 65535", ce.Error())
}

func TestLoadConfig_Intervals(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		wantGenerate time.Duration
		wantStore    time.Duration
	}{
		{"bare integers use legacy units", []string{"-generate-interval", "250", "-store-interval", "5"}, 250 * time.Millisecond, 5 * time.Second},
		{"go durations", []string{"-generate-interval", "1s", "-store-interval", "1m30s"}, time.Second, 90 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"-p", "2000", "-r"}, tt.args...)
			cfg, err := LoadConfig(args, env(nil), io.Discard)
			require.NoError(t, err)

			assert.True(t, cfg.Random)
			assert.Equal(t, tt.wantGenerate, cfg.GenerateInterval)
			assert.Equal(t, tt.wantStore, cfg.StoreInterval)
			assert.Equal(t, tt.wantGenerate, cfg.Loadgen().GenerateInterval)
			assert.Equal(t, tt.wantStore, cfg.Loadgen().StoreInterval)
		})
	}
}

func TestLoadConfig_InvalidInputs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  map[string]string
	}{
		{"bad interval flag", []string{"-p", "2000", "-store-interval", "soon"}, nil},
		{"zero interval", []string{"-p", "2000", "-generate-interval", "0"}, nil},
		{"unknown flag", []string{"-p", "2000", "-bogus"}, nil},
		{"positional argument", []string{"-p", "2000", "extra"}, nil},
		{"bad log level", []string{"-p", "2000", "-log-level", "loud"}, nil},
		{"bad log format", []string{"-p", "2000", "-log-format", "xml"}, nil},
		{"bad env port", nil, map[string]string{"DATAGEN_PORT": "x"}},
		{"bad env random", []string{"-p", "2000"}, map[string]string{"DATAGEN_RANDOM": "maybe"}},
		{"bad env interval", []string{"-p", "2000"}, map[string]string{"DATAGEN_STORE_INTERVAL": "-"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(tt.args, env(tt.env), io.Discard)
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_Help(t *testing.T) {
	_, err := LoadConfig([]string{"-h"}, env(nil), io.Discard)
	assert.True(t, errors.Is(err, flag.ErrHelp))
}

func TestLoadConfig_Precedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "datagen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: 3000
random: true
generate_interval: "100"
store_interval: 2m
log_level: warn
log_format: json
metrics_addr: ":9100"
`), 0o600))

	t.Run("file only", func(t *testing.T) {
		cfg, err := LoadConfig([]string{"-config", path}, env(nil), io.Discard)
		require.NoError(t, err)

		assert.Equal(t, 3000, cfg.Port)
		assert.True(t, cfg.Random)
		assert.Equal(t, 100*time.Millisecond, cfg.GenerateInterval)
		assert.Equal(t, 2*time.Minute, cfg.StoreInterval)
		assert.Equal(t, "warn", cfg.LogLevel)
		assert.Equal(t, "json", cfg.LogFormat)
		assert.Equal(t, ":9100", cfg.MetricsAddr)
		assert.Equal(t, path, cfg.ConfigFile)
	})

	t.Run("env overrides file", func(t *testing.T) {
		cfg, err := LoadConfig(nil, env(map[string]string{
			"DATAGEN_CONFIG":            path,
			"DATAGEN_PORT":              "4000",
			"DATAGEN_RANDOM":            "false",
			"DATAGEN_GENERATE_INTERVAL": "2s",
			"DATAGEN_LOG_LEVEL":         "debug",
		}), io.Discard)
		require.NoError(t, err)

		assert.Equal(t, 4000, cfg.Port)
		assert.False(t, cfg.Random)
		assert.Equal(t, 2*time.Second, cfg.GenerateInterval)
		assert.Equal(t, 2*time.Minute, cfg.StoreInterval)
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("flags override env", func(t *testing.T) {
		cfg, err := LoadConfig(
			[]string{"-config", path, "-p", "5000", "-store-interval", "7"},
			env(map[string]string{"DATAGEN_PORT": "4000", "DATAGEN_STORE_INTERVAL": "1s"}),
			io.Discard,
		)
		require.NoError(t, err)

		assert.Equal(t, 5000, cfg.Port)
		assert.Equal(t, 7*time.Second, cfg.StoreInterval)
		assert.True(t, cfg.Random, "unset flags must not reset file values")
	})
}

func TestLoadConfig_BadFile(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadConfig([]string{"-config", filepath.Join(dir, "missing.yaml")}, env(nil), io.Discard)
	assert.Error(t, err)

	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [1"), 0o600))
	_, err = LoadConfig([]string{"-config", path}, env(nil), io.Discard)
	assert.Error(t, err)

	path = filepath.Join(dir, "interval.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 2000\nstore_interval: later\n"), 0o600))
	_, err = LoadConfig([]string{"-config", path}, env(nil), io.Discard)
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "StoreInterval", ce.Field)
}

func TestParseInterval(t *testing.T) {
	tests := []struct {
		in      string
		unit    time.Duration
		want    time.Duration
		wantErr bool
	}{
		{"500", time.Millisecond, 500 * time.Millisecond, false},
		{"30", time.Second, 30 * time.Second, false},
		{" 15s ", time.Second, 15 * time.Second, false},
		{"1h", time.Second, time.Hour, false},
		{"-5s", time.Second, -5 * time.Second, false},
		{"-5", time.Second, 0, true},
		{"abc", time.Second, 0, true},
		{"", time.Second, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseInterval(tt.in, tt.unit)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
