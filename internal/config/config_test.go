package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	require.Equal(t, 8, cfg.Smoke.Capacity)
	require.Equal(t, []int64{127, 30}, cfg.Smoke.Values)
	require.Equal(t, 1024, cfg.Stress.Capacity)
	require.Equal(t, 1000, cfg.Stress.Messages)
	require.Equal(t, 8, cfg.Stress.Consumers)
	require.Equal(t, ModeShared, cfg.Stress.Mode)
	require.Equal(t, 5*time.Second, cfg.Stress.Timeout)
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
smoke:
  capacity: 4
  values: [1, 2, 3]
stress:
  capacity: 64
  messages: 5000
  consumers: 3
  mode: cloned
  timeout: 250ms
  jitter: 16
`))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	require.Equal(t, 4, cfg.Smoke.Capacity)
	require.Equal(t, []int64{1, 2, 3}, cfg.Smoke.Values)
	require.Equal(t, 64, cfg.Stress.Capacity)
	require.Equal(t, 5000, cfg.Stress.Messages)
	require.Equal(t, 3, cfg.Stress.Consumers)
	require.Equal(t, ModeCloned, cfg.Stress.Mode)
	require.Equal(t, 250*time.Millisecond, cfg.Stress.Timeout)
	require.Equal(t, 16, cfg.Stress.Jitter)
	require.Equal(t, 64, cfg.Stress.YieldEvery) // default
}

func TestParseEmptyKeepsDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("stress:\n  capacty: 8\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode config")
}

// Capacity is configured per scenario; there is no top-level key.
func TestParseRejectsTopLevelCapacity(t *testing.T) {
	_, err := Parse([]byte("capacity: 1024\nsmoke:\n  capacity: 8\n"))
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seqring.yaml")
	require.NoError(t, os.WriteFile(path, []byte("stress:\n  consumers: 2\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 2, cfg.Stress.Consumers)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "read config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"smoke capacity", func(c *Config) { c.Smoke.Capacity = -1 }, "smoke config: capacity"},
		{"smoke overflow", func(c *Config) { c.Smoke.Values = make([]int64, 9) }, "smoke config: values"},
		{"stress capacity", func(c *Config) { c.Stress.Capacity = -4 }, "stress config: capacity"},
		{"stress messages", func(c *Config) { c.Stress.Messages = -1 }, "stress config: messages"},
		{"stress consumers", func(c *Config) { c.Stress.Consumers = -1 }, "stress config: consumers"},
		{"stress mode", func(c *Config) { c.Stress.Mode = "fanout" }, "stress config: mode"},
		{"stress timeout", func(c *Config) { c.Stress.Timeout = -time.Second }, "stress config: timeout"},
		{"stress yield", func(c *Config) { c.Stress.YieldEvery = -1 }, "stress config: yield_every"},
		{"stress jitter", func(c *Config) { c.Stress.Jitter = -1 }, "stress config: jitter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			require.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}
