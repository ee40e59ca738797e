// Package config loads the harness configuration.
// It uses strict YAML decoding and explicit defaults.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Stress modes.
const (
	ModeShared = "shared" // consumers share one reader and steal messages
	ModeCloned = "cloned" // every consumer gets its own clone
)

// Config holds the complete harness configuration.
type Config struct {
	Smoke  SmokeConfig  `yaml:"smoke"`
	Stress StressConfig `yaml:"stress"`
}

// SmokeConfig drives the single-goroutine scenario.
type SmokeConfig struct {
	Capacity int     `yaml:"capacity"` // Buffer slots
	Values   []int64 `yaml:"values"`   // Values pushed before the reader is created
}

// StressConfig drives the multi-goroutine scenario.
type StressConfig struct {
	Capacity   int           `yaml:"capacity"`              // Buffer slots
	Messages   int           `yaml:"messages"`              // Messages the writer publishes
	Consumers  int           `yaml:"consumers"`             // Polling goroutines
	Mode       string        `yaml:"mode"`                  // "shared" or "cloned"
	Timeout    time.Duration `yaml:"timeout"`               // Upper bound for the whole run
	YieldEvery int           `yaml:"yield_every,omitempty"` // Empty polls between runtime.Gosched calls
	Jitter     int           `yaml:"jitter,omitempty"`      // Max spin iterations the writer inserts between pushes
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var cfg Config
	cfg.setDefaults()
	return &cfg
}

// Load reads configuration from a YAML file.
// Returns an error if the file cannot be read or decoded.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes configuration from YAML bytes and applies defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields

	// an empty document keeps every default
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.setDefaults()

	return &cfg, nil
}

// setDefaults applies explicit default values to unset fields.
func (c *Config) setDefaults() {
	if c.Smoke.Capacity == 0 {
		c.Smoke.Capacity = 8
	}
	if len(c.Smoke.Values) == 0 {
		c.Smoke.Values = []int64{127, 30}
	}
	if c.Stress.Capacity == 0 {
		c.Stress.Capacity = 1024
	}
	if c.Stress.Messages == 0 {
		c.Stress.Messages = 1000
	}
	if c.Stress.Consumers == 0 {
		c.Stress.Consumers = 8
	}
	if c.Stress.Mode == "" {
		c.Stress.Mode = ModeShared
	}
	if c.Stress.Timeout == 0 {
		c.Stress.Timeout = 5 * time.Second
	}
	if c.Stress.YieldEvery == 0 {
		c.Stress.YieldEvery = 64
	}
}
