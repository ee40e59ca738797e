package config

import (
	"fmt"
)

// Validate checks that all configuration values are within acceptable ranges.
// Returns an error describing the first validation failure found.
func (c *Config) Validate() error {
	if err := c.Smoke.Validate(); err != nil {
		return fmt.Errorf("smoke config: %w", err)
	}
	if err := c.Stress.Validate(); err != nil {
		return fmt.Errorf("stress config: %w", err)
	}
	return nil
}

// Validate checks smoke scenario values.
func (s *SmokeConfig) Validate() error {
	if s.Capacity <= 0 {
		return fmt.Errorf("capacity must be > 0, got %d", s.Capacity)
	}
	if len(s.Values) > s.Capacity {
		return fmt.Errorf("values must fit in capacity %d, got %d", s.Capacity, len(s.Values))
	}
	return nil
}

// Validate checks stress scenario values.
func (s *StressConfig) Validate() error {
	if s.Capacity <= 0 {
		return fmt.Errorf("capacity must be > 0, got %d", s.Capacity)
	}
	if s.Messages <= 0 {
		return fmt.Errorf("messages must be > 0, got %d", s.Messages)
	}
	if s.Consumers <= 0 {
		return fmt.Errorf("consumers must be > 0, got %d", s.Consumers)
	}
	if s.Mode != ModeShared && s.Mode != ModeCloned {
		return fmt.Errorf("mode must be %q or %q, got %q", ModeShared, ModeCloned, s.Mode)
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0, got %s", s.Timeout)
	}
	if s.YieldEvery < 0 {
		return fmt.Errorf("yield_every must be >= 0, got %d", s.YieldEvery)
	}
	if s.Jitter < 0 {
		return fmt.Errorf("jitter must be >= 0, got %d", s.Jitter)
	}
	return nil
}
