package session

import (
	"fmt"
	"time"
)

const (
	DefaultShowDelay     = 200 * time.Millisecond
	DefaultActivateDelay = 500 * time.Millisecond
	DefaultHideDelay     = 2500 * time.Millisecond
	DefaultAutoStop      = 5 * time.Minute
)

// Config holds the timing constants, fixed when a session starts
type Config struct {
	ShowDelay     time.Duration
	ActivateDelay time.Duration
	HideDelay     time.Duration
	AutoStop      time.Duration
}

// DefaultConfig returns the standard game timings
func DefaultConfig() Config {
	return Config{
		ShowDelay:     DefaultShowDelay,
		ActivateDelay: DefaultActivateDelay,
		HideDelay:     DefaultHideDelay,
		AutoStop:      DefaultAutoStop,
	}
}

// Validate rejects non-positive durations
func (c Config) Validate() error {
	checks := []struct {
		name string
		d    time.Duration
	}{
		{"show delay", c.ShowDelay},
		{"activate delay", c.ActivateDelay},
		{"hide delay", c.HideDelay},
		{"auto stop", c.AutoStop},
	}
	for _, chk := range checks {
		if chk.d <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %s", ErrInvalidConfig, chk.name, chk.d)
		}
	}
	return nil
}
