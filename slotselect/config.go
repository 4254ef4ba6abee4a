// Package slotselect implements the Slot Selector (C5): sending the
// control-surface "select slot" message and awaiting the device's echo
// before writes proceed (spec §4.5).
package slotselect

import (
	"errors"
	"time"
)

// Config defines the selector's confirm-wait and fallback-dwell timeouts.
type Config struct {
	// ConfirmTimeout bounds waiting for the device to echo the
	// selection. Default 300ms.
	ConfirmTimeout time.Duration
	// Dwell is the minimum safe wait before proceeding when no echo
	// arrives, since some firmware revisions never echo. Default 100ms.
	Dwell time.Duration
}

// Valid applies the spec §4.5 defaults and range-checks any
// caller-supplied value.
func (c *Config) Valid() error {
	if c == nil {
		return errors.New("slotselect: nil config")
	}
	if c.ConfirmTimeout == 0 {
		c.ConfirmTimeout = 300 * time.Millisecond
	} else if c.ConfirmTimeout < 0 {
		return errors.New("slotselect: ConfirmTimeout must be positive")
	}
	if c.Dwell == 0 {
		c.Dwell = 100 * time.Millisecond
	} else if c.Dwell < 0 {
		return errors.New("slotselect: Dwell must be positive")
	}
	return nil
}

// DefaultConfig returns the spec §4.5 default configuration.
func DefaultConfig() Config {
	cfg := Config{}
	_ = cfg.Valid()
	return cfg
}
