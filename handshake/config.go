// Package handshake implements the Handshake Engine (C4): the four-message
// connection/identification sequence over the data port pair (spec §4.4).
package handshake

import (
	"errors"
	"time"
)

// Config defines the handshake engine's timeouts and reconnect policy.
// The default (spec §4.4) is applied for each unspecified value, the same
// way cs104.Config.Valid() defaults IEC-104's link timers.
type Config struct {
	// SynTimeout bounds waiting for the SYN-ACK reply. Default 2000ms.
	SynTimeout time.Duration
	// InquiryTimeout bounds waiting for the device identity reply.
	// Default 2000ms.
	InquiryTimeout time.Duration
	// ReconnectAttempts is how many times Reconnect retries the full
	// sequence. Default 5.
	ReconnectAttempts int
	// ReconnectBackoffMin is the first retry delay; it doubles on each
	// subsequent attempt up to ReconnectBackoffMax. Default 250ms.
	ReconnectBackoffMin time.Duration
	// ReconnectBackoffMax caps the backoff delay. Default 4s.
	ReconnectBackoffMax time.Duration
}

// Valid applies the defaults from spec §4.4 for each unspecified value and
// range-checks any caller-supplied value.
func (c *Config) Valid() error {
	if c == nil {
		return errors.New("handshake: nil config")
	}
	if c.SynTimeout == 0 {
		c.SynTimeout = 2000 * time.Millisecond
	} else if c.SynTimeout < 0 {
		return errors.New("handshake: SynTimeout must be positive")
	}
	if c.InquiryTimeout == 0 {
		c.InquiryTimeout = 2000 * time.Millisecond
	} else if c.InquiryTimeout < 0 {
		return errors.New("handshake: InquiryTimeout must be positive")
	}
	if c.ReconnectAttempts == 0 {
		c.ReconnectAttempts = 5
	} else if c.ReconnectAttempts < 0 {
		return errors.New("handshake: ReconnectAttempts must be >= 0")
	}
	if c.ReconnectBackoffMin == 0 {
		c.ReconnectBackoffMin = 250 * time.Millisecond
	} else if c.ReconnectBackoffMin < 0 {
		return errors.New("handshake: ReconnectBackoffMin must be positive")
	}
	if c.ReconnectBackoffMax == 0 {
		c.ReconnectBackoffMax = 4 * time.Second
	} else if c.ReconnectBackoffMax < c.ReconnectBackoffMin {
		return errors.New("handshake: ReconnectBackoffMax must be >= ReconnectBackoffMin")
	}
	return nil
}

// DefaultConfig returns the spec §4.4 default configuration.
func DefaultConfig() Config {
	cfg := Config{}
	_ = cfg.Valid()
	return cfg
}
