// Package transaction implements the Transaction Engine (C6): the
// multi-page read and write flows, ack correlation, timeouts, and the
// single-in-flight-transaction ordering guarantee (spec §4.6, §5).
package transaction

import (
	"errors"
	"time"
)

// Config defines the engine's per-page timeouts and inbound queue depth.
type Config struct {
	// ReadTimeout bounds waiting for each page's read response. Default
	// 2000ms.
	ReadTimeout time.Duration
	// WritePage0AckTimeout bounds waiting for page 0's write ack.
	// Default 100ms.
	WritePage0AckTimeout time.Duration
	// WritePage1AckTimeout bounds waiting for page 1's write ack; it has
	// a longer ceiling because some backends buffer the ack. Default
	// 2000ms.
	WritePage1AckTimeout time.Duration
	// WriteSettleDwell is the unconditional minimum wait between a
	// successful slot selection and the start of a write transaction's
	// page 0, regardless of how quickly the device echoed the selection
	// (spec §4.5, §4.6.2: "Engine calls SlotSelect(slot), then dwells
	// 100 ms"). Default 100ms.
	WriteSettleDwell time.Duration
	// InboundQueueDepth bounds the sequencer's inbound frame buffer;
	// frames beyond this are dropped with a log entry. Default 16.
	InboundQueueDepth int
}

// Valid applies the spec §4.6/§5 defaults and range-checks any
// caller-supplied value.
func (c *Config) Valid() error {
	if c == nil {
		return errors.New("transaction: nil config")
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 2000 * time.Millisecond
	} else if c.ReadTimeout < 0 {
		return errors.New("transaction: ReadTimeout must be positive")
	}
	if c.WritePage0AckTimeout == 0 {
		c.WritePage0AckTimeout = 100 * time.Millisecond
	} else if c.WritePage0AckTimeout < 0 {
		return errors.New("transaction: WritePage0AckTimeout must be positive")
	}
	if c.WritePage1AckTimeout == 0 {
		c.WritePage1AckTimeout = 2000 * time.Millisecond
	} else if c.WritePage1AckTimeout < 0 {
		return errors.New("transaction: WritePage1AckTimeout must be positive")
	}
	if c.WriteSettleDwell == 0 {
		c.WriteSettleDwell = 100 * time.Millisecond
	} else if c.WriteSettleDwell < 0 {
		return errors.New("transaction: WriteSettleDwell must be positive")
	}
	if c.InboundQueueDepth == 0 {
		c.InboundQueueDepth = 16
	} else if c.InboundQueueDepth < 0 {
		return errors.New("transaction: InboundQueueDepth must be >= 0")
	}
	return nil
}

// DefaultConfig returns the spec §4.6/§5 default configuration.
func DefaultConfig() Config {
	cfg := Config{}
	_ = cfg.Valid()
	return cfg
}
