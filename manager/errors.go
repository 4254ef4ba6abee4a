// Package manager implements the Mode Manager (C7): the public
// ReadMode/WriteMode/Identity surface that ties the handshake engine, slot
// selector, transaction engine, codec, and mode model together.
package manager

import (
	"errors"
	"fmt"
)

// ErrInvalidSlot is returned by WriteMode for slot 15, which is read-only
// on the device (spec B1).
var ErrInvalidSlot = errors.New("manager: slot is not writable")

// ErrNotReady is returned by Identity when it is called before the
// handshake engine reaches its Ready state. ReadMode and WriteMode do not
// check the handshake state.
var ErrNotReady = errors.New("manager: handshake not ready")

// ProtocolError wraps any failure surfaced by the codec or transaction
// layers beneath the manager, so callers can distinguish "the device or
// protocol misbehaved" from a local validation error (spec §7).
type ProtocolError struct {
	Err error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("manager: protocol error: %v", e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }
