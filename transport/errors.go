package transport

import "errors"

// Sentinel transport errors from spec §7. Adapter implementations should
// return (or wrap, via errors.Is-compatible wrapping) these so callers can
// distinguish them from codec/protocol failures.
var (
	ErrPortNotFound = errors.New("transport: port not found")
	ErrPortClosed   = errors.New("transport: port closed")
	ErrSendFailed   = errors.New("transport: send failed")
)
