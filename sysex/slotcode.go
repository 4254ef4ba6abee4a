package sysex

// Slot identifies one of the device's 16 custom-mode storage locations.
// Slots 0..14 are writable; slot 15 is reserved (read-only).
type Slot byte

const (
	MinSlot     Slot = 0
	MaxSlot     Slot = 15
	MaxWritable Slot = 14
)

// Valid reports whether s is any defined slot, writable or reserved.
func (s Slot) Valid() bool { return s <= MaxSlot }

// Writable reports whether s may be targeted by writeMode (spec B1: slot 15
// is rejected on write but may still be read).
func (s Slot) Writable() bool { return s <= MaxWritable }

// EncodeSlot maps a slot number to the nonlinear wire encoding used both as
// the Slot-Select CC value and as the page-0 write-ack status byte (spec
// §4.1.5, §6). The gap 0x0A..0x11 is never produced (P5).
func EncodeSlot(s Slot) (byte, *Error) {
	if !s.Valid() {
		return 0, errFieldOutOfRange("slot", "slot must be 0..15")
	}
	switch {
	case s <= 3:
		return 0x06 + byte(s), nil
	case s == 15:
		return 0x1D, nil
	default: // 4..14
		return 0x0E + byte(s), nil
	}
}

// DecodeSlot inverts EncodeSlot. Bytes in the unused gap 0x0A..0x11, or
// outside 0x06..0x1D entirely, are rejected.
func DecodeSlot(b byte) (Slot, *Error) {
	switch {
	case b >= 0x06 && b <= 0x09:
		return Slot(b - 0x06), nil
	case b == 0x1D:
		return 15, nil
	case b >= 0x12 && b <= 0x1C:
		return Slot(b - 0x0E), nil
	default:
		return 0, errFieldOutOfRange("slot", "byte does not decode to a known slot")
	}
}
