package sysex

// Short (non-SysEx) messages exchanged on the control port pair: slot
// selection and the one-time feature-control enable (spec §4.1.5-4.1.6).

const (
	slotSelectStatus byte = 0xB6 // control-change, channel index 6 (0-based)
	slotSelectCC     byte = 0x1E

	featureEnableStatus byte = 0x9F // note-on, channel 16 (1-based) == 0-based 15
	featureEnableNote   byte = 0x0B
	featureEnableVel    byte = 0x7F
)

// BuildSlotSelect builds the 3-byte control-change message that asks the
// control surface to select slot s (spec §4.1.5, scenario 2).
func BuildSlotSelect(s Slot) ([]byte, *Error) {
	if !s.Valid() {
		return nil, errFieldOutOfRange("slot", "slot must be 0..15")
	}
	v, err := EncodeSlot(s)
	if err != nil {
		return nil, err
	}
	return []byte{slotSelectStatus, slotSelectCC, v}, nil
}

// ParseSlotSelect parses a 3-byte message as a slot-select control-change,
// used both to validate what we send and to recognize the device's echo on
// the control input (spec §4.5).
func ParseSlotSelect(b []byte) (Slot, *Error) {
	if len(b) != 3 {
		return 0, errTruncated("slot-select is exactly 3 bytes")
	}
	if b[0] != slotSelectStatus || b[1] != slotSelectCC {
		return 0, errFraming("not a slot-select control-change")
	}
	return DecodeSlot(b[2])
}

// BuildFeatureEnable builds the 3-byte note-on sent once after opening the
// control pair (spec §4.1.6).
func BuildFeatureEnable() []byte {
	return []byte{featureEnableStatus, featureEnableNote, featureEnableVel}
}
