package sysex

// Length-prefixed 7-bit ASCII strings (spec §4.1.9): a single marker byte
// 0x60+length precedes exactly length ASCII bytes. This supersedes any
// attempt to detect a delimiter by content.
const lengthMarkerBase byte = 0x60

// appendLengthString appends the marker+bytes form of s. It does not check
// the length: callers validate s first (validateName for names, up to 18;
// validateLabel for labels, up to 31), which also picks the *Error kind a
// violation produces.
func appendLengthString(c *cursor, s string) {
	c.appendByte(lengthMarkerBase + byte(len(s)))
	c.appendBytes([]byte(s)...)
}

// takeLengthString consumes a marker byte and exactly that many following
// bytes.
func takeLengthString(c *cursor) (string, *Error) {
	marker, err := c.takeByte()
	if err != nil {
		return "", err
	}
	if marker < lengthMarkerBase {
		return "", errFraming("expected length marker")
	}
	n := int(marker - lengthMarkerBase)
	b, terr := c.take(n)
	if terr != nil {
		return "", terr
	}
	return string(b), nil
}

func is7BitASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7F {
			return false
		}
	}
	return true
}

// MaxNameLength and MinNameLength are the mode-name bounds (spec §3, P6).
const (
	MinNameLength = 1
	MaxNameLength = 18
)

func validateName(name string) *Error {
	if len(name) < MinNameLength || len(name) > MaxNameLength {
		return errNameTooLong("name must be 1..18 characters")
	}
	if !is7BitASCII(name) {
		return errFieldOutOfRange("name", "name must be 7-bit ASCII")
	}
	return nil
}

// MaxLabelLength bounds a single label; the marker byte's 5 low bits cap
// any length-prefixed string at 31, and the device-observed upper bound
// for a label is well inside that.
const MaxLabelLength = 31

func validateLabel(text string) *Error {
	if len(text) < 1 || len(text) > MaxLabelLength {
		return errLabelTooLong("label must be 1..31 characters")
	}
	if !is7BitASCII(text) {
		return errFieldOutOfRange("label", "label must be 7-bit ASCII")
	}
	return nil
}

// labelRawToLogical and labelLogicalToRaw implement the label-id offset
// (spec §4.1.10, P4): raw ids 25..28 carry logical ids 26..29; every other
// id passes through unchanged.
func labelRawToLogical(raw byte) byte {
	if raw >= 25 && raw <= 28 {
		return raw + 1
	}
	return raw
}

func labelLogicalToRaw(logical byte) byte {
	if logical >= 26 && logical <= 29 {
		return logical - 1
	}
	return logical
}
