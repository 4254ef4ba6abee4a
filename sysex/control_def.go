package sysex

// ControlID is one of the 48 physical control identifiers (spec §6).
type ControlID byte

// The physical control-id ranges (spec §6). The track focus buttons
// (0x30..0x37) and track control buttons (0x38..0x3F) share the single
// ButtonStart..ButtonEnd range and both map to the logical ControlType
// Button.
const (
	EncoderTopStart ControlID = 0x10
	EncoderTopEnd   ControlID = 0x17
	EncoderMidStart ControlID = 0x18
	EncoderMidEnd   ControlID = 0x1F
	EncoderBotStart ControlID = 0x20
	EncoderBotEnd   ControlID = 0x27
	FaderStart      ControlID = 0x28
	FaderEnd        ControlID = 0x2F
	ButtonStart     ControlID = 0x30
	ButtonEnd       ControlID = 0x3F
)

// Page0Start..Page0End and Page1Start..Page1End are the 24-wide id ranges
// carried by each page (spec §4.1.7).
const (
	Page0Start ControlID = 0x10
	Page0End   ControlID = 0x27
	Page1Start ControlID = 0x28
	Page1End   ControlID = 0x3F
)

// PageOf reports which page a control id belongs to.
func PageOf(id ControlID) (Page, *Error) {
	switch {
	case id >= Page0Start && id <= Page0End:
		return Page0, nil
	case id >= Page1Start && id <= Page1End:
		return Page1, nil
	default:
		return 0, errFieldOutOfRange("controlId", "id outside the 48 physical controls")
	}
}

// ControlType is the enumerated control family (spec §3).
type ControlType byte

const (
	EncoderTop ControlType = iota
	EncoderMid
	EncoderBot
	Fader
	Button
)

func (t ControlType) String() string {
	switch t {
	case EncoderTop:
		return "encoder-top"
	case EncoderMid:
		return "encoder-mid"
	case EncoderBot:
		return "encoder-bot"
	case Fader:
		return "fader"
	case Button:
		return "button"
	default:
		return "unknown"
	}
}

// ControlTypeForID infers the control type from a physical id (spec §3:
// "inferable from controlId range; redundantly stored for validation").
func ControlTypeForID(id ControlID) (ControlType, *Error) {
	switch {
	case id >= EncoderTopStart && id <= EncoderTopEnd:
		return EncoderTop, nil
	case id >= EncoderMidStart && id <= EncoderMidEnd:
		return EncoderMid, nil
	case id >= EncoderBotStart && id <= EncoderBotEnd:
		return EncoderBot, nil
	case id >= FaderStart && id <= FaderEnd:
		return Fader, nil
	case id >= ButtonStart && id <= ButtonEnd:
		return Button, nil
	default:
		return 0, errFieldOutOfRange("controlId", "id outside the 48 physical controls")
	}
}

// typeCode is the on-wire byte for a control type in a control-definition
// block (spec §4.1, "Control definition"). Buttons have two observed
// subtypes; typeCodeForType emits the canonical one and typeForCode accepts
// both on parse.
const (
	typeCodeFader      byte = 0x00
	typeCodeEncoderTop byte = 0x05
	typeCodeEncoderMid byte = 0x09
	typeCodeEncoderBot byte = 0x0D
	typeCodeButtonA    byte = 0x19
	typeCodeButtonB    byte = 0x25
)

func typeCodeForType(t ControlType) (byte, *Error) {
	switch t {
	case Fader:
		return typeCodeFader, nil
	case EncoderTop:
		return typeCodeEncoderTop, nil
	case EncoderMid:
		return typeCodeEncoderMid, nil
	case EncoderBot:
		return typeCodeEncoderBot, nil
	case Button:
		return typeCodeButtonA, nil
	default:
		return 0, errUnknownTypeCode("no wire code for this control type")
	}
}

func typeForCode(code byte) (ControlType, *Error) {
	switch code {
	case typeCodeFader:
		return Fader, nil
	case typeCodeEncoderTop:
		return EncoderTop, nil
	case typeCodeEncoderMid:
		return EncoderMid, nil
	case typeCodeEncoderBot:
		return EncoderBot, nil
	case typeCodeButtonA, typeCodeButtonB:
		return Button, nil
	default:
		// Spec §9 open question (c): a third button subtype must surface
		// UnknownTypeCode rather than be guessed at.
		return 0, errUnknownTypeCode("unrecognized control type code")
	}
}

// Behaviour is the enumerated control behaviour (spec §3).
type Behaviour byte

const (
	Absolute Behaviour = iota
	Relative1
	Relative2
	Relative3
	Toggle
)

func (b Behaviour) String() string {
	switch b {
	case Absolute:
		return "absolute"
	case Relative1:
		return "relative1"
	case Relative2:
		return "relative2"
	case Relative3:
		return "relative3"
	case Toggle:
		return "toggle"
	default:
		return "unknown"
	}
}

// behaviourWireCode and parseBehaviourWireCode resolve spec §9 open
// question (a): the source never establishes what the write payload's
// fixed "01 48" block means beyond "preserve verbatim". This codec treats
// the first of those two bytes as the behaviour code and reuses the same
// table for the read payload's <p1> field (0x01 is exactly the observed
// write-payload byte, and lines up with Absolute); the second byte ("48"
// on write, <p2> on read) carries no established meaning and is treated as
// a fixed literal on write, simply consumed and discarded on read.
const (
	behaviourWireAbsolute  byte = 0x01
	behaviourWireRelative1 byte = 0x02
	behaviourWireRelative2 byte = 0x03
	behaviourWireRelative3 byte = 0x04
	behaviourWireToggle    byte = 0x05

	controlDefOpaqueLiteral byte = 0x48 // second byte of the write payload's fixed block; meaning unestablished
)

func behaviourWireCode(b Behaviour) (byte, *Error) {
	switch b {
	case Absolute:
		return behaviourWireAbsolute, nil
	case Relative1:
		return behaviourWireRelative1, nil
	case Relative2:
		return behaviourWireRelative2, nil
	case Relative3:
		return behaviourWireRelative3, nil
	case Toggle:
		return behaviourWireToggle, nil
	default:
		return 0, errFieldOutOfRange("behaviour", "unknown behaviour")
	}
}

func parseBehaviourWireCode(v byte) (Behaviour, *Error) {
	switch v {
	case behaviourWireAbsolute:
		return Absolute, nil
	case behaviourWireRelative1:
		return Relative1, nil
	case behaviourWireRelative2:
		return Relative2, nil
	case behaviourWireRelative3:
		return Relative3, nil
	case behaviourWireToggle:
		return Toggle, nil
	default:
		return 0, errFieldOutOfRange("behaviour", "unrecognized behaviour code")
	}
}

// ValidBehaviourForType reports whether b is one of the behaviours the
// control family accepts (spec §3: "Faders and encoders accept absolute
// and relative variants; buttons accept absolute/toggle").
func ValidBehaviourForType(t ControlType, b Behaviour) bool {
	switch t {
	case Fader, EncoderTop, EncoderMid, EncoderBot:
		switch b {
		case Absolute, Relative1, Relative2, Relative3:
			return true
		}
		return false
	case Button:
		switch b {
		case Absolute, Toggle:
			return true
		}
		return false
	default:
		return false
	}
}

// ControlDef is the wire-level parsed form of one control's binding,
// independent of the higher-level Mode Model (spec §4.1, "Control
// definition").
type ControlDef struct {
	ID        ControlID
	Type      ControlType
	Channel   byte // 0..15
	Behaviour Behaviour
	MinValue  byte // 0..127
	CC        byte // 0..127
	MaxValue  byte // 0..127
}

func validateControlDefFields(d ControlDef) *Error {
	if d.Channel > 15 {
		return errFieldOutOfRange("channel", "midi channel must be 0..15")
	}
	if d.CC > 127 {
		return errFieldOutOfRange("ccNumber", "cc number must be 0..127")
	}
	if d.MinValue > 127 {
		return errFieldOutOfRange("minValue", "min value must be 0..127")
	}
	if d.MaxValue > 127 {
		return errFieldOutOfRange("maxValue", "max value must be 0..127")
	}
	if d.MinValue > d.MaxValue {
		return errFieldOutOfRange("minValue", "min value must be <= max value")
	}
	return nil
}

// controlDefReadMarker and controlDefWriteMarker are the leading byte of a
// control-definition block in, respectively, a read response and a write
// request (spec §4.1).
const (
	controlDefReadMarker  byte = 0x48
	controlDefWriteMarker byte = 0x49
)

// appendReadControlDef appends the 10-byte read-response control
// definition for d.
func appendReadControlDef(c *cursor, d ControlDef) *Error {
	if err := validateControlDefFields(d); err != nil {
		return err
	}
	typeCode, err := typeCodeForType(d.Type)
	if err != nil {
		return err
	}
	p1, err := behaviourWireCode(d.Behaviour)
	if err != nil {
		return err
	}
	c.appendByte(controlDefReadMarker)
	c.appendByte(byte(d.ID))
	c.appendByte(0x02)
	c.appendByte(typeCode)
	c.appendByte(d.Channel)
	c.appendByte(p1)
	c.appendByte(0x00) // p2: opaque, no established meaning on read
	c.appendByte(d.MinValue)
	c.appendByte(d.CC)
	c.appendByte(d.MaxValue)
	return nil
}

// takeReadControlDef consumes one 10-byte read-response control
// definition, assuming the leading marker has already been checked by the
// caller's dispatch loop.
func takeReadControlDef(c *cursor) (ControlDef, *Error) {
	if err := c.expectByte(controlDefReadMarker, "control definition marker"); err != nil {
		return ControlDef{}, err
	}
	rawID, err := c.takeByte()
	if err != nil {
		return ControlDef{}, err
	}
	if err := c.expectByte(0x02, "control definition fixed byte"); err != nil {
		return ControlDef{}, err
	}
	typeCode, err := c.takeByte()
	if err != nil {
		return ControlDef{}, err
	}
	typ, terr := typeForCode(typeCode)
	if terr != nil {
		return ControlDef{}, terr
	}
	channel, err := c.takeByte()
	if err != nil {
		return ControlDef{}, err
	}
	p1, err := c.takeByte()
	if err != nil {
		return ControlDef{}, err
	}
	behaviour, berr := parseBehaviourWireCode(p1)
	if berr != nil {
		return ControlDef{}, berr
	}
	if _, err := c.takeByte(); err != nil { // p2, discarded
		return ControlDef{}, err
	}
	min, err := c.takeByte()
	if err != nil {
		return ControlDef{}, err
	}
	cc, err := c.takeByte()
	if err != nil {
		return ControlDef{}, err
	}
	max, err := c.takeByte()
	if err != nil {
		return ControlDef{}, err
	}
	id := ControlID(rawID)
	if _, idErr := ControlTypeForID(id); idErr != nil {
		return ControlDef{}, idErr
	}
	return ControlDef{ID: id, Type: typ, Channel: channel, Behaviour: behaviour, MinValue: min, CC: cc, MaxValue: max}, nil
}

// controlIDWriteOffset is the "+0x28" shift applied to control identifiers
// only inside write payloads (spec glossary, P3).
const controlIDWriteOffset = 0x28

// appendWriteControlDef appends the 11-byte write-request control
// definition for d.
func appendWriteControlDef(c *cursor, d ControlDef) *Error {
	if err := validateControlDefFields(d); err != nil {
		return err
	}
	typeCode, err := typeCodeForType(d.Type)
	if err != nil {
		return err
	}
	p1, err := behaviourWireCode(d.Behaviour)
	if err != nil {
		return err
	}
	c.appendByte(controlDefWriteMarker)
	c.appendByte(byte(d.ID) + controlIDWriteOffset)
	c.appendByte(0x02)
	c.appendByte(typeCode)
	c.appendByte(d.Channel)
	c.appendByte(p1)
	c.appendByte(controlDefOpaqueLiteral)
	c.appendByte(d.MinValue)
	c.appendByte(d.CC)
	c.appendByte(d.MaxValue)
	c.appendByte(0x00)
	return nil
}

// takeWriteControlDef consumes one 11-byte write-request control
// definition. The device never sends this shape to the host; this exists
// so the write path is round-trip testable (spec P2) the same way the read
// path is.
func takeWriteControlDef(c *cursor) (ControlDef, *Error) {
	if err := c.expectByte(controlDefWriteMarker, "control definition marker"); err != nil {
		return ControlDef{}, err
	}
	rawID, err := c.takeByte()
	if err != nil {
		return ControlDef{}, err
	}
	if rawID < controlIDWriteOffset {
		return ControlDef{}, errFieldOutOfRange("controlId", "write-payload control id underflows the +0x28 offset")
	}
	id := ControlID(rawID - controlIDWriteOffset)
	if err := c.expectByte(0x02, "control definition fixed byte"); err != nil {
		return ControlDef{}, err
	}
	typeCode, err := c.takeByte()
	if err != nil {
		return ControlDef{}, err
	}
	typ, terr := typeForCode(typeCode)
	if terr != nil {
		return ControlDef{}, terr
	}
	channel, err := c.takeByte()
	if err != nil {
		return ControlDef{}, err
	}
	p1, err := c.takeByte()
	if err != nil {
		return ControlDef{}, err
	}
	behaviour, berr := parseBehaviourWireCode(p1)
	if berr != nil {
		return ControlDef{}, berr
	}
	if _, err := c.takeByte(); err != nil { // opaque literal, discarded
		return ControlDef{}, err
	}
	min, err := c.takeByte()
	if err != nil {
		return ControlDef{}, err
	}
	cc, err := c.takeByte()
	if err != nil {
		return ControlDef{}, err
	}
	max, err := c.takeByte()
	if err != nil {
		return ControlDef{}, err
	}
	if _, err := c.takeByte(); err != nil { // trailing fixed 0x00, discarded
		return ControlDef{}, err
	}
	if _, idErr := ControlTypeForID(id); idErr != nil {
		return ControlDef{}, idErr
	}
	return ControlDef{ID: id, Type: typ, Channel: channel, Behaviour: behaviour, MinValue: min, CC: cc, MaxValue: max}, nil
}
