package sysex

import "fmt"

// BuildSyn builds the 8-byte Novation-SYN message sent to open the data
// pair (spec §4.1.1).
func BuildSyn() []byte {
	c := &cursor{}
	c.appendByte(SysExStart)
	c.appendBytes(ManufacturerID[:]...)
	c.appendBytes(0x00, cmdSyn, 0x02)
	c.appendByte(SysExEnd)
	return c.buf
}

// SynAck is the parsed Novation-SYN-ACK reply (spec §4.1.2): the device's
// serial number as printed ASCII.
type SynAck struct {
	Serial string
}

// ParseSynAck parses a 22-byte SYN-ACK frame.
func ParseSynAck(b []byte) (SynAck, *Error) {
	c := &cursor{buf: b}
	if err := expectSynAckHeader(c); err != nil {
		return SynAck{}, err
	}
	serial, err := c.take(14)
	if err != nil {
		return SynAck{}, err
	}
	if err := c.expectByte(SysExEnd, "sysex end"); err != nil {
		return SynAck{}, err
	}
	if !c.empty() {
		return SynAck{}, errFraming("trailing bytes after SYN-ACK")
	}
	return SynAck{Serial: string(serial)}, nil
}

func expectSynAckHeader(c *cursor) *Error {
	if err := c.expectByte(SysExStart, "sysex start"); err != nil {
		return err
	}
	for _, m := range ManufacturerID {
		if err := c.expectByte(m, "manufacturer id"); err != nil {
			return err
		}
	}
	if err := c.expectByte(0x00, "syn-ack family"); err != nil {
		return err
	}
	if err := c.expectByte(cmdSyn, "syn-ack command"); err != nil {
		return err
	}
	return c.expectByte(0x02, "syn-ack marker")
}

// BroadcastDeviceID is the only device-id byte a caller may request
// universal inquiry with; any other value is a build-time bug, not a
// runtime condition (spec §4.1.3).
const BroadcastDeviceID byte = 0x7F

// BuildInquiry builds the 6-byte Universal Device Inquiry message.
func BuildInquiry(deviceID byte) ([]byte, *Error) {
	if deviceID != BroadcastDeviceID {
		return nil, errFieldOutOfRange("deviceID", "universal inquiry must use the broadcast id 0x7F")
	}
	return []byte{SysExStart, 0x7E, deviceID, 0x06, 0x01, SysExEnd}, nil
}

// DeviceIdentity is the parsed Device Identity Reply (spec §3, §4.1.4).
type DeviceIdentity struct {
	DeviceID     byte
	Manufacturer [3]byte
	Product      [2]byte
	Family       [2]byte
	Version      [4]byte
}

// ParseDeviceIdentity parses a 17-byte Device Identity Reply.
func ParseDeviceIdentity(b []byte) (DeviceIdentity, *Error) {
	c := &cursor{buf: b}
	if err := c.expectByte(SysExStart, "sysex start"); err != nil {
		return DeviceIdentity{}, err
	}
	if err := c.expectByte(0x7E, "universal sysex id"); err != nil {
		return DeviceIdentity{}, err
	}
	devID, err := c.takeByte()
	if err != nil {
		return DeviceIdentity{}, err
	}
	if err := c.expectByte(0x06, "inquiry reply sub-id 1"); err != nil {
		return DeviceIdentity{}, err
	}
	if err := c.expectByte(0x02, "inquiry reply sub-id 2"); err != nil {
		return DeviceIdentity{}, err
	}
	var id DeviceIdentity
	id.DeviceID = devID
	mfg, err := c.take(3)
	if err != nil {
		return DeviceIdentity{}, err
	}
	copy(id.Manufacturer[:], mfg)
	product, err := c.take(2)
	if err != nil {
		return DeviceIdentity{}, err
	}
	copy(id.Product[:], product)
	family, err := c.take(2)
	if err != nil {
		return DeviceIdentity{}, err
	}
	copy(id.Family[:], family)
	version, err := c.take(4)
	if err != nil {
		return DeviceIdentity{}, err
	}
	copy(id.Version[:], version)
	if err := c.expectByte(SysExEnd, "sysex end"); err != nil {
		return DeviceIdentity{}, err
	}
	if !c.empty() {
		return DeviceIdentity{}, errFraming("trailing bytes after device identity reply")
	}
	return id, nil
}

// String renders the identity the way log lines in §9.1 want it.
func (d DeviceIdentity) String() string {
	return fmt.Sprintf("mfg=%02X%02X%02X product=%02X%02X family=%02X%02X version=%02X%02X%02X%02X",
		d.Manufacturer[0], d.Manufacturer[1], d.Manufacturer[2],
		d.Product[0], d.Product[1],
		d.Family[0], d.Family[1],
		d.Version[0], d.Version[1], d.Version[2], d.Version[3])
}
