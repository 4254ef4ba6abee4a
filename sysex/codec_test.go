package sysex

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeSlotRoundTrip(t *testing.T) {
	for s := MinSlot; s <= MaxSlot; s++ {
		wire, err := EncodeSlot(s)
		require.Nil(t, err)
		got, derr := DecodeSlot(wire)
		require.Nil(t, derr)
		require.Equal(t, s, got)
	}
}

func TestDecodeSlotRejectsGap(t *testing.T) {
	for _, b := range []byte{0x0A, 0x0D, 0x11} {
		_, err := DecodeSlot(b)
		require.NotNil(t, err)
		require.Equal(t, ErrFieldOutOfRange, err.Kind)
	}
}

func TestBuildSynAndParseSynAck(t *testing.T) {
	syn := BuildSyn()
	msg, err := Parse(append([]byte{}, buildSynAckFrame("ABCDEFGHIJKLMN")...))
	require.Nil(t, err)
	require.Equal(t, KindSynAck, msg.Kind)
	require.Equal(t, "ABCDEFGHIJKLMN", msg.SynAck.Serial)
	require.Equal(t, byte(SysExStart), syn[0])
}

func buildSynAckFrame(serial string) []byte {
	c := &cursor{}
	c.appendByte(SysExStart)
	c.appendBytes(ManufacturerID[:]...)
	c.appendBytes(0x00, cmdSyn, 0x02)
	c.appendBytes([]byte(serial)...)
	c.appendByte(SysExEnd)
	return c.buf
}

func TestInquiryAndIdentityRoundTrip(t *testing.T) {
	inquiry, err := BuildInquiry(BroadcastDeviceID)
	require.Nil(t, err)
	msg, perr := Parse(inquiry)
	require.Nil(t, perr)
	require.Equal(t, KindInquiry, msg.Kind)

	reply := []byte{SysExStart, 0x7E, 0x7F, 0x06, 0x02,
		0x00, 0x20, 0x29, // manufacturer
		0x61, 0x01, // product
		0x00, 0x00, // family
		0x01, 0x00, 0x00, 0x00, // version
		SysExEnd}
	id, ierr := ParseDeviceIdentity(reply)
	require.Nil(t, ierr)
	require.Equal(t, ManufacturerID, id.Manufacturer)
	require.Contains(t, id.String(), "mfg=002029")
}

func TestBuildInquiryRejectsNonBroadcast(t *testing.T) {
	_, err := BuildInquiry(0x01)
	require.NotNil(t, err)
	require.Equal(t, ErrFieldOutOfRange, err.Kind)
}

func TestSlotSelectRoundTrip(t *testing.T) {
	msg, err := BuildSlotSelect(7)
	require.Nil(t, err)
	got, perr := ParseSlotSelect(msg)
	require.Nil(t, perr)
	require.Equal(t, Slot(7), got)
}

func TestFeatureEnableShape(t *testing.T) {
	msg := BuildFeatureEnable()
	require.Equal(t, []byte{0x9F, 0x0B, 0x7F}, msg)
}

func controlDef(id ControlID) ControlDef {
	typ, _ := ControlTypeForID(id)
	return ControlDef{ID: id, Type: typ, Channel: 0, Behaviour: Absolute, MinValue: 0, CC: 13, MaxValue: 127}
}

func TestReadResponseRoundTrip(t *testing.T) {
	var controls []ControlDef
	for id := Page0Start; id <= Page0End; id++ {
		controls = append(controls, controlDef(id))
	}
	payload := PagePayload{
		Page:     Page0,
		Name:     "Custom 1",
		Controls: controls,
		Labels:   map[ControlID]string{Page0Start: "Gain"},
	}
	frame, err := BuildReadResponse(payload)
	require.Nil(t, err)
	got, perr := ParseReadResponse(frame)
	require.Nil(t, perr)
	require.Equal(t, payload.Name, got.Name)
	require.Equal(t, payload.Controls, got.Controls)
	require.Equal(t, payload.Labels, got.Labels)
}

func TestWriteRequestRoundTripAppliesIDOffset(t *testing.T) {
	var controls []ControlDef
	for id := Page1Start; id <= Page1Start+2; id++ {
		controls = append(controls, controlDef(id))
	}
	payload := PagePayload{
		Page:     Page1,
		Controls: controls,
		Labels:   map[ControlID]string{Page1Start: "Vol"},
		Colors:   map[ControlID]byte{Page1Start: 0x0C},
	}
	frame, err := BuildWriteRequest(payload)
	require.Nil(t, err)
	// The wire id is shifted by +0x28 inside the frame itself: index 12 is
	// the control-def marker (0x49), index 13 is the id byte.
	require.Equal(t, controlDefWriteMarker, frame[12])
	require.Equal(t, byte(Page1Start)+controlIDWriteOffset, frame[13])
	got, perr := ParseWriteRequest(frame)
	require.Nil(t, perr)
	require.Equal(t, payload.Controls, got.Controls)
	require.Equal(t, payload.Colors, got.Colors)
}

func TestWriteAckRoundTrip(t *testing.T) {
	status, err := EncodeSlot(4)
	require.Nil(t, err)
	frame, berr := BuildWriteAck(Page0, status)
	require.Nil(t, berr)
	ack, perr := ParseWriteAck(frame)
	require.Nil(t, perr)
	require.Equal(t, Page0, ack.Page)
	require.Equal(t, status, ack.Status)
}

func TestTypeForCodeRejectsUnknownButtonSubtype(t *testing.T) {
	_, err := typeForCode(0x7E)
	require.NotNil(t, err)
	require.Equal(t, ErrUnknownTypeCode, err.Kind)
}

func TestLabelIDOffsetWindow(t *testing.T) {
	for raw := byte(25); raw <= 28; raw++ {
		require.Equal(t, raw+1, labelRawToLogical(raw))
	}
	require.Equal(t, byte(10), labelRawToLogical(10))
	require.Equal(t, byte(25), labelLogicalToRaw(26))
}

func TestParseRejectsBadFraming(t *testing.T) {
	_, err := Parse([]byte{0x00, 0x01})
	require.NotNil(t, err)
	require.Equal(t, ErrUnexpectedFraming, err.Kind)
}
