package mode

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/launchctl/lcxl3core/sysex"
)

func encoderBinding() ControlBinding {
	return ControlBinding{
		ControlID:   sysex.EncoderTopStart,
		ControlType: sysex.EncoderTop,
		MIDIChannel: 0,
		CCNumber:    13,
		MinValue:    0,
		MaxValue:    127,
		Behaviour:   sysex.Absolute,
	}
}

func TestNewValidatesInvariants(t *testing.T) {
	b := encoderBinding()
	cm, err := New(0, "Custom 1", map[sysex.ControlID]ControlBinding{b.ControlID: b}, nil, nil)
	require.NoError(t, err)
	require.Equal(t, sysex.Slot(0), cm.Slot())
	require.True(t, cm.IsFactoryDefault())
}

func TestNewRejectsControlTypeMismatch(t *testing.T) {
	b := encoderBinding()
	b.ControlType = sysex.Fader // doesn't match EncoderTopStart's inferred type
	_, err := New(0, "Mode", map[sysex.ControlID]ControlBinding{b.ControlID: b}, nil, nil)
	require.Error(t, err)
	var ierr *InvariantError
	require.ErrorAs(t, err, &ierr)
	require.Equal(t, "controlType", ierr.Which)
}

func TestNewRejectsMinGreaterThanMax(t *testing.T) {
	b := encoderBinding()
	b.MinValue, b.MaxValue = 100, 50 // B4
	_, err := New(0, "Mode", map[sysex.ControlID]ControlBinding{b.ControlID: b}, nil, nil)
	require.Error(t, err)
}

func TestNewRejectsLabelForMissingControl(t *testing.T) {
	b := encoderBinding()
	labels := map[sysex.ControlID]string{sysex.FaderStart: "Gain"} // I1
	_, err := New(0, "Mode", map[sysex.ControlID]ControlBinding{b.ControlID: b}, labels, nil)
	require.Error(t, err)
}

func TestNewRejectsBadNameLength(t *testing.T) {
	b := encoderBinding()
	_, err := New(0, "", map[sysex.ControlID]ControlBinding{b.ControlID: b}, nil, nil) // B2
	require.Error(t, err)
}

func TestNewRejectsKeyMismatch(t *testing.T) {
	b := encoderBinding()
	controls := map[sysex.ControlID]ControlBinding{sysex.EncoderMidStart: b} // I2
	_, err := New(0, "Mode", controls, nil, nil)
	require.Error(t, err)
}

func TestButtonRejectsRelativeBehaviour(t *testing.T) {
	b := ControlBinding{
		ControlID:   sysex.ButtonStart,
		ControlType: sysex.Button,
		CCNumber:    40,
		MaxValue:    127,
		Behaviour:   sysex.Relative1,
	}
	_, err := New(0, "Mode", map[sysex.ControlID]ControlBinding{b.ControlID: b}, nil, nil)
	require.Error(t, err)
}

func TestEqualIgnoresSlot(t *testing.T) {
	b := encoderBinding()
	controls := map[sysex.ControlID]ControlBinding{b.ControlID: b}
	a, err := New(0, "Mode", controls, nil, nil)
	require.NoError(t, err)
	other, err := New(5, "Mode", controls, nil, nil)
	require.NoError(t, err)
	require.True(t, a.Equal(other))
}

func TestCanonicalIsDeterministic(t *testing.T) {
	b1 := encoderBinding()
	b2 := ControlBinding{ControlID: sysex.FaderStart, ControlType: sysex.Fader, CCNumber: 20, MaxValue: 127, Behaviour: sysex.Absolute}
	controls := map[sysex.ControlID]ControlBinding{b1.ControlID: b1, b2.ControlID: b2}
	cm, err := New(2, "Mode", controls, map[sysex.ControlID]string{b2.ControlID: "Vol"}, map[sysex.ControlID]byte{b2.ControlID: 5})
	require.NoError(t, err)

	out1, err := cm.Canonical()
	require.NoError(t, err)
	out2, err := cm.Canonical()
	require.NoError(t, err)
	require.Equal(t, out1, out2)
	require.Contains(t, out1, "Vol")
}

func TestIsFactoryDefaultOnlyMatchesPattern(t *testing.T) {
	b := encoderBinding()
	controls := map[sysex.ControlID]ControlBinding{b.ControlID: b}
	cm, err := New(0, "My Mode", controls, nil, nil)
	require.NoError(t, err)
	require.False(t, cm.IsFactoryDefault())
}
