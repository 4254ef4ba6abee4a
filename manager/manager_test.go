package manager

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/launchctl/lcxl3core/clog"
	"github.com/launchctl/lcxl3core/handshake"
	"github.com/launchctl/lcxl3core/mode"
	"github.com/launchctl/lcxl3core/slotselect"
	"github.com/launchctl/lcxl3core/sysex"
	"github.com/launchctl/lcxl3core/transaction"
	"github.com/launchctl/lcxl3core/transport"
)

func controlDef(id sysex.ControlID) sysex.ControlDef {
	typ, _ := sysex.ControlTypeForID(id)
	return sysex.ControlDef{ID: id, Type: typ, Channel: 0, Behaviour: sysex.Absolute, MinValue: 0, CC: 10, MaxValue: 127}
}

func fullControls(lo, hi sysex.ControlID) map[sysex.ControlID]mode.ControlBinding {
	out := make(map[sysex.ControlID]mode.ControlBinding)
	for id := lo; id <= hi; id++ {
		d := controlDef(id)
		out[id] = mode.ControlBinding{
			ControlID:   d.ID,
			ControlType: d.Type,
			MIDIChannel: d.Channel,
			CCNumber:    d.CC,
			MinValue:    d.MinValue,
			MaxValue:    d.MaxValue,
			Behaviour:   d.Behaviour,
		}
	}
	return out
}

func waitForSent(t *testing.T, port *transport.FakePort, n int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for len(port.Sent()) < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d sent frames", n)
		}
		time.Sleep(time.Millisecond)
	}
}

func newManager(t *testing.T) (*Manager, *transport.FakePort, *transport.FakePort) {
	t.Helper()
	adapter := transport.NewFakeAdapter()
	dp, _ := adapter.Open("data")
	cp, _ := adapter.Open("control")
	data := dp.(*transport.FakePort)
	control := cp.(*transport.FakePort)

	h, err := handshake.New(data, handshake.Config{}, clog.Clog{})
	require.NoError(t, err)
	sel, err := slotselect.New(control, slotselect.Config{ConfirmTimeout: time.Millisecond, Dwell: time.Millisecond}, clog.Clog{})
	require.NoError(t, err)
	txn, err := transaction.New(data, sel, transaction.Config{
		ReadTimeout:          time.Second,
		WritePage0AckTimeout: time.Second,
		WritePage1AckTimeout: time.Second,
	}, clog.Clog{})
	require.NoError(t, err)

	return New(h, txn, clog.Clog{}), data, control
}

func TestReadModeMergesBothPages(t *testing.T) {
	m, data, _ := newManager(t)

	go func() {
		waitForSent(t, data, 1)
		p0 := sysex.PagePayload{
			Page:     sysex.Page0,
			Name:     "Custom 1",
			Controls: controlsFor(sysex.Page0Start, sysex.Page0End),
			Labels:   map[sysex.ControlID]string{},
		}
		frame0, _ := sysex.BuildReadResponse(p0)
		data.Deliver(frame0)

		waitForSent(t, data, 2)
		p1 := sysex.PagePayload{
			Page:     sysex.Page1,
			Controls: controlsFor(sysex.Page1Start, sysex.Page1End),
			Labels:   map[sysex.ControlID]string{},
		}
		frame1, _ := sysex.BuildReadResponse(p1)
		data.Deliver(frame1)
	}()

	cm, err := m.ReadMode(context.Background(), 2)
	require.NoError(t, err)
	require.Equal(t, "Custom 1", cm.Name())
	require.True(t, cm.IsFactoryDefault())
	require.Len(t, cm.Controls(), int(sysex.Page0End-sysex.Page0Start+1)+int(sysex.Page1End-sysex.Page1Start+1))
}

func controlsFor(lo, hi sysex.ControlID) []sysex.ControlDef {
	var out []sysex.ControlDef
	for id := lo; id <= hi; id++ {
		out = append(out, controlDef(id))
	}
	return out
}

func TestWriteModeRejectsReservedSlot(t *testing.T) {
	m, _, _ := newManager(t)
	controls := fullControls(sysex.Page0Start, sysex.Page0End)
	for k, v := range fullControls(sysex.Page1Start, sysex.Page1End) {
		controls[k] = v
	}
	cm, err := mode.New(15, "Custom 16", controls, nil, nil)
	require.NoError(t, err)

	err = m.WriteMode(context.Background(), 15, cm)
	require.ErrorIs(t, err, ErrInvalidSlot)
}

func TestWriteModeRoundTrip(t *testing.T) {
	m, data, _ := newManager(t)
	controls := fullControls(sysex.Page0Start, sysex.Page0End)
	for k, v := range fullControls(sysex.Page1Start, sysex.Page1End) {
		controls[k] = v
	}
	cm, err := mode.New(3, "Custom 4", controls, nil, nil)
	require.NoError(t, err)

	go func() {
		waitForSent(t, data, 1)
		status0, _ := sysex.EncodeSlot(3)
		ack0, _ := sysex.BuildWriteAck(sysex.Page0, status0)
		data.Deliver(ack0)

		waitForSent(t, data, 2)
		ack1, _ := sysex.BuildWriteAck(sysex.Page1, status0)
		data.Deliver(ack1)
	}()

	err = m.WriteMode(context.Background(), 3, cm)
	require.NoError(t, err)
}

func TestIdentityFailsBeforeHandshake(t *testing.T) {
	m, _, _ := newManager(t)
	_, err := m.Identity()
	require.ErrorIs(t, err, ErrNotReady)
}
