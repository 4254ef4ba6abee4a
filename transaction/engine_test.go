package transaction

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/launchctl/lcxl3core/clog"
	"github.com/launchctl/lcxl3core/slotselect"
	"github.com/launchctl/lcxl3core/sysex"
	"github.com/launchctl/lcxl3core/transport"
)

func controlDef(id sysex.ControlID) sysex.ControlDef {
	typ, _ := sysex.ControlTypeForID(id)
	return sysex.ControlDef{ID: id, Type: typ, Channel: 0, Behaviour: sysex.Absolute, MinValue: 0, CC: 10, MaxValue: 127}
}

func fullPage(page sysex.Page, name string) sysex.PagePayload {
	lo, hi := sysex.Page0Start, sysex.Page0End
	if page == sysex.Page1 {
		lo, hi = sysex.Page1Start, sysex.Page1End
	}
	var controls []sysex.ControlDef
	for id := lo; id <= hi; id++ {
		controls = append(controls, controlDef(id))
	}
	return sysex.PagePayload{Page: page, Name: name, Controls: controls, Labels: map[sysex.ControlID]string{}}
}

func newEngine(t *testing.T, cfg Config) (*Engine, *transport.FakePort) {
	t.Helper()
	adapter := transport.NewFakeAdapter()
	dataPort, _ := adapter.Open("data")
	controlPort, _ := adapter.Open("control")
	data := dataPort.(*transport.FakePort)
	control := controlPort.(*transport.FakePort)

	sel, err := slotselect.New(control, slotselect.Config{ConfirmTimeout: time.Millisecond, Dwell: time.Millisecond}, clog.Clog{})
	require.NoError(t, err)

	e, err := New(data, sel, cfg, clog.Clog{})
	require.NoError(t, err)
	return e, data
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

func TestReadSlotSuccess(t *testing.T) {
	e, data := newEngine(t, Config{ReadTimeout: 200 * time.Millisecond})
	defer e.Close()

	go func() {
		waitForSent(t, data, 1)
		frame, _ := sysex.BuildReadResponse(fullPage(sysex.Page0, "Custom 1"))
		data.Deliver(frame)
		waitForSent(t, data, 2)
		frame1, _ := sysex.BuildReadResponse(fullPage(sysex.Page1, ""))
		data.Deliver(frame1)
	}()

	page0, page1, err := e.ReadSlot(context.Background(), 3)
	require.NoError(t, err)
	require.Equal(t, "Custom 1", page0.Name)
	require.Equal(t, sysex.Page1, page1.Page)
}

func TestReadSlotTimesOut(t *testing.T) {
	e, _ := newEngine(t, Config{ReadTimeout: 5 * time.Millisecond})
	defer e.Close()

	_, _, err := e.ReadSlot(context.Background(), 1)
	require.Error(t, err)
	var timeoutErr *ReadTimeoutError
	require.ErrorAs(t, err, &timeoutErr)
}

func TestReadSlotUnexpectedOrdering(t *testing.T) {
	e, data := newEngine(t, Config{ReadTimeout: 200 * time.Millisecond})
	defer e.Close()

	go func() {
		waitForSent(t, data, 1)
		// Deliver page 1's response while the engine is still waiting on
		// page 0's.
		frame1, _ := sysex.BuildReadResponse(fullPage(sysex.Page1, ""))
		data.Deliver(frame1)
	}()

	_, _, err := e.ReadSlot(context.Background(), 1)
	require.Error(t, err)
	var orderingErr *UnexpectedOrderingError
	require.ErrorAs(t, err, &orderingErr)
}

func TestWriteSlotPage0AckMismatchIsFatal(t *testing.T) {
	e, data := newEngine(t, Config{WritePage0AckTimeout: 200 * time.Millisecond, WritePage1AckTimeout: 200 * time.Millisecond})
	defer e.Close()

	go func() {
		waitForSent(t, data, 1)
		wrongStatus, _ := sysex.EncodeSlot(9) // slot 9 != the targeted slot 3
		frame, _ := sysex.BuildWriteAck(sysex.Page0, wrongStatus)
		data.Deliver(frame)
	}()

	err := e.WriteSlot(context.Background(), 3, fullPage(sysex.Page0, "Custom 4"), fullPage(sysex.Page1, ""))
	require.Error(t, err)
	var mismatchErr *AckSlotMismatchError
	require.ErrorAs(t, err, &mismatchErr)
}

func TestWriteSlotPage1AckMismatchIsOnlyAWarning(t *testing.T) {
	e, data := newEngine(t, Config{WritePage0AckTimeout: 200 * time.Millisecond, WritePage1AckTimeout: 200 * time.Millisecond})
	defer e.Close()

	go func() {
		waitForSent(t, data, 1)
		correctStatus, _ := sysex.EncodeSlot(3)
		ack0, _ := sysex.BuildWriteAck(sysex.Page0, correctStatus)
		data.Deliver(ack0)

		waitForSent(t, data, 2)
		wrongStatus, _ := sysex.EncodeSlot(9)
		ack1, _ := sysex.BuildWriteAck(sysex.Page1, wrongStatus)
		data.Deliver(ack1)
	}()

	err := e.WriteSlot(context.Background(), 3, fullPage(sysex.Page0, "Custom 4"), fullPage(sysex.Page1, ""))
	require.NoError(t, err)
}

func TestWriteSlotAckTimeout(t *testing.T) {
	e, _ := newEngine(t, Config{WritePage0AckTimeout: 5 * time.Millisecond})
	defer e.Close()

	err := e.WriteSlot(context.Background(), 1, fullPage(sysex.Page0, "Custom 2"), fullPage(sysex.Page1, ""))
	require.Error(t, err)
	var timeoutErr *WriteTimeoutError
	require.ErrorAs(t, err, &timeoutErr)
}
