package slotselect

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/launchctl/lcxl3core/clog"
	"github.com/launchctl/lcxl3core/sysex"
	"github.com/launchctl/lcxl3core/transport"
)

func newSelector(t *testing.T, cfg Config) (*Selector, *transport.FakePort) {
	t.Helper()
	adapter := transport.NewFakeAdapter()
	port, _ := adapter.Open("control")
	control := port.(*transport.FakePort)
	s, err := New(control, cfg, clog.Clog{})
	require.NoError(t, err)
	return s, control
}

func TestSelectReturnsOnEcho(t *testing.T) {
	s, control := newSelector(t, Config{ConfirmTimeout: 50 * time.Millisecond, Dwell: 10 * time.Millisecond})
	defer s.Close()

	go func() {
		// New already sent the feature-enable note-on; wait for the
		// slot-select CC itself before echoing it back.
		for len(control.Sent()) < 2 {
			time.Sleep(time.Millisecond)
		}
		echo, _ := sysex.BuildSlotSelect(3)
		control.Deliver(echo)
	}()

	err := s.Select(context.Background(), 3)
	require.NoError(t, err)
}

func TestNewSendsFeatureEnable(t *testing.T) {
	s, control := newSelector(t, Config{})
	defer s.Close()
	require.Equal(t, [][]byte{sysex.BuildFeatureEnable()}, control.Sent())
}

func TestSelectRejectsInvalidSlot(t *testing.T) {
	s, _ := newSelector(t, Config{})
	defer s.Close()
	err := s.Select(context.Background(), sysex.Slot(16))
	require.ErrorIs(t, err, ErrInvalidSlot)
}

func TestSelectFallsBackAfterTimeout(t *testing.T) {
	s, _ := newSelector(t, Config{ConfirmTimeout: 5 * time.Millisecond, Dwell: 5 * time.Millisecond})
	defer s.Close()

	start := time.Now()
	err := s.Select(context.Background(), 2)
	elapsed := time.Since(start)

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	require.Equal(t, sysex.Slot(2), timeoutErr.Slot)
	require.GreaterOrEqual(t, elapsed, 10*time.Millisecond)
}

func TestSelectHonorsContextCancellation(t *testing.T) {
	s, _ := newSelector(t, Config{ConfirmTimeout: time.Second, Dwell: time.Second})
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.Select(ctx, 1)
	require.ErrorIs(t, err, context.Canceled)
}
