package slotselect

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/launchctl/lcxl3core/clog"
	"github.com/launchctl/lcxl3core/sysex"
	"github.com/launchctl/lcxl3core/transport"
)

// ErrInvalidSlot is returned when Select is asked to select an out-of-range
// slot (spec §7).
var ErrInvalidSlot = errors.New("slotselect: invalid slot")

// TimeoutError is returned when the device does not echo the selection
// within ConfirmTimeout. It is non-fatal: the caller may proceed after
// Config.Dwell (spec §4.5, §7).
type TimeoutError struct {
	Slot sysex.Slot
}

func (e *TimeoutError) Error() string {
	return "slotselect: timed out waiting for selection echo"
}

// Selector drives the control pair's slot-select CC and its echo (spec
// §4.5).
type Selector struct {
	control transport.Port
	cfg     Config
	log     clog.Clog

	mu          sync.Mutex
	unsubscribe func()
	echoCh      chan sysex.Slot
}

// New creates a Selector over the control port and sends the one-time
// feature-control-enable note-on required after opening it (spec §4.1.6).
func New(control transport.Port, cfg Config, logger clog.Clog) (*Selector, error) {
	if err := cfg.Valid(); err != nil {
		return nil, err
	}
	s := &Selector{
		control: control,
		cfg:     cfg,
		log:     logger,
		echoCh:  make(chan sysex.Slot, 1),
	}
	s.unsubscribe = control.Subscribe(s.onFrame)
	if err := control.Send(sysex.BuildFeatureEnable()); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the selector's subscription to the control port.
func (s *Selector) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

func (s *Selector) onFrame(frame []byte) {
	slot, err := sysex.ParseSlotSelect(frame)
	if err != nil {
		return // not a slot-select echo; ignore, this port also carries feature-enable etc.
	}
	select {
	case s.echoCh <- slot:
	default:
	}
}

// Select sends the slot-select CC and waits for the device's echo (spec
// §4.5). If no echo arrives within ConfirmTimeout, it then sleeps for
// Dwell and returns a non-fatal *TimeoutError so the caller
// may proceed anyway — some firmware revisions never echo.
func (s *Selector) Select(ctx context.Context, slot sysex.Slot) error {
	if !slot.Valid() {
		return ErrInvalidSlot
	}
	msg, err := sysex.BuildSlotSelect(slot)
	if err != nil {
		return err
	}
	// Drain any stale echo left over from a previous selection.
	select {
	case <-s.echoCh:
	default:
	}
	if err := s.control.Send(msg); err != nil {
		return err
	}

	timer := time.NewTimer(s.cfg.ConfirmTimeout)
	defer timer.Stop()
	select {
	case echoed := <-s.echoCh:
		if echoed != slot {
			s.log.Warn("slotselect: echo reported slot %d, expected %d", echoed, slot)
		}
		return nil
	case <-timer.C:
		s.log.Warn("slotselect: no echo for slot %d within %s, dwelling %s", slot, s.cfg.ConfirmTimeout, s.cfg.Dwell)
		dwellTimer := time.NewTimer(s.cfg.Dwell)
		defer dwellTimer.Stop()
		select {
		case <-dwellTimer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
		return &TimeoutError{Slot: slot}
	case <-ctx.Done():
		return ctx.Err()
	}
}
