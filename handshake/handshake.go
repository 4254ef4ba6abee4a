package handshake

import (
	"context"
	"sync"
	"time"

	"github.com/launchctl/lcxl3core/clog"
	"github.com/launchctl/lcxl3core/sysex"
	"github.com/launchctl/lcxl3core/transport"
)

// State is the engine's connection state (spec §4.4).
type State int

const (
	Disconnected State = iota
	Handshaking
	Ready
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Handshaking:
		return "handshaking"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// Engine drives the four-message handshake over a data port (spec §4.4).
// It holds no transaction state of its own; once Ready it publishes a
// read-only DeviceIdentity for C7 to consume.
type Engine struct {
	data transport.Port
	cfg  Config
	log  clog.Clog

	mu       sync.Mutex
	state    State
	identity sysex.DeviceIdentity

	unsubscribe func()
	synAckCh    chan sysex.SynAck
	identityCh  chan sysex.DeviceIdentity
}

// New creates a handshake engine over the data port. cfg is validated (and
// defaulted) in place.
func New(data transport.Port, cfg Config, logger clog.Clog) (*Engine, error) {
	if err := cfg.Valid(); err != nil {
		return nil, err
	}
	e := &Engine{
		data:       data,
		cfg:        cfg,
		log:        logger,
		synAckCh:   make(chan sysex.SynAck, 1),
		identityCh: make(chan sysex.DeviceIdentity, 1),
	}
	e.unsubscribe = data.Subscribe(e.onFrame)
	return e, nil
}

// Close releases the engine's subscription to the data port.
func (e *Engine) Close() {
	if e.unsubscribe != nil {
		e.unsubscribe()
	}
}

func (e *Engine) onFrame(frame []byte) {
	msg, err := sysex.Parse(frame)
	if err != nil {
		e.log.Warn("handshake: dropped unparseable frame: %v", err)
		return
	}
	switch msg.Kind {
	case sysex.KindSynAck:
		select {
		case e.synAckCh <- msg.SynAck:
		default:
		}
	case sysex.KindInquiryReply:
		select {
		case e.identityCh <- msg.Identity:
		default:
		}
	}
}

// State returns the engine's current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Identity returns the published device identity. Valid only once State()
// is Ready.
func (e *Engine) Identity() sysex.DeviceIdentity {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.identity
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// Connect runs the four-step sequence once (spec §4.4, scenario 1):
//  1. send Syn
//  2. await SynAck within SynTimeout
//  3. send Inquiry
//  4. await DeviceIdentity within InquiryTimeout
//
// On success it transitions Disconnected -> Handshaking -> Ready and
// publishes the identity. On failure it returns to Disconnected.
func (e *Engine) Connect(ctx context.Context) error {
	e.setState(Handshaking)
	e.log.Info("handshake: connecting")

	if err := e.data.Send(sysex.BuildSyn()); err != nil {
		e.setState(Disconnected)
		return err
	}
	if _, err := waitFor(ctx, e.synAckCh, e.cfg.SynTimeout, StepSyn); err != nil {
		e.setState(Disconnected)
		e.log.Error("handshake: syn step failed: %v", err)
		return err
	}

	inquiry, ierr := sysex.BuildInquiry(sysex.BroadcastDeviceID)
	if ierr != nil {
		e.setState(Disconnected)
		return &MalformedError{Step: StepInquiry, Err: ierr}
	}
	if err := e.data.Send(inquiry); err != nil {
		e.setState(Disconnected)
		return err
	}
	identity, err := waitFor(ctx, e.identityCh, e.cfg.InquiryTimeout, StepInquiry)
	if err != nil {
		e.setState(Disconnected)
		e.log.Error("handshake: inquiry step failed: %v", err)
		return err
	}

	e.mu.Lock()
	e.identity = identity
	e.state = Ready
	e.mu.Unlock()
	e.log.Info("handshake: ready, identity=%s", identity)
	return nil
}

// waitFor blocks until ch yields a value, ctx is done, or timeout elapses.
// A timeout is returned as a TimeoutError tagged with step; a done ctx
// returns ctx.Err().
func waitFor[T any](ctx context.Context, ch chan T, timeout time.Duration, step Step) (T, error) {
	var zero T
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case v := <-ch:
		return v, nil
	case <-timer.C:
		return zero, &TimeoutError{Step: step}
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Disconnect marks the engine Disconnected, the way any transport
// disconnect is expected to (spec §4.4: "on any transport disconnect, the
// engine returns to Disconnected"). It does not itself detect transport
// failures; the caller observes those and calls Disconnect.
func (e *Engine) Disconnect() {
	e.setState(Disconnected)
}

// Reconnect retries Connect up to cfg.ReconnectAttempts times with
// exponential backoff between ReconnectBackoffMin and ReconnectBackoffMax
// (spec §4.4). It returns the last error if every attempt fails.
func (e *Engine) Reconnect(ctx context.Context) error {
	delay := e.cfg.ReconnectBackoffMin
	var lastErr error
	for attempt := 0; attempt < e.cfg.ReconnectAttempts; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			}
			delay *= 2
			if delay > e.cfg.ReconnectBackoffMax {
				delay = e.cfg.ReconnectBackoffMax
			}
		}
		lastErr = e.Connect(ctx)
		if lastErr == nil {
			return nil
		}
		e.log.Warn("handshake: reconnect attempt %d/%d failed: %v", attempt+1, e.cfg.ReconnectAttempts, lastErr)
	}
	return lastErr
}
