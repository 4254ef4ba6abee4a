package transaction

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/launchctl/lcxl3core/clog"
	"github.com/launchctl/lcxl3core/slotselect"
	"github.com/launchctl/lcxl3core/sysex"
	"github.com/launchctl/lcxl3core/transport"
)

// waitKind distinguishes what a pendingWait is correlating: a read
// response or a write acknowledgement. The two are never confused with
// each other even when they share a page, since a read and a write
// transaction never run concurrently (the semaphore below serializes
// them).
type waitKind int

const (
	waitKindRead waitKind = iota
	waitKindAck
)

// pendingWait is the engine's single outstanding correlation slot. At most
// one exists at a time: a read or write transaction only ever waits on one
// page's reply before moving to the next (spec §4.6).
type pendingWait struct {
	page   sysex.Page
	kind   waitKind
	readCh chan sysex.PagePayload
	ackCh  chan sysex.WriteAck
	failCh chan error
}

// Engine drives the multi-page read and write flows over a data port,
// correlating replies by page and serializing transactions one at a time
// (spec §4.6, §5). It owns no mode-level semantics — PagePayload in,
// PagePayload out; merging pages into a mode.CustomMode is the Mode
// Manager's job (C7).
type Engine struct {
	data     transport.Port
	selector *slotselect.Selector
	cfg      Config
	log      clog.Clog
	sem      *semaphore.Weighted

	mu          sync.Mutex
	pending     *pendingWait
	unsubscribe func()

	inbound chan []byte
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// New creates a transaction engine over the data port, using selector to
// target a slot before each page exchange.
func New(data transport.Port, selector *slotselect.Selector, cfg Config, logger clog.Clog) (*Engine, error) {
	if err := cfg.Valid(); err != nil {
		return nil, err
	}
	e := &Engine{
		data:     data,
		selector: selector,
		cfg:      cfg,
		log:      logger,
		sem:      semaphore.NewWeighted(1),
		inbound:  make(chan []byte, cfg.InboundQueueDepth),
		stopCh:   make(chan struct{}),
	}
	e.wg.Add(1)
	go e.sequencer()
	e.unsubscribe = data.Subscribe(e.enqueue)
	return e, nil
}

// Close releases the engine's subscription to the data port and stops its
// sequencer goroutine.
func (e *Engine) Close() {
	if e.unsubscribe != nil {
		e.unsubscribe()
	}
	close(e.stopCh)
	e.wg.Wait()
}

// enqueue is the Subscribe callback: it buffers frame onto the sequencer's
// inbound queue (spec §5: "the sequencer buffers a short queue (default
// 16) and drops with a log on overflow") rather than processing it
// in-line, so a burst of inbound frames can't block the transport's
// delivery path.
func (e *Engine) enqueue(frame []byte) {
	cp := make([]byte, len(frame))
	copy(cp, frame)
	select {
	case e.inbound <- cp:
	default:
		e.log.Warn("transaction: inbound queue full (depth %d), dropped frame", cap(e.inbound))
	}
}

// sequencer is the engine's single consumer goroutine: every inbound frame
// is processed here, one at a time, so correlation-slot access never
// races with itself.
func (e *Engine) sequencer() {
	defer e.wg.Done()
	for {
		select {
		case frame := <-e.inbound:
			e.processFrame(frame)
		case <-e.stopCh:
			return
		}
	}
}

func (e *Engine) processFrame(frame []byte) {
	msg, err := sysex.Parse(frame)
	if err != nil {
		e.log.Debug("transaction: dropped unparseable frame: %v", err)
		return
	}
	switch msg.Kind {
	case sysex.KindReadResponse:
		e.deliverRead(msg.ReadResponse)
	case sysex.KindWriteAck:
		e.deliverAck(msg.WriteAck)
	default:
		// Handshake traffic, slot-select echoes, etc. share the same
		// physical ports in some transports; nothing here is ours.
	}
}

func (e *Engine) deliverRead(p sysex.PagePayload) {
	e.mu.Lock()
	defer e.mu.Unlock()
	pw := e.pending
	if pw == nil || pw.kind != waitKindRead {
		e.log.Warn("transaction: unexpected read response for page %s, dropped", p.Page)
		return
	}
	if pw.page != p.Page {
		e.pending = nil
		pw.failCh <- &UnexpectedOrderingError{Expected: byte(pw.page), Got: byte(p.Page)}
		return
	}
	e.pending = nil
	pw.readCh <- p
}

func (e *Engine) deliverAck(a sysex.WriteAck) {
	e.mu.Lock()
	defer e.mu.Unlock()
	pw := e.pending
	if pw == nil || pw.kind != waitKindAck {
		e.log.Warn("transaction: unexpected write ack for page %s, dropped", a.Page)
		return
	}
	if pw.page != a.Page {
		e.pending = nil
		pw.failCh <- &UnexpectedOrderingError{Expected: byte(pw.page), Got: byte(a.Page)}
		return
	}
	e.pending = nil
	pw.ackCh <- a
}

// clearPending removes pw from the correlation slot if it is still the
// current one, used when a wait gives up via timeout or ctx cancellation
// so a late reply does not land on a channel nobody is reading.
func (e *Engine) clearPending(pw *pendingWait) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending == pw {
		e.pending = nil
	}
}

func (e *Engine) awaitRead(ctx context.Context, page sysex.Page, send func() error, timeout time.Duration) (sysex.PagePayload, error) {
	pw := &pendingWait{
		page:   page,
		kind:   waitKindRead,
		readCh: make(chan sysex.PagePayload, 1),
		failCh: make(chan error, 1),
	}
	e.mu.Lock()
	e.pending = pw
	e.mu.Unlock()

	if err := send(); err != nil {
		e.clearPending(pw)
		return sysex.PagePayload{}, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case p := <-pw.readCh:
		return p, nil
	case err := <-pw.failCh:
		return sysex.PagePayload{}, err
	case <-timer.C:
		e.clearPending(pw)
		return sysex.PagePayload{}, &ReadTimeoutError{Page: byte(page)}
	case <-ctx.Done():
		e.clearPending(pw)
		return sysex.PagePayload{}, ctx.Err()
	}
}

func (e *Engine) awaitAck(ctx context.Context, page sysex.Page, send func() error, timeout time.Duration) (sysex.WriteAck, error) {
	pw := &pendingWait{
		page:   page,
		kind:   waitKindAck,
		ackCh:  make(chan sysex.WriteAck, 1),
		failCh: make(chan error, 1),
	}
	e.mu.Lock()
	e.pending = pw
	e.mu.Unlock()

	if err := send(); err != nil {
		e.clearPending(pw)
		return sysex.WriteAck{}, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case a := <-pw.ackCh:
		return a, nil
	case err := <-pw.failCh:
		return sysex.WriteAck{}, err
	case <-timer.C:
		e.clearPending(pw)
		return sysex.WriteAck{}, &WriteTimeoutError{Page: byte(page)}
	case <-ctx.Done():
		e.clearPending(pw)
		return sysex.WriteAck{}, ctx.Err()
	}
}

// selectSlot targets slot before a page exchange, treating the selector's
// non-fatal echo timeout as a warning rather than a transaction failure
// (spec §4.5, §4.6).
func (e *Engine) selectSlot(ctx context.Context, slot sysex.Slot) error {
	err := e.selector.Select(ctx, slot)
	if err == nil {
		return nil
	}
	var timeoutErr *slotselect.TimeoutError
	if errors.As(err, &timeoutErr) {
		e.log.Warn("transaction: proceeding after slot-select timeout: %v", err)
		return nil
	}
	return err
}

// dwell blocks for d, the way slotselect's no-echo fallback does, so a
// write's mandatory settle time still elapses even when the device echoed
// the selection immediately (spec §4.5, §4.6.2).
func (e *Engine) dwell(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) readPage(ctx context.Context, page sysex.Page) (sysex.PagePayload, error) {
	frame, berr := sysex.BuildReadRequest(page)
	if berr != nil {
		return sysex.PagePayload{}, berr
	}
	return e.awaitRead(ctx, page, func() error { return e.data.Send(frame) }, e.cfg.ReadTimeout)
}

// ReadSlot selects slot and runs the two-page read flow, returning page 0
// and page 1's payloads unmerged; the Mode Manager combines them into a
// mode.CustomMode (spec §4.1.7-4.1.8, §4.6).
func (e *Engine) ReadSlot(ctx context.Context, slot sysex.Slot) (sysex.PagePayload, sysex.PagePayload, error) {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return sysex.PagePayload{}, sysex.PagePayload{}, err
	}
	defer e.sem.Release(1)

	if err := e.selectSlot(ctx, slot); err != nil {
		return sysex.PagePayload{}, sysex.PagePayload{}, err
	}

	page0, err := e.readPage(ctx, sysex.Page0)
	if err != nil {
		e.log.Error("transaction: read page0 failed: %v", err)
		return sysex.PagePayload{}, sysex.PagePayload{}, err
	}
	page1, err := e.readPage(ctx, sysex.Page1)
	if err != nil {
		e.log.Error("transaction: read page1 failed: %v", err)
		return sysex.PagePayload{}, sysex.PagePayload{}, err
	}
	e.log.Info("transaction: read slot %d complete", slot)
	return page0, page1, nil
}

// writeAckTimeout picks the per-page ack timeout (spec §4.6: page 1's
// ceiling is longer since some backends buffer its ack).
func (e *Engine) writeAckTimeout(page sysex.Page) time.Duration {
	if page == sysex.Page0 {
		return e.cfg.WritePage0AckTimeout
	}
	return e.cfg.WritePage1AckTimeout
}

func (e *Engine) writePage(ctx context.Context, slot sysex.Slot, payload sysex.PagePayload) error {
	frame, berr := sysex.BuildWriteRequest(payload)
	if berr != nil {
		return berr
	}
	ack, err := e.awaitAck(ctx, payload.Page, func() error { return e.data.Send(frame) }, e.writeAckTimeout(payload.Page))
	if err != nil {
		return err
	}
	expected, eerr := sysex.EncodeSlot(slot)
	if eerr != nil {
		return eerr
	}
	if ack.Status != expected {
		mismatch := &AckSlotMismatchError{Page: byte(payload.Page), Expected: expected, Got: ack.Status}
		if payload.Page == sysex.Page0 {
			return mismatch
		}
		// Page 1's ack status is advisory only (spec §4.6, scenario 5):
		// some firmware revisions echo the pre-write slot on this ack.
		e.log.Warn("transaction: %v", mismatch)
	}
	return nil
}

// WriteSlot selects slot and runs the two-page write flow: page 0's ack
// mismatch is fatal, page 1's is logged and otherwise ignored (spec
// §4.1.9-4.1.10, §4.6, scenario 5).
func (e *Engine) WriteSlot(ctx context.Context, slot sysex.Slot, page0, page1 sysex.PagePayload) error {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer e.sem.Release(1)

	if err := e.selectSlot(ctx, slot); err != nil {
		return err
	}
	if err := e.dwell(ctx, e.cfg.WriteSettleDwell); err != nil {
		return err
	}

	if err := e.writePage(ctx, slot, page0); err != nil {
		e.log.Error("transaction: write page0 failed: %v", err)
		return err
	}
	if err := e.writePage(ctx, slot, page1); err != nil {
		e.log.Error("transaction: write page1 failed: %v", err)
		return err
	}
	e.log.Info("transaction: write slot %d complete", slot)
	return nil
}
