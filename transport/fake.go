package transport

import "sync"

// FakeAdapter is an in-memory Adapter for tests. Opening the same port
// name twice returns the same *FakePort so a test can open a pair, hand
// the pair to the driver, and separately drive/observe it by name.
type FakeAdapter struct {
	mu    sync.Mutex
	ports map[string]*FakePort
}

// NewFakeAdapter returns an empty FakeAdapter.
func NewFakeAdapter() *FakeAdapter {
	return &FakeAdapter{ports: make(map[string]*FakePort)}
}

// Open returns the named FakePort, creating it on first use.
func (a *FakeAdapter) Open(portName string) (Port, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if p, ok := a.ports[portName]; ok {
		return p, nil
	}
	p := &FakePort{name: portName}
	a.ports[portName] = p
	return p, nil
}

// Port returns the named port if it has been opened, for test assertions
// and frame injection.
func (a *FakeAdapter) Port(portName string) (*FakePort, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, ok := a.ports[portName]
	return p, ok
}

// FakePort is a Port backed by an in-process slice of sent frames and a
// set of subscriber callbacks, with no real I/O.
type FakePort struct {
	name string

	mu     sync.Mutex
	closed bool
	sent   [][]byte
	subs   []func([]byte)
}

var _ Port = (*FakePort)(nil)

// Send records frame and returns ErrPortClosed if the port was closed.
func (p *FakePort) Send(frame []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPortClosed
	}
	cp := make([]byte, len(frame))
	copy(cp, frame)
	p.sent = append(p.sent, cp)
	return nil
}

// Subscribe registers cb; it is invoked synchronously by Deliver.
func (p *FakePort) Subscribe(cb func([]byte)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	idx := len(p.subs)
	p.subs = append(p.subs, cb)
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if idx < len(p.subs) {
			p.subs[idx] = nil
		}
	}
}

// Close marks the port closed; further Send calls fail.
func (p *FakePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Deliver simulates an inbound frame arriving on this port, calling every
// live subscriber synchronously (the fake has no goroutine of its own;
// tests control timing explicitly).
func (p *FakePort) Deliver(frame []byte) {
	p.mu.Lock()
	subs := make([]func([]byte), len(p.subs))
	copy(subs, p.subs)
	p.mu.Unlock()
	for _, cb := range subs {
		if cb != nil {
			cb(frame)
		}
	}
}

// Sent returns a copy of every frame sent on this port so far, in order.
func (p *FakePort) Sent() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([][]byte, len(p.sent))
	copy(out, p.sent)
	return out
}
