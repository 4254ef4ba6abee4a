// Package transport defines the MIDI transport contract the driver core
// consumes (C3): "send bytes to a named output port" and "subscribe to
// bytes from a named input port". It is the sole layer allowed to touch an
// external MIDI system; this package only defines the interface and a
// fake implementation for tests — real backends (node/native/Web-MIDI
// bindings) are external collaborators, out of scope per spec §1.
package transport

// Port is one open, named MIDI connection. The adapter delivers each
// complete SysEx message (F0..F7 inclusive) as one Subscribe callback;
// short (non-SysEx) control-port messages are delivered as their natural
// 1-3 byte frames (spec §4.3).
type Port interface {
	// Send writes a complete frame to the port.
	Send(frame []byte) error
	// Subscribe registers cb to be called with each inbound frame.
	// The returned func removes the subscription.
	Subscribe(cb func(frame []byte)) (unsubscribe func())
	// Close releases the port. Subsequent Send calls return an error.
	Close() error
}

// Adapter opens named MIDI ports. A conforming implementation performs no
// framing of its own (spec §4.3: "the adapter performs no framing").
type Adapter interface {
	Open(portName string) (Port, error)
}

// Pair bundles the two logical port pairs the protocol needs (spec §4.3,
// §6): Data carries custom-mode SysEx traffic and the universal inquiry;
// Control carries slot selection and the feature-enable note-on.
type Pair struct {
	Data    Port
	Control Port
}

// OpenPair opens both named port pairs through adapter.
func OpenPair(adapter Adapter, dataPortName, controlPortName string) (Pair, error) {
	data, err := adapter.Open(dataPortName)
	if err != nil {
		return Pair{}, err
	}
	control, err := adapter.Open(controlPortName)
	if err != nil {
		_ = data.Close()
		return Pair{}, err
	}
	return Pair{Data: data, Control: control}, nil
}

// Close closes both ports, returning the first error encountered (if any)
// after attempting both.
func (p Pair) Close() error {
	err1 := p.Data.Close()
	err2 := p.Control.Close()
	if err1 != nil {
		return err1
	}
	return err2
}
