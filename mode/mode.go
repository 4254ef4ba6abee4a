// Package mode holds the Mode Model (C2): the pure, validated in-memory
// representation of a Launch Control XL 3 custom mode, independent of how
// it was read or will be written.
package mode

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/launchctl/lcxl3core/sysex"
)

// ControlBinding is one control's mapping to MIDI output (spec §3).
type ControlBinding struct {
	ControlID   sysex.ControlID
	ControlType sysex.ControlType
	MIDIChannel byte // 0..15
	CCNumber    byte // 0..127
	MinValue    byte // 0..127
	MaxValue    byte // 0..127
	Behaviour   sysex.Behaviour
}

func (b ControlBinding) validate() error {
	inferred, err := sysex.ControlTypeForID(b.ControlID)
	if err != nil {
		return &InvariantError{Which: "controlId", Detail: err.Error()}
	}
	if inferred != b.ControlType {
		return &InvariantError{Which: "controlType", Detail: "does not match the type implied by controlId"}
	}
	if b.MIDIChannel > 15 {
		return &InvariantError{Which: "midiChannel", Detail: "must be 0..15"}
	}
	if b.CCNumber > 127 {
		return &InvariantError{Which: "ccNumber", Detail: "must be 0..127"}
	}
	if b.MinValue > 127 || b.MaxValue > 127 {
		return &InvariantError{Which: "minValue/maxValue", Detail: "must be 0..127"}
	}
	if b.MinValue > b.MaxValue {
		return &InvariantError{Which: "minValue", Detail: "must be <= maxValue"} // B4
	}
	if !sysex.ValidBehaviourForType(b.ControlType, b.Behaviour) {
		return &InvariantError{Which: "behaviour", Detail: fmt.Sprintf("%s is not valid for %s", b.Behaviour, b.ControlType)}
	}
	return nil
}

// InvariantError reports which model invariant (spec §3, I1-I6) was
// violated.
type InvariantError struct {
	Which  string
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("mode: invariant violated (%s): %s", e.Which, e.Detail)
}

// CustomMode is the single aggregate the system reads and writes (spec
// §3). It is immutable once constructed; New validates every invariant
// up front so a Mode Manager write never sends an invalid mode to the
// wire (spec §7).
type CustomMode struct {
	slot     sysex.Slot
	name     string
	controls map[sysex.ControlID]ControlBinding
	labels   map[sysex.ControlID]string
	colors   map[sysex.ControlID]byte
}

// factoryNamePattern recognizes the device's empty-slot name, e.g.
// "Custom 1" (spec §4.6.1, scenario 3).
var factoryNamePattern = regexp.MustCompile(`^Custom \d+$`)

// New constructs a CustomMode, validating invariants I1-I6. controls,
// labels, and colors are copied; the caller's maps may be reused
// afterwards.
func New(slot sysex.Slot, name string, controls map[sysex.ControlID]ControlBinding, labels map[sysex.ControlID]string, colors map[sysex.ControlID]byte) (CustomMode, error) {
	if !slot.Valid() {
		return CustomMode{}, &InvariantError{Which: "slot", Detail: "must be 0..15"} // I3 (read side allows 15)
	}
	if len(name) < 1 || len(name) > 18 {
		return CustomMode{}, &InvariantError{Which: "name", Detail: "must be 1..18 characters"} // I4, B2
	}

	cm := CustomMode{
		slot:     slot,
		name:     name,
		controls: make(map[sysex.ControlID]ControlBinding, len(controls)),
		labels:   make(map[sysex.ControlID]string, len(labels)),
		colors:   make(map[sysex.ControlID]byte, len(colors)),
	}
	for id, b := range controls {
		if id != b.ControlID {
			return CustomMode{}, &InvariantError{Which: "controlId", Detail: "map key must match binding's ControlID"} // I2
		}
		if err := b.validate(); err != nil {
			return CustomMode{}, err // I5
		}
		cm.controls[id] = b
	}
	for id, text := range labels {
		if _, ok := cm.controls[id]; !ok {
			return CustomMode{}, &InvariantError{Which: "labels", Detail: "label control id not present in controls"} // I1
		}
		cm.labels[id] = text
	}
	for id, color := range colors {
		if _, ok := cm.controls[id]; !ok {
			return CustomMode{}, &InvariantError{Which: "colors", Detail: "color control id not present in controls"} // I1
		}
		if color > 127 {
			return CustomMode{}, &InvariantError{Which: "colors", Detail: "color code must be 0..127"}
		}
		cm.colors[id] = color
	}
	return cm, nil
}

// Slot returns the mode's target slot.
func (m CustomMode) Slot() sysex.Slot { return m.slot }

// Name returns the mode's display name.
func (m CustomMode) Name() string { return m.name }

// Controls returns a copy of the control bindings, keyed by id.
func (m CustomMode) Controls() map[sysex.ControlID]ControlBinding {
	out := make(map[sysex.ControlID]ControlBinding, len(m.controls))
	for k, v := range m.controls {
		out[k] = v
	}
	return out
}

// Labels returns a copy of the per-control labels.
func (m CustomMode) Labels() map[sysex.ControlID]string {
	out := make(map[sysex.ControlID]string, len(m.labels))
	for k, v := range m.labels {
		out[k] = v
	}
	return out
}

// Colors returns a copy of the per-control LED colors.
func (m CustomMode) Colors() map[sysex.ControlID]byte {
	out := make(map[sysex.ControlID]byte, len(m.colors))
	for k, v := range m.colors {
		out[k] = v
	}
	return out
}

// IsFactoryDefault reports whether this mode is an unprogrammed slot, as
// recognized by the device's "Custom N" factory name pattern (spec
// §4.6.1, scenario 3; SPEC_FULL.md §10.1).
func (m CustomMode) IsFactoryDefault() bool {
	return factoryNamePattern.MatchString(m.name)
}

// Equal reports whether two modes are equal iff their controls, labels,
// and colors match as multisets by id with identical field values, and
// their names are identical (spec §4.2). Slot is not compared: the same
// logical mode content may be destined for, or read from, different
// slots.
func (m CustomMode) Equal(other CustomMode) bool {
	if m.name != other.name {
		return false
	}
	if len(m.controls) != len(other.controls) || len(m.labels) != len(other.labels) || len(m.colors) != len(other.colors) {
		return false
	}
	for id, b := range m.controls {
		ob, ok := other.controls[id]
		if !ok || b != ob {
			return false
		}
	}
	for id, text := range m.labels {
		if other.labels[id] != text {
			return false
		}
	}
	for id, color := range m.colors {
		oc, ok := other.colors[id]
		if !ok || oc != color {
			return false
		}
	}
	return true
}

// sortedIDs returns control ids in ascending order, used to make
// Canonical()'s output deterministic.
func sortedIDs(ids map[sysex.ControlID]ControlBinding) []sysex.ControlID {
	out := make([]sysex.ControlID, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
