package manager

import (
	"context"
	"sort"

	"github.com/launchctl/lcxl3core/clog"
	"github.com/launchctl/lcxl3core/handshake"
	"github.com/launchctl/lcxl3core/mode"
	"github.com/launchctl/lcxl3core/sysex"
	"github.com/launchctl/lcxl3core/transaction"
)

// Manager is the driver core's public entry point: connect to the device,
// then read and write custom modes by slot (spec §1, §4, §7).
type Manager struct {
	handshake *handshake.Engine
	txn       *transaction.Engine
	log       clog.Clog
}

// New assembles a Manager from an already-constructed handshake engine and
// transaction engine. Wiring the transport pair, slot selector, and these
// two engines together is the caller's responsibility (spec §1: the
// transport backend itself is out of scope).
func New(h *handshake.Engine, txn *transaction.Engine, logger clog.Clog) *Manager {
	return &Manager{handshake: h, txn: txn, log: logger}
}

// Connect runs the four-message handshake (spec §4.4).
func (m *Manager) Connect(ctx context.Context) error {
	return m.handshake.Connect(ctx)
}

// Reconnect retries the handshake with backoff (spec §4.4).
func (m *Manager) Reconnect(ctx context.Context) error {
	return m.handshake.Reconnect(ctx)
}

// Disconnect marks the device connection lost.
func (m *Manager) Disconnect() {
	m.handshake.Disconnect()
}

// State reports the handshake engine's connection state.
func (m *Manager) State() handshake.State {
	return m.handshake.State()
}

// Identity returns the device identity published by the handshake, once
// State() is handshake.Ready.
func (m *Manager) Identity() (sysex.DeviceIdentity, error) {
	if m.handshake.State() != handshake.Ready {
		return sysex.DeviceIdentity{}, ErrNotReady
	}
	return m.handshake.Identity(), nil
}

// ReadMode reads both pages of slot and merges them into a validated
// CustomMode (spec §4.1.7-4.1.8, §4.6, scenario 3 for factory-default
// slots).
func (m *Manager) ReadMode(ctx context.Context, slot sysex.Slot) (mode.CustomMode, error) {
	if !slot.Valid() {
		return mode.CustomMode{}, ErrInvalidSlot
	}
	page0, page1, err := m.txn.ReadSlot(ctx, slot)
	if err != nil {
		return mode.CustomMode{}, &ProtocolError{Err: err}
	}
	cm, merr := mergePages(slot, page0, page1)
	if merr != nil {
		return mode.CustomMode{}, &ProtocolError{Err: merr}
	}
	return cm, nil
}

// WriteMode writes cm to slot. It does not re-validate cm: the invariants
// (I1-I6) are enforced by mode.New when cm is constructed, before any byte
// reaches the wire (spec §7). Slot 15 is rejected outright (spec B1).
func (m *Manager) WriteMode(ctx context.Context, slot sysex.Slot, cm mode.CustomMode) error {
	if !slot.Valid() || !slot.Writable() {
		return ErrInvalidSlot
	}
	page0, page1, err := splitPages(cm)
	if err != nil {
		return &ProtocolError{Err: err}
	}
	if err := m.txn.WriteSlot(ctx, slot, page0, page1); err != nil {
		return &ProtocolError{Err: err}
	}
	return nil
}

// mergePages combines a read transaction's two PagePayloads into a
// validated CustomMode. Page 1's Name is unused (only page 0 carries the
// mode name); colors are never returned by a read response, so a read
// CustomMode always has an empty Colors map (spec §4.1.7-4.1.8).
func mergePages(slot sysex.Slot, page0, page1 sysex.PagePayload) (mode.CustomMode, error) {
	controls := make(map[sysex.ControlID]mode.ControlBinding, len(page0.Controls)+len(page1.Controls))
	labels := make(map[sysex.ControlID]string, len(page0.Labels)+len(page1.Labels))
	colors := make(map[sysex.ControlID]byte, len(page0.Colors)+len(page1.Colors))

	for _, pp := range [2]sysex.PagePayload{page0, page1} {
		for _, d := range pp.Controls {
			controls[d.ID] = mode.ControlBinding{
				ControlID:   d.ID,
				ControlType: d.Type,
				MIDIChannel: d.Channel,
				CCNumber:    d.CC,
				MinValue:    d.MinValue,
				MaxValue:    d.MaxValue,
				Behaviour:   d.Behaviour,
			}
		}
		for id, text := range pp.Labels {
			labels[id] = text
		}
		for id, color := range pp.Colors {
			colors[id] = color
		}
	}

	cm, err := mode.New(slot, page0.Name, controls, labels, colors)
	if err != nil {
		return mode.CustomMode{}, err
	}
	return cm, nil
}

// splitPages is mergePages' inverse: it distributes a CustomMode's
// controls, labels, and colors across the two wire pages by each control
// id's natural range (spec §4.1.7, §6), in ascending control-id order so
// identical modes always build identical bytes.
func splitPages(cm mode.CustomMode) (sysex.PagePayload, sysex.PagePayload, error) {
	page0 := sysex.PagePayload{Page: sysex.Page0, Name: cm.Name(), Labels: map[sysex.ControlID]string{}, Colors: map[sysex.ControlID]byte{}}
	page1 := sysex.PagePayload{Page: sysex.Page1, Labels: map[sysex.ControlID]string{}, Colors: map[sysex.ControlID]byte{}}

	controls := cm.Controls()
	ids := make([]sysex.ControlID, 0, len(controls))
	for id := range controls {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		b := controls[id]
		d := sysex.ControlDef{
			ID:        id,
			Type:      b.ControlType,
			Channel:   b.MIDIChannel,
			Behaviour: b.Behaviour,
			MinValue:  b.MinValue,
			CC:        b.CCNumber,
			MaxValue:  b.MaxValue,
		}
		page, perr := sysex.PageOf(id)
		if perr != nil {
			return page0, page1, perr
		}
		if page == sysex.Page0 {
			page0.Controls = append(page0.Controls, d)
		} else {
			page1.Controls = append(page1.Controls, d)
		}
	}

	labels := cm.Labels()
	labelIDs := make([]sysex.ControlID, 0, len(labels))
	for id := range labels {
		labelIDs = append(labelIDs, id)
	}
	sort.Slice(labelIDs, func(i, j int) bool { return labelIDs[i] < labelIDs[j] })
	for _, id := range labelIDs {
		page, perr := sysex.PageOf(id)
		if perr != nil {
			return page0, page1, perr
		}
		if page == sysex.Page0 {
			page0.Labels[id] = labels[id]
		} else {
			page1.Labels[id] = labels[id]
		}
	}

	colors := cm.Colors()
	colorIDs := make([]sysex.ControlID, 0, len(colors))
	for id := range colors {
		colorIDs = append(colorIDs, id)
	}
	sort.Slice(colorIDs, func(i, j int) bool { return colorIDs[i] < colorIDs[j] })
	for _, id := range colorIDs {
		page, perr := sysex.PageOf(id)
		if perr != nil {
			return page0, page1, perr
		}
		if page == sysex.Page0 {
			page0.Colors[id] = colors[id]
		} else {
			page1.Colors[id] = colors[id]
		}
	}

	return page0, page1, nil
}
