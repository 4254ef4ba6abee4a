package mode

import (
	"gopkg.in/yaml.v2"
)

// snapshotBinding and snapshot are the deterministic canonical form used
// for golden/snapshot tests (spec §4.2): a plain, field-tagged struct with
// no map-iteration-order sensitivity, marshaled with yaml.v2 the way
// dswarbrick-smart/cmd/mkdrivedb marshals its drive catalog.
type snapshotBinding struct {
	ControlID   byte   `yaml:"control_id"`
	ControlType string `yaml:"control_type"`
	MIDIChannel byte   `yaml:"midi_channel"`
	CCNumber    byte   `yaml:"cc_number"`
	MinValue    byte   `yaml:"min_value"`
	MaxValue    byte   `yaml:"max_value"`
	Behaviour   string `yaml:"behaviour"`
	Label       string `yaml:"label,omitempty"`
	Color       *byte  `yaml:"color,omitempty"`
}

type snapshot struct {
	Slot     byte              `yaml:"slot"`
	Name     string            `yaml:"name"`
	Controls []snapshotBinding `yaml:"controls"`
}

// Canonical returns a stable, deterministically-ordered serialization of m
// suitable for snapshot tests (spec §4.2).
func (m CustomMode) Canonical() (string, error) {
	snap := snapshot{
		Slot: byte(m.slot),
		Name: m.name,
	}
	for _, id := range sortedIDs(m.controls) {
		b := m.controls[id]
		sb := snapshotBinding{
			ControlID:   byte(id),
			ControlType: b.ControlType.String(),
			MIDIChannel: b.MIDIChannel,
			CCNumber:    b.CCNumber,
			MinValue:    b.MinValue,
			MaxValue:    b.MaxValue,
			Behaviour:   b.Behaviour.String(),
			Label:       m.labels[id],
		}
		if color, ok := m.colors[id]; ok {
			c := color
			sb.Color = &c
		}
		snap.Controls = append(snap.Controls, sb)
	}
	out, err := yaml.Marshal(snap)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
