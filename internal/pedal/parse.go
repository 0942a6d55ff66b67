package pedal

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrInvalidProfile is wrapped by every profile validation failure
var ErrInvalidProfile = errors.New("invalid pedal profile")

type rawProfile struct {
	Device        string       `yaml:"device"`
	SchemaVersion int          `yaml:"schemaVersion"`
	MIDI          rawMIDI      `yaml:"midi"`
	Controls      []rawControl `yaml:"controls"`
	Notes         []string     `yaml:"notes"`
}

type rawMIDI struct {
	Channel int    `yaml:"channel"`
	PC      *rawPC `yaml:"pc"`
}

type rawPC struct {
	Range []int  `yaml:"range"`
	Banks []Bank `yaml:"banks"`
}

type rawControl struct {
	ID     string      `yaml:"id"`
	Label  string      `yaml:"label"`
	CC     *int        `yaml:"cc"`
	Type   ControlType `yaml:"type"`
	Hidden bool        `yaml:"hidden"`
	Min    *int        `yaml:"min"`
	Max    *int        `yaml:"max"`
	Map    yaml.Node   `yaml:"map"`
	Zones  []Zone      `yaml:"zones"`
	On     *int        `yaml:"on"`
	Off    *int        `yaml:"off"`
	Value  *int        `yaml:"value"`
}

// Parse decodes and validates a profile. JSON input is accepted as YAML.
func Parse(data []byte) (*Profile, error) {
	var raw rawProfile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	if raw.Device == "" {
		return nil, fmt.Errorf("%w: missing device name", ErrInvalidProfile)
	}

	p := &Profile{
		Device:        raw.Device,
		SchemaVersion: raw.SchemaVersion,
		MIDI:          MIDISettings{Channel: raw.MIDI.Channel},
		Notes:         raw.Notes,
	}
	if pc := raw.MIDI.PC; pc != nil && len(pc.Range) > 0 {
		if len(pc.Range) != 2 || !dataByte(pc.Range[0]) || !dataByte(pc.Range[1]) || pc.Range[0] > pc.Range[1] {
			return nil, fmt.Errorf("%w: %s: bad program range %v", ErrInvalidProfile, raw.Device, pc.Range)
		}
		p.MIDI.PC = &ProgramRange{Lo: pc.Range[0], Hi: pc.Range[1], Banks: pc.Banks}
	}

	seen := make(map[string]bool, len(raw.Controls))
	for i, rc := range raw.Controls {
		c, err := rc.build()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: control %d: %v", ErrInvalidProfile, raw.Device, i, err)
		}
		id := c.Info().ID
		if seen[id] {
			return nil, fmt.Errorf("%w: %s: duplicate control id %q", ErrInvalidProfile, raw.Device, id)
		}
		seen[id] = true
		p.Controls = append(p.Controls, c)
	}
	return p, nil
}

func (rc rawControl) build() (Control, error) {
	if rc.ID == "" {
		return nil, errors.New("missing id")
	}
	if rc.CC == nil || !dataByte(*rc.CC) {
		return nil, fmt.Errorf("%s: cc must be 0-127", rc.ID)
	}
	base := Base{ID: rc.ID, Label: rc.Label, CC: *rc.CC, Hidden: rc.Hidden}
	if base.Label == "" {
		base.Label = rc.ID
	}

	switch rc.Type {
	case TypeRange:
		lo, hi := 0, 127
		if rc.Min != nil {
			lo = *rc.Min
		}
		if rc.Max != nil {
			hi = *rc.Max
		}
		if !dataByte(lo) || !dataByte(hi) || lo > hi {
			return nil, fmt.Errorf("%s: bad range %d-%d", rc.ID, lo, hi)
		}
		return RangeControl{Base: base, Min: lo, Max: hi}, nil

	case TypeEnum:
		opts, err := decodeOptions(&rc.Map)
		if err != nil {
			return nil, fmt.Errorf("%s: %v", rc.ID, err)
		}
		return EnumControl{Base: base, Options: opts}, nil

	case TypeZoneEnum:
		if len(rc.Zones) == 0 {
			return nil, fmt.Errorf("%s: no zones", rc.ID)
		}
		for _, z := range rc.Zones {
			if !dataByte(z.Min) || !dataByte(z.Max) || z.Min > z.Max {
				return nil, fmt.Errorf("%s: bad zone %q", rc.ID, z.Name)
			}
		}
		return ZoneEnumControl{Base: base, Zones: append([]Zone(nil), rc.Zones...)}, nil

	case TypeToggle:
		on, off := 127, 0
		if rc.On != nil {
			on = *rc.On
		}
		if rc.Off != nil {
			off = *rc.Off
		}
		if !dataByte(on) || !dataByte(off) {
			return nil, fmt.Errorf("%s: bad toggle values %d/%d", rc.ID, on, off)
		}
		return ToggleControl{Base: base, On: on, Off: off}, nil

	case TypeMomentary:
		pulse := 127
		if rc.Value != nil {
			pulse = *rc.Value
		}
		if !dataByte(pulse) {
			return nil, fmt.Errorf("%s: bad pulse value %d", rc.ID, pulse)
		}
		return MomentaryControl{Base: base, Value: pulse}, nil
	}
	return nil, fmt.Errorf("%s: unknown control type %q", rc.ID, rc.Type)
}

// decodeOptions reads an enum map keeping the order written in the file
func decodeOptions(node *yaml.Node) ([]Option, error) {
	if node.Kind != yaml.MappingNode || len(node.Content) == 0 {
		return nil, errors.New("enum map must be a non-empty mapping")
	}
	opts := make([]Option, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var v int
		if err := node.Content[i+1].Decode(&v); err != nil {
			return nil, fmt.Errorf("option %q: %v", node.Content[i].Value, err)
		}
		if !dataByte(v) {
			return nil, fmt.Errorf("option %q: value %d out of range", node.Content[i].Value, v)
		}
		opts = append(opts, Option{Name: node.Content[i].Value, Value: v})
	}
	return opts, nil
}

func dataByte(n int) bool {
	return n >= 0 && n <= 127
}
