package pedal

// ControlType is the discriminant of a Control
type ControlType string

const (
	TypeRange     ControlType = "range"
	TypeEnum      ControlType = "enum"
	TypeZoneEnum  ControlType = "zoneEnum"
	TypeToggle    ControlType = "toggle"
	TypeMomentary ControlType = "momentary"
)

// Base holds the fields shared by every control
type Base struct {
	ID     string
	Label  string
	CC     int
	Hidden bool
}

// Info returns the shared control fields
func (b Base) Info() Base { return b }

func (Base) control() {}

// Control is one of RangeControl, EnumControl, ZoneEnumControl,
// ToggleControl or MomentaryControl
type Control interface {
	Info() Base
	Type() ControlType
	control()
}

// RangeControl sends any value in [Min, Max]
type RangeControl struct {
	Base
	Min int
	Max int
}

// Option is a named value of an EnumControl
type Option struct {
	Name  string
	Value int
}

// EnumControl sends one of a fixed set of values
type EnumControl struct {
	Base
	Options []Option
}

// Zone is a named value band of a ZoneEnumControl
type Zone struct {
	Name string
	Min  int
	Max  int
}

// ZoneEnumControl splits the value range into named zones
type ZoneEnumControl struct {
	Base
	Zones []Zone
}

// ToggleControl switches between two values
type ToggleControl struct {
	Base
	On  int
	Off int
}

// MomentaryControl emits a single pulse value
type MomentaryControl struct {
	Base
	Value int
}

func (RangeControl) Type() ControlType { return TypeRange }
func (EnumControl) Type() ControlType { return TypeEnum }
func (ZoneEnumControl) Type() ControlType { return TypeZoneEnum }
func (ToggleControl) Type() ControlType { return TypeToggle }
func (MomentaryControl) Type() ControlType { return TypeMomentary }

// Bank groups a span of programs under a name
type Bank struct {
	Name string `yaml:"name"`
	Min  int    `yaml:"min"`
	Max  int    `yaml:"max"`
}

// ProgramRange bounds the programs a device accepts
type ProgramRange struct {
	Lo    int
	Hi    int
	Banks []Bank
}

// MIDISettings holds a profile's MIDI defaults
type MIDISettings struct {
	Channel int // 0 when the profile declares none
	PC      *ProgramRange
}

// Profile describes one pedal model and its controls
type Profile struct {
	Device        string
	SchemaVersion int
	MIDI          MIDISettings
	Controls      []Control
	Notes         []string
}

// Control returns the control with the given id
func (p *Profile) Control(id string) (Control, bool) {
	for _, c := range p.Controls {
		if c.Info().ID == id {
			return c, true
		}
	}
	return nil, false
}

// VisibleControls returns the controls not marked hidden, in profile order
func VisibleControls(p *Profile) []Control {
	if p == nil {
		return nil
	}
	visible := make([]Control, 0, len(p.Controls))
	for _, c := range p.Controls {
		if !c.Info().Hidden {
			visible = append(visible, c)
		}
	}
	return visible
}
