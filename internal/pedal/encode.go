package pedal

import (
	"errors"
	"fmt"
)

// ErrInvalidValue is returned when a value cannot be sent for a control
var ErrInvalidValue = errors.New("invalid control value")

// Encode maps a stored control value to the CC data byte sent to the device
func Encode(c Control, value int) (uint8, error) {
	switch ctl := c.(type) {
	case RangeControl:
		if value < ctl.Min || value > ctl.Max {
			return 0, fmt.Errorf("%w: %s expects %d-%d, got %d", ErrInvalidValue, ctl.ID, ctl.Min, ctl.Max, value)
		}
		return uint8(value), nil
	case EnumControl:
		for _, o := range ctl.Options {
			if o.Value == value {
				return uint8(value), nil
			}
		}
		return 0, fmt.Errorf("%w: %s has no option with value %d", ErrInvalidValue, ctl.ID, value)
	case ZoneEnumControl:
		if _, ok := zoneFor(ctl.Zones, value); !ok {
			return 0, fmt.Errorf("%w: %s has no zone containing %d", ErrInvalidValue, ctl.ID, value)
		}
		return uint8(value), nil
	case ToggleControl:
		if value != ctl.On && value != ctl.Off {
			return 0, fmt.Errorf("%w: %s toggles between %d and %d, got %d", ErrInvalidValue, ctl.ID, ctl.Off, ctl.On, value)
		}
		return uint8(value), nil
	case MomentaryControl:
		return uint8(ctl.Value), nil
	}
	return 0, fmt.Errorf("%w: unsupported control %T", ErrInvalidValue, c)
}

// DefaultValue is the value shown for a control with nothing stored
func DefaultValue(c Control) int {
	switch ctl := c.(type) {
	case RangeControl:
		return ctl.Min
	case EnumControl:
		if len(ctl.Options) > 0 {
			return ctl.Options[0].Value
		}
	case ZoneEnumControl:
		if len(ctl.Zones) > 0 {
			return ctl.Zones[0].Min
		}
	case ToggleControl:
		return ctl.Off
	case MomentaryControl:
		return ctl.Value
	}
	return 0
}

// Persistent reports whether values of c are stored. Momentary pulses are not.
func Persistent(c Control) bool {
	switch c.(type) {
	case MomentaryControl:
		return false
	case RangeControl, EnumControl, ZoneEnumControl, ToggleControl:
		return true
	}
	return false
}

// ZoneName returns the zone of a zoneEnum control holding value
func ZoneName(c ZoneEnumControl, value int) (string, bool) {
	z, ok := zoneFor(c.Zones, value)
	return z.Name, ok
}

// OptionName returns the enum option name for value
func OptionName(c EnumControl, value int) (string, bool) {
	for _, o := range c.Options {
		if o.Value == value {
			return o.Name, true
		}
	}
	return "", false
}

func zoneFor(zones []Zone, value int) (Zone, bool) {
	for _, z := range zones {
		if value >= z.Min && value <= z.Max {
			return z, true
		}
	}
	return Zone{}, false
}

// ValidateProgram checks program against the profile's declared PC range
func ValidateProgram(p *Profile, program int) error {
	if !dataByte(program) {
		return fmt.Errorf("%w: program %d out of range (0-127)", ErrInvalidValue, program)
	}
	if p == nil || p.MIDI.PC == nil {
		return nil
	}
	if program < p.MIDI.PC.Lo || program > p.MIDI.PC.Hi {
		return fmt.Errorf("%w: %s accepts programs %d-%d, got %d", ErrInvalidValue, p.Device, p.MIDI.PC.Lo, p.MIDI.PC.Hi, program)
	}
	return nil
}
