package midi

import (
	"errors"
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"
)

var (
	// ErrInvalidChannel is returned for channels outside 1-16
	ErrInvalidChannel = errors.New("invalid MIDI channel")
	// ErrOutOfRange is returned for data bytes outside 0-127
	ErrOutOfRange = errors.New("value out of range")
)

// RangeError describes a value rejected at the codec boundary
type RangeError struct {
	Label string
	Value int
	Min   int
	Max   int
	kind  error
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s out of range (%d-%d): %d", e.Label, e.Min, e.Max, e.Value)
}

func (e *RangeError) Unwrap() error {
	return e.kind
}

// IsChannel reports whether n is a valid channel number
func IsChannel(n int) bool {
	return n >= int(MinChannel) && n <= int(MaxChannel)
}

// ValidateChannel converts n to a Channel, failing unless 1 <= n <= 16
func ValidateChannel(n int) (Channel, error) {
	if !IsChannel(n) {
		return 0, &RangeError{Label: "Channel", Value: n, Min: 1, Max: 16, kind: ErrInvalidChannel}
	}
	return Channel(n), nil
}

// ValidateSevenBit checks that n fits a MIDI data byte. label names the field in the error.
func ValidateSevenBit(n int, label string) (uint8, error) {
	if n < 0 || n > 127 {
		return 0, &RangeError{Label: label, Value: n, Min: 0, Max: 127, kind: ErrOutOfRange}
	}
	return uint8(n), nil
}

// EncodeProgramChange builds the two-byte wire form [0xC0|ch-1, program]
func EncodeProgramChange(pc ProgramChange) ([]byte, error) {
	ch, err := ValidateChannel(int(pc.Channel))
	if err != nil {
		return nil, err
	}
	program, err := ValidateSevenBit(pc.Program, "Program")
	if err != nil {
		return nil, err
	}
	return []byte(gomidi.ProgramChange(uint8(ch-1), program)), nil
}

// EncodeControlChange builds the three-byte wire form [0xB0|ch-1, controller, value]
func EncodeControlChange(cc ControlChange) ([]byte, error) {
	ch, err := ValidateChannel(int(cc.Channel))
	if err != nil {
		return nil, err
	}
	controller, err := ValidateSevenBit(cc.Controller, "Controller")
	if err != nil {
		return nil, err
	}
	value, err := ValidateSevenBit(cc.Value, "Value")
	if err != nil {
		return nil, err
	}
	return []byte(gomidi.ControlChange(uint8(ch-1), controller, value)), nil
}
