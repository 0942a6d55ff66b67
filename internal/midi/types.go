package midi

// Channel is a MIDI channel as shown to users (1-16)
type Channel uint8

const (
	MinChannel Channel = 1
	MaxChannel Channel = 16
)

// ProgramChange selects a program on a channel
type ProgramChange struct {
	Channel Channel
	Program int // 0-127
}

// ControlChange sets a controller value on a channel
type ControlChange struct {
	Channel    Channel
	Controller int // 0-127
	Value      int // 0-127
}

// Port is an addressable MIDI output
type Port struct {
	ID   string
	Name string
}
