// Package editor binds one board instance to its stores and the dispatcher.
package editor

import (
	"errors"
	"fmt"

	"github.com/PixPMusic/pedal-editor/internal/board"
	"github.com/PixPMusic/pedal-editor/internal/pedal"
	"github.com/PixPMusic/pedal-editor/internal/snapshots"
	"github.com/PixPMusic/pedal-editor/internal/values"
)

// ErrUnknownControl is returned for a control id the bound profile lacks
var ErrUnknownControl = errors.New("unknown control")

// Dispatcher sends on the active output
type Dispatcher interface {
	SetChannel(n int)
	SendControlChange(controller, value int) error
	SendProgramChange(program int) error
}

// Profiles looks up pedal profiles by device name
type Profiles interface {
	Lookup(device string) (*pedal.Profile, bool)
}

// Session edits the instance last passed to Open
type Session struct {
	profiles   Profiles
	dispatcher Dispatcher
	values     *values.Store
	snapshots  *snapshots.Store

	instance board.Instance
	profile  *pedal.Profile
}

// New creates a session. Call Open before editing.
func New(profiles Profiles, d Dispatcher, v *values.Store, s *snapshots.Store) *Session {
	return &Session{profiles: profiles, dispatcher: d, values: v, snapshots: s}
}

// Open focuses inst. Stores reload only when its id or device changed.
func (s *Session) Open(inst board.Instance) {
	s.instance = inst
	s.profile = nil
	if p, ok := s.profiles.Lookup(inst.Device); ok {
		s.profile = p
	}
	s.values.Bind(inst.Ref())
	s.snapshots.Bind(inst.Ref())
	s.dispatcher.SetChannel(int(inst.Channel))
}

// Instance returns the open instance
func (s *Session) Instance() board.Instance {
	return s.instance
}

// Profile returns the profile of the open instance, nil when unbound or unknown
func (s *Session) Profile() *pedal.Profile {
	return s.profile
}

// Value returns the draft value of a control, or its default when unset
func (s *Session) Value(id string) int {
	if v, ok := s.values.Value(id); ok {
		return v
	}
	if c, err := s.control(id); err == nil {
		return pedal.DefaultValue(c)
	}
	return 0
}

// SetDraft records an edit without sending it
func (s *Session) SetDraft(id string, value int) error {
	c, err := s.control(id)
	if err != nil {
		return err
	}
	if _, err := pedal.Encode(c, value); err != nil {
		return err
	}
	s.values.SetDraftValue(id, value)
	return nil
}

// Send transmits a control value and commits it
func (s *Session) Send(id string, value int) error {
	c, err := s.control(id)
	if err != nil {
		return err
	}
	if err := s.transmit(c, value); err != nil {
		return err
	}
	if pedal.Persistent(c) {
		s.values.CommitValue(id, value)
	}
	return nil
}

// Trigger sends a momentary control's pulse
func (s *Session) Trigger(id string) error {
	c, err := s.control(id)
	if err != nil {
		return err
	}
	m, ok := c.(pedal.MomentaryControl)
	if !ok {
		return fmt.Errorf("%w: %s is not momentary", pedal.ErrInvalidValue, id)
	}
	return s.transmit(m, m.Value)
}

// ApplyDraft transmits every dirty control in profile order and then commits
// the draft. Nothing is committed if a send fails.
func (s *Session) ApplyDraft() error {
	if s.profile == nil {
		return s.unknownDevice()
	}
	dirty := make(map[string]bool)
	for _, id := range s.values.DirtyIDs() {
		dirty[id] = true
	}
	draft := s.values.Draft()
	for _, c := range s.profile.Controls {
		id := c.Info().ID
		if !dirty[id] || !pedal.Persistent(c) {
			continue
		}
		v, ok := draft[id]
		if !ok {
			v = pedal.DefaultValue(c)
		}
		if err := s.transmit(c, v); err != nil {
			return fmt.Errorf("failed to apply %s: %w", id, err)
		}
	}
	s.values.CommitMany(draft)
	return nil
}

// Dirty reports unsent edits
func (s *Session) Dirty() bool {
	return s.values.Dirty()
}

// DirtyIDs lists controls whose draft differs from the committed value
func (s *Session) DirtyIDs() []string {
	return s.values.DirtyIDs()
}

// Revert discards unsent edits
func (s *Session) Revert() {
	s.values.ResetDraft()
}

// CaptureSnapshot stores the committed values under name
func (s *Session) CaptureSnapshot(name string) (snapshots.Snapshot, bool) {
	return s.snapshots.CreateSnapshot(name, s.values.Committed())
}

// StageSnapshot loads a snapshot into the draft for review before ApplyDraft
func (s *Session) StageSnapshot(id string) bool {
	snap, ok := s.snapshots.Get(id)
	if !ok {
		return false
	}
	s.values.ApplyDraft(snap.Values)
	return true
}

// Snapshots lists the open instance's snapshots
func (s *Session) Snapshots() []snapshots.Snapshot {
	return s.snapshots.List()
}

// RemoveSnapshot deletes a snapshot
func (s *Session) RemoveSnapshot(id string) {
	s.snapshots.RemoveSnapshot(id)
}

// SendProgram selects a preset on the device
func (s *Session) SendProgram(program int) error {
	if err := pedal.ValidateProgram(s.profile, program); err != nil {
		return err
	}
	return s.dispatcher.SendProgramChange(program)
}

func (s *Session) control(id string) (pedal.Control, error) {
	if s.profile == nil {
		return nil, s.unknownDevice()
	}
	c, ok := s.profile.Control(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s on %s", ErrUnknownControl, id, s.profile.Device)
	}
	return c, nil
}

func (s *Session) transmit(c pedal.Control, value int) error {
	data, err := pedal.Encode(c, value)
	if err != nil {
		return err
	}
	return s.dispatcher.SendControlChange(c.Info().CC, int(data))
}

func (s *Session) unknownDevice() error {
	if s.instance.Device == "" {
		return fmt.Errorf("%w: instance has no device", pedal.ErrUnknownDevice)
	}
	return fmt.Errorf("%w: %s", pedal.ErrUnknownDevice, s.instance.Device)
}
