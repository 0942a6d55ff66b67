// Package values keeps the draft and committed control values of one pedal instance.
package values

import (
	"encoding/json"
	"log"
	"sort"

	"github.com/PixPMusic/pedal-editor/internal/storage"
)

// Map holds control values by control id
type Map map[string]int

// Clone returns an independent copy of m
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Payload is the persisted form of an instance's committed values
type Payload struct {
	Device *string `json:"device"`
	Values Map     `json:"values"`
}

// Store tracks committed values (last applied and persisted) and draft
// values (in-progress edits) for the bound instance.
type Store struct {
	kv        storage.Store
	ref       storage.Ref
	bound     bool
	committed Map
	draft     Map
}

// New creates a store persisting through kv
func New(kv storage.Store) *Store {
	return &Store{kv: kv, committed: Map{}, draft: Map{}}
}

// Bind switches to ref, reloading only when the instance id or device changed
func (s *Store) Bind(ref storage.Ref) {
	if s.bound && s.ref == ref {
		return
	}
	s.Load(ref)
}

// Ref returns the bound instance
func (s *Store) Ref() storage.Ref {
	return s.ref
}

// Load replaces all state with what is persisted for ref. Values stored for
// a different device than ref.Device are ignored.
func (s *Store) Load(ref storage.Ref) {
	s.ref = ref
	s.bound = true
	s.committed = Map{}
	s.draft = Map{}
	if ref.ID == "" {
		return
	}

	raw, ok := s.kv.Get(storage.ValuesKey(ref.ID))
	if !ok || raw == "" {
		return
	}
	loaded, err := decode(raw, ref.Device)
	if err != nil {
		log.Printf("Failed to load control values for %s: %v", ref.ID, err)
		return
	}
	s.committed = loaded
	s.draft = loaded.Clone()
}

// errMismatch marks values captured for another device
type errMismatch struct{ stored string }

func (e errMismatch) Error() string { return "values belong to device " + e.stored }

func decode(raw string, device string) (Map, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, err
	}
	if _, wrapped := fields["values"]; !wrapped {
		// Bare map written before values carried their device
		var legacy Map
		if err := json.Unmarshal([]byte(raw), &legacy); err != nil {
			return nil, err
		}
		return legacy, nil
	}

	var p Payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, err
	}
	// A wrapper without a device key predates device tagging
	if _, tagged := fields["device"]; tagged {
		stored := ""
		if p.Device != nil {
			stored = *p.Device
		}
		if stored != device {
			return nil, errMismatch{stored: stored}
		}
	}
	if p.Values == nil {
		return Map{}, nil
	}
	return p.Values, nil
}

// Draft returns a copy of the draft values
func (s *Store) Draft() Map {
	return s.draft.Clone()
}

// Committed returns a copy of the committed values
func (s *Store) Committed() Map {
	return s.committed.Clone()
}

// Value returns the draft value of a control
func (s *Store) Value(id string) (int, bool) {
	v, ok := s.draft[id]
	return v, ok
}

// SetDraftValue edits the draft only; nothing is persisted
func (s *Store) SetDraftValue(id string, value int) {
	s.draft[id] = value
}

// CommitValue sets a control in both maps and persists the committed map
func (s *Store) CommitValue(id string, value int) {
	s.committed[id] = value
	s.draft[id] = value
	s.persist()
}

// CommitMany replaces the committed and draft maps with m and persists once
func (s *Store) CommitMany(m Map) {
	s.committed = m.Clone()
	s.draft = m.Clone()
	s.persist()
}

// ResetDraft discards in-progress edits
func (s *Store) ResetDraft() {
	s.draft = s.committed.Clone()
}

// ApplyDraft resets the draft to committed, then overlays m onto it
func (s *Store) ApplyDraft(m Map) {
	s.draft = s.committed.Clone()
	for k, v := range m {
		s.draft[k] = v
	}
}

// DirtyIDs returns the ids whose draft and committed values differ, sorted
func (s *Store) DirtyIDs() []string {
	var ids []string
	for id, v := range s.draft {
		if c, ok := s.committed[id]; !ok || c != v {
			ids = append(ids, id)
		}
	}
	for id := range s.committed {
		if _, ok := s.draft[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Dirty reports whether any draft value is uncommitted
func (s *Store) Dirty() bool {
	return len(s.DirtyIDs()) > 0
}

func (s *Store) persist() {
	if s.ref.ID == "" {
		return
	}
	data, err := json.Marshal(Payload{Device: storage.DeviceField(s.ref.Device), Values: s.committed})
	if err != nil {
		log.Printf("Failed to encode control values: %v", err)
		return
	}
	if err := s.kv.Set(storage.ValuesKey(s.ref.ID), string(data)); err != nil {
		log.Printf("Failed to save control values for %s: %v", s.ref.ID, err)
	}
}
