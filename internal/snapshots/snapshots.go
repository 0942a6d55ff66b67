// Package snapshots stores named captures of an instance's committed control values.
package snapshots

import (
	"encoding/json"
	"log"
	"time"

	"github.com/PixPMusic/pedal-editor/internal/storage"
	"github.com/PixPMusic/pedal-editor/internal/values"
	"github.com/google/uuid"
)

// Snapshot is an immutable capture of control values
type Snapshot struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Values    values.Map `json:"values"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Payload is the persisted form of an instance's snapshots
type Payload struct {
	Device    *string    `json:"device"`
	Snapshots []Snapshot `json:"snapshots"`
}

// Store holds the snapshots of the bound instance
type Store struct {
	kv        storage.Store
	ref       storage.Ref
	bound     bool
	snapshots []Snapshot
	layout    string

	now   func() time.Time
	newID func() string
}

// New creates a store persisting through kv
func New(kv storage.Store, opts ...Option) *Store {
	s := &Store{
		kv:     kv,
		layout: NameLayout,
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bind switches to ref, reloading only when the instance id or device changed
func (s *Store) Bind(ref storage.Ref) {
	if s.bound && s.ref == ref {
		return
	}
	s.Load(ref)
}

// Load replaces the list with what is persisted for ref. Snapshots captured
// for another device are ignored.
func (s *Store) Load(ref storage.Ref) {
	s.ref = ref
	s.bound = true
	s.snapshots = nil
	if ref.ID == "" {
		return
	}
	raw, ok := s.kv.Get(storage.SnapshotsKey(ref.ID))
	if !ok || raw == "" {
		return
	}
	list, err := Decode(raw, ref.Device)
	if err != nil {
		log.Printf("Failed to load snapshots for %s: %v", ref.ID, err)
		return
	}
	s.snapshots = list
}

type mismatchError struct{ stored string }

func (e mismatchError) Error() string { return "snapshots belong to device " + e.stored }

// Decode parses any of the persisted shapes: a bare array, an object without
// a device, or the full payload. A payload recorded for a device other than
// device is rejected.
func Decode(raw string, device string) ([]Snapshot, error) {
	var list []Snapshot
	if err := json.Unmarshal([]byte(raw), &list); err == nil {
		return list, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, err
	}
	var p Payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, err
	}
	if _, hasDevice := fields["device"]; hasDevice {
		stored := ""
		if p.Device != nil {
			stored = *p.Device
		}
		if stored != device {
			return nil, mismatchError{stored: stored}
		}
	}
	return p.Snapshots, nil
}

// List returns copies of the snapshots in creation order
func (s *Store) List() []Snapshot {
	out := make([]Snapshot, 0, len(s.snapshots))
	for _, snap := range s.snapshots {
		out = append(out, snap.copy())
	}
	return out
}

// Get returns a copy of the snapshot with the given id
func (s *Store) Get(id string) (Snapshot, bool) {
	for _, snap := range s.snapshots {
		if snap.ID == id {
			return snap.copy(), true
		}
	}
	return Snapshot{}, false
}

func (snap Snapshot) copy() Snapshot {
	snap.Values = snap.Values.Clone()
	return snap
}

// CreateSnapshot stores a copy of vals under name. It does nothing when the
// instance has no id or no device. An empty name defaults to the current time.
func (s *Store) CreateSnapshot(name string, vals values.Map) (Snapshot, bool) {
	if s.ref.ID == "" || s.ref.Device == "" {
		return Snapshot{}, false
	}
	now := s.now()
	if name == "" {
		name = now.Format(s.layout)
	}
	snap := Snapshot{
		ID:        s.newID(),
		Name:      name,
		Values:    vals.Clone(),
		CreatedAt: now,
	}
	s.snapshots = append(s.snapshots[:len(s.snapshots):len(s.snapshots)], snap)
	s.persist()
	return snap, true
}

// RemoveSnapshot deletes the snapshot with the given id
func (s *Store) RemoveSnapshot(id string) {
	kept := make([]Snapshot, 0, len(s.snapshots))
	for _, snap := range s.snapshots {
		if snap.ID != id {
			kept = append(kept, snap)
		}
	}
	s.snapshots = kept
	s.persist()
}

func (s *Store) persist() {
	if s.ref.ID == "" || s.ref.Device == "" {
		return
	}
	list := s.snapshots
	if list == nil {
		list = []Snapshot{}
	}
	data, err := json.Marshal(Payload{Device: storage.DeviceField(s.ref.Device), Snapshots: list})
	if err != nil {
		log.Printf("Failed to encode snapshots: %v", err)
		return
	}
	if err := s.kv.Set(storage.SnapshotsKey(s.ref.ID), string(data)); err != nil {
		log.Printf("Failed to save snapshots for %s: %v", s.ref.ID, err)
	}
}
