// Package board manages the ordered set of pedal instances and their persisted state.
package board

import (
	"encoding/json"
	"log"
	"math"
	"time"

	"github.com/PixPMusic/pedal-editor/internal/midi"
	"github.com/PixPMusic/pedal-editor/internal/storage"
	"github.com/google/uuid"
)

// Instance binds a pedal profile to a channel with its own persisted state
type Instance struct {
	ID        string
	Device    string // "" when unbound
	Channel   midi.Channel
	CreatedAt time.Time
}

// Ref returns the storage owner for this instance
func (i Instance) Ref() storage.Ref {
	return storage.Ref{ID: i.ID, Device: i.Device}
}

// Patch is a partial update. Nil fields are left untouched; a Device
// pointing to "" unbinds the instance.
type Patch struct {
	Device  *string
	Channel *int
}

// Direction moves an instance within the board
type Direction int

const (
	Up Direction = iota
	Down
)

// Catalog is the profile lookup the board needs
type Catalog interface {
	First() string
	Has(device string) bool
	DefaultChannel(device string) midi.Channel
}

type storedInstance struct {
	ID        string    `json:"id"`
	Device    *string   `json:"device"`
	Channel   int       `json:"channel"`
	CreatedAt time.Time `json:"createdAt"`
}

type storedBoard struct {
	Instances []storedInstance `json:"instances"`
}

// Manager owns the board. Every mutation persists the whole instance list.
type Manager struct {
	kv        storage.Store
	catalog   Catalog
	instances []Instance

	now   func() time.Time
	newID func() string
}

// NewManager creates a board manager; call Init before use
func NewManager(kv storage.Store, catalog Catalog) *Manager {
	return &Manager{
		kv:      kv,
		catalog: catalog,
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
	}
}

// Init restores the persisted board, falling back to legacy migration and
// then to a single default instance. The board is never empty afterwards.
func (m *Manager) Init() {
	if restored := m.load(); len(restored) > 0 {
		m.setInstances(restored)
		return
	}
	if migrated := m.migrateLegacy(); len(migrated) > 0 {
		log.Printf("Migrated %d pedal(s) from legacy storage", len(migrated))
		m.setInstances(migrated)
		return
	}
	m.setInstances([]Instance{m.createInstance("", nil)})
}

// Instances returns the board in display order
func (m *Manager) Instances() []Instance {
	return append([]Instance(nil), m.instances...)
}

// Instance returns the instance with the given id
func (m *Manager) Instance(id string) (Instance, bool) {
	for _, inst := range m.instances {
		if inst.ID == id {
			return inst, true
		}
	}
	return Instance{}, false
}

// AddInstance appends an instance for device (the first profile when empty).
// Without an override the first channel unused by the board is assigned.
func (m *Manager) AddInstance(device string, channelOverride *int) Instance {
	ch := channelOverride
	if ch == nil {
		next := int(m.nextChannel(""))
		ch = &next
	}
	inst := m.createInstance(device, ch)
	m.setInstances(append(m.Instances(), inst))
	return inst
}

// UpdateInstance applies patch to the instance with the given id
func (m *Manager) UpdateInstance(id string, patch Patch) {
	next := m.Instances()
	for i := range next {
		if next[i].ID != id {
			continue
		}
		if patch.Device != nil {
			next[i].Device = *patch.Device
		}
		if patch.Channel != nil {
			next[i].Channel = sanitizeChannel(float64(*patch.Channel))
		}
	}
	m.setInstances(next)
}

// RemoveInstance deletes an instance and its persisted state. Removing the
// last instance replaces it with a fresh default one.
func (m *Manager) RemoveInstance(id string) {
	m.cleanup(id)
	kept := make([]Instance, 0, len(m.instances))
	for _, inst := range m.instances {
		if inst.ID != id {
			kept = append(kept, inst)
		}
	}
	if len(kept) == 0 {
		kept = append(kept, m.createInstance("", nil))
	}
	m.setInstances(kept)
}

// DuplicateInstance clones an instance onto the next channel, copying its
// persisted values and snapshots
func (m *Manager) DuplicateInstance(id string) (Instance, bool) {
	source, ok := m.Instance(id)
	if !ok {
		return Instance{}, false
	}
	next := int(source.Channel) + 1
	if !midi.IsChannel(next) {
		next = int(midi.MinChannel)
	}
	if m.channelUsed(midi.Channel(next)) {
		next = int(m.nextChannel(""))
	}

	inst := m.createInstance(source.Device, &next)
	m.setInstances(append(m.Instances(), inst))

	for _, key := range []func(string) string{storage.ValuesKey, storage.SnapshotsKey} {
		raw, ok := m.kv.Get(key(source.ID))
		if !ok || raw == "" {
			continue
		}
		if err := m.kv.Set(key(inst.ID), raw); err != nil {
			log.Printf("Failed to copy pedal state to %s: %v", inst.ID, err)
		}
	}
	return inst, true
}

// MoveInstance swaps an instance with its neighbour; no-op at the edges
func (m *Manager) MoveInstance(id string, dir Direction) {
	idx := -1
	for i, inst := range m.instances {
		if inst.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	target := idx - 1
	if dir == Down {
		target = idx + 1
	}
	if target < 0 || target >= len(m.instances) {
		return
	}
	next := m.Instances()
	next[idx], next[target] = next[target], next[idx]
	m.setInstances(next)
}

func (m *Manager) createInstance(device string, channelOverride *int) Instance {
	if device == "" {
		device = m.catalog.First()
	}
	ch := m.catalog.DefaultChannel(device)
	if channelOverride != nil {
		ch = sanitizeChannel(float64(*channelOverride))
	}
	return Instance{
		ID:        m.newID(),
		Device:    device,
		Channel:   ch,
		CreatedAt: m.now(),
	}
}

// nextChannel returns the lowest channel not used by any instance other than
// excludeID. When all are taken it keeps excludeID's channel, or 1.
func (m *Manager) nextChannel(excludeID string) midi.Channel {
	used := make(map[midi.Channel]bool, len(m.instances))
	for _, inst := range m.instances {
		if inst.ID != excludeID {
			used[inst.Channel] = true
		}
	}
	for c := midi.MinChannel; c <= midi.MaxChannel; c++ {
		if !used[c] {
			return c
		}
	}
	if inst, ok := m.Instance(excludeID); ok && excludeID != "" {
		return inst.Channel
	}
	return midi.MinChannel
}

func (m *Manager) channelUsed(ch midi.Channel) bool {
	for _, inst := range m.instances {
		if inst.Channel == ch {
			return true
		}
	}
	return false
}

func (m *Manager) setInstances(next []Instance) {
	m.instances = next
	m.persist()
}

func (m *Manager) persist() {
	payload := storedBoard{Instances: make([]storedInstance, 0, len(m.instances))}
	for _, inst := range m.instances {
		payload.Instances = append(payload.Instances, storedInstance{
			ID:        inst.ID,
			Device:    storage.DeviceField(inst.Device),
			Channel:   int(inst.Channel),
			CreatedAt: inst.CreatedAt,
		})
	}
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to encode pedal board: %v", err)
		return
	}
	if err := m.kv.Set(storage.BoardKey, string(data)); err != nil {
		log.Printf("Failed to save pedal board: %v", err)
	}
}

// load reads the persisted board, repairing malformed entries field by field.
// It returns nil when nothing usable is stored.
func (m *Manager) load() []Instance {
	raw, ok := m.kv.Get(storage.BoardKey)
	if !ok || raw == "" {
		return nil
	}
	var parsed struct {
		Instances []map[string]any `json:"instances"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		log.Printf("Ignoring corrupt pedal board: %v", err)
		return nil
	}
	if parsed.Instances == nil {
		return nil
	}

	restored := make([]Instance, 0, len(parsed.Instances))
	for _, item := range parsed.Instances {
		if item == nil {
			continue
		}
		inst := Instance{Channel: sanitizeChannel(item["channel"])}
		if id, ok := item["id"].(string); ok {
			inst.ID = id
		} else {
			inst.ID = m.newID()
		}
		if device, ok := item["device"].(string); ok {
			inst.Device = device
		}
		inst.CreatedAt = m.now()
		if s, ok := item["createdAt"].(string); ok {
			if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
				inst.CreatedAt = t
			}
		}
		restored = append(restored, inst)
	}
	return restored
}

// sanitizeChannel accepts integral numbers in 1-16 and maps anything else to 1
func sanitizeChannel(v any) midi.Channel {
	n, ok := v.(float64)
	if !ok || n != math.Trunc(n) || !midi.IsChannel(int(n)) {
		return midi.MinChannel
	}
	return midi.Channel(n)
}

func (m *Manager) cleanup(id string) {
	for _, key := range []string{storage.ValuesKey(id), storage.SnapshotsKey(id)} {
		if err := m.kv.Remove(key); err != nil {
			log.Printf("Failed to clear %s: %v", key, err)
		}
	}
}
