package board

import (
	"encoding/json"
	"log"
	"math"
	"strconv"
	"strings"

	"github.com/PixPMusic/pedal-editor/internal/midi"
	"github.com/PixPMusic/pedal-editor/internal/storage"
	"github.com/PixPMusic/pedal-editor/internal/values"
)

type legacySnapshots struct {
	Device    *string           `json:"device"`
	Snapshots []json.RawMessage `json:"snapshots"`
}

// legacyDevices lists devices referenced by pre-board keys, the last selected
// device first
func (m *Manager) legacyDevices() []string {
	seen := make(map[string]bool)
	var devices []string
	add := func(device string) {
		if device == "" || seen[device] {
			return
		}
		seen[device] = true
		devices = append(devices, device)
	}
	if saved, ok := m.kv.Get(storage.LegacySelectedKey); ok {
		add(saved)
	}
	for _, key := range m.kv.Keys() {
		if device, ok := storage.LegacyDevice(key); ok {
			add(device)
		}
	}
	return devices
}

// migrateLegacy builds one instance per known legacy device and copies its
// values and snapshots under the new instance keys
func (m *Manager) migrateLegacy() []Instance {
	var board []Instance
	for _, device := range m.legacyDevices() {
		if !m.catalog.Has(device) {
			continue
		}
		inst := Instance{
			ID:        m.newID(),
			Device:    device,
			Channel:   m.legacyChannel(device),
			CreatedAt: m.now(),
		}
		if err := m.copyLegacyValues(device, inst.ID); err != nil {
			log.Printf("Failed to migrate values for %s: %v", device, err)
		}
		if err := m.copyLegacySnapshots(device, inst.ID); err != nil {
			log.Printf("Failed to migrate snapshots for %s: %v", device, err)
		}
		board = append(board, inst)
	}
	return board
}

func (m *Manager) legacyChannel(device string) midi.Channel {
	if raw, ok := m.kv.Get(storage.LegacyChannelKey(device)); ok {
		n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err == nil && n == math.Trunc(n) && midi.IsChannel(int(n)) {
			return midi.Channel(n)
		}
	}
	return m.catalog.DefaultChannel(device)
}

func (m *Manager) copyLegacyValues(device, id string) error {
	raw, ok := m.kv.Get(storage.LegacyValuesKey(device))
	if !ok || raw == "" {
		return nil
	}
	var vals values.Map
	if err := json.Unmarshal([]byte(raw), &vals); err != nil {
		return err
	}
	data, err := json.Marshal(values.Payload{Device: &device, Values: vals})
	if err != nil {
		return err
	}
	return m.kv.Set(storage.ValuesKey(id), string(data))
}

func (m *Manager) copyLegacySnapshots(device, id string) error {
	raw, ok := m.kv.Get(storage.LegacySnapshotsKey(device))
	if !ok || raw == "" {
		return nil
	}
	payload := legacySnapshots{Device: &device}
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal([]byte(trimmed), &payload.Snapshots); err != nil {
			return err
		}
	} else {
		var wrapped legacySnapshots
		if err := json.Unmarshal([]byte(trimmed), &wrapped); err != nil {
			return err
		}
		payload.Snapshots = wrapped.Snapshots
	}
	if payload.Snapshots == nil {
		payload.Snapshots = []json.RawMessage{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return m.kv.Set(storage.SnapshotsKey(id), string(data))
}
