package storage

import "strings"

// BoardKey holds the ordered pedal instances
const BoardKey = "pedal-board:v2"

const (
	valuesPrefix    = "pedal-values:v2:"
	snapshotsPrefix = "pedal-snapshots:v2:"

	// Pre-board layout, keyed by device name
	LegacySelectedKey     = "pedal-selected"
	legacyValuesPrefix    = "pedal-values:"
	legacySnapshotsPrefix = "pedal-snapshots:"
	legacyChannelPrefix   = "pedal-channel:"
)

// ValuesKey is where an instance's committed control values live
func ValuesKey(instanceID string) string {
	return valuesPrefix + instanceID
}

// SnapshotsKey is where an instance's snapshots live
func SnapshotsKey(instanceID string) string {
	return snapshotsPrefix + instanceID
}

func LegacyValuesKey(device string) string {
	return legacyValuesPrefix + device
}

func LegacySnapshotsKey(device string) string {
	return legacySnapshotsPrefix + device
}

func LegacyChannelKey(device string) string {
	return legacyChannelPrefix + device
}

// LegacyDevice extracts the device name from a pre-board key.
// ok is false for current-layout keys and unrelated keys.
func LegacyDevice(key string) (device string, ok bool) {
	switch {
	case strings.HasPrefix(key, valuesPrefix), strings.HasPrefix(key, snapshotsPrefix):
		return "", false
	case strings.HasPrefix(key, legacyValuesPrefix):
		return strings.TrimPrefix(key, legacyValuesPrefix), true
	case strings.HasPrefix(key, legacySnapshotsPrefix):
		return strings.TrimPrefix(key, legacySnapshotsPrefix), true
	case strings.HasPrefix(key, legacyChannelPrefix):
		return strings.TrimPrefix(key, legacyChannelPrefix), true
	}
	return "", false
}

// Ref identifies the instance owning persisted values or snapshots.
// Device is empty when the instance is not bound to a profile.
type Ref struct {
	ID     string
	Device string
}

// DeviceField is the JSON form of a device binding, null when unbound
func DeviceField(device string) *string {
	if device == "" {
		return nil
	}
	return &device
}
