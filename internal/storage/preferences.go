package storage

import (
	"sort"
	"sync"

	"fyne.io/fyne/v2"
)

// keyIndex lists the keys written through a Preferences store,
// since fyne preferences cannot be enumerated.
const keyIndex = "pedal-editor:keys"

// Preferences is a Store backed by a fyne app's preferences
type Preferences struct {
	mu    sync.Mutex
	prefs fyne.Preferences
}

// NewPreferences wraps the preferences of a fyne app
func NewPreferences(prefs fyne.Preferences) *Preferences {
	return &Preferences{prefs: prefs}
}

func (p *Preferences) Get(key string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.indexed(key) {
		return "", false
	}
	return p.prefs.String(key), true
}

func (p *Preferences) Set(key, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prefs.SetString(key, value)
	if !p.indexed(key) {
		keys := append(p.prefs.StringList(keyIndex), key)
		sort.Strings(keys)
		p.prefs.SetStringList(keyIndex, keys)
	}
	return nil
}

func (p *Preferences) Remove(key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prefs.RemoveValue(key)
	keys := p.prefs.StringList(keyIndex)
	kept := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != key {
			kept = append(kept, k)
		}
	}
	p.prefs.SetStringList(keyIndex, kept)
	return nil
}

func (p *Preferences) Keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	keys := append([]string(nil), p.prefs.StringList(keyIndex)...)
	sort.Strings(keys)
	return keys
}

func (p *Preferences) indexed(key string) bool {
	for _, k := range p.prefs.StringList(keyIndex) {
		if k == key {
			return true
		}
	}
	return false
}
