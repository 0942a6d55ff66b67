package pedal

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/PixPMusic/pedal-editor/internal/midi"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// ErrUnknownDevice is returned for device names missing from the catalog
var ErrUnknownDevice = errors.New("unknown pedal device")

//go:embed profiles
var builtin embed.FS

// Catalog is the read-only set of known profiles, ordered by device name
type Catalog struct {
	profiles []*Profile
	byDevice map[string]*Profile
}

// NewCatalog orders profiles by device name using the collation of tag.
// When two profiles share a device name the later one wins.
func NewCatalog(profiles []*Profile, tag language.Tag) *Catalog {
	c := &Catalog{byDevice: make(map[string]*Profile, len(profiles))}
	for _, p := range profiles {
		if _, dup := c.byDevice[p.Device]; !dup {
			c.profiles = append(c.profiles, p)
		} else {
			for i := range c.profiles {
				if c.profiles[i].Device == p.Device {
					c.profiles[i] = p
				}
			}
		}
		c.byDevice[p.Device] = p
	}
	col := collate.New(tag, collate.IgnoreCase, collate.IgnoreDiacritics)
	sort.SliceStable(c.profiles, func(i, j int) bool {
		return col.CompareString(c.profiles[i].Device, c.profiles[j].Device) < 0
	})
	return c
}

// Builtin loads the profiles embedded in the binary
func Builtin() ([]*Profile, error) {
	return loadFS(builtin, "profiles")
}

// LoadDir loads every *.yaml, *.yml and *.json profile in dir
func LoadDir(dir string) ([]*Profile, error) {
	return loadFS(os.DirFS(dir), ".")
}

func loadFS(fsys fs.FS, dir string) ([]*Profile, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	var profiles []*Profile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml", ".json":
		default:
			continue
		}
		data, err := fs.ReadFile(fsys, filepath.ToSlash(filepath.Join(dir, e.Name())))
		if err != nil {
			return nil, err
		}
		p, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

// List returns all profiles in display order
func (c *Catalog) List() []*Profile {
	return append([]*Profile(nil), c.profiles...)
}

// Devices returns the device names in display order
func (c *Catalog) Devices() []string {
	names := make([]string, 0, len(c.profiles))
	for _, p := range c.profiles {
		names = append(names, p.Device)
	}
	return names
}

// Lookup finds a profile by exact device name
func (c *Catalog) Lookup(device string) (*Profile, bool) {
	p, ok := c.byDevice[device]
	return p, ok
}

// Has reports whether device is a known profile
func (c *Catalog) Has(device string) bool {
	_, ok := c.byDevice[device]
	return ok
}

// First returns the first device name in display order, or "" when empty
func (c *Catalog) First() string {
	if len(c.profiles) == 0 {
		return ""
	}
	return c.profiles[0].Device
}

// DefaultChannel is the profile's configured channel, falling back to 1
func (c *Catalog) DefaultChannel(device string) midi.Channel {
	if p, ok := c.byDevice[device]; ok && midi.IsChannel(p.MIDI.Channel) {
		return midi.Channel(p.MIDI.Channel)
	}
	return midi.MinChannel
}
