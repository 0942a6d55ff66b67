package snapshots

import (
	"fmt"
	"testing"
	"time"

	"github.com/PixPMusic/pedal-editor/internal/storage"
	"github.com/PixPMusic/pedal-editor/internal/values"
	"golang.org/x/text/language"
)

var fixedTime = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func newTestStore(kv storage.Store) *Store {
	s := New(kv)
	s.now = func() time.Time { return fixedTime }
	n := 0
	s.newID = func() string {
		n++
		return fmt.Sprintf("snap-%d", n)
	}
	return s
}

func TestCreateAndReload(t *testing.T) {
	kv := storage.NewMemory()
	ref := storage.Ref{ID: "i", Device: "A"}
	s := newTestStore(kv)
	s.Load(ref)

	snap, ok := s.CreateSnapshot("S", values.Map{"a": 1})
	if !ok {
		t.Fatalf("CreateSnapshot refused a bound instance")
	}
	s.RemoveSnapshot("other")

	got, ok := s.Get(snap.ID)
	if !ok || got.Values["a"] != 1 {
		t.Fatalf("snapshot lost after unrelated removal: %+v", got)
	}

	restarted := newTestStore(kv)
	restarted.Load(ref)
	list := restarted.List()
	if len(list) != 1 {
		t.Fatalf("reloaded %d snapshots", len(list))
	}
	if list[0].ID != snap.ID || list[0].Name != "S" || list[0].Values["a"] != 1 || !list[0].CreatedAt.Equal(fixedTime) {
		t.Fatalf("reloaded snapshot differs: %+v", list[0])
	}
}

func TestSnapshotCopiesValues(t *testing.T) {
	s := newTestStore(storage.NewMemory())
	s.Load(storage.Ref{ID: "i", Device: "A"})
	src := values.Map{"a": 1}
	snap, _ := s.CreateSnapshot("S", src)
	src["a"] = 99
	got, _ := s.Get(snap.ID)
	if got.Values["a"] != 1 {
		t.Fatalf("snapshot aliased its source map")
	}
}

func TestDefaultName(t *testing.T) {
	s := newTestStore(storage.NewMemory())
	s.Load(storage.Ref{ID: "i", Device: "A"})
	snap, _ := s.CreateSnapshot("", values.Map{})
	if snap.Name != "14/03/2025 09:26:53" {
		t.Fatalf("default name = %q", snap.Name)
	}
}

func TestCreateRequiresDevice(t *testing.T) {
	kv := storage.NewMemory()
	for _, ref := range []storage.Ref{{}, {ID: "i"}, {Device: "A"}} {
		s := newTestStore(kv)
		s.Load(ref)
		if _, ok := s.CreateSnapshot("S", values.Map{"a": 1}); ok {
			t.Fatalf("snapshot created for %+v", ref)
		}
		if len(s.List()) != 0 {
			t.Fatalf("list not empty for %+v", ref)
		}
	}
	if keys := kv.Keys(); len(keys) != 0 {
		t.Fatalf("unexpected writes: %v", keys)
	}
}

func TestDeviceMismatch(t *testing.T) {
	kv := storage.NewMemory()
	s := newTestStore(kv)
	s.Load(storage.Ref{ID: "i", Device: "A"})
	s.CreateSnapshot("S", values.Map{"a": 1})

	s.Load(storage.Ref{ID: "i", Device: "B"})
	if len(s.List()) != 0 {
		t.Fatalf("snapshots leaked across devices")
	}
}

func TestLegacyShapes(t *testing.T) {
	cases := map[string]string{
		"bare array":   `[{"id":"x","name":"old","values":{"a":3},"createdAt":"2023-01-02T03:04:05.000Z"}]`,
		"no device":    `{"snapshots":[{"id":"x","name":"old","values":{"a":3}}]}`,
		"full payload": `{"device":"A","snapshots":[{"id":"x","name":"old","values":{"a":3}}]}`,
	}
	for name, raw := range cases {
		kv := storage.NewMemory()
		_ = kv.Set(storage.SnapshotsKey("i"), raw)
		s := newTestStore(kv)
		s.Load(storage.Ref{ID: "i", Device: "A"})
		list := s.List()
		if len(list) != 1 || list[0].ID != "x" || list[0].Values["a"] != 3 {
			t.Fatalf("%s: list = %+v", name, list)
		}
	}
}

func TestCorruptLoadsEmpty(t *testing.T) {
	kv := storage.NewMemory()
	_ = kv.Set(storage.SnapshotsKey("i"), `{"device":"A","snapshots":"nope"}`)
	s := newTestStore(kv)
	s.Load(storage.Ref{ID: "i", Device: "A"})
	if len(s.List()) != 0 {
		t.Fatalf("corrupt payload produced snapshots")
	}
}

func TestRemovePersists(t *testing.T) {
	kv := storage.NewMemory()
	ref := storage.Ref{ID: "i", Device: "A"}
	s := newTestStore(kv)
	s.Load(ref)
	a, _ := s.CreateSnapshot("a", values.Map{})
	b, _ := s.CreateSnapshot("b", values.Map{})
	s.RemoveSnapshot(a.ID)

	again := newTestStore(kv)
	again.Load(ref)
	list := again.List()
	if len(list) != 1 || list[0].ID != b.ID {
		t.Fatalf("after remove: %+v", list)
	}
}

func TestReturnedSnapshotsAreCopies(t *testing.T) {
	kv := storage.NewMemory()
	ref := storage.Ref{ID: "i", Device: "A"}
	s := newTestStore(kv)
	s.Load(ref)
	snap, _ := s.CreateSnapshot("S", values.Map{"a": 1})

	s.List()[0].Values["a"] = 99
	got, _ := s.Get(snap.ID)
	got.Values["a"] = 98
	s.RemoveSnapshot("other")

	again, _ := s.Get(snap.ID)
	if again.Values["a"] != 1 {
		t.Fatalf("stored snapshot changed through a returned copy: %v", again.Values)
	}
	reloaded := newTestStore(kv)
	reloaded.Load(ref)
	if v := reloaded.List()[0].Values["a"]; v != 1 {
		t.Fatalf("persisted snapshot value = %d, want 1", v)
	}
}

func TestDefaultNameFollowsLocale(t *testing.T) {
	cases := map[string]string{
		"fr":    "14/03/2025 09:26:53",
		"en-US": "3/14/2025, 9:26:53 AM",
		"de":    "14.3.2025, 09:26:53",
		"ja":    "2025/3/14 09:26:53",
	}
	for tag, want := range cases {
		s := New(storage.NewMemory(), WithLocale(language.MustParse(tag)))
		s.now = func() time.Time { return fixedTime }
		s.Load(storage.Ref{ID: "i", Device: "A"})
		snap, ok := s.CreateSnapshot("", values.Map{})
		if !ok {
			t.Fatalf("%s: CreateSnapshot refused", tag)
		}
		if snap.Name != want {
			t.Fatalf("%s: name = %q, want %q", tag, snap.Name, want)
		}
	}
}

func TestLayoutFallback(t *testing.T) {
	if got := Layout(language.MustParse("tlh")); got != "2006-01-02 15:04:05" {
		t.Fatalf("unsupported locale layout = %q", got)
	}
}
