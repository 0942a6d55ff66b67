package window

import (
	"context"
	"testing"

	"fyne.io/fyne/v2/test"
	"github.com/PixPMusic/pedal-editor/internal/board"
	"github.com/PixPMusic/pedal-editor/internal/config"
	"github.com/PixPMusic/pedal-editor/internal/dispatch"
	"github.com/PixPMusic/pedal-editor/internal/editor"
	"github.com/PixPMusic/pedal-editor/internal/midi"
	"github.com/PixPMusic/pedal-editor/internal/pedal"
	"github.com/PixPMusic/pedal-editor/internal/snapshots"
	"github.com/PixPMusic/pedal-editor/internal/storage"
	"github.com/PixPMusic/pedal-editor/internal/values"
	"golang.org/x/text/language"
)

type fakeGateway struct {
	sent [][]byte
}

func (g *fakeGateway) EnsureAccess(ctx context.Context) error { return nil }

func (g *fakeGateway) Outputs(ctx context.Context) ([]midi.Port, error) {
	return []midi.Port{{ID: "USB", Name: "USB"}}, nil
}

func (g *fakeGateway) OnStateChange(fn func()) {}

func (g *fakeGateway) Send(port midi.Port, data []byte) error {
	g.sent = append(g.sent, data)
	return nil
}

func newTestWindow(t *testing.T) (*MainWindow, *fakeGateway) {
	t.Helper()
	a := test.NewTempApp(t)

	profiles, err := pedal.Builtin()
	if err != nil {
		t.Fatalf("Builtin: %v", err)
	}
	catalog := pedal.NewCatalog(profiles, language.French)
	kv := storage.NewMemory()
	b := board.NewManager(kv, catalog)
	b.Init()

	g := &fakeGateway{}
	d := dispatch.New(g, nil)
	if err := d.Init(context.Background()); err != nil {
		t.Fatalf("dispatch Init: %v", err)
	}
	session := editor.New(catalog, d, values.New(kv), snapshots.New(kv))

	cfg, err := config.LoadFrom(t.TempDir() + "/config.json")
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	return NewMainWindow(a, cfg, b, catalog, d, session), g
}

func TestOpensFirstInstance(t *testing.T) {
	mw, _ := newTestWindow(t)
	inst := mw.board.Instances()[0]
	if mw.selectedID != inst.ID {
		t.Fatalf("first instance not opened")
	}
	if mw.deviceSelect.Selected != inst.Device {
		t.Fatalf("device select = %q, want %q", mw.deviceSelect.Selected, inst.Device)
	}
	if len(mw.controlsBox.Objects) == 0 {
		t.Fatalf("no control widgets built")
	}
	if mw.outputSelect.Selected != "USB" {
		t.Fatalf("output select = %q, want USB", mw.outputSelect.Selected)
	}
	if !mw.applyBtn.Disabled() {
		t.Fatalf("apply should be disabled without edits")
	}
}

func TestEditDraftsThenApplies(t *testing.T) {
	mw, g := newTestWindow(t)
	profile := mw.session.Profile()
	var target pedal.RangeControl
	for _, c := range pedal.VisibleControls(profile) {
		if rc, ok := c.(pedal.RangeControl); ok {
			target = rc
			break
		}
	}
	if target.ID == "" {
		t.Fatalf("built-in profile has no range control")
	}

	mw.edit(target.ID, target.Max)
	if len(g.sent) != 0 || mw.applyBtn.Disabled() {
		t.Fatalf("edit should only draft")
	}
	test.Tap(mw.applyBtn)
	if len(g.sent) != 1 {
		t.Fatalf("apply sent %d messages, want 1", len(g.sent))
	}
	if !mw.applyBtn.Disabled() {
		t.Fatalf("apply should be disabled after committing")
	}
}

func TestAddAndRemoveInstance(t *testing.T) {
	mw, _ := newTestWindow(t)
	first := mw.selectedID
	inst := mw.board.AddInstance("", nil)
	mw.openInstance(inst.ID)

	mw.removeInstance(inst.ID)
	if mw.selectedID != first {
		t.Fatalf("removing the open instance should reopen the first one")
	}
	if len(mw.board.Instances()) != 1 {
		t.Fatalf("instance not removed")
	}
}
