package tray

import (
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"github.com/PixPMusic/pedal-editor/internal/config"
	"github.com/PixPMusic/pedal-editor/internal/midi"
	"github.com/PixPMusic/pedal-editor/internal/startup"
)

// Outputs is the output selection shown in the tray
type Outputs interface {
	Outputs() []midi.Port
	Selected() string
	SelectOutput(id string)
}

// Callbacks for tray menu actions
type Callbacks struct {
	OnOpen           func()
	OnQuit           func()
	OnOutputSelected func(port midi.Port)
}

// Tray owns the system tray menu
type Tray struct {
	desk      desktop.App
	cfg       *config.Config
	launcher  *startup.Launcher
	outputs   Outputs
	callbacks Callbacks
}

// Setup initializes the system tray using Fyne's built-in support.
// It returns nil when the app is not running on a desktop driver.
func Setup(app fyne.App, cfg *config.Config, launcher *startup.Launcher, outputs Outputs, callbacks Callbacks) *Tray {
	desk, ok := app.(desktop.App)
	if !ok {
		return nil
	}
	t := &Tray{desk: desk, cfg: cfg, launcher: launcher, outputs: outputs, callbacks: callbacks}
	t.Refresh()
	desk.SetSystemTrayIcon(theme.MediaMusicIcon())
	return t
}

// Refresh rebuilds the menu after the output list or selection changed
func (t *Tray) Refresh() {
	if t == nil || t.desk == nil {
		return
	}
	t.desk.SetSystemTrayMenu(t.menu())
}

func (t *Tray) menu() *fyne.Menu {
	openItem := fyne.NewMenuItem("Open Pedal Editor", func() {
		if t.callbacks.OnOpen != nil {
			t.callbacks.OnOpen()
		}
	})

	outputsItem := fyne.NewMenuItem("MIDI Output", nil)
	outputsItem.ChildMenu = t.outputsMenu()

	startupItem := fyne.NewMenuItem("Open at Startup", nil)
	startupItem.Checked = t.cfg.OpenAtStartup
	startupItem.Disabled = t.launcher == nil

	quitItem := fyne.NewMenuItem("Quit", func() {
		if t.callbacks.OnQuit != nil {
			t.callbacks.OnQuit()
		}
	})

	menu := fyne.NewMenu("Pedal Editor",
		openItem,
		outputsItem,
		fyne.NewMenuItemSeparator(),
		startupItem,
		fyne.NewMenuItemSeparator(),
		quitItem,
	)

	// Set the action after menu is created so we can refresh it
	startupItem.Action = func() {
		enabled := !startupItem.Checked
		if err := t.launcher.Set(enabled); err != nil {
			log.Printf("Failed to update login item: %v", err)
			return
		}
		startupItem.Checked = enabled
		t.cfg.OpenAtStartup = enabled
		if err := t.cfg.Save(); err != nil {
			log.Printf("Failed to save config: %v", err)
		}
		menu.Refresh()
	}
	return menu
}

func (t *Tray) outputsMenu() *fyne.Menu {
	ports := t.outputs.Outputs()
	if len(ports) == 0 {
		none := fyne.NewMenuItem("No outputs", nil)
		none.Disabled = true
		return fyne.NewMenu("", none)
	}
	items := make([]*fyne.MenuItem, 0, len(ports))
	selected := t.outputs.Selected()
	for _, port := range ports {
		port := port
		item := fyne.NewMenuItem(port.Name, func() {
			t.outputs.SelectOutput(port.ID)
			if t.callbacks.OnOutputSelected != nil {
				t.callbacks.OnOutputSelected(port)
			}
			t.Refresh()
		})
		item.Checked = port.ID == selected
		items = append(items, item)
	}
	return fyne.NewMenu("", items...)
}
