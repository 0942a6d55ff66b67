package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/PixPMusic/pedal-editor/internal/board"
	"github.com/PixPMusic/pedal-editor/internal/config"
	"github.com/PixPMusic/pedal-editor/internal/dispatch"
	"github.com/PixPMusic/pedal-editor/internal/editor"
	"github.com/PixPMusic/pedal-editor/internal/midi"
	"github.com/PixPMusic/pedal-editor/internal/pedal"
	"github.com/PixPMusic/pedal-editor/internal/snapshots"
	"github.com/PixPMusic/pedal-editor/internal/startup"
	"github.com/PixPMusic/pedal-editor/internal/storage"
	"github.com/PixPMusic/pedal-editor/internal/tray"
	"github.com/PixPMusic/pedal-editor/internal/values"
	"github.com/PixPMusic/pedal-editor/internal/window"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register rtmidi driver
	"golang.org/x/text/language"
)

const appID = "com.pixpmusic.pedaleditor"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	locale, err := language.Parse(cfg.Locale)
	if err != nil {
		log.Printf("Invalid locale %q, using %s: %v", cfg.Locale, config.DefaultLocale, err)
		locale = language.French
	}

	// Create Fyne app
	fyneApp := app.NewWithID(appID)

	kv, err := openStore(fyneApp, cfg)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}

	catalog := loadCatalog(cfg, locale)

	pedalBoard := board.NewManager(kv, catalog)
	pedalBoard.Init()

	// Initialize MIDI manager
	midiManager := midi.NewManager(
		midi.WithPollRate(cfg.PollInterval()),
		midi.WithLocale(locale),
	)
	defer midiManager.Close()

	if cfg.MetricsAddr != "" {
		serveMetrics(cfg.MetricsAddr)
	}
	dispatcher := dispatch.New(midiManager, dispatch.NewMetrics(prometheus.DefaultRegisterer))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := dispatcher.Init(ctx); err != nil {
		log.Printf("Failed to initialize MIDI: %v", err)
	} else if cfg.LastOutput != "" && !dispatcher.SelectOutputByName(cfg.LastOutput) {
		log.Printf("Last MIDI output %q is not connected", cfg.LastOutput)
	}
	cancel()

	session := editor.New(catalog, dispatcher, values.New(kv), snapshots.New(kv, snapshots.WithLocale(locale)))

	mainWindow := window.NewMainWindow(fyneApp, cfg, pedalBoard, catalog, dispatcher, session)

	launcher, err := startup.New(appID, "Pedal Editor")
	if err != nil {
		log.Printf("Failed to resolve executable for login item: %v", err)
	}

	// Setup system tray
	trayMenu := tray.Setup(fyneApp, cfg, launcher, dispatcher, tray.Callbacks{
		OnOpen: func() {
			mainWindow.Show()
		},
		OnQuit: func() {
			fyneApp.Quit()
		},
		OnOutputSelected: func(port midi.Port) {
			cfg.LastOutput = port.Name
			if err := cfg.Save(); err != nil {
				log.Printf("Failed to save config: %v", err)
			}
			mainWindow.Refresh()
		},
	})
	dispatcher.OnChange(func() {
		fyne.Do(trayMenu.Refresh)
	})

	mainWindow.Show()

	// Run the Fyne app (this blocks until app.Quit is called)
	fyneApp.Run()
}

func openStore(a fyne.App, cfg *config.Config) (storage.Store, error) {
	if cfg.StorageBackend == config.StorageFile {
		return storage.OpenFile(cfg.StoragePath)
	}
	return storage.NewPreferences(a.Preferences()), nil
}

// loadCatalog merges the embedded profiles with the configured directory.
// Profiles from the directory replace embedded ones of the same device.
func loadCatalog(cfg *config.Config, locale language.Tag) *pedal.Catalog {
	profiles, err := pedal.Builtin()
	if err != nil {
		log.Printf("Failed to load built-in profiles: %v", err)
	}
	if cfg.ProfilesDir != "" {
		extra, err := pedal.LoadDir(cfg.ProfilesDir)
		if err != nil {
			log.Printf("Failed to load profiles from %s: %v", cfg.ProfilesDir, err)
		}
		profiles = append(profiles, extra...)
	}
	return pedal.NewCatalog(profiles, locale)
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Printf("Serving metrics on %s", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Printf("Metrics server stopped: %v", err)
		}
	}()
}
