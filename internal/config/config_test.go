package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if cfg.StorageBackend != StoragePreferences {
		t.Fatalf("backend = %q, want preferences", cfg.StorageBackend)
	}
	if cfg.PollInterval() != time.Second {
		t.Fatalf("poll interval = %v, want 1s", cfg.PollInterval())
	}
	if cfg.Locale != "fr" {
		t.Fatalf("locale = %q, want fr", cfg.Locale)
	}
	if cfg.Path() != path {
		t.Fatalf("path = %q, want %q", cfg.Path(), path)
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	cfg.LastOutput = "USB MIDI"
	cfg.MetricsAddr = "127.0.0.1:9102"
	cfg.OpenAtStartup = true
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reloaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.LastOutput != "USB MIDI" || reloaded.MetricsAddr != "127.0.0.1:9102" || !reloaded.OpenAtStartup {
		t.Fatalf("config not persisted: %+v", reloaded)
	}
}

func TestValidateNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	raw := `{"storage_backend":"cloud","port_poll_interval_ms":5,"locale":""}`
	if err := os.WriteFile(path, []byte(raw), 0644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if cfg.StorageBackend != StoragePreferences {
		t.Fatalf("unknown backend not reset: %q", cfg.StorageBackend)
	}
	if cfg.PortPollIntervalMS != DefaultPollIntervalMS {
		t.Fatalf("poll interval not reset: %d", cfg.PortPollIntervalMS)
	}
	if cfg.Locale != DefaultLocale {
		t.Fatalf("locale not reset: %q", cfg.Locale)
	}
}

func TestFileBackendDefaultsPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"storage_backend":"file"}`), 0644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if want := filepath.Join(dir, "storage.json"); cfg.StoragePath != want {
		t.Fatalf("storage path = %q, want %q", cfg.StoragePath, want)
	}
}

func TestLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{"), 0644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatalf("corrupt config should fail to load")
	}
}
