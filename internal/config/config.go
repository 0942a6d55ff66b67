package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// StorageBackend selects where board, values and snapshots are persisted
type StorageBackend string

const (
	StoragePreferences StorageBackend = "preferences" // fyne app preferences
	StorageFile        StorageBackend = "file"        // JSON file at StoragePath
)

const (
	DefaultPollIntervalMS = 1000
	DefaultLocale         = "fr"

	minPollIntervalMS = 100
)

// Config represents the application configuration
type Config struct {
	StorageBackend     StorageBackend `json:"storage_backend"`
	StoragePath        string         `json:"storage_path,omitempty"`
	ProfilesDir        string         `json:"profiles_dir,omitempty"`
	PortPollIntervalMS int            `json:"port_poll_interval_ms"`
	Locale             string         `json:"locale"`
	MetricsAddr        string         `json:"metrics_addr,omitempty"`
	LastOutput         string         `json:"last_output,omitempty"`
	OpenAtStartup      bool           `json:"open_at_startup"`

	path string
}

// Default returns the configuration used when none is saved
func Default() *Config {
	return &Config{
		StorageBackend:     StoragePreferences,
		PortPollIntervalMS: DefaultPollIntervalMS,
		Locale:             DefaultLocale,
	}
}

// configDir returns the platform-appropriate config directory
func configDir() (string, error) {
	configHome, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configHome, "pedal-editor"), nil
}

// ConfigPath returns the path to the config file
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, returning defaults if not found
func Load() (*Config, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(configPath)
}

// LoadFrom reads the config at configPath, returning defaults if not found
func LoadFrom(configPath string) (*Config, error) {
	cfg := Default()
	cfg.path = configPath

	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		cfg.Validate()
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.Validate()
	return cfg, nil
}

// Validate replaces unusable values with defaults
func (c *Config) Validate() {
	switch c.StorageBackend {
	case StoragePreferences, StorageFile:
	default:
		c.StorageBackend = StoragePreferences
	}
	if c.StorageBackend == StorageFile && c.StoragePath == "" && c.path != "" {
		c.StoragePath = filepath.Join(filepath.Dir(c.path), "storage.json")
	}
	if c.PortPollIntervalMS < minPollIntervalMS {
		c.PortPollIntervalMS = DefaultPollIntervalMS
	}
	if c.Locale == "" {
		c.Locale = DefaultLocale
	}
}

// PollInterval is the hot-plug polling period
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PortPollIntervalMS) * time.Millisecond
}

// Path returns the file the config was loaded from
func (c *Config) Path() string {
	return c.path
}

// Save writes the config to disk
func (c *Config) Save() error {
	configPath := c.path
	if configPath == "" {
		p, err := ConfigPath()
		if err != nil {
			return err
		}
		configPath = p
		c.path = p
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}
