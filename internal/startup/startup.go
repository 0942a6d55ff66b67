// Package startup registers the editor to launch at login.
package startup

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Launcher describes the login item for one executable
type Launcher struct {
	ID   string // reverse-DNS identifier, also the launch agent label
	Name string
	Exec string
}

// New returns a launcher for the running executable
func New(id, name string) (*Launcher, error) {
	execPath, err := os.Executable()
	if err != nil {
		return nil, err
	}
	return &Launcher{ID: id, Name: name, Exec: execPath}, nil
}

// Enable registers the application to launch at system startup
func (l *Launcher) Enable() error {
	switch runtime.GOOS {
	case "darwin":
		return l.enableMacOS()
	case "linux":
		return l.enableLinux()
	case "windows":
		return l.enableWindows()
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}

// Disable removes the application from system startup
func (l *Launcher) Disable() error {
	switch runtime.GOOS {
	case "darwin":
		return removeIfExists(l.macOSPlistPath())
	case "linux":
		return removeIfExists(l.linuxDesktopPath())
	case "windows":
		return l.disableWindows()
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}

// IsEnabled checks if the application is registered for startup
func (l *Launcher) IsEnabled() bool {
	switch runtime.GOOS {
	case "darwin":
		return exists(l.macOSPlistPath())
	case "linux":
		return exists(l.linuxDesktopPath())
	case "windows":
		return exec.Command("reg", "query", windowsRegistryKey, "/v", l.Name).Run() == nil
	default:
		return false
	}
}

// Set enables or disables the login item
func (l *Launcher) Set(enabled bool) error {
	if enabled {
		return l.Enable()
	}
	return l.Disable()
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func removeIfExists(path string) error {
	if !exists(path) {
		return nil // Already disabled
	}
	return os.Remove(path)
}

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0644)
}

// --- macOS ---

func (l *Launcher) macOSPlistPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "Library", "LaunchAgents", l.ID+".plist")
}

func (l *Launcher) enableMacOS() error {
	return writeFile(l.macOSPlistPath(), fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>%s</string>
    <key>ProgramArguments</key>
    <array>
        <string>%s</string>
    </array>
    <key>RunAtLoad</key>
    <true/>
</dict>
</plist>
`, l.ID, l.Exec))
}

// --- Linux ---

func (l *Launcher) linuxDesktopPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "autostart", l.ID+".desktop")
}

func (l *Launcher) enableLinux() error {
	return writeFile(l.linuxDesktopPath(), fmt.Sprintf(`[Desktop Entry]
Type=Application
Name=%s
Exec=%s
Hidden=false
NoDisplay=false
X-GNOME-Autostart-enabled=true
`, l.Name, l.Exec))
}

// --- Windows ---

const windowsRegistryKey = `HKCU\Software\Microsoft\Windows\CurrentVersion\Run`

func (l *Launcher) enableWindows() error {
	return exec.Command("reg", "add", windowsRegistryKey,
		"/v", l.Name,
		"/t", "REG_SZ",
		"/d", l.Exec,
		"/f").Run()
}

func (l *Launcher) disableWindows() error {
	output, err := exec.Command("reg", "delete", windowsRegistryKey,
		"/v", l.Name,
		"/f").CombinedOutput()
	// Ignore error if the key doesn't exist
	if err != nil && !strings.Contains(string(output), "The system was unable to find the specified registry key or value") {
		return err
	}
	return nil
}
