// Package config handles configuration loading and validation for expandd.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// PlatformDataDir returns the conventional data directory for the current
// platform.
func PlatformDataDir() string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "expandd")
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "expandd")
		}
		return filepath.Join(os.Getenv("USERPROFILE"), "expandd")
	default:
		if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
			return filepath.Join(xdgData, "expandd")
		}
		return filepath.Join(os.Getenv("HOME"), ".local", "share", "expandd")
	}
}
