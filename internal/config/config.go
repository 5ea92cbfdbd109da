// Package config resolves kolam's storage paths and user settings.
package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const appName = "kolam"

// GetDataDir resolves the base directory for kolam storage. KOLAM_DIR wins,
// then the XDG data home, then ~/.local/share.
func GetDataDir() string {
	if explicit := os.Getenv("KOLAM_DIR"); explicit != "" {
		return explicit
	}

	xdg.Reload()

	dataHome := xdg.DataHome
	if dataHome == "" {
		home, err := userHome()
		if err != nil {
			return filepath.Join(os.TempDir(), appName)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	return filepath.Join(dataHome, appName)
}

// GetDBPath returns the path to the SQLite database file.
func GetDBPath() string {
	return filepath.Join(GetDataDir(), "kolam.db")
}

// GetConfigPath returns the settings file location. KOLAM_CONFIG overrides
// the XDG config home.
func GetConfigPath() string {
	if explicit := os.Getenv("KOLAM_CONFIG"); explicit != "" {
		return explicit
	}

	xdg.Reload()

	configHome := xdg.ConfigHome
	if configHome == "" {
		home, err := userHome()
		if err != nil {
			return filepath.Join(os.TempDir(), appName, "config.yaml")
		}
		configHome = filepath.Join(home, ".config")
	}

	return filepath.Join(configHome, appName, "config.yaml")
}

func userHome() (string, error) {
	if xdg.Home != "" {
		return xdg.Home, nil
	}
	return os.UserHomeDir()
}
