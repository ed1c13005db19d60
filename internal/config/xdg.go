// Package config provides XDG path helpers.
package config

import (
	"os"
	"path/filepath"
)

const appName = "concerto"

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	return xdgHome("XDG_CONFIG_HOME", ".config")
}

// XDGDataHome returns the XDG data home or a default fallback.
func XDGDataHome() string {
	return xdgHome("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// XDGStateHome returns the XDG state home or a default fallback.
func XDGStateHome() string {
	return xdgHome("XDG_STATE_HOME", filepath.Join(".local", "state"))
}

func xdgHome(env, fallback string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, fallback)
}

// DefaultConfigPath returns the default TOML config path.
func DefaultConfigPath() string {
	return filepath.Join(XDGConfigHome(), appName, "config.toml")
}

// DefaultDataDir returns the directory holding the identity store and ratings.
func DefaultDataDir() string {
	return filepath.Join(XDGDataHome(), appName)
}

// DefaultDBPath returns the default path for the SQLite identity store.
func DefaultDBPath() string {
	return filepath.Join(DefaultDataDir(), "concerto.db")
}

// DefaultRatingsDir returns the default directory for per-user rating files.
func DefaultRatingsDir() string {
	return filepath.Join(DefaultDataDir(), "ratings")
}

// DefaultCatalogPath returns the default catalog dataset path.
func DefaultCatalogPath() string {
	return filepath.Join(DefaultDataDir(), "concertos_2026.parquet")
}

// DefaultLogPath returns the log file used while the terminal dashboard owns the screen.
func DefaultLogPath() string {
	return filepath.Join(XDGStateHome(), appName, "concerto.log")
}
