package config

import (
	"os"
	"path/filepath"
	"strings"
)

// DefaultPath returns the XDG location of the config file.
func DefaultPath() string {
	return filepath.Join(xdg("XDG_CONFIG_HOME", ".config"), appName, "config.toml")
}

// CacheDir returns the XDG cache directory (~/.cache/cablenet).
func CacheDir() string {
	return filepath.Join(xdg("XDG_CACHE_HOME", ".cache"), appName)
}

// DataDir returns the XDG data directory (~/.local/share/cablenet).
func DataDir() string {
	return filepath.Join(xdg("XDG_DATA_HOME", filepath.Join(".local", "share")), appName)
}

func xdg(env, fallback string) string {
	if dir := os.Getenv(env); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), fallback)
	}
	return filepath.Join(home, fallback)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
