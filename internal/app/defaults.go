package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath returns the config file path, checking the
// BACKPY_CONFIG_PATH env var first, then falling back to the default
// ~/.config/backpy.toml.
func DefaultConfigPath() (string, error) {
	if path := os.Getenv("BACKPY_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "backpy.toml"), nil
}

// DefaultBaseDir returns the base data directory, checking the BACKPY_HOME
// env var first, then falling back to the XDG default ~/.local/share/backpy.
func DefaultBaseDir() (string, error) {
	if path := os.Getenv("BACKPY_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "backpy"), nil
}
