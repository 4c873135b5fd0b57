package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for backpy.
type Config struct {
	BaseDir  string         `toml:"base_dir"`
	LogDir   string         `toml:"log_dir"`
	Defaults DefaultsConfig `toml:"defaults"`
	Remote   RemoteConfig   `toml:"remote"`
}

// DefaultsConfig holds defaults applied when space or remote creation omits
// a value.
type DefaultsConfig struct {
	CompressionAlgorithm string `toml:"compression_algorithm"`
	CompressionLevel     int    `toml:"compression_level"`
	RemoteRootDir        string `toml:"remote_root_dir"`
}

// RemoteConfig holds remote transport settings shared by all remotes.
type RemoteConfig struct {
	HashCommand           string `toml:"hash_command"`
	ConnectTimeoutSeconds int    `toml:"connect_timeout_seconds"`
}

// NewConfig creates a Config with the provided base directory and defaults.
func NewConfig(baseDir string) *Config {
	return &Config{
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		Defaults: DefaultsConfig{
			CompressionAlgorithm: "gztar",
			CompressionLevel:     6,
			RemoteRootDir:        "backpy",
		},
		Remote: RemoteConfig{
			HashCommand:           "sha256sum",
			ConnectTimeoutSeconds: 30,
		},
	}
}

// SpacesDir returns the directory holding one subdirectory per backup space.
func (c *Config) SpacesDir() string { return filepath.Join(c.BaseDir, "spaces") }

// RemotesDir returns the directory holding remote descriptor files.
func (c *Config) RemotesDir() string { return filepath.Join(c.BaseDir, "remotes") }

// SchedulesDir returns the directory holding schedule descriptor files.
func (c *Config) SchedulesDir() string { return filepath.Join(c.BaseDir, "schedules") }

// TempDir returns the staging directory for remote restore downloads.
func (c *Config) TempDir() string { return filepath.Join(c.BaseDir, "tmp") }

// KeyPath returns the path of the credential encryption key file.
func (c *Config) KeyPath() string { return filepath.Join(c.BaseDir, "keys", "credentials.key") }

// JournalPath returns the path of the operation journal database.
func (c *Config) JournalPath() string { return filepath.Join(c.BaseDir, "journal.db") }

// ConnectTimeout returns the remote connection timeout as a duration.
func (c *Config) ConnectTimeout() time.Duration {
	if c.Remote.ConnectTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Remote.ConnectTimeoutSeconds) * time.Second
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided
// Config. It refuses to overwrite an existing file.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
