package core

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Space is a backup space: a named source location plus the compression,
// filter and retention settings applied to every backup created in it.
type Space struct {
	UUID       string
	Name       string
	Kind       SpaceKind
	SourcePath string
	Format     Format
	Level      int

	// Default filter patterns applied when a backup request carries none.
	Include []string
	Exclude []string

	// MaxBackups and MaxSize are retention limits; zero means unlimited.
	// MaxSize is the total archive size in bytes across all backups.
	MaxBackups   int
	MaxSize      int64
	AutoDeletion bool
	EvictionRule EvictionRule

	// RemoteID is the UUID of the bound remote, empty when none is bound.
	RemoteID string

	dir string // <spacesDir>/<uuid>
}

// spaceDoc is the persisted TOML shape of a Space.
type spaceDoc struct {
	General    spaceGeneralDoc    `toml:"general"`
	Limits     spaceLimitsDoc     `toml:"limits"`
	FileSystem spaceFileSystemDoc `toml:"file_system"`
}

type spaceGeneralDoc struct {
	UUID                 string   `toml:"uuid"`
	Name                 string   `toml:"name"`
	Type                 string   `toml:"type"`
	CompressionAlgorithm string   `toml:"compression_algorithm"`
	CompressionLevel     int      `toml:"compression_level"`
	Remote               string   `toml:"remote"`
	Include              []string `toml:"include"`
	Exclude              []string `toml:"exclude"`
}

type spaceLimitsDoc struct {
	MaxBackups   int    `toml:"max_backups"`
	MaxSize      int64  `toml:"max_size"`
	AutoDeletion bool   `toml:"auto_deletion"`
	EvictionRule string `toml:"eviction_rule"`
}

type spaceFileSystemDoc struct {
	SourcePath string `toml:"source_path"`
}

// Dir returns the space's storage directory holding its config, backup
// metadata and local archives.
func (s *Space) Dir() string { return s.dir }

// ConfigPath returns the path of the space's persisted configuration.
func (s *Space) ConfigPath() string { return filepath.Join(s.dir, "config.toml") }

// HasRemote reports whether a remote is bound to the space.
func (s *Space) HasRemote() bool { return s.RemoteID != "" }

// save writes the space's configuration, creating its directory if needed.
func (s *Space) save() error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("creating space directory: %w", err)
	}

	doc := spaceDoc{
		General: spaceGeneralDoc{
			UUID:                 s.UUID,
			Name:                 s.Name,
			Type:                 string(s.Kind),
			CompressionAlgorithm: string(s.Format),
			CompressionLevel:     s.Level,
			Remote:               s.RemoteID,
			Include:              s.Include,
			Exclude:              s.Exclude,
		},
		Limits: spaceLimitsDoc{
			MaxBackups:   s.MaxBackups,
			MaxSize:      s.MaxSize,
			AutoDeletion: s.AutoDeletion,
			EvictionRule: string(s.EvictionRule),
		},
		FileSystem: spaceFileSystemDoc{
			SourcePath: s.SourcePath,
		},
	}

	tmp, err := os.CreateTemp(s.dir, ".config-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := toml.NewEncoder(tmp).Encode(doc); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("encoding space config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.ConfigPath()); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing space config: %w", err)
	}
	return nil
}

// loadSpaceDir reads the space persisted in dir. The uuid in the config must
// match the directory name.
func loadSpaceDir(dir string) (*Space, error) {
	id := filepath.Base(dir)

	var doc spaceDoc
	if _, err := toml.DecodeFile(filepath.Join(dir, "config.toml"), &doc); err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Kind: "backup space", ID: id}
		}
		return nil, &InvalidSpaceError{ID: id, Reason: err.Error()}
	}

	if doc.General.UUID != id {
		return nil, &InvalidSpaceError{ID: id,
			Reason: fmt.Sprintf("config uuid %q does not match directory", doc.General.UUID)}
	}

	kind, err := ParseSpaceKind(doc.General.Type)
	if err != nil {
		return nil, &InvalidSpaceError{ID: id, Reason: err.Error()}
	}
	format, err := ParseFormat(doc.General.CompressionAlgorithm)
	if err != nil {
		return nil, &InvalidSpaceError{ID: id, Reason: err.Error()}
	}

	rule := EvictOldest
	if doc.Limits.EvictionRule != "" {
		rule, err = ParseEvictionRule(doc.Limits.EvictionRule)
		if err != nil {
			return nil, &InvalidSpaceError{ID: id, Reason: err.Error()}
		}
	}

	return &Space{
		UUID:         doc.General.UUID,
		Name:         doc.General.Name,
		Kind:         kind,
		SourcePath:   doc.FileSystem.SourcePath,
		Format:       format,
		Level:        doc.General.CompressionLevel,
		Include:      doc.General.Include,
		Exclude:      doc.General.Exclude,
		MaxBackups:   doc.Limits.MaxBackups,
		MaxSize:      doc.Limits.MaxSize,
		AutoDeletion: doc.Limits.AutoDeletion,
		EvictionRule: rule,
		RemoteID:     doc.General.Remote,
		dir:          dir,
	}, nil
}
