package core

import (
	"fmt"
	"strings"
)

// Location selects which copies of a backup are produced at creation time.
type Location string

const (
	LocationLocal  Location = "local"
	LocationRemote Location = "remote"
	LocationAll    Location = "all"
)

// ParseLocation resolves a location name from CLI or schedule input.
func ParseLocation(name string) (Location, error) {
	switch Location(name) {
	case LocationLocal, LocationRemote, LocationAll:
		return Location(name), nil
	}
	return "", fmt.Errorf("location must be one of local, remote or all, got %q", name)
}

// IncludesLocal reports whether a local copy should be retained.
func (l Location) IncludesLocal() bool { return l == LocationLocal || l == LocationAll }

// IncludesRemote reports whether a remote copy should be produced.
func (l Location) IncludesRemote() bool { return l == LocationRemote || l == LocationAll }

// SourceTier selects which copy of a backup is read during restore or
// verification.
type SourceTier string

const (
	SourceLocal  SourceTier = "local"
	SourceRemote SourceTier = "remote"
)

// ParseSourceTier resolves a source tier name from CLI input.
func ParseSourceTier(name string) (SourceTier, error) {
	switch SourceTier(name) {
	case SourceLocal, SourceRemote:
		return SourceTier(name), nil
	}
	return "", fmt.Errorf("source must be local or remote, got %q", name)
}

// RestoreMode is the conflict policy applied to existing target content
// during restoration.
type RestoreMode string

const (
	// RestoreOverwrite extracts over existing content, never deleting first.
	RestoreOverwrite RestoreMode = "OVERWRITE"
	// RestoreClean wipes the target (full backups) or deletes the files
	// matching the backup's filter set (filtered backups) before extracting.
	RestoreClean RestoreMode = "CLEAN"
	// RestoreReplace removes each target path an archive entry will occupy
	// before writing it; other target content is untouched.
	RestoreReplace RestoreMode = "REPLACE"
	// RestoreMerge extracts only entries missing from the target; existing
	// files win.
	RestoreMerge RestoreMode = "MERGE"
)

// ParseRestoreMode resolves a restore mode name, ignoring case.
func ParseRestoreMode(name string) (RestoreMode, error) {
	switch mode := RestoreMode(strings.ToUpper(name)); mode {
	case RestoreOverwrite, RestoreClean, RestoreReplace, RestoreMerge:
		return mode, nil
	}
	return "", fmt.Errorf("restore mode must be one of overwrite, clean, replace or merge, got %q", name)
}

// EvictionRule determines which backup perform-auto-deletion removes when a
// retention limit is exceeded.
type EvictionRule string

const (
	EvictOldest   EvictionRule = "oldest"
	EvictNewest   EvictionRule = "newest"
	EvictLargest  EvictionRule = "largest"
	EvictSmallest EvictionRule = "smallest"
)

// ParseEvictionRule resolves an eviction rule name.
func ParseEvictionRule(name string) (EvictionRule, error) {
	switch EvictionRule(name) {
	case EvictOldest, EvictNewest, EvictLargest, EvictSmallest:
		return EvictionRule(name), nil
	}
	return "", fmt.Errorf("eviction rule must be one of oldest, newest, largest or smallest, got %q", name)
}

// SpaceKind tags the concrete kind of a backup space. The set is closed;
// dispatch over it must be exhaustive.
type SpaceKind string

const (
	// KindFileSystem backs up a file tree.
	KindFileSystem SpaceKind = "file_system"
)

// ParseSpaceKind resolves a space kind from its persisted type tag.
func ParseSpaceKind(name string) (SpaceKind, error) {
	switch SpaceKind(name) {
	case KindFileSystem:
		return SpaceKind(name), nil
	}
	return "", fmt.Errorf("unknown backup space kind %q", name)
}

// SupportedRestoreModes returns the restore modes a space kind implements.
func (k SpaceKind) SupportedRestoreModes() []RestoreMode {
	switch k {
	case KindFileSystem:
		return []RestoreMode{RestoreOverwrite, RestoreClean, RestoreReplace, RestoreMerge}
	}
	return nil
}
