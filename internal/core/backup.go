package core

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Backup is one stored backup: an archive (locally, remotely or both) plus
// the metadata describing it. The metadata document always lives locally,
// next to the space config; for remote copies it is mirrored alongside the
// remote archive.
type Backup struct {
	UUID      string
	SpaceID   string
	Digest    string // SHA-256 of the archive, fixed at creation
	Comment   string
	CreatedAt time.Time
	Locked    bool

	// Include and Exclude are the filter patterns the backup was created
	// with. Both empty means a full backup.
	Include []string
	Exclude []string

	// RemoteID is the remote holding the mirrored copy, empty when the
	// backup is local-only.
	RemoteID string

	space *Space
}

// backupDoc is the persisted TOML shape of a Backup's metadata.
type backupDoc struct {
	UUID        string   `toml:"uuid"`
	BackupSpace string   `toml:"backup_space"`
	Hash        string   `toml:"hash"`
	Comment     string   `toml:"comment"`
	CreatedAt   string   `toml:"created_at"`
	Remote      string   `toml:"remote"`
	Include     []string `toml:"include"`
	Exclude     []string `toml:"exclude"`
	Locked      bool     `toml:"locked"`
}

// Space returns the backup's owning space.
func (b *Backup) Space() *Space { return b.space }

// IsFull reports whether the backup covers the entire source tree.
func (b *Backup) IsFull() bool { return len(b.Include) == 0 && len(b.Exclude) == 0 }

// MetadataPath returns the path of the backup's local metadata document.
func (b *Backup) MetadataPath() string {
	return filepath.Join(b.space.Dir(), b.UUID+".toml")
}

// LocalArchivePath returns where the backup's local archive copy lives. The
// file may be absent for remote-only backups.
func (b *Backup) LocalArchivePath() string {
	return filepath.Join(b.space.Dir(), b.UUID+b.space.Format.Extension())
}

// HasLocal reports whether a local archive copy exists on disk.
func (b *Backup) HasLocal() bool {
	_, err := os.Stat(b.LocalArchivePath())
	return err == nil
}

// RemoteArchivePath returns the archive path inside the remote's space
// mirror directory.
func (b *Backup) RemoteArchivePath(r *Remote) string {
	return path.Join(r.SpacePath(b.SpaceID), b.UUID+b.space.Format.Extension())
}

// RemoteMetadataPath returns the metadata path inside the remote's space
// mirror directory.
func (b *Backup) RemoteMetadataPath(r *Remote) string {
	return path.Join(r.SpacePath(b.SpaceID), b.UUID+".toml")
}

// LocalSize returns the size of the local archive copy in bytes, or zero
// when no local copy exists.
func (b *Backup) LocalSize() int64 {
	info, err := os.Stat(b.LocalArchivePath())
	if err != nil {
		return 0
	}
	return info.Size()
}

// saveMetadata writes the backup's metadata document.
func (b *Backup) saveMetadata() error {
	doc := backupDoc{
		UUID:        b.UUID,
		BackupSpace: b.SpaceID,
		Hash:        b.Digest,
		Comment:     b.Comment,
		CreatedAt:   b.CreatedAt.Format(time.RFC3339),
		Remote:      b.RemoteID,
		Include:     b.Include,
		Exclude:     b.Exclude,
		Locked:      b.Locked,
	}

	dir := b.space.Dir()
	tmp, err := os.CreateTemp(dir, ".backup-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := toml.NewEncoder(tmp).Encode(doc); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("encoding backup metadata: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, b.MetadataPath()); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing backup metadata: %w", err)
	}
	return nil
}

// loadBackupFile reads the backup metadata persisted at path and binds it
// to space.
func loadBackupFile(space *Space, path string) (*Backup, error) {
	id := trimTOMLExt(filepath.Base(path))

	var doc backupDoc
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Kind: "backup", ID: id}
		}
		return nil, &InvalidBackupError{ID: id, Reason: err.Error()}
	}

	if doc.UUID != id {
		return nil, &InvalidBackupError{ID: id,
			Reason: fmt.Sprintf("metadata uuid %q does not match file name", doc.UUID)}
	}
	if doc.BackupSpace != space.UUID {
		return nil, &InvalidBackupError{ID: id,
			Reason: fmt.Sprintf("metadata references backup space %q", doc.BackupSpace)}
	}

	createdAt, err := time.Parse(time.RFC3339, doc.CreatedAt)
	if err != nil {
		return nil, &InvalidBackupError{ID: id, Reason: "unparsable created_at: " + doc.CreatedAt}
	}

	return &Backup{
		UUID:      doc.UUID,
		SpaceID:   doc.BackupSpace,
		Digest:    doc.Hash,
		Comment:   doc.Comment,
		CreatedAt: createdAt,
		Locked:    doc.Locked,
		Include:   doc.Include,
		Exclude:   doc.Exclude,
		RemoteID:  doc.Remote,
		space:     space,
	}, nil
}

func trimTOMLExt(name string) string {
	return name[:len(name)-len(".toml")]
}
