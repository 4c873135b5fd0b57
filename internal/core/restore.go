package core

import (
	"fmt"
	"os"
	"path/filepath"
)

// RestoreOptions describes one restore request.
type RestoreOptions struct {
	Mode RestoreMode

	// Source selects which copy to restore from. Empty prefers the local
	// copy and falls back to the remote one.
	Source SourceTier

	// Force downgrades digest verification failures from errors to
	// warnings. The restored content may then not match the recorded
	// digest.
	Force bool
}

// Restore extracts the backup's archive into the space's source path,
// applying the mode's conflict policy. The chosen copy's digest is verified
// before anything is written; a mismatch aborts unless forced.
func (s *Service) Restore(space *Space, backup *Backup, opts RestoreOptions) error {
	if !modeSupported(space.Kind, opts.Mode) {
		return fmt.Errorf("backup space kind %q does not support restore mode %s", space.Kind, opts.Mode)
	}

	source := opts.Source
	if source == "" {
		if backup.HasLocal() {
			source = SourceLocal
		} else {
			source = SourceRemote
		}
	}

	archivePath, cleanup, err := s.stageArchive(space, backup, source, opts.Force)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := os.MkdirAll(space.SourcePath, 0755); err != nil {
		return fmt.Errorf("creating restore target: %w", err)
	}

	switch opts.Mode {
	case RestoreClean:
		if err := s.cleanTarget(space, backup); err != nil {
			return err
		}
		err = s.codec.Extract(archivePath, space.SourcePath, ExtractOverwrite)
	case RestoreMerge:
		err = s.codec.Extract(archivePath, space.SourcePath, ExtractSkipExisting)
	case RestoreReplace:
		err = s.codec.Extract(archivePath, space.SourcePath, ExtractReplace)
	default: // RestoreOverwrite
		err = s.codec.Extract(archivePath, space.SourcePath, ExtractOverwrite)
	}
	if err != nil {
		return fmt.Errorf("restoring backup %s: %w", backup.UUID, err)
	}

	s.logger.Info("restored backup",
		"backup", backup.UUID, "space", space.Name, "mode", string(opts.Mode), "source", string(source))
	return nil
}

// stageArchive produces a verified local archive path to extract from. For
// remote sources the archive is downloaded into the temp directory; the
// returned cleanup removes it again.
func (s *Service) stageArchive(space *Space, backup *Backup, source SourceTier, force bool) (string, func(), error) {
	nop := func() {}

	if source == SourceLocal {
		path := backup.LocalArchivePath()
		if !backup.HasLocal() {
			return "", nop, &InvalidBackupError{ID: backup.UUID, Reason: "no local copy to restore from"}
		}
		digest, err := HashFile(path)
		if err != nil {
			return "", nop, err
		}
		if digest != backup.Digest {
			if !force {
				return "", nop, &ChecksumError{ID: backup.UUID, Tier: "local"}
			}
			s.logger.Warn("restoring despite digest mismatch", "backup", backup.UUID, "tier", "local")
		}
		return path, nop, nil
	}

	if backup.RemoteID == "" {
		return "", nop, ErrNoRemote
	}
	remote, err := s.remote.Load(backup.RemoteID)
	if err != nil {
		return "", nop, err
	}
	sess, err := s.dialer.Dial(remote)
	if err != nil {
		return "", nop, err
	}
	defer sess.Close()

	if err := os.MkdirAll(s.tempDir, 0700); err != nil {
		return "", nop, fmt.Errorf("creating temp directory: %w", err)
	}
	staged := filepath.Join(s.tempDir, backup.UUID+space.Format.Extension())
	cleanup := func() { os.Remove(staged) }

	remotePath := backup.RemoteArchivePath(remote)
	if force {
		if err := sess.Download(remotePath, staged); err != nil {
			cleanup()
			return "", nop, err
		}
		digest, err := HashFile(staged)
		if err != nil {
			cleanup()
			return "", nop, err
		}
		if digest != backup.Digest {
			s.logger.Warn("restoring despite digest mismatch", "backup", backup.UUID, "tier", "remote")
		}
		return staged, cleanup, nil
	}

	if err := downloadVerified(sess, remotePath, staged, backup.Digest, backup.UUID); err != nil {
		cleanup()
		return "", nop, err
	}
	return staged, cleanup, nil
}

// cleanTarget prepares the target for a CLEAN restore: a full backup wipes
// the target's contents, a filtered backup deletes only the files matching
// the backup's own filter set.
func (s *Service) cleanTarget(space *Space, backup *Backup) error {
	if backup.IsFull() {
		entries, err := os.ReadDir(space.SourcePath)
		if err != nil {
			return fmt.Errorf("reading restore target: %w", err)
		}
		for _, entry := range entries {
			if err := os.RemoveAll(filepath.Join(space.SourcePath, entry.Name())); err != nil {
				return fmt.Errorf("clearing restore target: %w", err)
			}
		}
		return nil
	}

	files, err := s.codec.Filter(space.SourcePath, backup.Include, backup.Exclude)
	if err != nil {
		return err
	}
	for _, rel := range files {
		if err := os.Remove(filepath.Join(space.SourcePath, filepath.FromSlash(rel))); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("clearing restore target: %w", err)
		}
	}
	return nil
}

func modeSupported(kind SpaceKind, mode RestoreMode) bool {
	for _, m := range kind.SupportedRestoreModes() {
		if m == mode {
			return true
		}
	}
	return false
}
