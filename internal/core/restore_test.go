package core_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/tgross03/backpy/internal/core"
)

func readFileString(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(content)
}

func TestService_RestoreOverwrite(t *testing.T) {
	env := newTestEnv(t)
	space := env.createSpace(t, core.SpaceParams{})
	backup := env.createBackup(t, space, core.BackupOptions{})

	// Modify one archived file and add an unrelated one.
	if err := os.WriteFile(filepath.Join(env.source, "notes.txt"), []byte("changed"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(env.source, "extra.txt"), []byte("extra"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := env.svc.Restore(space, backup, core.RestoreOptions{Mode: core.RestoreOverwrite}); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	if got := readFileString(t, filepath.Join(env.source, "notes.txt")); got != "hello" {
		t.Errorf("notes.txt = %q, want restored %q", got, "hello")
	}
	if got := readFileString(t, filepath.Join(env.source, "extra.txt")); got != "extra" {
		t.Errorf("extra.txt = %q, overwrite must not delete unrelated files", got)
	}
}

func TestService_RestoreMergeKeepsExistingFiles(t *testing.T) {
	env := newTestEnv(t)
	space := env.createSpace(t, core.SpaceParams{})
	backup := env.createBackup(t, space, core.BackupOptions{})

	if err := os.WriteFile(filepath.Join(env.source, "notes.txt"), []byte("changed"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(filepath.Join(env.source, "sub", "data.bin")); err != nil {
		t.Fatal(err)
	}

	if err := env.svc.Restore(space, backup, core.RestoreOptions{Mode: core.RestoreMerge}); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	if got := readFileString(t, filepath.Join(env.source, "notes.txt")); got != "changed" {
		t.Errorf("notes.txt = %q, merge must keep the existing file", got)
	}
	if got := readFileString(t, filepath.Join(env.source, "sub", "data.bin")); got != "payload" {
		t.Errorf("sub/data.bin = %q, merge must restore the missing file", got)
	}
}

func TestService_RestoreCleanWipesFullBackupTarget(t *testing.T) {
	env := newTestEnv(t)
	space := env.createSpace(t, core.SpaceParams{})
	backup := env.createBackup(t, space, core.BackupOptions{})

	if err := os.WriteFile(filepath.Join(env.source, "extra.txt"), []byte("extra"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := env.svc.Restore(space, backup, core.RestoreOptions{Mode: core.RestoreClean}); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(env.source, "extra.txt")); !os.IsNotExist(err) {
		t.Error("clean restore of a full backup must wipe unrelated files")
	}
	if got := readFileString(t, filepath.Join(env.source, "notes.txt")); got != "hello" {
		t.Errorf("notes.txt = %q, want %q", got, "hello")
	}
}

func TestService_RestoreCleanFilteredDeletesOnlyMatching(t *testing.T) {
	env := newTestEnv(t)
	space := env.createSpace(t, core.SpaceParams{})
	backup := env.createBackup(t, space, core.BackupOptions{Include: []string{"*.txt"}})

	if err := os.WriteFile(filepath.Join(env.source, "notes.txt"), []byte("changed"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := env.svc.Restore(space, backup, core.RestoreOptions{Mode: core.RestoreClean}); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	if got := readFileString(t, filepath.Join(env.source, "notes.txt")); got != "hello" {
		t.Errorf("notes.txt = %q, want restored %q", got, "hello")
	}
	if got := readFileString(t, filepath.Join(env.source, "sub", "data.bin")); got != "payload" {
		t.Errorf("sub/data.bin = %q, filtered clean must not touch unmatched files", got)
	}
}

func TestService_RestoreReplaceResolvesTypeConflicts(t *testing.T) {
	env := newTestEnv(t)
	space := env.createSpace(t, core.SpaceParams{})
	backup := env.createBackup(t, space, core.BackupOptions{})

	// Turn an archived file path into a directory.
	path := filepath.Join(env.source, "notes.txt")
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(path, "nested"), 0755); err != nil {
		t.Fatal(err)
	}

	if err := env.svc.Restore(space, backup, core.RestoreOptions{Mode: core.RestoreReplace}); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if got := readFileString(t, path); got != "hello" {
		t.Errorf("notes.txt = %q, want %q", got, "hello")
	}
}

func TestService_RestoreAbortsOnDigestMismatch(t *testing.T) {
	env := newTestEnv(t)
	space := env.createSpace(t, core.SpaceParams{})
	backup := env.createBackup(t, space, core.BackupOptions{})

	if err := os.WriteFile(backup.LocalArchivePath(), []byte("tampered"), 0644); err != nil {
		t.Fatal(err)
	}
	marker := filepath.Join(env.source, "notes.txt")
	if err := os.WriteFile(marker, []byte("untouched"), 0644); err != nil {
		t.Fatal(err)
	}

	var checksum *core.ChecksumError
	err := env.svc.Restore(space, backup, core.RestoreOptions{Mode: core.RestoreOverwrite})
	if !errors.As(err, &checksum) {
		t.Fatalf("Restore() error = %v, want ChecksumError", err)
	}
	if got := readFileString(t, marker); got != "untouched" {
		t.Error("aborted restore modified the target")
	}
}

func TestService_RestoreFromRemote(t *testing.T) {
	env := newTestEnv(t)
	space := env.createSpace(t, core.SpaceParams{RemoteRef: "nas"})
	backup := env.createBackup(t, space, core.BackupOptions{Location: core.LocationRemote})

	if err := os.WriteFile(filepath.Join(env.source, "notes.txt"), []byte("changed"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := env.svc.Restore(space, backup, core.RestoreOptions{Mode: core.RestoreOverwrite}); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if got := readFileString(t, filepath.Join(env.source, "notes.txt")); got != "hello" {
		t.Errorf("notes.txt = %q, want %q restored from the remote copy", got, "hello")
	}
}

func TestService_RestoreFromRemoteVerifiesDigest(t *testing.T) {
	env := newTestEnv(t)
	space := env.createSpace(t, core.SpaceParams{RemoteRef: "nas"})
	backup := env.createBackup(t, space, core.BackupOptions{Location: core.LocationRemote})

	// Corrupt the remote copy.
	env.host.Put(backup.RemoteArchivePath(env.remote), []byte("tampered"))

	var checksum *core.ChecksumError
	err := env.svc.Restore(space, backup, core.RestoreOptions{Mode: core.RestoreOverwrite})
	if !errors.As(err, &checksum) {
		t.Fatalf("Restore() error = %v, want ChecksumError", err)
	}
}

func TestService_RestoreForceProceedsDespiteMismatch(t *testing.T) {
	env := newTestEnv(t)
	space := env.createSpace(t, core.SpaceParams{})
	backup := env.createBackup(t, space, core.BackupOptions{})

	// Replace the archive with a different but valid one.
	other := env.createSpace(t, core.SpaceParams{Name: "other"})
	otherBackup := env.createBackup(t, other, core.BackupOptions{})
	content, err := os.ReadFile(otherBackup.LocalArchivePath())
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(backup.LocalArchivePath(), content, 0644); err != nil {
		t.Fatal(err)
	}

	if err := env.svc.Restore(space, backup, core.RestoreOptions{Mode: core.RestoreOverwrite, Force: true}); err != nil {
		t.Errorf("Restore(force) error = %v", err)
	}
}
