package remote

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tgross03/backpy/internal/core"
	"github.com/tgross03/backpy/internal/encryption"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	cipher := encryption.NewCipher(filepath.Join(dir, "credentials.key"))
	return NewStore(filepath.Join(dir, "remotes"), cipher)
}

func testRemote() *core.Remote {
	return &core.Remote{
		UUID:           "4f4a1a52-7a30-4f9c-9f55-111111111111",
		Name:           "nas",
		Protocol:       core.ProtocolSFTP,
		Host:           "nas.local",
		Port:           22,
		User:           "backup",
		Password:       "hunter2",
		RootDir:        "/srv/backpy",
		HashCommand:    "sha256sum",
		ConnectTimeout: 30 * time.Second,
	}
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	want := testRemote()
	if err := s.Save(want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := s.Load(want.UUID)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if *got != *want {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}
}

func TestStore_PasswordEncryptedAtRest(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	r := testRemote()
	if err := s.Save(r); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(s.dir, r.UUID+".toml"))
	if err != nil {
		t.Fatalf("reading descriptor: %v", err)
	}
	if strings.Contains(string(raw), "hunter2") {
		t.Error("descriptor contains the plaintext password")
	}
}

func TestStore_LoadByName(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	r := testRemote()
	if err := s.Save(r); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := s.LoadByName("nas")
	if err != nil {
		t.Fatalf("LoadByName() error = %v", err)
	}
	if got.UUID != r.UUID {
		t.Errorf("LoadByName() UUID = %s, want %s", got.UUID, r.UUID)
	}

	var notFound *core.NotFoundError
	if _, err := s.LoadByName("missing"); !errors.As(err, &notFound) {
		t.Errorf("LoadByName(missing) error = %v, want NotFoundError", err)
	}
}

func TestStore_ListEmptyDirectory(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	remotes, err := s.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(remotes) != 0 {
		t.Errorf("List() = %d remotes, want 0", len(remotes))
	}
}

func TestStore_Delete(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	r := testRemote()
	if err := s.Save(r); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if err := s.Delete(r.UUID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	var notFound *core.NotFoundError
	if _, err := s.Load(r.UUID); !errors.As(err, &notFound) {
		t.Errorf("Load() after Delete error = %v, want NotFoundError", err)
	}
	if err := s.Delete(r.UUID); !errors.As(err, &notFound) {
		t.Errorf("second Delete() error = %v, want NotFoundError", err)
	}
}
