package testutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"sync"

	"github.com/tgross03/backpy/internal/core"
)

// FakeRemoteHost is an in-memory remote file tree shared by all sessions a
// FakeDialer opens. Directories are implicit: any path can be written.
type FakeRemoteHost struct {
	mu    sync.Mutex
	files map[string][]byte

	// HashOverrides maps a remote path to the digest HashOf reports for
	// it, simulating a corrupted copy. CorruptUploads makes the first n
	// uploads store flipped content instead.
	HashOverrides  map[string]string
	CorruptUploads int

	// FailDial makes the dialer refuse connections with this error.
	FailDial error

	DialCount int
}

// NewFakeRemoteHost creates an empty host.
func NewFakeRemoteHost() *FakeRemoteHost {
	return &FakeRemoteHost{
		files:         make(map[string][]byte),
		HashOverrides: make(map[string]string),
	}
}

// Put seeds a remote file.
func (h *FakeRemoteHost) Put(path string, content []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.files[path] = content
}

// Get returns a remote file's content.
func (h *FakeRemoteHost) Get(path string) ([]byte, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	content, ok := h.files[path]
	return content, ok
}

// Len returns how many remote files exist.
func (h *FakeRemoteHost) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.files)
}

// FakeDialer opens sessions against a FakeRemoteHost.
type FakeDialer struct {
	Host *FakeRemoteHost
}

var _ core.RemoteDialer = (*FakeDialer)(nil)

func NewFakeDialer(host *FakeRemoteHost) *FakeDialer {
	return &FakeDialer{Host: host}
}

func (d *FakeDialer) Dial(r *core.Remote) (core.RemoteSession, error) {
	d.Host.mu.Lock()
	defer d.Host.mu.Unlock()
	if d.Host.FailDial != nil {
		return nil, d.Host.FailDial
	}
	d.Host.DialCount++
	return &fakeSession{host: d.Host}, nil
}

type fakeSession struct {
	host   *FakeRemoteHost
	closed bool
}

var _ core.RemoteSession = (*fakeSession)(nil)

func (s *fakeSession) Upload(localPath, remotePath string) error {
	content, err := os.ReadFile(localPath)
	if err != nil {
		return &core.TransferError{Op: "upload", Path: localPath, Err: err}
	}

	s.host.mu.Lock()
	defer s.host.mu.Unlock()
	if s.host.CorruptUploads > 0 {
		s.host.CorruptUploads--
		corrupted := make([]byte, len(content))
		for i, b := range content {
			corrupted[i] = ^b
		}
		content = corrupted
	}
	s.host.files[remotePath] = content
	return nil
}

func (s *fakeSession) Download(remotePath, localPath string) error {
	s.host.mu.Lock()
	content, ok := s.host.files[remotePath]
	s.host.mu.Unlock()
	if !ok {
		return &core.TransferError{Op: "download", Path: remotePath, Err: os.ErrNotExist}
	}
	if err := os.WriteFile(localPath, content, 0644); err != nil {
		return &core.TransferError{Op: "download", Path: localPath, Err: err}
	}
	return nil
}

func (s *fakeSession) Remove(remotePath string) error {
	s.host.mu.Lock()
	defer s.host.mu.Unlock()
	if _, ok := s.host.files[remotePath]; !ok {
		return &core.TransferError{Op: "remove", Path: remotePath, Err: os.ErrNotExist}
	}
	delete(s.host.files, remotePath)
	return nil
}

func (s *fakeSession) RemoveAll(remotePath string) error {
	s.host.mu.Lock()
	defer s.host.mu.Unlock()
	prefix := remotePath + "/"
	for path := range s.host.files {
		if path == remotePath || len(path) > len(prefix) && path[:len(prefix)] == prefix {
			delete(s.host.files, path)
		}
	}
	return nil
}

func (s *fakeSession) Mkdir(remotePath string, parents bool) error { return nil }

func (s *fakeSession) Exists(remotePath string) (bool, error) {
	s.host.mu.Lock()
	defer s.host.mu.Unlock()
	_, ok := s.host.files[remotePath]
	return ok, nil
}

func (s *fakeSession) HashOf(remotePath string) (string, error) {
	s.host.mu.Lock()
	defer s.host.mu.Unlock()
	if digest, ok := s.host.HashOverrides[remotePath]; ok {
		return digest, nil
	}
	content, ok := s.host.files[remotePath]
	if !ok {
		return "", &core.TransferError{Op: "hash", Path: remotePath, Err: os.ErrNotExist}
	}
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:]), nil
}

func (s *fakeSession) SizeOf(remotePath string) (int64, error) {
	s.host.mu.Lock()
	defer s.host.mu.Unlock()
	content, ok := s.host.files[remotePath]
	if !ok {
		return 0, &core.TransferError{Op: "stat", Path: remotePath, Err: os.ErrNotExist}
	}
	return int64(len(content)), nil
}

func (s *fakeSession) Close() error {
	if s.closed {
		return fmt.Errorf("session closed twice")
	}
	s.closed = true
	return nil
}
