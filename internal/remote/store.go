// Package remote manages remote storage endpoints: persistence of their
// TOML descriptors and SSH-based sessions (SFTP or SCP) for moving
// archives to and from them.
package remote

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/tgross03/backpy/internal/core"
	"github.com/tgross03/backpy/internal/encryption"
)

// remoteDoc is the TOML representation of a remote endpoint. The password
// field holds the cipher's base64 ciphertext, never the plaintext.
type remoteDoc struct {
	UUID           string `toml:"uuid"`
	Name           string `toml:"name"`
	Protocol       string `toml:"protocol"`
	Hostname       string `toml:"hostname"`
	Port           int    `toml:"port"`
	Username       string `toml:"username"`
	Password       string `toml:"password"`
	SSHKey         string `toml:"ssh_key"`
	UseSystemKeys  bool   `toml:"use_system_keys"`
	RootDir        string `toml:"root_dir"`
	HashCommand    string `toml:"hash_command"`
	ConnectTimeout int    `toml:"connect_timeout"`
}

// Store persists remote endpoint descriptors as one TOML file per remote
// in a directory, encrypting passwords at rest.
type Store struct {
	dir    string
	cipher *encryption.Cipher
}

var _ core.RemoteStore = (*Store)(nil)

// NewStore creates a Store rooted at dir.
func NewStore(dir string, cipher *encryption.Cipher) *Store {
	return &Store{dir: dir, cipher: cipher}
}

// Save writes the remote's descriptor, encrypting the password first.
func (s *Store) Save(r *core.Remote) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("creating remote directory: %w", err)
	}

	doc := remoteDoc{
		UUID:           r.UUID,
		Name:           r.Name,
		Protocol:       string(r.Protocol),
		Hostname:       r.Host,
		Port:           r.Port,
		Username:       r.User,
		SSHKey:         r.SSHKeyPath,
		UseSystemKeys:  r.UseSystemKeys,
		RootDir:        r.RootDir,
		HashCommand:    r.HashCommand,
		ConnectTimeout: int(r.ConnectTimeout / time.Second),
	}
	if r.Password != "" {
		ciphertext, err := s.cipher.Encrypt(r.Password)
		if err != nil {
			return fmt.Errorf("encrypting password: %w", err)
		}
		doc.Password = ciphertext
	}

	path := s.path(r.UUID)
	tmp, err := os.CreateTemp(s.dir, ".remote-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := toml.NewEncoder(tmp).Encode(doc); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("encoding remote %s: %w", r.Name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0600); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing remote %s: %w", r.Name, err)
	}
	return nil
}

// Load reads the remote with the given UUID, decrypting its password.
func (s *Store) Load(id string) (*core.Remote, error) {
	return s.loadFile(s.path(id))
}

// LoadByName scans the store for a remote with the given name.
func (s *Store) LoadByName(name string) (*core.Remote, error) {
	remotes, err := s.List()
	if err != nil {
		return nil, err
	}
	for _, r := range remotes {
		if r.Name == name {
			return r, nil
		}
	}
	return nil, &core.NotFoundError{Kind: "remote", ID: name}
}

// List returns all remotes in the store, sorted by the directory order of
// their descriptor files.
func (s *Store) List() ([]*core.Remote, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading remote directory: %w", err)
	}

	var remotes []*core.Remote
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".toml") {
			continue
		}
		r, err := s.loadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		remotes = append(remotes, r)
	}
	return remotes, nil
}

// Delete removes the remote's descriptor file.
func (s *Store) Delete(id string) error {
	if err := os.Remove(s.path(id)); err != nil {
		if os.IsNotExist(err) {
			return &core.NotFoundError{Kind: "remote", ID: id}
		}
		return fmt.Errorf("deleting remote %s: %w", id, err)
	}
	return nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".toml")
}

func (s *Store) loadFile(path string) (*core.Remote, error) {
	var doc remoteDoc
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		if os.IsNotExist(err) {
			id := strings.TrimSuffix(filepath.Base(path), ".toml")
			return nil, &core.NotFoundError{Kind: "remote", ID: id}
		}
		return nil, fmt.Errorf("reading remote descriptor %s: %w", path, err)
	}

	protocol, err := core.ParseProtocol(doc.Protocol)
	if err != nil {
		return nil, fmt.Errorf("remote %s: %w", doc.Name, err)
	}

	r := &core.Remote{
		UUID:           doc.UUID,
		Name:           doc.Name,
		Protocol:       protocol,
		Host:           doc.Hostname,
		Port:           doc.Port,
		User:           doc.Username,
		SSHKeyPath:     doc.SSHKey,
		UseSystemKeys:  doc.UseSystemKeys,
		RootDir:        doc.RootDir,
		HashCommand:    doc.HashCommand,
		ConnectTimeout: time.Duration(doc.ConnectTimeout) * time.Second,
	}
	if doc.Password != "" {
		password, err := s.cipher.Decrypt(doc.Password)
		if err != nil {
			return nil, fmt.Errorf("decrypting password for remote %s: %w", doc.Name, err)
		}
		r.Password = password
	}
	return r, nil
}
