package core

import (
	"path"
	"time"
)

// Protocol identifies the transfer protocol a Remote speaks. Both run over
// an SSH connection; they differ in how file transfers are performed.
type Protocol string

const (
	ProtocolSFTP Protocol = "sftp"
	ProtocolSCP  Protocol = "scp"
)

// ParseProtocol resolves a protocol name from persisted config or CLI input.
func ParseProtocol(name string) (Protocol, error) {
	switch Protocol(name) {
	case ProtocolSFTP, ProtocolSCP:
		return Protocol(name), nil
	}
	return "", &NotFoundError{Kind: "protocol", ID: name}
}

// Remote describes a network endpoint capable of storing mirrored backup
// archives. The Password field holds the decrypted credential in memory
// only; persistence encrypts it at rest.
type Remote struct {
	UUID           string
	Name           string
	Protocol       Protocol
	Host           string
	Port           int
	User           string
	Password       string
	SSHKeyPath     string
	UseSystemKeys  bool
	RootDir        string
	HashCommand    string // remote command printing "<hex digest> ..." for a path
	ConnectTimeout time.Duration
}

// SpacePath returns the remote directory mirroring the given backup space.
// Every space-derived remote path is rooted under <root_dir>/backups/<uuid>.
func (r *Remote) SpacePath(spaceID string) string {
	return path.Join(r.RootDir, "backups", spaceID)
}

// RemoteSession performs file operations against a connected Remote. A
// session is scoped to one logical operation: dial, use, close. Sessions
// must not be shared across unrelated operations.
type RemoteSession interface {
	Upload(localPath, remotePath string) error
	Download(remotePath, localPath string) error
	Remove(remotePath string) error
	RemoveAll(remotePath string) error
	Mkdir(remotePath string, parents bool) error
	Exists(remotePath string) (bool, error)
	HashOf(remotePath string) (string, error)
	SizeOf(remotePath string) (int64, error)
	Close() error
}

// RemoteDialer opens sessions to remotes. The connection attempt honors the
// remote's ConnectTimeout.
type RemoteDialer interface {
	Dial(r *Remote) (RemoteSession, error)
}

// RemoteStore persists Remote descriptors. Load and LoadByName return a
// NotFoundError when no matching descriptor exists.
type RemoteStore interface {
	Load(id string) (*Remote, error)
	LoadByName(name string) (*Remote, error)
	List() ([]*Remote, error)
	Save(r *Remote) error
	Delete(id string) error
}
