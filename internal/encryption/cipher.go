// Package encryption protects remote credentials at rest using
// filippo.io/age with an X25519 key pair stored in a local key file.
package encryption

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"filippo.io/age"
)

// Cipher encrypts and decrypts short secrets, such as remote passwords,
// against a key file on disk. The key file is created on first use with
// owner-only permissions.
type Cipher struct {
	keyPath string
}

// NewCipher creates a Cipher backed by the key file at keyPath.
func NewCipher(keyPath string) *Cipher {
	return &Cipher{keyPath: keyPath}
}

// Encrypt encrypts plaintext with the stored key and returns the
// ciphertext base64-encoded for embedding in TOML documents.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	identity, err := c.ensureIdentity()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, identity.Recipient())
	if err != nil {
		return "", fmt.Errorf("creating encrypted writer: %w", err)
	}
	if _, err := io.WriteString(w, plaintext); err != nil {
		return "", fmt.Errorf("encrypting secret: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalizing encryption: %w", err)
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Decrypt reverses Encrypt using the stored key.
func (c *Cipher) Decrypt(ciphertext string) (string, error) {
	identity, err := c.loadIdentity()
	if err != nil {
		return "", err
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("decoding secret: %w", err)
	}

	r, err := age.Decrypt(bytes.NewReader(raw), identity)
	if err != nil {
		return "", fmt.Errorf("decrypting secret: %w", err)
	}

	plaintext, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading decrypted secret: %w", err)
	}
	return string(plaintext), nil
}

// ensureIdentity loads the identity from the key file, generating and
// persisting a fresh one if the file does not exist yet.
func (c *Cipher) ensureIdentity() (*age.X25519Identity, error) {
	identity, err := c.loadIdentity()
	if err == nil {
		return identity, nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}

	identity, err = age.GenerateX25519Identity()
	if err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(c.keyPath), 0700); err != nil {
		return nil, fmt.Errorf("creating key directory: %w", err)
	}
	if err := os.WriteFile(c.keyPath, []byte(identity.String()+"\n"), 0600); err != nil {
		return nil, fmt.Errorf("writing key file: %w", err)
	}
	return identity, nil
}

// loadIdentity reads and parses the key file. A missing file is returned
// as an os.IsNotExist error so callers can decide whether to generate.
func (c *Cipher) loadIdentity() (*age.X25519Identity, error) {
	data, err := os.ReadFile(c.keyPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, err
		}
		return nil, fmt.Errorf("reading key file: %w", err)
	}

	identity, err := age.ParseX25519Identity(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("parsing key file %s: %w", c.keyPath, err)
	}
	return identity, nil
}
