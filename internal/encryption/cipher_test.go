package encryption

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestCipher(t *testing.T) *Cipher {
	t.Helper()
	return NewCipher(filepath.Join(t.TempDir(), "keys", "credentials.key"))
}

func TestCipher_EncryptDecryptRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{name: "simple", input: "hunter2"},
		{name: "empty", input: ""},
		{name: "unicode", input: "pässwörd-éü"},
		{name: "long", input: strings.Repeat("secret", 1000)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := newTestCipher(t)
			ciphertext, err := c.Encrypt(tt.input)
			if err != nil {
				t.Fatalf("Encrypt() error = %v", err)
			}
			if ciphertext == tt.input {
				t.Error("ciphertext is identical to plaintext")
			}

			got, err := c.Decrypt(ciphertext)
			if err != nil {
				t.Fatalf("Decrypt() error = %v", err)
			}
			if got != tt.input {
				t.Errorf("Decrypt() = %q, want %q", got, tt.input)
			}
		})
	}
}

func TestCipher_GeneratesKeyFileOnFirstUse(t *testing.T) {
	t.Parallel()

	keyPath := filepath.Join(t.TempDir(), "keys", "credentials.key")
	c := NewCipher(keyPath)

	if _, err := c.Encrypt("secret"); err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	info, err := os.Stat(keyPath)
	if err != nil {
		t.Fatalf("key file not created: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("key file permissions = %o, want 0600", perm)
	}
}

func TestCipher_ReusesExistingKey(t *testing.T) {
	t.Parallel()

	keyPath := filepath.Join(t.TempDir(), "credentials.key")

	first := NewCipher(keyPath)
	ciphertext, err := first.Encrypt("secret")
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	// A second cipher against the same key file must decrypt it.
	second := NewCipher(keyPath)
	got, err := second.Decrypt(ciphertext)
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if got != "secret" {
		t.Errorf("Decrypt() = %q, want %q", got, "secret")
	}
}

func TestCipher_DecryptWithoutKey(t *testing.T) {
	t.Parallel()

	c := newTestCipher(t)
	if _, err := c.Decrypt("aGVsbG8="); err == nil {
		t.Error("Decrypt() without key file should return error")
	}
}

func TestCipher_DecryptMalformedCiphertext(t *testing.T) {
	t.Parallel()

	c := newTestCipher(t)
	if _, err := c.Encrypt("prime the key"); err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	if _, err := c.Decrypt("not base64!!"); err == nil {
		t.Error("Decrypt() with invalid base64 should return error")
	}
	if _, err := c.Decrypt("aGVsbG8="); err == nil {
		t.Error("Decrypt() with non-age payload should return error")
	}
}
