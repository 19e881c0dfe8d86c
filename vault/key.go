package vault

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-crypt/x/blake2b"
	"github.com/go-crypt/x/pbkdf2"
	"github.com/mskvii/bot2-2/internal/fsutil"
)

const (
	// Iterations is the PBKDF2 work factor.
	Iterations = 100000

	saltSize = 16
)

// DeriveKey stretches passphrase and salt into a 32-byte key with PBKDF2-HMAC-SHA256.
func DeriveKey(passphrase string, salt []byte) []byte {
	return pbkdf2.Key([]byte(passphrase), salt, Iterations, KeySize, sha256.New)
}

// LoadOrCreateKey returns the key stored at path. When the file does not exist
// the key is derived from passphrase and salt and written to path with mode 0600.
// An empty salt is replaced with random bytes.
func LoadOrCreateKey(path, passphrase string, salt []byte) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		return decodeKey(data)
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read key file: %w", err)
	}

	if passphrase == "" {
		return nil, ErrPassphraseRequired
	}

	if len(salt) == 0 {
		salt = make([]byte, saltSize)
		if _, err := io.ReadFull(rand.Reader, salt); err != nil {
			return nil, fmt.Errorf("generate salt: %w", err)
		}
	}

	key := DeriveKey(passphrase, salt)
	encoded := base64.URLEncoding.EncodeToString(key)
	if err := fsutil.WriteFile(path, []byte(encoded), 0o600); err != nil {
		return nil, fmt.Errorf("write key file: %w", err)
	}
	return key, nil
}

func decodeKey(data []byte) ([]byte, error) {
	key, err := base64.URLEncoding.DecodeString(string(bytes.TrimSpace(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidKey, KeySize, len(key))
	}
	return key, nil
}

// Fingerprint returns a 16 hex digit BLAKE2b digest identifying key.
func Fingerprint(key []byte) string {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write(key)
	return hex.EncodeToString(h.Sum(nil))
}
