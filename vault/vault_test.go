package vault

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	return DeriveKey("test passphrase", []byte("fixed-test-salt!"))
}

func TestDeriveKey(t *testing.T) {
	k1 := DeriveKey("pass", []byte("salt"))
	k2 := DeriveKey("pass", []byte("salt"))
	k3 := DeriveKey("pass", []byte("pepper"))

	assert.Len(t, k1, KeySize)
	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
}

func TestCipher_RoundTrip(t *testing.T) {
	c, err := NewCipher(testKey(t))
	require.NoError(t, err)

	for _, plaintext := range []string{"hello world", "", "日本語のテキスト", strings.Repeat("x", 4096)} {
		ciphertext, err := c.Encrypt(plaintext)
		require.NoError(t, err)
		if plaintext != "" {
			assert.NotContains(t, ciphertext, plaintext)
		}

		got, err := c.Decrypt(ciphertext)
		require.NoError(t, err)
		assert.Equal(t, plaintext, got)
	}
}

func TestCipher_NonceIsRandom(t *testing.T) {
	c, err := NewCipher(testKey(t))
	require.NoError(t, err)

	a, err := c.Encrypt("same")
	require.NoError(t, err)
	b, err := c.Encrypt("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestCipher_DecryptFailures(t *testing.T) {
	c1, err := NewCipher(testKey(t))
	require.NoError(t, err)
	c2, err := NewCipher(DeriveKey("other", []byte("salt")))
	require.NoError(t, err)

	ciphertext, err := c1.Encrypt("secret")
	require.NoError(t, err)

	_, err = c2.Decrypt(ciphertext)
	assert.ErrorIs(t, err, ErrDecryptionFailed)

	_, err = c1.Decrypt("not hex at all")
	assert.ErrorIs(t, err, ErrDecryptionFailed)

	_, err = c1.Decrypt("abcd")
	assert.ErrorIs(t, err, ErrDecryptionFailed)

	tampered := []byte(ciphertext)
	if tampered[len(tampered)-1] == '0' {
		tampered[len(tampered)-1] = '1'
	} else {
		tampered[len(tampered)-1] = '0'
	}
	_, err = c1.Decrypt(string(tampered))
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestNewCipher_InvalidKeySize(t *testing.T) {
	_, err := NewCipher([]byte("shortkey"))
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestLoadOrCreateKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".encryption_key")

	key, err := LoadOrCreateKey(path, "secret", []byte("salt"))
	require.NoError(t, err)
	assert.Equal(t, DeriveKey("secret", []byte("salt")), key)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, base64.URLEncoding.EncodeToString(key), string(data))

	// The key file wins over a different passphrase, and no passphrase is needed.
	again, err := LoadOrCreateKey(path, "", nil)
	require.NoError(t, err)
	assert.Equal(t, key, again)
}

func TestLoadOrCreateKey_RandomSalt(t *testing.T) {
	dir := t.TempDir()
	k1, err := LoadOrCreateKey(filepath.Join(dir, "a"), "secret", nil)
	require.NoError(t, err)
	k2, err := LoadOrCreateKey(filepath.Join(dir, "b"), "secret", nil)
	require.NoError(t, err)
	assert.NotEqual(t, k1, k2)
}

func TestLoadOrCreateKey_PassphraseRequired(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".encryption_key")
	_, err := LoadOrCreateKey(path, "", nil)
	assert.ErrorIs(t, err, ErrPassphraseRequired)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestLoadOrCreateKey_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".encryption_key")
	require.NoError(t, os.WriteFile(path, []byte("dG9vIHNob3J0"), 0o600))

	_, err := LoadOrCreateKey(path, "secret", nil)
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestFingerprint(t *testing.T) {
	key := testKey(t)
	fp := Fingerprint(key)
	assert.Len(t, fp, 16)
	assert.Equal(t, fp, Fingerprint(key))
	assert.NotEqual(t, fp, Fingerprint(DeriveKey("other", nil)))
}
