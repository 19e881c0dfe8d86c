package vault

import "errors"

var (
	// ErrPassphraseRequired indicates no key file exists and no passphrase was configured.
	ErrPassphraseRequired = errors.New("encryption passphrase required to create key")

	// ErrDecryptionFailed indicates ciphertext did not authenticate under the current key.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrInvalidKey indicates key material of the wrong size or encoding.
	ErrInvalidKey = errors.New("invalid encryption key")
)
