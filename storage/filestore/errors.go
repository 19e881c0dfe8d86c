package filestore

import "errors"

var (
	// ErrSequencerRequired is returned when no id sequencer is provided.
	ErrSequencerRequired = errors.New("sequencer required")

	// ErrCipherRequired is returned when a private post is written or read
	// by a backend opened without a cipher.
	ErrCipherRequired = errors.New("cipher required for private content")
)
