// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package filestore

import (
	"context"
	"crypto/rand"

	"github.com/mskvii/bot2-2/storage/badger"
	"github.com/mskvii/bot2-2/vault"
)

// NewTestBackend opens a Backend on root with in-memory id counters and a
// random encryption key, for testing.
// Caller must call the returned close function when done.
func NewTestBackend(root string, opts ...Option) (*Backend, func() error, error) {
	seq, seqBackend, err := badger.NewMemorySequencer()
	if err != nil {
		return nil, nil, err
	}

	key := make([]byte, vault.KeySize)
	if _, err := rand.Read(key); err != nil {
		seqBackend.Close()
		return nil, nil, err
	}
	c, err := vault.NewCipher(key)
	if err != nil {
		seqBackend.Close()
		return nil, nil, err
	}

	opts = append([]Option{WithCipher(c)}, opts...)
	backend, err := OpenBackend(context.Background(), root, seq, opts...)
	if err != nil {
		seqBackend.Close()
		return nil, nil, err
	}

	return backend, seqBackend.Close, nil
}
