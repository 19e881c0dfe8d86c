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


package badger

import (
	"context"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/mskvii/bot2-2/core"
	"github.com/mskvii/bot2-2/storage"
)

// SequenceRepository implements storage.Sequencer with one persisted counter per kind.
// Unlike badger.Sequence it never leases ranges, so restarts do not skip ids.
type SequenceRepository struct {
	backend *Backend

	mu    sync.Mutex
	locks map[core.Kind]*sync.Mutex
}

var _ storage.Sequencer = (*SequenceRepository)(nil)

// NewSequenceRepository creates a new SequenceRepository.
func NewSequenceRepository(backend *Backend) *SequenceRepository {
	return &SequenceRepository{
		backend: backend,
		locks:   make(map[core.Kind]*sync.Mutex),
	}
}

func (r *SequenceRepository) lockFor(kind core.Kind) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[kind]
	if !ok {
		l = &sync.Mutex{}
		r.locks[kind] = l
	}
	return l
}

func (r *SequenceRepository) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return nil
}

// Next increments the counter for kind and returns the new value.
func (r *SequenceRepository) Next(ctx context.Context, kind core.Kind) (core.ID, error) {
	if err := r.check(ctx); err != nil {
		return 0, err
	}

	l := r.lockFor(kind)
	l.Lock()
	defer l.Unlock()

	var next core.ID
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeSequenceKey(kind)
		current, err := readCounter(tx, key)
		if err != nil {
			return err
		}
		next = current + 1
		if err := tx.Set(key, storage.MarshalCounter(next)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return 0, fmt.Errorf("next %s id: %w", kind, err)
	}
	return next, nil
}

// Seed raises the counter for kind to floor if it is lower.
func (r *SequenceRepository) Seed(ctx context.Context, kind core.Kind, floor core.ID) error {
	if err := r.check(ctx); err != nil {
		return err
	}

	l := r.lockFor(kind)
	l.Lock()
	defer l.Unlock()

	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeSequenceKey(kind)
		current, err := readCounter(tx, key)
		if err != nil {
			return err
		}
		if current >= floor {
			return nil
		}
		r.backend.logger.Debug("raising sequence", "kind", kind, "from", current, "to", floor)
		if err := tx.Set(key, storage.MarshalCounter(floor)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Current returns the last value handed out for kind.
func (r *SequenceRepository) Current(ctx context.Context, kind core.Kind) (core.ID, error) {
	if err := r.check(ctx); err != nil {
		return 0, err
	}

	var current core.ID
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		current, err = readCounter(tx, makeSequenceKey(kind))
		return err
	}, false)
	return current, err
}

// readCounter returns 0 when the key has never been written.
func readCounter(tx *badger.Txn, key []byte) (core.ID, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return 0, nil
		}
		return 0, err
	}

	var value core.ID
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		value, unmarshalErr = storage.UnmarshalCounter(val)
		return unmarshalErr
	})
	return value, err
}
