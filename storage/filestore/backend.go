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
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/mskvii/bot2-2/core"
	"github.com/mskvii/bot2-2/internal/fsutil"
	"github.com/mskvii/bot2-2/storage"
	"github.com/mskvii/bot2-2/vault"
)

const recordPerm = 0o644

// Backend owns the data directory and the per-kind directory locks.
type Backend struct {
	root      string
	sequencer storage.Sequencer
	cipher    *vault.Cipher
	recorder  storage.AccessRecorder
	logger    *slog.Logger
	now       func() time.Time

	locks map[core.Kind]*sync.Mutex
}

// Option configures a Backend.
type Option func(*Backend) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *Backend) error {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger
		return nil
	}
}

// WithCipher sets the cipher used for private post content.
// Without one, creating or reading a private post fails.
func WithCipher(c *vault.Cipher) Option {
	return func(b *Backend) error {
		b.cipher = c
		return nil
	}
}

// WithAccessRecorder sets the sink for private-content access events.
func WithAccessRecorder(r storage.AccessRecorder) Option {
	return func(b *Backend) error {
		b.recorder = r
		return nil
	}
}

// WithClock overrides the time source used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) error {
		if now == nil {
			return errors.New("clock cannot be nil")
		}
		b.now = now
		return nil
	}
}

// OpenBackend prepares root for use: it creates the per-kind directories and
// raises every id counter to the largest id already on disk, so an id that
// exists in a file is never allocated again.
func OpenBackend(ctx context.Context, root string, sequencer storage.Sequencer, opts ...Option) (*Backend, error) {
	if sequencer == nil {
		return nil, ErrSequencerRequired
	}

	b := &Backend{
		root:      root,
		sequencer: sequencer,
		logger:    slog.Default(),
		now:       time.Now,
		locks:     make(map[core.Kind]*sync.Mutex, len(layouts)),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}

	for kind, l := range layouts {
		if err := fsutil.EnsureDir(filepath.Join(root, l.dir)); err != nil {
			return nil, fmt.Errorf("prepare %s directory: %w", kind, err)
		}
		b.locks[kind] = &sync.Mutex{}
	}

	for _, kind := range sequencedKinds {
		ids, err := b.listIDs(kind)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			continue
		}
		maxID := ids[len(ids)-1]
		if err := sequencer.Seed(ctx, kind, maxID); err != nil {
			return nil, fmt.Errorf("seed %s sequence: %w", kind, err)
		}
		b.logger.Debug("seeded sequence from disk", "kind", kind, "max_id", maxID, "records", len(ids))
	}

	return b, nil
}

// Root returns the data directory.
func (b *Backend) Root() string {
	return b.root
}

// Repositories returns the repositories backed by b.
func (b *Backend) Repositories() (*PostRepository, *ReplyRepository, *LikeRepository, *MessageRefRepository, *ActionRepository) {
	return NewPostRepository(b), NewReplyRepository(b), NewLikeRepository(b),
		NewMessageRefRepository(b), NewActionRepository(b)
}

func (b *Backend) lock(kind core.Kind) func() {
	l := b.locks[kind]
	l.Lock()
	return l.Unlock
}

func (b *Backend) dir(kind core.Kind) string {
	return filepath.Join(b.root, layouts[kind].dir)
}

func (b *Backend) path(kind core.Kind, id core.ID) string {
	return filepath.Join(b.dir(kind), makeRecordName(kind, id))
}

func (b *Backend) timestamp() core.Timestamp {
	return core.NewTimestamp(b.now())
}

// allocate hands out the next id for kind. Callers hold the kind's lock.
func (b *Backend) allocate(ctx context.Context, kind core.Kind) (core.ID, error) {
	id, err := b.sequencer.Next(ctx, kind)
	if err != nil {
		return 0, fmt.Errorf("allocate %s id: %w", kind, err)
	}
	// A counter that fell behind the directory (restored backup, lost
	// sequence database) must not hand out an id that is already taken.
	for {
		if _, err := os.Stat(b.path(kind, id)); errors.Is(err, fs.ErrNotExist) {
			return id, nil
		} else if err != nil {
			return 0, err
		}
		b.logger.Warn("sequence behind stored records, skipping id", "kind", kind, "id", id)
		if id, err = b.sequencer.Next(ctx, kind); err != nil {
			return 0, fmt.Errorf("allocate %s id: %w", kind, err)
		}
	}
}

// readRecord decodes the record kind/id into v. Absent and corrupt records
// both return storage.ErrNotFound; corruption is logged.
func (b *Backend) readRecord(kind core.Kind, id core.ID, v any) error {
	return b.readFile(kind, b.path(kind, id), v)
}

func (b *Backend) readFile(kind core.Kind, path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := storage.UnmarshalRecord(data, v); err != nil {
		b.logger.Warn("skipping corrupt record", "kind", kind, "path", path, "err", err)
		return storage.ErrNotFound
	}
	return nil
}

// writeRecord replaces the record kind/id atomically.
func (b *Backend) writeRecord(kind core.Kind, id core.ID, v any) error {
	data, err := storage.MarshalRecord(v)
	if err != nil {
		return fmt.Errorf("encode %s %d: %w", kind, id, err)
	}
	return fsutil.WriteFile(b.path(kind, id), data, recordPerm)
}

// removeRecord deletes the record kind/id.
func (b *Backend) removeRecord(kind core.Kind, id core.ID) error {
	if err := fsutil.Remove(b.path(kind, id)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("remove %s %d: %w", kind, id, err)
	}
	return nil
}

// listIDs returns the ids of every record file of kind in ascending order.
// Files whose names do not parse are ignored.
func (b *Backend) listIDs(kind core.Kind) ([]core.ID, error) {
	entries, err := os.ReadDir(b.dir(kind))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	ids := make([]core.ID, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if id, ok := parseRecordName(kind, entry.Name()); ok {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

// listRecords decodes every record of kind in id order, skipping corrupt or
// vanished files. assign stores the file's id into the decoded record.
func listRecords[T any](b *Backend, kind core.Kind, assign func(*T, core.ID)) ([]*T, error) {
	ids, err := b.listIDs(kind)
	if err != nil {
		return nil, err
	}
	records := make([]*T, 0, len(ids))
	for _, id := range ids {
		record := new(T)
		if err := b.readRecord(kind, id, record); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			return nil, err
		}
		assign(record, id)
		records = append(records, record)
	}
	return records, nil
}

func (b *Backend) recordAccess(authorID string, postID core.ID, action core.AccessAction) {
	if b.recorder == nil {
		return
	}
	b.recorder.RecordAccess(authorID, postID, action, true)
}
