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


// Package thoughts is the record store behind the thoughts chat bot.
//
// A Repository owns one data directory and composes the entity stores,
// the access auditor, the search engine and mirror notifications into the
// operations the chat adapter calls.
package thoughts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mskvii/bot2-2/audit"
	"github.com/mskvii/bot2-2/core"
	"github.com/mskvii/bot2-2/internal/fsutil"
	"github.com/mskvii/bot2-2/mirror"
	"github.com/mskvii/bot2-2/search"
	"github.com/mskvii/bot2-2/storage"
	"github.com/mskvii/bot2-2/storage/badger"
	"github.com/mskvii/bot2-2/storage/filestore"
	"github.com/mskvii/bot2-2/vault"
)

const (
	keyFileName   = ".encryption_key"
	sequencesDir  = ".sequences"
	accessLogsDir = "logs/access"
	ignoreFile    = ".gitignore"
)

// ignoreRules keeps key material, counters, temporary files and access logs
// out of a mirrored work tree.
const ignoreRules = `.*
!.gitignore
logs/
`

// Repository is the entry point to a data directory.
// It is safe for concurrent use.
type Repository struct {
	dataDir    string
	sequences  *badger.Backend
	posts      storage.PostRepository
	replies    storage.ReplyRepository
	likes      storage.LikeRepository
	refs       storage.MessageRefRepository
	actions    storage.ActionRepository
	auditor    *audit.Auditor
	searcher   *search.Searcher
	dispatcher *mirror.Dispatcher
	admins     map[string]struct{}
	logger     *slog.Logger

	// cascadeMu keeps child inserts out of a post delete's cascade.
	cascadeMu sync.RWMutex
	// likeMu serializes the one-like-per-author check with the insert.
	likeMu sync.Mutex
}

// Open opens or creates the data directory at dataDir.
// A new directory needs a passphrase (WithPassphrase) to derive its key.
func Open(dataDir string, opts ...Option) (*Repository, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	logger := options.logger

	if err := fsutil.EnsureDir(dataDir); err != nil {
		return nil, fmt.Errorf("prepare data directory: %w", err)
	}
	if err := fsutil.CreateFile(filepath.Join(dataDir, ignoreFile), []byte(ignoreRules), 0o644); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("write %s: %w", ignoreFile, err)
	}

	key, err := vault.LoadOrCreateKey(filepath.Join(dataDir, keyFileName), options.passphrase, options.salt)
	if err != nil {
		return nil, err
	}
	cipher, err := vault.NewCipher(key)
	if err != nil {
		return nil, err
	}
	logger.Info("encryption key loaded", "fingerprint", vault.Fingerprint(key))

	sequences, err := badger.OpenBackendWithLogger(filepath.Join(dataDir, sequencesDir), options.inMemorySequences, logger)
	if err != nil {
		return nil, fmt.Errorf("open sequences: %w", err)
	}

	auditor, err := audit.NewAuditor(filepath.Join(dataDir, accessLogsDir),
		audit.WithLogger(logger), audit.WithClock(options.now))
	if err != nil {
		sequences.Close()
		return nil, err
	}

	store, err := filestore.OpenBackend(context.Background(), dataDir, badger.NewSequenceRepository(sequences),
		filestore.WithLogger(logger),
		filestore.WithCipher(cipher),
		filestore.WithAccessRecorder(auditor),
		filestore.WithClock(options.now),
	)
	if err != nil {
		auditor.Close()
		sequences.Close()
		return nil, err
	}

	posts, replies, likes, refs, actions := store.Repositories()
	searcher, err := search.NewSearcher(posts, replies, likes, search.WithLogger(logger))
	if err != nil {
		auditor.Close()
		sequences.Close()
		return nil, err
	}

	var dispatcher *mirror.Dispatcher
	if options.syncer != nil {
		dispatcher, err = mirror.NewDispatcher(options.syncer,
			mirror.WithLogger(logger),
			mirror.WithRate(options.mirrorRate),
			mirror.WithRetry(options.mirrorRetries, options.mirrorDelay),
		)
		if err != nil {
			auditor.Close()
			sequences.Close()
			return nil, err
		}
	}

	admins := make(map[string]struct{}, len(options.admins))
	for _, id := range options.admins {
		admins[id] = struct{}{}
	}

	return &Repository{
		dataDir:    dataDir,
		sequences:  sequences,
		posts:      posts,
		replies:    replies,
		likes:      likes,
		refs:       refs,
		actions:    actions,
		auditor:    auditor,
		searcher:   searcher,
		dispatcher: dispatcher,
		admins:     admins,
		logger:     logger,
	}, nil
}

// Close flushes pending mirror notifications and access entries and
// releases the id counters.
func (r *Repository) Close() error {
	var errs []error
	if r.dispatcher != nil {
		if err := r.dispatcher.Close(); err != nil {
			r.logger.Error("error closing mirror dispatcher", "err", err)
			errs = append(errs, err)
		}
	}
	if err := r.auditor.Close(); err != nil {
		r.logger.Error("error closing access auditor", "err", err)
		errs = append(errs, err)
	}
	if err := r.sequences.Close(); err != nil {
		r.logger.Error("error closing sequences", "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// DataDir returns the directory the repository was opened on.
func (r *Repository) DataDir() string {
	return r.dataDir
}

// Search runs q over posts, replies or likes.
func (r *Repository) Search(ctx context.Context, q search.Query) ([]*core.SearchResult, error) {
	return r.searcher.Search(ctx, q)
}

// SearchPosts runs q over posts.
func (r *Repository) SearchPosts(ctx context.Context, q search.Query) ([]*core.Post, error) {
	return r.searcher.SearchPosts(ctx, q)
}

// AccessLog returns the access entries recorded on day, including entries
// still queued when it is called.
func (r *Repository) AccessLog(day time.Time) ([]core.AccessEntry, error) {
	r.auditor.Flush()
	return r.auditor.Entries(day)
}

func (r *Repository) isAdmin(id string) bool {
	_, ok := r.admins[id]
	return ok
}

// canActFor reports whether requesterID may change a record written by
// authorID. The empty requester is the system.
func (r *Repository) canActFor(requesterID, authorID string) bool {
	return requesterID == "" || requesterID == authorID || r.isAdmin(requesterID)
}

// notify tells the mirror a mutation was committed.
func (r *Repository) notify(description, author string, target core.ID) {
	if r.dispatcher == nil {
		return
	}
	r.dispatcher.Notify(mirror.Event{Description: description, Author: author, TargetID: target})
}

// flushMirror waits for queued notifications. Used by tests.
func (r *Repository) flushMirror() {
	if r.dispatcher != nil {
		r.dispatcher.Flush()
	}
}

func authorLabel(displayName, authorID string) string {
	if displayName != "" {
		return displayName
	}
	return authorID
}
