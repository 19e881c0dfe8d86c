package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mskvii/bot2-2/core"
	"github.com/mskvii/bot2-2/internal/fsutil"
	"github.com/mskvii/bot2-2/internal/workqueue"
	"github.com/mskvii/bot2-2/storage"
)

const dayLayout = "20060102"

// Auditor appends access events to one JSON list per calendar day.
//
// RecordAccess never waits on disk: entries are queued and a single pooled
// worker drains the queue, so appends to a day file are serialized. Write
// failures are logged and dropped.
type Auditor struct {
	dir    string
	logger *slog.Logger
	now    func() time.Time
	queue  *workqueue.Queue[core.AccessEntry]
}

var _ storage.AccessRecorder = (*Auditor)(nil)

// Option configures an Auditor.
type Option func(*Auditor) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Auditor) error {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
		return nil
	}
}

// WithClock overrides the time source used for entry timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *Auditor) error {
		if now == nil {
			return errors.New("clock cannot be nil")
		}
		a.now = now
		return nil
	}
}

// NewAuditor creates an Auditor writing access_YYYYMMDD.json files under dir.
func NewAuditor(dir string, opts ...Option) (*Auditor, error) {
	if dir == "" {
		return nil, ErrDirRequired
	}
	if err := fsutil.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("prepare audit directory: %w", err)
	}

	a := &Auditor{
		dir:    dir,
		logger: slog.Default(),
		now:    time.Now,
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}

	queue, err := workqueue.New(0, a.write)
	if err != nil {
		return nil, err
	}
	a.queue = queue
	return a, nil
}

// RecordAccess queues one entry and returns immediately.
func (a *Auditor) RecordAccess(authorID string, postID core.ID, action core.AccessAction, isPrivate bool) {
	entry := core.AccessEntry{
		Timestamp: core.NewTimestamp(a.now()),
		AuthorID:  authorID,
		PostID:    postID,
		Action:    action,
		IsPrivate: isPrivate,
	}
	if id, err := uuid.NewV7(); err == nil {
		entry.EventID = id.String()
	}

	if err := a.queue.Push(entry); err != nil {
		if errors.Is(err, workqueue.ErrClosed) {
			a.logger.Warn("auditor closed, dropping access entry", "post_id", postID, "action", action)
			return
		}
		a.logger.Error("failed to schedule access log write", "err", err)
	}
}

// write appends batch to the day files it belongs to.
func (a *Auditor) write(batch []core.AccessEntry) {
	byDay := make(map[string][]core.AccessEntry)
	var days []string
	for _, entry := range batch {
		day := entry.Timestamp.Format(dayLayout)
		if _, ok := byDay[day]; !ok {
			days = append(days, day)
		}
		byDay[day] = append(byDay[day], entry)
	}

	for _, day := range days {
		if err := a.appendDay(day, byDay[day]); err != nil {
			a.logger.Error("failed to write access log", "day", day, "entries", len(byDay[day]), "err", err)
		}
	}
}

func (a *Auditor) appendDay(day string, entries []core.AccessEntry) error {
	path := a.path(day)

	existing, err := readEntries(path)
	if err != nil {
		if !errors.Is(err, storage.ErrCorruptRecord) {
			return err
		}
		aside := fmt.Sprintf("%s.corrupt-%d", path, a.now().Unix())
		a.logger.Warn("access log unreadable, starting a new one", "path", path, "moved_to", aside, "err", err)
		if err := os.Rename(path, aside); err != nil {
			return fmt.Errorf("move corrupt access log: %w", err)
		}
		existing = nil
	}

	data, err := storage.MarshalRecord(append(existing, entries...))
	if err != nil {
		return err
	}
	return fsutil.WriteFile(path, data, 0o644)
}

// Entries returns the access log of the given day. A day without a log
// returns an empty list.
func (a *Auditor) Entries(day time.Time) ([]core.AccessEntry, error) {
	entries, err := readEntries(a.path(day.Format(dayLayout)))
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []core.AccessEntry{}
	}
	return entries, nil
}

// Flush waits until every queued entry has been written or dropped.
func (a *Auditor) Flush() {
	a.queue.Flush()
}

// Close flushes pending entries and releases the worker.
// Entries recorded after Close are dropped.
func (a *Auditor) Close() error {
	a.queue.Close()
	return nil
}

func (a *Auditor) path(day string) string {
	return filepath.Join(a.dir, "access_"+day+".json")
}

func readEntries(path string) ([]core.AccessEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var entries []core.AccessEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", storage.ErrCorruptRecord, path, err)
	}
	return entries, nil
}
