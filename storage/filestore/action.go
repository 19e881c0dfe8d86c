package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/mskvii/bot2-2/core"
	"github.com/mskvii/bot2-2/internal/fsutil"
	"github.com/mskvii/bot2-2/storage"
)

// maxActionCollisions bounds the _N suffix search for one second's worth of
// identical actions.
const maxActionCollisions = 1000

// ActionRepository implements storage.ActionRepository on top of
// actions/action_{type}_{author}_{target}_{YYYYMMDD_HHMMSS}.json.
type ActionRepository struct {
	backend *Backend
}

var _ storage.ActionRepository = (*ActionRepository)(nil)

// NewActionRepository creates a new ActionRepository.
func NewActionRepository(backend *Backend) *ActionRepository {
	return &ActionRepository{backend: backend}
}

// AppendAction writes a new action record. Two actions that map to the same
// name get a numeric suffix; an existing record is never replaced.
func (r *ActionRepository) AppendAction(ctx context.Context, action *core.ActionRecord) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := core.ValidateAction(action); err != nil {
		return "", err
	}

	stored := *action
	if stored.Timestamp.IsZero() {
		stored.Timestamp = r.backend.timestamp()
	}
	if stored.Data == nil {
		stored.Data = map[string]any{}
	}

	data, err := storage.MarshalRecord(&stored)
	if err != nil {
		return "", fmt.Errorf("encode action: %w", err)
	}

	unlock := r.backend.lock(core.KindAction)
	defer unlock()

	base := makeActionName(&stored)
	for n := 0; n < maxActionCollisions; n++ {
		name := makeActionCollisionName(base, n)
		err := fsutil.CreateFile(filepath.Join(r.backend.dir(core.KindAction), name), data, recordPerm)
		if err == nil {
			return name, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("write action %s: %w", name, err)
		}
	}
	return "", fmt.Errorf("write action %s: too many records with the same name", base)
}

// ListActions returns every readable action ordered by timestamp, then name.
func (r *ActionRepository) ListActions(ctx context.Context) ([]*core.ActionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir := r.backend.dir(core.KindAction)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}

	type named struct {
		name   string
		action *core.ActionRecord
	}
	var found []named
	for _, entry := range entries {
		if entry.IsDir() || !isActionName(entry.Name()) {
			continue
		}
		var action core.ActionRecord
		if err := r.backend.readFile(core.KindAction, filepath.Join(dir, entry.Name()), &action); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			return nil, err
		}
		found = append(found, named{name: entry.Name(), action: &action})
	}

	slices.SortFunc(found, func(a, b named) int {
		if c := a.action.Timestamp.Compare(b.action.Timestamp.Time); c != 0 {
			return c
		}
		return strings.Compare(a.name, b.name)
	})

	actions := make([]*core.ActionRecord, len(found))
	for i, f := range found {
		actions[i] = f.action
	}
	return actions, nil
}
