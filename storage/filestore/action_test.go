package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mskvii/bot2-2/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionRepository_Append(t *testing.T) {
	clock := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	backend, root := newTestBackend(t, WithClock(func() time.Time { return clock }))
	repo := NewActionRepository(backend)
	ctx := context.Background()

	name, err := repo.AppendAction(ctx, &core.ActionRecord{
		ActionType: "like",
		AuthorID:   "u1",
		TargetID:   "12",
		Data:       map[string]any{"post_id": 12},
	})
	require.NoError(t, err)
	assert.Equal(t, "action_like_u1_12_20260203_040506.json", name)

	_, err = os.Stat(filepath.Join(root, "actions", name))
	require.NoError(t, err)

	// Same action in the same second gets a suffix instead of overwriting.
	second, err := repo.AppendAction(ctx, &core.ActionRecord{ActionType: "like", AuthorID: "u1", TargetID: "12"})
	require.NoError(t, err)
	assert.Equal(t, "action_like_u1_12_20260203_040506_1.json", second)

	third, err := repo.AppendAction(ctx, &core.ActionRecord{ActionType: "like", AuthorID: "u1", TargetID: "12"})
	require.NoError(t, err)
	assert.Equal(t, "action_like_u1_12_20260203_040506_2.json", third)

	actions, err := repo.ListActions(ctx)
	require.NoError(t, err)
	require.Len(t, actions, 3)
	assert.Equal(t, float64(12), actions[0].Data["post_id"])
	assert.NotNil(t, actions[1].Data)
}

func TestActionRepository_SanitizesName(t *testing.T) {
	clock := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	backend, root := newTestBackend(t, WithClock(func() time.Time { return clock }))
	repo := NewActionRepository(backend)

	name, err := repo.AppendAction(context.Background(), &core.ActionRecord{
		ActionType: "search",
		AuthorID:   "../u1",
		TargetID:   "a/b",
	})
	require.NoError(t, err)
	assert.Equal(t, "action_search_---u1_a-b_20260203_040506.json", name)

	entries, err := os.ReadDir(filepath.Join(root, "actions"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestActionRepository_ListOrderAndCorrupt(t *testing.T) {
	clock := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	backend, root := newTestBackend(t, WithClock(func() time.Time { return clock }))
	repo := NewActionRepository(backend)
	ctx := context.Background()

	later := core.NewTimestamp(clock.Add(time.Hour))
	_, err := repo.AppendAction(ctx, &core.ActionRecord{ActionType: "lucky", AuthorID: "u2", Timestamp: later})
	require.NoError(t, err)
	_, err = repo.AppendAction(ctx, &core.ActionRecord{ActionType: "reply", AuthorID: "u1"})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, "actions", "action_bad.json"), []byte("{"), 0o644))

	actions, err := repo.ListActions(ctx)
	require.NoError(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, "reply", actions[0].ActionType)
	assert.Equal(t, "lucky", actions[1].ActionType)
}

func TestActionRepository_Validation(t *testing.T) {
	backend, _ := newTestBackend(t)
	repo := NewActionRepository(backend)

	_, err := repo.AppendAction(context.Background(), &core.ActionRecord{AuthorID: "u1"})
	assert.ErrorIs(t, err, core.ErrInvalidAction)
}
