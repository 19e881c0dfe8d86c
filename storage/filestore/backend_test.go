package filestore

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/mskvii/bot2-2/core"
	"github.com/mskvii/bot2-2/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordedAccess is one event captured by fakeRecorder.
type recordedAccess struct {
	AuthorID string
	PostID   core.ID
	Action   core.AccessAction
}

type fakeRecorder struct {
	mu     sync.Mutex
	events []recordedAccess
}

func (f *fakeRecorder) RecordAccess(authorID string, postID core.ID, action core.AccessAction, isPrivate bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedAccess{AuthorID: authorID, PostID: postID, Action: action})
}

func (f *fakeRecorder) Events() []recordedAccess {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedAccess(nil), f.events...)
}

func newTestBackend(t *testing.T, opts ...Option) (*Backend, string) {
	t.Helper()
	root := t.TempDir()
	backend, closeFn, err := NewTestBackend(root, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = closeFn() })
	return backend, root
}

func TestOpenBackend_CreatesLayout(t *testing.T) {
	_, root := newTestBackend(t)

	assert.Equal(t, []string{"posts", "replies", "likes", "message_refs", "actions"}, RecordDirs())
	for _, dir := range RecordDirs() {
		info, err := os.Stat(filepath.Join(root, dir))
		require.NoError(t, err, dir)
		assert.True(t, info.IsDir(), dir)
	}
}

func TestOpenBackend_RequiresSequencer(t *testing.T) {
	_, err := OpenBackend(context.Background(), t.TempDir(), nil)
	assert.ErrorIs(t, err, ErrSequencerRequired)
}

func TestOpenBackend_SeedsFromExistingFiles(t *testing.T) {
	root := t.TempDir()
	for dir, names := range map[string][]string{
		"posts":   {"3.json", "17.json", "notes.txt", "abc.json"},
		"replies": {"reply_4.json", "reply_x.json"},
		"likes":   {"like_9.json"},
	} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0o755))
		for _, name := range names {
			require.NoError(t, os.WriteFile(filepath.Join(root, dir, name), []byte("{}"), 0o644))
		}
	}

	seq, seqBackend, err := badger.NewMemorySequencer()
	require.NoError(t, err)
	defer seqBackend.Close()

	ctx := context.Background()
	_, err = OpenBackend(ctx, root, seq)
	require.NoError(t, err)

	for kind, want := range map[core.Kind]core.ID{
		core.KindPost:  17,
		core.KindReply: 4,
		core.KindLike:  9,
	} {
		current, err := seq.Current(ctx, kind)
		require.NoError(t, err)
		assert.Equal(t, want, current, kind)
	}
}

func TestAllocate_SkipsExistingFile(t *testing.T) {
	backend, root := newTestBackend(t)
	ctx := context.Background()

	// A file that appears after the counter was seeded must not be overwritten.
	require.NoError(t, os.WriteFile(filepath.Join(root, "replies", "reply_1.json"), []byte(`{"id":1}`), 0o644))

	reply, err := NewReplyRepository(backend).CreateReply(ctx, &core.Reply{PostID: 1, AuthorID: "u", Content: "c"})
	require.NoError(t, err)
	assert.Equal(t, core.ID(2), reply.ID)
}

func TestParseRecordName(t *testing.T) {
	tests := []struct {
		kind core.Kind
		name string
		id   core.ID
		ok   bool
	}{
		{core.KindPost, "12.json", 12, true},
		{core.KindPost, "0.json", 0, false},
		{core.KindPost, ".12.json.tmp-123", 0, false},
		{core.KindPost, "-1.json", 0, false},
		{core.KindReply, "reply_5.json", 5, true},
		{core.KindReply, "5.json", 0, false},
		{core.KindLike, "like_.json", 0, false},
		{core.KindMessageRef, "message_ref_8.json", 8, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := parseRecordName(tt.kind, tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.id, id)
		})
	}
}

func TestSanitizeNamePart(t *testing.T) {
	assert.Equal(t, "lucky", sanitizeNamePart("lucky"))
	assert.Equal(t, "a-b-c", sanitizeNamePart("a/b\\c"))
	assert.Equal(t, "---etc-passwd", sanitizeNamePart("../etc/passwd"))
	assert.Equal(t, "user_1", sanitizeNamePart("user_1"))
}
