package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	thoughts "github.com/mskvii/bot2-2"
	"github.com/mskvii/bot2-2/core"
	"github.com/mskvii/bot2-2/search"
)

func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo, err := thoughts.Open(t.TempDir(),
		thoughts.WithPassphrase("api test passphrase"),
		thoughts.WithInMemorySequences(),
		thoughts.WithAdmins("mod"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	return NewRouter(NewHandler(repo, nil))
}

func do(t *testing.T, r *gin.Engine, method, path, requester string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if requester != "" {
		req.Header.Set(RequesterHeader, requester)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type created struct {
	ID core.ID `json:"id"`
}

func createPost(t *testing.T, r *gin.Engine, author string, body map[string]any) core.ID {
	t.Helper()
	w := do(t, r, http.MethodPost, "/api/posts", author, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[created](t, w).ID
}

func TestPostLifecycle(t *testing.T) {
	r := setupTestRouter(t)

	id := createPost(t, r, "alice", map[string]any{"content": "hello world", "category": "general"})
	assert.Equal(t, core.ID(1), id)

	w := do(t, r, http.MethodGet, "/api/posts/1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	post := decode[core.Post](t, w)
	assert.Equal(t, "hello world", post.Content)
	assert.Equal(t, "alice", post.AuthorID)

	w = do(t, r, http.MethodPatch, "/api/posts/1", "bob", map[string]any{"content": "hijacked"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, r, http.MethodPatch, "/api/posts/1", "alice", map[string]any{"content": "edited"})
	require.Equal(t, http.StatusOK, w.Code)
	post = decode[core.Post](t, do(t, r, http.MethodGet, "/api/posts/1", "", nil))
	assert.Equal(t, "edited", post.Content)
	assert.Equal(t, "general", post.Category)

	w = do(t, r, http.MethodDelete, "/api/posts/1", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/api/posts/1", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPrivatePostIsNotFoundForOthers(t *testing.T) {
	r := setupTestRouter(t)
	createPost(t, r, "alice", map[string]any{"content": "secret", "is_private": true})

	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/api/posts/1", "alice", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/api/posts/1", "bob", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/api/posts/1", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodDelete, "/api/posts/1", "mod", nil).Code)
}

func TestAdminDeletesPublicPost(t *testing.T) {
	r := setupTestRouter(t)
	createPost(t, r, "alice", map[string]any{"content": "spam"})

	assert.Equal(t, http.StatusForbidden, do(t, r, http.MethodDelete, "/api/posts/1", "bob", nil).Code)
	assert.Equal(t, http.StatusOK, do(t, r, http.MethodDelete, "/api/posts/1", "mod", nil).Code)
}

func TestBadRequests(t *testing.T) {
	r := setupTestRouter(t)

	tests := []struct {
		name      string
		method    string
		path      string
		requester string
		body      any
	}{
		{"missing requester", http.MethodPost, "/api/posts", "", map[string]any{"content": "x"}},
		{"blank content", http.MethodPost, "/api/posts", "alice", map[string]any{"content": "  "}},
		{"malformed id", http.MethodGet, "/api/posts/abc", "", nil},
		{"zero id", http.MethodGet, "/api/posts/0", "", nil},
		{"unknown kind", http.MethodGet, "/api/search?kind=action", "", nil},
		{"category on replies", http.MethodGet, "/api/search?kind=reply&category=x", "", nil},
		{"bad limit", http.MethodGet, "/api/posts?limit=many", "", nil},
		{"bad time", http.MethodGet, "/api/posts?from=yesterday", "", nil},
		{"reversed range", http.MethodGet, "/api/posts?from=2025-02-01T00:00:00Z&to=2025-01-01T00:00:00Z", "", nil},
		{"empty reply edit", http.MethodPatch, "/api/replies/1", "alice", map[string]any{}},
		{"action without type", http.MethodPost, "/api/actions", "alice", map[string]any{"target_id": "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, tt.method, tt.path, tt.requester, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.NotEmpty(t, decode[gin.H](t, w)["error"])
		})
	}
}

func TestSearchEndpoints(t *testing.T) {
	r := setupTestRouter(t)
	createPost(t, r, "alice", map[string]any{"content": "Go generics", "category": "tech"})
	createPost(t, r, "bob", map[string]any{"content": "gardening tips", "category": "life"})
	createPost(t, r, "alice", map[string]any{"content": "private go notes", "is_private": true})

	w := do(t, r, http.MethodGet, "/api/posts?keyword=GO", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	posts := decode[[]core.Post](t, w)
	require.Len(t, posts, 1)
	assert.Equal(t, "Go generics", posts[0].Content)

	posts = decode[[]core.Post](t, do(t, r, http.MethodGet, "/api/posts?keyword=go", "alice", nil))
	assert.Len(t, posts, 2)

	posts = decode[[]core.Post](t, do(t, r, http.MethodGet, "/api/posts?category=life", "", nil))
	require.Len(t, posts, 1)
	assert.Equal(t, "bob", posts[0].AuthorID)

	posts = decode[[]core.Post](t, do(t, r, http.MethodGet, "/api/posts?limit=1", "", nil))
	assert.Len(t, posts, 1)

	do(t, r, http.MethodPost, "/api/posts/1/replies", "bob", map[string]any{"content": "nice go post"})
	w = do(t, r, http.MethodGet, "/api/search?kind=reply&keyword=nice", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	results := decode[[]core.SearchResult](t, w)
	require.Len(t, results, 1)
	assert.Equal(t, core.KindReply, results[0].Kind)
	require.NotNil(t, results[0].Post)
	assert.Equal(t, core.ID(1), results[0].Post.ID)
}

func TestReplies(t *testing.T) {
	r := setupTestRouter(t)
	createPost(t, r, "alice", map[string]any{"content": "question"})

	w := do(t, r, http.MethodPost, "/api/posts/1/replies", "bob", map[string]any{"content": "answer", "display_name": "Bob"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	replyID := decode[created](t, w).ID

	w = do(t, r, http.MethodPost, "/api/posts/99/replies", "bob", map[string]any{"content": "lost"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	path := "/api/replies/" + replyID.String()
	assert.Equal(t, http.StatusForbidden, do(t, r, http.MethodPatch, path, "alice", map[string]any{"content": "mine now"}).Code)
	assert.Equal(t, http.StatusForbidden, do(t, r, http.MethodPatch, path, "alice", map[string]any{
		"link": map[string]any{"message_id": "spoof", "channel_id": "spoof"},
	}).Code)
	assert.Equal(t, http.StatusOK, do(t, r, http.MethodPatch, path, "mod", map[string]any{
		"link": map[string]any{"message_id": "m0", "channel_id": "c0"},
	}).Code)

	w = do(t, r, http.MethodPatch, path, "bob", map[string]any{
		"content": "better answer",
		"link":    map[string]any{"message_id": "m1", "channel_id": "c1"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	replies := decode[[]core.Reply](t, do(t, r, http.MethodGet, "/api/posts/1/replies", "", nil))
	require.Len(t, replies, 1)
	assert.Equal(t, "better answer", replies[0].Content)
	assert.Equal(t, "m1", replies[0].MessageID)

	assert.Equal(t, http.StatusOK, do(t, r, http.MethodDelete, path, "bob", nil).Code)
	replies = decode[[]core.Reply](t, do(t, r, http.MethodGet, "/api/posts/1/replies", "", nil))
	assert.Empty(t, replies)
}

func TestLikes(t *testing.T) {
	r := setupTestRouter(t)
	createPost(t, r, "alice", map[string]any{"content": "like me"})

	w := do(t, r, http.MethodPost, "/api/posts/1/likes", "bob", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	likeID := decode[created](t, w).ID

	assert.Equal(t, http.StatusConflict, do(t, r, http.MethodPost, "/api/posts/1/likes", "bob", nil).Code)

	likePath := "/api/likes/" + likeID.String()
	link := map[string]any{"message_id": "m9", "channel_id": "c9"}
	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodPatch, likePath, "", link).Code)
	assert.Equal(t, http.StatusForbidden, do(t, r, http.MethodPatch, likePath, "alice", link).Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodPatch, "/api/likes/99", "bob", link).Code)

	w = do(t, r, http.MethodPatch, likePath, "bob", link)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	likes := decode[[]core.Like](t, do(t, r, http.MethodGet, "/api/posts/1/likes", "", nil))
	require.Len(t, likes, 1)
	assert.Equal(t, "bob", likes[0].AuthorID)
	assert.Equal(t, "m9", likes[0].MessageID)

	assert.Equal(t, http.StatusOK, do(t, r, http.MethodDelete, "/api/posts/1/likes", "bob", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodDelete, "/api/posts/1/likes", "bob", nil).Code)
}

func TestMessageRef(t *testing.T) {
	r := setupTestRouter(t)
	createPost(t, r, "alice", map[string]any{"content": "rendered"})

	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/api/posts/1/message-ref", "", nil).Code)

	w := do(t, r, http.MethodPut, "/api/posts/1/message-ref", "alice", map[string]any{"message_id": "m1", "channel_id": "c1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	ref := decode[core.MessageRef](t, do(t, r, http.MethodGet, "/api/posts/1/message-ref", "", nil))
	assert.Equal(t, "m1", ref.MessageID)
	assert.Equal(t, "c1", ref.ChannelID)

	post := decode[core.Post](t, do(t, r, http.MethodGet, "/api/posts/1", "", nil))
	assert.Equal(t, "m1", post.MessageID)

	w = do(t, r, http.MethodPut, "/api/posts/1/message-ref", "alice", map[string]any{"message_id": "m1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestActions(t *testing.T) {
	r := setupTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/actions", "alice", map[string]any{
		"action_type": "button_click",
		"target_id":   "7",
		"data":        map[string]any{"button": "like"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	actions := decode[[]core.ActionRecord](t, do(t, r, http.MethodGet, "/api/actions", "", nil))
	require.Len(t, actions, 1)
	assert.Equal(t, "button_click", actions[0].ActionType)
	assert.Equal(t, "alice", actions[0].AuthorID)
	assert.Equal(t, "like", actions[0].Data["button"])
}

// failingStore fails every search with an internal error.
type failingStore struct {
	Store
}

func (failingStore) SearchPosts(context.Context, search.Query) ([]*core.Post, error) {
	return nil, errors.New("disk on fire")
}

func TestInternalErrorsAreGeneric(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(NewHandler(failingStore{}, nil))

	w := do(t, r, http.MethodGet, "/api/posts", "", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode[gin.H](t, w)
	assert.NotContains(t, body["error"], "disk on fire")
}
