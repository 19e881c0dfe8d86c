package storage

import (
	"context"

	"github.com/mskvii/bot2-2/core"
)

// Sequencer hands out per-kind record ids.
// Implementations must be linearizable: concurrent callers never receive the same id.
type Sequencer interface {
	// Next increments the counter for kind and returns the new value.
	// The first id of a fresh kind is 1.
	Next(ctx context.Context, kind core.Kind) (core.ID, error)

	// Seed raises the counter for kind to at least floor. It never lowers a counter.
	Seed(ctx context.Context, kind core.Kind, floor core.ID) error

	// Current returns the last id handed out for kind, or 0.
	Current(ctx context.Context, kind core.Kind) (core.ID, error)
}

// AccessRecorder receives an event whenever private post content is touched.
// Implementations must not block the caller.
type AccessRecorder interface {
	RecordAccess(authorID string, postID core.ID, action core.AccessAction, isPrivate bool)
}

// PostRepository provides operations for managing posts.
// Private content is decrypted on read; a private post is reported as
// ErrNotFound to any requester other than its author.
type PostRepository interface {
	// CreatePost validates the draft, allocates an id and writes the post.
	CreatePost(ctx context.Context, draft core.PostDraft) (*core.Post, error)

	// GetPost retrieves a single post visible to requesterID.
	// Returns ErrNotFound if the post is absent, corrupt or invisible,
	// and ErrDecryptionFailed if private content cannot be decrypted.
	GetPost(ctx context.Context, id core.ID, requesterID string) (*core.Post, error)

	// StatPost retrieves a post visible to requesterID without decrypting
	// it or recording an access. The Content of a private post is empty.
	// Returns ErrNotFound if the post is absent, corrupt or invisible.
	StatPost(ctx context.Context, id core.ID, requesterID string) (*core.Post, error)

	// ListPosts returns every post visible to requesterID, ordered by id.
	// Corrupt records are skipped.
	ListPosts(ctx context.Context, requesterID string) ([]*core.Post, error)

	// UpdatePost merges update into the stored post and refreshes UpdatedAt.
	// Returns ErrNotFound if the post is absent or invisible.
	UpdatePost(ctx context.Context, id core.ID, requesterID string, update core.PostUpdate) (*core.Post, error)

	// DeletePost removes a post visible to requesterID.
	// Returns ErrNotFound if the post is absent or invisible.
	DeletePost(ctx context.Context, id core.ID, requesterID string) error
}

// ReplyRepository provides operations for managing replies.
type ReplyRepository interface {
	// CreateReply allocates an id and writes the reply.
	CreateReply(ctx context.Context, reply *core.Reply) (*core.Reply, error)

	// GetReply retrieves a single reply by id.
	// Returns ErrNotFound if the reply doesn't exist or is corrupt.
	GetReply(ctx context.Context, id core.ID) (*core.Reply, error)

	// ListReplies returns every reply ordered by id.
	ListReplies(ctx context.Context) ([]*core.Reply, error)

	// ListRepliesByPost returns the replies attached to postID ordered by id.
	ListRepliesByPost(ctx context.Context, postID core.ID) ([]*core.Reply, error)

	// UpdateReply applies update to the stored reply.
	UpdateReply(ctx context.Context, id core.ID, update core.ReplyUpdate) (*core.Reply, error)

	// DeleteReply removes a reply. Returns ErrNotFound if it doesn't exist.
	DeleteReply(ctx context.Context, id core.ID) error

	// DeleteRepliesByPost removes every reply attached to postID and
	// returns how many were removed.
	DeleteRepliesByPost(ctx context.Context, postID core.ID) (int, error)
}

// LikeRepository provides operations for managing likes.
// The repository does not enforce one like per author; callers check with FindLike.
type LikeRepository interface {
	CreateLike(ctx context.Context, like *core.Like) (*core.Like, error)
	GetLike(ctx context.Context, id core.ID) (*core.Like, error)
	ListLikes(ctx context.Context) ([]*core.Like, error)
	ListLikesByPost(ctx context.Context, postID core.ID) ([]*core.Like, error)

	// FindLike returns the like authorID left on postID, or ErrNotFound.
	FindLike(ctx context.Context, postID core.ID, authorID string) (*core.Like, error)

	// LinkLikeMessage records where the like was rendered.
	LinkLikeMessage(ctx context.Context, id core.ID, link core.MessageLink) (*core.Like, error)

	DeleteLike(ctx context.Context, id core.ID) error
	DeleteLikesByPost(ctx context.Context, postID core.ID) (int, error)
}

// MessageRefRepository stores one MessageRef per post.
type MessageRefRepository interface {
	// PutMessageRef creates or overwrites the ref for ref.PostID.
	PutMessageRef(ctx context.Context, ref *core.MessageRef) error

	// GetMessageRef returns ErrNotFound when the post has no ref.
	GetMessageRef(ctx context.Context, postID core.ID) (*core.MessageRef, error)

	// DeleteMessageRef returns ErrNotFound when the post has no ref.
	DeleteMessageRef(ctx context.Context, postID core.ID) error
}

// ActionRepository is an append-only log of user actions.
type ActionRepository interface {
	// AppendAction writes a new immutable record and returns its file name.
	// An existing record is never overwritten.
	AppendAction(ctx context.Context, action *core.ActionRecord) (string, error)

	// ListActions returns every action ordered by timestamp.
	ListActions(ctx context.Context) ([]*core.ActionRecord, error)
}
