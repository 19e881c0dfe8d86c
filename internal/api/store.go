package api

import (
	"context"

	"github.com/mskvii/bot2-2/core"
	"github.com/mskvii/bot2-2/search"
)

// Store is the part of the repository the API exposes.
type Store interface {
	CreatePost(ctx context.Context, draft core.PostDraft) (core.ID, error)
	GetPost(ctx context.Context, id core.ID, requesterID string) (*core.Post, error)
	EditPost(ctx context.Context, id core.ID, requesterID string, update core.PostUpdate) error
	DeletePost(ctx context.Context, id core.ID, requesterID string) error
	SearchPosts(ctx context.Context, q search.Query) ([]*core.Post, error)
	Search(ctx context.Context, q search.Query) ([]*core.SearchResult, error)

	CreateReply(ctx context.Context, postID core.ID, authorID, content, displayName string) (core.ID, error)
	Replies(ctx context.Context, postID core.ID, requesterID string) ([]*core.Reply, error)
	EditReply(ctx context.Context, replyID core.ID, requesterID, content string) error
	LinkReplyMessage(ctx context.Context, replyID core.ID, requesterID string, link core.MessageLink) error
	DeleteReply(ctx context.Context, replyID core.ID, requesterID string) error

	CreateLike(ctx context.Context, postID core.ID, authorID, displayName string) (core.ID, error)
	Likes(ctx context.Context, postID core.ID, requesterID string) ([]*core.Like, error)
	LinkLikeMessage(ctx context.Context, likeID core.ID, requesterID string, link core.MessageLink) error
	DeleteLike(ctx context.Context, postID core.ID, requesterID string) error

	AttachMessageRef(ctx context.Context, postID core.ID, messageID, channelID, authorID string) error
	MessageRef(ctx context.Context, postID core.ID, requesterID string) (*core.MessageRef, error)

	RecordAction(ctx context.Context, actionType, authorID, targetID string, data map[string]any) error
	Actions(ctx context.Context) ([]*core.ActionRecord, error)
}
