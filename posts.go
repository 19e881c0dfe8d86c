package thoughts

import (
	"context"
	"errors"
	"fmt"

	"github.com/mskvii/bot2-2/core"
	"github.com/mskvii/bot2-2/storage"
)

// CreatePost stores a new post and returns its id.
func (r *Repository) CreatePost(ctx context.Context, draft core.PostDraft) (core.ID, error) {
	post, err := r.posts.CreatePost(ctx, draft)
	if err != nil {
		return 0, err
	}
	r.notify("new post", post.AuthorLabel(), post.ID)
	return post.ID, nil
}

// GetPost returns the post if requesterID may see it.
// A private post is ErrNotFound for anyone but its author.
func (r *Repository) GetPost(ctx context.Context, id core.ID, requesterID string) (*core.Post, error) {
	return r.posts.GetPost(ctx, id, requesterID)
}

// EditPost changes the content, category or image of a post owned by
// requesterID. Other fields of update are ignored. An update without
// changes still refreshes UpdatedAt.
func (r *Repository) EditPost(ctx context.Context, id core.ID, requesterID string, update core.PostUpdate) error {
	post, err := r.posts.StatPost(ctx, id, requesterID)
	if err != nil {
		return err
	}
	if post.AuthorID != requesterID {
		return storage.ErrUnauthorized
	}

	edited, err := r.posts.UpdatePost(ctx, id, requesterID, core.PostUpdate{
		Content:  update.Content,
		Category: update.Category,
		ImageURL: update.ImageURL,
	})
	if err != nil {
		return err
	}
	r.notify("edit post", edited.AuthorLabel(), id)
	return nil
}

// DeletePost removes a post with its replies, likes and message ref.
//
// The author may delete any of their posts and an admin any public post.
// An empty requesterID acts for the system and may delete public posts only.
// The post itself is removed last: if a dependent record cannot be deleted
// the post is kept and the call can be retried.
func (r *Repository) DeletePost(ctx context.Context, id core.ID, requesterID string) error {
	r.cascadeMu.Lock()
	defer r.cascadeMu.Unlock()

	post, err := r.posts.StatPost(ctx, id, requesterID)
	if err != nil {
		return err
	}
	if !r.canActFor(requesterID, post.AuthorID) {
		return storage.ErrUnauthorized
	}

	replies, err := r.replies.DeleteRepliesByPost(ctx, id)
	if err != nil {
		return r.cascadeFailed(id, fmt.Errorf("delete replies: %w", err))
	}
	likes, err := r.likes.DeleteLikesByPost(ctx, id)
	if err != nil {
		return r.cascadeFailed(id, fmt.Errorf("delete likes: %w", err))
	}
	if err := r.refs.DeleteMessageRef(ctx, id); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return r.cascadeFailed(id, fmt.Errorf("delete message ref: %w", err))
	}
	if err := r.posts.DeletePost(ctx, id, requesterID); err != nil {
		return err
	}
	r.logger.Debug("post deleted", "post_id", id, "replies", replies, "likes", likes)

	r.notify("delete post", post.AuthorLabel(), id)
	return nil
}

func (r *Repository) cascadeFailed(id core.ID, err error) error {
	r.logger.Error("cascade delete incomplete, post kept", "post_id", id, "err", err)
	return fmt.Errorf("cascade delete of post %d: %w", id, err)
}

// AttachMessageRef records the chat message rendering a post and copies its
// ids onto the post. The post must be visible to authorID.
func (r *Repository) AttachMessageRef(ctx context.Context, postID core.ID, messageID, channelID, authorID string) error {
	post, err := r.posts.StatPost(ctx, postID, authorID)
	if err != nil {
		return err
	}

	ref := &core.MessageRef{PostID: postID, MessageID: messageID, ChannelID: channelID, AuthorID: authorID}
	if err := r.refs.PutMessageRef(ctx, ref); err != nil {
		return err
	}

	if post.MessageID != messageID || post.ChannelID != channelID {
		if _, err := r.posts.UpdatePost(ctx, postID, authorID, core.PostUpdate{
			MessageID: &messageID,
			ChannelID: &channelID,
		}); err != nil {
			return fmt.Errorf("backfill message ids of post %d: %w", postID, err)
		}
	}

	r.notify("attach message", post.AuthorLabel(), postID)
	return nil
}

// MessageRef returns the message ref of a post visible to requesterID.
func (r *Repository) MessageRef(ctx context.Context, postID core.ID, requesterID string) (*core.MessageRef, error) {
	if _, err := r.posts.StatPost(ctx, postID, requesterID); err != nil {
		return nil, err
	}
	return r.refs.GetMessageRef(ctx, postID)
}
