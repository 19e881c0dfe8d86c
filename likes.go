package thoughts

import (
	"context"
	"errors"

	"github.com/mskvii/bot2-2/core"
	"github.com/mskvii/bot2-2/storage"
)

// CreateLike records that authorID likes a post and returns the like id.
// A second like by the same author is ErrAlreadyLiked.
func (r *Repository) CreateLike(ctx context.Context, postID core.ID, authorID, displayName string) (core.ID, error) {
	r.cascadeMu.RLock()
	defer r.cascadeMu.RUnlock()
	r.likeMu.Lock()
	defer r.likeMu.Unlock()

	if _, err := r.posts.StatPost(ctx, postID, authorID); err != nil {
		return 0, err
	}

	_, err := r.likes.FindLike(ctx, postID, authorID)
	switch {
	case err == nil:
		return 0, storage.ErrAlreadyLiked
	case !errors.Is(err, storage.ErrNotFound):
		return 0, err
	}

	like, err := r.likes.CreateLike(ctx, &core.Like{
		PostID:      postID,
		AuthorID:    authorID,
		DisplayName: displayName,
	})
	if err != nil {
		return 0, err
	}
	r.notify("like", authorLabel(displayName, authorID), postID)
	return like.ID, nil
}

// Likes lists the likes of a post visible to requesterID.
func (r *Repository) Likes(ctx context.Context, postID core.ID, requesterID string) ([]*core.Like, error) {
	if _, err := r.posts.StatPost(ctx, postID, requesterID); err != nil {
		return nil, err
	}
	return r.likes.ListLikesByPost(ctx, postID)
}

// LinkLikeMessage records the chat message rendering a like. The
// requester must be the like's author, an admin or the system.
func (r *Repository) LinkLikeMessage(ctx context.Context, likeID core.ID, requesterID string, link core.MessageLink) error {
	like, err := r.likes.GetLike(ctx, likeID)
	if err != nil {
		return err
	}
	if !r.canActFor(requesterID, like.AuthorID) {
		return storage.ErrUnauthorized
	}

	if _, err := r.likes.LinkLikeMessage(ctx, likeID, link); err != nil {
		return err
	}
	r.notify("link like", authorLabel(like.DisplayName, like.AuthorID), like.PostID)
	return nil
}

// DeleteLike removes the like requesterID left on a post.
func (r *Repository) DeleteLike(ctx context.Context, postID core.ID, requesterID string) error {
	r.likeMu.Lock()
	defer r.likeMu.Unlock()

	like, err := r.likes.FindLike(ctx, postID, requesterID)
	if err != nil {
		return err
	}
	if err := r.likes.DeleteLike(ctx, like.ID); err != nil {
		return err
	}
	r.notify("unlike", authorLabel(like.DisplayName, like.AuthorID), postID)
	return nil
}
