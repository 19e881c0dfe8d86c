package thoughts

import (
	"context"

	"github.com/mskvii/bot2-2/core"
	"github.com/mskvii/bot2-2/storage"
)

// CreateReply attaches a reply to a post visible to authorID and returns its id.
func (r *Repository) CreateReply(ctx context.Context, postID core.ID, authorID, content, displayName string) (core.ID, error) {
	r.cascadeMu.RLock()
	defer r.cascadeMu.RUnlock()

	if _, err := r.posts.StatPost(ctx, postID, authorID); err != nil {
		return 0, err
	}

	reply, err := r.replies.CreateReply(ctx, &core.Reply{
		PostID:      postID,
		AuthorID:    authorID,
		Content:     content,
		DisplayName: displayName,
	})
	if err != nil {
		return 0, err
	}
	r.notify("reply", authorLabel(displayName, authorID), postID)
	return reply.ID, nil
}

// Replies lists the replies of a post visible to requesterID.
func (r *Repository) Replies(ctx context.Context, postID core.ID, requesterID string) ([]*core.Reply, error) {
	if _, err := r.posts.StatPost(ctx, postID, requesterID); err != nil {
		return nil, err
	}
	return r.replies.ListRepliesByPost(ctx, postID)
}

// EditReply replaces the content of a reply written by requesterID.
func (r *Repository) EditReply(ctx context.Context, replyID core.ID, requesterID, content string) error {
	reply, err := r.ownReply(ctx, replyID, requesterID)
	if err != nil {
		return err
	}

	if _, err := r.replies.UpdateReply(ctx, replyID, core.ReplyUpdate{Content: &content}); err != nil {
		return err
	}
	r.notify("edit reply", authorLabel(reply.DisplayName, reply.AuthorID), replyID)
	return nil
}

// LinkReplyMessage records the chat message rendering a reply. The
// requester must be the reply's author, an admin or the system.
func (r *Repository) LinkReplyMessage(ctx context.Context, replyID core.ID, requesterID string, link core.MessageLink) error {
	reply, err := r.replies.GetReply(ctx, replyID)
	if err != nil {
		return err
	}
	if !r.canActFor(requesterID, reply.AuthorID) {
		return storage.ErrUnauthorized
	}

	if _, err := r.replies.UpdateReply(ctx, replyID, core.ReplyUpdate{Link: &link}); err != nil {
		return err
	}
	r.notify("link reply", authorLabel(reply.DisplayName, reply.AuthorID), replyID)
	return nil
}

// DeleteReply removes a reply written by requesterID.
func (r *Repository) DeleteReply(ctx context.Context, replyID core.ID, requesterID string) error {
	reply, err := r.ownReply(ctx, replyID, requesterID)
	if err != nil {
		return err
	}

	if err := r.replies.DeleteReply(ctx, replyID); err != nil {
		return err
	}
	r.notify("delete reply", authorLabel(reply.DisplayName, reply.AuthorID), reply.PostID)
	return nil
}

func (r *Repository) ownReply(ctx context.Context, replyID core.ID, requesterID string) (*core.Reply, error) {
	reply, err := r.replies.GetReply(ctx, replyID)
	if err != nil {
		return nil, err
	}
	if reply.AuthorID != requesterID {
		return nil, storage.ErrUnauthorized
	}
	return reply, nil
}
