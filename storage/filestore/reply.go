package filestore

import (
	"context"
	"errors"
	"fmt"

	"github.com/mskvii/bot2-2/core"
	"github.com/mskvii/bot2-2/storage"
)

// ReplyRepository implements storage.ReplyRepository on top of replies/reply_{id}.json.
type ReplyRepository struct {
	backend *Backend
}

var _ storage.ReplyRepository = (*ReplyRepository)(nil)

// NewReplyRepository creates a new ReplyRepository.
func NewReplyRepository(backend *Backend) *ReplyRepository {
	return &ReplyRepository{backend: backend}
}

// CreateReply allocates an id and writes the reply.
// The caller's reply is not modified; the stored copy is returned.
func (r *ReplyRepository) CreateReply(ctx context.Context, reply *core.Reply) (*core.Reply, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := core.ValidateReply(reply); err != nil {
		return nil, err
	}

	created := *reply
	if created.CreatedAt.IsZero() {
		created.CreatedAt = r.backend.timestamp()
	}

	unlock := r.backend.lock(core.KindReply)
	defer unlock()

	id, err := r.backend.allocate(ctx, core.KindReply)
	if err != nil {
		return nil, err
	}
	created.ID = id

	if err := r.backend.writeRecord(core.KindReply, id, &created); err != nil {
		return nil, fmt.Errorf("write reply %d: %w", id, err)
	}
	return &created, nil
}

// GetReply retrieves a single reply by id.
func (r *ReplyRepository) GetReply(ctx context.Context, id core.ID) (*core.Reply, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.get(id)
}

func (r *ReplyRepository) get(id core.ID) (*core.Reply, error) {
	var reply core.Reply
	if err := r.backend.readRecord(core.KindReply, id, &reply); err != nil {
		return nil, err
	}
	reply.ID = id
	return &reply, nil
}

// ListReplies returns every reply ordered by id.
func (r *ReplyRepository) ListReplies(ctx context.Context) ([]*core.Reply, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return listRecords(r.backend, core.KindReply, func(reply *core.Reply, id core.ID) { reply.ID = id })
}

// ListRepliesByPost returns the replies attached to postID ordered by id.
func (r *ReplyRepository) ListRepliesByPost(ctx context.Context, postID core.ID) ([]*core.Reply, error) {
	all, err := r.ListReplies(ctx)
	if err != nil {
		return nil, err
	}
	replies := all[:0]
	for _, reply := range all {
		if reply.PostID == postID {
			replies = append(replies, reply)
		}
	}
	return replies, nil
}

// UpdateReply edits the content and/or records where the reply was rendered.
// A forwarded message id is only overwritten when a new one is supplied.
func (r *ReplyRepository) UpdateReply(ctx context.Context, id core.ID, update core.ReplyUpdate) (*core.Reply, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	unlock := r.backend.lock(core.KindReply)
	defer unlock()

	reply, err := r.get(id)
	if err != nil {
		return nil, err
	}

	if update.Content != nil {
		reply.Content = *update.Content
		if err := core.ValidateReply(reply); err != nil {
			return nil, err
		}
		reply.UpdatedAt = r.backend.timestamp()
	}
	if update.Link != nil {
		reply.MessageID = update.Link.MessageID
		reply.ChannelID = update.Link.ChannelID
		if update.Link.ForwardedMessageID != "" {
			reply.ForwardedMessageID = update.Link.ForwardedMessageID
		}
	}

	if err := r.backend.writeRecord(core.KindReply, id, reply); err != nil {
		return nil, fmt.Errorf("write reply %d: %w", id, err)
	}
	return reply, nil
}

// DeleteReply removes a reply.
func (r *ReplyRepository) DeleteReply(ctx context.Context, id core.ID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	unlock := r.backend.lock(core.KindReply)
	defer unlock()

	return r.backend.removeRecord(core.KindReply, id)
}

// DeleteRepliesByPost removes every reply attached to postID.
func (r *ReplyRepository) DeleteRepliesByPost(ctx context.Context, postID core.ID) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	unlock := r.backend.lock(core.KindReply)
	defer unlock()

	replies, err := listRecords(r.backend, core.KindReply, func(reply *core.Reply, id core.ID) { reply.ID = id })
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, reply := range replies {
		if reply.PostID != postID {
			continue
		}
		if err := r.backend.removeRecord(core.KindReply, reply.ID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			return removed, err
		}
		removed++
	}
	return removed, nil
}
