package filestore

import (
	"context"
	"fmt"

	"github.com/mskvii/bot2-2/core"
	"github.com/mskvii/bot2-2/storage"
)

// MessageRefRepository implements storage.MessageRefRepository on top of
// message_refs/message_ref_{post_id}.json.
type MessageRefRepository struct {
	backend *Backend
}

var _ storage.MessageRefRepository = (*MessageRefRepository)(nil)

// NewMessageRefRepository creates a new MessageRefRepository.
func NewMessageRefRepository(backend *Backend) *MessageRefRepository {
	return &MessageRefRepository{backend: backend}
}

// PutMessageRef creates or overwrites the ref for ref.PostID.
// A zero CreatedAt is set to the current time.
func (r *MessageRefRepository) PutMessageRef(ctx context.Context, ref *core.MessageRef) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := core.ValidateMessageRef(ref); err != nil {
		return err
	}

	stored := *ref
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = r.backend.timestamp()
	}

	unlock := r.backend.lock(core.KindMessageRef)
	defer unlock()

	if err := r.backend.writeRecord(core.KindMessageRef, stored.PostID, &stored); err != nil {
		return fmt.Errorf("write message ref %d: %w", stored.PostID, err)
	}
	return nil
}

// GetMessageRef returns the ref stored for postID.
func (r *MessageRefRepository) GetMessageRef(ctx context.Context, postID core.ID) (*core.MessageRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var ref core.MessageRef
	if err := r.backend.readRecord(core.KindMessageRef, postID, &ref); err != nil {
		return nil, err
	}
	ref.PostID = postID
	return &ref, nil
}

// DeleteMessageRef removes the ref stored for postID.
func (r *MessageRefRepository) DeleteMessageRef(ctx context.Context, postID core.ID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	unlock := r.backend.lock(core.KindMessageRef)
	defer unlock()

	return r.backend.removeRecord(core.KindMessageRef, postID)
}
