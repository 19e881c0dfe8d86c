package filestore

import (
	"context"
	"errors"
	"fmt"

	"github.com/mskvii/bot2-2/core"
	"github.com/mskvii/bot2-2/storage"
)

// LikeRepository implements storage.LikeRepository on top of likes/like_{id}.json.
type LikeRepository struct {
	backend *Backend
}

var _ storage.LikeRepository = (*LikeRepository)(nil)

// NewLikeRepository creates a new LikeRepository.
func NewLikeRepository(backend *Backend) *LikeRepository {
	return &LikeRepository{backend: backend}
}

// CreateLike allocates an id and writes the like.
func (r *LikeRepository) CreateLike(ctx context.Context, like *core.Like) (*core.Like, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := core.ValidateLike(like); err != nil {
		return nil, err
	}

	created := *like
	if created.CreatedAt.IsZero() {
		created.CreatedAt = r.backend.timestamp()
	}

	unlock := r.backend.lock(core.KindLike)
	defer unlock()

	id, err := r.backend.allocate(ctx, core.KindLike)
	if err != nil {
		return nil, err
	}
	created.ID = id

	if err := r.backend.writeRecord(core.KindLike, id, &created); err != nil {
		return nil, fmt.Errorf("write like %d: %w", id, err)
	}
	return &created, nil
}

// GetLike retrieves a single like by id.
func (r *LikeRepository) GetLike(ctx context.Context, id core.ID) (*core.Like, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.get(id)
}

func (r *LikeRepository) get(id core.ID) (*core.Like, error) {
	var like core.Like
	if err := r.backend.readRecord(core.KindLike, id, &like); err != nil {
		return nil, err
	}
	like.ID = id
	return &like, nil
}

// ListLikes returns every like ordered by id.
func (r *LikeRepository) ListLikes(ctx context.Context) ([]*core.Like, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.list()
}

func (r *LikeRepository) list() ([]*core.Like, error) {
	return listRecords(r.backend, core.KindLike, func(like *core.Like, id core.ID) { like.ID = id })
}

// ListLikesByPost returns the likes attached to postID ordered by id.
func (r *LikeRepository) ListLikesByPost(ctx context.Context, postID core.ID) ([]*core.Like, error) {
	all, err := r.ListLikes(ctx)
	if err != nil {
		return nil, err
	}
	likes := all[:0]
	for _, like := range all {
		if like.PostID == postID {
			likes = append(likes, like)
		}
	}
	return likes, nil
}

// FindLike returns the first like authorID left on postID.
func (r *LikeRepository) FindLike(ctx context.Context, postID core.ID, authorID string) (*core.Like, error) {
	likes, err := r.ListLikesByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	for _, like := range likes {
		if like.AuthorID == authorID {
			return like, nil
		}
	}
	return nil, storage.ErrNotFound
}

// LinkLikeMessage records where the like was rendered.
func (r *LikeRepository) LinkLikeMessage(ctx context.Context, id core.ID, link core.MessageLink) (*core.Like, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	unlock := r.backend.lock(core.KindLike)
	defer unlock()

	like, err := r.get(id)
	if err != nil {
		return nil, err
	}
	like.MessageID = link.MessageID
	like.ChannelID = link.ChannelID
	if link.ForwardedMessageID != "" {
		like.ForwardedMessageID = link.ForwardedMessageID
	}

	if err := r.backend.writeRecord(core.KindLike, id, like); err != nil {
		return nil, fmt.Errorf("write like %d: %w", id, err)
	}
	return like, nil
}

// DeleteLike removes a like.
func (r *LikeRepository) DeleteLike(ctx context.Context, id core.ID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	unlock := r.backend.lock(core.KindLike)
	defer unlock()

	return r.backend.removeRecord(core.KindLike, id)
}

// DeleteLikesByPost removes every like attached to postID.
func (r *LikeRepository) DeleteLikesByPost(ctx context.Context, postID core.ID) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	unlock := r.backend.lock(core.KindLike)
	defer unlock()

	likes, err := r.list()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, like := range likes {
		if like.PostID != postID {
			continue
		}
		if err := r.backend.removeRecord(core.KindLike, like.ID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			return removed, err
		}
		removed++
	}
	return removed, nil
}
