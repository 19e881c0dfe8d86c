package filestore

import (
	"context"
	"fmt"

	"github.com/mskvii/bot2-2/core"
	"github.com/mskvii/bot2-2/storage"
)

// PostRepository implements storage.PostRepository on top of posts/{id}.json.
type PostRepository struct {
	backend *Backend
}

var _ storage.PostRepository = (*PostRepository)(nil)

// NewPostRepository creates a new PostRepository.
func NewPostRepository(backend *Backend) *PostRepository {
	return &PostRepository{backend: backend}
}

// CreatePost validates the draft, allocates an id and writes the post.
// Private content is encrypted before it reaches disk.
func (r *PostRepository) CreatePost(ctx context.Context, draft core.PostDraft) (*core.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := core.ValidatePostDraft(&draft); err != nil {
		return nil, err
	}
	if draft.IsPrivate && r.backend.cipher == nil {
		return nil, ErrCipherRequired
	}

	now := r.backend.timestamp()
	post := &core.Post{
		AuthorID:    draft.AuthorID,
		Content:     draft.Content,
		Category:    draft.Category,
		ImageURL:    draft.ImageURL,
		IsAnonymous: draft.IsAnonymous,
		IsPrivate:   draft.IsPrivate,
		DisplayName: draft.DisplayName,
		CreatedAt:   now,
		UpdatedAt:   now,
		MessageID:   draft.MessageID,
		ChannelID:   draft.ChannelID,
	}

	err := func() error {
		unlock := r.backend.lock(core.KindPost)
		defer unlock()

		id, err := r.backend.allocate(ctx, core.KindPost)
		if err != nil {
			return err
		}
		post.ID = id
		return r.write(post)
	}()
	if err != nil {
		return nil, err
	}

	if post.IsPrivate {
		r.backend.recordAccess(post.AuthorID, post.ID, core.AccessCreate)
	}
	return post, nil
}

// GetPost retrieves a single post visible to requesterID.
func (r *PostRepository) GetPost(ctx context.Context, id core.ID, requesterID string) (*core.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	post, err := r.load(id, requesterID)
	if err != nil {
		return nil, err
	}
	if post.IsPrivate {
		r.backend.recordAccess(requesterID, post.ID, core.AccessRead)
	}
	return post, nil
}

// StatPost retrieves a post visible to requesterID without touching its
// private content.
func (r *PostRepository) StatPost(ctx context.Context, id core.ID, requesterID string) (*core.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	post, err := r.loadStored(id)
	if err != nil {
		return nil, err
	}
	if !post.VisibleTo(requesterID) {
		return nil, storage.ErrNotFound
	}
	if post.IsPrivate {
		post.Content = ""
	}
	return post, nil
}

// ListPosts returns every post visible to requesterID, ordered by id.
func (r *PostRepository) ListPosts(ctx context.Context, requesterID string) ([]*core.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stored, err := listRecords(r.backend, core.KindPost, func(p *core.Post, id core.ID) { p.ID = id })
	if err != nil {
		return nil, err
	}

	posts := stored[:0]
	for _, post := range stored {
		if !post.VisibleTo(requesterID) {
			continue
		}
		if post.IsPrivate {
			if err := r.decrypt(post); err != nil {
				return nil, err
			}
			r.backend.recordAccess(requesterID, post.ID, core.AccessRead)
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// UpdatePost merges update into the stored post and refreshes UpdatedAt.
// An update with no fields set still refreshes UpdatedAt.
func (r *PostRepository) UpdatePost(ctx context.Context, id core.ID, requesterID string, update core.PostUpdate) (*core.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := core.ValidatePostUpdate(&update); err != nil {
		return nil, err
	}

	var post *core.Post
	err := func() error {
		unlock := r.backend.lock(core.KindPost)
		defer unlock()

		var err error
		post, err = r.load(id, requesterID)
		if err != nil {
			return err
		}

		if update.Content != nil {
			post.Content = *update.Content
		}
		if update.Category != nil {
			post.Category = *update.Category
		}
		if update.ImageURL != nil {
			post.ImageURL = *update.ImageURL
		}
		if update.MessageID != nil {
			post.MessageID = *update.MessageID
		}
		if update.ChannelID != nil {
			post.ChannelID = *update.ChannelID
		}
		post.UpdatedAt = r.backend.timestamp()

		return r.write(post)
	}()
	if err != nil {
		return nil, err
	}

	if post.IsPrivate {
		r.backend.recordAccess(requesterID, post.ID, core.AccessUpdate)
	}
	return post, nil
}

// DeletePost removes a post visible to requesterID.
func (r *PostRepository) DeletePost(ctx context.Context, id core.ID, requesterID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var private bool
	err := func() error {
		unlock := r.backend.lock(core.KindPost)
		defer unlock()

		stored, err := r.loadStored(id)
		if err != nil {
			return err
		}
		if !stored.VisibleTo(requesterID) {
			return storage.ErrNotFound
		}
		private = stored.IsPrivate
		return r.backend.removeRecord(core.KindPost, id)
	}()
	if err != nil {
		return err
	}

	if private {
		r.backend.recordAccess(requesterID, id, core.AccessDelete)
	}
	return nil
}

// loadStored reads a post as it is on disk, without decrypting.
func (r *PostRepository) loadStored(id core.ID) (*core.Post, error) {
	var post core.Post
	if err := r.backend.readRecord(core.KindPost, id, &post); err != nil {
		return nil, err
	}
	post.ID = id
	return &post, nil
}

// load reads a post, hides it from other requesters when private, and
// decrypts its content. Visibility is decided before decryption so a
// non-owner learns nothing about a private post.
func (r *PostRepository) load(id core.ID, requesterID string) (*core.Post, error) {
	post, err := r.loadStored(id)
	if err != nil {
		return nil, err
	}
	if !post.VisibleTo(requesterID) {
		return nil, storage.ErrNotFound
	}
	if post.IsPrivate {
		if err := r.decrypt(post); err != nil {
			return nil, err
		}
	}
	return post, nil
}

func (r *PostRepository) decrypt(post *core.Post) error {
	if r.backend.cipher == nil {
		return ErrCipherRequired
	}
	plaintext, err := r.backend.cipher.Decrypt(post.Content)
	if err != nil {
		return fmt.Errorf("post %d: %w: %w", post.ID, storage.ErrDecryptionFailed, err)
	}
	post.Content = plaintext
	return nil
}

// write stores post, encrypting a copy of the content when private.
// Callers hold the post lock.
func (r *PostRepository) write(post *core.Post) error {
	stored := *post
	if stored.IsPrivate {
		if r.backend.cipher == nil {
			return ErrCipherRequired
		}
		ciphertext, err := r.backend.cipher.Encrypt(post.Content)
		if err != nil {
			return fmt.Errorf("encrypt post %d: %w", post.ID, err)
		}
		stored.Content = ciphertext
	}
	if err := r.backend.writeRecord(core.KindPost, post.ID, &stored); err != nil {
		return fmt.Errorf("write post %d: %w", post.ID, err)
	}
	return nil
}
