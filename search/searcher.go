package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/mskvii/bot2-2/core"
	"github.com/mskvii/bot2-2/storage"
)

const (
	// DefaultLimit is used when a query does not set a positive limit.
	DefaultLimit = 10
	// MaxLimit caps the number of results of any query.
	MaxLimit = 50
)

// Query selects records of one kind. Zero values disable a filter.
type Query struct {
	// Kind is the record kind to search. Empty means posts.
	Kind core.Kind
	// Keyword is matched case-insensitively as a substring.
	Keyword string
	// Category must equal the post category. Posts only.
	Category string
	// AuthorID must equal the record author.
	AuthorID string
	// RequesterID decides which private posts are visible.
	RequesterID string
	// Anonymous, when set, must equal the post's anonymity flag. Posts only.
	Anonymous *bool
	// From and To bound the creation time, both inclusive.
	From time.Time
	To   time.Time
	// Limit defaults to DefaultLimit and is capped at MaxLimit.
	Limit int
}

// normalize fills defaults and rejects queries that cannot be answered.
func (q Query) normalize() (Query, error) {
	if q.Kind == "" {
		q.Kind = core.KindPost
	}
	switch q.Kind {
	case core.KindPost, core.KindReply, core.KindLike:
	default:
		return q, fmt.Errorf("%w: %q", ErrUnknownKind, q.Kind)
	}

	if q.Kind != core.KindPost {
		if q.Category != "" {
			return q, fmt.Errorf("%w: category applies to posts only", ErrInvalidQuery)
		}
		if q.Anonymous != nil {
			return q, fmt.Errorf("%w: anonymity applies to posts only", ErrInvalidQuery)
		}
	}
	if !q.From.IsZero() && !q.To.IsZero() && q.From.After(q.To) {
		return q, fmt.Errorf("%w: from is after to", ErrInvalidQuery)
	}

	switch {
	case q.Limit <= 0:
		q.Limit = DefaultLimit
	case q.Limit > MaxLimit:
		q.Limit = MaxLimit
	}
	return q, nil
}

// Searcher answers keyword and field queries over stored records.
type Searcher struct {
	posts   storage.PostRepository
	replies storage.ReplyRepository
	likes   storage.LikeRepository
	logger  *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(
	posts storage.PostRepository,
	replies storage.ReplyRepository,
	likes storage.LikeRepository,
	opts ...Option,
) (*Searcher, error) {
	if posts == nil {
		return nil, ErrPostRepositoryRequired
	}
	if replies == nil {
		return nil, ErrReplyRepositoryRequired
	}
	if likes == nil {
		return nil, ErrLikeRepositoryRequired
	}

	s := &Searcher{
		posts:   posts,
		replies: replies,
		likes:   likes,
		logger:  slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search returns the records matching q, newest first.
// An empty corpus yields an empty, non-nil slice.
func (s *Searcher) Search(ctx context.Context, q Query) ([]*core.SearchResult, error) {
	return s.SearchWithMonitor(ctx, q, nil)
}

// SearchPosts runs q over posts regardless of q.Kind.
func (s *Searcher) SearchPosts(ctx context.Context, q Query) ([]*core.Post, error) {
	q.Kind = core.KindPost
	results, err := s.Search(ctx, q)
	if err != nil {
		return nil, err
	}

	posts := make([]*core.Post, 0, len(results))
	for _, r := range results {
		posts = append(posts, r.Post)
	}
	return posts, nil
}

// SearchWithMonitor is Search with a monitor observing each stage.
func (s *Searcher) SearchWithMonitor(ctx context.Context, q Query, monitor SearchMonitor) ([]*core.SearchResult, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	q, err := q.normalize()
	if err != nil {
		return nil, err
	}
	monitor.Start(q)

	// 1. Enumerate every record of the kind the requester may see
	results, err := s.scan(ctx, q)
	if err != nil {
		s.logger.Error("error enumerating records", "kind", q.Kind, "err", err)
		return nil, err
	}
	monitor.AfterScan(q.Kind, len(results))

	// 2. Keyword
	if keyword := normalizeKeyword(q.Keyword); keyword != "" {
		results = keep(results, func(r *core.SearchResult) bool {
			return matchesKeyword(r, keyword, q.RequesterID)
		})
	}
	monitor.AfterKeywordFilter(len(results))

	// 3. Category, author, anonymity and time range
	results = keep(results, q.matchesFields)
	monitor.AfterFieldFilters(len(results))

	// 4. Newest first, ties broken by id
	sort.Slice(results, func(i, j int) bool {
		ci, cj := results[i].CreatedAt(), results[j].CreatedAt()
		if !ci.Equal(cj.Time) {
			return ci.After(cj.Time)
		}
		return results[i].ID() > results[j].ID()
	})
	if len(results) > q.Limit {
		results = results[:q.Limit]
	}

	if q.Kind != core.KindPost {
		if err := s.joinParents(ctx, q.RequesterID, results); err != nil {
			return nil, err
		}
	}
	monitor.Finish(results)

	return results, nil
}

func (s *Searcher) scan(ctx context.Context, q Query) ([]*core.SearchResult, error) {
	switch q.Kind {
	case core.KindReply:
		replies, err := s.replies.ListReplies(ctx)
		if err != nil {
			return nil, err
		}
		results := make([]*core.SearchResult, 0, len(replies))
		for _, reply := range replies {
			results = append(results, &core.SearchResult{Kind: core.KindReply, Reply: reply})
		}
		return results, nil

	case core.KindLike:
		likes, err := s.likes.ListLikes(ctx)
		if err != nil {
			return nil, err
		}
		results := make([]*core.SearchResult, 0, len(likes))
		for _, like := range likes {
			results = append(results, &core.SearchResult{Kind: core.KindLike, Like: like})
		}
		return results, nil

	default:
		posts, err := s.posts.ListPosts(ctx, q.RequesterID)
		if err != nil {
			return nil, err
		}
		results := make([]*core.SearchResult, 0, len(posts))
		for _, post := range posts {
			results = append(results, &core.SearchResult{Kind: core.KindPost, Post: post})
		}
		return results, nil
	}
}

// joinParents attaches the parent post of each reply or like hit for display.
// A parent the requester cannot see is left nil.
func (s *Searcher) joinParents(ctx context.Context, requesterID string, results []*core.SearchResult) error {
	parents := make(map[core.ID]*core.Post)
	for _, r := range results {
		var postID core.ID
		switch r.Kind {
		case core.KindReply:
			postID = r.Reply.PostID
		case core.KindLike:
			postID = r.Like.PostID
		default:
			continue
		}

		parent, seen := parents[postID]
		if !seen {
			post, err := s.posts.GetPost(ctx, postID, requesterID)
			switch {
			case err == nil:
				parent = post
			case errors.Is(err, storage.ErrNotFound):
			case ctx.Err() != nil:
				return ctx.Err()
			default:
				s.logger.Warn("failed to load parent post", "post_id", postID, "err", err)
			}
			parents[postID] = parent
		}
		r.Post = parent
	}
	return nil
}

// matchesKeyword checks the fields searchable for the hit's kind.
// The display name of an anonymous post is only searchable by its author.
func matchesKeyword(r *core.SearchResult, keyword, requesterID string) bool {
	switch r.Kind {
	case core.KindReply:
		return containsKeyword(keyword, r.Reply.Content)
	case core.KindLike:
		return containsKeyword(keyword, r.Like.DisplayName)
	default:
		post := r.Post
		if post.IsAnonymous && post.AuthorID != requesterID {
			return containsKeyword(keyword, post.Content, post.Category)
		}
		return containsKeyword(keyword, post.Content, post.Category, post.DisplayName)
	}
}

func (q Query) matchesFields(r *core.SearchResult) bool {
	switch r.Kind {
	case core.KindReply:
		if q.AuthorID != "" && r.Reply.AuthorID != q.AuthorID {
			return false
		}
	case core.KindLike:
		if q.AuthorID != "" && r.Like.AuthorID != q.AuthorID {
			return false
		}
	default:
		post := r.Post
		if q.Category != "" && post.Category != q.Category {
			return false
		}
		if q.AuthorID != "" {
			if post.AuthorID != q.AuthorID {
				return false
			}
			if post.IsAnonymous && post.AuthorID != q.RequesterID {
				return false
			}
		}
		if q.Anonymous != nil && post.IsAnonymous != *q.Anonymous {
			return false
		}
	}

	created := r.CreatedAt()
	if !q.From.IsZero() && created.Before(q.From) {
		return false
	}
	if !q.To.IsZero() && created.After(q.To) {
		return false
	}
	return true
}

func keep(results []*core.SearchResult, match func(*core.SearchResult) bool) []*core.SearchResult {
	kept := results[:0]
	for _, r := range results {
		if match(r) {
			kept = append(kept, r)
		}
	}
	return kept
}
