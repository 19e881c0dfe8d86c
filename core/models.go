package core

import (
	"encoding/json"
	"strconv"
)

// ID is a unique identifier for stored records.
// Allocated ids start at 1; 0 means "not yet allocated".
type ID uint64

// String returns the decimal form of the id.
func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParseID parses a decimal id.
func ParseID(s string) (ID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return ID(v), nil
}

// Kind names a class of stored record.
type Kind string

const (
	KindPost       Kind = "post"
	KindReply      Kind = "reply"
	KindLike       Kind = "like"
	KindMessageRef Kind = "message_ref"
	KindAction     Kind = "action"
)

// Extras holds document keys that are not part of a record's schema.
// They are kept so a rewrite does not drop data written by other tools.
type Extras struct {
	fields map[string]json.RawMessage
}

// ExtraFields returns the unknown keys captured when the record was decoded.
func (e *Extras) ExtraFields() map[string]json.RawMessage {
	return e.fields
}

// SetExtraFields replaces the captured unknown keys.
func (e *Extras) SetExtraFields(fields map[string]json.RawMessage) {
	e.fields = fields
}

// Post is a user-authored content item.
// Content holds plaintext in memory; stores encrypt it on disk when IsPrivate is set.
type Post struct {
	ID          ID        `json:"id"`
	AuthorID    string    `json:"user_id"`
	Content     string    `json:"content"`
	Category    string    `json:"category,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	IsAnonymous bool      `json:"is_anonymous"`
	IsPrivate   bool      `json:"is_private"`
	DisplayName string    `json:"display_name,omitempty"`
	CreatedAt   Timestamp `json:"created_at"`
	UpdatedAt   Timestamp `json:"updated_at"`
	MessageID   string    `json:"message_id,omitempty"`
	ChannelID   string    `json:"channel_id,omitempty"`
	Extras      `json:"-"`
}

// VisibleTo reports whether requesterID may see the post.
func (p *Post) VisibleTo(requesterID string) bool {
	return !p.IsPrivate || p.AuthorID == requesterID
}

// AuthorLabel is the name shown for the post's author.
func (p *Post) AuthorLabel() string {
	if p.IsAnonymous {
		return "anonymous"
	}
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.AuthorID
}

// Reply is a response attached to a post.
type Reply struct {
	ID                 ID        `json:"id"`
	PostID             ID        `json:"post_id"`
	AuthorID           string    `json:"user_id"`
	Content            string    `json:"content"`
	DisplayName        string    `json:"display_name,omitempty"`
	CreatedAt          Timestamp `json:"created_at"`
	UpdatedAt          Timestamp `json:"updated_at,omitzero"`
	MessageID          string    `json:"message_id,omitempty"`
	ChannelID          string    `json:"channel_id,omitempty"`
	ForwardedMessageID string    `json:"forwarded_message_id,omitempty"`
	Extras             `json:"-"`
}

// Like is an endorsement of a post by one author.
type Like struct {
	ID                 ID        `json:"id"`
	PostID             ID        `json:"post_id"`
	AuthorID           string    `json:"user_id"`
	DisplayName        string    `json:"display_name,omitempty"`
	CreatedAt          Timestamp `json:"created_at"`
	MessageID          string    `json:"message_id,omitempty"`
	ChannelID          string    `json:"channel_id,omitempty"`
	ForwardedMessageID string    `json:"forwarded_message_id,omitempty"`
	Extras             `json:"-"`
}

// MessageRef links a post to the chat message that renders it.
type MessageRef struct {
	PostID    ID        `json:"post_id"`
	MessageID string    `json:"message_id"`
	ChannelID string    `json:"channel_id"`
	AuthorID  string    `json:"user_id"`
	CreatedAt Timestamp `json:"created_at"`
	Extras    `json:"-"`
}

// ActionRecord is an immutable audit-trail entry for a user action.
// Data is opaque and only ever written.
type ActionRecord struct {
	ActionType string         `json:"action_type"`
	AuthorID   string         `json:"user_id"`
	TargetID   string         `json:"target_id"`
	Timestamp  Timestamp      `json:"timestamp"`
	Data       map[string]any `json:"data"`
	Extras     `json:"-"`
}

// AccessAction is the kind of touch recorded in the access log.
type AccessAction string

const (
	AccessCreate AccessAction = "create"
	AccessRead   AccessAction = "read"
	AccessUpdate AccessAction = "update"
	AccessDelete AccessAction = "delete"
)

// AccessEntry is one line of the daily access log.
type AccessEntry struct {
	EventID   string       `json:"event_id,omitempty"`
	Timestamp Timestamp    `json:"timestamp"`
	AuthorID  string       `json:"user_id"`
	PostID    ID           `json:"post_id"`
	Action    AccessAction `json:"action"`
	IsPrivate bool         `json:"is_private"`
}

// PostDraft carries the fields supplied when creating a post.
type PostDraft struct {
	AuthorID    string
	Content     string
	Category    string
	ImageURL    string
	IsAnonymous bool
	IsPrivate   bool
	DisplayName string
	MessageID   string
	ChannelID   string
}

// PostUpdate lists post fields to change. Nil fields are left alone.
type PostUpdate struct {
	Content   *string
	Category  *string
	ImageURL  *string
	MessageID *string
	ChannelID *string
}

// ReplyUpdate lists reply fields to change. Nil fields are left alone.
type ReplyUpdate struct {
	Content *string
	Link    *MessageLink
}

// MessageLink locates the chat message that renders a reply or like.
type MessageLink struct {
	MessageID          string `json:"message_id"`
	ChannelID          string `json:"channel_id"`
	ForwardedMessageID string `json:"forwarded_message_id,omitempty"`
}

// SearchResult is one hit from a search over posts, replies or likes.
// For reply and like hits Post is the parent, joined for display only,
// and is nil when the parent is not visible to the requester.
type SearchResult struct {
	Kind  Kind   `json:"kind"`
	Post  *Post  `json:"post,omitempty"`
	Reply *Reply `json:"reply,omitempty"`
	Like  *Like  `json:"like,omitempty"`
}

// ID returns the id of the matched record.
func (r *SearchResult) ID() ID {
	switch r.Kind {
	case KindReply:
		return r.Reply.ID
	case KindLike:
		return r.Like.ID
	default:
		return r.Post.ID
	}
}

// CreatedAt returns the creation time of the matched record.
func (r *SearchResult) CreatedAt() Timestamp {
	switch r.Kind {
	case KindReply:
		return r.Reply.CreatedAt
	case KindLike:
		return r.Like.CreatedAt
	default:
		return r.Post.CreatedAt
	}
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
