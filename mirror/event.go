package mirror

import (
	"context"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/mskvii/bot2-2/core"
)

const messageTimeLayout = "2006-01-02 15:04:05"

// Event describes one committed mutation.
type Event struct {
	// Description names the change, e.g. "new post" or "delete reply".
	Description string
	// Author is the display label of the user who made the change.
	Author string
	// TargetID is the post or reply the change touched; 0 when none.
	TargetID core.ID
	// Time is when the change was committed.
	Time time.Time
}

// CommitMessage renders the event as a one-line version control message.
func (e Event) CommitMessage() string {
	var b strings.Builder
	b.WriteString(capitalize(e.Description))
	if e.TargetID != 0 && e.Author != "" {
		b.WriteString(" post #")
		b.WriteString(e.TargetID.String())
	}
	if e.Author != "" {
		b.WriteString(" by ")
		b.WriteString(e.Author)
	}
	b.WriteString(" - ")
	b.WriteString(e.Time.Format(messageTimeLayout))
	return b.String()
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

// Syncer pushes the current state of the store to the mirror.
type Syncer interface {
	Sync(ctx context.Context, event Event) error
}

// SyncerFunc adapts a function to the Syncer interface.
type SyncerFunc func(ctx context.Context, event Event) error

// Sync calls f.
func (f SyncerFunc) Sync(ctx context.Context, event Event) error {
	return f(ctx, event)
}
