package filestore

import (
	"fmt"
	"strings"

	"github.com/mskvii/bot2-2/core"
)

// layout describes where records of one kind live and how they are named.
type layout struct {
	dir    string
	prefix string
}

const recordExt = ".json"

var layouts = map[core.Kind]layout{
	core.KindPost:       {dir: "posts", prefix: ""},
	core.KindReply:      {dir: "replies", prefix: "reply_"},
	core.KindLike:       {dir: "likes", prefix: "like_"},
	core.KindMessageRef: {dir: "message_refs", prefix: "message_ref_"},
	core.KindAction:     {dir: "actions", prefix: "action_"},
}

// RecordDirs returns the record directories, relative to the data
// directory, in a fixed order.
func RecordDirs() []string {
	kinds := []core.Kind{core.KindPost, core.KindReply, core.KindLike, core.KindMessageRef, core.KindAction}
	dirs := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		dirs = append(dirs, layouts[kind].dir)
	}
	return dirs
}

// sequencedKinds are the kinds whose ids come from the Sequencer.
var sequencedKinds = []core.Kind{core.KindPost, core.KindReply, core.KindLike}

// makeRecordName generates the file name of an id-keyed record.
// Format: prefix + id + .json
func makeRecordName(kind core.Kind, id core.ID) string {
	return layouts[kind].prefix + id.String() + recordExt
}

// parseRecordName extracts the id from an id-keyed file name.
// Names that do not follow the layout report ok=false.
func parseRecordName(kind core.Kind, name string) (core.ID, bool) {
	l := layouts[kind]
	if !strings.HasPrefix(name, l.prefix) || !strings.HasSuffix(name, recordExt) {
		return 0, false
	}
	digits := strings.TrimSuffix(strings.TrimPrefix(name, l.prefix), recordExt)
	if digits == "" || strings.TrimLeft(digits, "0123456789") != "" {
		return 0, false
	}
	id, err := core.ParseID(digits)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// actionTimeLayout is the timestamp embedded in action file names.
const actionTimeLayout = "20060102_150405"

// makeActionName generates the base name of an action record, without extension.
// Format: action_{type}_{author}_{target}_{YYYYMMDD_HHMMSS}
func makeActionName(action *core.ActionRecord) string {
	return fmt.Sprintf("%s%s_%s_%s_%s",
		layouts[core.KindAction].prefix,
		sanitizeNamePart(action.ActionType),
		sanitizeNamePart(action.AuthorID),
		sanitizeNamePart(action.TargetID),
		action.Timestamp.Format(actionTimeLayout))
}

// makeActionCollisionName appends the collision counter to an action base name.
func makeActionCollisionName(base string, n int) string {
	if n == 0 {
		return base + recordExt
	}
	return fmt.Sprintf("%s_%d%s", base, n, recordExt)
}

// sanitizeNamePart replaces characters that are unsafe in a file name with '-'.
func sanitizeNamePart(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '_' || r == '-':
			return r
		default:
			return '-'
		}
	}, s)
}

// isActionName reports whether name looks like a stored action record.
func isActionName(name string) bool {
	return strings.HasPrefix(name, layouts[core.KindAction].prefix) && strings.HasSuffix(name, recordExt)
}
