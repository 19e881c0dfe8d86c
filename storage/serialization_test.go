package storage

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/mskvii/bot2-2/core"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedTime() core.Timestamp {
	return core.NewTimestamp(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
}

func TestMarshalUnmarshalCounter(t *testing.T) {
	tests := []struct {
		name string
		id   core.ID
	}{
		{"zero", core.ID(0)},
		{"small", core.ID(42)},
		{"multi-byte", core.ID(300)},
		{"max uint64", core.ID(18446744073709551615)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalCounter(tt.id)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalCounter(data)
			require.NoError(t, err)
			assert.Equal(t, tt.id, decoded)
		})
	}
}

func TestUnmarshalCounter_Invalid(t *testing.T) {
	_, err := UnmarshalCounter(nil)
	assert.ErrorIs(t, err, ErrTruncatedData)

	// continuation bit set with nothing following
	_, err = UnmarshalCounter([]byte{0x80})
	assert.Error(t, err)
}

func TestMarshalRecord_Golden(t *testing.T) {
	g := goldie.New(t)

	post := &core.Post{
		ID:        1,
		AuthorID:  "u1",
		Content:   "hello <world> & friends",
		Category:  "chat",
		CreatedAt: fixedTime(),
		UpdatedAt: fixedTime(),
	}
	data, err := MarshalRecord(post)
	require.NoError(t, err)
	g.Assert(t, "post_record", data)

	reply := &core.Reply{
		ID:          2,
		PostID:      1,
		AuthorID:    "u2",
		Content:     "hi!",
		DisplayName: "Bob",
		CreatedAt:   fixedTime(),
	}
	reply.SetExtraFields(map[string]json.RawMessage{
		"legacy_flag": json.RawMessage(`true`),
		"z_note":      json.RawMessage(`"kept"`),
	})
	data, err = MarshalRecord(reply)
	require.NoError(t, err)
	g.Assert(t, "reply_record_with_extras", data)
}

func TestUnmarshalRecord_PreservesUnknownKeys(t *testing.T) {
	input := []byte(`{
		"id": 7,
		"post_id": 3,
		"user_id": "u9",
		"content": "ok",
		"created_at": "2026-01-02T03:04:05.123456",
		"reaction": "heart",
		"meta": {"source": "import"}
	}`)

	var reply core.Reply
	require.NoError(t, UnmarshalRecord(input, &reply))
	assert.Equal(t, core.ID(7), reply.ID)
	assert.Equal(t, core.ID(3), reply.PostID)
	assert.Equal(t, "u9", reply.AuthorID)
	assert.Equal(t, 123456000, reply.CreatedAt.Nanosecond())

	extras := reply.ExtraFields()
	require.Len(t, extras, 2)
	assert.JSONEq(t, `"heart"`, string(extras["reaction"]))
	assert.JSONEq(t, `{"source": "import"}`, string(extras["meta"]))

	// A rewrite keeps the unknown keys and the new values.
	reply.Content = "edited"
	data, err := MarshalRecord(&reply)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "edited", doc["content"])
	assert.Equal(t, "heart", doc["reaction"])
	assert.Equal(t, map[string]any{"source": "import"}, doc["meta"])
}

func TestUnmarshalRecord_NoExtras(t *testing.T) {
	post := &core.Post{ID: 1, AuthorID: "u1", Content: "c", CreatedAt: fixedTime()}
	data, err := MarshalRecord(post)
	require.NoError(t, err)

	var decoded core.Post
	require.NoError(t, UnmarshalRecord(data, &decoded))
	assert.Nil(t, decoded.ExtraFields())
	assert.Equal(t, post.Content, decoded.Content)
	assert.True(t, post.CreatedAt.Equal(decoded.CreatedAt.Time))
}

func TestUnmarshalRecord_Corrupt(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"truncated", `{"id": 1, "content": "hel`},
		{"not json", `hello`},
		{"wrong type", `{"id": "one"}`},
		{"null document", `null`},
		{"bad timestamp", `{"id": 1, "created_at": "last tuesday"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var post core.Post
			err := UnmarshalRecord([]byte(tt.data), &post)
			assert.ErrorIs(t, err, ErrCorruptRecord)
		})
	}
}

func TestUnmarshalRecord_ActionData(t *testing.T) {
	input := []byte(`{"action_type":"search","user_id":"u1","target_id":"","timestamp":"2026-01-02T03:04:05","data":{"keyword":"cat","hits":3}}`)

	var action core.ActionRecord
	require.NoError(t, UnmarshalRecord(input, &action))
	assert.Equal(t, "search", action.ActionType)
	assert.Equal(t, "cat", action.Data["keyword"])
	assert.Equal(t, float64(3), action.Data["hits"])
}
