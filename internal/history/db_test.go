package history

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedChat(t *testing.T, db *DB, server, context string, messages ...string) int64 {
	t.Helper()
	id, err := db.BeginChat(server, context)
	require.NoError(t, err)
	for i, text := range messages {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		require.NoError(t, db.AddMessage(id, role, text))
	}
	return id
}

func TestBeginChatAndMessages(t *testing.T) {
	db := newTestDB(t)

	id := seedChat(t, db, "https://netxms.example.com", "incident #4",
		"why is the router down", "The router lost power.")

	chat, err := db.GetChat(id)
	require.NoError(t, err)
	require.NotNil(t, chat)
	assert.Equal(t, "https://netxms.example.com", chat.Server)
	assert.Equal(t, "incident #4", chat.Context)
	assert.Equal(t, 2, chat.Messages)
	assert.NotEmpty(t, chat.StartedAt)

	messages, err := db.Messages(id)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, 1, messages[0].Seq)
	assert.Equal(t, "user", messages[0].Role)
	assert.Equal(t, "why is the router down", messages[0].Text)
	assert.Equal(t, 2, messages[1].Seq)
	assert.Equal(t, "assistant", messages[1].Role)
}

func TestGetChatMissing(t *testing.T) {
	db := newTestDB(t)

	chat, err := db.GetChat(999)
	require.NoError(t, err)
	assert.Nil(t, chat)
}

func TestListChatsNewestFirst(t *testing.T) {
	db := newTestDB(t)

	first := seedChat(t, db, "a", "none", "hello")
	second := seedChat(t, db, "b", "none")

	chats, err := db.ListChats(0)
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, second, chats[0].ID)
	assert.Equal(t, 0, chats[0].Messages)
	assert.Equal(t, first, chats[1].ID)
	assert.Equal(t, 1, chats[1].Messages)

	chats, err = db.ListChats(1)
	require.NoError(t, err)
	assert.Len(t, chats, 1)
}

func TestSearch(t *testing.T) {
	db := newTestDB(t)

	id := seedChat(t, db, "srv", "none",
		"check interface errors on core-sw1",
		"Interface gi0/1 shows CRC errors.",
		"thanks")
	seedChat(t, db, "srv", "none", "unrelated chatter")

	results, err := db.Search("errors", 0)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, id, r.ChatID)
		assert.Equal(t, "srv", r.Server)
		assert.Contains(t, r.Snippet, ">>>")
	}

	results, err = db.Search("nosuchword", 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchFollowsDeletes(t *testing.T) {
	db := newTestDB(t)

	id := seedChat(t, db, "srv", "none", "fts keeps in sync")
	_, err := db.Raw().Exec("DELETE FROM messages WHERE chat_id = ?", id)
	require.NoError(t, err)

	results, err := db.Search("sync", 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestCounts(t *testing.T) {
	db := newTestDB(t)

	chats, err := db.ChatCount()
	require.NoError(t, err)
	assert.Equal(t, 0, chats)

	seedChat(t, db, "srv", "none", "one", "two", "three")

	chats, err = db.ChatCount()
	require.NoError(t, err)
	assert.Equal(t, 1, chats)

	messages, err := db.MessageCount()
	require.NoError(t, err)
	assert.Equal(t, 3, messages)
}

func TestRecorderSwallowsFailures(t *testing.T) {
	db := newTestDB(t)

	rec := NewRecorder(db, "srv", "none", nil)
	require.NotNil(t, rec)
	rec.Record("user", "hello")

	messages, err := db.MessageCount()
	require.NoError(t, err)
	assert.Equal(t, 1, messages)

	// a dead DB must not panic or surface an error
	db.Close()
	rec.Record("user", "dropped")
}
