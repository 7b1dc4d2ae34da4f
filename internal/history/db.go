// Package history records chat transcripts in a local sqlite database so
// past conversations can be listed and searched after the session ends.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA busy_timeout = 5000;

CREATE TABLE IF NOT EXISTS chats (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    server     TEXT NOT NULL,
    context    TEXT NOT NULL DEFAULT '',
    started_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
    chat_id INTEGER NOT NULL,
    seq     INTEGER NOT NULL,
    ts      TEXT NOT NULL DEFAULT '',
    role    TEXT NOT NULL,
    text    TEXT NOT NULL,
    PRIMARY KEY (chat_id, seq)
);

CREATE VIRTUAL TABLE IF NOT EXISTS messages_fts USING fts5(
    text,
    content=messages,
    content_rowid=rowid,
    tokenize='unicode61'
);

-- triggers to keep FTS in sync
CREATE TRIGGER IF NOT EXISTS messages_ai AFTER INSERT ON messages BEGIN
    INSERT INTO messages_fts(rowid, text) VALUES (new.rowid, new.text);
END;

CREATE TRIGGER IF NOT EXISTS messages_ad AFTER DELETE ON messages BEGIN
    INSERT INTO messages_fts(messages_fts, rowid, text) VALUES('delete', old.rowid, old.text);
END;
`

type DB struct {
	db *sql.DB
}

func Open(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) Raw() *sql.DB {
	return d.db
}

// BeginChat registers a new transcript and returns its local id.
func (d *DB) BeginChat(server, contextDesc string) (int64, error) {
	res, err := d.db.Exec(
		"INSERT INTO chats (server, context, started_at) VALUES (?, ?, ?)",
		server, contextDesc, time.Now().Format(time.RFC3339),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// AddMessage appends one message to a transcript.
func (d *DB) AddMessage(chatID int64, role, text string) error {
	_, err := d.db.Exec(`
		INSERT INTO messages (chat_id, seq, ts, role, text)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM messages WHERE chat_id = ?), ?, ?, ?)`,
		chatID, chatID, time.Now().Format(time.RFC3339), role, text,
	)
	return err
}

type ChatRow struct {
	ID        int64
	Server    string
	Context   string
	StartedAt string
	Messages  int
}

func (d *DB) ListChats(limit int) ([]ChatRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.db.Query(`
		SELECT c.id, c.server, c.context, c.started_at, COUNT(m.chat_id)
		FROM chats c
		LEFT JOIN messages m ON m.chat_id = c.id
		GROUP BY c.id
		ORDER BY c.id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chats []ChatRow
	for rows.Next() {
		var c ChatRow
		if err := rows.Scan(&c.ID, &c.Server, &c.Context, &c.StartedAt, &c.Messages); err != nil {
			return nil, err
		}
		chats = append(chats, c)
	}
	return chats, rows.Err()
}

func (d *DB) GetChat(id int64) (*ChatRow, error) {
	var c ChatRow
	err := d.db.QueryRow(`
		SELECT c.id, c.server, c.context, c.started_at, COUNT(m.chat_id)
		FROM chats c
		LEFT JOIN messages m ON m.chat_id = c.id
		WHERE c.id = ?
		GROUP BY c.id`, id,
	).Scan(&c.ID, &c.Server, &c.Context, &c.StartedAt, &c.Messages)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

type MessageRow struct {
	Seq  int
	Ts   string
	Role string
	Text string
}

func (d *DB) Messages(chatID int64) ([]MessageRow, error) {
	rows, err := d.db.Query(
		"SELECT seq, ts, role, text FROM messages WHERE chat_id = ? ORDER BY seq",
		chatID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []MessageRow
	for rows.Next() {
		var m MessageRow
		if err := rows.Scan(&m.Seq, &m.Ts, &m.Role, &m.Text); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

type SearchResult struct {
	ChatID    int64
	Seq       int
	Server    string
	StartedAt string
	Role      string
	Snippet   string
}

// Search runs an FTS5 query over all recorded messages, best match first.
func (d *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := d.db.Query(`
		SELECT
			m.chat_id,
			m.seq,
			c.server,
			c.started_at,
			m.role,
			snippet(messages_fts, 0, '>>>', '<<<', '...', 40) AS snip
		FROM messages_fts
		JOIN messages m ON messages_fts.rowid = m.rowid
		JOIN chats c ON m.chat_id = c.id
		WHERE messages_fts MATCH ?
		ORDER BY bm25(messages_fts)
		LIMIT ?`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.ChatID, &r.Seq, &r.Server, &r.StartedAt, &r.Role, &r.Snippet); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func (d *DB) ChatCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM chats").Scan(&n)
	return n, err
}

func (d *DB) MessageCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM messages").Scan(&n)
	return n, err
}
