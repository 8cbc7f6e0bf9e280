package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
-- Single-row document table. The whole document is still one blob, but the
-- write becomes a real transaction instead of a file replace.
CREATE TABLE IF NOT EXISTS documents (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    body TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
`

// SQLiteBackend stores the document blob in an embedded sqlite database.
// Selected with WELLSPRING_STORE_DRIVER=sqlite.
type SQLiteBackend struct {
	conn *sql.DB
}

// OpenSQLite opens (and migrates) the sqlite-backed document store.
func OpenSQLite(path string) (*SQLiteBackend, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := conn.Exec(schema); err != nil {
		return nil, fmt.Errorf("running migration: %w", err)
	}

	return &SQLiteBackend{conn: conn}, nil
}

// Load returns the stored document blob, or nil when none has been saved yet.
func (b *SQLiteBackend) Load() ([]byte, error) {
	var body string
	err := b.conn.QueryRow(`SELECT body FROM documents WHERE id = 1`).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading document row: %w", err)
	}
	return []byte(body), nil
}

// Save upserts the single document row.
func (b *SQLiteBackend) Save(data []byte) error {
	_, err := b.conn.Exec(`
		INSERT INTO documents (id, body, updated_at)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			body = excluded.body,
			updated_at = excluded.updated_at
	`, string(data), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("upserting document row: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (b *SQLiteBackend) Close() error {
	return b.conn.Close()
}
