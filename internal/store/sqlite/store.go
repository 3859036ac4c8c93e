// Package sqlite persists accounts and chat history in a single
// SQLite file, the document-store option next to the flat-file one.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/voxly/voxly/internal/core"
	"github.com/voxly/voxly/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	username TEXT PRIMARY KEY,
	password TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS messages (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	channel TEXT NOT NULL,
	user    TEXT NOT NULL,
	text    TEXT NOT NULL,
	time    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS messages_channel ON messages (channel, id);
`

// Store implements core.HistoryStore and core.CredentialStore.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Append inserts the message and trims the channel back to the
// retention cap, oldest rows first, in one transaction.
func (s *Store) Append(ctx context.Context, msg domain.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO messages (channel, user, text, time) VALUES (?, ?, ?, ?)`,
		string(msg.Channel), msg.Author, msg.Text, msg.Time.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`DELETE FROM messages WHERE channel = ? AND id NOT IN (
			SELECT id FROM messages WHERE channel = ? ORDER BY id DESC LIMIT ?
		)`,
		string(msg.Channel), string(msg.Channel), core.HistoryLimit)
	if err != nil {
		return fmt.Errorf("trim channel: %w", err)
	}
	return tx.Commit()
}

// History returns the channel's retained messages, oldest first.
func (s *Store) History(ctx context.Context, channel domain.ChannelName) ([]domain.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user, text, time FROM messages WHERE channel = ? ORDER BY id ASC`,
		string(channel))
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		var m domain.Message
		var ts string
		if err := rows.Scan(&m.Author, &m.Text, &ts); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Channel = channel
		if m.Time, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("parse message time: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) FindUser(ctx context.Context, name string) (string, bool, error) {
	var hash string
	err := s.db.QueryRowContext(ctx,
		`SELECT password FROM users WHERE username = ?`, name).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("find user: %w", err)
	}
	return hash, true, nil
}

func (s *Store) PutUser(ctx context.Context, name, hash string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, password) VALUES (?, ?)
		 ON CONFLICT(username) DO UPDATE SET password = excluded.password`,
		name, hash)
	if err != nil {
		return fmt.Errorf("put user: %w", err)
	}
	return nil
}
