package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    user_id TEXT PRIMARY KEY,
    data BLOB NOT NULL,
    updated_at DATETIME DEFAULT (datetime('now'))
);
`

// SQLiteStore keeps one encoded record per user in a sqlite table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a session store using the provided database connection
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Get(ctx context.Context, userID string) (*Session, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM sessions WHERE user_id = ?`, userID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", userID, err)
	}

	return Unmarshal(data)
}

func (s *SQLiteStore) Set(ctx context.Context, userID string, sess *Session) error {
	data, err := Marshal(sess)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (user_id, data, updated_at) VALUES (?, ?, datetime('now'))
		ON CONFLICT(user_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		userID, data)
	if err != nil {
		return fmt.Errorf("save session %s: %w", userID, err)
	}

	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID)
	return err
}
