package timeout

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Wakeup is a persisted pending timeout.
type Wakeup struct {
	Token     string
	UserID    string
	DueAt     time.Time
	CreatedAt time.Time
}

// Store manages wake-up persistence
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS timeouts (
    token TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    due_at INTEGER NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_timeouts_due_at ON timeouts(due_at);
CREATE INDEX IF NOT EXISTS idx_timeouts_user_id ON timeouts(user_id);
`

// NewStore creates a wake-up store using the provided database connection
func NewStore(db *sql.DB) (*Store, error) {
	s := &Store{db: db}

	if err := s.migrate(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(schema)
	return err
}

// Create records a wake-up for userID at dueAt
func (s *Store) Create(ctx context.Context, token, userID string, dueAt time.Time) (*Wakeup, error) {
	now := time.Now()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO timeouts (token, user_id, due_at, created_at)
		VALUES (?, ?, ?, ?)`,
		token, userID, dueAt.UnixMilli(), now.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("create timeout: %w", err)
	}

	return &Wakeup{
		Token:     token,
		UserID:    userID,
		DueAt:     dueAt,
		CreatedAt: now,
	}, nil
}

// GetDue returns all wake-ups due at or before now, oldest first
func (s *Store) GetDue(ctx context.Context, now time.Time) ([]Wakeup, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT token, user_id, due_at, created_at
		FROM timeouts
		WHERE due_at <= ?
		ORDER BY due_at ASC`,
		now.UnixMilli())
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	return s.scanWakeups(rows)
}

// Delete removes a wake-up and reports whether it existed. Runners delete
// before firing so a wake-up fires at most once.
func (s *Store) Delete(ctx context.Context, token string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM timeouts WHERE token = ?`, token)
	if err != nil {
		return false, err
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

// DeleteByUser drops every pending wake-up for a user
func (s *Store) DeleteByUser(ctx context.Context, userID string) (int, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM timeouts WHERE user_id = ?`, userID)
	if err != nil {
		return 0, err
	}
	n, _ := result.RowsAffected()
	return int(n), nil
}

func (s *Store) scanWakeups(rows *sql.Rows) ([]Wakeup, error) {
	var wakeups []Wakeup

	for rows.Next() {
		var w Wakeup
		var dueAt, createdAt int64

		if err := rows.Scan(&w.Token, &w.UserID, &dueAt, &createdAt); err != nil {
			return nil, err
		}

		w.DueAt = time.UnixMilli(dueAt)
		w.CreatedAt = time.UnixMilli(createdAt)
		wakeups = append(wakeups, w)
	}

	return wakeups, rows.Err()
}
