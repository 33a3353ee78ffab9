package conversation

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const defaultMaxMessages = 50

const (
	RoleUser = "user"
	RoleBot  = "bot"
)

type Message struct {
	Role      string
	Content   string
	CreatedAt time.Time
}

// Store keeps the most recent messages of each user's conversation, oldest
// evicted first.
type Store struct {
	db          *sql.DB
	maxMessages int
	now         func() time.Time
}

const schema = `
CREATE TABLE IF NOT EXISTS transcript (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id TEXT NOT NULL,
    role TEXT NOT NULL,
    content TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transcript_user ON transcript(user_id, id);
`

// NewStore creates a transcript buffer using the provided database connection
func NewStore(db *sql.DB, maxMessages int) (*Store, error) {
	if maxMessages <= 0 {
		maxMessages = defaultMaxMessages
	}
	s := &Store{db: db, maxMessages: maxMessages, now: time.Now}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(schema)
	return err
}

// AddTurn records one turn: the user's message, if any, followed by the
// answers. Timeout turns have no user message.
func (s *Store) AddTurn(ctx context.Context, userID, message string, answers []string) error {
	if message == "" && len(answers) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	createdAt := s.now().UnixMilli()
	insert := func(role, content string) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO transcript (user_id, role, content, created_at) VALUES (?, ?, ?, ?)`,
			userID, role, content, createdAt,
		)
		return err
	}

	if message != "" {
		if err := insert(RoleUser, message); err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
	}
	for _, a := range answers {
		if err := insert(RoleBot, a); err != nil {
			return fmt.Errorf("insert answer: %w", err)
		}
	}

	// trim to max messages (FIFO)
	_, err = tx.ExecContext(ctx, `
		DELETE FROM transcript
		WHERE user_id = ? AND id NOT IN (
			SELECT id FROM transcript
			WHERE user_id = ?
			ORDER BY id DESC
			LIMIT ?
		)`, userID, userID, s.maxMessages)
	if err != nil {
		return fmt.Errorf("trim transcript: %w", err)
	}

	return tx.Commit()
}

// Recent returns the buffered messages, oldest first.
func (s *Store) Recent(ctx context.Context, userID string) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT role, content, created_at
		FROM transcript
		WHERE user_id = ?
		ORDER BY id ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		var createdAt int64
		if err := rows.Scan(&m.Role, &m.Content, &createdAt); err != nil {
			return nil, err
		}
		m.CreatedAt = time.UnixMilli(createdAt)
		messages = append(messages, m)
	}

	return messages, rows.Err()
}

func (s *Store) Clear(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM transcript WHERE user_id = ?`, userID)
	return err
}
