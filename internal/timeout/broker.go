package timeout

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/bowerhall/parley/internal/session"
)

// Broker schedules wake-ups. After d it must re-enter the agent with the
// returned token, normally through a WakeFunc.
type Broker interface {
	Schedule(ctx context.Context, userID string, d time.Duration) (string, error)
}

// Canceler is implemented by brokers that can drop a user's outstanding
// wake-ups. Dropped wake-ups would be stale anyway.
type Canceler interface {
	Cancel(ctx context.Context, userID string) error
}

// WakeFunc delivers a fired timeout back to the agent.
type WakeFunc func(ctx context.Context, userID, token string)

// NewToken returns a fresh correlation token.
func NewToken() string {
	return uuid.NewString()
}

// Validate reports whether token matches the wait currently active in sess.
// Superseded or already-consumed tokens are stale.
func Validate(sess *session.Session, token string) bool {
	return token != "" && sess.TimeoutToken == token
}
