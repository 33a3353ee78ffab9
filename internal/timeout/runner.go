package timeout

import (
	"context"
	"time"

	"github.com/bowerhall/parley/internal/logger"
)

const defaultInterval = time.Second

// StoreBroker persists wake-ups so they survive restarts. A Runner fires them.
type StoreBroker struct {
	store *Store
}

func NewStoreBroker(store *Store) *StoreBroker {
	return &StoreBroker{store: store}
}

func (b *StoreBroker) Schedule(ctx context.Context, userID string, d time.Duration) (string, error) {
	token := NewToken()

	w, err := b.store.Create(ctx, token, userID, time.Now().Add(d))
	if err != nil {
		return "", err
	}

	logger.Debug("timeout stored", "user", userID, "token", token, "due", w.DueAt)
	return token, nil
}

func (b *StoreBroker) Cancel(ctx context.Context, userID string) error {
	n, err := b.store.DeleteByUser(ctx, userID)
	if err != nil {
		return err
	}
	if n > 0 {
		logger.Debug("timeouts cancelled", "user", userID, "count", n)
	}
	return nil
}

// Runner polls the store and fires due wake-ups
type Runner struct {
	store    *Store
	wake     WakeFunc
	interval time.Duration
	now      func() time.Time
}

// NewRunner creates a runner. A non-positive interval uses one second.
func NewRunner(store *Store, wake WakeFunc, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = defaultInterval
	}

	return &Runner{
		store:    store,
		wake:     wake,
		interval: interval,
		now:      time.Now,
	}
}

// Run starts the polling loop and returns when ctx is done
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.checkDue(ctx)

	for {
		select {
		case <-ctx.Done():
			logger.Debug("timeout runner stopping")
			return nil
		case <-ticker.C:
			r.checkDue(ctx)
		}
	}
}

func (r *Runner) checkDue(ctx context.Context) int {
	due, err := r.store.GetDue(ctx, r.now())
	if err != nil {
		logger.Error("failed to get due timeouts", "error", err)
		return 0
	}

	fired := 0
	for _, w := range due {
		// claim first so an overlapping runner cannot fire it twice
		claimed, err := r.store.Delete(ctx, w.Token)
		if err != nil {
			logger.Error("failed to claim timeout", "token", w.Token, "error", err)
			continue
		}
		if !claimed {
			continue
		}

		logger.Debug("timeout fired", "user", w.UserID, "token", w.Token)
		r.wake(ctx, w.UserID, w.Token)
		fired++
	}

	return fired
}
