package timeout

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bowerhall/parley/internal/logger"
)

// minDelay keeps a wake-up ahead of the scheduler's clock when it is added.
const minDelay = 10 * time.Millisecond

// once fires a single time at a fixed instant.
type once struct {
	at time.Time
}

func (o once) Next(t time.Time) time.Time {
	if t.Before(o.at) {
		return o.at
	}
	return time.Time{}
}

// CronBroker schedules wake-ups in process on a robfig/cron scheduler.
// Pending wake-ups are lost on restart; use StoreBroker when they must
// survive one.
type CronBroker struct {
	c *cron.Cron

	mu      sync.Mutex
	wake    WakeFunc
	entries map[string]entry
}

type entry struct {
	id     cron.EntryID
	userID string
}

func NewCronBroker(loc *time.Location) *CronBroker {
	if loc == nil {
		loc = time.UTC
	}

	b := &CronBroker{
		c:       cron.New(cron.WithLocation(loc)),
		entries: make(map[string]entry),
	}
	b.c.Start()

	return b
}

// OnWake sets the callback for fired wake-ups.
func (b *CronBroker) OnWake(fn WakeFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.wake = fn
}

func (b *CronBroker) Schedule(ctx context.Context, userID string, d time.Duration) (string, error) {
	if d < minDelay {
		d = minDelay
	}

	token := NewToken()
	at := time.Now().Add(d)

	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.c.Schedule(once{at: at}, cron.FuncJob(func() {
		b.fire(userID, token)
	}))
	b.entries[token] = entry{id: id, userID: userID}

	logger.Debug("timeout scheduled", "user", userID, "token", token, "at", at)
	return token, nil
}

func (b *CronBroker) fire(userID, token string) {
	b.mu.Lock()
	if e, ok := b.entries[token]; ok {
		b.c.Remove(e.id)
		delete(b.entries, token)
	}
	wake := b.wake
	b.mu.Unlock()

	if wake == nil {
		logger.Warn("timeout fired without wake handler", "user", userID, "token", token)
		return
	}

	logger.Debug("timeout fired", "user", userID, "token", token)
	wake(context.Background(), userID, token)
}

// Cancel removes every wake-up scheduled for userID that has not fired.
func (b *CronBroker) Cancel(ctx context.Context, userID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for token, e := range b.entries {
		if e.userID == userID {
			b.c.Remove(e.id)
			delete(b.entries, token)
		}
	}
	return nil
}

// Pending reports how many wake-ups have not fired yet.
func (b *CronBroker) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Stop halts the scheduler and waits for running wake-ups to finish.
func (b *CronBroker) Stop() {
	<-b.c.Stop().Done()
}
