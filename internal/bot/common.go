package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/bowerhall/parley/internal/logger"
)

const fallbackReply = "Something went wrong."

// StoppedReply answers a stop word.
const StoppedReply = "Ok, stopped."

// stopWords are natural language commands that cancel the current skill.
// Keep this list minimal to avoid false positives.
var stopWords = []string{"stop", "cancel", "abort", "nevermind", "never mind", "quit", "halt", "/stop", "/cancel"}

// IsStopCommand reports whether text is one of the stop words.
func IsStopCommand(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, word := range stopWords {
		if lower == word {
			return true
		}
	}
	return false
}

// SessionID is the agent user id for a chat on a provider, e.g.
// "telegram:123456".
func SessionID(provider, chat string) string {
	return provider + ":" + chat
}

// ParseSessionID splits a session id built by SessionID.
func ParseSessionID(userID string) (provider, chat string, ok bool) {
	provider, chat, ok = strings.Cut(userID, ":")
	if !ok || provider == "" || chat == "" {
		return "", "", false
	}
	return provider, chat, true
}

// dispatcher turns chat events into agent calls. It is shared by all
// providers so they reply the same way.
type dispatcher struct {
	agent    Agent
	provider string
}

func (d dispatcher) handle(ctx context.Context, chat, text string, action bool) []string {
	userID := SessionID(d.provider, chat)

	if IsStopCommand(text) {
		if err := d.agent.Reset(ctx, userID); err != nil {
			logger.Error("reset failed", "session", userID, "error", err)
			return []string{fallbackReply}
		}
		logger.Info("session reset", "session", userID)
		return []string{StoppedReply}
	}

	process := d.agent.ProcessTurn
	if action {
		process = d.agent.ProcessAction
	}

	answers, err := process(ctx, userID, text)
	if err != nil {
		logger.Error("agent failed", "session", userID, "error", err)
		return []string{fallbackReply}
	}

	logger.Debug("turn answered", "session", userID, "answers", len(answers))

	return answers
}

// Router fans timeout notifications out to the bot owning the session.
type Router struct {
	mu   sync.RWMutex
	bots map[string]Bot
}

func NewRouter(bots ...Bot) *Router {
	r := &Router{bots: make(map[string]Bot)}
	for _, b := range bots {
		r.Add(b)
	}
	return r
}

func (r *Router) Add(b Bot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bots[b.Provider()] = b
}

// Notify matches agent.NotifyFunc.
func (r *Router) Notify(userID string, answers []string) {
	provider, _, ok := ParseSessionID(userID)
	if !ok {
		logger.Warn("notify for unroutable session", "session", userID)
		return
	}

	r.mu.RLock()
	b, ok := r.bots[provider]
	r.mu.RUnlock()

	if !ok {
		logger.Warn("notify for unknown provider", "session", userID, "provider", provider)
		return
	}

	b.Notify(userID, answers)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}

	return s[:max] + "..."
}

func chatFromSession(provider, userID string) (string, error) {
	p, chat, ok := ParseSessionID(userID)
	if !ok || p != provider {
		return "", fmt.Errorf("session %q does not belong to %s", userID, provider)
	}
	return chat, nil
}
