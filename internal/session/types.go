package session

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/bowerhall/parley/internal/effects"
)

// Message is one inbound event. TimedOut marks a synthetic timeout delivered
// by the timeout broker instead of a user reply.
type Message struct {
	Text     string `json:"text"`
	TimedOut bool   `json:"timed_out,omitempty"`
}

// Values maps keys to pre-encoded JSON so records round-trip exactly.
type Values map[string]json.RawMessage

// Session is the persisted per-user record.
type Session struct {
	// Pending skills in priority order. Only the head may be awaiting input.
	Pending      []PendingSkill `json:"pending,omitempty"`
	Shared       Values         `json:"shared,omitempty"`
	TimeoutToken string         `json:"timeout_token,omitempty"`
}

// PendingSkill is a skill activation that has not finished yet.
type PendingSkill struct {
	SkillID string `json:"skill"`
	// ResumePoint names the state to continue from; empty starts fresh.
	ResumePoint    string     `json:"resume_point,omitempty"`
	InitialMessage string     `json:"initial_message"`
	Local          LocalState `json:"local"`
}

// LocalState is what a suspended skill needs to replay its current state.
type LocalState struct {
	// Input is the message the current state was entered with. Nil means the
	// next delivered message enters the state.
	Input   *Message    `json:"input,omitempty"`
	Replies []Message   `json:"replies,omitempty"`
	Emitted []string    `json:"emitted,omitempty"`
	Vars    Values      `json:"vars,omitempty"`
	Effects effects.Log `json:"effects,omitempty"`
}

// Store persists sessions. Get returns an empty session for unknown users.
// Implementations hand out independent copies.
type Store interface {
	Get(ctx context.Context, userID string) (*Session, error)
	Set(ctx context.Context, userID string, sess *Session) error
}

type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]byte
}

// Locker serialises turns per user.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}
