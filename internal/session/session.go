package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

// ErrCorrupt is returned when a stored record cannot be decoded.
var ErrCorrupt = errors.New("corrupt session record")

// New returns the canonical empty session.
func New() *Session {
	return &Session{Shared: Values{}}
}

// Waiting reports whether a skill is mid-conversation for this user.
func (s *Session) Waiting() bool {
	return len(s.Pending) > 0
}

// SkillIDs lists the pending skills in queue order.
func (s *Session) SkillIDs() []string {
	ids := make([]string, len(s.Pending))
	for i, p := range s.Pending {
		ids[i] = p.SkillID
	}
	return ids
}

// Normalize puts s in the canonical form a store hands back: maps are
// non-nil, empty slices and effect logs are nil. Callers normalize before
// Set so the stored and loaded values compare equal.
func (s *Session) Normalize() {
	if s.Shared == nil {
		s.Shared = Values{}
	}
	if len(s.Pending) == 0 {
		s.Pending = nil
	}
	for i := range s.Pending {
		s.Pending[i].Local.normalize()
	}
}

func (l *LocalState) normalize() {
	if l.Vars == nil {
		l.Vars = Values{}
	}
	if len(l.Replies) == 0 {
		l.Replies = nil
	}
	if len(l.Emitted) == 0 {
		l.Emitted = nil
	}
	if len(l.Effects) == 0 {
		l.Effects = nil
	}
}

func (s *Session) Clone() *Session {
	out := &Session{
		Shared:       s.Shared.Clone(),
		TimeoutToken: s.TimeoutToken,
	}
	if s.Pending != nil {
		out.Pending = make([]PendingSkill, len(s.Pending))
		for i, p := range s.Pending {
			out.Pending[i] = p.Clone()
		}
	}
	return out
}

// NewPending starts a fresh activation of skillID triggered by message.
func NewPending(skillID, message string) PendingSkill {
	return PendingSkill{
		SkillID:        skillID,
		InitialMessage: message,
		Local:          LocalState{Vars: Values{}},
	}
}

func (p PendingSkill) Clone() PendingSkill {
	p.Local = p.Local.Clone()
	return p
}

func (l LocalState) Clone() LocalState {
	out := LocalState{
		Replies: slices.Clone(l.Replies),
		Emitted: slices.Clone(l.Emitted),
		Vars:    l.Vars.Clone(),
		Effects: l.Effects.Clone(),
	}
	if l.Input != nil {
		in := *l.Input
		out.Input = &in
	}
	return out
}

func Marshal(s *Session) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	return data, nil
}

func Unmarshal(data []byte) (*Session, error) {
	s := &Session{}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	s.Normalize()
	return s, nil
}
