package session

import (
	"context"
)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]byte)}
}

// Get returns a decoded copy so callers never alias stored state.
func (s *MemoryStore) Get(ctx context.Context, userID string) (*Session, error) {
	s.mu.RLock()
	data, ok := s.sessions[userID]
	s.mu.RUnlock()

	if !ok {
		return New(), nil
	}

	return Unmarshal(data)
}

func (s *MemoryStore) Set(ctx context.Context, userID string, sess *Session) error {
	data, err := Marshal(sess)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = data

	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
	return nil
}

// Len reports how many users have a stored session.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
