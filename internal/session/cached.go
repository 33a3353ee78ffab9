package session

import (
	"context"
	"fmt"

	"github.com/dgraph-io/ristretto"

	"github.com/bowerhall/parley/internal/logger"
)

const (
	defaultCacheCounters = 1e5
	defaultCacheMaxCost  = 64 << 20
	defaultCacheBuffer   = 64
)

// CachedStore keeps encoded sessions in a ristretto cache in front of a
// slower backend. Writes go through to the backend before the cache.
type CachedStore struct {
	backend Store
	cache   *ristretto.Cache
}

// NewCachedStore wraps backend. maxCost bounds the cache size in bytes; zero
// uses the default.
func NewCachedStore(backend Store, maxCost int64) (*CachedStore, error) {
	if maxCost <= 0 {
		maxCost = defaultCacheMaxCost
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: defaultCacheCounters,
		MaxCost:     maxCost,
		BufferItems: defaultCacheBuffer,
	})
	if err != nil {
		return nil, fmt.Errorf("session cache: %w", err)
	}

	return &CachedStore{backend: backend, cache: cache}, nil
}

func (s *CachedStore) Get(ctx context.Context, userID string) (*Session, error) {
	if v, ok := s.cache.Get(userID); ok {
		if data, ok := v.([]byte); ok {
			logger.Debug("session cache hit", "user", userID)
			return Unmarshal(data)
		}
	}

	sess, err := s.backend.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if data, err := Marshal(sess); err == nil {
		s.cache.Set(userID, data, int64(len(data)))
	}

	return sess, nil
}

func (s *CachedStore) Set(ctx context.Context, userID string, sess *Session) error {
	data, err := Marshal(sess)
	if err != nil {
		return err
	}

	if err := s.backend.Set(ctx, userID, sess); err != nil {
		s.cache.Del(userID)
		return err
	}

	s.cache.Set(userID, data, int64(len(data)))
	s.cache.Wait()

	return nil
}

func (s *CachedStore) Close() {
	s.cache.Close()
}
