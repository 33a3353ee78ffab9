package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "parley:session:"

// RedisStore keeps each session as one opaque blob under a prefixed key.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore wraps client. A zero ttl keeps records until evicted by the
// server's own policy.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: defaultRedisPrefix,
		ttl:    ttl,
	}
}

func (s *RedisStore) key(userID string) string {
	return s.prefix + userID
}

func (s *RedisStore) Get(ctx context.Context, userID string) (*Session, error) {
	data, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", userID, err)
	}

	return Unmarshal(data)
}

func (s *RedisStore) Set(ctx context.Context, userID string, sess *Session) error {
	data, err := Marshal(sess)
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, s.key(userID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", userID, err)
	}

	return nil
}

func (s *RedisStore) Delete(ctx context.Context, userID string) error {
	return s.client.Del(ctx, s.key(userID)).Err()
}
