package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/playrps/rpsroom/internal/model"
)

// RedisStore keeps session state in Redis, one hash per (identity, scope).
// Tab-scope hashes carry a TTL so abandoned sessions clean themselves up;
// durable hashes persist until explicitly cleared.
type RedisStore struct {
	client *redis.Client
	tabTTL time.Duration
}

// NewRedisStore creates a Redis-backed session store
func NewRedisStore(client *redis.Client, tabTTL time.Duration) *RedisStore {
	if tabTTL <= 0 {
		tabTTL = 24 * time.Hour
	}
	return &RedisStore{client: client, tabTTL: tabTTL}
}

// Ensure RedisStore implements the interface
var _ Store = (*RedisStore)(nil)

func sessionKey(id model.ClientID, scope Scope) string {
	return fmt.Sprintf("rpsroom:session:%s:%s", id, scope)
}

func (s *RedisStore) Get(ctx context.Context, id model.ClientID, scope Scope, key string) (string, error) {
	value, err := s.client.HGet(ctx, sessionKey(id, scope), key).Result()
	if errors.Is(err, redis.Nil) {
		return "", model.ErrSessionNotFound
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (s *RedisStore) Set(ctx context.Context, id model.ClientID, scope Scope, key, value string) error {
	sk := sessionKey(id, scope)
	pipe := s.client.Pipeline()
	pipe.HSet(ctx, sk, key, value)
	if scope == ScopeTab {
		pipe.Expire(ctx, sk, s.tabTTL)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Delete(ctx context.Context, id model.ClientID, scope Scope, key string) error {
	return s.client.HDel(ctx, sessionKey(id, scope), key).Err()
}

func (s *RedisStore) ClearScope(ctx context.Context, id model.ClientID, scope Scope) error {
	return s.client.Del(ctx, sessionKey(id, scope)).Err()
}
