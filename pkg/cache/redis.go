package cache

import (
	"context"
	"errors"
	"time"

	"github.com/StricklySoft/authn-core/pkg/clients/redis"
)

// RedisBackend is the subset of [redis.Client] used by [RedisStore].
type RedisBackend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) (int64, error)
}

var _ RedisBackend = (*redis.Client)(nil)

// RedisStore keeps entries in Redis so that every replica shares one
// cache. Entries expire after the store's TTL.
type RedisStore struct {
	client RedisBackend
	ttl    time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore returns a store on client. A non-positive ttl selects
// [DefaultTTL].
func NewRedisStore(client RedisBackend, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

// Get implements [Store]. A missing key is reported as not found.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := s.client.Get(ctx, key)
	if errors.Is(err, redis.ErrNil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// Set implements [Store].
func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, key, value, s.ttl)
}

// Delete implements [Store].
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	_, err := s.client.Del(ctx, key)
	return err
}
