package session

import (
	"context"
	"errors"
	"time"
)

// RedisClient is the subset of a Redis client used by RedisStore.
// Wrap *redis.Client from github.com/redis/go-redis/v9 with a thin adapter.
type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) RedisStatusCmd
	Get(ctx context.Context, key string) RedisStringCmd
	Del(ctx context.Context, keys ...string) RedisIntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) RedisBoolCmd
}

// RedisStatusCmd is the result of SET.
type RedisStatusCmd interface {
	Err() error
}

// RedisStringCmd is the result of GET.
type RedisStringCmd interface {
	Bytes() ([]byte, error)
	Err() error
}

// RedisIntCmd is the result of DEL.
type RedisIntCmd interface {
	Err() error
}

// RedisBoolCmd is the result of EXPIRE.
type RedisBoolCmd interface {
	Err() error
}

// ErrRedisNil mirrors redis.Nil: the key does not exist.
var ErrRedisNil = errors.New("redis: nil")

// RedisStore keeps session payloads in Redis with native TTLs.
type RedisStore struct {
	client RedisClient
	prefix string
	now    func() time.Time
	closed bool
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithRedisPrefix sets the key prefix. Default: "themes:session:".
func WithRedisPrefix(prefix string) RedisStoreOption {
	return func(r *RedisStore) {
		r.prefix = prefix
	}
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(client RedisClient, opts ...RedisStoreOption) *RedisStore {
	r := &RedisStore{
		client: client,
		prefix: "themes:session:",
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RedisStore) key(sessionID string) string {
	return r.prefix + sessionID
}

// Save writes data with a TTL derived from expiresAt.
func (r *RedisStore) Save(ctx context.Context, sessionID string, data []byte, expiresAt time.Time) error {
	if r.closed {
		return ErrStoreClosed
	}
	ttl := expiresAt.Sub(r.now())
	if ttl <= 0 {
		return r.Delete(ctx, sessionID)
	}
	return r.client.Set(ctx, r.key(sessionID), data, ttl).Err()
}

// Load reads a payload; a missing key is not an error.
func (r *RedisStore) Load(ctx context.Context, sessionID string) ([]byte, error) {
	if r.closed {
		return nil, ErrStoreClosed
	}
	data, err := r.client.Get(ctx, r.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, ErrRedisNil) || err.Error() == ErrRedisNil.Error() {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

// Delete removes the key.
func (r *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if r.closed {
		return ErrStoreClosed
	}
	return r.client.Del(ctx, r.key(sessionID)).Err()
}

// Touch resets the key TTL.
func (r *RedisStore) Touch(ctx context.Context, sessionID string, expiresAt time.Time) error {
	if r.closed {
		return ErrStoreClosed
	}
	ttl := expiresAt.Sub(r.now())
	if ttl <= 0 {
		return r.Delete(ctx, sessionID)
	}
	return r.client.Expire(ctx, r.key(sessionID), ttl).Err()
}

// Close marks the store closed. The client is shared and stays open.
func (r *RedisStore) Close() error {
	r.closed = true
	return nil
}
