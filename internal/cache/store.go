package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned by Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache: miss")

const scanBatch = 500

// Store is a key/value store with per-key TTL. Operations are independent;
// no multi-key atomicity is offered.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) (int64, error)
	// DeleteMatching removes every key matching a glob pattern. It walks the
	// whole keyspace and must stay off read paths.
	DeleteMatching(ctx context.Context, pattern string) (int64, error)
	// Increment adds delta to an integer key, starting from 0 when the key is
	// missing; ttl applies when the key is created.
	Increment(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// RedisStore implements Store on go-redis. A nil client always misses.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore wraps rdb, which may be nil.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	if s.rdb == nil {
		return nil, ErrCacheMiss
	}
	b, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if s.rdb == nil {
		return nil
	}
	return s.rdb.Set(ctx, key, value, ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) (int64, error) {
	if s.rdb == nil || len(keys) == 0 {
		return 0, nil
	}
	return s.rdb.Del(ctx, keys...).Result()
}

func (s *RedisStore) DeleteMatching(ctx context.Context, pattern string) (int64, error) {
	if s.rdb == nil {
		return 0, nil
	}

	var deleted int64
	batch := make([]string, 0, scanBatch)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := s.rdb.Del(ctx, batch...).Result()
		deleted += n
		batch = batch[:0]
		return err
	}

	iter := s.rdb.Scan(ctx, 0, pattern, scanBatch).Iterator()
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			if err := flush(); err != nil {
				return deleted, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, err
	}
	if err := flush(); err != nil {
		return deleted, err
	}
	return deleted, nil
}

func (s *RedisStore) Increment(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	if s.rdb == nil {
		return 0, ErrCacheMiss
	}
	n, err := s.rdb.IncrBy(ctx, key, delta).Result()
	if err != nil {
		return 0, err
	}
	// The counter was just created from 0.
	if n == delta && ttl > 0 {
		s.rdb.Expire(ctx, key, ttl)
	}
	return n, nil
}

func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	if s.rdb == nil {
		return false, nil
	}
	n, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
