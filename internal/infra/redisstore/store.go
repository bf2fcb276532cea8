// Package redisstore implements domain.KVStore on Redis.
// Keys are namespaced with a prefix so several profiles can share a server.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/habitbloom/bloom/internal/domain"
	"github.com/habitbloom/bloom/internal/infra/metrics"
)

// DefaultPrefix namespaces every key written by Bloom.
const DefaultPrefix = "bloom:"

// Store is a Redis-backed key-value store.
type Store struct {
	rdb    *redis.Client
	prefix string
}

var _ domain.KVStore = (*Store)(nil)

// New wraps an existing client.
func New(rdb *redis.Client, prefix string) *Store {
	return &Store{rdb: rdb, prefix: prefix}
}

// Open parses a redis:// URL, connects and pings the server.
func Open(ctx context.Context, url, prefix string) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return New(rdb, prefix), nil
}

// Close releases the client.
func (s *Store) Close() error {
	if s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

// Ping checks the server is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if s.rdb == nil {
		return errors.New("redis client not configured")
	}
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) key(k string) string {
	return s.prefix + k
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	defer observe("get", time.Now())

	if s.rdb == nil {
		return "", false, nil
	}
	val, err := s.rdb.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

// Set stores value under key without expiry.
func (s *Store) Set(ctx context.Context, key, value string) error {
	defer observe("set", time.Now())

	if s.rdb == nil {
		return nil
	}
	if err := s.rdb.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (s *Store) Delete(ctx context.Context, key string) error {
	defer observe("delete", time.Now())

	if s.rdb == nil {
		return nil
	}
	if _, err := s.rdb.Del(ctx, s.key(key)).Result(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func observe(op string, start time.Time) {
	metrics.StoreLatency.WithLabelValues("redis_" + op).Observe(time.Since(start).Seconds())
}
