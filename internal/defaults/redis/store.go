// Package redis provides a Redis-backed defaults.Store.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/jcmexdev/storefront/internal/defaults"
)

// Store writes keys as "<namespace>:defaults:<key>" without expiry.
type Store struct {
	client    *redis.Client
	namespace string
}

func NewStore(client *redis.Client, namespace string) *Store {
	return &Store{client: client, namespace: namespace}
}

// Dial connects to addr and pings it once.
func Dial(ctx context.Context, addr, namespace string) (*Store, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", addr, err)
	}
	return NewStore(client, namespace), nil
}

func (s *Store) GenerateKey(key string) string {
	return fmt.Sprintf("%s:defaults:%s", s.namespace, key)
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, s.GenerateKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", defaults.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis: get %q: %w", key, err)
	}
	return v, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.GenerateKey(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis: set %q: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.GenerateKey(key)).Err(); err != nil {
		return fmt.Errorf("redis: delete %q: %w", key, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
