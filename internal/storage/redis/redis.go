// Package redis stores key-value slots in Redis.
package redis

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/xenking/promo-storefront/internal/cart"
)

// DefaultPrefix namespaces every key written by Store.
const DefaultPrefix = "storefront"

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
}

// Store keeps slots as plain Redis strings without expiry.
type Store struct {
	store  cmdable
	raw    *redis.Client
	prefix string
}

// New connects to url and verifies connectivity.
func New(ctx context.Context, url, prefix string) (*Store, error) {
	if url == "" {
		return nil, errors.New("redis url is required")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		return nil, errors.Wrap(err, "ping redis")
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{store: raw, raw: raw, prefix: prefix}, nil
}

// Key returns the namespaced Redis key for a slot.
func (s *Store) Key(key string) string {
	return strings.Join([]string{s.prefix, key}, ":")
}

func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := s.store.Get(ctx, s.Key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, cart.ErrRecordNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get")
	}
	return data, nil
}

func (s *Store) Save(ctx context.Context, key string, data []byte) error {
	if err := s.store.Set(ctx, s.Key(key), data, 0).Err(); err != nil {
		return errors.Wrap(err, "set")
	}
	return nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.store.Ping(ctx).Err()
}

// Close releases the underlying client.
func (s *Store) Close() error {
	if s.raw == nil {
		return nil
	}
	return s.raw.Close()
}
