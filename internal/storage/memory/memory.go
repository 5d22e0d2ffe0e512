// Package memory implements an in-process key-value slot. Contents do not
// survive a restart.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/xenking/promo-storefront/internal/cart"
)

// Store is a map guarded by a mutex.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// New creates an empty Store.
func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

func (s *Store) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, cart.ErrRecordNotFound
	}
	return slices.Clone(v), nil
}

func (s *Store) Save(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = slices.Clone(data)
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }
