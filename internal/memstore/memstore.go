// Package memstore is an in-memory Store for tests and ephemeral sessions.
package memstore

import (
	"sort"
	"strings"
	"sync"

	"github.com/patrickmn/go-cache"

	"github.com/mesh-intelligence/formdraft/pkg/types"
)

var _ types.Store = (*Store)(nil)

// Store keeps draft values in a go-cache instance with no expiration; draft
// expiry is the engine's concern, not the store's.
type Store struct {
	mu     sync.RWMutex
	closed bool
	items  *cache.Cache
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{items: cache.New(cache.NoExpiration, 0)}
}

// Get returns the value for key or ErrNotFound.
func (s *Store) Get(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", types.ErrStoreClosed
	}
	v, ok := s.items.Get(key)
	if !ok {
		return "", types.ErrNotFound
	}
	return v.(string), nil
}

// Set stores value under key.
func (s *Store) Set(key, value string) error {
	if key == "" {
		return types.ErrInvalidKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return types.ErrStoreClosed
	}
	s.items.Set(key, value, cache.NoExpiration)
	return nil
}

// Remove deletes key. Missing keys are ignored.
func (s *Store) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return types.ErrStoreClosed
	}
	s.items.Delete(key)
	return nil
}

// Keys returns the sorted keys starting with prefix.
func (s *Store) Keys(prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, types.ErrStoreClosed
	}
	var keys []string
	for k := range s.items.Items() {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Close marks the store closed and drops its contents.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.items.Flush()
	return nil
}
