// Package storetest provides a conformance suite every Store backend runs,
// and a fault-injecting Store wrapper for engine and orchestrator tests.
package storetest

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/formdraft/pkg/types"
)

// Opener creates a fresh, empty store for one subtest.
type Opener func(t *testing.T) types.Store

// Run exercises the Store contract against stores produced by open.
func Run(t *testing.T, open Opener) {
	t.Helper()

	t.Run("get missing returns ErrNotFound", func(t *testing.T) {
		s := open(t)
		defer s.Close()

		_, err := s.Get("form-missing")
		assert.ErrorIs(t, err, types.ErrNotFound)
	})

	t.Run("set then get", func(t *testing.T) {
		s := open(t)
		defer s.Close()

		require.NoError(t, s.Set("form-a", `{"data":{"title":"Hello"}}`))
		got, err := s.Get("form-a")
		require.NoError(t, err)
		assert.Equal(t, `{"data":{"title":"Hello"}}`, got)
	})

	t.Run("set overwrites", func(t *testing.T) {
		s := open(t)
		defer s.Close()

		require.NoError(t, s.Set("form-a", "first"))
		require.NoError(t, s.Set("form-a", "second"))
		got, err := s.Get("form-a")
		require.NoError(t, err)
		assert.Equal(t, "second", got)
	})

	t.Run("empty key is rejected", func(t *testing.T) {
		s := open(t)
		defer s.Close()

		assert.ErrorIs(t, s.Set("", "v"), types.ErrInvalidKey)
	})

	t.Run("remove deletes and is idempotent", func(t *testing.T) {
		s := open(t)
		defer s.Close()

		require.NoError(t, s.Set("form-a", "v"))
		require.NoError(t, s.Remove("form-a"))
		_, err := s.Get("form-a")
		assert.ErrorIs(t, err, types.ErrNotFound)
		assert.NoError(t, s.Remove("form-a"))
	})

	t.Run("keys filters by prefix and sorts", func(t *testing.T) {
		s := open(t)
		defer s.Close()

		require.NoError(t, s.Set("form-b", "2"))
		require.NoError(t, s.Set("form-a", "1"))
		require.NoError(t, s.Set("settings", "x"))

		keys, err := s.Keys(types.StorageKeyPrefix)
		require.NoError(t, err)
		assert.Equal(t, []string{"form-a", "form-b"}, keys)

		all, err := s.Keys("")
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})

	t.Run("close is idempotent and blocks operations", func(t *testing.T) {
		s := open(t)

		require.NoError(t, s.Close())
		require.NoError(t, s.Close())
		_, err := s.Get("form-a")
		assert.ErrorIs(t, err, types.ErrStoreClosed)
		assert.ErrorIs(t, s.Set("form-a", "v"), types.ErrStoreClosed)
	})
}

// FaultyStore wraps a Store and fails the next N Set or Get calls with the
// configured error. It counts successful writes so tests can assert how many
// times the engine reached the store.
type FaultyStore struct {
	types.Store

	mu        sync.Mutex
	setErr    error
	setFails  int
	getErr    error
	getFails  int
	writes    int
	lastValue map[string]string
}

// NewFaultyStore wraps inner.
func NewFaultyStore(inner types.Store) *FaultyStore {
	return &FaultyStore{Store: inner, lastValue: map[string]string{}}
}

// ErrQuotaExceeded is a convenient write failure for tests.
var ErrQuotaExceeded = errors.New("quota exceeded")

// FailSets makes the next n Set calls return err. n < 0 fails every call.
func (f *FaultyStore) FailSets(n int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setFails, f.setErr = n, err
}

// FailGets makes the next n Get calls return err. n < 0 fails every call.
func (f *FaultyStore) FailGets(n int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getFails, f.getErr = n, err
}

// Writes returns the number of successful Set calls.
func (f *FaultyStore) Writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

// Get fails while Get faults remain, then delegates.
func (f *FaultyStore) Get(key string) (string, error) {
	f.mu.Lock()
	if f.getFails != 0 {
		if f.getFails > 0 {
			f.getFails--
		}
		err := f.getErr
		f.mu.Unlock()
		return "", err
	}
	f.mu.Unlock()
	return f.Store.Get(key)
}

// Set fails while Set faults remain, then delegates and counts the write.
func (f *FaultyStore) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setFails != 0 {
		if f.setFails > 0 {
			f.setFails--
		}
		return f.setErr
	}
	if err := f.Store.Set(key, value); err != nil {
		return err
	}
	f.writes++
	f.lastValue[key] = value
	return nil
}

// LastWrite returns the most recent value successfully written under key.
func (f *FaultyStore) LastWrite(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.lastValue[key]
	return v, ok
}
