// Package filestore implements a Store kept in a single JSONL file. The file
// is the source of truth; an in-memory index serves reads and every
// mutation rewrites the file atomically.
package filestore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	logging "github.com/ipfs/go-log/v2"

	"github.com/mesh-intelligence/formdraft/pkg/types"
)

var log = logging.Logger("store/file")

// FileName is the JSONL file created inside the data directory.
const FileName = "drafts.jsonl"

var _ types.Store = (*Store)(nil)

// Store implements types.Store on drafts.jsonl.
type Store struct {
	mu     sync.RWMutex
	closed bool
	path   string
	index  map[string]string
}

// Open creates dataDir if needed and loads drafts.jsonl into memory.
func Open(dataDir string) (*Store, error) {
	if dataDir == "" {
		return nil, types.ErrDataDirEmpty
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	path := filepath.Join(dataDir, FileName)
	entries, err := readJSONL(path)
	if err != nil {
		return nil, err
	}

	index := make(map[string]string, len(entries))
	for _, e := range entries {
		// Later lines win, matching append-then-compact semantics.
		index[e.Key] = e.Value
	}
	log.Debugw("opened file store", "path", path, "entries", len(index))
	return &Store{path: path, index: index}, nil
}

// Path returns the JSONL file path.
func (s *Store) Path() string {
	return s.path
}

// Get returns the value for key or ErrNotFound.
func (s *Store) Get(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", types.ErrStoreClosed
	}
	v, ok := s.index[key]
	if !ok {
		return "", types.ErrNotFound
	}
	return v, nil
}

// Set stores value under key and rewrites the file. On write failure the
// in-memory index is rolled back so reads keep matching the file.
func (s *Store) Set(key, value string) error {
	if key == "" {
		return types.ErrInvalidKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return types.ErrStoreClosed
	}
	prev, had := s.index[key]
	s.index[key] = value
	if err := s.persistLocked(); err != nil {
		if had {
			s.index[key] = prev
		} else {
			delete(s.index, key)
		}
		return err
	}
	return nil
}

// Remove deletes key and rewrites the file. Missing keys are ignored.
func (s *Store) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return types.ErrStoreClosed
	}
	prev, had := s.index[key]
	if !had {
		return nil
	}
	delete(s.index, key)
	if err := s.persistLocked(); err != nil {
		s.index[key] = prev
		return err
	}
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
	for k := range s.index {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Close marks the store closed. Every mutation is already on disk.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

// persistLocked writes the full index in key order. The caller must hold
// s.mu for writing.
func (s *Store) persistLocked() error {
	keys := make([]string, 0, len(s.index))
	for k := range s.index {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]entryJSON, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, entryJSON{Key: k, Value: s.index[k]})
	}
	return writeJSONL(s.path, entries)
}
