// Package leveldb implements a Store on a goleveldb database directory.
package leveldb

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	logging "github.com/ipfs/go-log/v2"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/mesh-intelligence/formdraft/pkg/types"
)

var log = logging.Logger("store/leveldb")

// DirName is the database directory created inside the data directory.
const DirName = "drafts.ldb"

var _ types.Store = (*Store)(nil)

// Store implements types.Store on a LevelDB database.
type Store struct {
	mu     sync.RWMutex
	closed bool
	db     *leveldb.DB
}

// Open creates dataDir if needed and opens the database inside it.
func Open(dataDir string) (*Store, error) {
	if dataDir == "" {
		return nil, types.ErrDataDirEmpty
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	path := filepath.Join(dataDir, DirName)
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	log.Debugw("opened leveldb store", "path", path)
	return &Store{db: db}, nil
}

// Get returns the value for key or ErrNotFound.
func (s *Store) Get(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", types.ErrStoreClosed
	}
	v, err := s.db.Get([]byte(key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return "", types.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// Set stores value under key.
func (s *Store) Set(key, value string) error {
	if key == "" {
		return types.ErrInvalidKey
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return types.ErrStoreClosed
	}
	return s.db.Put([]byte(key), []byte(value), nil)
}

// Remove deletes key. LevelDB ignores missing keys.
func (s *Store) Remove(key string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return types.ErrStoreClosed
	}
	return s.db.Delete([]byte(key), nil)
}

// Keys returns the keys starting with prefix in byte order.
func (s *Store) Keys(prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, types.ErrStoreClosed
	}

	var rng *util.Range
	if prefix != "" {
		rng = util.BytesPrefix([]byte(prefix))
	}
	iter := s.db.NewIterator(rng, nil)
	defer iter.Release()

	var keys []string
	for iter.Next() {
		keys = append(keys, string(iter.Key()))
	}
	return keys, iter.Error()
}

// Close releases the database. Idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
