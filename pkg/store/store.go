// Package store provides the public factory for draft storage backends.
// It exposes Open for every supported backend while keeping the
// implementations internal.
package store

import (
	"fmt"

	"github.com/mesh-intelligence/formdraft/internal/boltstore"
	"github.com/mesh-intelligence/formdraft/internal/filestore"
	"github.com/mesh-intelligence/formdraft/internal/leveldb"
	"github.com/mesh-intelligence/formdraft/internal/memstore"
	"github.com/mesh-intelligence/formdraft/internal/sqlite"
	"github.com/mesh-intelligence/formdraft/pkg/types"
)

// Open validates cfg and opens the selected backend. The caller must Close
// the returned store.
//
// Example:
//
//	s, err := store.Open(types.StoreConfig{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".formdraft-db",
//	})
//	defer s.Close()
func Open(cfg types.StoreConfig) (types.Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case types.BackendMemory:
		return memstore.New(), nil
	case types.BackendSQLite:
		return opened(sqlite.Open(cfg.DataDir))
	case types.BackendFile:
		return opened(filestore.Open(cfg.DataDir))
	case types.BackendBolt:
		return opened(boltstore.Open(cfg.DataDir))
	case types.BackendLevelDB:
		return opened(leveldb.Open(cfg.DataDir))
	default:
		return nil, fmt.Errorf("%w: %s", types.ErrBackendUnknown, cfg.Backend)
	}
}

// opened converts a concrete backend result to the interface without
// turning a nil pointer into a non-nil Store.
func opened[S types.Store](s S, err error) (types.Store, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}
