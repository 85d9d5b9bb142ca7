package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
	"unicode/utf8"

	logging "github.com/ipfs/go-log/v2"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/formdraft/pkg/types"
)

var log = logging.Logger("store/sqlite")

// DBFileName is the database file created inside the data directory.
const DBFileName = "drafts.db"

var _ types.Store = (*Backend)(nil)

// Backend implements types.Store on a single SQLite table.
type Backend struct {
	mu     sync.RWMutex
	closed bool
	path   string
	db     *sql.DB
}

// Open creates dataDir if needed, opens drafts.db inside it and applies the
// schema.
func Open(dataDir string) (*Backend, error) {
	if dataDir == "" {
		return nil, types.ErrDataDirEmpty
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, DBFileName)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dbPath, err)
	}
	// A single connection serializes writers; SQLite would otherwise
	// report SQLITE_BUSY under concurrent saves.
	db.SetMaxOpenConns(1)

	for _, stmt := range schemaDDL {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}

	log.Debugw("opened sqlite store", "path", dbPath)
	return &Backend{path: dbPath, db: db}, nil
}

// Path returns the database file path.
func (b *Backend) Path() string {
	return b.path
}

// Get returns the value stored under key or ErrNotFound.
func (b *Backend) Get(key string) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return "", types.ErrStoreClosed
	}

	var value string
	err := b.db.QueryRow("SELECT value FROM drafts WHERE draft_key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", types.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("querying draft: %w", err)
	}
	return value, nil
}

// Set upserts value under key.
func (b *Backend) Set(key, value string) error {
	if key == "" {
		return types.ErrInvalidKey
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return types.ErrStoreClosed
	}

	_, err := b.db.Exec(
		`INSERT INTO drafts (draft_key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(draft_key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("persisting draft: %w", err)
	}
	return nil
}

// Remove deletes the row for key. Missing keys are ignored.
func (b *Backend) Remove(key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return types.ErrStoreClosed
	}

	if _, err := b.db.Exec("DELETE FROM drafts WHERE draft_key = ?", key); err != nil {
		return fmt.Errorf("deleting draft: %w", err)
	}
	return nil
}

// Keys returns the sorted keys starting with prefix.
func (b *Backend) Keys(prefix string) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, types.ErrStoreClosed
	}

	rows, err := b.db.Query(
		"SELECT draft_key FROM drafts WHERE substr(draft_key, 1, ?) = ? ORDER BY draft_key",
		utf8.RuneCountInString(prefix), prefix,
	)
	if err != nil {
		return nil, fmt.Errorf("listing drafts: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scanning draft key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Close releases the database handle. Idempotent.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	if err := b.db.Close(); err != nil {
		return err
	}
	b.db = nil
	return nil
}
