// Package sqlite implements the SQLite storage backend for drafts.
package sqlite

// Schema DDL. The drafts table is the durable source of truth, so the
// statements are idempotent and run on every open.
const (
	createDrafts = `CREATE TABLE IF NOT EXISTS drafts (
    draft_key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`

	idxDraftsUpdated = `CREATE INDEX IF NOT EXISTS idx_drafts_updated ON drafts(updated_at);`
)

// schemaDDL lists all schema statements in execution order.
var schemaDDL = []string{
	createDrafts,
	idxDraftsUpdated,
}
