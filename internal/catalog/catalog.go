// Package catalog provides a SQLite-backed side ledger of indexed chunks,
// recording which chunk ids were produced from which source path and content
// hash. It exists alongside the authoritative vector/lexical stores so that
// `status` can report how many chunks have been recorded without a full
// vector-store scroll.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register "sqlite" driver
)

// Entry is one row of the catalog ledger.
type Entry struct {
	// ChunkID is the chunk's identifier in the vector and lexical stores.
	ChunkID string
	// SourcePath is the canonical absolute path of the originating document.
	SourcePath string
	// ContentHash is a hash of the chunk's text, used to detect whether a
	// previously-indexed chunk's content has changed.
	ContentHash string
	// IndexedAt is when this entry was recorded.
	IndexedAt time.Time
}

// Ledger persists and queries catalog entries. Implementations must be safe
// for concurrent use.
type Ledger interface {
	// Record inserts or replaces the ledger entry for chunkID.
	Record(ctx context.Context, e Entry) error
	// BySourcePath returns every ledger entry for sourcePath, oldest first.
	BySourcePath(ctx context.Context, sourcePath string) ([]Entry, error)
	// DeleteBySourcePath removes every ledger entry for sourcePath, returning
	// the number of rows removed.
	DeleteBySourcePath(ctx context.Context, sourcePath string) (int64, error)
	// Count returns the total number of ledger entries.
	Count(ctx context.Context) (int64, error)
	// Close releases any resources held by the ledger.
	Close() error
}

// SQLiteLedger is a Ledger backed by a local SQLite database.
type SQLiteLedger struct {
	// db is the underlying database connection pool.
	db *sql.DB
}

// DefaultDBPath returns the default catalog database path,
// ~/.mcp-hybrid-search/catalog.db, creating the directory if needed.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("catalog: could not determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".mcp-hybrid-search")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("catalog: could not create %s: %w", dir, err)
	}
	return filepath.Join(dir, "catalog.db"), nil
}

// Open opens (or creates) a SQLiteLedger at the given path and runs the
// schema migration. Use ":memory:" for an in-memory database in tests.
func Open(path string) (*SQLiteLedger, error) {
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	l := &SQLiteLedger{db: db}
	if err := l.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return l, nil
}

func (l *SQLiteLedger) migrate() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS catalog (
    chunk_id     TEXT    PRIMARY KEY,
    source_path  TEXT    NOT NULL,
    content_hash TEXT    NOT NULL,
    indexed_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_catalog_source_path
    ON catalog (source_path);
`
	if _, err := l.db.Exec(ddl); err != nil {
		return fmt.Errorf("catalog: migrate: %w", err)
	}
	return nil
}

// Record inserts the entry, or replaces it if chunk_id already exists.
func (l *SQLiteLedger) Record(ctx context.Context, e Entry) error {
	const q = `INSERT OR REPLACE INTO catalog (chunk_id, source_path, content_hash, indexed_at) VALUES (?, ?, ?, ?)`
	if _, err := l.db.ExecContext(ctx, q, e.ChunkID, e.SourcePath, e.ContentHash, e.IndexedAt.Unix()); err != nil {
		return fmt.Errorf("catalog: record: %w", err)
	}
	return nil
}

// BySourcePath returns every ledger entry for sourcePath, oldest first.
func (l *SQLiteLedger) BySourcePath(ctx context.Context, sourcePath string) ([]Entry, error) {
	const q = `
SELECT chunk_id, source_path, content_hash, indexed_at
FROM   catalog
WHERE  source_path = ?
ORDER  BY indexed_at ASC`

	rows, err := l.db.QueryContext(ctx, q, sourcePath)
	if err != nil {
		return nil, fmt.Errorf("catalog: by_source_path: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var ts int64
		if err := rows.Scan(&e.ChunkID, &e.SourcePath, &e.ContentHash, &ts); err != nil {
			return nil, fmt.Errorf("catalog: by_source_path scan: %w", err)
		}
		e.IndexedAt = time.Unix(ts, 0)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: by_source_path rows: %w", err)
	}
	return entries, nil
}

// DeleteBySourcePath removes every ledger entry for sourcePath.
func (l *SQLiteLedger) DeleteBySourcePath(ctx context.Context, sourcePath string) (int64, error) {
	res, err := l.db.ExecContext(ctx, `DELETE FROM catalog WHERE source_path = ?`, sourcePath)
	if err != nil {
		return 0, fmt.Errorf("catalog: delete_by_source_path: %w", err)
	}
	return res.RowsAffected()
}

// Count returns the total number of ledger entries.
func (l *SQLiteLedger) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM catalog`).Scan(&n); err != nil {
		return 0, fmt.Errorf("catalog: count: %w", err)
	}
	return n, nil
}

// Close releases the database connection pool.
func (l *SQLiteLedger) Close() error {
	if err := l.db.Close(); err != nil {
		return fmt.Errorf("catalog: close: %w", err)
	}
	return nil
}
