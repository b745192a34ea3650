package devstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/nuitsjp/teams-board/internal/storage"
)

// Store is a single-file ObjectStore for local development: one SQLite table
// keyed by object path. It emulates the production blob store's contract
// (PUT and GET of whole objects) without any cloud dependency.
type Store struct {
	db *sql.DB
}

// New opens (and if needed initializes) a devstore at the given path. Use
// ":memory:" for throwaway instances in tests.
func New(dataSourceName string) (*Store, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("devstore: opening database: %w", err)
	}
	// SQLite allows one writer; a single pooled connection also keeps
	// ":memory:" instances from splitting across connections.
	db.SetMaxOpenConns(1)

	schema := `
CREATE TABLE IF NOT EXISTS objects (
    path TEXT PRIMARY KEY,
    content BLOB NOT NULL,
    content_type TEXT NOT NULL DEFAULT '',
    updated_at TIMESTAMP NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("devstore: initializing schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Write upserts one object, mirroring blob-store PUT semantics.
func (s *Store) Write(ctx context.Context, path string, content []byte, contentType string) error {
	query := `
		INSERT INTO objects (path, content, content_type, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			content = excluded.content,
			content_type = excluded.content_type,
			updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, path, content, contentType, time.Now().UTC()); err != nil {
		return fmt.Errorf("devstore: writing %s: %w", path, err)
	}
	return nil
}

// Read fetches one whole object.
func (s *Store) Read(ctx context.Context, path string) ([]byte, error) {
	var content []byte
	err := s.db.QueryRowContext(ctx, `SELECT content FROM objects WHERE path = ?`, path).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("devstore: reading %s: %w", path, err)
	}
	return content, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
