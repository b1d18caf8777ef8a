// Package sqlitestore persists boards in a single SQLite file. It is the
// durable store for single-node deployments that run without Redis.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dyluth/slate/pkg/whiteboard"
	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = "file::memory:"

const schema = `CREATE TABLE IF NOT EXISTS boards (
	id TEXT NOT NULL PRIMARY KEY,
	content TEXT NOT NULL DEFAULT '[]',
	updated_at_ms INTEGER NOT NULL
);`

// Store is a whiteboard.DocumentStore backed by SQLite.
type Store struct {
	db *sql.DB
}

var _ whiteboard.DocumentStore = (*Store)(nil)

// Open opens (creating if needed) the database at path and migrates it.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// One connection: an in-memory database exists per connection, and SQLite
	// serialises writers anyway.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an already open database. Call Migrate before use.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the boards table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate sqlite schema: %w", err)
	}
	return nil
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// ReadDocument returns a board or whiteboard.ErrNotFound.
func (s *Store) ReadDocument(ctx context.Context, documentID string) (*whiteboard.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, content, updated_at_ms
		FROM boards WHERE id = ?
	`, documentID)

	var (
		doc     whiteboard.Document
		content string
	)
	if err := row.Scan(&doc.ID, &content, &doc.UpdatedAtMs); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, whiteboard.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read board %s: %w", documentID, err)
	}

	if err := json.Unmarshal([]byte(content), &doc.Content); err != nil {
		return nil, fmt.Errorf("failed to decode board %s: %w", documentID, err)
	}
	if doc.Content == nil {
		doc.Content = whiteboard.Set{}
	}
	return &doc, nil
}

// WriteDocument inserts or replaces a board. Transient shape fields are
// stripped and a zero UpdatedAtMs is stamped with the current time.
func (s *Store) WriteDocument(ctx context.Context, doc *whiteboard.Document) error {
	if doc.ID == "" {
		return fmt.Errorf("document ID cannot be empty")
	}

	content, err := json.Marshal(whiteboard.StripTransient(doc.Content))
	if err != nil {
		return fmt.Errorf("failed to encode board %s: %w", doc.ID, err)
	}

	updatedAt := doc.UpdatedAtMs
	if updatedAt == 0 {
		updatedAt = time.Now().UnixMilli()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO boards (id, content, updated_at_ms)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content = excluded.content,
			updated_at_ms = excluded.updated_at_ms
	`, doc.ID, string(content), updatedAt)
	if err != nil {
		return fmt.Errorf("failed to write board %s: %w", doc.ID, err)
	}
	return nil
}

// DeleteDocument removes a board. Deleting a missing board is not an error.
func (s *Store) DeleteDocument(ctx context.Context, documentID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM boards WHERE id = ?`, documentID); err != nil {
		return fmt.Errorf("failed to delete board %s: %w", documentID, err)
	}
	return nil
}

// ListDocuments returns every board id, sorted.
func (s *Store) ListDocuments(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM boards ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan board id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}
	return ids, nil
}
