// ABOUTME: Review table storage on SQLite
// ABOUTME: Binds the shared SQL store to a local database file
package sqlite

import (
	"context"
	"fmt"

	"github.com/harper/review-insights/internal/storage"
	"github.com/jmoiron/sqlx"
)

// ReviewStore persists enriched reviews in a SQLite table
type ReviewStore struct {
	*storage.SQLStore
	db *DB
}

// NewReviewStore creates the review table in db if needed
func NewReviewStore(ctx context.Context, db *DB, table string) (*ReviewStore, error) {
	s, err := storage.NewSQLStore(sqlx.NewDb(db.conn, "sqlite"), storage.SQLite, table)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		return nil, err
	}
	return &ReviewStore{SQLStore: s, db: db}, nil
}

// OpenStore opens the database file at path and prepares the review table
func OpenStore(ctx context.Context, path, table string) (*ReviewStore, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	s, err := NewReviewStore(ctx, db, table)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to prepare %s: %w", path, err)
	}
	return s, nil
}

// Path returns the database file path
func (s *ReviewStore) Path() string {
	return s.db.Path()
}
