// ABOUTME: SQLStore implements Store on any sqlx connection
// ABOUTME: Backends supply the connection and dialect, this file owns the queries
package storage

import (
	"context"
	"fmt"

	"github.com/harper/review-insights/internal/models"
	"github.com/jmoiron/sqlx"
)

// SQLStore persists reviews into one table of a SQL database
type SQLStore struct {
	db      *sqlx.DB
	dialect Dialect
	table   string
}

// NewSQLStore wraps db. The table name is validated but not created; call Migrate.
func NewSQLStore(db *sqlx.DB, dialect Dialect, table string) (*SQLStore, error) {
	if err := ValidateTable(table); err != nil {
		return nil, err
	}
	return &SQLStore{db: db, dialect: dialect, table: table}, nil
}

// Table returns the table this store writes to
func (s *SQLStore) Table() string {
	return s.table
}

// DB returns the underlying connection
func (s *SQLStore) DB() *sqlx.DB {
	return s.db
}

// Migrate creates the review table and indexes if they do not exist
func (s *SQLStore) Migrate(ctx context.Context) error {
	for _, stmt := range s.dialect.SchemaStatements(s.table) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// PersistRows upserts rows in batches of BatchSize inside one transaction
func (s *SQLStore) PersistRows(ctx context.Context, reviews []models.Review) error {
	rows, err := PrepareRows(reviews)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, batch := range Batches(rows, BatchSize) {
		args := make([]any, 0, len(batch)*len(Columns))
		for _, row := range batch {
			args = append(args, row.Args()...)
		}
		query := s.dialect.Rebind(upsertQuery(s.table, len(batch)))
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to upsert %d rows: %w", len(batch), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rows: %w", err)
	}
	return nil
}

// Summary returns per-bank volume, average rating and sentiment counts
func (s *SQLStore) Summary(ctx context.Context) ([]models.BankSummary, error) {
	var out []models.BankSummary
	if err := s.db.SelectContext(ctx, &out, summaryQuery(s.table)); err != nil {
		return nil, fmt.Errorf("failed to query summary: %w", err)
	}
	return out, nil
}

// NegativeThemes returns the largest (bank, theme) groups of negative reviews
// having at least minCount members, at most limit of them
func (s *SQLStore) NegativeThemes(ctx context.Context, minCount, limit int) ([]models.ThemeCount, error) {
	var out []models.ThemeCount
	query := s.dialect.Rebind(negativeThemesQuery(s.table))
	if err := s.db.SelectContext(ctx, &out, query, minCount, limit); err != nil {
		return nil, fmt.Errorf("failed to query negative themes: %w", err)
	}
	return out, nil
}

// RatingDistribution counts reviews per bank and known star rating
func (s *SQLStore) RatingDistribution(ctx context.Context) ([]models.RatingCount, error) {
	var out []models.RatingCount
	if err := s.db.SelectContext(ctx, &out, ratingDistributionQuery(s.table)); err != nil {
		return nil, fmt.Errorf("failed to query rating distribution: %w", err)
	}
	return out, nil
}

// ListReviews returns stored reviews matching filter, ordered by bank then id
func (s *SQLStore) ListReviews(ctx context.Context, filter ReviewFilter) ([]models.Review, error) {
	query, args := s.dialect.listQuery(s.table, filter)
	var rows []Row
	if err := s.db.SelectContext(ctx, &rows, s.dialect.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	out := make([]models.Review, 0, len(rows))
	for _, row := range rows {
		r, err := row.Review()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Close closes the connection
func (s *SQLStore) Close() error {
	return s.db.Close()
}
