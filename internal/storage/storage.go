// ABOUTME: Relational persistence capability for enriched reviews
// ABOUTME: Implemented by the sqlite and postgres backends over one fixed schema
package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/harper/review-insights/internal/models"
)

// DefaultTable is the table the pipeline loads into
const DefaultTable = "fintech_reviews"

// BatchSize is the number of rows written per INSERT statement
const BatchSize = 1000

// ErrInvalidTable is returned for table names that are not plain identifiers
var ErrInvalidTable = errors.New("invalid table name")

var tablePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Store persists reviews and answers the analytical queries
type Store interface {
	// PersistRows upserts rows by id inside one transaction
	PersistRows(ctx context.Context, rows []models.Review) error
	Summary(ctx context.Context) ([]models.BankSummary, error)
	NegativeThemes(ctx context.Context, minCount, limit int) ([]models.ThemeCount, error)
	RatingDistribution(ctx context.Context) ([]models.RatingCount, error)
	ListReviews(ctx context.Context, filter ReviewFilter) ([]models.Review, error)
	Close() error
}

// ReviewFilter narrows ListReviews. Zero values match everything.
type ReviewFilter struct {
	Bank      string
	Sentiment models.Sentiment
	ThemeID   *int
	Limit     int
}

// ValidateTable checks that name can be spliced into SQL as an identifier
func ValidateTable(name string) error {
	if !tablePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidTable, name)
	}
	return nil
}

// PrepareRows validates rows and keeps the last occurrence of each id, in
// first-seen order, so one batch never touches the same row twice
func PrepareRows(rows []models.Review) ([]Row, error) {
	index := make(map[string]int, len(rows))
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("invalid row: %w", err)
		}
		row := NewRow(r)
		if i, ok := index[r.ID]; ok {
			out[i] = row
			continue
		}
		index[r.ID] = len(out)
		out = append(out, row)
	}
	return out, nil
}

// Batches splits rows into consecutive slices of at most size rows
func Batches(rows []Row, size int) [][]Row {
	var out [][]Row
	for start := 0; start < len(rows); start += size {
		end := min(start+size, len(rows))
		out = append(out, rows[start:end])
	}
	return out
}
