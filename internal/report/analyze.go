// ABOUTME: Runs the analytical queries and persists their results as JSON
// ABOUTME: The JSON file is the hand-off between the analyze and report stages
package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/harper/review-insights/internal/models"
)

// ResultsFile is the file name the analyze stage writes
const ResultsFile = "analytical_results.json"

// ErrResultsMissing means the analyze stage has not produced its output yet
var ErrResultsMissing = errors.New("analytical results not found, run the analyze stage first")

// Querier is the read side of storage.Store
type Querier interface {
	Summary(ctx context.Context) ([]models.BankSummary, error)
	NegativeThemes(ctx context.Context, minCount, limit int) ([]models.ThemeCount, error)
	RatingDistribution(ctx context.Context) ([]models.RatingCount, error)
}

// AnalyzeOptions bounds the negative theme query
type AnalyzeOptions struct {
	MinThemeCount int
	TopThemes     int
}

// DefaultAnalyzeOptions keeps themes with at least 10 reviews, top 10 overall
func DefaultAnalyzeOptions() AnalyzeOptions {
	return AnalyzeOptions{MinThemeCount: 10, TopThemes: 10}
}

// Analyze runs the three aggregate queries against q
func Analyze(ctx context.Context, q Querier, opts AnalyzeOptions) (*models.AnalyticalResults, error) {
	if opts.MinThemeCount < 1 || opts.TopThemes < 1 {
		return nil, fmt.Errorf("theme bounds must be positive, got min %d top %d", opts.MinThemeCount, opts.TopThemes)
	}

	summary, err := q.Summary(ctx)
	if err != nil {
		return nil, err
	}
	themes, err := q.NegativeThemes(ctx, opts.MinThemeCount, opts.TopThemes)
	if err != nil {
		return nil, err
	}
	ratings, err := q.RatingDistribution(ctx)
	if err != nil {
		return nil, err
	}

	// empty slices encode as [] rather than null
	res := &models.AnalyticalResults{
		OverallSummary:     append([]models.BankSummary{}, summary...),
		TopNegativeThemes:  append([]models.ThemeCount{}, themes...),
		RatingDistribution: append([]models.RatingCount{}, ratings...),
	}
	return res, nil
}

// WriteResults writes res as indented JSON, creating the parent directory
func WriteResults(path string, res *models.AnalyticalResults) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	data, err := json.MarshalIndent(res, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// ReadResults loads results written by WriteResults
func ReadResults(path string) (*models.AnalyticalResults, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrResultsMissing, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var res models.AnalyticalResults
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &res, nil
}
