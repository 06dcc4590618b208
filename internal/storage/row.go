// ABOUTME: Row is the table form of a review
// ABOUTME: Unknown ratings and dates are stored as NULL, scores as 4-place decimals
package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/harper/review-insights/internal/models"
	"github.com/shopspring/decimal"
)

// Columns lists the table columns in insert order
var Columns = []string{
	"id", "bank", "rating", "review_date", "source",
	"review_text", "sentiment_label", "sentiment_score", "theme_id",
}

// Row mirrors one table row
type Row struct {
	ID             string          `db:"id"`
	Bank           string          `db:"bank"`
	Rating         sql.NullInt64   `db:"rating"`
	ReviewDate     sql.NullString  `db:"review_date"`
	Source         string          `db:"source"`
	ReviewText     string          `db:"review_text"`
	SentimentLabel string          `db:"sentiment_label"`
	SentimentScore decimal.Decimal `db:"sentiment_score"`
	ThemeID        int             `db:"theme_id"`
}

// NewRow converts a review to its table form
func NewRow(r models.Review) Row {
	row := Row{
		ID:             r.ID,
		Bank:           r.Bank,
		Source:         string(r.Source),
		ReviewText:     r.Text,
		SentimentLabel: string(r.Sentiment),
		SentimentScore: models.RoundScore(r.Score),
		ThemeID:        r.ThemeID,
	}
	if r.Rating.Valid {
		row.Rating = sql.NullInt64{Int64: int64(r.Rating.Value), Valid: true}
	}
	if d := r.DateString(); d != "" {
		row.ReviewDate = sql.NullString{String: d, Valid: true}
	}
	return row
}

// Args returns the row values in Columns order
func (row Row) Args() []any {
	return []any{
		row.ID, row.Bank, row.Rating, row.ReviewDate, row.Source,
		row.ReviewText, row.SentimentLabel, row.SentimentScore, row.ThemeID,
	}
}

// Review converts the row back to a review
func (row Row) Review() (models.Review, error) {
	score, _ := row.SentimentScore.Float64()
	r := models.Review{
		ID:      row.ID,
		Bank:    row.Bank,
		Source:  models.Source(row.Source),
		Text:    row.ReviewText,
		Score:   score,
		ThemeID: row.ThemeID,
	}
	if row.Rating.Valid {
		r.Rating = models.NewRating(int(row.Rating.Int64))
	}
	if row.ReviewDate.Valid && row.ReviewDate.String != "" {
		d, err := time.Parse(models.DateLayout, row.ReviewDate.String)
		if err != nil {
			return models.Review{}, fmt.Errorf("review %s: invalid date %q", row.ID, row.ReviewDate.String)
		}
		r.Date = d
	}
	label, err := models.ParseSentiment(row.SentimentLabel)
	if err != nil {
		return models.Review{}, fmt.Errorf("review %s: %w", row.ID, err)
	}
	r.Sentiment = label
	return r, nil
}
