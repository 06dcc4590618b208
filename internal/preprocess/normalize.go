// ABOUTME: Normalizer turning scraped rows into clean review records
// ABOUTME: Deduplicates, drops blank reviews, normalizes dates and reports data quality
package preprocess

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harper/review-insights/internal/models"
)

// MissingDataThreshold is the missing-cell percentage at which a warning is due
const MissingDataThreshold = 5.0

// dateLayouts are tried in order; the first that parses wins
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	models.DateLayout,
	"02/01/2006",
}

// Stats summarizes one normalization run
type Stats struct {
	Input          int
	Duplicates     int
	MissingText    int
	MissingPercent float64
	BadDates       int
	Output         int
}

// KPIMet reports whether missing data stays under the threshold
func (s Stats) KPIMet() bool {
	return s.MissingPercent < MissingDataThreshold
}

type dedupeKey struct {
	text   string
	rating models.Rating
	bank   string
}

// Normalize converts raw rows to reviews. Duplicates on (text, rating, bank)
// keep their first occurrence and rows without review text are dropped.
func Normalize(rows []models.RawReview) ([]models.Review, Stats) {
	stats := Stats{Input: len(rows)}
	seen := make(map[dedupeKey]bool, len(rows))
	reviews := make([]models.Review, 0, len(rows))

	var deduped []models.RawReview
	for _, row := range rows {
		key := dedupeKey{text: row.Content, rating: row.Score, bank: row.BankName}
		if seen[key] {
			stats.Duplicates++
			continue
		}
		seen[key] = true
		deduped = append(deduped, row)
	}

	var cells, missing int
	for _, row := range deduped {
		if strings.TrimSpace(row.Content) == "" {
			stats.MissingText++
			continue
		}

		// review, rating, date, bank, source
		cells += 5
		if !row.Score.Valid {
			missing++
		}
		if strings.TrimSpace(row.At) == "" {
			missing++
		}
		if strings.TrimSpace(row.BankName) == "" {
			missing++
		}
		if row.Source == "" {
			missing++
		}

		date, ok := ParseDate(row.At)
		if !ok && strings.TrimSpace(row.At) != "" {
			stats.BadDates++
		}

		id := strings.TrimSpace(row.ReviewID)
		if id == "" {
			id = uuid.New().String()
		}
		reviews = append(reviews, models.Review{
			ID:      id,
			Bank:    strings.TrimSpace(row.BankName),
			Rating:  row.Score,
			Date:    date,
			Source:  row.Source,
			Text:    strings.TrimSpace(row.Content),
			ThemeID: models.ThemeNone,
		})
	}

	if cells > 0 {
		stats.MissingPercent = float64(missing) / float64(cells) * 100
	}
	stats.Output = len(reviews)
	return reviews, stats
}

// ParseDate reads a store timestamp and truncates it to the calendar date
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}
