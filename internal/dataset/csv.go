// ABOUTME: CSV files exchanged between pipeline stages
// ABOUTME: Columns are matched by header name so extra or reordered columns are tolerated
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/harper/review-insights/internal/models"
)

// RawHeader is the column layout of the scraped reviews file
var RawHeader = []string{"bank_name", "content", "score", "at", "source", "review_id", "thumbsUpCount"}

// Columns selects how much of a review is written
type Columns int

const (
	// CleanColumns is the normalizer output
	CleanColumns Columns = iota
	// SentimentColumns adds the classifier label and score
	SentimentColumns
	// ThemeColumns adds the theme id
	ThemeColumns
)

// Header returns the column names for c
func (c Columns) Header() []string {
	h := []string{"id", "review", "rating", "date", "bank", "source"}
	if c >= SentimentColumns {
		h = append(h, "sentiment_label", "sentiment_score")
	}
	if c >= ThemeColumns {
		h = append(h, "theme_id")
	}
	return h
}

// ErrNotFound is returned when a stage input file does not exist
var ErrNotFound = errors.New("dataset not found")

// WriteRaw writes scraped reviews
func WriteRaw(path string, rows []models.RawReview) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			r.BankName,
			r.Content,
			r.Score.String(),
			r.At,
			string(r.Source),
			r.ReviewID,
			strconv.Itoa(r.ThumbsUpCount),
		})
	}
	return writeFile(path, RawHeader, records)
}

// ReadRaw reads scraped reviews. Unknown sources and ratings are kept as
// given so the normalizer can decide what to do with them.
func ReadRaw(path string) ([]models.RawReview, error) {
	header, records, err := readFile(path)
	if err != nil {
		return nil, err
	}
	col, err := columnIndex(header, "content", "bank_name")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	rows := make([]models.RawReview, 0, len(records))
	for _, rec := range records {
		get := fieldGetter(col, rec)
		rating, err := models.ParseRating(get("score"))
		if err != nil {
			// Ratings outside 1-5 are treated as unknown
			rating = models.Rating{}
		}
		thumbs, _ := strconv.Atoi(get("thumbsUpCount"))
		rows = append(rows, models.RawReview{
			ReviewID:      get("review_id"),
			BankName:      get("bank_name"),
			Content:       get("content"),
			Score:         rating,
			At:            get("at"),
			Source:        models.Source(get("source")),
			ThumbsUpCount: thumbs,
		})
	}
	return rows, nil
}

// WriteReviews writes normalized reviews with the given column set
func WriteReviews(path string, reviews []models.Review, cols Columns) error {
	header := cols.Header()
	records := make([][]string, 0, len(reviews))
	for _, r := range reviews {
		rec := []string{r.ID, r.Text, r.Rating.String(), r.DateString(), r.Bank, string(r.Source)}
		if cols >= SentimentColumns {
			rec = append(rec, string(r.Sentiment), strconv.FormatFloat(r.Score, 'f', -1, 64))
		}
		if cols >= ThemeColumns {
			rec = append(rec, strconv.Itoa(r.ThemeID))
		}
		records = append(records, rec)
	}
	return writeFile(path, header, records)
}

// ReadReviews reads a file written by WriteReviews at any column level.
// Missing sentiment columns leave reviews unlabeled and a missing theme
// column leaves models.ThemeNone.
func ReadReviews(path string) ([]models.Review, error) {
	header, records, err := readFile(path)
	if err != nil {
		return nil, err
	}
	col, err := columnIndex(header, "id", "review", "bank")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	reviews := make([]models.Review, 0, len(records))
	for i, rec := range records {
		line := i + 2
		get := fieldGetter(col, rec)

		r := models.Review{
			ID:      get("id"),
			Bank:    get("bank"),
			Text:    get("review"),
			Source:  models.Source(get("source")),
			ThemeID: models.ThemeNone,
		}
		if r.Rating, err = models.ParseRating(get("rating")); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}
		if d := get("date"); d != "" {
			if r.Date, err = time.Parse(models.DateLayout, d); err != nil {
				return nil, fmt.Errorf("%s line %d: invalid date %q", path, line, d)
			}
		}
		if r.Sentiment, err = models.ParseSentiment(get("sentiment_label")); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}
		if s := get("sentiment_score"); s != "" {
			if r.Score, err = strconv.ParseFloat(s, 64); err != nil {
				return nil, fmt.Errorf("%s line %d: invalid sentiment score %q", path, line, s)
			}
		}
		if s := get("theme_id"); s != "" {
			if r.ThemeID, err = strconv.Atoi(s); err != nil {
				return nil, fmt.Errorf("%s line %d: invalid theme id %q", path, line, s)
			}
		}
		reviews = append(reviews, r)
	}
	return reviews, nil
}

func writeFile(path string, header []string, records [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := w.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

func readFile(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("%s: missing header", path)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return header, records, nil
}

func columnIndex(header []string, required ...string) (map[string]int, error) {
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, name := range required {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}
	return col, nil
}

func fieldGetter(col map[string]int, rec []string) func(string) string {
	return func(name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}
}
