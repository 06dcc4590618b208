// ABOUTME: Review represents one app-store review as it flows through the pipeline
// ABOUTME: Carries rating, date, sentiment and theme assignment for a single record
package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the ISO calendar-date format used for review dates
const DateLayout = "2006-01-02"

// ThemeNone marks a review that has no theme (non-negative or not clustered)
const ThemeNone = -1

// Source identifies the app store a review was collected from
type Source string

const (
	SourceGooglePlay Source = "Google Play Store"
	SourceAppStore   Source = "Apple App Store"
)

// ParseSource maps a stored source name back to a Source
func ParseSource(s string) (Source, error) {
	switch Source(strings.TrimSpace(s)) {
	case SourceGooglePlay:
		return SourceGooglePlay, nil
	case SourceAppStore:
		return SourceAppStore, nil
	}
	return "", fmt.Errorf("unknown review source %q", s)
}

// Sentiment is the binary label assigned by a classifier
type Sentiment string

const (
	Unlabeled Sentiment = ""
	Positive  Sentiment = "POSITIVE"
	Negative  Sentiment = "NEGATIVE"
)

// ParseSentiment accepts POSITIVE/NEGATIVE in any case; empty means unlabeled
func ParseSentiment(s string) (Sentiment, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return Unlabeled, nil
	case string(Positive):
		return Positive, nil
	case string(Negative):
		return Negative, nil
	}
	return Unlabeled, fmt.Errorf("unknown sentiment label %q", s)
}

// Rating is a 1-5 star rating that may be unknown
type Rating struct {
	Value int
	Valid bool
}

// NewRating returns a known rating
func NewRating(v int) Rating {
	return Rating{Value: v, Valid: true}
}

// ParseRating parses "4", "4.0" or "" (unknown)
func ParseRating(s string) (Rating, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Rating{}, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Rating{}, fmt.Errorf("invalid rating %q: %w", s, err)
	}
	v := int(f)
	if float64(v) != f || v < 1 || v > 5 {
		return Rating{}, fmt.Errorf("rating %q out of range 1-5", s)
	}
	return NewRating(v), nil
}

// String returns the rating digits, or "" when unknown
func (r Rating) String() string {
	if !r.Valid {
		return ""
	}
	return strconv.Itoa(r.Value)
}

// Review is a normalized review record
type Review struct {
	ID        string    `json:"id"`
	Bank      string    `json:"bank"`
	Rating    Rating    `json:"-"`
	Date      time.Time `json:"-"`
	Source    Source    `json:"source"`
	Text      string    `json:"review"`
	Sentiment Sentiment `json:"sentiment_label"`
	Score     float64   `json:"sentiment_score"`
	ThemeID   int       `json:"theme_id"`
}

// DateString returns the review date as YYYY-MM-DD, or "" when unknown
func (r *Review) DateString() string {
	if r.Date.IsZero() {
		return ""
	}
	return r.Date.Format(DateLayout)
}

// Validate checks the fields required before a review can be persisted
func (r *Review) Validate() error {
	if r.ID == "" {
		return errors.New("review ID cannot be empty")
	}
	if r.Bank == "" {
		return errors.New("bank cannot be empty")
	}
	if strings.TrimSpace(r.Text) == "" {
		return errors.New("review text cannot be empty")
	}
	if r.Sentiment != Positive && r.Sentiment != Negative {
		return fmt.Errorf("review %s has no sentiment label", r.ID)
	}
	if r.Score < 0 || r.Score > 1 {
		return fmt.Errorf("review %s sentiment score %v outside [0,1]", r.ID, r.Score)
	}
	if r.ThemeID < ThemeNone {
		return fmt.Errorf("review %s has invalid theme id %d", r.ID, r.ThemeID)
	}
	if r.Sentiment != Negative && r.ThemeID != ThemeNone {
		return fmt.Errorf("review %s is %s but has theme id %d", r.ID, r.Sentiment, r.ThemeID)
	}
	return nil
}

// RoundScore rounds a sentiment score to the four decimals the store keeps
func RoundScore(score float64) decimal.Decimal {
	return decimal.NewFromFloat(score).Round(4)
}

// ReviewView is the JSON form of a review for CLI and tool output. Unknown
// ratings are null and unknown dates are omitted.
type ReviewView struct {
	ID        string  `json:"id"`
	Bank      string  `json:"bank"`
	Rating    *int    `json:"rating"`
	Date      string  `json:"date,omitempty"`
	Source    string  `json:"source"`
	Review    string  `json:"review"`
	Sentiment string  `json:"sentiment_label"`
	Score     float64 `json:"sentiment_score"`
	ThemeID   int     `json:"theme_id"`
}

// View returns the JSON form of r
func (r *Review) View() ReviewView {
	v := ReviewView{
		ID:        r.ID,
		Bank:      r.Bank,
		Date:      r.DateString(),
		Source:    string(r.Source),
		Review:    r.Text,
		Sentiment: string(r.Sentiment),
		Score:     r.Score,
		ThemeID:   r.ThemeID,
	}
	if r.Rating.Valid {
		rating := r.Rating.Value
		v.Rating = &rating
	}
	return v
}
