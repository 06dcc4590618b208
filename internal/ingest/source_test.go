// ABOUTME: Tests for the per-bank scraper
// ABOUTME: Uses stub sources to check skip-on-failure and all-banks-failed behavior
package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/harper/review-insights/internal/config"
	"github.com/harper/review-insights/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	name    models.Source
	reviews map[string][]models.RawReview
	fail    map[string]bool
}

func (s *stubSource) Name() models.Source { return s.name }

func (s *stubSource) FetchReviews(ctx context.Context, app config.BankApp) ([]models.RawReview, error) {
	if s.fail[app.Bank] {
		return nil, errors.New("store unavailable")
	}
	rows, ok := s.reviews[app.Bank]
	if !ok {
		return nil, ErrNotListed
	}
	return rows, nil
}

var testApps = []config.BankApp{
	{Bank: "CBE", PlayStoreID: "com.cbe"},
	{Bank: "BOA", PlayStoreID: "com.boa"},
	{Bank: "Dashen", PlayStoreID: "com.dashen"},
}

func TestScraper_SkipsFailingBank(t *testing.T) {
	src := &stubSource{
		name: models.SourceGooglePlay,
		reviews: map[string][]models.RawReview{
			"CBE":    {{ReviewID: "1", BankName: "CBE"}},
			"Dashen": {{ReviewID: "2", BankName: "Dashen"}, {ReviewID: "3", BankName: "Dashen"}},
		},
		fail: map[string]bool{"BOA": true},
	}

	rows, err := NewScraper(zerolog.Nop(), src).Scrape(context.Background(), testApps)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
	assert.Equal(t, "CBE", rows[0].BankName)
	assert.Equal(t, "Dashen", rows[2].BankName)
}

func TestScraper_CombinesSources(t *testing.T) {
	play := &stubSource{name: models.SourceGooglePlay, reviews: map[string][]models.RawReview{
		"CBE": {{ReviewID: "gp:1", BankName: "CBE"}},
	}}
	apple := &stubSource{name: models.SourceAppStore, reviews: map[string][]models.RawReview{
		"CBE": {{ReviewID: "as:1", BankName: "CBE"}},
	}}

	rows, err := NewScraper(zerolog.Nop(), play, apple).Scrape(context.Background(), testApps[:1])
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "gp:1", rows[0].ReviewID)
	assert.Equal(t, "as:1", rows[1].ReviewID)
}

func TestScraper_AllBanksFail(t *testing.T) {
	src := &stubSource{
		name: models.SourceGooglePlay,
		fail: map[string]bool{"CBE": true, "BOA": true, "Dashen": true},
	}
	_, err := NewScraper(zerolog.Nop(), src).Scrape(context.Background(), testApps)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "every bank failed")
	assert.Contains(t, err.Error(), "store unavailable")
}

func TestScraper_NoApps(t *testing.T) {
	_, err := NewScraper(zerolog.Nop()).Scrape(context.Background(), nil)
	assert.Error(t, err)
}
