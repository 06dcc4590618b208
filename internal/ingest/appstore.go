// ABOUTME: Apple App Store review source using the customer reviews JSON feed
// ABOUTME: Walks the most-recent feed page by page, at most ten pages
package ingest

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/harper/review-insights/internal/config"
	"github.com/harper/review-insights/internal/models"
	"github.com/tidwall/gjson"
)

const (
	appStoreURL      = "https://itunes.apple.com"
	appStoreMaxPages = 10
)

// AppStoreSource fetches reviews from the Apple App Store
type AppStoreSource struct {
	cfg    SourceConfig
	client *client
}

// NewAppStoreSource creates an App Store source
func NewAppStoreSource(cfg SourceConfig) *AppStoreSource {
	if cfg.BaseURL == "" {
		cfg.BaseURL = appStoreURL
	}
	return &AppStoreSource{cfg: cfg, client: newClient(cfg)}
}

// Name returns the store name recorded on each review
func (a *AppStoreSource) Name() models.Source {
	return models.SourceAppStore
}

// FetchReviews returns up to cfg.Limit most recent reviews for the app
func (a *AppStoreSource) FetchReviews(ctx context.Context, app config.BankApp) ([]models.RawReview, error) {
	if app.AppStoreID == "" {
		return nil, ErrNotListed
	}

	var out []models.RawReview
	for page := 1; page <= appStoreMaxPages && len(out) < a.cfg.Limit; page++ {
		endpoint := fmt.Sprintf("%s/%s/rss/customerreviews/page=%d/id=%s/sortby=mostrecent/json",
			strings.TrimRight(a.cfg.BaseURL, "/"), a.cfg.Country, page, app.AppStoreID)
		body, err := a.client.do(ctx, func() (*http.Request, error) {
			return http.NewRequest(http.MethodGet, endpoint, nil)
		})
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}

		reviews, err := parseAppStorePage(body, app.Bank)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		if len(reviews) == 0 {
			break
		}
		out = append(out, reviews...)
	}

	if len(out) > a.cfg.Limit {
		out = out[:a.cfg.Limit]
	}
	return out, nil
}

func parseAppStorePage(body []byte, bank string) ([]models.RawReview, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("malformed review feed")
	}

	var reviews []models.RawReview
	// A feed with one review carries an object instead of an array
	for _, e := range gjson.GetBytes(body, "feed.entry").Array() {
		// The app itself is listed as an entry without a rating
		ratingField := e.Get(`im:rating.label`)
		if !ratingField.Exists() {
			continue
		}
		rating, err := models.ParseRating(ratingField.String())
		if err != nil {
			rating = models.Rating{}
		}

		at := ""
		if ts, err := time.Parse(time.RFC3339, e.Get("updated.label").String()); err == nil {
			at = ts.UTC().Format("2006-01-02 15:04:05")
		}
		reviews = append(reviews, models.RawReview{
			ReviewID:      "as:" + e.Get("id.label").String(),
			BankName:      bank,
			Content:       e.Get("content.label").String(),
			Score:         rating,
			At:            at,
			Source:        models.SourceAppStore,
			ThumbsUpCount: int(e.Get(`im:voteSum.label`).Int()),
		})
	}
	return reviews, nil
}
