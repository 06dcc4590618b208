// ABOUTME: Review ingestion from app stores
// ABOUTME: Defines the Source capability and the per-bank Scraper that drives it
package ingest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/harper/review-insights/internal/config"
	"github.com/harper/review-insights/internal/models"
	"github.com/harper/review-insights/internal/util"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// ErrNotListed means the bank has no listing in a source's store
var ErrNotListed = errors.New("app not listed in store")

// Source fetches reviews of one bank's app from one store
type Source interface {
	Name() models.Source
	FetchReviews(ctx context.Context, app config.BankApp) ([]models.RawReview, error)
}

// SourceConfig holds settings shared by the store sources
type SourceConfig struct {
	BaseURL    string
	Lang       string
	Country    string
	Limit      int
	RPS        float64
	Retry      util.RetryConfig
	HTTPClient *http.Client
}

// DefaultSourceConfig returns settings for the Ethiopian English store
func DefaultSourceConfig() SourceConfig {
	return SourceConfig{
		Lang:    "en",
		Country: "et",
		Limit:   500,
		RPS:     2,
		Retry:   util.DefaultRetryConfig(),
	}
}

// SourceConfigFrom builds source settings from the pipeline configuration
func SourceConfigFrom(cfg *config.Config) SourceConfig {
	sc := DefaultSourceConfig()
	sc.Lang = cfg.Lang
	sc.Country = cfg.Country
	sc.Limit = cfg.ReviewsPerBank
	sc.RPS = cfg.ScrapeRPS
	sc.Retry.MaxRetries = cfg.MaxRetries
	sc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return sc
}

// client is the HTTP plumbing shared by sources: rate limit, retry, status checks
type client struct {
	http    *http.Client
	limiter *rate.Limiter
	retry   util.RetryConfig
}

func newClient(cfg SourceConfig) *client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}
	return &client{http: hc, limiter: rate.NewLimiter(limit, 1), retry: cfg.Retry}
}

// do sends the request built by newReq and returns the response body
func (c *client) do(ctx context.Context, newReq func() (*http.Request, error)) ([]byte, error) {
	return util.RetryValue(ctx, c.retry, func() ([]byte, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, util.Permanent(err)
		}
		req, err := newReq()
		if err != nil {
			return nil, util.Permanent(err)
		}
		resp, err := c.http.Do(req.WithContext(ctx))
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if err := util.CheckStatus(resp); err != nil {
			return nil, err
		}
		return readAll(resp)
	})
}

// Scraper collects reviews for every configured bank, one bank at a time
type Scraper struct {
	sources []Source
	log     zerolog.Logger
}

// NewScraper creates a scraper over the given sources
func NewScraper(log zerolog.Logger, sources ...Source) *Scraper {
	return &Scraper{sources: sources, log: log}
}

// Scrape fetches every bank from every source that lists it. A bank whose
// sources all fail is logged and skipped; the run fails only when no bank
// succeeds.
func (s *Scraper) Scrape(ctx context.Context, apps []config.BankApp) ([]models.RawReview, error) {
	if len(apps) == 0 {
		return nil, errors.New("no bank apps configured")
	}

	var all []models.RawReview
	var errs []error
	succeeded := 0

	for _, app := range apps {
		s.log.Info().Str("bank", app.Bank).Msg("Starting scrape")

		bankOK := false
		var bankErrs []error
		for _, src := range s.sources {
			reviews, err := src.FetchReviews(ctx, app)
			if errors.Is(err, ErrNotListed) {
				continue
			}
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				s.log.Error().Err(err).Str("bank", app.Bank).Str("source", string(src.Name())).Msg("Scrape failed")
				bankErrs = append(bankErrs, fmt.Errorf("%s from %s: %w", app.Bank, src.Name(), err))
				continue
			}
			bankOK = true
			all = append(all, reviews...)
			s.log.Info().Str("bank", app.Bank).Str("source", string(src.Name())).Int("reviews", len(reviews)).Msg("Scraped reviews")
		}

		if bankOK {
			succeeded++
		} else {
			if len(bankErrs) == 0 {
				bankErrs = append(bankErrs, fmt.Errorf("%s: no source lists this bank", app.Bank))
			}
			errs = append(errs, bankErrs...)
		}
	}

	if succeeded == 0 {
		return nil, fmt.Errorf("every bank failed to scrape: %w", errors.Join(errs...))
	}
	s.log.Info().Int("reviews", len(all)).Int("banks", succeeded).Msg("Scrape complete")
	return all, nil
}
