// ABOUTME: Google Play review source using the Play Store batchexecute endpoint
// ABOUTME: Pages newest-first reviews with continuation tokens, parsed with gjson
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/harper/review-insights/internal/config"
	"github.com/harper/review-insights/internal/models"
	"github.com/tidwall/gjson"
)

const (
	playStoreURL = "https://play.google.com"
	playPageSize = 200
	sortNewest   = 2
)

// PlayStoreSource fetches reviews from Google Play
type PlayStoreSource struct {
	cfg    SourceConfig
	client *client
}

// NewPlayStoreSource creates a Google Play source
func NewPlayStoreSource(cfg SourceConfig) *PlayStoreSource {
	if cfg.BaseURL == "" {
		cfg.BaseURL = playStoreURL
	}
	return &PlayStoreSource{cfg: cfg, client: newClient(cfg)}
}

// Name returns the store name recorded on each review
func (p *PlayStoreSource) Name() models.Source {
	return models.SourceGooglePlay
}

// FetchReviews returns up to cfg.Limit newest reviews for the app
func (p *PlayStoreSource) FetchReviews(ctx context.Context, app config.BankApp) ([]models.RawReview, error) {
	if app.PlayStoreID == "" {
		return nil, ErrNotListed
	}

	var out []models.RawReview
	token := ""
	for len(out) < p.cfg.Limit {
		count := min(playPageSize, p.cfg.Limit-len(out))
		body, err := p.fetchPage(ctx, app.PlayStoreID, count, token)
		if err != nil {
			return nil, err
		}
		page, next, err := parsePlayPage(body, app.Bank)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if next == "" || len(page) == 0 {
			break
		}
		token = next
	}

	if len(out) > p.cfg.Limit {
		out = out[:p.cfg.Limit]
	}
	return out, nil
}

func (p *PlayStoreSource) fetchPage(ctx context.Context, appID string, count int, token string) ([]byte, error) {
	form, err := playRequestBody(appID, count, token)
	if err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("%s/_/PlayStoreUi/data/batchexecute?hl=%s&gl=%s",
		strings.TrimRight(p.cfg.BaseURL, "/"), url.QueryEscape(p.cfg.Lang), url.QueryEscape(p.cfg.Country))

	return p.client.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, endpoint, strings.NewReader(form))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=UTF-8")
		return req, nil
	})
}

// playRequestBody encodes the UsvDTd review rpc as a form body
func playRequestBody(appID string, count int, token string) (string, error) {
	tokenJSON := "null"
	if token != "" {
		b, err := json.Marshal(token)
		if err != nil {
			return "", err
		}
		tokenJSON = string(b)
	}
	idJSON, err := json.Marshal(appID)
	if err != nil {
		return "", err
	}
	inner := fmt.Sprintf("[null,null,[2,%d,[%d,null,%s],null,[]],[%s,7]]", sortNewest, count, tokenJSON, idJSON)

	outer, err := json.Marshal([]any{[]any{[]any{"UsvDTd", inner, nil, "generic"}}})
	if err != nil {
		return "", err
	}
	return url.Values{"f.req": {string(outer)}}.Encode(), nil
}

// parsePlayPage extracts reviews and the next-page token from a
// batchexecute response
func parsePlayPage(body []byte, bank string) ([]models.RawReview, string, error) {
	body = bytes.TrimPrefix(bytes.TrimSpace(body), []byte(")]}'"))
	if !gjson.ValidBytes(body) {
		return nil, "", fmt.Errorf("malformed batchexecute response")
	}

	inner := gjson.GetBytes(body, "0.2")
	if !inner.Exists() || inner.Type != gjson.String {
		// No payload means the app has no (more) reviews
		return nil, "", nil
	}
	data := gjson.Parse(inner.String())

	var reviews []models.RawReview
	for _, r := range data.Get("0").Array() {
		id := r.Get("0").String()
		if id == "" {
			continue
		}
		rating := models.Rating{}
		if s := r.Get("2"); s.Exists() && s.Int() >= 1 && s.Int() <= 5 {
			rating = models.NewRating(int(s.Int()))
		}
		at := ""
		if sec := r.Get("5.0"); sec.Exists() {
			at = time.Unix(sec.Int(), 0).UTC().Format("2006-01-02 15:04:05")
		}
		reviews = append(reviews, models.RawReview{
			ReviewID:      id,
			BankName:      bank,
			Content:       r.Get("4").String(),
			Score:         rating,
			At:            at,
			Source:        models.SourceGooglePlay,
			ThumbsUpCount: int(r.Get("6").Int()),
		})
	}

	next := ""
	if parts := data.Array(); len(parts) >= 2 {
		tok := parts[len(parts)-2].Array()
		if len(tok) > 0 && tok[len(tok)-1].Type == gjson.String {
			next = tok[len(tok)-1].String()
		}
	}
	return reviews, next, nil
}

func readAll(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}
