// ABOUTME: Tests for the Google Play review source
// ABOUTME: Serves canned batchexecute responses from an httptest server
package ingest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/harper/review-insights/internal/config"
	"github.com/harper/review-insights/internal/models"
	"github.com/harper/review-insights/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSourceConfig(baseURL string, limit int) SourceConfig {
	return SourceConfig{
		BaseURL: baseURL,
		Lang:    "en",
		Country: "et",
		Limit:   limit,
		Retry:   util.RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond},
	}
}

func playReview(id, content string, score int, unix int64) []any {
	return []any{id, []any{"user"}, score, nil, content, []any{unix, 0}, 4}
}

func playResponse(t *testing.T, reviews []any, token string) string {
	t.Helper()
	var tokenPart any
	if token != "" {
		tokenPart = []any{nil, token}
	}
	inner, err := json.Marshal([]any{reviews, tokenPart, nil})
	require.NoError(t, err)
	outer, err := json.Marshal([]any{[]any{"wrb.fr", "UsvDTd", string(inner), nil, nil, nil, "generic"}})
	require.NoError(t, err)
	return ")]}'\n\n" + string(outer)
}

func decodeRequest(t *testing.T, r *http.Request) (appID string, count int, token any) {
	t.Helper()
	require.NoError(t, r.ParseForm())
	var outer [][][]any
	require.NoError(t, json.Unmarshal([]byte(r.PostForm.Get("f.req")), &outer))
	require.Equal(t, "UsvDTd", outer[0][0][0])

	var inner []any
	require.NoError(t, json.Unmarshal([]byte(outer[0][0][1].(string)), &inner))
	paging := inner[2].([]any)[2].([]any)
	app := inner[3].([]any)
	return app[0].(string), int(paging[0].(float64)), paging[2]
}

func TestPlayStoreSource_Paginates(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/_/PlayStoreUi/data/batchexecute", r.URL.Path)
		assert.Equal(t, "en", r.URL.Query().Get("hl"))
		assert.Equal(t, "et", r.URL.Query().Get("gl"))

		appID, count, token := decodeRequest(t, r)
		assert.Equal(t, "com.cbe", appID)

		switch n {
		case 1:
			assert.Equal(t, 3, count)
			assert.Nil(t, token)
			w.Write([]byte(playResponse(t, []any{
				playReview("gp:1", "App keeps crashing", 1, 1714568645),
				playReview("gp:2", "Great", 5, 1714568700),
			}, "page-2")))
		default:
			assert.Equal(t, 1, count)
			assert.Equal(t, "page-2", token)
			w.Write([]byte(playResponse(t, []any{
				playReview("gp:3", "Slow transfer", 2, 1714568800),
				playReview("gp:4", "extra", 3, 1714568900),
			}, "")))
		}
	}))
	defer srv.Close()

	src := NewPlayStoreSource(testSourceConfig(srv.URL, 3))
	reviews, err := src.FetchReviews(context.Background(), config.BankApp{Bank: "CBE", PlayStoreID: "com.cbe"})
	require.NoError(t, err)
	require.Len(t, reviews, 3)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))

	first := reviews[0]
	assert.Equal(t, "gp:1", first.ReviewID)
	assert.Equal(t, "CBE", first.BankName)
	assert.Equal(t, "App keeps crashing", first.Content)
	assert.Equal(t, models.NewRating(1), first.Score)
	assert.Equal(t, "2024-05-01 13:04:05", first.At)
	assert.Equal(t, models.SourceGooglePlay, first.Source)
	assert.Equal(t, 4, first.ThumbsUpCount)
	assert.Equal(t, "gp:3", reviews[2].ReviewID)
}

func TestPlayStoreSource_StopsWithoutToken(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(playResponse(t, []any{playReview("gp:1", "ok", 4, 1714568645)}, "")))
	}))
	defer srv.Close()

	reviews, err := NewPlayStoreSource(testSourceConfig(srv.URL, 500)).
		FetchReviews(context.Background(), config.BankApp{Bank: "BOA", PlayStoreID: "com.boa"})
	require.NoError(t, err)
	assert.Len(t, reviews, 1)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestPlayStoreSource_EmptyPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`)]}'` + "\n\n" + `[["wrb.fr","UsvDTd",null,null,null,null,"generic"]]`))
	}))
	defer srv.Close()

	reviews, err := NewPlayStoreSource(testSourceConfig(srv.URL, 10)).
		FetchReviews(context.Background(), config.BankApp{Bank: "BOA", PlayStoreID: "com.boa"})
	require.NoError(t, err)
	assert.Empty(t, reviews)
}

func TestPlayStoreSource_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(playResponse(t, []any{playReview("gp:1", "ok", 4, 1714568645)}, "")))
	}))
	defer srv.Close()

	reviews, err := NewPlayStoreSource(testSourceConfig(srv.URL, 10)).
		FetchReviews(context.Background(), config.BankApp{Bank: "BOA", PlayStoreID: "com.boa"})
	require.NoError(t, err)
	assert.Len(t, reviews, 1)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestPlayStoreSource_ClientErrorIsPermanent(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewPlayStoreSource(testSourceConfig(srv.URL, 10)).
		FetchReviews(context.Background(), config.BankApp{Bank: "BOA", PlayStoreID: "com.missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestPlayStoreSource_NotListed(t *testing.T) {
	_, err := NewPlayStoreSource(testSourceConfig("http://unused", 10)).
		FetchReviews(context.Background(), config.BankApp{Bank: "BOA", AppStoreID: "123"})
	assert.ErrorIs(t, err, ErrNotListed)
}

func TestPlayRequestBody(t *testing.T) {
	body, err := playRequestBody("com.dashen", 200, "tok\"en")
	require.NoError(t, err)

	values, err := url.ParseQuery(body)
	require.NoError(t, err)
	freq := values.Get("f.req")
	assert.True(t, strings.HasPrefix(freq, `[[["UsvDTd",`))
	assert.Contains(t, freq, `[2,2,[200,null,\"tok\\\"en\"],null,[]]`)
	assert.Contains(t, freq, `[\"com.dashen\",7]`)
}

func TestParsePlayPage_Malformed(t *testing.T) {
	_, _, err := parsePlayPage([]byte(")]}'\n\n<html>"), "CBE")
	assert.Error(t, err)
}
