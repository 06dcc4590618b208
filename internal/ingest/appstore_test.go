// ABOUTME: Tests for the Apple App Store review source
// ABOUTME: Serves canned customer review feed pages from an httptest server
package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/harper/review-insights/internal/config"
	"github.com/harper/review-insights/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const appStorePage1 = `{"feed":{"entry":[
 {"im:name":{"label":"Dashen SuperApp"},"id":{"label":"1497"}},
 {"id":{"label":"9001"},"content":{"label":"Transfers fail"},"im:rating":{"label":"1"},
  "im:voteSum":{"label":"2"},"updated":{"label":"2024-05-01T06:04:05-07:00"}},
 {"id":{"label":"9002"},"content":{"label":"Love it"},"im:rating":{"label":"5"},
  "updated":{"label":"2024-05-02T10:00:00Z"}}
]}}`

const appStorePage2 = `{"feed":{"entry":
 {"id":{"label":"9003"},"content":{"label":"Okay"},"im:rating":{"label":"3"},"updated":{"label":"bad"}}
}}`

func TestAppStoreSource_FetchReviews(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		switch r.URL.Path {
		case "/et/rss/customerreviews/page=1/id=1497/sortby=mostrecent/json":
			w.Write([]byte(appStorePage1))
		case "/et/rss/customerreviews/page=2/id=1497/sortby=mostrecent/json":
			w.Write([]byte(appStorePage2))
		default:
			w.Write([]byte(`{"feed":{}}`))
		}
	}))
	defer srv.Close()

	src := NewAppStoreSource(testSourceConfig(srv.URL, 100))
	reviews, err := src.FetchReviews(context.Background(), config.BankApp{Bank: "Dashen", AppStoreID: "1497"})
	require.NoError(t, err)
	require.Len(t, reviews, 3)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))

	assert.Equal(t, models.RawReview{
		ReviewID:      "as:9001",
		BankName:      "Dashen",
		Content:       "Transfers fail",
		Score:         models.NewRating(1),
		At:            "2024-05-01 13:04:05",
		Source:        models.SourceAppStore,
		ThumbsUpCount: 2,
	}, reviews[0])
	assert.Equal(t, "as:9003", reviews[2].ReviewID)
	assert.Equal(t, "", reviews[2].At)
}

func TestAppStoreSource_RespectsLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(appStorePage1))
	}))
	defer srv.Close()

	reviews, err := NewAppStoreSource(testSourceConfig(srv.URL, 1)).
		FetchReviews(context.Background(), config.BankApp{Bank: "Dashen", AppStoreID: "1497"})
	require.NoError(t, err)
	assert.Len(t, reviews, 1)
}

func TestAppStoreSource_NotListed(t *testing.T) {
	_, err := NewAppStoreSource(testSourceConfig("http://unused", 10)).
		FetchReviews(context.Background(), config.BankApp{Bank: "CBE", PlayStoreID: "com.cbe"})
	assert.ErrorIs(t, err, ErrNotListed)
}
