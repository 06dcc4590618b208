// ABOUTME: Applies a classifier to every review and summarizes the labels
// ABOUTME: Breakdown mirrors the per-bank and per-rating sentiment tables
package sentiment

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/harper/review-insights/internal/models"
)

// Annotate returns a copy of reviews labeled by c. Any classifier error
// aborts the run.
func Annotate(ctx context.Context, c Classifier, reviews []models.Review) ([]models.Review, error) {
	out := make([]models.Review, len(reviews))
	for i, r := range reviews {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		label, score, err := c.Classify(ctx, r.Text)
		if err != nil {
			return nil, fmt.Errorf("classifying review %s: %w", r.ID, err)
		}
		if label != models.Positive && label != models.Negative {
			return nil, fmt.Errorf("classifier returned unknown label %q for review %s", label, r.ID)
		}
		r.Sentiment = label
		r.Score = math.Min(math.Max(score, 0), 1)
		out[i] = r
	}
	return out, nil
}

// Share is the label split within one group, as percentages rounded to 2 places
type Share struct {
	Group       string
	Total       int
	PositivePct float64
	NegativePct float64
}

// Breakdown groups labeled reviews by bank and by rating. Unknown ratings
// are grouped under "unknown".
func Breakdown(reviews []models.Review) (byBank, byRating []Share) {
	return shares(reviews, func(r models.Review) string { return r.Bank }),
		shares(reviews, func(r models.Review) string {
			if !r.Rating.Valid {
				return "unknown"
			}
			return strconv.Itoa(r.Rating.Value)
		})
}

func shares(reviews []models.Review, key func(models.Review) string) []Share {
	type tally struct{ total, pos, neg int }
	groups := make(map[string]*tally)
	for _, r := range reviews {
		k := key(r)
		t, ok := groups[k]
		if !ok {
			t = &tally{}
			groups[k] = t
		}
		t.total++
		switch r.Sentiment {
		case models.Positive:
			t.pos++
		case models.Negative:
			t.neg++
		}
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Share, len(keys))
	for i, k := range keys {
		t := groups[k]
		out[i] = Share{
			Group:       k,
			Total:       t.total,
			PositivePct: pct(t.pos, t.total),
			NegativePct: pct(t.neg, t.total),
		}
	}
	return out
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(n)/float64(total)*10000) / 100
}
