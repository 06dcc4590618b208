// ABOUTME: Writes theme ids from a clustering run back onto the full dataset
// ABOUTME: Preserves row order and count; non-negative rows get ThemeNone
package themes

import (
	"fmt"

	"github.com/harper/review-insights/internal/models"
)

// Apply returns a copy of reviews with ThemeID populated from assignments.
// NEGATIVE reviews take their cluster id and every other review gets
// models.ThemeNone. With a non-empty mapping a NEGATIVE review that is
// missing from it is an error, so a dataset is never partially themed.
func Apply(reviews []models.Review, assignments map[string]int) ([]models.Review, error) {
	out := make([]models.Review, len(reviews))
	for i, r := range reviews {
		r.ThemeID = models.ThemeNone
		if r.Sentiment == models.Negative && len(assignments) > 0 {
			id, ok := assignments[r.ID]
			if !ok {
				return nil, fmt.Errorf("%w: negative review %s has no theme assignment", ErrMalformedInput, r.ID)
			}
			r.ThemeID = id
		}
		out[i] = r
	}
	return out, nil
}
