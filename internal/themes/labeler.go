// ABOUTME: Derives human-readable top terms from cluster centroids
// ABOUTME: Labels are advisory and never influence theme assignment
package themes

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

// TopTerms returns, for every centroid, up to n vocabulary terms ordered by
// descending centroid weight. Equal weights keep vocabulary order.
func TopTerms(centroids *mat.Dense, vocab *Vocabulary, n int) [][]string {
	k, _ := centroids.Dims()
	if n > vocab.Len() {
		n = vocab.Len()
	}

	labels := make([][]string, k)
	for c := 0; c < k; c++ {
		weights := centroids.RawRowView(c)
		order := make([]int, len(weights))
		for j := range order {
			order[j] = j
		}
		sort.SliceStable(order, func(a, b int) bool {
			return weights[order[a]] > weights[order[b]]
		})

		terms := make([]string, n)
		for i := 0; i < n; i++ {
			terms[i] = vocab.Term(order[i])
		}
		labels[c] = terms
	}
	return labels
}
