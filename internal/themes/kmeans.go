// ABOUTME: Seeded k-means clustering over sparse TF-IDF rows
// ABOUTME: Greedy k-means++ initialization followed by Lloyd iterations
package themes

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// KMeans partitions matrix rows into K clusters
type KMeans struct {
	K       int
	MaxIter int
	Seed    uint64
}

// Clustering is the outcome of a fit
type Clustering struct {
	Labels     []int
	Centroids  *mat.Dense
	Iterations int
	Inertia    float64
	Converged  bool
}

// Fit clusters the rows of x. The same seed, K and matrix always produce
// the same labels.
func (km *KMeans) Fit(x *Matrix) (*Clustering, error) {
	if km.K < 1 {
		return nil, fmt.Errorf("cluster count must be at least 1, got %d", km.K)
	}
	if km.MaxIter < 1 {
		return nil, fmt.Errorf("max iterations must be at least 1, got %d", km.MaxIter)
	}
	if x.Rows < km.K {
		return nil, fmt.Errorf("%w: %d documents for %d clusters", ErrInsufficientData, x.Rows, km.K)
	}

	rowNorms := make([]float64, x.Rows)
	for i := range rowNorms {
		_, vals := x.Row(i)
		rowNorms[i] = floats.Dot(vals, vals)
	}

	rng := rand.New(rand.NewPCG(km.Seed, km.Seed))
	centroids := km.initCentroids(x, rowNorms, rng)

	labels := make([]int, x.Rows)
	for i := range labels {
		labels[i] = -1
	}
	dists := make([]float64, x.Rows)
	assign(x, rowNorms, centroids, labels, dists)

	result := &Clustering{Labels: labels, Centroids: centroids}
	for result.Iterations < km.MaxIter {
		result.Iterations++
		updateCentroids(x, centroids, labels, dists)
		if !assign(x, rowNorms, centroids, labels, dists) {
			result.Converged = true
			break
		}
	}
	result.Inertia = floats.Sum(dists)
	return result, nil
}

// initCentroids picks K rows with greedy k-means++: each new centroid is the
// best of several candidates sampled proportionally to squared distance.
func (km *KMeans) initCentroids(x *Matrix, rowNorms []float64, rng *rand.Rand) *mat.Dense {
	n := x.Rows
	centroids := mat.NewDense(km.K, x.Cols, nil)
	chosen := make([]bool, n)
	scratch := make([]float64, x.Cols)

	first := rng.IntN(n)
	chosen[first] = true
	setDenseRow(centroids, 0, x, first)
	closest := distancesTo(x, rowNorms, first, scratch)

	trials := 2 + int(math.Log(float64(km.K)))
	cumulative := make([]float64, n)

	for c := 1; c < km.K; c++ {
		// chosen rows carry no weight, even if rounding left a residue
		for i := range closest {
			if chosen[i] {
				closest[i] = 0
			}
		}
		floats.CumSum(cumulative, closest)
		potential := cumulative[n-1]

		if potential <= 0 {
			// Every remaining row coincides with a centroid
			next := 0
			for chosen[next] {
				next++
			}
			chosen[next] = true
			setDenseRow(centroids, c, x, next)
			continue
		}

		bestPot := math.Inf(1)
		bestID := -1
		var bestDists []float64
		for t := 0; t < trials; t++ {
			// target in (0, potential] lands on a row with positive weight
			target := (1 - rng.Float64()) * potential
			id := sort.SearchFloat64s(cumulative, target)
			cand := distancesTo(x, rowNorms, id, scratch)
			for i := range cand {
				cand[i] = math.Min(cand[i], closest[i])
			}
			if pot := floats.Sum(cand); pot < bestPot {
				bestPot, bestID, bestDists = pot, id, cand
			}
		}

		chosen[bestID] = true
		setDenseRow(centroids, c, x, bestID)
		closest = bestDists
	}
	return centroids
}

// assign moves every row to its nearest centroid, lowest index on ties.
// It reports whether any label changed.
func assign(x *Matrix, rowNorms []float64, centroids *mat.Dense, labels []int, dists []float64) bool {
	k, _ := centroids.Dims()
	centroidNorms := make([]float64, k)
	for c := 0; c < k; c++ {
		row := centroids.RawRowView(c)
		centroidNorms[c] = floats.Dot(row, row)
	}

	changed := false
	for i := 0; i < x.Rows; i++ {
		cols, vals := x.Row(i)
		best, bestDist := -1, math.Inf(1)
		for c := 0; c < k; c++ {
			row := centroids.RawRowView(c)
			var dot float64
			for p, j := range cols {
				dot += vals[p] * row[j]
			}
			d := math.Max(rowNorms[i]+centroidNorms[c]-2*dot, 0)
			if d < bestDist {
				best, bestDist = c, d
			}
		}
		if labels[i] != best {
			labels[i] = best
			changed = true
		}
		dists[i] = bestDist
	}
	return changed
}

// updateCentroids recomputes each centroid as the mean of its rows. An empty
// cluster takes the row farthest from its centroid among clusters with more
// than one member.
func updateCentroids(x *Matrix, centroids *mat.Dense, labels []int, dists []float64) {
	k, _ := centroids.Dims()
	centroids.Zero()
	counts := make([]int, k)
	for i, c := range labels {
		addRow(centroids.RawRowView(c), x, i, 1)
		counts[c]++
	}

	for c := 0; c < k; c++ {
		if counts[c] > 0 {
			continue
		}
		far := -1
		for i, owner := range labels {
			if counts[owner] > 1 && (far < 0 || dists[i] > dists[far]) {
				far = i
			}
		}
		if far < 0 {
			continue
		}
		from := labels[far]
		addRow(centroids.RawRowView(from), x, far, -1)
		counts[from]--
		addRow(centroids.RawRowView(c), x, far, 1)
		counts[c] = 1
		labels[far] = c
		dists[far] = 0
	}

	for c := 0; c < k; c++ {
		if counts[c] > 0 {
			floats.Scale(1/float64(counts[c]), centroids.RawRowView(c))
		}
	}
}

// distancesTo returns squared distances from row id to every row
func distancesTo(x *Matrix, rowNorms []float64, id int, scratch []float64) []float64 {
	for j := range scratch {
		scratch[j] = 0
	}
	addRow(scratch, x, id, 1)

	out := make([]float64, x.Rows)
	for i := range out {
		cols, vals := x.Row(i)
		var dot float64
		for p, j := range cols {
			dot += vals[p] * scratch[j]
		}
		out[i] = math.Max(rowNorms[i]+rowNorms[id]-2*dot, 0)
	}
	return out
}

func setDenseRow(dst *mat.Dense, r int, x *Matrix, i int) {
	row := dst.RawRowView(r)
	for j := range row {
		row[j] = 0
	}
	addRow(row, x, i, 1)
}

// addRow adds sign × row i of x into dense
func addRow(dense []float64, x *Matrix, i int, sign float64) {
	cols, vals := x.Row(i)
	for p, j := range cols {
		dense[j] += sign * vals[p]
	}
}
