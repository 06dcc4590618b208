// ABOUTME: Theme extraction over negative reviews: vectorize, cluster, label
// ABOUTME: Produces the document to theme mapping and per-cluster top terms
package themes

import (
	"fmt"
	"sort"
	"strings"

	"github.com/harper/review-insights/internal/models"
)

// Document is one clustering input
type Document struct {
	ID        string
	Text      string
	Sentiment models.Sentiment
}

// DocumentsFromReviews keeps review order
func DocumentsFromReviews(reviews []models.Review) []Document {
	docs := make([]Document, len(reviews))
	for i, r := range reviews {
		docs[i] = Document{ID: r.ID, Text: r.Text, Sentiment: r.Sentiment}
	}
	return docs
}

// Cluster describes one theme
type Cluster struct {
	ID       int
	Size     int
	TopTerms []string
}

// Name is the display name used in reports, counting from 1
func (c Cluster) Name() string {
	return fmt.Sprintf("Theme %d", c.ID+1)
}

// Result is the outcome of one extraction
type Result struct {
	Assignments    map[string]int
	Clusters       []Cluster
	VocabularySize int
	Documents      int
	Iterations     int
	Converged      bool
	Inertia        float64
}

// Extractor runs the clustering stage
type Extractor struct {
	opts Options
}

// NewExtractor validates opts and returns an extractor
func NewExtractor(opts Options) (*Extractor, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Extractor{opts: opts}, nil
}

// Options returns the extractor configuration
func (e *Extractor) Options() Options {
	return e.opts
}

// Extract clusters the NEGATIVE documents of docs. No negative documents
// yields an empty mapping and no error.
func (e *Extractor) Extract(docs []Document) (*Result, error) {
	var ids, texts []string
	seen := make(map[string]bool)
	for i, d := range docs {
		if d.Sentiment != models.Negative {
			continue
		}
		if d.ID == "" {
			return nil, fmt.Errorf("%w: negative document at position %d has no id", ErrMalformedInput, i)
		}
		if seen[d.ID] {
			return nil, fmt.Errorf("%w: duplicate document id %s", ErrMalformedInput, d.ID)
		}
		if strings.TrimSpace(d.Text) == "" {
			return nil, fmt.Errorf("%w: negative document %s has empty text", ErrMalformedInput, d.ID)
		}
		seen[d.ID] = true
		ids = append(ids, d.ID)
		texts = append(texts, d.Text)
	}

	result := &Result{Assignments: map[string]int{}, Documents: len(ids)}
	if len(ids) == 0 {
		return result, nil
	}
	if len(ids) < e.opts.Clusters {
		return nil, fmt.Errorf("%w: %d negative documents for %d clusters", ErrInsufficientData, len(ids), e.opts.Clusters)
	}

	vocab, matrix, err := NewVectorizer(e.opts).FitTransform(texts)
	if err != nil {
		return nil, err
	}

	km := &KMeans{K: e.opts.Clusters, MaxIter: e.opts.MaxIter, Seed: e.opts.Seed}
	fit, err := km.Fit(matrix)
	if err != nil {
		return nil, err
	}

	sizes := make([]int, e.opts.Clusters)
	for i, label := range fit.Labels {
		result.Assignments[ids[i]] = label
		sizes[label]++
	}
	for c, terms := range TopTerms(fit.Centroids, vocab, e.opts.TopTerms) {
		result.Clusters = append(result.Clusters, Cluster{ID: c, Size: sizes[c], TopTerms: terms})
	}

	result.VocabularySize = vocab.Len()
	result.Iterations = fit.Iterations
	result.Converged = fit.Converged
	result.Inertia = fit.Inertia
	return result, nil
}

// BankThemes counts negative reviews per theme for one bank
type BankThemes struct {
	Bank   string
	Counts []int
}

// Breakdown tabulates themed reviews by bank and theme, banks sorted by name
func Breakdown(reviews []models.Review, clusters int) []BankThemes {
	byBank := make(map[string][]int)
	for _, r := range reviews {
		if r.ThemeID < 0 || r.ThemeID >= clusters {
			continue
		}
		counts, ok := byBank[r.Bank]
		if !ok {
			counts = make([]int, clusters)
			byBank[r.Bank] = counts
		}
		counts[r.ThemeID]++
	}

	banks := make([]string, 0, len(byBank))
	for b := range byBank {
		banks = append(banks, b)
	}
	sort.Strings(banks)

	out := make([]BankThemes, len(banks))
	for i, b := range banks {
		out[i] = BankThemes{Bank: b, Counts: byBank[b]}
	}
	return out
}
