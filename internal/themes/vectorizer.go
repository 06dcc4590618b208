// ABOUTME: TF-IDF vectorizer producing a compressed sparse row matrix
// ABOUTME: Vocabulary of word n-grams selected by document-frequency bounds
package themes

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
)

// tokenPattern matches runs of two or more word characters
var tokenPattern = regexp.MustCompile(`[\p{L}\p{M}\p{N}_]{2,}`)

// Vocabulary maps terms to column indices, in lexicographic order
type Vocabulary struct {
	terms []string
	index map[string]int
}

func newVocabulary(terms []string) *Vocabulary {
	sort.Strings(terms)
	index := make(map[string]int, len(terms))
	for i, t := range terms {
		index[t] = i
	}
	return &Vocabulary{terms: terms, index: index}
}

// Len returns the number of terms
func (v *Vocabulary) Len() int {
	return len(v.terms)
}

// Term returns the term at column i
func (v *Vocabulary) Term(i int) string {
	return v.terms[i]
}

// Index returns the column of term, if present
func (v *Vocabulary) Index(term string) (int, bool) {
	i, ok := v.index[term]
	return i, ok
}

// Terms returns a copy of the vocabulary in column order
func (v *Vocabulary) Terms() []string {
	out := make([]string, len(v.terms))
	copy(out, v.terms)
	return out
}

// Matrix is an N × V matrix in compressed sparse row form. Row i holds
// columns Indices[Indptr[i]:Indptr[i+1]] in ascending order.
type Matrix struct {
	Rows, Cols int
	Indptr     []int
	Indices    []int
	Data       []float64
}

// Row returns the column indices and values of row i
func (m *Matrix) Row(i int) ([]int, []float64) {
	lo, hi := m.Indptr[i], m.Indptr[i+1]
	return m.Indices[lo:hi], m.Data[lo:hi]
}

// At returns the value at (i, j)
func (m *Matrix) At(i, j int) float64 {
	cols, vals := m.Row(i)
	k := sort.SearchInts(cols, j)
	if k < len(cols) && cols[k] == j {
		return vals[k]
	}
	return 0
}

// NNZ returns the number of stored entries
func (m *Matrix) NNZ() int {
	return len(m.Data)
}

// Vectorizer turns documents into TF-IDF rows
type Vectorizer struct {
	MinDF    Bound
	MaxDF    Bound
	NgramMin int
	NgramMax int
	Norm     Norm
}

// NewVectorizer builds a vectorizer from clustering options
func NewVectorizer(opts Options) *Vectorizer {
	return &Vectorizer{
		MinDF:    opts.MinDF,
		MaxDF:    opts.MaxDF,
		NgramMin: opts.NgramMin,
		NgramMax: opts.NgramMax,
		Norm:     opts.Norm,
	}
}

// Analyze lowercases text and returns its n-grams in document order
func (v *Vectorizer) Analyze(text string) []string {
	tokens := tokenPattern.FindAllString(strings.ToLower(text), -1)
	var grams []string
	for n := v.NgramMin; n <= v.NgramMax; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			if n == 1 {
				grams = append(grams, tokens[i])
				continue
			}
			grams = append(grams, strings.Join(tokens[i:i+n], " "))
		}
	}
	return grams
}

// FitTransform learns the vocabulary of docs and returns their TF-IDF matrix
func (v *Vectorizer) FitTransform(docs []string) (*Vocabulary, *Matrix, error) {
	n := len(docs)

	counts := make([]map[string]int, n)
	df := make(map[string]int)
	for i, doc := range docs {
		tf := make(map[string]int)
		for _, g := range v.Analyze(doc) {
			tf[g]++
		}
		for g := range tf {
			df[g]++
		}
		counts[i] = tf
	}

	minDocs := v.MinDF.Docs(n)
	maxDocs := v.MaxDF.Docs(n)
	if maxDocs <= minDocs {
		return nil, nil, fmt.Errorf("%w: max_df (%s) leaves no room above min_df (%s)",
			ErrEmptyVocabulary, v.MaxDF, v.MinDF)
	}

	// min_df is inclusive, max_df is exclusive
	var kept []string
	for term, d := range df {
		if float64(d) >= minDocs && float64(d) < maxDocs {
			kept = append(kept, term)
		}
	}
	if len(kept) == 0 {
		return nil, nil, fmt.Errorf("%w: no term of %d documents passed min_df %s and max_df %s",
			ErrEmptyVocabulary, n, v.MinDF, v.MaxDF)
	}
	vocab := newVocabulary(kept)

	idf := make([]float64, vocab.Len())
	for j, term := range vocab.terms {
		idf[j] = math.Log(float64(1+n)/float64(1+df[term])) + 1
	}

	m := &Matrix{Rows: n, Cols: vocab.Len(), Indptr: make([]int, 1, n+1)}
	for _, tf := range counts {
		var cols []int
		for term := range tf {
			if j, ok := vocab.index[term]; ok {
				cols = append(cols, j)
			}
		}
		sort.Ints(cols)

		start := len(m.Data)
		var sumSq float64
		for _, j := range cols {
			w := float64(tf[vocab.terms[j]]) * idf[j]
			m.Indices = append(m.Indices, j)
			m.Data = append(m.Data, w)
			sumSq += w * w
		}
		if v.Norm == NormL2 && sumSq > 0 {
			norm := math.Sqrt(sumSq)
			for k := start; k < len(m.Data); k++ {
				m.Data[k] /= norm
			}
		}
		m.Indptr = append(m.Indptr, len(m.Data))
	}

	return vocab, m, nil
}
