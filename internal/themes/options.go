// ABOUTME: Clustering configuration: cluster count, document-frequency bounds, n-grams
// ABOUTME: Bounds are either absolute document counts or fractions of the corpus
package themes

import (
	"fmt"
	"strconv"
	"strings"
)

// Bound is a document-frequency limit, absolute or relative to the corpus size
type Bound struct {
	value    float64
	fraction bool
}

// Count is a bound of n documents
func Count(n int) Bound {
	return Bound{value: float64(n)}
}

// Fraction is a bound of f × corpus size documents
func Fraction(f float64) Bound {
	return Bound{value: f, fraction: true}
}

// ParseBound reads "5" as a count and "0.85" or "1.0" as a fraction
func ParseBound(s string) (Bound, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ".") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Bound{}, fmt.Errorf("invalid document-frequency bound %q: %w", s, err)
		}
		return Fraction(f), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return Bound{}, fmt.Errorf("invalid document-frequency bound %q: %w", s, err)
	}
	return Count(n), nil
}

// IsFraction reports whether the bound is relative to the corpus size
func (b Bound) IsFraction() bool {
	return b.fraction
}

// Docs resolves the bound against a corpus of nDocs documents
func (b Bound) Docs(nDocs int) float64 {
	if b.fraction {
		return b.value * float64(nDocs)
	}
	return b.value
}

func (b Bound) String() string {
	if b.fraction {
		return strconv.FormatFloat(b.value, 'f', -1, 64) + " of documents"
	}
	return strconv.FormatFloat(b.value, 'f', 0, 64) + " documents"
}

func (b Bound) validate(name string) error {
	if b.fraction {
		if b.value < 0 || b.value > 1 {
			return fmt.Errorf("%s fraction must be in [0, 1], got %g", name, b.value)
		}
		return nil
	}
	if b.value < 0 {
		return fmt.Errorf("%s count must not be negative, got %g", name, b.value)
	}
	return nil
}

// Norm selects row normalization of the TF-IDF matrix
type Norm int

const (
	NormL2 Norm = iota
	NormNone
)

// Options configures vectorization, clustering and labeling
type Options struct {
	Clusters int
	MinDF    Bound
	MaxDF    Bound
	NgramMin int
	NgramMax int
	TopTerms int
	Seed     uint64
	MaxIter  int
	Norm     Norm
}

// DefaultOptions mirrors the study's settings
func DefaultOptions() Options {
	return Options{
		Clusters: 7,
		MinDF:    Count(5),
		MaxDF:    Fraction(0.85),
		NgramMin: 1,
		NgramMax: 2,
		TopTerms: 6,
		Seed:     42,
		MaxIter:  100,
		Norm:     NormL2,
	}
}

// Validate checks the options without looking at any corpus
func (o Options) Validate() error {
	if o.Clusters < 1 {
		return fmt.Errorf("cluster count must be at least 1, got %d", o.Clusters)
	}
	if o.NgramMin < 1 || o.NgramMax < o.NgramMin {
		return fmt.Errorf("invalid n-gram range %d..%d", o.NgramMin, o.NgramMax)
	}
	if o.TopTerms < 1 {
		return fmt.Errorf("top term count must be at least 1, got %d", o.TopTerms)
	}
	if o.MaxIter < 1 {
		return fmt.Errorf("max iterations must be at least 1, got %d", o.MaxIter)
	}
	if err := o.MinDF.validate("min_df"); err != nil {
		return err
	}
	if err := o.MaxDF.validate("max_df"); err != nil {
		return err
	}
	if o.Norm != NormL2 && o.Norm != NormNone {
		return fmt.Errorf("unknown norm %d", o.Norm)
	}
	return nil
}
