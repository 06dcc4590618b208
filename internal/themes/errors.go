// ABOUTME: Error taxonomy for the thematic clustering stage
// ABOUTME: All three are data or configuration problems and are never retried
package themes

import "errors"

var (
	// ErrEmptyVocabulary means no term passed the document-frequency bounds
	ErrEmptyVocabulary = errors.New("empty vocabulary")

	// ErrInsufficientData means fewer documents than requested clusters
	ErrInsufficientData = errors.New("insufficient data")

	// ErrMalformedInput means a document expected to be clustered is unusable
	ErrMalformedInput = errors.New("malformed input")
)
