// ABOUTME: Sentiment classification behind a swappable Classifier capability
// ABOUTME: Ships a deterministic lexicon classifier with negation handling
package sentiment

import (
	"bufio"
	"context"
	_ "embed"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/harper/review-insights/internal/models"
)

// Classifier labels a review text as POSITIVE or NEGATIVE with a
// confidence score in [0,1]
type Classifier interface {
	Classify(ctx context.Context, text string) (models.Sentiment, float64, error)
}

//go:embed lexicon.txt
var lexiconData string

var wordPattern = regexp.MustCompile(`[\p{L}']+`)

var negators = map[string]bool{
	"not": true, "no": true, "never": true, "cannot": true, "nothing": true, "hardly": true,
	"don't": true, "dont": true, "doesn't": true, "doesnt": true, "didn't": true, "didnt": true,
	"isn't": true, "isnt": true, "can't": true, "cant": true, "won't": true, "wont": true,
	"wasn't": true, "wasnt": true,
}

// negationWindow is how many following words a negator flips
const negationWindow = 3

// LexiconClassifier scores text by summing word polarities
type LexiconClassifier struct {
	weights map[string]float64
}

// NewLexiconClassifier loads the embedded English lexicon
func NewLexiconClassifier() (*LexiconClassifier, error) {
	weights, err := parseLexicon(lexiconData)
	if err != nil {
		return nil, err
	}
	return &LexiconClassifier{weights: weights}, nil
}

func parseLexicon(data string) (map[string]float64, error) {
	weights := make(map[string]float64)
	scanner := bufio.NewScanner(strings.NewReader(data))
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 2 {
			return nil, fmt.Errorf("lexicon line %d: want word and weight", line)
		}
		w, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("lexicon line %d: %w", line, err)
		}
		weights[fields[0]] = w
	}
	return weights, scanner.Err()
}

// Polarity returns the summed word weights of text, with words following a
// negator flipped
func (c *LexiconClassifier) Polarity(text string) float64 {
	var total float64
	flip := 0
	for _, word := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		word = strings.Trim(word, "'")
		if negators[word] {
			flip = negationWindow
			if w, ok := c.weights[word]; ok {
				total += w
			}
			continue
		}
		w := c.weights[word]
		if flip > 0 {
			w = -w
			flip--
		}
		total += w
	}
	return total
}

// Classify labels text NEGATIVE when its polarity is below zero. The score is
// a confidence in [0.5, 1) that grows with the polarity magnitude.
func (c *LexiconClassifier) Classify(ctx context.Context, text string) (models.Sentiment, float64, error) {
	p := c.Polarity(text)
	score := 0.5 + 0.5*math.Tanh(math.Abs(p)/2)
	if p < 0 {
		return models.Negative, score, nil
	}
	return models.Positive, score, nil
}
