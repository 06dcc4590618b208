// ABOUTME: Builds the pipeline's external collaborators from configuration
// ABOUTME: Store sources, the sentiment backend and the relational store
package pipeline

import (
	"context"
	"fmt"

	"github.com/harper/review-insights/internal/config"
	"github.com/harper/review-insights/internal/ingest"
	"github.com/harper/review-insights/internal/llm"
	"github.com/harper/review-insights/internal/sentiment"
	"github.com/harper/review-insights/internal/storage"
	"github.com/harper/review-insights/internal/storage/postgres"
	"github.com/harper/review-insights/internal/storage/sqlite"
)

// Deps are the collaborators a pipeline needs. Constructors are lazy so a
// run that skips a stage never needs that stage's credentials.
type Deps struct {
	Sources       []ingest.Source
	NewClassifier func() (sentiment.Classifier, error)
	OpenStore     func(ctx context.Context) (storage.Store, error)
}

// NewDeps wires the production collaborators selected by cfg
func NewDeps(cfg *config.Config) Deps {
	src := ingest.SourceConfigFrom(cfg)
	return Deps{
		Sources: []ingest.Source{
			ingest.NewPlayStoreSource(src),
			ingest.NewAppStoreSource(src),
		},
		NewClassifier: func() (sentiment.Classifier, error) {
			return NewClassifier(cfg)
		},
		OpenStore: func(ctx context.Context) (storage.Store, error) {
			return OpenStore(ctx, cfg)
		},
	}
}

// NewClassifier returns the sentiment backend named by SENTIMENT_BACKEND
func NewClassifier(cfg *config.Config) (sentiment.Classifier, error) {
	switch cfg.SentimentBackend {
	case "openai":
		client, err := llm.NewOpenAIClientWithConfig(&llm.ClientConfig{
			APIKey:     cfg.OpenAIKey,
			ChatModel:  cfg.ChatModel,
			Timeout:    cfg.Timeout,
			MaxRetries: cfg.MaxRetries,
			RetryDelay: cfg.RetryDelay,
		})
		if err != nil {
			return nil, fmt.Errorf("initializing OpenAI classifier: %w", err)
		}
		return client, nil
	case "lexicon", "":
		c, err := sentiment.NewLexiconClassifier()
		if err != nil {
			return nil, fmt.Errorf("initializing lexicon classifier: %w", err)
		}
		return c, nil
	}
	return nil, fmt.Errorf("unknown sentiment backend %q", cfg.SentimentBackend)
}

// OpenStore opens the relational store named by REVIEWS_DB_DRIVER
func OpenStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.DBDriver {
	case "postgres":
		s, err := postgres.Open(ctx, postgres.ConfigFrom(cfg))
		if err != nil {
			return nil, fmt.Errorf("initializing storage: %w", err)
		}
		return s, nil
	case "sqlite", "":
		s, err := sqlite.OpenStore(ctx, cfg.SQLitePath, cfg.Table)
		if err != nil {
			return nil, fmt.Errorf("initializing storage: %w", err)
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.DBDriver)
}
