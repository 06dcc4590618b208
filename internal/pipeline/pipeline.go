// ABOUTME: Runs the review pipeline stages against files in the data directory
// ABOUTME: Each stage reads its predecessor's complete output and logs a summary
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/harper/review-insights/internal/config"
	"github.com/harper/review-insights/internal/dataset"
	"github.com/harper/review-insights/internal/ingest"
	"github.com/harper/review-insights/internal/preprocess"
	"github.com/harper/review-insights/internal/report"
	"github.com/harper/review-insights/internal/sentiment"
	"github.com/harper/review-insights/internal/storage"
	"github.com/harper/review-insights/internal/themes"
	"github.com/rs/zerolog"
)

// Files exchanged between stages, relative to the data directory
const (
	RawFile       = "raw_bank_reviews.csv"
	CleanFile     = "clean_bank_reviews.csv"
	SentimentFile = "sentiment_analysis_results.csv"
	ThemesFile    = "thematic_analysis_results.csv"
	LabelsFile    = "theme_labels.yaml"
)

// Pipeline executes stages for one configuration
type Pipeline struct {
	cfg   *config.Config
	deps  Deps
	log   zerolog.Logger
	runID string
}

// New creates a pipeline. Every run gets its own id in the log context.
func New(cfg *config.Config, deps Deps, log zerolog.Logger) *Pipeline {
	runID := uuid.New().String()
	return &Pipeline{
		cfg:   cfg,
		deps:  deps,
		log:   log.With().Str("run_id", runID).Logger(),
		runID: runID,
	}
}

// RunID identifies this pipeline's log lines
func (p *Pipeline) RunID() string {
	return p.runID
}

// Run executes stages in order and stops at the first failure
func (p *Pipeline) Run(ctx context.Context, stages []Stage) error {
	for _, s := range stages {
		p.log.Info().Str("stage", string(s)).Msg("Starting stage")
		if err := p.RunStage(ctx, s); err != nil {
			return fmt.Errorf("%s stage: %w", s, err)
		}
		p.log.Info().Str("stage", string(s)).Msg("Stage complete")
	}
	return nil
}

// RunStage executes a single stage
func (p *Pipeline) RunStage(ctx context.Context, s Stage) error {
	switch s {
	case StageScrape:
		return p.Scrape(ctx)
	case StagePreprocess:
		return p.Preprocess(ctx)
	case StageSentiment:
		return p.Sentiment(ctx)
	case StageThemes:
		return p.Themes(ctx)
	case StageLoad:
		return p.Load(ctx)
	case StageAnalyze:
		return p.Analyze(ctx)
	case StageReport:
		return p.Report(ctx)
	}
	return fmt.Errorf("unknown stage %q", s)
}

func (p *Pipeline) path(name string) string {
	return p.cfg.DataPath(name)
}

// Scrape collects raw reviews for every configured bank
func (p *Pipeline) Scrape(ctx context.Context) error {
	scraper := ingest.NewScraper(p.log, p.deps.Sources...)
	rows, err := scraper.Scrape(ctx, p.cfg.BankApps)
	if err != nil {
		return err
	}
	if err := dataset.WriteRaw(p.path(RawFile), rows); err != nil {
		return err
	}
	p.log.Info().Int("reviews", len(rows)).Str("file", p.path(RawFile)).Msg("Saved raw reviews")
	return nil
}

// Preprocess deduplicates and normalizes the raw reviews
func (p *Pipeline) Preprocess(ctx context.Context) error {
	raw, err := dataset.ReadRaw(p.path(RawFile))
	if err != nil {
		return err
	}

	reviews, stats := preprocess.Normalize(raw)
	p.log.Info().
		Int("input", stats.Input).
		Int("duplicates", stats.Duplicates).
		Int("missing_text", stats.MissingText).
		Int("bad_dates", stats.BadDates).
		Int("output", stats.Output).
		Msg("Normalized reviews")

	event := p.log.Info()
	if !stats.KPIMet() {
		event = p.log.Warn()
	}
	event.Float64("missing_percent", stats.MissingPercent).
		Float64("threshold", preprocess.MissingDataThreshold).
		Bool("kpi_met", stats.KPIMet()).
		Msg("Missing data KPI")

	if err := dataset.WriteReviews(p.path(CleanFile), reviews, dataset.CleanColumns); err != nil {
		return err
	}
	p.log.Info().Str("file", p.path(CleanFile)).Msg("Saved clean reviews")
	return nil
}

// Sentiment labels every clean review
func (p *Pipeline) Sentiment(ctx context.Context) error {
	reviews, err := dataset.ReadReviews(p.path(CleanFile))
	if err != nil {
		return err
	}
	if p.deps.NewClassifier == nil {
		return fmt.Errorf("no sentiment classifier configured")
	}
	classifier, err := p.deps.NewClassifier()
	if err != nil {
		return err
	}

	labeled, err := sentiment.Annotate(ctx, classifier, reviews)
	if err != nil {
		return err
	}

	byBank, byRating := sentiment.Breakdown(labeled)
	for _, s := range byBank {
		p.log.Info().Str("bank", s.Group).Int("reviews", s.Total).
			Float64("positive_pct", s.PositivePct).Float64("negative_pct", s.NegativePct).
			Msg("Sentiment by bank")
	}
	for _, s := range byRating {
		p.log.Debug().Str("rating", s.Group).Int("reviews", s.Total).
			Float64("positive_pct", s.PositivePct).Float64("negative_pct", s.NegativePct).
			Msg("Sentiment by rating")
	}

	if err := dataset.WriteReviews(p.path(SentimentFile), labeled, dataset.SentimentColumns); err != nil {
		return err
	}
	p.log.Info().Int("reviews", len(labeled)).Str("file", p.path(SentimentFile)).Msg("Saved sentiment results")
	return nil
}

// ThemeOptions converts the theme settings in cfg
func ThemeOptions(cfg *config.Config) (themes.Options, error) {
	minDF, err := themes.ParseBound(cfg.MinDF)
	if err != nil {
		return themes.Options{}, fmt.Errorf("THEME_MIN_DF: %w", err)
	}
	maxDF, err := themes.ParseBound(cfg.MaxDF)
	if err != nil {
		return themes.Options{}, fmt.Errorf("THEME_MAX_DF: %w", err)
	}
	opts := themes.DefaultOptions()
	opts.Clusters = cfg.Clusters
	opts.MinDF = minDF
	opts.MaxDF = maxDF
	opts.NgramMin = cfg.NgramMin
	opts.NgramMax = cfg.NgramMax
	opts.TopTerms = cfg.TopTerms
	opts.Seed = cfg.Seed
	opts.MaxIter = cfg.MaxIter
	return opts, opts.Validate()
}

// Themes clusters the negative reviews and merges theme ids back
func (p *Pipeline) Themes(ctx context.Context) error {
	reviews, err := dataset.ReadReviews(p.path(SentimentFile))
	if err != nil {
		return err
	}
	opts, err := ThemeOptions(p.cfg)
	if err != nil {
		return err
	}
	extractor, err := themes.NewExtractor(opts)
	if err != nil {
		return err
	}

	result, err := extractor.Extract(themes.DocumentsFromReviews(reviews))
	if err != nil {
		return err
	}
	themed, err := themes.Apply(reviews, result.Assignments)
	if err != nil {
		return err
	}

	if result.Documents == 0 {
		p.log.Warn().Msg("No negative reviews to cluster, every theme id stays -1")
	} else {
		p.log.Info().
			Int("documents", result.Documents).
			Int("vocabulary", result.VocabularySize).
			Int("iterations", result.Iterations).
			Bool("converged", result.Converged).
			Float64("inertia", result.Inertia).
			Msg("Clustered negative reviews")
	}
	for _, c := range result.Clusters {
		p.log.Info().Int("theme_id", c.ID).Str("name", c.Name()).Int("size", c.Size).
			Str("top_terms", strings.Join(c.TopTerms, ", ")).
			Msg("Theme")
	}
	for _, b := range themes.Breakdown(themed, len(result.Clusters)) {
		p.log.Info().Str("bank", b.Bank).Ints("theme_counts", b.Counts).Msg("Negative themes by bank")
	}

	if err := dataset.WriteReviews(p.path(ThemesFile), themed, dataset.ThemeColumns); err != nil {
		return err
	}
	if err := themes.WriteLabels(p.path(LabelsFile), themes.NewLabelFile(result, opts)); err != nil {
		return err
	}
	p.log.Info().Str("file", p.path(ThemesFile)).Str("labels", p.path(LabelsFile)).Msg("Saved thematic results")
	return nil
}

func (p *Pipeline) openStore(ctx context.Context) (storage.Store, error) {
	if p.deps.OpenStore == nil {
		return nil, fmt.Errorf("no store configured")
	}
	return p.deps.OpenStore(ctx)
}

// Load upserts the themed reviews into the relational store
func (p *Pipeline) Load(ctx context.Context) error {
	reviews, err := dataset.ReadReviews(p.path(ThemesFile))
	if err != nil {
		return err
	}
	store, err := p.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.PersistRows(ctx, reviews); err != nil {
		return err
	}
	p.log.Info().Int("rows", len(reviews)).Str("table", p.cfg.Table).Msg("Loaded reviews")
	return nil
}

// Analyze runs the aggregate queries and writes the results JSON
func (p *Pipeline) Analyze(ctx context.Context) error {
	store, err := p.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	res, err := report.Analyze(ctx, store, report.DefaultAnalyzeOptions())
	if err != nil {
		return err
	}
	path := p.path(report.ResultsFile)
	if err := report.WriteResults(path, res); err != nil {
		return err
	}
	p.log.Info().
		Int("banks", len(res.OverallSummary)).
		Int("themes", len(res.TopNegativeThemes)).
		Int("rating_rows", len(res.RatingDistribution)).
		Str("file", path).
		Msg("Saved analytical results")
	return nil
}

// Report renders charts from the analyze stage's JSON
func (p *Pipeline) Report(ctx context.Context) error {
	res, err := report.ReadResults(p.path(report.ResultsFile))
	if err != nil {
		return err
	}
	written, err := report.RenderCharts(res, p.cfg.ReportDir)
	if err != nil {
		return err
	}
	for _, path := range written {
		p.log.Info().Str("file", filepath.Clean(path)).Msg("Generated chart")
	}
	return nil
}
