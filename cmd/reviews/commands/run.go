// ABOUTME: Pipeline commands: run for a chain of stages, one subcommand per stage
// ABOUTME: Stages share config loading, logging and signal handling
package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/harper/review-insights/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	onlyStage string
	fromStage string
)

// NewRunCmd creates the run command
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline stages in order",
		Long: `Run the review pipeline from scraping to charts.

Stages: ` + pipeline.StageNames() + `

Use --only-stage to run one stage, or --from-stage to resume the chain
from a stage whose inputs are already in the data directory.`,
		Example: `  reviews run
  reviews run --from-stage themes --clusters 5
  reviews run --only-stage report`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stages, err := pipeline.Select(onlyStage, fromStage)
			if err != nil {
				return err
			}
			return runStages(cmd, stages)
		},
	}

	cmd.Flags().StringVar(&onlyStage, "only-stage", "", "Run a single stage")
	cmd.Flags().StringVar(&fromStage, "from-stage", "", "Run this stage and every later one")
	cmd.MarkFlagsMutuallyExclusive("only-stage", "from-stage")
	addThemeFlags(cmd)
	addScrapeFlags(cmd)

	return cmd
}

var stageDescriptions = map[pipeline.Stage]struct{ short, long string }{
	pipeline.StageScrape: {
		"Scrape app store reviews for every bank",
		"Fetch reviews from Google Play and the App Store for each configured bank and write them to " + pipeline.RawFile + ".",
	},
	pipeline.StagePreprocess: {
		"Deduplicate and normalize raw reviews",
		"Drop duplicate and empty reviews, normalize dates and report the missing data KPI. Writes " + pipeline.CleanFile + ".",
	},
	pipeline.StageSentiment: {
		"Label review sentiment",
		"Classify every clean review as POSITIVE or NEGATIVE with the configured backend. Writes " + pipeline.SentimentFile + ".",
	},
	pipeline.StageThemes: {
		"Cluster negative reviews into themes",
		"Vectorize negative reviews with TF-IDF, cluster them with k-means and label each theme with its top terms. Writes " + pipeline.ThemesFile + " and " + pipeline.LabelsFile + ".",
	},
	pipeline.StageLoad: {
		"Load themed reviews into the database",
		"Upsert the themed reviews into the configured SQLite or PostgreSQL table.",
	},
	pipeline.StageAnalyze: {
		"Run the aggregate queries",
		"Summarize banks, negative themes and ratings from the database into analytical_results.json.",
	},
	pipeline.StageReport: {
		"Render report charts",
		"Draw the summary, negative theme and rating distribution charts into the report directory.",
	},
}

// NewStageCmds creates one command per pipeline stage
func NewStageCmds() []*cobra.Command {
	cmds := make([]*cobra.Command, 0, len(pipeline.Stages))
	for _, stage := range pipeline.Stages {
		stage := stage
		desc := stageDescriptions[stage]
		cmd := &cobra.Command{
			Use:   string(stage),
			Short: desc.short,
			Long:  desc.long,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runStages(cmd, []pipeline.Stage{stage})
			},
		}
		switch stage {
		case pipeline.StageScrape:
			addScrapeFlags(cmd)
		case pipeline.StageThemes:
			addThemeFlags(cmd)
		}
		cmds = append(cmds, cmd)
	}
	return cmds
}

func runStages(cmd *cobra.Command, stages []pipeline.Stage) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyOverrides(cmd, cfg); err != nil {
		return err
	}
	log, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := pipeline.New(cfg, pipeline.NewDeps(cfg), log)
	return p.Run(ctx, stages)
}
