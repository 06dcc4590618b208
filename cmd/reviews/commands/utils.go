// ABOUTME: Shared utility functions for CLI commands
// ABOUTME: Config loading, logger setup and small formatting helpers
package commands

import (
	"fmt"

	"github.com/harper/review-insights/internal/config"
	"github.com/harper/review-insights/internal/logging"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// loadConfig reads .env when present, then the environment
func loadConfig() (*config.Config, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the stderr logger honoring --verbose, --quiet and LOG_LEVEL
func newLogger(cmd *cobra.Command, cfg *config.Config) (zerolog.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel, verbose, quiet)
	if err != nil {
		return zerolog.Logger{}, err
	}
	return logging.New(cmd.ErrOrStderr(), level), nil
}

// addThemeFlags registers the clustering overrides shared by run and themes
func addThemeFlags(cmd *cobra.Command) {
	cmd.Flags().Int("clusters", 0, "Number of themes (overrides THEME_CLUSTERS)")
	cmd.Flags().Uint64("seed", 0, "Clustering seed (overrides THEME_SEED)")
}

// addScrapeFlags registers the scraping overrides shared by run and scrape
func addScrapeFlags(cmd *cobra.Command) {
	cmd.Flags().Int("per-bank", 0, "Reviews to fetch per bank (overrides REVIEWS_PER_BANK)")
}

// applyOverrides copies explicitly set flags into cfg and revalidates it
func applyOverrides(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if f := flags.Lookup("clusters"); f != nil && f.Changed {
		n, _ := flags.GetInt("clusters")
		if err := validatePositiveInt(n, "--clusters"); err != nil {
			return err
		}
		cfg.Clusters = n
	}
	if f := flags.Lookup("seed"); f != nil && f.Changed {
		cfg.Seed, _ = flags.GetUint64("seed")
	}
	if f := flags.Lookup("per-bank"); f != nil && f.Changed {
		n, _ := flags.GetInt("per-bank")
		if err := validatePositiveInt(n, "--per-bank"); err != nil {
			return err
		}
		cfg.ReviewsPerBank = n
	}
	return cfg.Validate()
}

// useJSON reports whether command output should be JSON
func useJSON() bool {
	return outputFormat == "json"
}

// truncate shortens a string to maxLen, adding "..." if truncated
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// validatePositiveInt returns error if n is not positive
func validatePositiveInt(n int, name string) error {
	if n <= 0 {
		return fmt.Errorf("%s must be positive, got %d", name, n)
	}
	return nil
}
