// ABOUTME: CLI command to list stored reviews
// ABOUTME: Filters by bank, sentiment and theme and prints a table or JSON
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/harper/review-insights/internal/models"
	"github.com/harper/review-insights/internal/pipeline"
	"github.com/harper/review-insights/internal/storage"
	"github.com/spf13/cobra"
)

var (
	listBank      string
	listSentiment string
	listTheme     int
	listLimit     int
)

// NewListCmd creates list command
func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List reviews stored in the database",
		Long: `List reviews loaded by the load stage.

Filter by bank, sentiment label or theme id. Theme -1 selects reviews
without a theme.

Examples:
  reviews list --bank CBE
  reviews list --sentiment negative --theme 2
  reviews list --limit 100 --format json`,
		Args: cobra.NoArgs,
		RunE: runList,
	}

	cmd.Flags().StringVar(&listBank, "bank", "", "Only show reviews for this bank")
	cmd.Flags().StringVar(&listSentiment, "sentiment", "", "Only show POSITIVE or NEGATIVE reviews")
	cmd.Flags().IntVar(&listTheme, "theme", 0, "Only show reviews with this theme id")
	cmd.Flags().IntVarP(&listLimit, "limit", "n", 20, "Maximum number of reviews")

	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	if err := validatePositiveInt(listLimit, "--limit"); err != nil {
		return err
	}
	label, err := models.ParseSentiment(listSentiment)
	if err != nil {
		return err
	}
	filter := storage.ReviewFilter{Bank: listBank, Sentiment: label, Limit: listLimit}
	if cmd.Flags().Changed("theme") {
		theme := listTheme
		filter.ThemeID = &theme
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	store, err := pipeline.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	reviews, err := store.ListReviews(ctx, filter)
	if err != nil {
		return fmt.Errorf("listing reviews: %w", err)
	}
	return printReviews(cmd.OutOrStdout(), reviews)
}

func printReviews(out io.Writer, reviews []models.Review) error {
	if len(reviews) == 0 {
		if !quiet {
			fmt.Fprintf(out, "No reviews found\n")
		}
		return nil
	}

	if useJSON() {
		views := make([]models.ReviewView, len(reviews))
		for i := range reviews {
			views[i] = reviews[i].View()
		}
		jsonData, err := json.MarshalIndent(views, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Fprintf(out, "%s\n", jsonData)
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "BANK\tRATING\tDATE\tSENTIMENT\tSCORE\tTHEME\tREVIEW\n")
	fmt.Fprintf(w, "----\t------\t----\t---------\t-----\t-----\t------\n")
	for _, r := range reviews {
		rating := r.Rating.String()
		if rating == "" {
			rating = "-"
		}
		date := r.DateString()
		if date == "" {
			date = "-"
		}
		theme := "-"
		if r.ThemeID != models.ThemeNone {
			theme = fmt.Sprintf("%d", r.ThemeID)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.4f\t%s\t%s\n",
			r.Bank, rating, date, r.Sentiment, r.Score, theme, truncate(r.Text, 60))
	}
	return w.Flush()
}
