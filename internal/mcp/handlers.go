// ABOUTME: MCP tool handler implementations for the review insights server
// ABOUTME: Each handler answers from the store or the label file and returns JSON text
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/harper/review-insights/internal/models"
	"github.com/harper/review-insights/internal/storage"
	"github.com/harper/review-insights/internal/themes"
	"github.com/mark3labs/mcp-go/mcp"
)

const (
	defaultMinCount    = 10
	defaultLimit       = 10
	defaultReviewLimit = 20
	maxReviewLimit     = 500
)

// Store is the read side of storage.Store used by the tools
type Store interface {
	Summary(ctx context.Context) ([]models.BankSummary, error)
	NegativeThemes(ctx context.Context, minCount, limit int) ([]models.ThemeCount, error)
	RatingDistribution(ctx context.Context) ([]models.RatingCount, error)
	ListReviews(ctx context.Context, filter storage.ReviewFilter) ([]models.Review, error)
}

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	store      Store
	labelsPath string
}

// NewHandlers creates handlers over store. labelsPath is the YAML written by
// the themes stage.
func NewHandlers(store Store, labelsPath string) *Handlers {
	return &Handlers{store: store, labelsPath: labelsPath}
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	responseJSON, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}

// BankSummary handles the bank_summary tool
func (h *Handlers) BankSummary(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summary, err := h.store.Summary(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("summary query failed: %v", err)), nil
	}
	if summary == nil {
		summary = []models.BankSummary{}
	}
	return jsonResult(map[string]interface{}{"banks": summary})
}

// NegativeThemes handles the negative_themes tool
func (h *Handlers) NegativeThemes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	minCount := request.GetInt("min_count", defaultMinCount)
	limit := request.GetInt("limit", defaultLimit)
	if minCount < 1 || limit < 1 {
		return mcp.NewToolResultError("min_count and limit must be positive"), nil
	}

	rows, err := h.store.NegativeThemes(ctx, minCount, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("negative themes query failed: %v", err)), nil
	}
	if rows == nil {
		rows = []models.ThemeCount{}
	}
	return jsonResult(map[string]interface{}{
		"min_count": minCount,
		"themes":    rows,
	})
}

// RatingDistribution handles the rating_distribution tool
func (h *Handlers) RatingDistribution(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rows, err := h.store.RatingDistribution(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("rating distribution query failed: %v", err)), nil
	}
	if rows == nil {
		rows = []models.RatingCount{}
	}
	return jsonResult(map[string]interface{}{"ratings": rows})
}

// ThemeLabels handles the theme_labels tool
func (h *Handlers) ThemeLabels(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	lf, err := themes.ReadLabels(h.labelsPath)
	if errors.Is(err, os.ErrNotExist) {
		return mcp.NewToolResultError("no theme labels yet, run the themes stage first"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read theme labels: %v", err)), nil
	}
	return jsonResult(lf)
}

// ListReviews handles the list_reviews tool
func (h *Handlers) ListReviews(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	label, err := models.ParseSentiment(request.GetString("sentiment", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := request.GetInt("limit", defaultReviewLimit)
	if limit < 1 || limit > maxReviewLimit {
		return mcp.NewToolResultError(fmt.Sprintf("limit must be between 1 and %d", maxReviewLimit)), nil
	}

	filter := storage.ReviewFilter{
		Bank:      request.GetString("bank", ""),
		Sentiment: label,
		Limit:     limit,
	}
	if args := request.GetArguments(); args != nil {
		if _, ok := args["theme_id"]; ok {
			theme := request.GetInt("theme_id", models.ThemeNone)
			filter.ThemeID = &theme
		}
	}

	reviews, err := h.store.ListReviews(ctx, filter)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("review query failed: %v", err)), nil
	}

	views := make([]models.ReviewView, 0, len(reviews))
	for i := range reviews {
		views = append(views, reviews[i].View())
	}
	return jsonResult(map[string]interface{}{
		"count":   len(views),
		"reviews": views,
	})
}
