// ABOUTME: MCP tool definitions and registration for the review insights server
// ABOUTME: Read-only tools over the review table and the latest theme labels
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, store Store, labelsPath string) *Handlers {
	handlers := NewHandlers(store, labelsPath)

	// 1. bank_summary - per-bank volume, rating and sentiment
	server.AddTool(mcp.Tool{
		Name:        "bank_summary",
		Description: "Per-bank review count, average star rating and positive/negative review counts, best rated bank first.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.BankSummary)

	// 2. negative_themes - largest (bank, theme) groups of negative reviews
	server.AddTool(mcp.Tool{
		Name:        "negative_themes",
		Description: "Top (bank, theme) pairs by number of negative reviews, with the average negative confidence.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"min_count": map[string]interface{}{
					"type":        "number",
					"description": "Minimum negative reviews for a theme to be listed (default: 10)",
					"default":     defaultMinCount,
				},
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of themes to return (default: 10)",
					"default":     defaultLimit,
				},
			},
		},
	}, handlers.NegativeThemes)

	// 3. rating_distribution - star rating counts per bank
	server.AddTool(mcp.Tool{
		Name:        "rating_distribution",
		Description: "Number of reviews per bank and star rating. Reviews with an unknown rating are not counted.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.RatingDistribution)

	// 4. theme_labels - top terms of each theme from the last clustering run
	server.AddTool(mcp.Tool{
		Name:        "theme_labels",
		Description: "Top terms describing each theme from the most recent clustering run. Labels are advisory.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.ThemeLabels)

	// 5. list_reviews - stored reviews filtered by bank, sentiment or theme
	server.AddTool(mcp.Tool{
		Name:        "list_reviews",
		Description: "List stored reviews, optionally filtered by bank, sentiment label or theme id.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"bank": map[string]interface{}{
					"type":        "string",
					"description": "Bank name, e.g. CBE",
				},
				"sentiment": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"POSITIVE", "NEGATIVE"},
					"description": "Sentiment label to match",
				},
				"theme_id": map[string]interface{}{
					"type":        "number",
					"description": "Theme id to match (-1 for reviews without a theme)",
				},
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of reviews to return (default: 20)",
					"default":     defaultReviewLimit,
				},
			},
		},
	}, handlers.ListReviews)

	return handlers
}
