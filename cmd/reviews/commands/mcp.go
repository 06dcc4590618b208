// ABOUTME: MCP command starts the Model Context Protocol server
// ABOUTME: Lets LLM agents query the review database over stdio
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/harper/review-insights/internal/mcp"
	"github.com/harper/review-insights/internal/pipeline"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs the review database as an MCP (Model Context Protocol) server so
LLM agents like Claude can ask for bank summaries, negative themes,
rating distributions and individual reviews via stdio.

Run the load stage first; the server only reads.`,
		Args: cobra.NoArgs,
		RunE: runMCP,
		Example: `  # Start MCP server (typically called by Claude Desktop)
  reviews mcp

  # Configure in claude_desktop_config.json:
  # {
  #   "mcpServers": {
  #     "reviews": {
  #       "command": "reviews",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}

	return cmd
}

// runMCP starts the MCP server
func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := pipeline.OpenStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open review store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn().Err(err).Msg("Error closing store")
		}
	}()

	server := mcpserver.NewMCPServer(
		"Review Insights",
		"0.1.0",
		mcpserver.WithToolCapabilities(false),
	)
	mcp.RegisterTools(server, store, cfg.DataPath(pipeline.LabelsFile))

	log.Info().Str("driver", cfg.DBDriver).Msg("MCP server starting on stdio")

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	return nil
}
