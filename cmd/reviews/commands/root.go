// ABOUTME: Root command and global flags for the reviews CLI
// ABOUTME: Registers the pipeline, query and server subcommands
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	verbose      bool
	quiet        bool
	outputFormat string
)

const banner = `
██████╗ ███████╗██╗   ██╗██╗███████╗██╗    ██╗███████╗
██╔══██╗██╔════╝██║   ██║██║██╔════╝██║    ██║██╔════╝
██████╔╝█████╗  ██║   ██║██║█████╗  ██║ █╗ ██║███████╗
██╔══██╗██╔══╝  ╚██╗ ██╔╝██║██╔══╝  ██║███╗██║╚════██║
██║  ██║███████╗ ╚████╔╝ ██║███████╗╚███╔███╔╝███████║
╚═╝  ╚═╝╚══════╝  ╚═══╝  ╚═╝╚══════╝ ╚══╝╚══╝ ╚══════╝`

// NewRootCmd creates the root command with every subcommand attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reviews",
		Short: "Bank app review insights pipeline",
		Long: banner + `

Scrapes mobile banking app reviews, labels their sentiment, clusters the
negative ones into themes, loads everything into a relational table and
reports on it.

Stages run in order: scrape, preprocess, sentiment, themes, load,
analyze, report. Each stage reads the previous stage's output from the
data directory, so any stage can be rerun on its own.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch outputFormat {
			case "auto", "table", "json":
				return nil
			}
			return fmt.Errorf("--format must be auto, table or json, got %q", outputFormat)
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only log warnings and errors")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "auto", "Output format: auto, table, json")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewStageCmds()...)
	cmd.AddCommand(NewListCmd())
	cmd.AddCommand(NewMCPCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}
