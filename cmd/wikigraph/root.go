package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for wikigraph.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wikigraph",
		Short: "Crawl a wiki and find shortest paths between its pages",
		Long: `wikigraph crawls a wiki starting from a seed page and records which page
links to which. The graph is kept in a SQLite database under the XDG data
directory, so later commands can look up pages and list every shortest
path between two of them.

Settings are read from .wikigraph (YAML), WIKIGRAPH_* environment
variables and a .env file; flags take precedence over all of them.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	flags := cmd.PersistentFlags()
	flags.BoolP("verbose", "v", false, "Enable verbose logging")
	flags.Bool("json-logs", false, "Write logs as JSON")
	flags.StringP("config", "c", "",
		"Configuration file path (default: .wikigraph in current or home directory)")
	flags.String("env-file", ".env", "Environment file with WIKIGRAPH_* variables")
	flags.String("data-dir", "", "Directory of the graph database (default: XDG data directory)")
	flags.Bool("in-memory", false, "Keep the graph in memory only")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewPathCmd())
	cmd.AddCommand(NewPageCmd())
	cmd.AddCommand(NewStatsCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
