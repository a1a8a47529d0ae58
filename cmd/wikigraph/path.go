package main

import (
	"github.com/spf13/cobra"

	"github.com/nao1215/wikigraph/internal/report"
)

// NewPathCmd creates the path command.
func NewPathCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "path <from> <to>",
		Short: "List every shortest path between two crawled pages",
		Long: `Path looks up two pages by title in the graph database and lists every
shortest chain of links leading from the first to the second.

Examples:
  wikigraph path "Graph theory" "Leonhard Euler"

  # JSON output for scripts
  wikigraph path --json Alpha Delta`,
		Args: cobra.ExactArgs(2),
		RunE: runPathCmd,
	}
	addReportFlags(cmd)
	return cmd
}

// runPathCmd executes the path command.
func runPathCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	a, err := openApp(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	paths, err := a.svc.ShortestPathsByTitle(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	r := report.NewPathReport(args[0], args[1], paths)
	return writeReport(cmd, cfg, func(w report.Writer) (int, error) {
		return w.WritePaths(r)
	})
}
