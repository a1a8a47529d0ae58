package main

import (
	"github.com/spf13/cobra"

	"github.com/nao1215/wikigraph/internal/report"
)

// NewStatsCmd creates the stats command.
func NewStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print statistics about the crawled graph",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	addReportFlags(cmd)
	return cmd
}

// runStatsCmd executes the stats command.
func runStatsCmd(cmd *cobra.Command, _ []string) error {
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

	r, err := a.graphReport(ctx)
	if err != nil {
		return err
	}
	return writeReport(cmd, cfg, func(w report.Writer) (int, error) {
		return w.WriteGraph(r)
	})
}
