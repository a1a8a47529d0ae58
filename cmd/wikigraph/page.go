package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/wikigraph/internal/report"
	"github.com/nao1215/wikigraph/internal/wiki"
)

// NewPageCmd creates the page command.
func NewPageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "page <title>",
		Short: "Show a crawled page and its outbound links",
		Args:  cobra.ExactArgs(1),
		RunE:  runPageCmd,
	}
	cmd.Flags().Bool("urls", false, "Print the URL of every linked page")
	addReportFlags(cmd)
	return cmd
}

// runPageCmd executes the page command.
func runPageCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	urls, err := cmd.Flags().GetBool("urls")
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := openApp(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	page, err := a.svc.PageByTitle(ctx, args[0])
	if err != nil {
		return err
	}
	if page == nil {
		return fmt.Errorf("%w: %q", wiki.ErrPageNotFound, args[0])
	}

	r := report.NewPageReport(page)
	return writeReport(cmd, cfg, func(w report.Writer) (int, error) {
		return w.WritePage(r)
	}, report.WithVerbose(urls))
}
