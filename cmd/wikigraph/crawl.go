package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/nao1215/wikigraph/internal/config"
	"github.com/nao1215/wikigraph/internal/crawler"
	"github.com/nao1215/wikigraph/internal/model"
	"github.com/nao1215/wikigraph/internal/report"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl <seed> [seed...]",
		Short: "Crawl the wiki starting from one or more pages",
		Long: `Crawl fetches the seed pages and every page reachable from them, storing
the links between pages in the graph database.

A seed is a page title ("Graph theory"), a path ("/wiki/Graph_theory")
or a full article URL. Pages already in the database are revisited only
after the revisit interval has passed.

The crawl stops once nothing is left to fetch, after --max-pages pages
were indexed, or on Ctrl-C. With --continuous it keeps running and
revisits stale pages until interrupted.

Examples:
  # Crawl from a single page
  wikigraph crawl "Graph theory"

  # Stop after 500 pages and print a Markdown report
  wikigraph crawl --max-pages 500 --markdown /wiki/Go_(programming_language)

  # Crawl saved HTML files instead of the network
  wikigraph crawl --offline-dir ./pages Alpha

  # Route requests through a SOCKS5 proxy
  wikigraph crawl --proxy 127.0.0.1:1080 "Graph theory"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runCrawlCmd,
	}

	// Pipeline flags
	cmd.Flags().Int("fetch-workers", config.DefaultFetchWorkers, "Number of concurrent fetch workers")
	cmd.Flags().Int("analysis-workers", config.DefaultAnalysisWorkers, "Number of concurrent analysis workers")
	cmd.Flags().Int("revisit-workers", config.DefaultRevisitWorkers, "Number of revisit workers (0 disables revisiting)")
	cmd.Flags().Duration("revisit-interval", config.DefaultRevisitInterval, "Minimum time between two fetches of a page")
	cmd.Flags().IntP("max-pages", "p", 0, "Stop after this many pages were indexed (0 means unlimited)")
	cmd.Flags().Bool("continuous", false, "Keep revisiting pages after the crawl drains")
	cmd.Flags().Int("bulk-publish", config.DefaultCreatesUntilBulkPublish,
		"Number of new pages staged before they are written in one batch (0 writes immediately)")

	// Fetch flags
	cmd.Flags().String("base-url", config.DefaultBaseURL, "Root URL of the wiki")
	cmd.Flags().String("offline-dir", "", "Read pages from <dir>/<name>.html instead of the network")
	cmd.Flags().StringP("proxy", "x", "", "SOCKS5 proxy address (e.g., 127.0.0.1:1080)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout, "Timeout for each request")
	cmd.Flags().Float64("rate", config.DefaultRequestsPerSecond, "Maximum requests per second (0 disables the limit)")
	cmd.Flags().String("user-agent", config.DefaultUserAgent, "User-Agent header")

	addReportFlags(cmd)
	return cmd
}

// applyCrawlFlags copies the explicitly set crawl flags onto cfg.
func applyCrawlFlags(flags *pflag.FlagSet, cfg *config.Config) error {
	ints := map[string]*int{
		"fetch-workers":    &cfg.FetchWorkers,
		"analysis-workers": &cfg.AnalysisWorkers,
		"revisit-workers":  &cfg.RevisitWorkers,
		"max-pages":        &cfg.MaxPages,
		"bulk-publish":     &cfg.CreatesUntilBulkPublish,
	}
	for name, dst := range ints {
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetInt(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	strs := map[string]*string{
		"base-url":    &cfg.BaseURL,
		"offline-dir": &cfg.OfflineDir,
		"proxy":       &cfg.ProxyAddress,
		"user-agent":  &cfg.UserAgent,
	}
	for name, dst := range strs {
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetString(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	var err error
	if flags.Changed("revisit-interval") {
		if cfg.RevisitInterval, err = flags.GetDuration("revisit-interval"); err != nil {
			return err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return err
		}
	}
	if flags.Changed("rate") {
		if cfg.RequestsPerSecond, err = flags.GetFloat64("rate"); err != nil {
			return err
		}
	}
	if flags.Changed("continuous") {
		if cfg.Continuous, err = flags.GetBool("continuous"); err != nil {
			return err
		}
	}
	return nil
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, applyCrawlFlags)
	if err != nil {
		return err
	}

	seeds := make([]model.WikiLink, len(args))
	for i, arg := range args {
		if seeds[i], err = parseSeed(arg); err != nil {
			return err
		}
	}

	// Cancel the crawl on interrupt; the supervisor drains and stops.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	return runCrawl(ctx, cmd, a, seeds)
}

// runCrawl runs one crawl to completion and writes its report.
func runCrawl(ctx context.Context, cmd *cobra.Command, a *app, seeds []model.WikiLink) error {
	fetcher, err := newFetcher(a.cfg)
	if err != nil {
		return err
	}

	sup, err := crawler.New(a.cfg.CrawlerConfig(), a.svc, fetcher, crawler.NewWikiAnalyzer(),
		crawler.WithLogger(a.logger))
	if err != nil {
		return err
	}

	a.logger.Info("starting crawl",
		"seeds", len(seeds),
		"fetchWorkers", a.cfg.FetchWorkers,
		"analysisWorkers", a.cfg.AnalysisWorkers,
		"maxPages", a.cfg.MaxPages,
		"continuous", a.cfg.Continuous,
	)

	if err := sup.Start(ctx, seeds[0]); err != nil {
		return fmt.Errorf("failed to start crawl: %w", err)
	}
	for _, seed := range seeds[1:] {
		if err := sup.AddURL(ctx, seed); err != nil {
			a.logger.Warn("failed to add seed", "link", seed.String(), "error", err)
		}
	}

	// Shutdown is driven by ctx and the supervisor's own policy, so the wait
	// itself must not be cancelled.
	if err := sup.Await(context.WithoutCancel(ctx)); err != nil {
		return err
	}

	graph, err := a.graphReport(context.WithoutCancel(ctx))
	if err != nil {
		return err
	}
	r := report.NewCrawlReport(seeds[0].String(), sup.Stats(), graph)
	return writeReport(cmd, a.cfg, func(w report.Writer) (int, error) {
		return w.WriteCrawl(r)
	})
}

// newFetcher returns the file fetcher for offline crawls and the HTTP
// fetcher otherwise.
func newFetcher(cfg *config.Config) (crawler.Fetcher, error) {
	if cfg.OfflineDir != "" {
		return crawler.NewFileFetcher(cfg.OfflineDir), nil
	}
	client, err := crawler.NewHTTPClient(cfg.ClientOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}
	return crawler.NewHTTPFetcher(client, cfg.FetcherOptions()...), nil
}

// parseSeed accepts a page title, a /wiki/ path or an article URL.
func parseSeed(arg string) (model.WikiLink, error) {
	arg = strings.TrimSpace(arg)
	if !strings.HasPrefix(arg, "/") && !strings.Contains(arg, "://") {
		arg = "/wiki/" + strings.ReplaceAll(arg, " ", "_")
	}
	link, err := model.ParseWikiLink(arg)
	if err != nil {
		return model.WikiLink{}, fmt.Errorf("invalid seed: %w", err)
	}
	return link, nil
}
