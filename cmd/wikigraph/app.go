package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/nao1215/wikigraph/internal/config"
	"github.com/nao1215/wikigraph/internal/log"
	"github.com/nao1215/wikigraph/internal/registry"
	"github.com/nao1215/wikigraph/internal/report"
	"github.com/nao1215/wikigraph/internal/store"
	"github.com/nao1215/wikigraph/internal/wiki"
)

// app holds what every command needs once configuration is resolved.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	store  store.Store
	svc    *wiki.Service
}

// addReportFlags registers the report format flags on a command that
// produces a report.
func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
}

// loadConfig resolves the configuration for cmd: defaults, then the config
// file and the environment, then every flag the user set explicitly.
// apply lets a command copy its own flags onto the config.
func loadConfig(cmd *cobra.Command, apply func(*pflag.FlagSet, *config.Config) error) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	if cfg.EnvFilePath, err = flags.GetString("env-file"); err != nil {
		return nil, err
	}
	if err := config.Load(cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := applyGlobalFlags(flags, cfg); err != nil {
		return nil, err
	}
	if apply != nil {
		if err := apply(flags, cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

// applyGlobalFlags copies explicitly set persistent and report flags onto
// cfg.
func applyGlobalFlags(flags *pflag.FlagSet, cfg *config.Config) error {
	var err error
	if flags.Changed("verbose") {
		if cfg.Verbose, err = flags.GetBool("verbose"); err != nil {
			return err
		}
	}
	if flags.Changed("json-logs") {
		if cfg.JSONLogs, err = flags.GetBool("json-logs"); err != nil {
			return err
		}
	}
	if flags.Changed("data-dir") {
		if cfg.DataDir, err = flags.GetString("data-dir"); err != nil {
			return err
		}
	}
	if flags.Changed("in-memory") {
		if cfg.InMemory, err = flags.GetBool("in-memory"); err != nil {
			return err
		}
	}

	// Report flags exist only on commands that write a report.
	if flags.Lookup("json") == nil {
		return nil
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return err
	}
	return nil
}

// openApp opens the store described by cfg and builds the graph service
// over it. The caller must call close.
func openApp(ctx context.Context, cmd *cobra.Command, cfg *config.Config) (*app, error) {
	logger := log.NewLogger(cmd.ErrOrStderr(), cfg.Verbose, cfg.JSONLogs)

	var st store.Store
	if cfg.InMemory {
		st = store.NewMemory()
	} else {
		db, err := store.OpenSQLite(ctx, cfg.DataDir, store.DefaultOptions())
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		logger.Info("database opened", "path", db.Path())
		st = db
	}

	reg := registry.New(st,
		registry.WithRevisitInterval(cfg.RevisitInterval),
		registry.WithLogger(logger),
	)
	opts := []wiki.Option{wiki.WithLogger(logger)}
	if cfg.CreatesUntilBulkPublish > 0 {
		opts = append(opts, wiki.WithStaging(cfg.CreatesUntilBulkPublish))
	}

	return &app{
		cfg:    cfg,
		logger: logger,
		store:  st,
		svc:    wiki.NewService(st, reg, opts...),
	}, nil
}

// close releases the store.
func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.logger.Error("failed to close store", "error", err)
	}
}

// graphReport computes statistics over the whole stored graph.
func (a *app) graphReport(ctx context.Context) (*report.GraphReport, error) {
	pages, err := a.store.AllPages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	links, err := a.store.AllLinks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	return report.NewGraphReport(pages, links), nil
}

// writeReport opens the report destination and hands the writer for the
// configured format to write. textOpts apply to the plain text writer.
func writeReport(cmd *cobra.Command, cfg *config.Config, write func(report.Writer) (int, error), textOpts ...report.SimpleWriterOption) error {
	var output io.Writer = cmd.OutOrStdout()
	if cfg.ReportFile != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	var w report.Writer
	switch {
	case cfg.JSONReport:
		w = report.New(report.FormatJSON, output)
	case cfg.MarkdownReport:
		w = report.New(report.FormatMarkdown, output)
	default:
		w = report.NewSimpleWriter(output, textOpts...)
	}

	if _, err := write(w); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
