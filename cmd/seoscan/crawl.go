package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/seoscan/internal/config"
	"github.com/nao1215/seoscan/internal/database"
	"github.com/nao1215/seoscan/internal/log"
	"github.com/nao1215/seoscan/internal/model"
	"github.com/nao1215/seoscan/internal/pipeline"
	"github.com/nao1215/seoscan/internal/report"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [url...]",
		Short: "Crawl a website and score each page for SEO quality",
		Long: `Crawl fetches every reachable page on the start URL's host and scores it.

Each HTML page under the start page's path is analyzed:
- Title, description, and keywords are matched against the body text
- Freshness is judged from the last-modified metadata
- Product/version metadata and H1 headings contribute to the score

Same-host pages outside the start path and external links are checked for
existence only, so broken links still show up in the report. Finished runs
are saved to the local database for later comparison.

Examples:
  # Crawl a documentation tree
  seoscan crawl https://example.com/docs/

  # Crawl several sites concurrently
  seoscan crawl https://a.example.com/ https://b.example.com/

  # Slow down and cap the crawl
  seoscan crawl --delay 2s --max-pages 100 https://example.com/

  # Markdown report plus CSV and Excel exports
  seoscan crawl -m --csv pages.csv --xlsx pages.xlsx https://example.com/

  # Use a custom configuration file
  seoscan crawl -c myconfig.yaml https://example.com/

Configuration file (.seoscan) example:
  defaults:
    delayMilliseconds: 1000
  sites:
    example.com:
      maxPages: 200
      noiseWords: ["acme", "widget"]
    docs.example.com:
      subPathOnly: false`,
		Args: cobra.ArbitraryArgs,
		RunE: runCrawlCmd,
	}

	// Crawl behavior flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Connection timeout for each request")
	cmd.Flags().DurationP("delay", "d", config.DefaultCrawlDelay,
		"Minimum delay between requests to the same site")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of URLs to fetch per start URL")
	cmd.Flags().BoolP("all-paths", "a", false,
		"Analyze same-host pages outside the start page's base path")
	cmd.Flags().StringP("user-agent", "A", config.DefaultUserAgent,
		"User-Agent header sent with requests")

	// Batch crawling flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent runs when several start URLs are given")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .seoscan in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report instead of plain text")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().String("csv", "",
		"Write a per-page CSV export to the specified file")
	cmd.Flags().String("xlsx", "",
		"Write a per-page Excel workbook to the specified file")
	cmd.Flags().BoolP("quiet", "q", false,
		"Suppress the report output (exports and database saving still happen)")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	// Build config from flags
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging
	logger := log.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runCrawl(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	// Get flag values
	var err error

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.CrawlDelay, err = cmd.Flags().GetDuration("delay")
	if err != nil {
		return nil, err
	}

	cfg.MaxPages, err = cmd.Flags().GetInt("max-pages")
	if err != nil {
		return nil, err
	}

	allPaths, err := cmd.Flags().GetBool("all-paths")
	if err != nil {
		return nil, err
	}
	cfg.SubPathOnly = !allPaths

	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return nil, err
	}

	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load site-specific configurations from config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty config if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		// User explicitly specified a config file that doesn't exist
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		// Use empty config if no file found and user didn't explicitly specify one
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.CSVFile, err = cmd.Flags().GetString("csv")
	if err != nil {
		return nil, err
	}

	cfg.XLSXFile, err = cmd.Flags().GetString("xlsx")
	if err != nil {
		return nil, err
	}

	quiet, err := cmd.Flags().GetBool("quiet")
	if err != nil {
		return nil, err
	}
	cfg.ShowReport = !quiet

	cfg.Verbose = getVerboseFlag(cmd)

	// Always save to database using XDG data directory
	cfg.SaveToDB = true
	cfg.DBDir = config.XDGDataDir()

	// Get positional arguments (start URLs)
	cfg.Targets = args

	return cfg, nil
}

// runCrawl executes the crawl.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if len(cfg.Targets) == 0 {
		return errors.New("no targets provided (specify one or more start URLs as arguments)")
	}

	logger.Info("starting crawl",
		"targets", cfg.Targets,
		"maxPages", cfg.MaxPages,
		"batchSize", cfg.BatchSize,
		"saveToDB", cfg.SaveToDB,
	)

	// Open database connection if saving is enabled
	var db *database.CrawlDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "dir", cfg.DBDir)
	}

	// Validate and normalize all start URLs
	for i, target := range cfg.Targets {
		scope, err := config.ParseScope(target)
		if err != nil {
			return fmt.Errorf("invalid start URL %q: %w", target, err)
		}
		cfg.Targets[i] = scope.StartURL
	}

	// Use batch processor for concurrent runs if multiple targets
	if len(cfg.Targets) > 1 && cfg.BatchSize > 1 {
		return runBatchCrawl(ctx, cfg, db, logger)
	}

	// Single target or sequential crawling
	return runSequentialCrawl(ctx, cfg, db, logger)
}

// newCrawlPipeline assembles the pipeline for one run.
// Every run gets the same step sequence: crawl, summarize, and save when
// a database is open. ContinueOnError keeps the summary and save steps
// running so a failed run still leaves a row to compare against.
func newCrawlPipeline(cfg *config.Config, db *database.CrawlDB, logger *slog.Logger) *pipeline.Pipeline {
	p := pipeline.New(
		pipeline.WithLogger(logger),
		pipeline.WithContinueOnError(true),
	)
	p.AddStep(pipeline.NewCrawlStep(cfg, pipeline.WithCrawlLogger(logger)))
	p.AddStep(pipeline.NewSummarizeStep())
	if db != nil {
		p.AddStep(pipeline.NewSaveStep(db))
	}
	return p
}

// runSequentialCrawl crawls targets one at a time.
func runSequentialCrawl(ctx context.Context, cfg *config.Config, db *database.CrawlDB, logger *slog.Logger) error {
	for _, target := range cfg.Targets {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		p := newCrawlPipeline(cfg, db, logger)
		crawlReport := model.NewCrawlReport(target)

		fmt.Printf("Crawling %s...\n", target)
		startTime := time.Now()

		// Execute the pipeline
		if err := p.Execute(ctx, crawlReport); err != nil {
			logger.Error("crawl failed", "target", target, "error", err)
			fmt.Fprintf(os.Stderr, "Crawl error for %s: %v\n", target, err)
			continue
		}

		elapsed := time.Since(startTime)
		fmt.Printf("Crawl completed in %s\n\n", elapsed.Round(time.Millisecond))

		// Generate and output report
		if err := outputReport(cfg, crawlReport); err != nil {
			logger.Error("report failed", "target", target, "error", err)
		}
	}

	return nil
}

// runBatchCrawl crawls multiple targets concurrently using BatchProcessor.
func runBatchCrawl(ctx context.Context, cfg *config.Config, db *database.CrawlDB, logger *slog.Logger) error {
	fmt.Printf("Starting batch crawl of %d targets (concurrency: %d)...\n\n",
		len(cfg.Targets), cfg.BatchSize)

	startTime := time.Now()

	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline {
			return newCrawlPipeline(cfg, db, logger)
		},
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	reports, err := bp.ProcessBatch(ctx, cfg.Targets)

	for i, crawlReport := range reports {
		if crawlReport == nil {
			continue
		}

		fmt.Printf("[%d/%d] Crawl completed: %s\n", i+1, len(reports), crawlReport.StartURL)

		if reportErr := outputReport(cfg, crawlReport); reportErr != nil {
			logger.Error("report failed", "target", crawlReport.StartURL, "error", reportErr)
		}
	}

	elapsed := time.Since(startTime)
	fmt.Printf("\nBatch crawl completed in %s\n", elapsed.Round(time.Millisecond))

	return err
}

// outputReport writes the crawl report in the requested formats.
// The main human-readable (or Markdown) report goes to stdout or the
// --output file; CSV and Excel exports always go to their own files.
func outputReport(cfg *config.Config, crawlReport *model.CrawlReport) error {
	var writers []report.Writer
	var closers []*os.File
	defer func() {
		for _, f := range closers {
			f.Close()
		}
	}()

	if cfg.ShowReport {
		output := os.Stdout
		if cfg.ReportFile != "" {
			f, err := createReportFile(cfg.ReportFile)
			if err != nil {
				return err
			}
			closers = append(closers, f)
			output = f
		}

		if cfg.MarkdownReport {
			writers = append(writers, report.NewMarkdownWriter(output))
		} else {
			writers = append(writers, report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose)))
		}
	}

	if cfg.CSVFile != "" {
		f, err := createReportFile(cfg.CSVFile)
		if err != nil {
			return err
		}
		closers = append(closers, f)
		writers = append(writers, report.NewCSVWriter(f))
	}

	if cfg.XLSXFile != "" {
		f, err := createReportFile(cfg.XLSXFile)
		if err != nil {
			return err
		}
		closers = append(closers, f)
		writers = append(writers, report.NewXLSXWriter(f))
	}

	if len(writers) == 0 {
		return nil
	}

	_, err := report.NewMultiWriter(writers...).Write(crawlReport)
	return err
}

// createReportFile creates an output file with restrictive permissions,
// creating parent directories as needed.
func createReportFile(path string) (*os.File, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}
