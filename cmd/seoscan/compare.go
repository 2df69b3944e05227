package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/seoscan/internal/config"
	"github.com/nao1215/seoscan/internal/database"
	"github.com/nao1215/seoscan/internal/model"
)

// Constants for score direction and summary messages.
const (
	scoreDirectionImproved  = "improved"
	scoreDirectionWorsened  = "worsened"
	scoreDirectionUnchanged = "unchanged"
	noPagesMessage          = "No analyzed pages"
)

// NewCompareCmd creates the compare command.
// This command compares crawl results with historical data stored in the database.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [host]",
		Short: "Compare crawl results with historical data",
		Long: `Compare displays differences between the current and previous crawl results.

This command retrieves historical crawl data from the database and shows:
- Pages whose SEO score improved or worsened since the last run
- Pages that appeared or disappeared
- Broken links that are new or have been fixed

The comparison requires at least two runs in the database for the specified
host. Use 'seoscan crawl' to perform runs and save results.

Examples:
  # Compare the latest two runs for a host
  seoscan compare example.com

  # List all run history for a host
  seoscan compare --list example.com

  # Compare with a specific historical run by ID
  seoscan compare --with-run-id 5 example.com

  # Compare with the first run since a specific date
  seoscan compare --since "2026-01-01" example.com

  # Output comparison in JSON format
  seoscan compare --json example.com

  # List all crawled hosts in the database
  seoscan compare --list-hosts`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCompareCmd,
	}

	// History listing flags
	cmd.Flags().BoolP("list", "l", false,
		"List run history for the specified host")
	cmd.Flags().BoolP("list-hosts", "L", false,
		"List all crawled hosts in the database")

	// Comparison target flags
	cmd.Flags().Int64P("with-run-id", "i", 0,
		"Compare with a specific run by ID (use --list to see available IDs)")
	cmd.Flags().StringP("since", "s", "",
		"Compare with the first run after this date (format: YYYY-MM-DD)")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison result in Markdown format")

	return cmd
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	// Handle --list-hosts flag first (requires database but no host)
	listHosts, err := cmd.Flags().GetBool("list-hosts")
	if err != nil {
		return err
	}

	// Validate arguments before opening database (unless --list-hosts)
	var host string
	if !listHosts {
		if len(args) == 0 {
			return errors.New("host is required (use --list-hosts to see available hosts)")
		}

		// Normalize the host the same way crawl records it
		scope, err := config.ParseScope(args[0])
		if err != nil {
			return fmt.Errorf("invalid host: %w", err)
		}
		host = scope.Host
	}

	// Use XDG data directory for database
	dbDir := config.XDGDataDir()

	// Open database
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	// Handle --list-hosts flag
	if listHosts {
		return listCrawledHosts(ctx, db)
	}

	// Handle --list flag
	listHistory, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	if listHistory {
		return listRunHistory(ctx, db, host)
	}

	// Get output format flags
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}

	// Get comparison target flags
	withRunID, err := cmd.Flags().GetInt64("with-run-id")
	if err != nil {
		return err
	}
	sinceDate, err := cmd.Flags().GetString("since")
	if err != nil {
		return err
	}

	// Perform comparison
	return runComparison(ctx, db, host, withRunID, sinceDate, jsonOutput, markdownOutput)
}

// listCrawledHosts lists all hosts that have crawl records in the database.
func listCrawledHosts(ctx context.Context, db *database.CrawlDB) error {
	hosts, err := db.ListHosts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list hosts: %w", err)
	}

	if len(hosts) == 0 {
		fmt.Println("No crawled hosts found in the database.")
		fmt.Println("\nUse 'seoscan crawl <url>' to crawl a site.")
		return nil
	}

	fmt.Printf("Crawled hosts (%d):\n\n", len(hosts))
	for _, host := range hosts {
		fmt.Printf("  • %s\n", host)
	}
	fmt.Println("\nUse 'seoscan compare --list <host>' to see run history for a host.")

	return nil
}

// listRunHistory lists all crawl runs for a specific host.
func listRunHistory(ctx context.Context, db *database.CrawlDB, host string) error {
	runs, err := db.GetRunHistory(ctx, host)
	if err != nil {
		return fmt.Errorf("failed to get run history: %w", err)
	}

	if len(runs) == 0 {
		fmt.Printf("No run history found for %s\n", host)
		fmt.Println("\nUse 'seoscan crawl' to crawl this host.")
		return nil
	}

	fmt.Printf("Run history for %s (%d runs):\n\n", host, len(runs))
	fmt.Printf("  %-6s  %-20s  %-8s  %-8s  %-8s  %s\n",
		"ID", "Date", "Visited", "Scored", "Broken", "Avg Score")
	fmt.Println("  " + strings.Repeat("-", 70))

	for _, meta := range runs {
		fmt.Printf("  %-6d  %-20s  %-8d  %-8d  %-8d  %.1f\n",
			meta.ID,
			meta.Timestamp.Format("2006-01-02 15:04:05"),
			meta.PagesVisited,
			meta.PagesAnalyzed,
			meta.BrokenLinks,
			meta.AverageScore,
		)
	}

	fmt.Println("\nUse 'seoscan compare <host>' to compare the latest two runs.")
	fmt.Println("Use 'seoscan compare --with-run-id <id> <host>' to compare with a specific run.")

	return nil
}

// runComparison performs the actual comparison between crawl runs.
func runComparison(ctx context.Context, db *database.CrawlDB, host string, withRunID int64, sinceDate string, jsonOutput, markdownOutput bool) error {
	// Get the run history
	runs, err := db.GetRunHistory(ctx, host)
	if err != nil {
		return fmt.Errorf("failed to get run history: %w", err)
	}

	if len(runs) == 0 {
		return fmt.Errorf("no run history found for %s", host)
	}

	if len(runs) < 2 && withRunID == 0 && sinceDate == "" {
		return fmt.Errorf("at least 2 runs are required for comparison (found %d)", len(runs))
	}

	// Latest run is always the current one
	currentReport, err := db.GetReportByID(ctx, runs[0].ID)
	if err != nil {
		return fmt.Errorf("failed to load latest run: %w", err)
	}
	currentTime := runs[0].Timestamp

	var previousReport *model.CrawlReport
	var previousTime time.Time

	switch {
	case withRunID > 0:
		// Find the run with the specified ID
		previousReport, err = db.GetReportByID(ctx, withRunID)
		if err != nil {
			return fmt.Errorf("failed to get run with ID %d: %w", withRunID, err)
		}
		if previousReport == nil {
			return fmt.Errorf("run with ID %d not found", withRunID)
		}
		// Validate that the run belongs to the same host
		if previousReport.Host != host {
			return fmt.Errorf("run ID %d belongs to %s, not %s", withRunID, previousReport.Host, host)
		}
		for _, meta := range runs {
			if meta.ID == withRunID {
				previousTime = meta.Timestamp
			}
		}
	case sinceDate != "":
		parsedDate, err := time.Parse("2006-01-02", sinceDate)
		if err != nil {
			return fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
		}

		// Runs are sorted newest first, so iterate in reverse to find the
		// oldest run at or after the date.
		var previousID int64
		for i := len(runs) - 1; i >= 0; i-- {
			if !runs[i].Timestamp.Before(parsedDate) {
				previousID = runs[i].ID
				previousTime = runs[i].Timestamp
				break
			}
		}
		if previousID == 0 {
			return fmt.Errorf("no runs found since %s", sinceDate)
		}
		if previousID == runs[0].ID {
			return fmt.Errorf("only one run found since %s; at least 2 runs are required for comparison", sinceDate)
		}
		previousReport, err = db.GetReportByID(ctx, previousID)
		if err != nil {
			return fmt.Errorf("failed to load run %d: %w", previousID, err)
		}
	default:
		// Default: compare with the previous run
		previousReport, err = db.GetReportByID(ctx, runs[1].ID)
		if err != nil {
			return fmt.Errorf("failed to load previous run: %w", err)
		}
		previousTime = runs[1].Timestamp
	}

	// Generate comparison result
	comparison := compareRuns(previousReport, currentReport, previousTime, currentTime)

	// Output the result
	if jsonOutput {
		return outputComparisonJSON(comparison)
	}
	if markdownOutput {
		return outputComparisonMarkdown(comparison)
	}
	return outputComparisonText(comparison)
}

// ComparisonResult holds the result of comparing two crawl runs.
type ComparisonResult struct {
	// Host is the crawled host.
	Host string `json:"host"`

	// PreviousRun contains metadata about the previous run.
	PreviousRun RunSummary `json:"previous_run"`

	// CurrentRun contains metadata about the current run.
	CurrentRun RunSummary `json:"current_run"`

	// ImprovedPages contains pages whose score increased.
	ImprovedPages []PageDelta `json:"improved_pages,omitempty"`

	// WorsenedPages contains pages whose score decreased.
	WorsenedPages []PageDelta `json:"worsened_pages,omitempty"`

	// NewPages contains pages analyzed in the current run but not the previous.
	NewPages []PageDelta `json:"new_pages,omitempty"`

	// RemovedPages contains pages analyzed in the previous run but not the current.
	RemovedPages []PageDelta `json:"removed_pages,omitempty"`

	// NewBroken contains URLs that broke since the previous run.
	NewBroken []string `json:"new_broken,omitempty"`

	// FixedBroken contains URLs that were broken and now respond.
	FixedBroken []string `json:"fixed_broken,omitempty"`

	// UnchangedCount is the number of pages whose score did not change.
	UnchangedCount int `json:"unchanged_count"`

	// ScoreChange describes the overall change in SEO quality.
	ScoreChange ScoreChange `json:"score_change"`
}

// RunSummary contains metadata about a run for comparison display.
type RunSummary struct {
	// DateCrawled is when the run was performed.
	DateCrawled time.Time `json:"date_crawled"`

	// PagesVisited is the number of URLs that received a response.
	PagesVisited int `json:"pages_visited"`

	// PagesAnalyzed is the number of pages that were scored.
	PagesAnalyzed int `json:"pages_analyzed"`

	// BrokenLinks is the number of failed URLs.
	BrokenLinks int `json:"broken_links"`

	// AverageScore is the mean score across analyzed pages.
	AverageScore float64 `json:"average_score"`
}

// PageDelta describes a per-page score change between two runs.
type PageDelta struct {
	// URL is the page address.
	URL string `json:"url"`

	// PreviousScore is the score in the previous run. Zero for new pages.
	PreviousScore int `json:"previous_score"`

	// CurrentScore is the score in the current run. Zero for removed pages.
	CurrentScore int `json:"current_score"`

	// Delta is CurrentScore minus PreviousScore.
	Delta int `json:"delta"`
}

// ScoreChange describes the change in SEO quality between runs.
type ScoreChange struct {
	// Direction is "improved", "worsened", or "unchanged".
	Direction string `json:"direction"`

	// AverageDelta is the change in average score.
	AverageDelta float64 `json:"average_delta"`

	// BrokenDelta is the change in broken link count.
	BrokenDelta int `json:"broken_delta"`
}

// compareRuns compares two crawl runs and generates a comparison result.
func compareRuns(previous, current *model.CrawlReport, previousTime, currentTime time.Time) *ComparisonResult {
	result := &ComparisonResult{
		Host:        current.Host,
		PreviousRun: runSummary(previous, previousTime),
		CurrentRun:  runSummary(current, currentTime),
	}

	// Build per-page score maps for comparison
	previousScores := make(map[string]int)
	for _, rec := range previous.AnalyzedRecords() {
		previousScores[rec.URL] = rec.Score
	}
	currentScores := make(map[string]int)
	for _, rec := range current.AnalyzedRecords() {
		currentScores[rec.URL] = rec.Score
	}

	// Classify pages, walking the current run's records to keep crawl order
	for _, rec := range current.AnalyzedRecords() {
		prevScore, existed := previousScores[rec.URL]
		if !existed {
			result.NewPages = append(result.NewPages, PageDelta{
				URL: rec.URL, CurrentScore: rec.Score, Delta: rec.Score,
			})
			continue
		}
		switch {
		case rec.Score > prevScore:
			result.ImprovedPages = append(result.ImprovedPages, PageDelta{
				URL: rec.URL, PreviousScore: prevScore, CurrentScore: rec.Score, Delta: rec.Score - prevScore,
			})
		case rec.Score < prevScore:
			result.WorsenedPages = append(result.WorsenedPages, PageDelta{
				URL: rec.URL, PreviousScore: prevScore, CurrentScore: rec.Score, Delta: rec.Score - prevScore,
			})
		default:
			result.UnchangedCount++
		}
	}

	// Pages that disappeared since the previous run
	for _, rec := range previous.AnalyzedRecords() {
		if _, exists := currentScores[rec.URL]; !exists {
			result.RemovedPages = append(result.RemovedPages, PageDelta{
				URL: rec.URL, PreviousScore: rec.Score, Delta: -rec.Score,
			})
		}
	}

	// Broken link changes
	previousBroken := make(map[string]bool)
	for _, rec := range previous.BrokenRecords() {
		previousBroken[rec.URL] = true
	}
	currentBroken := make(map[string]bool)
	for _, rec := range current.BrokenRecords() {
		currentBroken[rec.URL] = true
		if !previousBroken[rec.URL] {
			result.NewBroken = append(result.NewBroken, rec.URL)
		}
	}
	for _, rec := range previous.BrokenRecords() {
		if !currentBroken[rec.URL] {
			result.FixedBroken = append(result.FixedBroken, rec.URL)
		}
	}

	result.ScoreChange = calculateScoreChange(result.PreviousRun, result.CurrentRun)

	return result
}

// runSummary extracts display metadata from a saved report.
func runSummary(report *model.CrawlReport, timestamp time.Time) RunSummary {
	return RunSummary{
		DateCrawled:   timestamp,
		PagesVisited:  report.PagesVisited,
		PagesAnalyzed: report.PagesAnalyzed,
		BrokenLinks:   report.BrokenLinks,
		AverageScore:  report.AverageScore(),
	}
}

// calculateScoreChange calculates the overall quality change between two runs.
// Average score dominates; broken links only break ties.
func calculateScoreChange(previous, current RunSummary) ScoreChange {
	change := ScoreChange{
		AverageDelta: current.AverageScore - previous.AverageScore,
		BrokenDelta:  current.BrokenLinks - previous.BrokenLinks,
	}

	switch {
	case change.AverageDelta > 0:
		change.Direction = scoreDirectionImproved
	case change.AverageDelta < 0:
		change.Direction = scoreDirectionWorsened
	case change.BrokenDelta < 0:
		change.Direction = scoreDirectionImproved
	case change.BrokenDelta > 0:
		change.Direction = scoreDirectionWorsened
	default:
		change.Direction = scoreDirectionUnchanged
	}

	return change
}

// outputComparisonJSON outputs the comparison result in JSON format.
func outputComparisonJSON(result *ComparisonResult) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// outputComparisonMarkdown outputs the comparison result in Markdown format.
func outputComparisonMarkdown(result *ComparisonResult) error {
	fmt.Printf("# Crawl Comparison: %s\n\n", result.Host)

	fmt.Println("## Summary")
	fmt.Printf("\n**SEO Status:** %s\n\n", formatScoreDirection(result.ScoreChange.Direction))

	fmt.Println("| Metric | Previous | Current | Change |")
	fmt.Println("|--------|----------|---------|--------|")
	fmt.Printf("| Date | %s | %s | - |\n",
		result.PreviousRun.DateCrawled.Format("2006-01-02 15:04"),
		result.CurrentRun.DateCrawled.Format("2006-01-02 15:04"))
	fmt.Printf("| Pages Visited | %d | %d | %s |\n",
		result.PreviousRun.PagesVisited,
		result.CurrentRun.PagesVisited,
		formatDelta(result.CurrentRun.PagesVisited-result.PreviousRun.PagesVisited))
	fmt.Printf("| Pages Scored | %d | %d | %s |\n",
		result.PreviousRun.PagesAnalyzed,
		result.CurrentRun.PagesAnalyzed,
		formatDelta(result.CurrentRun.PagesAnalyzed-result.PreviousRun.PagesAnalyzed))
	fmt.Printf("| Broken Links | %d | %d | %s |\n",
		result.PreviousRun.BrokenLinks,
		result.CurrentRun.BrokenLinks,
		formatDelta(result.ScoreChange.BrokenDelta))
	fmt.Printf("| **Average Score** | **%.1f** | **%.1f** | **%+.1f** |\n",
		result.PreviousRun.AverageScore,
		result.CurrentRun.AverageScore,
		result.ScoreChange.AverageDelta)

	if len(result.ImprovedPages) > 0 {
		fmt.Printf("\n## Improved Pages (%d)\n\n", len(result.ImprovedPages))
		for _, p := range result.ImprovedPages {
			fmt.Printf("- **%s** %d → %d (%s)\n", p.URL, p.PreviousScore, p.CurrentScore, formatDelta(p.Delta))
		}
	}

	if len(result.WorsenedPages) > 0 {
		fmt.Printf("\n## Worsened Pages (%d)\n\n", len(result.WorsenedPages))
		for _, p := range result.WorsenedPages {
			fmt.Printf("- **%s** %d → %d (%s)\n", p.URL, p.PreviousScore, p.CurrentScore, formatDelta(p.Delta))
		}
	}

	if len(result.NewPages) > 0 {
		fmt.Printf("\n## New Pages (%d)\n\n", len(result.NewPages))
		for _, p := range result.NewPages {
			fmt.Printf("- **%s** scored %d\n", p.URL, p.CurrentScore)
		}
	}

	if len(result.RemovedPages) > 0 {
		fmt.Printf("\n## Removed Pages (%d)\n\n", len(result.RemovedPages))
		for _, p := range result.RemovedPages {
			fmt.Printf("- ~~%s~~ (was %d)\n", p.URL, p.PreviousScore)
		}
	}

	if len(result.NewBroken) > 0 {
		fmt.Printf("\n## New Broken Links (%d)\n\n", len(result.NewBroken))
		for _, url := range result.NewBroken {
			fmt.Printf("- `%s`\n", url)
		}
	}

	if len(result.FixedBroken) > 0 {
		fmt.Printf("\n## Fixed Broken Links (%d)\n\n", len(result.FixedBroken))
		for _, url := range result.FixedBroken {
			fmt.Printf("- `%s`\n", url)
		}
	}

	if result.UnchangedCount > 0 {
		fmt.Printf("\n---\n\n*%d pages unchanged*\n", result.UnchangedCount)
	}

	return nil
}

// outputComparisonText outputs the comparison result in human-readable text format.
func outputComparisonText(result *ComparisonResult) error {
	fmt.Printf("Crawl Comparison: %s\n", result.Host)
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\nSEO Status: %s\n", formatScoreDirection(result.ScoreChange.Direction))

	fmt.Printf("\nPrevious run: %s\n", result.PreviousRun.DateCrawled.Format("2006-01-02 15:04:05"))
	fmt.Printf("Current run:  %s\n", result.CurrentRun.DateCrawled.Format("2006-01-02 15:04:05"))

	fmt.Println("\nRun Summary:")
	fmt.Printf("  %-14s  %-10s  %-10s  %-10s\n", "Metric", "Previous", "Current", "Change")
	fmt.Println("  " + strings.Repeat("-", 50))
	fmt.Printf("  %-14s  %-10d  %-10d  %-10s\n", "Visited",
		result.PreviousRun.PagesVisited, result.CurrentRun.PagesVisited,
		formatDelta(result.CurrentRun.PagesVisited-result.PreviousRun.PagesVisited))
	fmt.Printf("  %-14s  %-10d  %-10d  %-10s\n", "Scored",
		result.PreviousRun.PagesAnalyzed, result.CurrentRun.PagesAnalyzed,
		formatDelta(result.CurrentRun.PagesAnalyzed-result.PreviousRun.PagesAnalyzed))
	fmt.Printf("  %-14s  %-10d  %-10d  %-10s\n", "Broken",
		result.PreviousRun.BrokenLinks, result.CurrentRun.BrokenLinks,
		formatDelta(result.ScoreChange.BrokenDelta))
	fmt.Printf("  %-14s  %-10.1f  %-10.1f  %+-10.1f\n", "Average Score",
		result.PreviousRun.AverageScore, result.CurrentRun.AverageScore,
		result.ScoreChange.AverageDelta)

	if len(result.ImprovedPages) > 0 {
		fmt.Printf("\nImproved Pages (%d):\n", len(result.ImprovedPages))
		for _, p := range result.ImprovedPages {
			fmt.Printf("  [+] %s: %d -> %d (%s)\n", p.URL, p.PreviousScore, p.CurrentScore, formatDelta(p.Delta))
		}
	}

	if len(result.WorsenedPages) > 0 {
		fmt.Printf("\nWorsened Pages (%d):\n", len(result.WorsenedPages))
		for _, p := range result.WorsenedPages {
			fmt.Printf("  [-] %s: %d -> %d (%s)\n", p.URL, p.PreviousScore, p.CurrentScore, formatDelta(p.Delta))
		}
	}

	if len(result.NewPages) > 0 {
		fmt.Printf("\nNew Pages (%d):\n", len(result.NewPages))
		for _, p := range result.NewPages {
			fmt.Printf("  [+] %s scored %d\n", p.URL, p.CurrentScore)
		}
	}

	if len(result.RemovedPages) > 0 {
		fmt.Printf("\nRemoved Pages (%d):\n", len(result.RemovedPages))
		for _, p := range result.RemovedPages {
			fmt.Printf("  [-] %s (was %d)\n", p.URL, p.PreviousScore)
		}
	}

	if len(result.NewBroken) > 0 {
		fmt.Printf("\nNew Broken Links (%d):\n", len(result.NewBroken))
		for _, url := range result.NewBroken {
			fmt.Printf("  [x] %s\n", url)
		}
	}

	if len(result.FixedBroken) > 0 {
		fmt.Printf("\nFixed Broken Links (%d):\n", len(result.FixedBroken))
		for _, url := range result.FixedBroken {
			fmt.Printf("  [o] %s\n", url)
		}
	}

	if result.UnchangedCount > 0 {
		fmt.Printf("\nUnchanged: %d pages\n", result.UnchangedCount)
	}

	if result.CurrentRun.PagesAnalyzed == 0 && result.PreviousRun.PagesAnalyzed == 0 {
		fmt.Println("\n" + noPagesMessage)
	}

	return nil
}

// formatScoreDirection formats the score change direction for display.
func formatScoreDirection(direction string) string {
	switch direction {
	case scoreDirectionImproved:
		return "IMPROVED (average score increased)"
	case scoreDirectionWorsened:
		return "WORSENED (average score decreased)"
	default:
		return "UNCHANGED"
	}
}

// formatDelta formats a numeric delta with sign for display.
func formatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	} else if delta < 0 {
		return strconv.Itoa(delta)
	}
	return "0"
}
