package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/seoscan/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// verbose enables the per-page analysis and term list.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with per-page analysis details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.CrawlReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeScores(&sb, report)
	w.writeBrokenLinks(&sb, report)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with crawl information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                          SEOSCAN REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Start URL:      %s\n", report.StartURL))
	sb.WriteString(fmt.Sprintf("Crawl Date:     %s\n", report.DateCrawled.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Elapsed:        %s\n", report.Elapsed.Round(10*time.Millisecond)))
	sb.WriteString(fmt.Sprintf("Pages Visited:  %d\n", report.PagesVisited))
	sb.WriteString(fmt.Sprintf("Pages Analyzed: %d\n", report.PagesAnalyzed))
	sb.WriteString(fmt.Sprintf("Broken Links:   %d\n", report.BrokenLinks))
	sb.WriteString(fmt.Sprintf("Average Score:  %.1f\n", report.AverageScore()))

	if report.Error != nil {
		sb.WriteString(fmt.Sprintf("Status:         ERROR - %s\n", report.Error))
	} else {
		sb.WriteString("Status:         Complete\n")
	}
	sb.WriteString("\n")
}

// writeScores writes the per-page score section.
func (w *SimpleWriter) writeScores(sb *strings.Builder, report *model.CrawlReport) {
	analyzed := report.AnalyzedRecords()
	if len(analyzed) == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("PAGE SCORES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, rec := range analyzed {
		title := rec.Meta.Title
		if title == "" {
			title = "(no title)"
		}
		sb.WriteString(fmt.Sprintf("  [%4d] %s\n", rec.Score, rec.URL))
		sb.WriteString(fmt.Sprintf("         %s\n", title))
		if w.verbose {
			sb.WriteString(fmt.Sprintf("         Analysis: %s\n", rec.Analysis))
			if len(rec.Terms) > 0 {
				sb.WriteString(fmt.Sprintf("         Terms: %s\n", formatTerms(topTerms(rec.Terms, 10))))
			}
		}
	}
	sb.WriteString("\n")
}

// writeBrokenLinks writes the broken link section.
func (w *SimpleWriter) writeBrokenLinks(sb *strings.Builder, report *model.CrawlReport) {
	broken := report.BrokenRecords()
	if len(broken) == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("BROKEN LINKS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, rec := range broken {
		status := "transport error"
		if rec.StatusCode != 0 {
			status = fmt.Sprintf("status %d", rec.StatusCode)
		}
		sb.WriteString(fmt.Sprintf("  [x] %s (%s)\n", rec.URL, status))
		if rec.Referrer != "" {
			sb.WriteString(fmt.Sprintf("      found on: %s\n", rec.Referrer))
		}
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by seoscan\n")
	sb.WriteString("https://github.com/nao1215/seoscan\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

// topTerms returns at most n leading entries of a frequency list.
func topTerms(terms []model.TermFrequency, n int) []model.TermFrequency {
	if len(terms) <= n {
		return terms
	}
	return terms[:n]
}
