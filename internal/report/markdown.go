package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"

	"github.com/nao1215/seoscan/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the full report in Markdown format.
func (w *MarkdownWriter) Write(report *model.CrawlReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeScores(md, report)
	w.writeBrokenLinks(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with crawl information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.CrawlReport) {
	md.H1("SEO Scan Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Start URL", "`" + report.StartURL + "`"},
			{"Crawl Date", report.DateCrawled.Format("2006-01-02 15:04:05 MST")},
			{"Pages Visited", strconv.Itoa(report.PagesVisited)},
			{"Pages Analyzed", strconv.Itoa(report.PagesAnalyzed)},
			{"Broken Links", strconv.Itoa(report.BrokenLinks)},
			{"Average Score", fmt.Sprintf("%.1f", report.AverageScore())},
			{"Status", w.getStatusText(report)},
		},
	})
	md.PlainText("")

	switch {
	case report.BrokenLinks > 0:
		md.Warningf("%d broken link(s) detected. See the broken links section below.", report.BrokenLinks)
	case report.PagesAnalyzed > 0:
		md.Tip("No broken links found.")
	}
	md.PlainText("")
}

// getStatusText returns the status text based on report state.
func (w *MarkdownWriter) getStatusText(report *model.CrawlReport) string {
	if report.Error != nil {
		return "❌ Error - " + report.Error.Error()
	}
	return "✅ Complete"
}

// writeScores writes the per-page score table with expandable analysis.
func (w *MarkdownWriter) writeScores(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Page Scores")
	md.PlainText("")

	analyzed := report.AnalyzedRecords()
	if len(analyzed) == 0 {
		md.PlainText("No pages were analyzed.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(analyzed))
	for i, rec := range analyzed {
		rows[i] = []string{
			strconv.Itoa(rec.Score),
			"`" + rec.URL + "`",
			truncateString(rec.Meta.Title, 50),
			strconv.Itoa(rec.StatusCode),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Score", "URL", "Title", "Status"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, rec := range analyzed {
		md.Details(rec.URL, rec.Analysis)
	}
	md.PlainText("")
}

// writeBrokenLinks writes the broken link section.
func (w *MarkdownWriter) writeBrokenLinks(md *markdown.Markdown, report *model.CrawlReport) {
	broken := report.BrokenRecords()
	if len(broken) == 0 {
		return
	}

	md.H2("Broken Links")
	md.PlainText("")

	rows := make([][]string, len(broken))
	for i, rec := range broken {
		status := "transport error"
		if rec.StatusCode != 0 {
			status = strconv.Itoa(rec.StatusCode)
		}
		referrer := rec.Referrer
		if referrer == "" {
			referrer = "-"
		}
		rows[i] = []string{"`" + rec.URL + "`", status, truncateString(referrer, 60)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Status", "Found On"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [seoscan](https://github.com/nao1215/seoscan)*")
}
