package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/nao1215/seoscan/internal/model"
)

// Sheet names of the Excel export.
const (
	summarySheet = "Summary"
	pagesSheet   = "Pages"
)

// XLSXWriter exports the report as an Excel workbook with a summary
// sheet and a per-page sheet. Spreadsheets are the format SEO reviews
// are usually shared and annotated in.
type XLSXWriter struct {
	baseWriter
}

// NewXLSXWriter creates an XLSXWriter that outputs to the given writer.
func NewXLSXWriter(output io.Writer) *XLSXWriter {
	return &XLSXWriter{baseWriter: newBaseWriter(output)}
}

// Write builds the workbook in memory and streams it to the output.
func (w *XLSXWriter) Write(report *model.CrawlReport) (int, error) {
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck // Best effort close

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return 0, fmt.Errorf("failed to create summary sheet: %w", err)
	}
	if err := w.writeSummary(f, report); err != nil {
		return 0, err
	}
	if err := w.writePages(f, report); err != nil {
		return 0, err
	}

	n, err := f.WriteTo(w.output)
	if err != nil {
		return int(n), fmt.Errorf("failed to write workbook: %w", err)
	}
	return int(n), nil
}

// writeSummary fills the summary sheet with run-level values.
func (w *XLSXWriter) writeSummary(f *excelize.File, report *model.CrawlReport) error {
	rows := []struct {
		label string
		value any
	}{
		{label: "Start URL", value: report.StartURL},
		{label: "Crawl Date", value: report.DateCrawled.Format("2006-01-02 15:04:05 MST")},
		{label: "Pages Visited", value: report.PagesVisited},
		{label: "Pages Analyzed", value: report.PagesAnalyzed},
		{label: "Broken Links", value: report.BrokenLinks},
		{label: "Average Score", value: report.AverageScore()},
	}

	for i, row := range rows {
		labelCell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("failed to build cell name: %w", err)
		}
		valueCell, err := excelize.CoordinatesToCellName(2, i+1)
		if err != nil {
			return fmt.Errorf("failed to build cell name: %w", err)
		}
		if err := f.SetCellValue(summarySheet, labelCell, row.label); err != nil {
			return fmt.Errorf("failed to write summary label: %w", err)
		}
		if err := f.SetCellValue(summarySheet, valueCell, row.value); err != nil {
			return fmt.Errorf("failed to write summary value: %w", err)
		}
	}
	return nil
}

// writePages fills the per-page sheet, one row per visited URL.
func (w *XLSXWriter) writePages(f *excelize.File, report *model.CrawlReport) error {
	if _, err := f.NewSheet(pagesSheet); err != nil {
		return fmt.Errorf("failed to create pages sheet: %w", err)
	}

	if err := f.SetSheetRow(pagesSheet, "A1", &csvHeader); err != nil {
		return fmt.Errorf("failed to write pages header: %w", err)
	}

	rowNum := 2
	for _, rec := range report.Records {
		if !rec.Visited() {
			continue
		}

		row := []any{
			rec.URL,
			rec.StatusCode,
			rec.Score,
			rec.Meta.Title,
			rec.Meta.Description,
			rec.Meta.Keywords,
			formatProductVersion(rec.Meta),
			rec.Meta.LastModified,
			rec.Analysis,
			formatTerms(rec.Terms),
		}
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return fmt.Errorf("failed to build cell name: %w", err)
		}
		if err := f.SetSheetRow(pagesSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write page row for %s: %w", rec.URL, err)
		}
		rowNum++
	}
	return nil
}
