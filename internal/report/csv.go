package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/seoscan/internal/model"
)

// csvHeader is the fixed column order of the CSV export.
var csvHeader = []string{
	"url", "status", "score", "title", "description", "keywords",
	"product/version", "lastModified", "analysis", "terms",
}

// CSVWriter exports per-page results as CSV rows.
// Every visited URL gets a row; metadata columns are empty for records
// that were probed or skipped rather than analyzed, so broken links are
// visible alongside scored pages.
type CSVWriter struct {
	baseWriter
}

// NewCSVWriter creates a CSVWriter that outputs to the given writer.
func NewCSVWriter(output io.Writer) *CSVWriter {
	return &CSVWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs one row per visited record.
// The byte count is approximate: encoding/csv does not expose written
// bytes, so the count is reconstructed from the rendered rows.
func (w *CSVWriter) Write(report *model.CrawlReport) (int, error) {
	cw := csv.NewWriter(w.output)

	total := rowLen(csvHeader)
	if err := cw.Write(csvHeader); err != nil {
		return 0, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, rec := range report.Records {
		if !rec.Visited() {
			continue
		}

		row := []string{
			rec.URL,
			strconv.Itoa(rec.StatusCode),
			strconv.Itoa(rec.Score),
			rec.Meta.Title,
			rec.Meta.Description,
			rec.Meta.Keywords,
			formatProductVersion(rec.Meta),
			rec.Meta.LastModified,
			rec.Analysis,
			formatTerms(rec.Terms),
		}
		if err := cw.Write(row); err != nil {
			return total, fmt.Errorf("failed to write CSV row for %s: %w", rec.URL, err)
		}
		total += rowLen(row)
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return total, fmt.Errorf("failed to flush CSV: %w", err)
	}
	return total, nil
}

// rowLen approximates the serialized length of one CSV row.
func rowLen(row []string) int {
	n := len(row) // separators plus newline
	for _, field := range row {
		n += len(field)
	}
	return n
}
