// Package report renders finished crawl reports.
//
// Four writers share one interface: SimpleWriter for terminals,
// MarkdownWriter for sharable documents, CSVWriter for spreadsheets and
// scripting, and XLSXWriter for Excel workbooks. MultiWriter fans one
// report out to several destinations at once.
package report
