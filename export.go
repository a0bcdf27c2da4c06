package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
)

const reportTitle = "Employee Churn Report"

// ReportExporter renders a Report into a paginated PDF under outputDir.
type ReportExporter struct {
	outputDir string
}

func NewReportExporter(outputDir string) *ReportExporter {
	return &ReportExporter{outputDir: outputDir}
}

// Export writes the report as a PDF and returns its path. The filename is
// derived from the generation timestamp; if a file for the same second
// already exists a short unique suffix is appended rather than
// overwriting. Failures are DocumentRenderError and leave the report
// value intact for a retry.
func (e *ReportExporter) Export(report Report) (string, error) {
	if err := os.MkdirAll(e.outputDir, 0755); err != nil {
		return "", &DocumentRenderError{Err: err}
	}

	filename := fmt.Sprintf("employee_churn_%s.pdf", report.GeneratedAt.Format("2006-01-02_15-04-05"))
	path := filepath.Join(e.outputDir, filename)
	if _, err := os.Stat(path); err == nil {
		suffix := uuid.NewString()[:8]
		filename = fmt.Sprintf("employee_churn_%s_%s.pdf", report.GeneratedAt.Format("2006-01-02_15-04-05"), suffix)
		path = filepath.Join(e.outputDir, filename)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(reportTitle, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, reportTitle, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, report.GeneratedAt.Format("2006-01-02 15:04:05"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	writeAttributeTable(pdf, report)
	pdf.Ln(6)

	// Narrative paragraphs split on blank lines, each laid out on its own
	// so page breaks fall between paragraphs where possible.
	pdf.SetFont("Helvetica", "", 11)
	for _, paragraph := range splitParagraphs(report.NarrativeText) {
		pdf.MultiCell(0, 5.5, paragraph, "", "L", false)
		pdf.Ln(3)
	}

	if err := pdf.Error(); err != nil {
		return "", &DocumentRenderError{Err: err}
	}
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", &DocumentRenderError{Err: err}
	}
	return path, nil
}

func writeAttributeTable(pdf *gofpdf.Fpdf, report Report) {
	const keyWidth, valWidth, rowHeight = 70.0, 110.0, 7.0

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(235, 235, 235)
	pdf.CellFormat(keyWidth, rowHeight, "Attribute", "1", 0, "L", true, 0, "")
	pdf.CellFormat(valWidth, rowHeight, "Value", "1", 1, "L", true, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, key := range report.AttributeOrder {
		pdf.CellFormat(keyWidth, rowHeight, key, "1", 0, "L", false, 0, "")
		pdf.CellFormat(valWidth, rowHeight, report.AttributeTable[key], "1", 1, "L", false, 0, "")
	}
}

// splitParagraphs breaks narrative text on blank-line boundaries.
func splitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var paragraphs []string
	for _, block := range strings.Split(text, "\n\n") {
		block = strings.TrimSpace(block)
		if block != "" {
			paragraphs = append(paragraphs, block)
		}
	}
	return paragraphs
}
