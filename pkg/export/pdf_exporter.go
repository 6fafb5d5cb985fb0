package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/noah-isme/rsvp-agenda/pkg/palette"
)

const (
	pageWidth   = 277.0
	accentWidth = 3.0
)

// PDFExporter renders datasets into a landscape table, one block per section.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document with the dataset title and a table per
// section. Rows with an accent color get a colored marker cell.
func (e *PDFExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if data.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, tr(data.Title), "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}

	colWidth := (pageWidth - accentWidth) / float64(len(data.Headers))
	header := func() {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(accentWidth, 8, "", "1", 0, "", false, 0, "")
		for _, h := range data.Headers {
			pdf.CellFormat(colWidth, 8, tr(h), "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if data.RowCount() == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.CellFormat(0, 8, "No events", "", 1, "C", false, 0, "")
	}

	for _, section := range data.Sections {
		if len(section.Rows) == 0 {
			continue
		}
		if section.Label != "" {
			pdf.SetFont("Arial", "B", 11)
			pdf.CellFormat(0, 9, tr(section.Label), "", 1, "", false, 0, "")
		}
		header()
		pdf.SetFont("Arial", "", 9)
		for _, row := range section.Rows {
			fill := false
			if r, g, b, ok := palette.RGB(row.Accent); ok {
				pdf.SetFillColor(int(r), int(g), int(b))
				fill = true
			}
			pdf.CellFormat(accentWidth, 7, "", "1", 0, "", fill, 0, "")
			for i := range data.Headers {
				pdf.CellFormat(colWidth, 7, tr(row.value(i)), "1", 0, "", false, 0, "")
			}
			pdf.Ln(-1)
		}
		pdf.Ln(2)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
