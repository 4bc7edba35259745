package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfPageWidth  = 277.0 // A4 landscape minus margins
	pdfHeaderRow  = 8.0
	pdfBodyRow    = 6.5
	pdfBottomEdge = 190.0
)

// PDFExporter renders datasets as a landscape A4 table with repeated headers.
type PDFExporter struct {
	now func() time.Time
}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{now: time.Now}
}

// Render lays the dataset out under title. Rows flow onto new pages as needed.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if err := data.validate(); err != nil {
		return nil, err
	}
	widths := columnWidths(data)

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(false, 10)
	pdf.SetTitle(title, true)
	generated := e.now().UTC().Format("2006-01-02 15:04 UTC")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 6, fmt.Sprintf("Generated %s - page %d", generated, pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	header := func() {
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(220, 220, 220)
		for i, h := range data.Headers {
			pdf.CellFormat(widths[i], pdfHeaderRow, h, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 8)
	}

	pdf.AddPage()
	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, title, "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}
	header()

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	for _, row := range data.Rows {
		if pdf.GetY()+pdfBodyRow > pdfBottomEdge {
			pdf.AddPage()
			header()
		}
		fill := data.Shade != nil && data.Shade(row)
		if fill {
			pdf.SetFillColor(242, 242, 242)
		}
		for i, value := range data.record(row) {
			pdf.CellFormat(widths[i], pdfBodyRow, tr(value), "1", 0, "", fill, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func columnWidths(data Dataset) []float64 {
	widths := make([]float64, len(data.Headers))
	if len(data.Widths) == 0 {
		for i := range widths {
			widths[i] = pdfPageWidth / float64(len(widths))
		}
		return widths
	}
	total := 0.0
	for _, w := range data.Widths {
		total += w
	}
	for i, w := range data.Widths {
		widths[i] = pdfPageWidth * w / total
	}
	return widths
}
