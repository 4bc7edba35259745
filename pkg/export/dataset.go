package export

import "fmt"

// Dataset is a tabular document: ordered headers plus rows keyed by header.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
	// Widths are relative column weights for paged output. Empty means equal columns.
	Widths []float64
	// Shade marks rows rendered with a background fill in paged output.
	Shade func(row map[string]string) bool
}

func (d Dataset) validate() error {
	if len(d.Headers) == 0 {
		return fmt.Errorf("dataset requires at least one header")
	}
	if len(d.Widths) != 0 && len(d.Widths) != len(d.Headers) {
		return fmt.Errorf("dataset has %d widths for %d headers", len(d.Widths), len(d.Headers))
	}
	return nil
}

func (d Dataset) record(row map[string]string) []string {
	record := make([]string, len(d.Headers))
	for i, header := range d.Headers {
		record[i] = row[header]
	}
	return record
}

// ContentType maps a file extension to the MIME type served on download.
func ContentType(format string) string {
	switch format {
	case "csv":
		return "text/csv; charset=utf-8"
	case "pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
