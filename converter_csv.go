package docdrip

import (
	"context"
	"encoding/csv"
	"fmt"
	"strings"
)

// CsvConverter renders CSV files as markdown tables.
type CsvConverter struct{}

// NewCsvConverter creates a new CsvConverter.
func NewCsvConverter() *CsvConverter {
	return &CsvConverter{}
}

func (c *CsvConverter) Validate(data []byte, info SourceInfo) error {
	text, _ := decodeText(data, info.Charset)
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	if _, err := r.Read(); err != nil {
		return fmt.Errorf("not parseable as CSV: %v", err)
	}
	return nil
}

func (c *CsvConverter) Convert(ctx context.Context, data []byte, info SourceInfo) (*ConversionResult, error) {
	text, warning := decodeText(data, info.Charset)

	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1 // allow ragged rows
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse CSV: %w", err)
	}

	res := &ConversionResult{Markdown: renderMarkdownTable(records)}
	if warning != "" {
		res.Warnings = append(res.Warnings, warning)
	}
	if ragged(records) {
		res.Warnings = append(res.Warnings, "rows have inconsistent column counts; short rows were padded")
	}
	return res, nil
}

func ragged(records [][]string) bool {
	if len(records) < 2 {
		return false
	}
	want := len(records[0])
	for _, row := range records[1:] {
		if len(row) != want {
			return true
		}
	}
	return false
}

// renderMarkdownTable renders rows as a markdown table, using the
// first row as the header. Shared with the spreadsheet converters.
func renderMarkdownTable(records [][]string) string {
	if len(records) == 0 {
		return ""
	}

	numCols := len(records[0])
	var b strings.Builder

	writeRow := func(row []string) {
		b.WriteString("|")
		for i := 0; i < numCols; i++ {
			cell := ""
			if i < len(row) {
				cell = strings.ReplaceAll(row[i], "|", "\\|")
			}
			b.WriteString(" ")
			b.WriteString(cell)
			b.WriteString(" |")
		}
		b.WriteString("\n")
	}

	writeRow(records[0])

	b.WriteString("|")
	for i := 0; i < numCols; i++ {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")

	for _, row := range records[1:] {
		writeRow(row)
	}

	return b.String()
}
