package docdrip

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

var pdfMagic = []byte("%PDF-")

// PdfConverter extracts text content from PDF files.
type PdfConverter struct{}

// NewPdfConverter creates a new PdfConverter.
func NewPdfConverter() *PdfConverter {
	return &PdfConverter{}
}

func (c *PdfConverter) Validate(data []byte, info SourceInfo) error {
	if !bytes.HasPrefix(data, pdfMagic) {
		return errors.New("missing %PDF header")
	}
	if _, err := pdf.NewReader(bytes.NewReader(data), int64(len(data))); err != nil {
		return fmt.Errorf("unreadable PDF structure: %v", err)
	}
	return nil
}

func (c *PdfConverter) Convert(ctx context.Context, data []byte, info SourceInfo) (*ConversionResult, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}

	res := &ConversionResult{}
	var md strings.Builder
	numPages := r.NumPage()

	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		text := extractPageText(page)
		if text == "" {
			res.Warnings = append(res.Warnings, fmt.Sprintf("page %d has no extractable text", i))
			continue
		}

		md.WriteString(text)
		md.WriteString("\n\n")
	}

	res.Markdown = md.String()
	if strings.TrimSpace(res.Markdown) == "" {
		res.Warnings = append(res.Warnings, "no readable text content found in PDF")
	}
	return res, nil
}

// extractPageText extracts one page's text, inserting word boundaries
// where the content stream marks them with empty strings.
func extractPageText(page pdf.Page) string {
	rows, err := page.GetTextByRow()
	if err != nil || len(rows) == 0 {
		return ""
	}

	var result strings.Builder
	for _, row := range rows {
		var line strings.Builder
		prevWasEmpty := false
		for _, word := range row.Content {
			s := word.S
			if s == "" {
				prevWasEmpty = true
				continue
			}
			if line.Len() > 0 && prevWasEmpty {
				last := line.String()
				if last[len(last)-1] != ' ' {
					line.WriteString(" ")
				}
			}
			line.WriteString(s)
			prevWasEmpty = false
		}
		if text := strings.TrimSpace(line.String()); text != "" {
			result.WriteString(text)
			result.WriteString("\n")
		}
	}

	return strings.TrimSpace(result.String())
}
