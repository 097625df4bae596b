package docdrip

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"

	"github.com/docdrip/docdrip/internal/ooxml"
)

// DocxConverter handles DOCX files by lowering word/document.xml to
// intermediate HTML and rendering that through the HTML converter.
// Embedded images and OMML math are not carried into the markdown;
// they are reported as warnings.
type DocxConverter struct {
	engine *Engine
}

// NewDocxConverter creates a new DocxConverter.
func NewDocxConverter(e *Engine) *DocxConverter {
	return &DocxConverter{engine: e}
}

func (c *DocxConverter) Validate(data []byte, info SourceInfo) error {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return errors.New("not a valid zip container")
	}
	if !ooxml.HasFile(zr, "word/document.xml") {
		return errors.New("missing word/document.xml part")
	}
	return nil
}

func (c *DocxConverter) Convert(ctx context.Context, data []byte, info SourceInfo) (*ConversionResult, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open DOCX container: %w", err)
	}

	rels, err := ooxml.Relationships(zr, "word/_rels/document.xml.rels")
	if err != nil {
		return nil, fmt.Errorf("parse DOCX relationships: %w", err)
	}

	docData, err := ooxml.ReadFile(zr, "word/document.xml")
	if err != nil {
		return nil, fmt.Errorf("read document.xml: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	htmlStr, warnings := docxBodyToHTML(docData, rels)

	res, err := NewHTMLConverter(c.engine).ConvertString(htmlStr)
	if err != nil {
		return nil, fmt.Errorf("render DOCX body: %w", err)
	}
	res.Warnings = append(res.Warnings, warnings...)
	return res, nil
}

// docxBodyToHTML streams document.xml into HTML: paragraphs, headings
// (by style id), list items, bold/italic/strikethrough runs,
// hyperlinks, and tables. Everything else is skipped and recorded.
func docxBodyToHTML(docData []byte, rels map[string]ooxml.Relationship) (string, []string) {
	decoder := xml.NewDecoder(bytes.NewReader(docData))

	var (
		blocks     []string
		para       strings.Builder
		cell       strings.Builder
		textBuf    strings.Builder
		tableRows  [][]string
		currentRow []string

		inText      bool
		inTableCell bool
		bold        bool
		italic      bool
		strike      bool
		hyperRef    string
		styleID     string
		inList      bool
		sawImage    bool
		sawMath     bool
	)

	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				para.Reset()
				styleID = ""
				inList = false

			case "pStyle":
				for _, attr := range t.Attr {
					if attr.Name.Local == "val" {
						styleID = attr.Value
					}
				}

			case "numPr":
				inList = true

			case "r":
				bold, italic, strike = false, false, false

			case "b":
				bold = !hasZeroVal(t)

			case "i":
				italic = !hasZeroVal(t)

			case "strike":
				strike = true

			case "t":
				inText = true
				textBuf.Reset()

			case "tab":
				writeInline(&para, &cell, inTableCell, "\t")

			case "br":
				writeInline(&para, &cell, inTableCell, "<br/>")

			case "hyperlink":
				for _, attr := range t.Attr {
					if attr.Name.Local == "id" {
						if rel, ok := rels[attr.Value]; ok {
							hyperRef = rel.Target
						}
					}
				}

			case "tbl":
				tableRows = nil

			case "tr":
				currentRow = nil

			case "tc":
				inTableCell = true
				cell.Reset()

			case "drawing", "pict":
				sawImage = true
				decoder.Skip()

			case "oMath", "oMathPara":
				sawMath = true
				decoder.Skip()
			}

		case xml.CharData:
			if inText {
				textBuf.Write(t)
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				if !inText {
					break
				}
				text := escapeHTMLText(textBuf.String())
				if bold {
					text = "<b>" + text + "</b>"
				}
				if italic {
					text = "<i>" + text + "</i>"
				}
				if strike {
					text = "<s>" + text + "</s>"
				}
				if hyperRef != "" {
					text = `<a href="` + escapeHTMLAttr(hyperRef) + `">` + text + "</a>"
				}
				writeInline(&para, &cell, inTableCell, text)
				inText = false

			case "hyperlink":
				hyperRef = ""

			case "p":
				pText := para.String()
				para.Reset()
				if inTableCell {
					cell.WriteString(pText)
					break
				}
				switch {
				case pText == "":
				case docxHeadingLevel(styleID) > 0:
					tag := fmt.Sprintf("h%d", docxHeadingLevel(styleID))
					blocks = append(blocks, "<"+tag+">"+pText+"</"+tag+">")
				case inList:
					blocks = append(blocks, "<li>"+pText+"</li>")
				default:
					blocks = append(blocks, "<p>"+pText+"</p>")
				}

			case "tc":
				currentRow = append(currentRow, cell.String())
				inTableCell = false

			case "tr":
				tableRows = append(tableRows, currentRow)

			case "tbl":
				if len(tableRows) > 0 {
					blocks = append(blocks, renderHTMLTable(tableRows))
				}
			}
		}
	}

	var warnings []string
	if sawImage {
		warnings = append(warnings, "embedded images were omitted")
	}
	if sawMath {
		warnings = append(warnings, "embedded math expressions were omitted")
	}

	return "<html><body>" + strings.Join(blocks, "\n") + "</body></html>", warnings
}

func writeInline(para, cell *strings.Builder, inTableCell bool, s string) {
	if inTableCell {
		cell.WriteString(s)
		return
	}
	para.WriteString(s)
}

// hasZeroVal reports whether a run property element carries val="0"
// or val="false", which negates the property.
func hasZeroVal(t xml.StartElement) bool {
	for _, attr := range t.Attr {
		if attr.Name.Local == "val" && (attr.Value == "0" || attr.Value == "false") {
			return true
		}
	}
	return false
}

// docxHeadingLevel maps Word style ids like "Heading1" or "heading 2"
// onto markdown heading levels, 0 meaning not a heading.
func docxHeadingLevel(styleID string) int {
	lower := strings.ToLower(styleID)
	for i := 1; i <= 6; i++ {
		if lower == fmt.Sprintf("heading%d", i) || lower == fmt.Sprintf("heading %d", i) {
			return i
		}
	}
	return 0
}

func renderHTMLTable(rows [][]string) string {
	var b strings.Builder
	b.WriteString("<table>")
	for i, row := range rows {
		tag := "td"
		if i == 0 {
			tag = "th"
		}
		b.WriteString("<tr>")
		for _, cell := range row {
			b.WriteString("<" + tag + ">" + cell + "</" + tag + ">")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</table>")
	return b.String()
}

func escapeHTMLText(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	return strings.ReplaceAll(s, ">", "&gt;")
}

func escapeHTMLAttr(s string) string {
	return strings.ReplaceAll(escapeHTMLText(s), `"`, "&quot;")
}
