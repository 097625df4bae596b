package docdrip

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/" + name)
	if err != nil {
		t.Fatalf("read fixture %s: %v", name, err)
	}
	return data
}

// buildZip assembles an in-memory zip archive from name/content pairs,
// preserving the given order.
func buildZip(t *testing.T, entries [][2]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, entry := range entries {
		f, err := w.Create(entry[0])
		if err != nil {
			t.Fatalf("create zip entry %q: %v", entry[0], err)
		}
		if _, err := f.Write([]byte(entry[1])); err != nil {
			t.Fatalf("write zip entry %q: %v", entry[0], err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func buildDocx(t *testing.T) []byte {
	t.Helper()
	return buildZip(t, [][2]string{
		{"[Content_Types].xml", `<?xml version="1.0"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`},
		{"_rels/.rels", `<?xml version="1.0"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"/>`},
		{"word/document.xml", `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t>Quarterly Report</w:t></w:r></w:p>
<w:p><w:r><w:rPr><w:b/></w:rPr><w:t>Revenue</w:t></w:r><w:r><w:t xml:space="preserve"> grew in the third quarter.</w:t></w:r></w:p>
<w:tbl>
<w:tr><w:tc><w:p><w:r><w:t>Region</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>Total</w:t></w:r></w:p></w:tc></w:tr>
<w:tr><w:tc><w:p><w:r><w:t>North</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>1200</w:t></w:r></w:p></w:tc></w:tr>
</w:tbl>
</w:body>
</w:document>`},
	})
}

func buildPptx(t *testing.T) []byte {
	t.Helper()
	return buildZip(t, [][2]string{
		{"[Content_Types].xml", `<?xml version="1.0"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`},
		{"ppt/presentation.xml", `<?xml version="1.0"?><p:presentation xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"/>`},
		{"ppt/slides/slide1.xml", `<?xml version="1.0"?>
<p:sld xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">
<p:cSld><p:spTree><p:sp><p:txBody>
<a:p><a:r><a:t>Roadmap Overview</a:t></a:r></a:p>
<a:p><a:r><a:t>Ship the beta in October</a:t></a:r></a:p>
</p:txBody></p:sp></p:spTree></p:cSld>
</p:sld>`},
	})
}

func buildEpub(t *testing.T) []byte {
	t.Helper()
	return buildZip(t, [][2]string{
		{"mimetype", "application/epub+zip"},
		{"META-INF/container.xml", `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
<rootfiles><rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/></rootfiles>
</container>`},
		{"OEBPS/content.opf", `<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf" xmlns:dc="http://purl.org/dc/elements/1.1/" version="2.0">
<metadata><dc:title>The Go Handbook</dc:title><dc:creator>Test Author</dc:creator></metadata>
<manifest><item id="ch1" href="chapter1.xhtml" media-type="application/xhtml+xml"/></manifest>
<spine><itemref idref="ch1"/></spine>
</package>`},
		{"OEBPS/chapter1.xhtml", `<html><head><title>Chapter 1</title></head><body><h1>Chapter 1</h1><p>Interfaces are satisfied implicitly.</p></body></html>`},
	})
}

func buildXlsx(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	f.SetCellValue("Sheet1", "A1", "Name")
	f.SetCellValue("Sheet1", "B1", "Qty")
	f.SetCellValue("Sheet1", "A2", "widget")
	f.SetCellValue("Sheet1", "B2", 42)
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write xlsx: %v", err)
	}
	return buf.Bytes()
}

// buildPDF assembles a one-page PDF with a single text draw. The xref
// offsets are computed while writing, so the file is structurally exact.
func buildPDF(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	offsets := make([]int, 6)
	obj := func(n int, body string) {
		offsets[n] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", n, body)
	}

	buf.WriteString("%PDF-1.4\n")
	obj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	obj(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	obj(3, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>")
	obj(4, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")
	content := "BT /F1 12 Tf 72 720 Td (Hello PDF) Tj ET"
	obj(5, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))

	xref := buf.Len()
	buf.WriteString("xref\n0 6\n")
	buf.WriteString("0000000000 65535 f \n")
	for n := 1; n <= 5; n++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[n])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size 6 /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", xref)
	return buf.Bytes()
}

const testNotebook = `{
 "metadata": {"kernelspec": {"language": "python"}},
 "cells": [
  {"cell_type": "markdown", "source": ["# Test Notebook\n", "\n", "Intro text."]},
  {"cell_type": "code", "source": ["print(\"docdrip\")"],
   "outputs": [{"output_type": "stream", "text": ["docdrip\n"]}]}
 ]
}`

const testRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel>
<title>Engineering Notes</title>
<description>Posts about systems</description>
<item><title>Release 1.2</title><pubDate>Mon, 06 Jan 2025 00:00:00 GMT</pubDate>
<description>&lt;p&gt;The scheduler was rewritten.&lt;/p&gt;</description></item>
</channel></rss>`

const testHTML = `<html><head><title>Page Title</title>
<script>alert("nope")</script><style>body { color: red }</style></head>
<body><h1>Main Heading</h1><p>Body paragraph with <b>bold</b> text.</p></body></html>`

func TestDetectFormat(t *testing.T) {
	zipData := buildZip(t, [][2]string{{"a.txt", "hello"}})

	tests := []struct {
		name     string
		data     []byte
		filename string
		want     Format
	}{
		{"plain text no filename", []byte("Hello\nWorld"), "", FormatText},
		{"text with txt extension", []byte("Hello\nWorld"), "notes.txt", FormatText},
		{"signature beats pdf extension", []byte("Hello\nWorld"), "notes.pdf", FormatText},
		{"pdf magic", []byte("%PDF-1.7\n..."), "", FormatPDF},
		{"html content", []byte(testHTML), "", FormatHTML},
		{"json refined to notebook", []byte(testNotebook), "analysis.ipynb", FormatIpynb},
		{"json without hint is text", []byte(`{"a": 1}`), "data.json", FormatText},
		{"rss xml", []byte(testRSS), "feed.xml", FormatFeed},
		{"csv with extension", []byte("a,b\n1,2\n"), "data.csv", FormatCSV},
		{"zip refined to docx", zipData, "report.docx", FormatDocx},
		{"zip refined to epub", zipData, "book.epub", FormatEpub},
		{"bare zip", zipData, "bundle.zip", FormatZip},
		{"unknown binary", []byte{0x00, 0x01, 0x02, 0xff, 0xfe, 0xfd}, "", FormatUnknown},
		{"binary with unmapped extension", []byte{0x00, 0x01, 0x02, 0xff, 0xfe, 0xfd}, "x.bin", FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectFormat(tt.data, tt.filename); got != tt.want {
				t.Errorf("DetectFormat(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}

// conversionVector checks Process output against substrings that must
// (or must not) appear in the markdown.
type conversionVector struct {
	name           string
	data           func(t *testing.T) []byte
	filename       string
	wantFormat     Format
	wantTitle      string
	mustInclude    []string
	mustNotInclude []string
}

func TestProcessVectors(t *testing.T) {
	literal := func(s string) func(*testing.T) []byte {
		return func(*testing.T) []byte { return []byte(s) }
	}

	vectors := []conversionVector{
		{
			name:        "plain text",
			data:        literal("Hello\nWorld"),
			filename:    "hello.txt",
			wantFormat:  FormatText,
			mustInclude: []string{"Hello\nWorld"},
		},
		{
			name:        "csv table",
			data:        literal("name,qty\nwidget,4\ngadget,7\n"),
			filename:    "inventory.csv",
			wantFormat:  FormatCSV,
			mustInclude: []string{"| name | qty |", "| --- | --- |", "| widget | 4 |", "| gadget | 7 |"},
		},
		{
			name:           "html page",
			data:           literal(testHTML),
			filename:       "page.html",
			wantFormat:     FormatHTML,
			wantTitle:      "Page Title",
			mustInclude:    []string{"# Main Heading", "**bold**"},
			mustNotInclude: []string{"alert(", "color: red"},
		},
		{
			name:           "jupyter notebook",
			data:           literal(testNotebook),
			filename:       "analysis.ipynb",
			wantFormat:     FormatIpynb,
			wantTitle:      "Test Notebook",
			mustInclude:    []string{"# Test Notebook", "```python", `print("docdrip")`},
			mustNotInclude: []string{"cell_type", "kernelspec"},
		},
		{
			name:           "rss feed",
			data:           literal(testRSS),
			filename:       "feed.xml",
			wantFormat:     FormatFeed,
			wantTitle:      "Engineering Notes",
			mustInclude:    []string{"# Engineering Notes", "## Release 1.2", "The scheduler was rewritten."},
			mustNotInclude: []string{"<rss", "<item>"},
		},
		{
			name:        "docx document",
			data:        func(t *testing.T) []byte { return buildDocx(t) },
			filename:    "report.docx",
			wantFormat:  FormatDocx,
			mustInclude: []string{"# Quarterly Report", "**Revenue**", "grew in the third quarter", "Region", "North"},
		},
		{
			name:        "pptx slides",
			data:        func(t *testing.T) []byte { return buildPptx(t) },
			filename:    "deck.pptx",
			wantFormat:  FormatPptx,
			mustInclude: []string{"## Slide 1", "Roadmap Overview", "Ship the beta in October"},
		},
		{
			name:           "epub book",
			data:           func(t *testing.T) []byte { return buildEpub(t) },
			filename:       "book.epub",
			wantFormat:     FormatEpub,
			wantTitle:      "The Go Handbook",
			mustInclude:    []string{"# The Go Handbook", "By Test Author", "# Chapter 1", "Interfaces are satisfied implicitly."},
			mustNotInclude: []string{"<h1>"},
		},
		{
			name:        "xlsx workbook",
			data:        func(t *testing.T) []byte { return buildXlsx(t) },
			filename:    "inventory.xlsx",
			wantFormat:  FormatXlsx,
			mustInclude: []string{"## Sheet1", "| Name | Qty |", "| widget | 42 |"},
		},
		{
			name:        "pdf document",
			data:        func(t *testing.T) []byte { return buildPDF(t) },
			filename:    "hello.pdf",
			wantFormat:  FormatPDF,
			mustInclude: []string{"Hello PDF"},
		},
		{
			name:        "xls workbook",
			data:        func(t *testing.T) []byte { return readFixture(t, "test.xls") },
			filename:    "test.xls",
			wantFormat:  FormatXls,
			mustInclude: []string{"## Test sheet 1", "Test1", "Lorem", "Ipsum", "Avocado"},
		},
		{
			name: "zip archive",
			data: func(t *testing.T) []byte {
				return buildZip(t, [][2]string{
					{"readme.txt", "first entry"},
					{"data.csv", "a,b\n1,2\n"},
				})
			},
			filename:    "bundle.zip",
			wantFormat:  FormatZip,
			mustInclude: []string{"Contents of `bundle.zip`:", "## readme.txt", "first entry", "## data.csv", "| a | b |"},
		},
	}

	engine := New()
	for _, v := range vectors {
		t.Run(v.name, func(t *testing.T) {
			result := engine.Process(context.Background(), UploadedDocument{
				Data:     v.data(t),
				Filename: v.filename,
			})
			if result.Err != nil {
				t.Fatalf("Process failed: %v", result.Err)
			}
			if result.Status != StatusSuccess {
				t.Fatalf("Status = %q, want %q", result.Status, StatusSuccess)
			}
			if result.Format != v.wantFormat {
				t.Errorf("Format = %q, want %q", result.Format, v.wantFormat)
			}
			if v.wantTitle != "" && result.Metadata.Title != v.wantTitle {
				t.Errorf("Title = %q, want %q", result.Metadata.Title, v.wantTitle)
			}
			for _, s := range v.mustInclude {
				if !strings.Contains(result.Markdown, s) {
					t.Errorf("markdown missing %q\n%s", s, result.Markdown)
				}
			}
			for _, s := range v.mustNotInclude {
				if strings.Contains(result.Markdown, s) {
					t.Errorf("markdown must not contain %q\n%s", s, result.Markdown)
				}
			}
		})
	}
}

func TestProcessEmptyUpload(t *testing.T) {
	result := New().Process(context.Background(), UploadedDocument{Data: nil, Filename: ""})

	if result.Status != StatusFailed {
		t.Fatalf("Status = %q, want %q", result.Status, StatusFailed)
	}
	if !IsInvalidInput(result.Err) {
		t.Errorf("Err = %v, want InvalidInputError", result.Err)
	}
	if result.Metadata.SizeBytes != 0 {
		t.Errorf("SizeBytes = %d, want 0", result.Metadata.SizeBytes)
	}
}

func TestProcessOversizeUpload(t *testing.T) {
	engine := New(WithMaxFileSize(8))
	result := engine.Process(context.Background(), UploadedDocument{
		Data:     []byte("0123456789ABCDEF"),
		Filename: "big.txt",
	})

	if !IsInvalidInput(result.Err) {
		t.Fatalf("Err = %v, want InvalidInputError", result.Err)
	}
	if !strings.Contains(result.Err.Error(), "exceeds maximum allowed size") {
		t.Errorf("unexpected message: %v", result.Err)
	}
}

func TestProcessUnknownFormat(t *testing.T) {
	result := New().Process(context.Background(), UploadedDocument{
		Data: []byte{0x00, 0x01, 0x02, 0xff, 0xfe, 0xfd},
	})

	if result.Status != StatusFailed {
		t.Fatalf("Status = %q, want %q", result.Status, StatusFailed)
	}
	if !IsUnsupportedFormat(result.Err) {
		t.Errorf("Err = %v, want UnsupportedFormatError", result.Err)
	}
}

func TestProcessCorruptPDF(t *testing.T) {
	result := New().Process(context.Background(), UploadedDocument{
		Data:     []byte("%PDF-1.7\nthis is not a real xref table"),
		Filename: "broken.pdf",
	})

	if result.Format != FormatPDF {
		t.Fatalf("Format = %q, want %q", result.Format, FormatPDF)
	}
	if !IsValidationError(result.Err) {
		t.Errorf("Err = %v, want ValidationError", result.Err)
	}
}

func TestProcessCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := New().Process(ctx, UploadedDocument{
		Data:     []byte("Hello"),
		Filename: "hello.txt",
	})

	if !IsConversionError(result.Err) {
		t.Errorf("Err = %v, want ConversionError", result.Err)
	}
}

func TestProcessMetadataAlwaysPopulated(t *testing.T) {
	engine := New()
	uploads := []UploadedDocument{
		{Data: []byte("Hello"), Filename: "a.txt"},
		{Data: nil, Filename: "empty.bin"},
		{Data: []byte{0x00, 0x01, 0xff}, Filename: ""},
	}

	for _, doc := range uploads {
		result := engine.Process(context.Background(), doc)
		if result == nil {
			t.Fatal("Process returned nil")
		}
		if result.Metadata.Format == "" {
			t.Errorf("Metadata.Format empty for %q", doc.Filename)
		}
		if result.Metadata.SizeBytes != int64(len(doc.Data)) {
			t.Errorf("SizeBytes = %d, want %d", result.Metadata.SizeBytes, len(doc.Data))
		}
		if result.Metadata.Warnings == nil {
			t.Errorf("Metadata.Warnings is nil for %q", doc.Filename)
		}
	}
}

func TestValidate(t *testing.T) {
	engine := New(WithMaxFileSize(1 << 20))

	tests := []struct {
		name       string
		data       []byte
		filename   string
		wantValid  bool
		wantReason string
	}{
		{"valid text", []byte("Hello"), "a.txt", true, ""},
		{"valid csv", []byte("a,b\n1,2\n"), "a.csv", true, ""},
		{"empty content", nil, "a.txt", false, "file content is empty"},
		{"unknown format", []byte{0x00, 0x01, 0xff}, "", false, "unrecognized file format"},
		{"pdf without structure", []byte("%PDF-1.7\njunk"), "a.pdf", false, "unreadable PDF structure"},
		{"docx without document part", nil, "", false, ""},
	}

	// The last case needs a real zip missing its document part.
	tests[len(tests)-1].data = buildZip(t, [][2]string{{"other.xml", "<x/>"}})
	tests[len(tests)-1].filename = "broken.docx"
	tests[len(tests)-1].wantReason = "missing word/document.xml part"

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vr := engine.Validate(tt.data, tt.filename)
			if vr.Valid != tt.wantValid {
				t.Fatalf("Valid = %v, want %v (reasons: %v)", vr.Valid, tt.wantValid, vr.Reasons)
			}
			if tt.wantValid {
				if len(vr.Reasons) != 0 {
					t.Errorf("Reasons = %v, want empty", vr.Reasons)
				}
				return
			}
			if len(vr.Reasons) == 0 {
				t.Fatal("invalid result carries no reasons")
			}
			if tt.wantReason != "" && !strings.Contains(strings.Join(vr.Reasons, "; "), tt.wantReason) {
				t.Errorf("Reasons = %v, want mention of %q", vr.Reasons, tt.wantReason)
			}
		})
	}
}

func TestValidateIsIdempotent(t *testing.T) {
	engine := New()
	data := []byte("a,b\n1,2\n")

	first := engine.Validate(data, "data.csv")
	second := engine.Validate(data, "data.csv")

	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated validation differs: %+v vs %+v", first, second)
	}
}

func TestValidateOversize(t *testing.T) {
	engine := New(WithMaxFileSize(4))
	vr := engine.Validate([]byte("too large"), "a.txt")

	if vr.Valid {
		t.Fatal("oversize upload validated")
	}
	if !strings.Contains(strings.Join(vr.Reasons, " "), "exceeds maximum allowed size") {
		t.Errorf("Reasons = %v", vr.Reasons)
	}
}

func TestNormalizeOutput(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"crlf to lf", "a\r\nb\r\nc", "a\nb\nc"},
		{"bare cr to lf", "a\rb", "a\nb"},
		{"trailing whitespace stripped", "a  \nb\t\nc", "a\nb\nc"},
		{"multiple blank lines collapsed", "a\n\n\n\n\nb", "a\n\nb"},
		{"control characters removed", "a\x00b\x07c", "abc"},
		{"tabs preserved", "a\tb", "a\tb"},
		{"surrounding blank space trimmed", "\n\n  hello  \n\n", "hello"},
		{"invalid utf8 dropped", "\xff\xfehello", "hello"},
		{"empty input", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeOutput(tt.in); got != tt.want {
				t.Errorf("normalizeOutput(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCsvRaggedRowsWarning(t *testing.T) {
	result := New().Process(context.Background(), UploadedDocument{
		Data:     []byte("a,b,c\n1,2\n"),
		Filename: "ragged.csv",
	})

	if result.Err != nil {
		t.Fatalf("Process failed: %v", result.Err)
	}
	found := false
	for _, w := range result.Metadata.Warnings {
		if strings.Contains(w, "inconsistent column counts") {
			found = true
		}
	}
	if !found {
		t.Errorf("Warnings = %v, want ragged-row warning", result.Metadata.Warnings)
	}
}

func TestSupportedFormats(t *testing.T) {
	engine := New()

	formats := engine.SupportedFormats()
	if len(formats) != 12 {
		t.Errorf("got %d formats, want 12: %v", len(formats), formats)
	}
	for i := 1; i < len(formats); i++ {
		if formats[i-1] >= formats[i] {
			t.Errorf("formats not sorted: %v", formats)
		}
	}

	exts := engine.SupportedExtensions()
	for _, want := range []string{".pdf", ".docx", ".csv", ".epub", ".ipynb"} {
		found := false
		for _, ext := range exts {
			if ext == want {
				found = true
			}
		}
		if !found {
			t.Errorf("SupportedExtensions missing %q: %v", want, exts)
		}
	}
}

func TestEngineOptions(t *testing.T) {
	if got := New().MaxFileSize(); got != DefaultMaxFileSize {
		t.Errorf("default MaxFileSize = %d, want %d", got, int64(DefaultMaxFileSize))
	}
	if got := New(WithMaxFileSize(123)).MaxFileSize(); got != 123 {
		t.Errorf("MaxFileSize = %d, want 123", got)
	}
}

func TestXlsValidateRejectsNonOLE(t *testing.T) {
	conv := NewXlsConverter()
	if err := conv.Validate([]byte("not an xls file"), SourceInfo{}); err == nil {
		t.Error("expected validation error for non-OLE data")
	}
}

func TestTruncateDataURIs(t *testing.T) {
	long := strings.Repeat("A", 100)
	md := "![img](data:image/png;base64," + long + ")"

	got := truncateDataURIs(md)
	if strings.Contains(got, long) {
		t.Error("data URI payload not truncated")
	}
	if !strings.Contains(got, "data:image/png;base64,...") {
		t.Errorf("unexpected truncation output: %q", got)
	}
}
