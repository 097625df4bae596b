package docdrip

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Format classifies an uploaded document's underlying file type.
type Format string

const (
	FormatPDF     Format = "pdf"
	FormatDocx    Format = "docx"
	FormatPptx    Format = "pptx"
	FormatXlsx    Format = "xlsx"
	FormatXls     Format = "xls"
	FormatHTML    Format = "html"
	FormatCSV     Format = "csv"
	FormatText    Format = "text"
	FormatIpynb   Format = "ipynb"
	FormatFeed    Format = "feed"
	FormatEpub    Format = "epub"
	FormatZip     Format = "zip"
	FormatUnknown Format = "unknown"
)

// extensionFormats maps filename extensions to formats. Used as a
// fallback when byte-signature sniffing yields nothing, and to refine
// generic sniff results (plain text, zip) within the same family.
var extensionFormats = map[string]Format{
	".pdf":      FormatPDF,
	".docx":     FormatDocx,
	".pptx":     FormatPptx,
	".xlsx":     FormatXlsx,
	".xls":      FormatXls,
	".html":     FormatHTML,
	".htm":      FormatHTML,
	".csv":      FormatCSV,
	".txt":      FormatText,
	".text":     FormatText,
	".md":       FormatText,
	".markdown": FormatText,
	".json":     FormatText,
	".jsonl":    FormatText,
	".ipynb":    FormatIpynb,
	".rss":      FormatFeed,
	".atom":     FormatFeed,
	".xml":      FormatFeed,
	".epub":     FormatEpub,
	".zip":      FormatZip,
}

// DetectFormat classifies raw content, optionally assisted by a
// filename hint. It never fails: content that matches no known
// signature and no known extension is FormatUnknown.
//
// Byte-signature sniffing takes precedence over the extension when the
// two disagree, so a renamed file cannot spoof its way into the wrong
// converter. The extension only refines a generic sniff result within
// the same container family (e.g. ".ipynb" on JSON content, ".epub" on
// a bare zip).
func DetectFormat(data []byte, filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	extFormat, extKnown := extensionFormats[ext]

	sniffed := formatFromMIME(mimetype.Detect(data))

	switch sniffed {
	case FormatUnknown:
		if extKnown {
			return extFormat
		}
		return FormatUnknown
	case FormatText:
		if extKnown && isTextFamily(extFormat) {
			return extFormat
		}
	case FormatZip:
		if extKnown && isZipFamily(extFormat) {
			return extFormat
		}
	}
	return sniffed
}

// formatFromMIME maps a sniffed MIME type onto a Format.
func formatFromMIME(mt *mimetype.MIME) Format {
	switch {
	case mt.Is("application/pdf"):
		return FormatPDF
	case mt.Is("application/vnd.openxmlformats-officedocument.wordprocessingml.document"):
		return FormatDocx
	case mt.Is("application/vnd.openxmlformats-officedocument.presentationml.presentation"):
		return FormatPptx
	case mt.Is("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"):
		return FormatXlsx
	case mt.Is("application/vnd.ms-excel"), mt.Is("application/x-ole-storage"):
		return FormatXls
	case mt.Is("text/html"):
		return FormatHTML
	case mt.Is("text/csv"):
		return FormatCSV
	case mt.Is("application/epub+zip"):
		return FormatEpub
	case mt.Is("text/xml"), mt.Is("application/xml"),
		mt.Is("application/rss+xml"), mt.Is("application/atom+xml"):
		return FormatFeed
	case mt.Is("application/zip"):
		return FormatZip
	case mt.Is("application/json"), mt.Is("application/x-ndjson"):
		return FormatText
	}
	if strings.HasPrefix(mt.String(), "text/") {
		return FormatText
	}
	return FormatUnknown
}

// isTextFamily reports whether f is stored as plain text, so an
// extension hint may safely refine a text/plain or JSON sniff.
func isTextFamily(f Format) bool {
	switch f {
	case FormatText, FormatCSV, FormatHTML, FormatIpynb, FormatFeed:
		return true
	}
	return false
}

// isZipFamily reports whether f is a zip container underneath.
func isZipFamily(f Format) bool {
	switch f {
	case FormatZip, FormatDocx, FormatPptx, FormatXlsx, FormatEpub:
		return true
	}
	return false
}
