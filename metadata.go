package docdrip

import (
	"math"
	"path/filepath"
	"strings"
)

// Metadata describes the source document and the conversion run. It is
// produced on every path, success or failure; Format and SizeBytes are
// always populated.
type Metadata struct {
	Format     Format   `json:"format"`
	Filename   string   `json:"filename"`
	Extension  string   `json:"extension"`
	SizeBytes  int64    `json:"size_bytes"`
	SizeMB     float64  `json:"size_mb"`
	DurationMS int64    `json:"duration_ms"`
	Title      string   `json:"title,omitempty"`
	Warnings   []string `json:"warnings"`
}

// extractMetadata builds the base metadata known before conversion.
func extractMetadata(doc UploadedDocument, format Format) Metadata {
	size := int64(len(doc.Data))
	return Metadata{
		Format:    format,
		Filename:  doc.Filename,
		Extension: strings.ToLower(filepath.Ext(doc.Filename)),
		SizeBytes: size,
		SizeMB:    math.Round(float64(size)/(1<<20)*100) / 100,
		Warnings:  []string{},
	}
}
