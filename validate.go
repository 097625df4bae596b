package docdrip

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidationResult is the outcome of a standalone validation pass.
// Reasons is non-empty exactly when Valid is false.
type ValidationResult struct {
	Valid   bool     `json:"valid"`
	Format  Format   `json:"format"`
	Reasons []string `json:"reasons"`
}

// Validate checks an upload without converting it: non-zero length,
// size within the configured limit, and the format-specific structural
// check of the matching converter. An unknown format is always invalid.
//
// Validate is side-effect free and deterministic: calling it twice on
// the same bytes yields identical results.
func (e *Engine) Validate(data []byte, filename string) ValidationResult {
	format := DetectFormat(data, filename)
	return e.validateDetected(data, filename, format)
}

func (e *Engine) validateDetected(data []byte, filename string, format Format) ValidationResult {
	var reasons []string

	if len(data) == 0 {
		reasons = append(reasons, "file content is empty")
	}
	if e.maxFileSize > 0 && int64(len(data)) > e.maxFileSize {
		reasons = append(reasons, fmt.Sprintf(
			"file size %d bytes exceeds maximum allowed size %d bytes", len(data), e.maxFileSize))
	}
	if len(reasons) > 0 {
		return ValidationResult{Format: format, Reasons: reasons}
	}

	if format == FormatUnknown {
		return ValidationResult{Format: format, Reasons: []string{"unrecognized file format"}}
	}

	conv, ok := e.converters[format]
	if !ok {
		return ValidationResult{Format: format, Reasons: []string{
			fmt.Sprintf("no converter registered for format %q", format)}}
	}

	if err := conv.Validate(data, sourceInfoFor(format, filename)); err != nil {
		return ValidationResult{Format: format, Reasons: []string{err.Error()}}
	}

	return ValidationResult{Valid: true, Format: format, Reasons: []string{}}
}

// sourceInfoFor derives the SourceInfo passed to converters.
func sourceInfoFor(format Format, filename string) SourceInfo {
	return SourceInfo{
		Format:    format,
		Filename:  filename,
		Extension: strings.ToLower(filepath.Ext(filename)),
	}
}
