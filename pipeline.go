package docdrip

import (
	"context"
	"fmt"
	"time"
)

// UploadedDocument is the raw upload as received: content, declared
// filename, and declared content type. It is never mutated by the
// pipeline and lives only for the duration of one request.
type UploadedDocument struct {
	Data        []byte
	Filename    string
	ContentType string
}

// Process runs the full pipeline on one document: detect, validate,
// dispatch to the format converter, extract metadata, assemble.
//
// Process never panics and never returns nil: every outcome, including
// failures, is a structured Result with populated metadata. The typed
// error on failure is one of InvalidInputError, UnsupportedFormatError,
// ValidationError, or ConversionError.
//
// Cancellation is cooperative: ctx is checked between stages and
// passed to the converter, so a disconnected client stops occupying a
// conversion slot promptly.
func (e *Engine) Process(ctx context.Context, doc UploadedDocument) *Result {
	start := time.Now()

	format := DetectFormat(doc.Data, doc.Filename)
	meta := extractMetadata(doc, format)

	fail := func(err error) *Result {
		meta.DurationMS = time.Since(start).Milliseconds()
		return assembleFailure(err, meta)
	}

	// Empty or oversized uploads never reach a converter.
	if len(doc.Data) == 0 {
		return fail(&InvalidInputError{Reason: "file content is empty"})
	}
	if e.maxFileSize > 0 && int64(len(doc.Data)) > e.maxFileSize {
		return fail(&InvalidInputError{Reason: fmt.Sprintf(
			"file size %d bytes exceeds maximum allowed size %d bytes", len(doc.Data), e.maxFileSize)})
	}

	conv, ok := e.converters[format]
	if format == FormatUnknown || !ok {
		return fail(&UnsupportedFormatError{
			Format:    format,
			Extension: meta.Extension,
			MIMEType:  doc.ContentType,
		})
	}

	info := sourceInfoFor(format, doc.Filename)
	if err := conv.Validate(doc.Data, info); err != nil {
		return fail(&ValidationError{Format: format, Reasons: []string{err.Error()}})
	}

	if err := ctx.Err(); err != nil {
		return fail(&ConversionError{Format: format, Err: err})
	}

	res, err := conv.Convert(ctx, doc.Data, info)
	if err != nil {
		return fail(&ConversionError{Format: format, Err: err})
	}

	meta.Title = res.Title
	if len(res.Warnings) > 0 {
		meta.Warnings = append(meta.Warnings, res.Warnings...)
	}
	meta.DurationMS = time.Since(start).Milliseconds()

	return assembleSuccess(normalizeOutput(res.Markdown), meta)
}
