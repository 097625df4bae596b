package docdrip

import "context"

// PlainTextConverter handles plain text, markdown, JSON, and JSONL
// uploads. Text is already markdown-adjacent; the only real work is
// charset normalization.
type PlainTextConverter struct{}

// NewPlainTextConverter creates a new PlainTextConverter.
func NewPlainTextConverter() *PlainTextConverter {
	return &PlainTextConverter{}
}

func (c *PlainTextConverter) Validate(data []byte, info SourceInfo) error {
	// Any byte sequence classified as text is structurally acceptable;
	// undecodable sequences are repaired during conversion.
	return nil
}

func (c *PlainTextConverter) Convert(ctx context.Context, data []byte, info SourceInfo) (*ConversionResult, error) {
	text, warning := decodeText(data, info.Charset)

	res := &ConversionResult{Markdown: text}
	if warning != "" {
		res.Warnings = append(res.Warnings, warning)
	}
	return res, nil
}
