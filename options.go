package docdrip

// Option configures an Engine.
type Option func(*Engine)

// WithMaxFileSize sets the upload size limit in bytes. Zero or
// negative disables the limit.
func WithMaxFileSize(n int64) Option {
	return func(e *Engine) {
		e.maxFileSize = n
	}
}

// WithKeepDataURIs configures whether HTML-derived output keeps full
// base64 data URIs (default: false, which truncates them).
func WithKeepDataURIs(keep bool) Option {
	return func(e *Engine) {
		e.keepDataURIs = keep
	}
}
