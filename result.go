package docdrip

// Status is the overall outcome of a pipeline run.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Result is the assembled pipeline output. Status, Format, and
// Metadata are present on every path; Markdown is set only on success
// and Err only on failure.
type Result struct {
	Status   Status
	Format   Format
	Markdown string
	Metadata Metadata
	Err      error
}

func assembleSuccess(markdown string, meta Metadata) *Result {
	return &Result{
		Status:   StatusSuccess,
		Format:   meta.Format,
		Markdown: markdown,
		Metadata: meta,
	}
}

func assembleFailure(err error, meta Metadata) *Result {
	return &Result{
		Status:   StatusFailed,
		Format:   meta.Format,
		Metadata: meta,
		Err:      err,
	}
}
