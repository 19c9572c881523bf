package model

// PipelineResult is what a One Shot or Smart Shot run hands back to the
// caller. Content is retained even when delivery to the mail client fails
// so the user can copy it manually.
type PipelineResult struct {
	// Content is the sanitized AI output.
	Content string `json:"content"`

	// TemplatesUsed lists the names of the templates that were composed.
	TemplatesUsed []string `json:"templates_used"`

	// QuickNotesApplied reports whether a quick note was part of the prompt.
	QuickNotesApplied bool `json:"quick_notes_applied"`

	// Attachments holds per-attachment summaries (Smart Shot only).
	Attachments []AttachmentSummary `json:"attachments,omitempty"`

	// Stage is the last stage the run reached. For failed runs it is the
	// stage that failed.
	Stage string `json:"stage"`

	// Delivered reports whether a reply was written to the mail client.
	Delivered bool `json:"delivered"`

	// Err is nil on success.
	Err error `json:"-"`
}

// Success reports whether the run completed without error.
func (r PipelineResult) Success() bool {
	return r.Err == nil
}
