package model

import "time"

// Importance levels reported by the mail client.
const (
	ImportanceLow    = "low"
	ImportanceNormal = "normal"
	ImportanceHigh   = "high"
)

// Message is an immutable snapshot of a mail message taken once per
// pipeline run. Every field is best-effort: the mail client may fail to
// supply any of them, in which case the zero value is used.
type Message struct {
	// ID is the mail client's identifier for the message (an IMAP UID).
	ID string `json:"id"`

	// Subject is the decoded subject line.
	Subject string `json:"subject"`

	// SenderName is the display name of the sender, if any.
	SenderName string `json:"sender_name"`

	// SenderEmail is the sender's address.
	SenderEmail string `json:"sender_email"`

	// To holds the primary recipient addresses.
	To []string `json:"to"`

	// CC holds the carbon-copy recipient addresses.
	CC []string `json:"cc"`

	// Body is the plain-text body. HTML-only messages are converted.
	Body string `json:"body"`

	// ReceivedAt is when the message was received or dated.
	ReceivedAt time.Time `json:"received_at"`

	// AttachmentCount is the number of attachment parts.
	AttachmentCount int `json:"attachment_count"`

	// IsRead reports whether the message carries the seen flag.
	IsRead bool `json:"is_read"`

	// Importance is one of the Importance* constants.
	Importance string `json:"importance"`
}

// HasAttachments reports whether the message has at least one attachment.
func (m Message) HasAttachments() bool {
	return m.AttachmentCount > 0
}

// Sender returns a display form of the sender: "Name <address>" when both
// parts are known, otherwise whichever one is present.
func (m Message) Sender() string {
	switch {
	case m.SenderName != "" && m.SenderEmail != "":
		return m.SenderName + " <" + m.SenderEmail + ">"
	case m.SenderName != "":
		return m.SenderName
	default:
		return m.SenderEmail
	}
}

// AttachmentFile is an attachment already materialized to a local file.
// The orchestrator owns the file for the duration of one run and deletes
// it afterwards.
type AttachmentFile struct {
	Filename  string `json:"filename"`
	Path      string `json:"path"`
	Size      int64  `json:"size"`
	Extension string `json:"extension"`
}

// AttachmentSummary is the per-attachment outcome of a Smart Shot run.
type AttachmentSummary struct {
	Filename string `json:"filename"`

	// Summary holds the AI bullet summary, or an "[Error: ...]" marker
	// when Failed is set.
	Summary string `json:"summary"`

	// Type is the extraction format tag (pdf, word, image, ...).
	Type string `json:"type"`

	// CharCount is the length of the extracted text in characters.
	CharCount int `json:"char_count"`

	Failed bool `json:"failed"`
}
