package mail

import "time"

// Envelope holds the IMAP-level data of a message.
type Envelope struct {
	UID   uint32
	Flags []string // \Seen, \Flagged, \Answered, \Draft
}

// ParsedMessage holds the full parsed content of one message.
type ParsedMessage struct {
	Envelope Envelope

	MessageID  string
	References []string
	Subject    string
	From       Address
	ReplyTo    []Address
	To         []Address
	CC         []Address
	Date       time.Time
	Importance string

	TextBody    string
	HTMLBody    string
	Attachments []Attachment
}

// Address is a parsed mailbox.
type Address struct {
	Name    string
	Address string
}

// Attachment is an attachment part held in memory until it is written out.
type Attachment struct {
	Filename string
	MIMEType string
	Data     []byte
}

// Size returns the decoded attachment size in bytes.
func (a Attachment) Size() int64 {
	return int64(len(a.Data))
}

// HasFlag reports whether the envelope carries flag.
func (e Envelope) HasFlag(flag string) bool {
	for _, f := range e.Flags {
		if f == flag {
			return true
		}
	}
	return false
}
