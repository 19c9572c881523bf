package mail

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"

	"github.com/nhle/mailshot/internal/model"
)

var errMessageNotFound = errors.New("message not found")

// ParseMessage parses a raw RFC 5322 message with go-message. Parts in
// legacy charsets are decoded to UTF-8. A message whose header cannot be
// parsed is treated as plain text.
func ParseMessage(raw []byte) (*ParsedMessage, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty message")
	}

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) {
		return &ParsedMessage{TextBody: string(raw)}, nil
	}
	defer mr.Close()

	parsed := parseHeader(mr.Header)

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil && !message.IsUnknownCharset(err) {
			break
		}
		if part == nil {
			break
		}

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, _ := h.ContentType()
			if contentType == "" {
				contentType = "text/plain"
			}
			body, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				continue
			}

			switch {
			case contentType == "text/plain" && parsed.TextBody == "":
				parsed.TextBody = string(body)
			case contentType == "text/html" && parsed.HTMLBody == "":
				parsed.HTMLBody = string(body)
			}

		case *mail.AttachmentHeader:
			filename, _ := h.Filename()
			contentType, _, _ := h.ContentType()

			body, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				continue
			}

			parsed.Attachments = append(parsed.Attachments, Attachment{
				Filename: filename,
				MIMEType: contentType,
				Data:     body,
			})
		}
	}

	return parsed, nil
}

func parseHeader(h mail.Header) *ParsedMessage {
	p := &ParsedMessage{}

	p.MessageID, _ = h.MessageID()
	p.References, _ = h.MsgIDList("References")
	p.Subject, _ = h.Subject()
	p.Date, _ = h.Date()

	if from := addressList(h, "From"); len(from) > 0 {
		p.From = from[0]
	}
	p.ReplyTo = addressList(h, "Reply-To")
	p.To = addressList(h, "To")
	p.CC = addressList(h, "Cc")
	p.Importance = importance(h)

	return p
}

// addressList parses an address header, ignoring malformed entries.
func addressList(h mail.Header, key string) []Address {
	list, err := h.AddressList(key)
	if err != nil {
		return nil
	}
	out := make([]Address, 0, len(list))
	for _, a := range list {
		out = append(out, Address{Name: a.Name, Address: a.Address})
	}
	return out
}

// importance reads the Importance header, falling back to X-Priority
// (1-2 high, 4-5 low).
func importance(h mail.Header) string {
	switch strings.ToLower(strings.TrimSpace(h.Get("Importance"))) {
	case "high":
		return model.ImportanceHigh
	case "low":
		return model.ImportanceLow
	}

	prio := strings.TrimSpace(h.Get("X-Priority"))
	if prio != "" {
		switch prio[0] {
		case '1', '2':
			return model.ImportanceHigh
		case '4', '5':
			return model.ImportanceLow
		}
	}
	return model.ImportanceNormal
}

// ToModel converts a parsed message into the pipeline's snapshot. The
// plain-text body is preferred; HTML-only messages are converted to text.
func (p *ParsedMessage) ToModel() model.Message {
	body := strings.TrimSpace(p.TextBody)
	if body == "" && p.HTMLBody != "" {
		body = htmlToText(p.HTMLBody)
	}

	msg := model.Message{
		ID:              fmt.Sprint(p.Envelope.UID),
		Subject:         p.Subject,
		SenderName:      p.From.Name,
		SenderEmail:     p.From.Address,
		Body:            body,
		ReceivedAt:      p.Date,
		AttachmentCount: len(p.Attachments),
		IsRead:          p.Envelope.HasFlag(`\Seen`),
		Importance:      p.Importance,
	}
	if p.Envelope.UID == 0 {
		msg.ID = ""
	}
	for _, a := range p.To {
		msg.To = append(msg.To, a.Address)
	}
	for _, a := range p.CC {
		msg.CC = append(msg.CC, a.Address)
	}
	return msg
}
