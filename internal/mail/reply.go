package mail

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
)

// ReplyOptions controls how a reply draft is addressed.
type ReplyOptions struct {
	From     Address
	ReplyAll bool
	Date     time.Time
}

// BuildReply renders a reply to orig as a multipart message with a plain
// text part and an HTML part. body is plain text: the HTML part escapes it
// and turns blank-line-separated paragraphs into <p> blocks and single
// line breaks into <br>.
func BuildReply(orig *ParsedMessage, body string, opts ReplyOptions) ([]byte, error) {
	to, cc := replyRecipients(orig, opts)
	if len(to) == 0 {
		return nil, fmt.Errorf("original message has no sender to reply to")
	}

	date := opts.Date
	if date.IsZero() {
		date = time.Now()
	}

	var h mail.Header
	h.SetDate(date)
	h.SetSubject(replySubject(orig.Subject))
	if opts.From.Address != "" {
		h.SetAddressList("From", toMailAddresses([]Address{opts.From}))
	}
	h.SetAddressList("To", toMailAddresses(to))
	if len(cc) > 0 {
		h.SetAddressList("Cc", toMailAddresses(cc))
	}
	if orig.MessageID != "" {
		h.SetMsgIDList("In-Reply-To", []string{orig.MessageID})
		refs := append(append([]string{}, orig.References...), orig.MessageID)
		h.SetMsgIDList("References", refs)
	}
	if err := h.GenerateMessageID(); err != nil {
		return nil, fmt.Errorf("generating message id: %w", err)
	}

	var buf bytes.Buffer
	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("creating message writer: %w", err)
	}

	tw, err := mw.CreateInline()
	if err != nil {
		return nil, fmt.Errorf("creating inline writer: %w", err)
	}

	if err := writeInlinePart(tw, "text/plain", body); err != nil {
		return nil, err
	}
	if err := writeInlinePart(tw, "text/html", TextToHTML(body)); err != nil {
		return nil, err
	}

	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("closing inline writer: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing message writer: %w", err)
	}

	return buf.Bytes(), nil
}

func writeInlinePart(tw *mail.InlineWriter, contentType, content string) error {
	var ph mail.InlineHeader
	ph.SetContentType(contentType, map[string]string{"charset": "utf-8"})
	ph.Set("Content-Transfer-Encoding", "quoted-printable")

	w, err := tw.CreatePart(ph)
	if err != nil {
		return fmt.Errorf("creating %s part: %w", contentType, err)
	}
	if _, err := io.WriteString(w, content); err != nil {
		_ = w.Close()
		return fmt.Errorf("writing %s part: %w", contentType, err)
	}
	return w.Close()
}

// TextToHTML escapes text and converts its line structure to HTML blocks.
func TextToHTML(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var sb strings.Builder
	sb.WriteString("<html><body>")
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.Trim(para, "\n")
		if strings.TrimSpace(para) == "" {
			continue
		}
		lines := strings.Split(para, "\n")
		for i, line := range lines {
			lines[i] = html.EscapeString(line)
		}
		sb.WriteString("<p>")
		sb.WriteString(strings.Join(lines, "<br>"))
		sb.WriteString("</p>")
	}
	sb.WriteString("</body></html>")
	return sb.String()
}

// replySubject prefixes "Re: " unless the subject already has it.
func replySubject(subject string) string {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(subject)), "re:") {
		return subject
	}
	return "Re: " + subject
}

// replyRecipients returns the To and Cc lists for a reply. Replies go to
// Reply-To when present, otherwise to the sender. Reply-all copies the
// original recipients, minus the replying user and duplicates.
func replyRecipients(orig *ParsedMessage, opts ReplyOptions) (to, cc []Address) {
	seen := map[string]bool{}
	if self := strings.ToLower(opts.From.Address); self != "" {
		seen[self] = true
	}

	add := func(list []Address, a Address) []Address {
		key := strings.ToLower(a.Address)
		if key == "" || seen[key] {
			return list
		}
		seen[key] = true
		return append(list, a)
	}

	primary := orig.ReplyTo
	if len(primary) == 0 && orig.From.Address != "" {
		primary = []Address{orig.From}
	}
	for _, a := range primary {
		to = add(to, a)
	}

	if opts.ReplyAll {
		for _, a := range orig.To {
			cc = add(cc, a)
		}
		for _, a := range orig.CC {
			cc = add(cc, a)
		}
	}

	// Replying to one's own message goes back to the original recipients.
	if len(to) == 0 && len(primary) > 0 {
		for _, a := range orig.To {
			to = add(to, a)
		}
	}

	return to, cc
}

func toMailAddresses(list []Address) []*mail.Address {
	out := make([]*mail.Address, 0, len(list))
	for _, a := range list {
		out = append(out, &mail.Address{Name: a.Name, Address: a.Address})
	}
	return out
}
