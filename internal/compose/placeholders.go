package compose

import (
	"strings"

	"github.com/nhle/mailshot/internal/model"
)

// Placeholders lists the tokens Substitute understands.
var Placeholders = []string{
	"{email_body}", "{subject}", "{sender}", "{sender_email}",
	"{sender_name}", "{to}", "{cc}", "{date}",
}

// DateLayout formats {date}.
const DateLayout = "Mon, 02 Jan 2006 15:04"

// Substitute replaces message placeholders in text with literal values
// from msg. Unknown {tokens} are left untouched, and substituted values are
// never re-scanned for placeholders.
func Substitute(text string, msg model.Message) string {
	date := ""
	if !msg.ReceivedAt.IsZero() {
		date = msg.ReceivedAt.Format(DateLayout)
	}

	r := strings.NewReplacer(
		"{email_body}", msg.Body,
		"{subject}", msg.Subject,
		"{sender}", msg.Sender(),
		"{sender_email}", msg.SenderEmail,
		"{sender_name}", msg.SenderName,
		"{to}", strings.Join(msg.To, ", "),
		"{cc}", strings.Join(msg.CC, ", "),
		"{date}", date,
	)
	return r.Replace(text)
}
