// Package contracts/mail defines the mail-client collaborator.
// Reads the active message over IMAP and files replies as drafts.
//
// Library: emersion/go-imap v2 + emersion/go-message
// Auth: Username + password (stored in system keychain)
package contracts

// MailClient is consumed by the pipeline orchestrator.

// Operations:
//
// FetchActiveMessage:
//   SELECT the configured mailbox, UID SEARCH ALL, take the highest UID.
//   FETCH BODY.PEEK[] so the message is not marked \Seen.
//   Parse with go-message/mail; charsets via go-message/charset.
//   HTML-only bodies are converted to text with golang.org/x/net/html.
//   Maps to: Message {
//     ID = UID, Subject, SenderName/SenderEmail = From,
//     To, CC, Body, ReceivedAt = Date header,
//     AttachmentCount, IsRead = \Seen, Importance = Importance / X-Priority
//   }
//   Empty mailbox -> NOT_CONNECTED.
//
// FetchMessageByID:
//   Same as above for an explicit UID (the --message flag).
//
// ExtractAttachments(id, destDir):
//   Write every attachment part to destDir with a sanitized, unique file
//   name and mode 0600. The orchestrator owns and deletes the files.
//
// CreateReply(id, body, replyAll):
//   Build a multipart/alternative draft: text/plain + text/html (escaped,
//   paragraphs and line breaks kept). Subject "Re: " once, In-Reply-To and
//   References from the original. Recipients: Reply-To or From; reply-all
//   adds To and Cc minus our own address.
//   APPEND to the drafts mailbox with \Draft and \Seen.
//   Any failure -> DELIVERY_FAILED; the caller keeps the content.
//
// Considerations:
//   - Gmail / Outlook need app passwords for IMAP.
//   - Every call opens its own connection and logs out when done.
