// Package mail is the mail-client collaborator of the pipeline: it reads
// the active message and its attachments over IMAP and stores reply
// drafts back in the account.
package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	apperrors "github.com/nhle/mailshot/internal/errors"
	"github.com/nhle/mailshot/internal/logging"
	"github.com/nhle/mailshot/internal/model"
)

// Backend is the IMAP surface the client needs. *IMAPClient satisfies it.
type Backend interface {
	LatestUID(ctx context.Context, mailbox string) (uint32, error)
	FetchMessage(ctx context.Context, mailbox string, uid uint32) (*ParsedMessage, error)
	AppendDraft(ctx context.Context, mailbox string, raw []byte) error
}

// Client reads messages from one mailbox and files replies as drafts.
type Client struct {
	backend Backend
	mailbox string
	drafts  string
	from    Address
	logger  *slog.Logger

	mu     sync.Mutex
	cached *ParsedMessage
}

// NewClient creates a client for the account in cfg.
func NewClient(cfg model.MailConfig, password string, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.IMAPHost) == "" || strings.TrimSpace(cfg.Username) == "" {
		return nil, apperrors.New(apperrors.NotConnected, "mail account is not configured")
	}
	backend := NewIMAPClient(cfg.IMAPHost, cfg.IMAPPort, cfg.Username, password, cfg.TLS)
	return NewClientWithBackend(backend, cfg, logger), nil
}

// NewClientWithBackend creates a client over an existing backend.
func NewClientWithBackend(backend Backend, cfg model.MailConfig, logger *slog.Logger) *Client {
	from := cfg.FromAddress
	if from == "" {
		from = cfg.Username
	}
	mailbox := cfg.Mailbox
	if mailbox == "" {
		mailbox = "INBOX"
	}
	drafts := cfg.DraftsMailbox
	if drafts == "" {
		drafts = "Drafts"
	}

	return &Client{
		backend: backend,
		mailbox: mailbox,
		drafts:  drafts,
		from:    Address{Address: from},
		logger:  logging.OrDefault(logger),
	}
}

// FetchActiveMessage returns the newest message in the mailbox.
func (c *Client) FetchActiveMessage(ctx context.Context) (model.Message, error) {
	uid, err := c.backend.LatestUID(ctx, c.mailbox)
	if err != nil {
		return model.Message{}, apperrors.Wrap(apperrors.NotConnected, "mail client unavailable", err)
	}
	if uid == 0 {
		return model.Message{}, apperrors.Newf(apperrors.NotConnected, "no message in %s", c.mailbox)
	}

	parsed, err := c.message(ctx, uid)
	if err != nil {
		return model.Message{}, err
	}
	return parsed.ToModel(), nil
}

// FetchMessageByID returns the message with the given UID.
func (c *Client) FetchMessageByID(ctx context.Context, id string) (model.Message, error) {
	uid, err := parseUID(id)
	if err != nil {
		return model.Message{}, err
	}

	parsed, err := c.message(ctx, uid)
	if err != nil {
		return model.Message{}, err
	}
	return parsed.ToModel(), nil
}

// ExtractAttachments writes every attachment of message id into destDir.
func (c *Client) ExtractAttachments(ctx context.Context, id, destDir string) ([]model.AttachmentFile, error) {
	uid, err := parseUID(id)
	if err != nil {
		return nil, err
	}

	parsed, err := c.message(ctx, uid)
	if err != nil {
		return nil, err
	}

	files := make([]model.AttachmentFile, 0, len(parsed.Attachments))
	used := map[string]bool{}
	for i, att := range parsed.Attachments {
		name := uniqueName(attachmentName(att, i), used)
		path := filepath.Join(destDir, name)

		if err := os.WriteFile(path, att.Data, 0o600); err != nil {
			return files, fmt.Errorf("writing attachment %s: %w", name, err)
		}

		files = append(files, model.AttachmentFile{
			Filename:  name,
			Path:      path,
			Size:      att.Size(),
			Extension: strings.ToLower(filepath.Ext(name)),
		})
	}

	c.logger.Debug("attachments extracted", slog.Int("count", len(files)))
	return files, nil
}

// CreateReply files a reply to message id in the drafts mailbox.
func (c *Client) CreateReply(ctx context.Context, id, body string, replyAll bool) error {
	uid, err := parseUID(id)
	if err != nil {
		return err
	}

	parsed, err := c.message(ctx, uid)
	if err != nil {
		return apperrors.Wrap(apperrors.DeliveryFailed, "could not load the original message", err)
	}

	raw, err := BuildReply(parsed, body, ReplyOptions{From: c.from, ReplyAll: replyAll})
	if err != nil {
		return apperrors.Wrap(apperrors.DeliveryFailed, "could not build the reply", err)
	}

	if err := c.backend.AppendDraft(ctx, c.drafts, raw); err != nil {
		return apperrors.Wrap(apperrors.DeliveryFailed, "could not save the reply draft", err)
	}

	c.logger.Info("reply draft created",
		slog.String("mailbox", c.drafts),
		logging.UserHash(parsed.From.Address),
		slog.Bool("reply_all", replyAll))
	return nil
}

// message returns the parsed message for uid, reusing the last fetch.
func (c *Client) message(ctx context.Context, uid uint32) (*ParsedMessage, error) {
	c.mu.Lock()
	cached := c.cached
	c.mu.Unlock()
	if cached != nil && cached.Envelope.UID == uid {
		return cached, nil
	}

	parsed, err := c.backend.FetchMessage(ctx, c.mailbox, uid)
	if err != nil {
		if errors.Is(err, errMessageNotFound) {
			return nil, apperrors.Wrap(apperrors.NotConnected, fmt.Sprintf("message %d not found", uid), err)
		}
		return nil, apperrors.Wrap(apperrors.NotConnected, "mail client unavailable", err)
	}
	parsed.Envelope.UID = uid

	c.mu.Lock()
	c.cached = parsed
	c.mu.Unlock()
	return parsed, nil
}

// parseUID converts a message ID to an IMAP UID.
func parseUID(id string) (uint32, error) {
	uid, err := strconv.ParseUint(strings.TrimSpace(id), 10, 32)
	if err != nil || uid == 0 {
		return 0, apperrors.Newf(apperrors.NotConnected, "invalid message id %q", id)
	}
	return uint32(uid), nil
}

// SanitizeFilename removes path separators and traversal sequences.
func SanitizeFilename(filename string) string {
	filename = strings.ReplaceAll(filename, "/", "_")
	filename = strings.ReplaceAll(filename, "\\", "_")
	filename = strings.ReplaceAll(filename, "..", "_")
	filename = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, filename)
	return strings.TrimSpace(filename)
}

func attachmentName(att Attachment, i int) string {
	name := SanitizeFilename(att.Filename)
	if name == "" || name == "." {
		name = fmt.Sprintf("attachment-%d", i+1)
	}
	return name
}

// uniqueName prefixes a counter when name was already used.
func uniqueName(name string, used map[string]bool) string {
	candidate := name
	for n := 2; used[strings.ToLower(candidate)]; n++ {
		candidate = fmt.Sprintf("%d-%s", n, name)
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}
