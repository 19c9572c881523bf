// Package harvest turns a message's attachment files into short AI
// summaries that can be folded into the main prompt.
package harvest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/nhle/mailshot/internal/ai"
	apperrors "github.com/nhle/mailshot/internal/errors"
	"github.com/nhle/mailshot/internal/extract"
	"github.com/nhle/mailshot/internal/logging"
	"github.com/nhle/mailshot/internal/model"
	"github.com/nhle/mailshot/internal/ratelimit"
)

// SystemPrompt is sent with every per-attachment summary call.
const SystemPrompt = "You summarize email attachments for a busy reader. " +
	"Respond in plain text without markdown."

// Instructions for the per-attachment call.
const (
	TextInstruction = "Extract the key bullet points from the following attachment. " +
		"Keep it under 200 words."
	ImageInstruction = "Describe this image attachment and extract its key points. " +
		"Keep it under 200 words."
)

// Extractor reads one file. *extract.Extractor satisfies it.
type Extractor interface {
	Extract(ctx context.Context, path string) extract.Result
}

// Invoker performs one AI call. *ai.Invoker satisfies it.
type Invoker interface {
	Invoke(ctx context.Context, req ai.Request) (string, error)
}

// Limiter gates per-key call budgets. *ratelimit.Limiter satisfies it.
type Limiter interface {
	Allow(key string) bool
}

// Harvester summarizes attachments one at a time.
type Harvester struct {
	extractor Extractor
	invoker   Invoker
	limiter   Limiter
	logger    *slog.Logger
}

// New creates a Harvester. limiter may be nil to disable rate limiting.
func New(extractor Extractor, invoker Invoker, limiter Limiter, logger *slog.Logger) *Harvester {
	return &Harvester{
		extractor: extractor,
		invoker:   invoker,
		limiter:   limiter,
		logger:    logging.OrDefault(logger),
	}
}

// Harvest returns exactly one summary per file, in input order. A failure
// on one file becomes an "[Error: ...]" entry and never stops the batch.
// Every file is deleted once processed, whatever the outcome.
func (h *Harvester) Harvest(ctx context.Context, files []model.AttachmentFile) []model.AttachmentSummary {
	summaries := make([]model.AttachmentSummary, 0, len(files))
	for _, f := range files {
		summaries = append(summaries, h.harvestOne(ctx, f))
	}
	return summaries
}

func (h *Harvester) harvestOne(ctx context.Context, f model.AttachmentFile) model.AttachmentSummary {
	name := f.Filename
	if name == "" {
		name = filepath.Base(f.Path)
	}
	logger := h.logger.With(logging.File(name))

	defer func() {
		if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
			logger.Debug("removing attachment file", logging.Err(err))
		}
	}()

	res := h.extractor.Extract(ctx, f.Path)
	summary := model.AttachmentSummary{
		Filename:  name,
		Type:      typeOf(res, f),
		CharCount: utf8.RuneCountInString(res.Text),
	}

	if !res.Success {
		logger.Info("attachment extraction failed", slog.String("reason", res.Reason))
		return failed(summary, res.Reason)
	}

	req := ai.Request{System: SystemPrompt}
	switch {
	case strings.TrimSpace(res.Text) != "":
		req.User = fmt.Sprintf("%s\n\nAttachment: %s\n\n%s", TextInstruction, name, res.Text)
	case res.HasImage():
		req.User = ImageInstruction
		req.Images = []ai.Image{{MIMEType: res.MIMEType, Base64: res.ImageBase64}}
	default:
		reason := "no text could be extracted"
		if res.Warning != "" {
			reason = res.Warning
		}
		return failed(summary, reason)
	}

	if h.limiter != nil && !h.limiter.Allow(ratelimit.KeyAttachmentSummary) {
		return failed(summary, apperrors.UserMessage(apperrors.NewRateLimited(ratelimit.KeyAttachmentSummary)))
	}

	text, err := h.invoker.Invoke(ctx, req)
	if err != nil {
		logger.Warn("attachment summary failed", logging.Err(err))
		return failed(summary, apperrors.UserMessage(err))
	}

	summary.Summary = strings.TrimSpace(text)
	if res.Warning != "" {
		summary.Summary += "\n(" + res.Warning + ")"
	}
	logger.Debug("attachment summarized", logging.Status(logging.StatusSuccess))
	return summary
}

func failed(s model.AttachmentSummary, reason string) model.AttachmentSummary {
	s.Failed = true
	s.Summary = "[Error: " + reason + "]"
	return s
}

// typeOf reports the extractor's format, or the bare extension when the
// file type is unsupported.
func typeOf(res extract.Result, f model.AttachmentFile) string {
	if res.Format != "" {
		return res.Format
	}
	ext := f.Extension
	if ext == "" {
		ext = filepath.Ext(f.Filename)
	}
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	if ext == "" {
		return "unknown"
	}
	return ext
}
