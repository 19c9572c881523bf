package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/nhle/mailshot/internal/ai"
	"github.com/nhle/mailshot/internal/compose"
	apperrors "github.com/nhle/mailshot/internal/errors"
	"github.com/nhle/mailshot/internal/logging"
	"github.com/nhle/mailshot/internal/model"
	"github.com/nhle/mailshot/internal/ratelimit"
	"github.com/nhle/mailshot/internal/sanitize"
)

// AnalysisKind selects what AnalyzeFile asks of the AI.
type AnalysisKind string

const (
	AnalysisSummarize AnalysisKind = "summarize"
	AnalysisExtract   AnalysisKind = "extract"
	AnalysisQuestions AnalysisKind = "questions"
)

var analysisInstructions = map[AnalysisKind]string{
	AnalysisSummarize: "Summarize the following document in a few short paragraphs, " +
		"leading with its most important points.",
	AnalysisExtract: "Extract the key facts, figures, dates, names and action items " +
		"from the following document as a list.",
	AnalysisQuestions: "List the open questions this document raises and the questions " +
		"a careful reader should ask its author.",
}

// ParseAnalysisKind validates a kind name. Empty means summarize.
func ParseAnalysisKind(s string) (AnalysisKind, error) {
	k := AnalysisKind(strings.ToLower(strings.TrimSpace(s)))
	if k == "" {
		return AnalysisSummarize, nil
	}
	if _, ok := analysisInstructions[k]; !ok {
		return "", apperrors.Newf(apperrors.InvalidRequest,
			"unknown analysis kind %q (want summarize, extract or questions)", s)
	}
	return k, nil
}

// AnalyzeFile extracts the file at path and asks the AI for the requested
// analysis. The result is sanitized plain text.
func (o *Orchestrator) AnalyzeFile(ctx context.Context, path string, kind AnalysisKind) (string, error) {
	logger := logging.WithOperation(o.logger, "analyze-file").
		With(logging.File(filepath.Base(path)))
	start := time.Now()

	content, err := o.analyzeFile(ctx, path, kind)

	status := logging.StatusSuccess
	if err != nil {
		status = logging.StatusError
	}
	logger.Info("file analysis finished",
		logging.Status(status),
		slog.String("kind", string(kind)),
		slog.Duration(logging.KeyDuration, time.Since(start)),
		logging.Err(err))

	return content, err
}

func (o *Orchestrator) analyzeFile(ctx context.Context, path string, kind AnalysisKind) (string, error) {
	instruction, ok := analysisInstructions[kind]
	if !ok {
		return "", apperrors.Newf(apperrors.InvalidRequest, "unknown analysis kind %q", kind)
	}

	if !o.deps.Limiter.Allow(ratelimit.KeyAnalyzeFile) {
		return "", apperrors.NewRateLimited(ratelimit.KeyAnalyzeFile)
	}
	if err := o.deps.Invoker.Preflight(ctx); err != nil {
		return "", err
	}
	if o.deps.Analyzer == nil {
		return "", apperrors.New(apperrors.ExtractionFailed, "no extractor configured")
	}

	res := o.deps.Analyzer.Extract(ctx, path)
	if !res.Success {
		return "", res.Err()
	}

	var profile model.ContextProfile
	if o.deps.Templates != nil {
		p, err := o.deps.Templates.GetContextProfile(ctx)
		if err != nil {
			o.logger.Warn("loading context profile, using none", logging.Err(err))
		} else {
			profile = p
		}
	}

	req := ai.Request{System: compose.SystemPrompt(profile)}
	name := filepath.Base(path)
	switch {
	case strings.TrimSpace(res.Text) != "":
		var sb strings.Builder
		fmt.Fprintf(&sb, "%s\n\nFile: %s\n", instruction, name)
		if res.Warning != "" {
			fmt.Fprintf(&sb, "Note: %s\n", res.Warning)
		}
		sb.WriteString("\n")
		sb.WriteString(res.Text)
		req.User = sb.String()
	case res.HasImage():
		req.User = fmt.Sprintf("%s\n\nFile: %s (image attached)", instruction, name)
		req.Images = []ai.Image{{MIMEType: res.MIMEType, Base64: res.ImageBase64}}
	default:
		reason := "no text could be extracted"
		if res.Warning != "" {
			reason = res.Warning
		}
		return "", apperrors.New(apperrors.ExtractionFailed, reason)
	}

	answer, err := o.deps.Invoker.Invoke(ctx, req)
	if err != nil {
		return "", asKind(err, apperrors.ProviderError, "AI request failed")
	}

	return sanitize.Text(answer), nil
}
