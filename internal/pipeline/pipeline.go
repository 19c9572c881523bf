// Package pipeline runs the One Shot and Smart Shot flows: fetch the
// message, optionally summarize its attachments, compose a prompt, call
// the AI and hand the sanitized answer back to the mail client as a reply
// draft. It also analyzes standalone files.
package pipeline

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/nhle/mailshot/internal/ai"
	"github.com/nhle/mailshot/internal/compose"
	apperrors "github.com/nhle/mailshot/internal/errors"
	"github.com/nhle/mailshot/internal/extract"
	"github.com/nhle/mailshot/internal/logging"
	"github.com/nhle/mailshot/internal/model"
	"github.com/nhle/mailshot/internal/ratelimit"
	"github.com/nhle/mailshot/internal/sanitize"
)

// MailClient is the mail-client collaborator. *mail.Client satisfies it.
type MailClient interface {
	FetchActiveMessage(ctx context.Context) (model.Message, error)
	FetchMessageByID(ctx context.Context, id string) (model.Message, error)
	ExtractAttachments(ctx context.Context, id, destDir string) ([]model.AttachmentFile, error)
	CreateReply(ctx context.Context, id, body string, replyAll bool) error
}

// TemplateStore supplies templates and the context profile.
// *store.SQLiteStore satisfies it.
type TemplateStore interface {
	ResolveTemplates(ctx context.Context, refs []string) ([]model.PromptTemplate, error)
	IncrementUsage(ctx context.Context, ids []string) error
	GetContextProfile(ctx context.Context) (model.ContextProfile, error)
}

// Invoker calls the AI provider. *ai.Invoker satisfies it.
type Invoker interface {
	Preflight(ctx context.Context) error
	Invoke(ctx context.Context, req ai.Request) (string, error)
}

// Harvester summarizes attachment files. *harvest.Harvester satisfies it.
type Harvester interface {
	Harvest(ctx context.Context, files []model.AttachmentFile) []model.AttachmentSummary
}

// Extractor reads standalone files. *extract.Extractor satisfies it.
type Extractor interface {
	Extract(ctx context.Context, path string) extract.Result
}

// Limiter gates per-key call budgets. *ratelimit.Limiter satisfies it.
type Limiter interface {
	Allow(key string) bool
	Remaining(key string) int
}

// Deps are the collaborators of an Orchestrator. Mail may be nil when
// only AnalyzeFile is used.
type Deps struct {
	Mail      MailClient
	Templates TemplateStore
	Invoker   Invoker
	Harvester Harvester
	Analyzer  Extractor
	Limiter   Limiter
}

// Orchestrator runs pipeline operations. Each call is independent; the
// only state shared across calls is the rate limiter.
type Orchestrator struct {
	deps     Deps
	tempDir  string
	observer Observer
	logger   *slog.Logger
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithTempDir sets the parent directory for per-run attachment folders.
func WithTempDir(dir string) Option {
	return func(o *Orchestrator) { o.tempDir = dir }
}

// WithObserver registers a stage observer.
func WithObserver(fn Observer) Option {
	return func(o *Orchestrator) { o.observer = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// New creates an Orchestrator.
func New(deps Deps, opts ...Option) *Orchestrator {
	o := &Orchestrator{deps: deps}
	for _, opt := range opts {
		opt(o)
	}
	if o.tempDir == "" {
		o.tempDir = os.TempDir()
	}
	if o.deps.Limiter == nil {
		o.deps.Limiter = ratelimit.New(ratelimit.DefaultLimit, ratelimit.DefaultWindow)
	}
	o.logger = logging.OrDefault(o.logger)
	return o
}

// RunRequest is the input of a One Shot or Smart Shot run.
type RunRequest struct {
	// TemplateIDs are template IDs or names, in the order to compose them.
	TemplateIDs []string

	QuickNotes string

	// MessageID selects a message; empty means the active message.
	MessageID string

	ReplyAll bool

	// SkipDelivery stops after sanitizing without creating a reply.
	SkipDelivery bool
}

// RunOneShot fetches the message, composes and invokes the AI once and
// writes a reply draft.
func (o *Orchestrator) RunOneShot(ctx context.Context, req RunRequest) model.PipelineResult {
	return o.run(ctx, req, false)
}

// RunSmartShot is RunOneShot with attachment summaries folded into the
// prompt.
func (o *Orchestrator) RunSmartShot(ctx context.Context, req RunRequest) model.PipelineResult {
	return o.run(ctx, req, true)
}

// run drives the state machine. Rate limiting and the credential check
// happen before any mail or network work.
func (o *Orchestrator) run(ctx context.Context, req RunRequest, smart bool) model.PipelineResult {
	op := "oneshot"
	if smart {
		op = "smartshot"
	}
	logger := logging.WithOperation(o.logger, op)
	start := time.Now()

	r := &runState{o: o, logger: logger}
	res := r.execute(ctx, req, smart)

	status := logging.StatusSuccess
	if res.Err != nil {
		status = logging.StatusError
	}
	logger.Info("pipeline finished",
		logging.Status(status),
		logging.Stage(res.Stage),
		slog.Bool("delivered", res.Delivered),
		slog.Duration(logging.KeyDuration, time.Since(start)),
		logging.Err(res.Err))

	return res
}

// runState carries one run through its stages.
type runState struct {
	o      *Orchestrator
	logger *slog.Logger
	res    model.PipelineResult
}

func (r *runState) enter(s Stage) {
	r.res.Stage = string(s)
	r.logger.Debug("stage", logging.Stage(string(s)))
	if r.o.observer != nil {
		r.o.observer(s)
	}
}

// fail records err against the current stage and ends the run.
func (r *runState) fail(err error) model.PipelineResult {
	r.res.Err = err
	if r.res.Stage == "" {
		r.res.Stage = string(StageIdle)
	}
	if r.o.observer != nil {
		r.o.observer(StageFailed)
	}
	return r.res
}

func (r *runState) execute(ctx context.Context, req RunRequest, smart bool) model.PipelineResult {
	o := r.o

	if !o.deps.Limiter.Allow(ratelimit.KeyAICall) {
		return r.fail(apperrors.NewRateLimited(ratelimit.KeyAICall))
	}
	r.logger.Debug("rate limit checked",
		slog.String("key", ratelimit.KeyAICall),
		slog.Int("remaining", o.deps.Limiter.Remaining(ratelimit.KeyAICall)))
	if err := o.deps.Invoker.Preflight(ctx); err != nil {
		return r.fail(err)
	}
	if o.deps.Mail == nil {
		return r.fail(apperrors.New(apperrors.NotConnected, "mail client unavailable"))
	}

	templates, err := o.deps.Templates.ResolveTemplates(ctx, req.TemplateIDs)
	if err != nil {
		return r.fail(err)
	}
	profile, err := o.deps.Templates.GetContextProfile(ctx)
	if err != nil {
		r.logger.Warn("loading context profile, using none", logging.Err(err))
		profile = model.ContextProfile{}
	}

	r.enter(StageFetching)
	var msg model.Message
	if req.MessageID != "" {
		msg, err = o.deps.Mail.FetchMessageByID(ctx, req.MessageID)
	} else {
		msg, err = o.deps.Mail.FetchActiveMessage(ctx)
	}
	if err != nil {
		return r.fail(asKind(err, apperrors.NotConnected, "could not read the message"))
	}

	var summaries []model.AttachmentSummary
	if smart {
		summaries = r.harvest(ctx, msg)
		r.res.Attachments = summaries
	}

	r.enter(StageComposing)
	prompt := compose.Compose(compose.Input{
		Templates:   templates,
		Message:     msg,
		QuickNotes:  req.QuickNotes,
		Profile:     profile,
		Attachments: summaries,
	})
	r.res.TemplatesUsed = prompt.TemplateNames
	r.res.QuickNotesApplied = prompt.QuickNotesApplied

	r.enter(StageInvokingAI)
	answer, err := o.deps.Invoker.Invoke(ctx, ai.Request{System: prompt.System, User: prompt.User})
	if err != nil {
		return r.fail(asKind(err, apperrors.ProviderError, "AI request failed"))
	}

	if len(templates) > 0 {
		ids := make([]string, 0, len(templates))
		for _, t := range templates {
			ids = append(ids, t.ID)
		}
		if err := o.deps.Templates.IncrementUsage(ctx, ids); err != nil {
			r.logger.Warn("updating template usage", logging.Err(err))
		}
	}

	r.enter(StageSanitizing)
	r.res.Content = sanitize.Text(answer)

	if req.SkipDelivery {
		r.enter(StageIdle)
		return r.res
	}

	r.enter(StageDelivering)
	if !o.deps.Limiter.Allow(ratelimit.KeyCreateReply) {
		return r.fail(apperrors.NewRateLimited(ratelimit.KeyCreateReply))
	}
	if err := o.deps.Mail.CreateReply(ctx, msg.ID, r.res.Content, req.ReplyAll); err != nil {
		if !apperrors.Is(err, apperrors.DeliveryFailed) {
			err = apperrors.Wrap(apperrors.DeliveryFailed, "could not create the reply", err)
		}
		return r.fail(err)
	}
	r.res.Delivered = true

	r.enter(StageIdle)
	return r.res
}

// harvest saves the message's attachments into a per-run directory and
// summarizes them. Nothing here fails the run; the directory is removed
// before returning.
func (r *runState) harvest(ctx context.Context, msg model.Message) []model.AttachmentSummary {
	o := r.o

	r.enter(StageExtracting)
	dir, err := os.MkdirTemp(o.tempDir, "mailshot-*")
	if err != nil {
		r.logger.Warn("creating attachment directory", logging.Err(err))
		return nil
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			r.logger.Debug("removing attachment directory", logging.Err(err))
		}
	}()

	files, err := o.deps.Mail.ExtractAttachments(ctx, msg.ID, dir)
	if err != nil {
		r.logger.Warn("extracting attachments, continuing without them", logging.Err(err))
	}
	if len(files) == 0 {
		return nil
	}

	r.enter(StageAnalyzing)
	if o.deps.Harvester == nil {
		return nil
	}
	return o.deps.Harvester.Harvest(ctx, files)
}

// asKind classifies err as kind unless it already carries a kind.
func asKind(err error, kind apperrors.Kind, msg string) error {
	if apperrors.KindOf(err) != "" {
		return err
	}
	return apperrors.Wrap(kind, msg, err)
}
