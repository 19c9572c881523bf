package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/nhle/mailshot/internal/ai"
	"github.com/nhle/mailshot/internal/credential"
	apperrors "github.com/nhle/mailshot/internal/errors"
	"github.com/nhle/mailshot/internal/extract"
	"github.com/nhle/mailshot/internal/harvest"
	"github.com/nhle/mailshot/internal/logging"
	"github.com/nhle/mailshot/internal/mail"
	"github.com/nhle/mailshot/internal/model"
	"github.com/nhle/mailshot/internal/pipeline"
	"github.com/nhle/mailshot/internal/ratelimit"
	"github.com/nhle/mailshot/internal/store"
)

func (a *app) openStore() (*store.SQLiteStore, error) {
	path := a.cfg.Store.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return store.NewSQLiteStore(path)
}

func (a *app) credentials() *credential.Store {
	return credential.NewStore(a.dataDir())
}

// extractor builds the attachment extractor. OCR is enabled only when
// the tesseract binary can be found.
func (a *app) extractor() *extract.Extractor {
	p := a.cfg.Pipeline
	opts := extract.Options{
		MaxChars:            p.SummaryMaxChars,
		ScannedCharsPerPage: p.ScannedCharsPerPage,
		ScannedMinChars:     p.ScannedMinChars,
		OCRMinChars:         p.OCRMinChars,
	}

	var ocr extract.OCR
	if bin, err := exec.LookPath(p.TesseractPath); err == nil {
		ocr = extract.Tesseract{Path: bin}
	} else {
		a.logger.Debug("tesseract not found, images go to the vision model", logging.Err(err))
	}

	return extract.New(opts, ocr, a.logger)
}

func (a *app) limiter() *ratelimit.Limiter {
	p := a.cfg.Pipeline
	return ratelimit.New(p.RateLimitCalls, time.Duration(p.RateLimitWindowSec)*time.Second)
}

// mailClient connects the mail collaborator using the IMAP password from
// the keyring.
func (a *app) mailClient(creds *credential.Store) (*mail.Client, error) {
	user := a.cfg.Mail.Username
	if user == "" {
		return nil, apperrors.New(apperrors.NotConnected,
			"mail account is not configured; set mail.imap_host and mail.username")
	}

	password, err := creds.Get(credential.IMAPPasswordName(user))
	if err != nil {
		if errors.Is(err, credential.ErrNotFound) {
			return nil, apperrors.Wrap(apperrors.NotConnected,
				"no IMAP password stored; run `mailshot credentials set imap`", err)
		}
		return nil, apperrors.Wrap(apperrors.NotConnected, "reading IMAP password", err)
	}

	return mail.NewClient(a.cfg.Mail, password, a.logger)
}

// lazyMail connects the mail collaborator on first use, so the pipeline's
// rate limit and credential checks run before the keyring is read for the
// IMAP password.
type lazyMail struct {
	connect func() (pipeline.MailClient, error)

	once   sync.Once
	client pipeline.MailClient
	err    error
}

func newLazyMail(connect func() (pipeline.MailClient, error)) *lazyMail {
	return &lazyMail{connect: connect}
}

func (l *lazyMail) get() (pipeline.MailClient, error) {
	l.once.Do(func() {
		l.client, l.err = l.connect()
	})
	return l.client, l.err
}

func (l *lazyMail) FetchActiveMessage(ctx context.Context) (model.Message, error) {
	c, err := l.get()
	if err != nil {
		return model.Message{}, err
	}
	return c.FetchActiveMessage(ctx)
}

func (l *lazyMail) FetchMessageByID(ctx context.Context, id string) (model.Message, error) {
	c, err := l.get()
	if err != nil {
		return model.Message{}, err
	}
	return c.FetchMessageByID(ctx, id)
}

func (l *lazyMail) ExtractAttachments(ctx context.Context, id, destDir string) ([]model.AttachmentFile, error) {
	c, err := l.get()
	if err != nil {
		return nil, err
	}
	return c.ExtractAttachments(ctx, id, destDir)
}

func (l *lazyMail) CreateReply(ctx context.Context, id, body string, replyAll bool) error {
	c, err := l.get()
	if err != nil {
		return err
	}
	return c.CreateReply(ctx, id, body, replyAll)
}

// orchestrator wires the pipeline. mailer may be nil for file analysis.
func (a *app) orchestrator(
	st *store.SQLiteStore,
	mailer pipeline.MailClient,
	observer pipeline.Observer,
) (*pipeline.Orchestrator, error) {
	creds := a.credentials()

	invoker, err := ai.New(a.cfg.AI, creds, ai.WithLogger(a.logger))
	if err != nil {
		return nil, err
	}
	a.logger.Debug("AI invoker ready",
		logging.Provider(invoker.Provider().Name()),
		slog.Duration("timeout", invoker.Timeout()))

	limiter := a.limiter()
	ex := a.extractor()

	opts := []pipeline.Option{
		pipeline.WithLogger(a.logger),
		pipeline.WithTempDir(a.cfg.Pipeline.TempDir),
	}
	if observer != nil {
		opts = append(opts, pipeline.WithObserver(observer))
	}

	return pipeline.New(pipeline.Deps{
		Mail:      mailer,
		Templates: st,
		Invoker:   invoker,
		Harvester: harvest.New(ex, invoker, limiter, a.logger),
		Analyzer:  ex.WithMaxChars(a.cfg.Pipeline.AnalysisMaxChars),
		Limiter:   limiter,
	}, opts...), nil
}
