// Package ai sends a composed (system, user) prompt to the configured AI
// provider and returns the text of its answer.
package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	apperrors "github.com/nhle/mailshot/internal/errors"
	"github.com/nhle/mailshot/internal/logging"
	"github.com/nhle/mailshot/internal/model"
)

const (
	defaultTimeout      = 120 * time.Second
	defaultLocalTimeout = 300 * time.Second

	maxErrorBody = 512
)

var errInvalidResponse = errors.New("invalid response")

// Image is an inline image for vision-capable models.
type Image struct {
	MIMEType string
	Base64   string
}

// DataURL renders the image as a data: URL.
func (i Image) DataURL() string {
	return "data:" + i.MIMEType + ";base64," + i.Base64
}

// Request is one AI call. System and User are never merged.
type Request struct {
	System string
	User   string
	Images []Image
}

// CredentialSource resolves API keys. credential.Store satisfies it.
type CredentialSource interface {
	APIKey(provider string) (string, error)
}

// Invoker performs single, non-streaming AI calls.
type Invoker struct {
	provider  Provider
	model     string
	maxTokens int
	timeout   time.Duration
	creds     CredentialSource
	client    *http.Client
	logger    *slog.Logger
}

// Option customizes an Invoker.
type Option func(*Invoker)

// WithHTTPClient sets the HTTP client used for provider calls.
func WithHTTPClient(c *http.Client) Option {
	return func(inv *Invoker) { inv.client = c }
}

// WithTimeout overrides the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(inv *Invoker) { inv.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(inv *Invoker) { inv.logger = l }
}

// New creates an invoker for the provider named in cfg.
func New(cfg model.AIConfig, creds CredentialSource, opts ...Option) (*Invoker, error) {
	provider, err := NewProvider(cfg.Provider, cfg.Endpoint)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.InvalidRequest, "invalid AI configuration", err)
	}

	inv := &Invoker{
		provider:  provider,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		timeout:   timeoutFor(provider, cfg),
		creds:     creds,
		client:    &http.Client{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(inv)
	}
	inv.logger = logging.OrDefault(inv.logger)

	return inv, nil
}

func timeoutFor(p Provider, cfg model.AIConfig) time.Duration {
	if p.Local() {
		if cfg.LocalTimeoutSec > 0 {
			return time.Duration(cfg.LocalTimeoutSec) * time.Second
		}
		return defaultLocalTimeout
	}
	if cfg.TimeoutSec > 0 {
		return time.Duration(cfg.TimeoutSec) * time.Second
	}
	return defaultTimeout
}

// Provider returns the configured provider variant.
func (inv *Invoker) Provider() Provider { return inv.provider }

// Timeout returns the per-call timeout.
func (inv *Invoker) Timeout() time.Duration { return inv.timeout }

// Preflight checks that a credential is available without calling the
// provider. The key is not retained.
func (inv *Invoker) Preflight(ctx context.Context) error {
	_, err := inv.apiKey()
	return err
}

// apiKey resolves the provider's key from the credential source. Local
// providers need none.
func (inv *Invoker) apiKey() (string, error) {
	if inv.provider.Local() {
		return "", nil
	}
	if inv.creds == nil {
		return "", apperrors.NewCredentialsMissing(inv.provider.Name())
	}

	key, err := inv.creds.APIKey(inv.provider.Name())
	if err != nil || key == "" {
		e := apperrors.NewCredentialsMissing(inv.provider.Name())
		e.Err = err
		return "", e
	}
	return key, nil
}

// Invoke sends req and returns the provider's answer. The API key is
// looked up on every call; a missing key fails before any network I/O.
func (inv *Invoker) Invoke(ctx context.Context, req Request) (string, error) {
	logger := inv.logger.With(logging.Provider(inv.provider.Name()))

	apiKey, err := inv.apiKey()
	if err != nil {
		return "", err
	}

	callCtx, cancel := context.WithTimeout(ctx, inv.timeout)
	defer cancel()

	httpReq, err := inv.provider.newRequest(callCtx, params{
		model:     inv.model,
		maxTokens: inv.maxTokens,
		apiKey:    apiKey,
		req:       req,
	})
	if err != nil {
		return "", apperrors.Wrap(apperrors.ProviderError, "could not build AI request", err)
	}

	start := time.Now()
	logger.Debug("calling AI provider",
		slog.String("api_key", logging.SanitizeToken(apiKey)),
		slog.Int("system_chars", len(req.System)),
		slog.Int("user_chars", len(req.User)),
		slog.Int("images", len(req.Images)))

	resp, err := inv.client.Do(httpReq)
	if err != nil {
		return "", inv.transportError(ctx, callCtx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", inv.transportError(ctx, callCtx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := inv.provider.parseError(resp.StatusCode, body)
		logger.Warn("AI provider returned an error",
			slog.Int("status_code", resp.StatusCode),
			slog.Duration(logging.KeyDuration, time.Since(start)))
		return "", apperrors.New(apperrors.ProviderError, msg)
	}

	content, err := inv.provider.parseResponse(body)
	if err != nil {
		logger.Warn("AI provider response rejected", logging.Err(err))
		return "", apperrors.Wrap(apperrors.ProviderError, "invalid response", err)
	}

	logger.Debug("AI call complete",
		slog.Int("response_chars", len(content)),
		slog.Duration(logging.KeyDuration, time.Since(start)))

	return content, nil
}

// transportError classifies a failed round trip. A call deadline is
// reported distinctly from a caller cancellation or network failure.
func (inv *Invoker) transportError(parent, call context.Context, err error) error {
	switch {
	case parent.Err() != nil:
		return apperrors.Wrap(apperrors.ProviderError, "AI request canceled", parent.Err())
	case errors.Is(call.Err(), context.DeadlineExceeded):
		return apperrors.Wrap(apperrors.ProviderError,
			fmt.Sprintf("AI request timed out after %s", inv.timeout), err)
	default:
		return apperrors.Wrap(apperrors.ProviderError, "could not reach AI provider", err)
	}
}

func truncateBody(body []byte) string {
	if len(body) > maxErrorBody {
		return string(body[:maxErrorBody]) + "..."
	}
	return string(body)
}
