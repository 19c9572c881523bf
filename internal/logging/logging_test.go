package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErr_NilIsOmitted(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info")

	logger.Info("done", Err(nil))
	assert.NotContains(t, buf.String(), KeyError)

	buf.Reset()
	logger.Info("failed", Err(errors.New("boom")))
	assert.Contains(t, buf.String(), "error=boom")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNew_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "warn")

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	assert.False(t, strings.Contains(out, "hidden"))
	assert.True(t, strings.Contains(out, "shown"))
}

func TestAnonymizeEmail(t *testing.T) {
	assert.Equal(t, "", AnonymizeEmail(""))

	a := AnonymizeEmail("Ann@Example.com")
	b := AnonymizeEmail("ann@example.com")
	assert.Equal(t, a, b, "hash is case-insensitive")
	assert.True(t, strings.HasPrefix(a, "user:"))
	assert.NotContains(t, a, "example")
}

func TestSanitizeToken(t *testing.T) {
	assert.Equal(t, "<empty>", SanitizeToken(""))
	assert.Equal(t, "[token:6 chars]", SanitizeToken("secret"))
}

func TestWithOperation(t *testing.T) {
	var buf bytes.Buffer
	logger := WithOperation(New(&buf, "info"), "oneshot")
	logger.Info("started", Stage("fetching"))

	assert.Contains(t, buf.String(), "operation=oneshot")
	assert.Contains(t, buf.String(), "stage=fetching")
}
