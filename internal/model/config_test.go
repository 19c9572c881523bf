package model

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "grok", cfg.AI.Provider)
	assert.Equal(t, 120, cfg.AI.TimeoutSec)
	assert.Equal(t, 5000, cfg.Pipeline.SummaryMaxChars)
	assert.Equal(t, 50000, cfg.Pipeline.AnalysisMaxChars)
	assert.Equal(t, 20, cfg.Pipeline.RateLimitCalls)
	assert.Equal(t, 60, cfg.Pipeline.RateLimitWindowSec)
	assert.Equal(t, "INBOX", cfg.Mail.Mailbox)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultAppConfig()
	cfg.AI.Provider = "ollama"
	cfg.AI.Model = "llama3.1"
	cfg.AI.Endpoint = "http://localhost:11434"
	cfg.Mail.IMAPHost = "imap.example.com"
	cfg.Mail.Username = "me@example.com"
	cfg.Pipeline.OCRMinChars = 30
	cfg.Telemetry = true

	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "ollama", loaded.AI.Provider)
	assert.Equal(t, "llama3.1", loaded.AI.Model)
	assert.Equal(t, "http://localhost:11434", loaded.AI.Endpoint)
	assert.Equal(t, "imap.example.com", loaded.Mail.IMAPHost)
	assert.Equal(t, 30, loaded.Pipeline.OCRMinChars)
	assert.True(t, loaded.Telemetry)
	assert.Equal(t, "me@example.com", loaded.Mail.FromAddress, "from address falls back to username")
}

func TestMessageSender(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want string
	}{
		{"both", Message{SenderName: "Ann", SenderEmail: "ann@example.com"}, "Ann <ann@example.com>"},
		{"name only", Message{SenderName: "Ann"}, "Ann"},
		{"address only", Message{SenderEmail: "ann@example.com"}, "ann@example.com"},
		{"neither", Message{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.msg.Sender())
		})
	}
}
