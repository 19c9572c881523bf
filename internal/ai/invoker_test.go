package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mailshot/internal/credential"
	apperrors "github.com/nhle/mailshot/internal/errors"
	"github.com/nhle/mailshot/internal/logging"
	"github.com/nhle/mailshot/internal/model"
)

type fakeCreds struct {
	keys  map[string]string
	calls int
}

func (f *fakeCreds) APIKey(provider string) (string, error) {
	f.calls++
	key, ok := f.keys[provider]
	if !ok {
		return "", credential.ErrNotFound
	}
	return key, nil
}

func newInvoker(t *testing.T, provider, endpoint string, creds CredentialSource, opts ...Option) *Invoker {
	t.Helper()
	opts = append([]Option{WithLogger(logging.Discard())}, opts...)
	inv, err := New(model.AIConfig{
		Provider:  provider,
		Model:     "test-model",
		Endpoint:  endpoint,
		MaxTokens: 256,
	}, creds, opts...)
	require.NoError(t, err)
	return inv
}

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		wantName string
		local    bool
		wantErr  bool
	}{
		{name: "grok", wantName: ProviderGrok},
		{name: "GROK", wantName: ProviderGrok},
		{name: "openai", endpoint: "http://localhost:8080/v1/chat/completions", wantName: ProviderOpenAI},
		{name: "openai", wantErr: true},
		{name: "ollama", wantName: ProviderOllama, local: true},
		{name: "anthropic", wantName: ProviderAnthropic},
		{name: "gemini", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.endpoint, func(t *testing.T) {
			p, err := NewProvider(tt.name, tt.endpoint)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, p.Name())
			assert.Equal(t, tt.local, p.Local())
		})
	}
}

func TestNew_UnknownProviderIsInvalidRequest(t *testing.T) {
	_, err := New(model.AIConfig{Provider: "nope"}, nil)
	assert.True(t, apperrors.Is(err, apperrors.InvalidRequest))
}

func TestNew_Timeouts(t *testing.T) {
	hosted, err := New(model.AIConfig{Provider: "grok"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 120*time.Second, hosted.Timeout())

	local, err := New(model.AIConfig{Provider: "ollama"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 300*time.Second, local.Timeout())

	custom, err := New(model.AIConfig{Provider: "ollama", LocalTimeoutSec: 30}, nil)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, custom.Timeout())
}

func TestInvoke_ChatCompletions(t *testing.T) {
	var got chatRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"x","choices":[{"index":0,"message":{"role":"assistant","content":"Hello there"}}]}`)
	}))
	defer srv.Close()

	creds := &fakeCreds{keys: map[string]string{"grok": "xai-secret"}}
	inv := newInvoker(t, "grok", srv.URL, creds)

	out, err := inv.Invoke(context.Background(), Request{System: "sys", User: "usr"})
	require.NoError(t, err)

	assert.Equal(t, "Hello there", out)
	assert.Equal(t, "Bearer xai-secret", auth)
	assert.Equal(t, "test-model", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "sys", got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "usr", got.Messages[1].Content)
}

func TestInvoke_ChatCompletionsWithImage(t *testing.T) {
	var raw map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&raw)
		_, _ = io.WriteString(w, `{"choices":[{"message":{"content":"a chart"}}]}`)
	}))
	defer srv.Close()

	inv := newInvoker(t, "openai", srv.URL, &fakeCreds{keys: map[string]string{"openai": "k"}})

	out, err := inv.Invoke(context.Background(), Request{
		System: "sys",
		User:   "describe",
		Images: []Image{{MIMEType: "image/png", Base64: "AAAA"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "a chart", out)

	messages := raw["messages"].([]any)
	user := messages[1].(map[string]any)
	parts := user["content"].([]any)
	require.Len(t, parts, 2)
	img := parts[1].(map[string]any)
	assert.Equal(t, "image_url", img["type"])
	assert.Equal(t, "data:image/png;base64,AAAA", img["image_url"].(map[string]any)["url"])
}

func TestInvoke_Ollama(t *testing.T) {
	var got ollamaRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = io.WriteString(w, `{"model":"llama3","message":{"role":"assistant","content":"local answer"},"done":true}`)
	}))
	defer srv.Close()

	inv := newInvoker(t, "ollama", srv.URL, nil)

	out, err := inv.Invoke(context.Background(), Request{System: "sys", User: "usr"})
	require.NoError(t, err)
	assert.Equal(t, "local answer", out)
	assert.False(t, got.Stream)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "usr", got.Messages[1].Content)
}

func TestInvoke_Anthropic(t *testing.T) {
	var got apiRequest
	var key, version string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key = r.Header.Get("x-api-key")
		version = r.Header.Get("anthropic-version")
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = io.WriteString(w, `{"type":"message","content":[{"type":"text","text":"Part one. "},{"type":"text","text":"Part two."}]}`)
	}))
	defer srv.Close()

	inv := newInvoker(t, "anthropic", srv.URL, &fakeCreds{keys: map[string]string{"anthropic": "sk-ant"}})

	out, err := inv.Invoke(context.Background(), Request{System: "sys", User: "usr"})
	require.NoError(t, err)
	assert.Equal(t, "Part one. Part two.", out)
	assert.Equal(t, "sk-ant", key)
	assert.Equal(t, anthropicVersion, version)
	assert.Equal(t, "sys", got.System)
	assert.Equal(t, 256, got.MaxTokens)
}

func TestInvoke_MissingCredentialFailsBeforeNetwork(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	inv := newInvoker(t, "grok", srv.URL, &fakeCreds{keys: map[string]string{}})

	_, err := inv.Invoke(context.Background(), Request{User: "x"})
	assert.True(t, apperrors.Is(err, apperrors.CredentialsMissing))
	assert.ErrorIs(t, err, credential.ErrNotFound)
	assert.Equal(t, int32(0), hits.Load())

	assert.True(t, apperrors.Is(inv.Preflight(context.Background()), apperrors.CredentialsMissing))
}

func TestInvoke_CredentialResolvedEveryCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"choices":[{"message":{"content":"ok"}}]}`)
	}))
	defer srv.Close()

	creds := &fakeCreds{keys: map[string]string{"grok": "k"}}
	inv := newInvoker(t, "grok", srv.URL, creds)

	_, err := inv.Invoke(context.Background(), Request{User: "a"})
	require.NoError(t, err)

	delete(creds.keys, "grok")
	_, err = inv.Invoke(context.Background(), Request{User: "b"})
	assert.True(t, apperrors.Is(err, apperrors.CredentialsMissing))
	assert.Equal(t, 2, creds.calls)
}

func TestInvoke_ProviderErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{name: "http error with api message", status: 401, body: `{"error":{"type":"auth","message":"bad key"}}`, wantMsg: "API error (401): bad key"},
		{name: "http error raw body", status: 500, body: `boom`, wantMsg: "API error (500): boom"},
		{name: "null content", status: 200, body: `{"choices":[{"message":{"content":null}}]}`, wantMsg: "invalid response"},
		{name: "no choices", status: 200, body: `{"choices":[]}`, wantMsg: "invalid response"},
		{name: "not json", status: 200, body: `<html>`, wantMsg: "invalid response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			inv := newInvoker(t, "grok", srv.URL, &fakeCreds{keys: map[string]string{"grok": "k"}})

			_, err := inv.Invoke(context.Background(), Request{User: "x"})
			require.Error(t, err)
			assert.True(t, apperrors.Is(err, apperrors.ProviderError))
			assert.Equal(t, tt.wantMsg, apperrors.UserMessage(err))
		})
	}
}

func TestInvoke_OllamaMissingMessageIsInvalid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"done":true}`)
	}))
	defer srv.Close()

	inv := newInvoker(t, "ollama", srv.URL, nil)
	_, err := inv.Invoke(context.Background(), Request{User: "x"})
	assert.True(t, apperrors.Is(err, apperrors.ProviderError))
	assert.Equal(t, "invalid response", apperrors.UserMessage(err))
}

func TestInvoke_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	inv := newInvoker(t, "grok", srv.URL,
		&fakeCreds{keys: map[string]string{"grok": "k"}},
		WithTimeout(50*time.Millisecond))

	_, err := inv.Invoke(context.Background(), Request{User: "x"})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ProviderError))
	assert.Contains(t, apperrors.UserMessage(err), "timed out")
}

func TestInvoke_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	inv := newInvoker(t, "grok", url, &fakeCreds{keys: map[string]string{"grok": "k"}})

	_, err := inv.Invoke(context.Background(), Request{User: "x"})
	assert.True(t, apperrors.Is(err, apperrors.ProviderError))
	assert.Equal(t, "could not reach AI provider", apperrors.UserMessage(err))
}
