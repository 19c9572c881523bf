package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Error(t *testing.T) {
	err := New(NotConnected, "no message selected")
	assert.Equal(t, "NOT_CONNECTED: no message selected", err.Error())

	wrapped := Wrap(ProviderError, "request failed", stderrors.New("dial tcp: refused"))
	assert.Equal(t, "PROVIDER_ERROR: request failed: dial tcp: refused", wrapped.Error())
}

func TestIs_ThroughWrapping(t *testing.T) {
	base := NewRateLimited("ai-call")
	err := fmt.Errorf("running one shot: %w", base)

	assert.True(t, Is(err, RateLimited))
	assert.False(t, Is(err, ProviderError))
	assert.Equal(t, RateLimited, KindOf(err))
}

func TestIs_Unclassified(t *testing.T) {
	assert.False(t, Is(stderrors.New("plain"), ProviderError))
	assert.False(t, Is(nil, ProviderError))
	assert.Equal(t, Kind(""), KindOf(stderrors.New("plain")))
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("keyring locked")
	err := Wrap(CredentialsMissing, "cannot read key", cause)
	assert.ErrorIs(t, err, cause)
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil))
	assert.Equal(t, `no API key configured for provider "grok"`,
		UserMessage(fmt.Errorf("wrapped: %w", NewCredentialsMissing("grok"))))
	assert.Equal(t, "plain", UserMessage(stderrors.New("plain")))
}
