package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// Provider names accepted in configuration.
const (
	ProviderGrok      = "grok"
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
	ProviderAnthropic = "anthropic"
)

// Provider is one member of the closed set of AI backends. Each variant
// owns its request and response shape; the invoker only sees the
// (system, user) -> text contract.
type Provider interface {
	// Name is the configuration name, also used as the credential key.
	Name() string

	// Local reports whether the provider runs on the user's machine. Local
	// providers need no API key and get the longer timeout.
	Local() bool

	newRequest(ctx context.Context, p params) (*http.Request, error)
	parseResponse(body []byte) (string, error)
	parseError(status int, body []byte) string
}

// params is everything a provider needs to build one HTTP request.
type params struct {
	model     string
	maxTokens int
	apiKey    string
	req       Request
}

// NewProvider resolves a configured provider name to its variant. endpoint
// overrides the variant's default URL and is required for "openai".
func NewProvider(name, endpoint string) (Provider, error) {
	endpoint = strings.TrimSpace(endpoint)

	switch strings.ToLower(strings.TrimSpace(name)) {
	case ProviderGrok:
		if endpoint == "" {
			endpoint = grokURL
		}
		return &chatProvider{name: ProviderGrok, url: endpoint}, nil
	case ProviderOpenAI:
		if endpoint == "" {
			return nil, fmt.Errorf("provider %q requires an endpoint", ProviderOpenAI)
		}
		return &chatProvider{name: ProviderOpenAI, url: endpoint}, nil
	case ProviderOllama:
		if endpoint == "" {
			endpoint = ollamaURL
		}
		return &ollamaProvider{url: endpoint}, nil
	case ProviderAnthropic:
		if endpoint == "" {
			endpoint = anthropicURL
		}
		return &anthropicProvider{url: endpoint}, nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", name)
	}
}

// Providers lists the supported provider names.
func Providers() []string {
	return []string{ProviderGrok, ProviderOpenAI, ProviderOllama, ProviderAnthropic}
}
