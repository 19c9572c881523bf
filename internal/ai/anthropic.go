package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const (
	anthropicURL     = "https://api.anthropic.com/v1/messages"
	anthropicVersion = "2023-06-01"

	// The messages API rejects requests without max_tokens.
	anthropicMaxTokens = 1024
)

// anthropicProvider calls the Claude Messages API.
type anthropicProvider struct {
	url string
}

func (p *anthropicProvider) Name() string { return ProviderAnthropic }
func (p *anthropicProvider) Local() bool  { return false }

func (p *anthropicProvider) newRequest(ctx context.Context, in params) (*http.Request, error) {
	maxTokens := in.maxTokens
	if maxTokens <= 0 {
		maxTokens = anthropicMaxTokens
	}

	var blocks []apiContentBlock
	for _, img := range in.req.Images {
		blocks = append(blocks, apiContentBlock{
			Type: "image",
			Source: &apiImageSource{
				Type:      "base64",
				MediaType: img.MIMEType,
				Data:      img.Base64,
			},
		})
	}
	blocks = append(blocks, apiContentBlock{Type: "text", Text: in.req.User})

	reqBody := apiRequest{
		Model:     in.model,
		MaxTokens: maxTokens,
		System:    in.req.System,
		Messages:  []apiMessage{{Role: "user", Content: blocks}},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", in.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	return req, nil
}

func (p *anthropicProvider) parseResponse(body []byte) (string, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	var textParts []string
	found := false
	for _, block := range resp.Content {
		if block.Type == "text" {
			found = true
			textParts = append(textParts, block.Text)
		}
	}
	if !found {
		return "", errInvalidResponse
	}
	return strings.Join(textParts, ""), nil
}

func (p *anthropicProvider) parseError(status int, body []byte) string {
	var apiErr apiErrorResponse
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
		return fmt.Sprintf("API error (%d): %s", status, apiErr.Error.Message)
	}
	return fmt.Sprintf("API error (%d): %s", status, truncateBody(body))
}

// --- Claude API types ---

type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	System    string       `json:"system,omitempty"`
	Messages  []apiMessage `json:"messages"`
}

type apiMessage struct {
	Role    string            `json:"role"`
	Content []apiContentBlock `json:"content"`
}

type apiContentBlock struct {
	Type string `json:"type"`

	// For text blocks
	Text string `json:"text,omitempty"`

	// For image blocks
	Source *apiImageSource `json:"source,omitempty"`
}

type apiImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type apiResponse struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Role       string            `json:"role"`
	Content    []apiContentBlock `json:"content"`
	Model      string            `json:"model"`
	StopReason string            `json:"stop_reason"`
}

type apiErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}
