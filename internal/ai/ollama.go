package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const ollamaURL = "http://localhost:11434/api/chat"

// ollamaProvider talks to a local Ollama server.
type ollamaProvider struct {
	url string
}

func (p *ollamaProvider) Name() string { return ProviderOllama }
func (p *ollamaProvider) Local() bool  { return true }

func (p *ollamaProvider) newRequest(ctx context.Context, in params) (*http.Request, error) {
	user := ollamaMessage{Role: "user", Content: in.req.User}
	for _, img := range in.req.Images {
		user.Images = append(user.Images, img.Base64)
	}

	body := ollamaRequest{
		Model:    in.model,
		Stream:   false,
		Messages: []ollamaMessage{{Role: "system", Content: in.req.System}, user},
	}
	if in.maxTokens > 0 {
		body.Options = &ollamaOptions{NumPredict: in.maxTokens}
	}

	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (p *ollamaProvider) parseResponse(body []byte) (string, error) {
	var resp ollamaResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if resp.Message == nil || resp.Message.Content == nil {
		return "", errInvalidResponse
	}
	return *resp.Message.Content, nil
}

func (p *ollamaProvider) parseError(status int, body []byte) string {
	var apiErr struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
		return fmt.Sprintf("API error (%d): %s", status, apiErr.Error)
	}
	return fmt.Sprintf("API error (%d): %s", status, truncateBody(body))
}

// --- Ollama API types ---

type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  *ollamaOptions  `json:"options,omitempty"`
}

type ollamaMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type ollamaOptions struct {
	NumPredict int `json:"num_predict,omitempty"`
}

type ollamaResponse struct {
	Model   string `json:"model"`
	Message *struct {
		Role    string  `json:"role"`
		Content *string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}
