package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const grokURL = "https://api.x.ai/v1/chat/completions"

// chatProvider speaks the OpenAI chat-completions shape. It backs both the
// first-party hosted model and arbitrary OpenAI-compatible endpoints.
type chatProvider struct {
	name string
	url  string
}

func (p *chatProvider) Name() string { return p.name }
func (p *chatProvider) Local() bool  { return false }

func (p *chatProvider) newRequest(ctx context.Context, in params) (*http.Request, error) {
	body := chatRequest{
		Model:     in.model,
		MaxTokens: in.maxTokens,
		Messages: []chatMessage{
			{Role: "system", Content: in.req.System},
			{Role: "user", Content: chatUserContent(in.req)},
		},
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
	if in.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+in.apiKey)
	}
	return req, nil
}

// chatUserContent is a plain string for text-only requests and a content
// part array when images are attached.
func chatUserContent(r Request) any {
	if len(r.Images) == 0 {
		return r.User
	}

	parts := []chatPart{{Type: "text", Text: r.User}}
	for _, img := range r.Images {
		parts = append(parts, chatPart{
			Type:     "image_url",
			ImageURL: &chatImageURL{URL: img.DataURL()},
		})
	}
	return parts
}

func (p *chatProvider) parseResponse(body []byte) (string, error) {
	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == nil {
		return "", errInvalidResponse
	}
	return *resp.Choices[0].Message.Content, nil
}

func (p *chatProvider) parseError(status int, body []byte) string {
	var apiErr chatErrorResponse
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
		return fmt.Sprintf("API error (%d): %s", status, apiErr.Error.Message)
	}
	return fmt.Sprintf("API error (%d): %s", status, truncateBody(body))
}

// --- chat completions API types ---

type chatRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens,omitempty"`
	Messages  []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *chatImageURL `json:"image_url,omitempty"`
}

type chatImageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string  `json:"role"`
			Content *string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

type chatErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}
