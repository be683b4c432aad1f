package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	xaiBaseURL      = "https://api.x.ai/v1"
	xaiDefaultModel = "grok-4-1-fast"
)

// xaiHTTPClient allows for slow completions on long blocks.
var xaiHTTPClient = &http.Client{
	Timeout: 10 * time.Minute,
}

// XAIProvider implements Provider for the xAI (Grok) API using the
// OpenAI-compatible chat completions endpoint.
type XAIProvider struct {
	apiKey string
	model  string
}

// NewXAIProvider creates a new xAI provider.
func NewXAIProvider(apiKey, model string) *XAIProvider {
	if model == "" {
		model = xaiDefaultModel
	}
	return &XAIProvider{apiKey: apiKey, model: model}
}

func (p *XAIProvider) Name() string {
	return fmt.Sprintf("xAI (%s)", p.model)
}

type xaiChatRequest struct {
	Model       string       `json:"model"`
	Messages    []xaiMessage `json:"messages"`
	Temperature *float64     `json:"temperature,omitempty"`
	MaxTokens   *int         `json:"max_tokens,omitempty"`
}

type xaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type xaiChatResponse struct {
	Choices []struct {
		Message xaiMessage `json:"message"`
	} `json:"choices"`
	Error *xaiAPIError `json:"error,omitempty"`
}

type xaiAPIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (p *XAIProvider) Generate(ctx context.Context, req Request) (string, error) {
	var messages []xaiMessage
	if req.System != "" {
		messages = append(messages, xaiMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, xaiMessage{Role: "user", Content: req.Prompt})

	temperature := req.temperature()
	maxTokens := req.maxTokens()
	body, err := json.Marshal(xaiChatRequest{
		Model:       p.model,
		Messages:    messages,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", xaiBaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := xaiHTTPClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("xAI API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read xAI response: %w", err)
	}
	if resp.StatusCode != 200 {
		return "", fmt.Errorf("xAI API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var chatResp xaiChatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", fmt.Errorf("failed to parse xAI response: %w", err)
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("xAI API error: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("xAI returned no choices")
	}
	return chatResp.Choices[0].Message.Content, nil
}
