package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	anthropicDefaultURL   = "https://api.anthropic.com"
	anthropicDefaultModel = "claude-3-5-haiku-20241022"
	anthropicVersion      = "2023-06-01"
)

// AnthropicProvider classifies text with the Anthropic Messages API
type AnthropicProvider struct {
	api       *apiClient
	model     string
	maxTokens int
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Messages    []anthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
	Temperature float64            `json:"temperature,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicResponse struct {
	ID         string           `json:"id"`
	Model      string           `json:"model"`
	Content    []anthropicBlock `json:"content"`
	StopReason string           `json:"stop_reason"`
}

type anthropicError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewAnthropicProvider requires an API key
func NewAnthropicProvider(config Config) (*AnthropicProvider, error) {
	if config.APIKey == "" {
		return nil, errors.New("anthropic API key is required")
	}

	api := newAPIClient(config, anthropicDefaultURL, 30*time.Second)
	api.headers.Set("x-api-key", config.APIKey)
	api.headers.Set("anthropic-version", anthropicVersion)
	api.describeError = func(body []byte) (string, bool) {
		var e anthropicError
		if json.Unmarshal(body, &e) != nil || e.Error.Type == "" {
			return "", false
		}
		return e.Error.Type + " - " + e.Error.Message, true
	}

	p := &AnthropicProvider{api: api, model: config.Model, maxTokens: config.MaxTokens}
	if p.model == "" {
		p.model = anthropicDefaultModel
	}
	if p.maxTokens <= 0 {
		p.maxTokens = 200
	}
	return p, nil
}

// Name returns the provider name
func (p *AnthropicProvider) Name() string { return "anthropic" }

// Classify labels text using the first text block of the reply
func (p *AnthropicProvider) Classify(ctx context.Context, text string) (*Classification, error) {
	req := anthropicRequest{
		Model:     p.model,
		MaxTokens: p.maxTokens,
		System:    systemPrompt,
		Messages:  []anthropicMessage{{Role: "user", Content: BuildPrompt(text)}},
	}

	var resp anthropicResponse
	if err := p.api.post(ctx, "/v1/messages", req, &resp); err != nil {
		return nil, fmt.Errorf("anthropic API error: %w", err)
	}

	for _, block := range resp.Content {
		if block.Type != "" && block.Type != "text" {
			continue
		}
		c, err := ParseClassification(block.Text)
		if err != nil {
			return nil, err
		}
		c.Model = resp.Model
		return c, nil
	}
	return nil, errors.New("no text content in anthropic response")
}
