package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/ppiankov/truthscan/internal/util"
)

// OpenAIProvider classifies text with OpenAI chat models, or any endpoint
// speaking the same Chat Completions protocol
type OpenAIProvider struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// NewOpenAIProvider requires an API key
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, errors.New("openai API key is required")
	}

	timeout := time.Duration(config.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{
		Timeout:   timeout,
		Transport: &http.Transport{Proxy: util.NewProxyFunc(config.HTTPProxy, config.HTTPSProxy, config.NoProxy)},
	}

	p := &OpenAIProvider{
		client:    openai.NewClientWithConfig(clientConfig),
		model:     config.Model,
		maxTokens: config.MaxTokens,
	}
	if p.model == "" {
		p.model = openai.GPT4oMini
	}
	if p.maxTokens <= 0 {
		p.maxTokens = 200
	}
	return p, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string { return "openai" }

// Classify requests a JSON-object completion at temperature 0
func (p *OpenAIProvider) Classify(ctx context.Context, text string) (*Classification, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(text)},
		},
		MaxTokens:   p.maxTokens,
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("no choices in openai response")
	}

	c, err := ParseClassification(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	c.Model = resp.Model
	if c.Model == "" {
		c.Model = p.model
	}
	return c, nil
}
