package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const ollamaDefaultURL = "http://localhost:11434"

// OllamaProvider classifies text with a local Ollama model
type OllamaProvider struct {
	api       *apiClient
	model     string
	maxTokens int
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	System  string        `json:"system,omitempty"`
	Format  string        `json:"format,omitempty"`
	Options ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// NewOllamaProvider never fails; a missing model is reported by Classify
func NewOllamaProvider(config Config) (*OllamaProvider, error) {
	// local models load slowly on first use
	api := newAPIClient(config, ollamaDefaultURL, 60*time.Second)
	api.describeError = func(body []byte) (string, bool) {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &e) != nil || e.Error == "" {
			return "", false
		}
		return e.Error, true
	}

	maxTokens := config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 200
	}
	return &OllamaProvider{api: api, model: config.Model, maxTokens: maxTokens}, nil
}

// Name returns the provider name
func (p *OllamaProvider) Name() string { return "ollama" }

// Classify asks /api/generate for a JSON-formatted reply
func (p *OllamaProvider) Classify(ctx context.Context, text string) (*Classification, error) {
	if p.model == "" {
		return nil, errors.New("ollama model must be specified (e.g., llama3.1:8b, mistral)")
	}

	req := ollamaRequest{
		Model:   p.model,
		Prompt:  BuildPrompt(text),
		System:  systemPrompt,
		Format:  "json",
		Options: ollamaOptions{NumPredict: p.maxTokens},
	}

	var resp ollamaResponse
	if err := p.api.post(ctx, "/api/generate", req, &resp); err != nil {
		return nil, fmt.Errorf("ollama API error: %w", err)
	}

	c, err := ParseClassification(resp.Response)
	if err != nil {
		return nil, err
	}
	c.Model = resp.Model
	return c, nil
}
