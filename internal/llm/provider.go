package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/truthscan/internal/model"
)

// Classifier labels the tone of a text
type Classifier interface {
	// Name returns the backend name
	Name() string

	// Classify returns a sentiment label and a confidence in [0,1]
	Classify(ctx context.Context, text string) (*Classification, error)
}

// Classification is one classifier verdict
type Classification struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Model      string  `json:"model,omitempty"`
}

// Raw converts a classification (or a failure) into the sentiment provider output
func Raw(c *Classification, err error) *model.SentimentRaw {
	if err != nil {
		return &model.SentimentRaw{Err: err}
	}
	if c == nil {
		return &model.SentimentRaw{Err: fmt.Errorf("classify: empty result")}
	}
	return &model.SentimentRaw{Label: c.Label, Confidence: c.Confidence, Model: c.Model}
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Disabled by default
		Timeout:   30,
		MaxTokens: 200,
	}
}

// maxPromptChars bounds the text sent to remote models
const maxPromptChars = 4000

const systemPrompt = "You classify the tone of news content for a disinformation screening tool. " +
	"Reply with a single JSON object and nothing else."

// BuildPrompt constructs the classification prompt
func BuildPrompt(text string) string {
	if utf8.RuneCountInString(text) > maxPromptChars {
		text = string([]rune(text)[:maxPromptChars])
	}
	return fmt.Sprintf(`Classify the sentiment of the text below.

Use "negative" for alarmist, fear-inducing, hostile or sensational wording,
"positive" for upbeat wording and "neutral" for factual reporting.

Answer with JSON only, for example: {"label": "negative", "confidence": 0.82}

Text:
"""
%s
"""`, text)
}

var jsonObject = regexp.MustCompile(`(?s)\{.*\}`)

// ParseClassification reads a model reply leniently.
// Code fences, surrounding prose and percentage confidences are tolerated.
func ParseClassification(reply string) (*Classification, error) {
	raw := jsonObject.FindString(reply)
	if raw == "" {
		return nil, fmt.Errorf("parse classification: no JSON object in reply %q", truncate(reply, 80))
	}

	var parsed struct {
		Label      string  `json:"label"`
		Sentiment  string  `json:"sentiment"`
		Confidence float64 `json:"confidence"`
		Score      float64 `json:"score"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("parse classification: %w", err)
	}

	label := strings.ToLower(strings.TrimSpace(parsed.Label))
	if label == "" {
		label = strings.ToLower(strings.TrimSpace(parsed.Sentiment))
	}
	if label == "" {
		return nil, fmt.Errorf("parse classification: missing label")
	}

	confidence := parsed.Confidence
	if confidence == 0 {
		confidence = parsed.Score
	}
	if confidence > 1 && confidence <= 100 {
		confidence /= 100
	}

	return &Classification{Label: label, Confidence: confidence}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
