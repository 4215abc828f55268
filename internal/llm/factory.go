package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/truthscan/internal/model"
)

// NewClassifier creates a remote classifier based on configuration
func NewClassifier(config Config) (Classifier, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "":
		return nil, fmt.Errorf("no LLM provider configured (set llm.provider to openai, anthropic or ollama)")

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, anthropic, ollama)", config.Provider)
	}
}

// ForMode picks the sentiment backend named by providers.sentiment.
// It returns nil when sentiment analysis is switched off.
func ForMode(mode string, cfg model.Config) (Classifier, error) {
	switch strings.ToLower(mode) {
	case "", "lexicon":
		return NewLexiconClassifier(), nil
	case "llm":
		c := ConfigFromModel(cfg.LLM)
		c.HTTPProxy, c.HTTPSProxy, c.NoProxy = cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy
		return NewClassifier(c)
	case "off", "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown sentiment mode: %s (supported: lexicon, llm, off)", mode)
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(modelConfig model.LLMConfig) Config {
	return Config{
		Provider:  modelConfig.Provider,
		Model:     modelConfig.Model,
		APIKey:    modelConfig.APIKey,
		BaseURL:   modelConfig.BaseURL,
		Timeout:   modelConfig.Timeout,
		MaxTokens: modelConfig.MaxTokens,
	}
}
