package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ppiankov/truthscan/internal/model"
)

func TestParseClassification(t *testing.T) {
	tests := []struct {
		name       string
		reply      string
		label      string
		confidence float64
		wantErr    bool
	}{
		{name: "plain", reply: `{"label": "negative", "confidence": 0.8}`, label: "negative", confidence: 0.8},
		{name: "fenced", reply: "```json\n{\"label\":\"Positive\",\"confidence\":0.7}\n```", label: "positive", confidence: 0.7},
		{name: "alternate keys", reply: `{"sentiment": "neutral", "score": 0.55}`, label: "neutral", confidence: 0.55},
		{name: "percentage", reply: `{"label": "negative", "confidence": 92}`, label: "negative", confidence: 0.92},
		{name: "no json", reply: "negative", wantErr: true},
		{name: "no label", reply: `{"confidence": 0.9}`, wantErr: true},
		{name: "broken json", reply: `{"label": }`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ParseClassification(tt.reply)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Expected error, got %+v", c)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if c.Label != tt.label || c.Confidence != tt.confidence {
				t.Errorf("Expected %s/%v, got %s/%v", tt.label, tt.confidence, c.Label, c.Confidence)
			}
		})
	}
}

func TestBuildPrompt_Truncates(t *testing.T) {
	prompt := BuildPrompt(strings.Repeat("a", maxPromptChars+500))
	if strings.Count(prompt, "a") > maxPromptChars+100 {
		t.Errorf("Expected prompt text to be truncated")
	}
}

func TestRaw(t *testing.T) {
	raw := Raw(&Classification{Label: "negative", Confidence: 0.8, Model: "m"}, nil)
	if raw.Label != "negative" || raw.Confidence != 0.8 || raw.Err != nil {
		t.Errorf("Unexpected raw output: %+v", raw)
	}

	raw = Raw(nil, errors.New("boom"))
	if raw.Err == nil {
		t.Error("Expected error to be carried")
	}

	raw = Raw(nil, nil)
	if raw.Err == nil {
		t.Error("Expected error for empty result")
	}
}

func TestForMode(t *testing.T) {
	cfg := model.DefaultConfig()

	c, err := ForMode("lexicon", cfg)
	if err != nil || c == nil || c.Name() != "lexicon" {
		t.Fatalf("Expected lexicon classifier, got %v, %v", c, err)
	}

	c, err = ForMode("off", cfg)
	if err != nil || c != nil {
		t.Fatalf("Expected no classifier when off, got %v, %v", c, err)
	}

	if _, err := ForMode("llm", cfg); err == nil {
		t.Fatal("Expected error when llm mode has no provider")
	}

	cfg.LLM.Provider = "ollama"
	cfg.LLM.Model = "llama3.1"
	c, err = ForMode("llm", cfg)
	if err != nil || c.Name() != "ollama" {
		t.Fatalf("Expected ollama classifier, got %v, %v", c, err)
	}

	if _, err := ForMode("tarot", cfg); err == nil {
		t.Fatal("Expected error for unknown mode")
	}
}

func TestLexiconClassifier(t *testing.T) {
	l := NewLexiconClassifier()

	c, err := l.Classify(context.Background(), "BREAKING: shocking secret they don't want you to know, the dangerous vaccine is a hoax and panic grows!!!")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if c.Label != "negative" || c.Confidence <= 0.7 {
		t.Errorf("Expected confident negative label, got %+v", c)
	}

	c, err = l.Classify(context.Background(), "The city council approved a successful plan to improve public parks, and residents welcome the progress made this year.")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if c.Label != "positive" {
		t.Errorf("Expected positive label, got %+v", c)
	}

	c, _ = l.Classify(context.Background(), "The committee will publish its annual figures on Thursday after the regular meeting of members.")
	if c.Label != "neutral" {
		t.Errorf("Expected neutral label, got %+v", c)
	}
	if c.Confidence < 0 || c.Confidence > 1 {
		t.Errorf("Confidence out of range: %v", c.Confidence)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := l.Classify(ctx, "anything"); err == nil {
		t.Error("Expected error on cancelled context")
	}
}
