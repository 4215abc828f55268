package extract

import (
	"strings"
	"testing"
)

func TestClaimExtractor_Patterns(t *testing.T) {
	extractor := NewClaimExtractor(5)

	tests := []struct {
		name      string
		text      string
		contains  string
		heuristic string
	}{
		{
			name:      "death claim",
			text:      "Shocking news tonight. Johnny Hallyday is dead after a long illness, relatives say.",
			contains:  "Johnny Hallyday is dead",
			heuristic: "pattern:is_dead",
		},
		{
			name:      "leader claim",
			text:      "Everyone knows that Emmanuel Macron est le président de la République.",
			contains:  "Emmanuel Macron est le président",
			heuristic: "pattern:is_leader",
		},
		{
			name:      "election claim",
			text:      "Last night Joe Biden has won the state by a wide margin.",
			contains:  "Joe Biden has won",
			heuristic: "pattern:has_won",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := extractor.Extract(tt.text)
			if len(claims) == 0 {
				t.Fatalf("Expected claims for %q", tt.text)
			}
			if !strings.Contains(claims[0].Text, tt.contains) {
				t.Errorf("Expected first claim to contain %q, got %q", tt.contains, claims[0].Text)
			}
			if claims[0].Heuristic != tt.heuristic {
				t.Errorf("Expected heuristic %q, got %q", tt.heuristic, claims[0].Heuristic)
			}
		})
	}
}

func TestClaimExtractor_KeywordSentences(t *testing.T) {
	extractor := NewClaimExtractor(5)

	text := "The ministry officially approved the new vaccine on Tuesday. It was a sunny day. " +
		"According to the report, cases dropped by 40 percent."

	claims := extractor.Extract(text)
	if len(claims) != 2 {
		t.Fatalf("Expected 2 keyword claims, got %d: %+v", len(claims), claims)
	}
	if !strings.HasPrefix(claims[0].Heuristic, "keyword:") {
		t.Errorf("Expected keyword heuristic, got %q", claims[0].Heuristic)
	}
	if claims[1].Sentence != 2 {
		t.Errorf("Expected second claim from sentence 2, got %d", claims[1].Sentence)
	}
}

func TestClaimExtractor_FallbackSentences(t *testing.T) {
	extractor := NewClaimExtractor(5)

	claims := extractor.Extract("the moon landing footage was filmed in 1969 in a studio")
	if len(claims) != 1 {
		t.Fatalf("Expected 1 fallback claim, got %d", len(claims))
	}
	if claims[0].Heuristic != "sentence" {
		t.Errorf("Expected fallback heuristic, got %q", claims[0].Heuristic)
	}
}

func TestClaimExtractor_NoClaims(t *testing.T) {
	extractor := NewClaimExtractor(5)

	for _, text := range []string{"", "   ", "wow so cool", "just some words without anything checkable here"} {
		if claims := extractor.Extract(text); len(claims) != 0 {
			t.Errorf("Expected no claims for %q, got %+v", text, claims)
		}
	}
}

func TestClaimExtractor_MaxClaims(t *testing.T) {
	extractor := NewClaimExtractor(2)

	text := "Police arrested the mayor. The court banned the party. Scientists discovered a planet. Officials confirmed the report."
	claims := extractor.Extract(text)
	if len(claims) != 2 {
		t.Errorf("Expected claims to be capped at 2, got %d", len(claims))
	}
}

func TestClaimExtractor_Dedupe(t *testing.T) {
	extractor := NewClaimExtractor(5)

	text := "Police arrested the mayor today. Police arrested the mayor today."
	claims := extractor.Extract(text)
	if len(claims) != 1 {
		t.Errorf("Expected duplicate sentences to collapse, got %d", len(claims))
	}
}

func TestSplitSentences(t *testing.T) {
	sentences := SplitSentences("Breaking news!!! The moon is fake. Is it?\nYes it is.")
	if len(sentences) != 3 {
		t.Fatalf("Expected 3 sentences, got %d: %q", len(sentences), sentences)
	}
	if sentences[0] != "Breaking news!!!" {
		t.Errorf("Unexpected first sentence %q", sentences[0])
	}
}
