package llm

import (
	"context"
	"regexp"
	"strings"
)

// LexiconClassifier is the offline sentiment backend.
// It scores alarmist wording with fixed word lists and needs no network.
type LexiconClassifier struct {
	alarmist []string
	negative []string
	positive []string
}

var (
	lexDeath     = regexp.MustCompile(`\b(?:est mort|is dead|décédé|passed away|a été tué|has been killed|assassinated)\b`)
	lexPolitical = regexp.MustCompile(`\b(?:est|is)\s+(?:le|la|un|une|the)\s+(?:président|president|premier ministre|prime minister|roi|king|reine|queen)`)
	lexSourced   = regexp.MustCompile(`\b(?:selon|according|source)`)
	lexWord      = regexp.MustCompile(`[\p{L}']+`)
)

// NewLexiconClassifier creates the offline classifier
func NewLexiconClassifier() *LexiconClassifier {
	return &LexiconClassifier{
		alarmist: []string{
			"breaking", "shocking", "you won't believe", "doctors hate", "secret",
			"they don't want you to know", "miracle", "guaranteed", "click here",
			"limited time", "act now", "urgent",
			"exclusif", "révélé", "choc", "incroyable", "vous ne le croirez pas",
		},
		negative: []string{
			"fear", "danger", "dangerous", "crisis", "disaster", "catastrophe", "panic", "threat",
			"attack", "kill", "killed", "death", "lie", "lies", "hoax", "fake", "scandal", "evil",
			"destroy", "terrifying", "horrifying", "outrage", "collapse",
			"peur", "danger", "crise", "catastrophe", "menace", "mensonge", "scandale", "mort",
		},
		positive: []string{
			"good", "great", "success", "successful", "improve", "improved", "celebrate", "welcome",
			"happy", "win", "won", "progress", "benefit", "hope", "safe",
			"bon", "succès", "réussite", "heureux", "progrès", "espoir",
		},
	}
}

// Name returns the backend name
func (l *LexiconClassifier) Name() string {
	return "lexicon"
}

// Classify scores text between 0.2 and 0.8; above 0.5 is negative
func (l *LexiconClassifier) Classify(ctx context.Context, text string) (*Classification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lower := strings.ToLower(text)
	words := lexWord.FindAllString(lower, -1)

	score := 0.3

	alarmist := 0
	for _, k := range l.alarmist {
		if strings.Contains(lower, k) {
			alarmist++
		}
	}
	score += min(float64(alarmist)*0.1, 0.3)

	if lexDeath.MatchString(lower) && len(words) <= 15 {
		score += 0.25
	}
	if lexPolitical.MatchString(lower) && len(words) <= 15 {
		score += 0.15
		if !lexSourced.MatchString(lower) {
			score += 0.1
		}
	}

	negative, positive := countWords(words, l.negative), countWords(words, l.positive)
	score += min(float64(negative)*0.05, 0.2)
	score -= min(float64(positive)*0.05, 0.15)

	if strings.Count(text, "!") >= 2 {
		score += 0.05
	}

	switch {
	case len(words) < 5:
		score += 0.15
	case len(words) < 10:
		score += 0.05
	}

	score = max(0.2, min(0.8, score))

	c := &Classification{Model: "lexicon-v1"}
	switch {
	case score > 0.5:
		c.Label, c.Confidence = "negative", score
	case positive > negative:
		c.Label, c.Confidence = "positive", 1-score
	default:
		c.Label, c.Confidence = "neutral", 1-score
	}
	return c, nil
}

func countWords(words, lexicon []string) int {
	set := make(map[string]bool, len(lexicon))
	for _, w := range lexicon {
		set[w] = true
	}
	n := 0
	for _, w := range words {
		if set[w] {
			n++
		}
	}
	return n
}
