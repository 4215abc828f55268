package extract

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/ppiankov/truthscan/internal/model"
)

// claimPattern is a factual statement shape worth checking on the web
type claimPattern struct {
	name string
	re   *regexp.Regexp
}

// Proper names followed by a checkable predicate, in English and French
var claimPatterns = []claimPattern{
	{"is_leader", regexp.MustCompile(`\p{Lu}\p{L}+(?:\s+\p{Lu}\p{L}+)*\s+(?i:est|is|a été|has been|was)\s+(?i:(?:le|la|un|une|the|a)\s+)?(?i:président|president|premier ministre|prime minister|ceo|king|queen|roi|reine)\b[^.!?]*`)},
	{"is_dead", regexp.MustCompile(`\p{Lu}\p{L}+(?:\s+\p{Lu}\p{L}+)*\s+(?i:est morte?|is dead|has died|died|décédée?|passed away)[^.!?]*`)},
	{"has_won", regexp.MustCompile(`\p{Lu}\p{L}+(?:\s+\p{Lu}\p{L}+)*\s+(?i:a|has)\s+(?i:gagné|won|été élue?|been elected|élue?|elected)[^.!?]*`)},
	{"truth_claim", regexp.MustCompile(`(?i:le|la|the)\s+\p{Lu}\p{L}+\s+(?i:est|is)\s+(?i:vrai|true|faux|false|fake)\b[^.!?]*`)},
}

// ClaimExtractor extracts checkable factual claims from plain text
type ClaimExtractor struct {
	keywords  []string
	maxClaims int
}

// NewClaimExtractor creates a new claim extractor
func NewClaimExtractor(maxClaims int) *ClaimExtractor {
	if maxClaims <= 0 {
		maxClaims = 5
	}
	return &ClaimExtractor{
		keywords: []string{
			"confirmed", "announced", "revealed", "according to", "discovered",
			"proved", "proven", "admitted", "officially", "elected", "arrested",
			"banned", "approved", "invented", "founded", "died",
			"confirme", "annoncé", "révélé", "selon", "découvert", "officiellement",
		},
		maxClaims: maxClaims,
	}
}

// Extract returns up to maxClaims claims.
// Pattern matches come first; keyword sentences and then plain sentences
// with names or figures fill the remaining slots.
func (e *ClaimExtractor) Extract(text string) []model.Claim {
	text = normalizeSpace(text)
	if text == "" {
		return nil
	}

	var claims []model.Claim
	for _, p := range claimPatterns {
		for _, m := range p.re.FindAllString(text, -1) {
			m = strings.TrimSpace(m)
			if len(m) > 10 && len(m) < 200 {
				claims = append(claims, model.Claim{Text: m, Heuristic: "pattern:" + p.name})
			}
		}
	}

	sentences := splitSentences(text)
	for i, sentence := range sentences {
		lower := strings.ToLower(sentence)
		for _, keyword := range e.keywords {
			if strings.Contains(lower, keyword) {
				claims = append(claims, model.Claim{
					Text:      sentence,
					Heuristic: "keyword:" + keyword,
					Sentence:  i,
				})
				break // Only match once per sentence
			}
		}
	}

	if len(claims) == 0 {
		for i, sentence := range sentences {
			if len(sentence) > 15 && len(sentence) < 150 && hasNameOrFigure(sentence) {
				claims = append(claims, model.Claim{Text: sentence, Heuristic: "sentence", Sentence: i})
			}
		}
	}

	claims = dedupeClaims(claims)
	if len(claims) > e.maxClaims {
		claims = claims[:e.maxClaims]
	}
	return claims
}

// SplitSentences exposes the sentence splitter to other packages
func SplitSentences(text string) []string {
	return splitSentences(normalizeSpace(text))
}

// splitSentences splits text into sentences (simple heuristic)
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i, r := range runes {
		current.WriteRune(r)

		if r == '.' || r == '!' || r == '?' {
			// Look ahead to avoid splitting on abbreviations and "!!!"
			if i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
				appendSentence(&sentences, current.String())
				current.Reset()
			}
		}
	}
	appendSentence(&sentences, current.String())

	return sentences
}

func appendSentence(sentences *[]string, s string) {
	s = strings.TrimSpace(s)
	if len(s) >= 8 && len(s) <= 500 {
		*sentences = append(*sentences, s)
	}
}

func hasNameOrFigure(s string) bool {
	for i, r := range []rune(s) {
		if unicode.IsDigit(r) {
			return true
		}
		if i > 0 && unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

func normalizeSpace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// dedupeClaims removes duplicate claims and claims contained in an earlier one
func dedupeClaims(claims []model.Claim) []model.Claim {
	var unique []model.Claim

	for _, claim := range claims {
		key := strings.ToLower(strings.TrimSpace(claim.Text))
		dup := false
		for _, u := range unique {
			prev := strings.ToLower(u.Text)
			if prev == key || strings.Contains(prev, key) {
				dup = true
				break
			}
		}
		if !dup {
			unique = append(unique, claim)
		}
	}

	return unique
}
