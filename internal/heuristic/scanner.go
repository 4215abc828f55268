// Package heuristic scans text for lexical and structural signs of disinformation.
package heuristic

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/ppiankov/truthscan/internal/model"
)

// Pattern names reported in HeuristicRaw.Triggered
const (
	PatternAlarmist      = "alarmist_keywords"
	PatternClickbait     = "clickbait_phrase"
	PatternCaps          = "excessive_caps"
	PatternPunctuation   = "excessive_punctuation"
	PatternEmotional     = "emotional_language"
	PatternDeathHoax     = "death_hoax"
	PatternPolitical     = "unsourced_political_claim"
	PatternUnattributed  = "unattributed_claims"
	PatternVeryShortText = "very_short_text"
)

var (
	alarmistKeywords = []string{
		"urgent", "breaking", "shocking", "exposed", "revealed", "secret", "hidden truth",
		"cover-up", "cover up", "wake up", "bombshell",
		"exclusif", "révélé", "choc", "scandale", "alerte",
	}

	clickbaitPhrases = []string{
		"you won't believe", "doctors hate", "they don't want you to know", "click here",
		"limited time", "act now", "miracle", "guaranteed", "what happened next", "share before",
		"vous ne le croirez pas", "partagez avant", "ils ne veulent pas que vous sachiez",
	}

	emotionalWords = []string{
		"amazing", "incredible", "unbelievable", "terrifying", "horrifying", "outrageous", "disgusting",
		"incroyable", "terrifiant", "horrible", "épouvantable", "scandaleux",
	}

	deathPhrases = []string{
		"est mort", "est morte", "is dead", "décédé", "décédée", "passed away",
		"a été tué", "has been killed", "assassiné", "assassinated",
	}

	assertivePhrases = []string{
		"scientists confirm", "experts say", "studies show", "it is proven", "doctors confirm",
		"everyone knows", "100% proof", "les scientifiques confirment", "c'est prouvé",
	}

	sourceMarkers = []string{
		"according to", "source", "study", "research", "report", "published",
		"reuters", "bbc", "ap news", "afp", "le monde", "france info",
		"selon", "étude", "recherche", "rapport", "publié",
	}

	politicalPattern = regexp.MustCompile(`\b(?:est|is)\s+(?:le|la|un|une|the|a)?\s*(?:président|presidente?|premier ministre|prime minister|roi|king|reine|queen)\b|\b(?:est|is|was|a été)\s+(?:élue?|elected|nommée?|appointed)\s+(?:président|president)`)

	simpleFactPattern = regexp.MustCompile(`\b(?:est|is|a été|has been)\s+(?:le|la|un|une|the|a|an)\b`)

	urlPattern = regexp.MustCompile(`https?://\S+`)
)

// Scanner detects suspicion patterns and source markers in text
type Scanner struct {
	capsRatio        float64
	exclamationRatio float64
	shortText        int
	longText         int
}

// NewScanner creates a scanner with the default thresholds
func NewScanner() *Scanner {
	return &Scanner{
		capsRatio:        0.25,
		exclamationRatio: 0.05,
		shortText:        30,
		longText:         200,
	}
}

// Scan returns the triggered patterns (each at most once) and source markers found
func (s *Scanner) Scan(text string) model.HeuristicRaw {
	text = strings.TrimSpace(text)
	lower := strings.ToLower(text)
	words := strings.Fields(text)
	chars := len([]rune(text))

	markers := matches(lower, sourceMarkers)
	if urlPattern.MatchString(text) {
		markers = append(markers, "link")
	}
	sourced := len(markers) > 0

	var triggered []string
	add := func(cond bool, name string) {
		if cond {
			triggered = append(triggered, name)
		}
	}

	add(len(matches(lower, alarmistKeywords)) > 0, PatternAlarmist)
	add(len(matches(lower, clickbaitPhrases)) > 0, PatternClickbait)
	add(s.shouting(text), PatternCaps)
	add(s.excessivePunctuation(text, chars), PatternPunctuation)
	add(len(matches(lower, emotionalWords)) >= 2, PatternEmotional)
	add(len(matches(lower, deathPhrases)) > 0 && len(words) <= 20 && !sourced, PatternDeathHoax)
	add(politicalPattern.MatchString(lower) && !sourced, PatternPolitical)
	add(!sourced && (chars > s.longText || len(matches(lower, assertivePhrases)) > 0), PatternUnattributed)
	add(chars < s.shortText && !simpleFactPattern.MatchString(lower), PatternVeryShortText)

	return model.HeuristicRaw{
		Triggered:     triggered,
		SourceMarkers: markers,
	}
}

// shouting reports an uppercase letter ratio above the threshold
func (s *Scanner) shouting(text string) bool {
	letters, upper := 0, 0
	for _, r := range text {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	if letters < 12 {
		return false
	}
	return float64(upper)/float64(letters) > s.capsRatio
}

func (s *Scanner) excessivePunctuation(text string, chars int) bool {
	if strings.Contains(text, "!!") || strings.Contains(text, "?!") || strings.Contains(text, "!?") || strings.Contains(text, "??") {
		return true
	}
	if chars == 0 {
		return false
	}
	return float64(strings.Count(text, "!")) > float64(chars)*s.exclamationRatio
}

// matches returns the phrases found as whole words in lower
func matches(lower string, phrases []string) []string {
	var found []string
	for _, p := range phrases {
		if containsPhrase(lower, p) {
			found = append(found, p)
		}
	}
	return found
}

// containsPhrase matches phrase at word boundaries; a trailing plural "s" is accepted
func containsPhrase(text, phrase string) bool {
	for start := 0; start < len(text); {
		idx := strings.Index(text[start:], phrase)
		if idx < 0 {
			return false
		}
		i := start + idx
		end := i + len(phrase)
		if !letterBefore(text, i) {
			if !letterAfter(text, end) {
				return true
			}
			if text[end] == 's' && !letterAfter(text, end+1) {
				return true
			}
		}
		start = i + 1
	}
	return false
}

func letterBefore(text string, i int) bool {
	if i == 0 {
		return false
	}
	r := []rune(text[:i])
	return unicode.IsLetter(r[len(r)-1])
}

func letterAfter(text string, i int) bool {
	for _, r := range text[i:] {
		return unicode.IsLetter(r)
	}
	return false
}
