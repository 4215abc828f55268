package heuristic

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScanner_Scan(t *testing.T) {
	scanner := NewScanner()

	tests := []struct {
		name        string
		text        string
		triggered   []string
		contains    []string
		markers     bool
		noTriggered bool
	}{
		{
			name:      "alarmist moon claim",
			text:      "Breaking: scientists confirm moon is fake!!!",
			triggered: []string{PatternAlarmist, PatternPunctuation, PatternUnattributed},
		},
		{
			name:        "sourced news",
			text:        "According to a Reuters report published on Monday, the central bank raised interest rates by 0.25 points.",
			markers:     true,
			noTriggered: true,
		},
		{
			name:     "death hoax",
			text:     "Celine Dion est morte ce matin",
			contains: []string{PatternDeathHoax},
		},
		{
			name:     "unsourced political claim",
			text:     "Zemmour est le président",
			contains: []string{PatternPolitical},
		},
		{
			name:     "shouting",
			text:     "THIS IS THE TRUTH THEY HIDE FROM YOU",
			contains: []string{PatternCaps},
		},
		{
			name:      "very short",
			text:      "omg look",
			triggered: []string{PatternVeryShortText},
		},
		{
			name:     "emotional",
			text:     "An amazing, incredible and terrifying discovery was made in the lab this week",
			contains: []string{PatternEmotional},
		},
		{
			name:     "clickbait",
			text:     "Doctors hate this one miracle trick that melts fat overnight",
			contains: []string{PatternClickbait},
		},
		{
			name:     "long unsourced text",
			text:     strings.Repeat("The harbour reopened and the ferries resumed their schedule. ", 5),
			contains: []string{PatternUnattributed},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := scanner.Scan(tt.text)
			assert.NoError(t, raw.Err)
			if tt.triggered != nil {
				assert.Equal(t, tt.triggered, raw.Triggered)
			}
			for _, p := range tt.contains {
				assert.Contains(t, raw.Triggered, p)
			}
			if tt.noTriggered {
				assert.Empty(t, raw.Triggered)
			}
			if tt.markers {
				assert.NotEmpty(t, raw.SourceMarkers)
			}
		})
	}
}

func TestScanner_SourcedDeathIsNotHoax(t *testing.T) {
	raw := NewScanner().Scan("Selon l'AFP, le chanteur est mort hier soir à Paris")
	assert.NotContains(t, raw.Triggered, PatternDeathHoax)
	assert.Contains(t, raw.SourceMarkers, "selon")
	assert.Contains(t, raw.SourceMarkers, "afp")
}

func TestScanner_LinkIsSourceMarker(t *testing.T) {
	raw := NewScanner().Scan("Full statement here: https://example.org/statement.pdf")
	assert.Contains(t, raw.SourceMarkers, "link")
}

func TestScanner_PatternsCountOnce(t *testing.T) {
	raw := NewScanner().Scan("URGENT!!! BREAKING!!! SHOCKING!!! SECRET EXPOSED!!! WAKE UP!!!")
	seen := map[string]int{}
	for _, p := range raw.Triggered {
		seen[p]++
	}
	for p, n := range seen {
		assert.Equal(t, 1, n, "pattern %s reported more than once", p)
	}
	assert.Contains(t, raw.Triggered, PatternAlarmist)
	assert.Contains(t, raw.Triggered, PatternCaps)
	assert.Contains(t, raw.Triggered, PatternPunctuation)
}

func TestContainsPhrase(t *testing.T) {
	assert.True(t, containsPhrase("anonymous sources say", "source"))
	assert.True(t, containsPhrase("source: afp", "source"))
	assert.False(t, containsPhrase("a renewable resource", "source"))
	assert.False(t, containsPhrase("the reporter said", "report"))
	assert.True(t, containsPhrase("c'est révélé!", "révélé"))
	assert.False(t, containsPhrase("", "report"))
}
