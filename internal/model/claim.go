package model

// Claim represents a factual assertion extracted from the analyzed text
type Claim struct {
	Text      string `json:"text"`                // The claim text itself
	Heuristic string `json:"heuristic,omitempty"` // Which extraction rule matched (e.g., "pattern:is_dead")
	Sentence  int    `json:"sentence,omitempty"`  // Sentence index in source (0-based)
}

// ClaimOutcome is the fact-check classification of one claim
type ClaimOutcome string

const (
	OutcomeCorroborated ClaimOutcome = "corroborated"
	OutcomeContradicted ClaimOutcome = "contradicted"
	OutcomeUnverified   ClaimOutcome = "unverified"
)

// ClaimCheck is the result of searching the web for one claim
type ClaimCheck struct {
	Claim     string       `json:"claim"`
	Outcome   ClaimOutcome `json:"outcome"`
	TrueHits  float64      `json:"true_hits"`
	FalseHits float64      `json:"false_hits"`
	Sources   []string     `json:"sources,omitempty"`
}
