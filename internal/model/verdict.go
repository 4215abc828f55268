package model

import (
	"fmt"
	"math"
)

// Verdict is the discrete classification of an analysis
type Verdict string

const (
	VerdictFake          Verdict = "fake"
	VerdictProbablyReal  Verdict = "probably_real"
	VerdictNeedsReview   Verdict = "needs_review"
	VerdictInsufficient  Verdict = "insufficient"
	VerdictNotAnalyzable Verdict = "not_analyzable"
)

// AllVerdicts lists every verdict value
func AllVerdicts() []Verdict {
	return []Verdict{VerdictFake, VerdictProbablyReal, VerdictNeedsReview, VerdictInsufficient, VerdictNotAnalyzable}
}

// VerdictResult is the engine output for one request.
// ReliabilityScore is always 1 - SuspicionScore.
type VerdictResult struct {
	Verdict          Verdict  `json:"verdict"`
	SuspicionScore   float64  `json:"suspicion_score"`
	Confidence       float64  `json:"confidence"` // Caller-facing alias of SuspicionScore
	ReliabilityScore float64  `json:"reliability_score"`
	Reasons          []string `json:"reasons"`
	Recommendation   string   `json:"recommendation"`
	EvidenceCount    int      `json:"evidence_count"`
}

// Policy is the weight table plus verdict thresholds.
// Build it once at startup; the aggregator keeps its own copy.
type Policy struct {
	Weights     map[EvidenceKind]float64 `yaml:"weights" mapstructure:"weights" json:"weights"`
	FakeAt      float64                  `yaml:"fake_at" mapstructure:"fake_at" json:"fake_at"`
	ReviewAt    float64                  `yaml:"review_at" mapstructure:"review_at" json:"review_at"`
	RealAt      float64                  `yaml:"real_at" mapstructure:"real_at" json:"real_at"`
	MinEvidence int                      `yaml:"min_evidence" mapstructure:"min_evidence" json:"min_evidence"`
	ReasonFloor float64                  `yaml:"reason_floor" mapstructure:"reason_floor" json:"reason_floor"`
	MaxReasons  int                      `yaml:"max_reasons" mapstructure:"max_reasons" json:"max_reasons"`
}

// DefaultPolicy returns the default weights and thresholds
func DefaultPolicy() Policy {
	return Policy{
		Weights: map[EvidenceKind]float64{
			KindFactCheck:      0.30,
			KindDomainTrust:    0.20,
			KindImageForensics: 0.15,
			KindHeuristic:      0.15,
			KindSSL:            0.10,
			KindSentiment:      0.10,
		},
		FakeAt:      0.70,
		ReviewAt:    0.55,
		RealAt:      0.35,
		MinEvidence: 2,
		ReasonFloor: 0.05,
		MaxReasons:  5,
	}
}

// Validate rejects negative weights, unknown kinds and misordered thresholds
func (p Policy) Validate() error {
	known := make(map[EvidenceKind]bool, len(KindPriority))
	for _, k := range KindPriority {
		known[k] = true
	}
	for k, w := range p.Weights {
		if !known[k] {
			return fmt.Errorf("policy: unknown evidence kind %q", k)
		}
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("policy: weight for %s must be a non-negative number, got %v", k, w)
		}
	}
	if !(p.RealAt < p.ReviewAt && p.ReviewAt <= p.FakeAt) {
		return fmt.Errorf("policy: thresholds must satisfy real_at < review_at <= fake_at (got %.2f, %.2f, %.2f)",
			p.RealAt, p.ReviewAt, p.FakeAt)
	}
	if p.FakeAt > 1 || p.RealAt < 0 {
		return fmt.Errorf("policy: thresholds must lie in [0,1]")
	}
	if p.MinEvidence < 0 || p.MaxReasons < 1 || p.ReasonFloor < 0 {
		return fmt.Errorf("policy: min_evidence, max_reasons and reason_floor must be positive")
	}
	return nil
}
