package score

import (
	"fmt"
	"math"
	"sort"

	"github.com/ppiankov/truthscan/internal/model"
)

const (
	reasonNoEvidence = "no evidence available"
	reasonNoSignals  = "no strong signals detected"
)

// Aggregator combines evidence records into a suspicion score and verdict.
// It holds a private copy of the policy and is safe for concurrent use.
type Aggregator struct {
	policy model.Policy
}

// NewAggregator validates the policy and copies it
func NewAggregator(policy model.Policy) (*Aggregator, error) {
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("new aggregator: %w", err)
	}

	weights := make(map[model.EvidenceKind]float64, len(policy.Weights))
	for k, w := range policy.Weights {
		weights[k] = w
	}
	policy.Weights = weights

	return &Aggregator{policy: policy}, nil
}

// Weight returns the configured weight for a kind (0 when unset)
func (a *Aggregator) Weight(kind model.EvidenceKind) float64 {
	return a.policy.Weights[kind]
}

// Aggregation is the aggregator output before the recommendation is added
type Aggregation struct {
	Verdict        model.Verdict
	Suspicion      float64
	Reasons        []string
	EvidenceCount  int
	Contributions  []model.Contribution
	NormalizedFrom float64 // Sum of weights used as denominator
}

type scored struct {
	rec   model.EvidenceRecord
	value float64
}

// Aggregate is a pure function of the records and the policy.
// The result does not depend on the order of records.
func (a *Aggregator) Aggregate(records []model.EvidenceRecord) Aggregation {
	var available []scored
	for _, rec := range records {
		if !rec.Available {
			continue
		}
		available = append(available, scored{
			rec:   rec,
			value: rec.Polarity.Sign() * a.Weight(rec.Kind) * clamp(rec.Strength),
		})
	}

	if len(available) == 0 {
		return Aggregation{
			Verdict:   model.VerdictNotAnalyzable,
			Suspicion: 0,
			Reasons:   []string{reasonNoEvidence},
		}
	}

	// Sort first so the floating-point sum is identical for any input order
	sort.SliceStable(available, func(i, j int) bool {
		return less(available[i], available[j])
	})

	// Every available kind joins the denominator once, neutral ones included;
	// only unavailable providers are left out.
	sum, denominator := 0.0, 0.0
	counted := make(map[model.EvidenceKind]bool, len(available))
	contributions := make([]model.Contribution, 0, len(available))
	for _, s := range available {
		sum += s.value
		if !counted[s.rec.Kind] {
			counted[s.rec.Kind] = true
			denominator += a.Weight(s.rec.Kind)
		}
		contributions = append(contributions, model.Contribution{
			Kind:     s.rec.Kind,
			Weight:   a.Weight(s.rec.Kind),
			Strength: s.rec.Strength,
			Polarity: s.rec.Polarity,
			Value:    s.value,
			Formula:  formulaFor(s.rec.Polarity),
		})
	}

	raw := 0.0
	if denominator > 0 {
		raw = sum / denominator
	}
	suspicion := clamp((raw + 1) / 2)

	return Aggregation{
		Verdict:        a.verdict(suspicion, len(available)),
		Suspicion:      suspicion,
		Reasons:        a.reasons(available),
		EvidenceCount:  len(available),
		Contributions:  contributions,
		NormalizedFrom: denominator,
	}
}

// verdict applies the thresholds in order; first match wins
func (a *Aggregator) verdict(suspicion float64, count int) model.Verdict {
	p := a.policy
	switch {
	case suspicion >= p.FakeAt:
		return model.VerdictFake
	case suspicion >= p.ReviewAt:
		return model.VerdictNeedsReview
	case count < p.MinEvidence:
		return model.VerdictInsufficient
	case suspicion <= p.RealAt:
		return model.VerdictProbablyReal
	default:
		return model.VerdictNeedsReview
	}
}

// reasons expects available to be sorted already
func (a *Aggregator) reasons(available []scored) []string {
	var out []string
	for _, s := range available {
		if len(out) >= a.policy.MaxReasons {
			break
		}
		if s.rec.Reason == "" || math.Abs(s.value) < a.policy.ReasonFloor {
			continue
		}
		out = append(out, s.rec.Reason)
	}
	if len(out) == 0 {
		return []string{reasonNoSignals}
	}
	return out
}

// less orders by |contribution| desc, then kind priority, then reason text
func less(x, y scored) bool {
	ax, ay := math.Abs(x.value), math.Abs(y.value)
	if ax != ay {
		return ax > ay
	}
	if rx, ry := x.rec.Kind.Rank(), y.rec.Kind.Rank(); rx != ry {
		return rx < ry
	}
	if x.rec.Reason != y.rec.Reason {
		return x.rec.Reason < y.rec.Reason
	}
	if x.rec.Polarity != y.rec.Polarity {
		return x.rec.Polarity < y.rec.Polarity
	}
	return x.rec.Strength < y.rec.Strength
}

func formulaFor(p model.Polarity) string {
	switch p {
	case model.SupportsFake:
		return "+weight * strength"
	case model.SupportsReal:
		return "-weight * strength"
	default:
		return "0 (neutral)"
	}
}

func clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
