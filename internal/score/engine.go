package score

import (
	"github.com/ppiankov/truthscan/internal/model"
	"github.com/ppiankov/truthscan/internal/normalize"
)

// Engine ties the normalizer, aggregator and composer together
type Engine struct {
	aggregator *Aggregator
}

// NewEngine builds an engine from an immutable policy
func NewEngine(policy model.Policy) (*Engine, error) {
	agg, err := NewAggregator(policy)
	if err != nil {
		return nil, err
	}
	return &Engine{aggregator: agg}, nil
}

// Evaluation is the engine output plus the records and contributions behind it
type Evaluation struct {
	Result        model.VerdictResult
	Records       []model.EvidenceRecord
	Contributions []model.Contribution
}

// Evaluate normalizes raw provider outputs for the mode and produces a verdict.
// It never fails; missing evidence lowers confidence instead.
func (e *Engine) Evaluate(mode model.Mode, raw model.RawEvidence, hasCaption bool) Evaluation {
	records := normalize.Normalize(mode, raw, hasCaption)
	agg := e.aggregator.Aggregate(records)
	return Evaluation{
		Result:        newResult(agg),
		Records:       records,
		Contributions: agg.Contributions,
	}
}

// Decide aggregates already-normalized records into a verdict result
func (e *Engine) Decide(records []model.EvidenceRecord) model.VerdictResult {
	return newResult(e.aggregator.Aggregate(records))
}

func newResult(agg Aggregation) model.VerdictResult {
	return model.VerdictResult{
		Verdict:          agg.Verdict,
		SuspicionScore:   agg.Suspicion,
		Confidence:       agg.Suspicion,
		ReliabilityScore: 1 - agg.Suspicion,
		Reasons:          agg.Reasons,
		Recommendation:   Recommend(agg.Verdict, agg.Suspicion),
		EvidenceCount:    agg.EvidenceCount,
	}
}
