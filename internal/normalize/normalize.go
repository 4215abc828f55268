// Package normalize converts raw provider outputs into evidence records.
//
// Every function here is total: a missing, failed or malformed provider
// output becomes an unavailable record, never an error or a panic.
package normalize

import (
	"fmt"
	"math"
	"strings"

	"github.com/ppiankov/truthscan/internal/model"
)

const (
	// SentimentThreshold is the confidence above which a negative label counts as evidence
	SentimentThreshold = 0.7

	// HeuristicCap is the number of triggered patterns that yields full strength
	HeuristicCap = 5

	// ImageRegionCap is the number of suspicious regions that yields full strength
	ImageRegionCap = 5
)

// negativeLabels are classifier labels that indicate alarmist or hostile tone
var negativeLabels = map[string]bool{
	"negative":    true,
	"neg":         true,
	"alarmist":    true,
	"sensational": true,
	"fear":        true,
	"anger":       true,
	"label_0":     true, // binary sentiment models emit LABEL_0 for negative
	"1 star":      true,
	"2 stars":     true,
}

// Normalize produces exactly one record per kind of the mode, in priority order.
func Normalize(mode model.Mode, raw model.RawEvidence, hasCaption bool) []model.EvidenceRecord {
	kinds := mode.Kinds(hasCaption)
	records := make([]model.EvidenceRecord, 0, len(kinds))
	for _, kind := range kinds {
		records = append(records, Record(kind, raw))
	}
	return records
}

// Record dispatches one kind to its normalizer
func Record(kind model.EvidenceKind, raw model.RawEvidence) (rec model.EvidenceRecord) {
	defer func() {
		if r := recover(); r != nil {
			rec = model.Unavailable(kind, fmt.Sprintf("normalizer failed: %v", r))
		}
	}()

	switch kind {
	case model.KindSentiment:
		return Sentiment(raw.Sentiment)
	case model.KindHeuristic:
		return Heuristic(raw.Heuristic)
	case model.KindFactCheck:
		return FactCheck(raw.FactCheck)
	case model.KindImageForensics:
		return ImageForensics(raw.ImageForensics)
	case model.KindDomainTrust:
		return DomainTrust(raw.DomainTrust)
	case model.KindSSL:
		return SSL(raw.SSL)
	default:
		return model.Unavailable(kind, "unknown evidence kind")
	}
}

// Sentiment maps a classifier label + confidence
func Sentiment(raw *model.SentimentRaw) model.EvidenceRecord {
	if raw == nil {
		return missing(model.KindSentiment)
	}
	if raw.Err != nil {
		return failed(model.KindSentiment, raw.Err)
	}
	label := strings.ToLower(strings.TrimSpace(raw.Label))
	if label == "" {
		return model.Unavailable(model.KindSentiment, "sentiment: empty label")
	}
	if !inUnitRange(raw.Confidence) {
		return model.Unavailable(model.KindSentiment, fmt.Sprintf("sentiment: confidence %v out of range", raw.Confidence))
	}

	rec := model.EvidenceRecord{
		Kind:      model.KindSentiment,
		Strength:  raw.Confidence,
		Polarity:  model.Neutral,
		Available: true,
	}
	if negativeLabels[label] && raw.Confidence > SentimentThreshold {
		rec.Polarity = model.SupportsFake
		rec.Reason = fmt.Sprintf("Alarmist or negative tone (%s, %.0f%% confidence)", label, raw.Confidence*100)
	}
	return rec
}

// Heuristic maps triggered suspicion patterns and source markers
func Heuristic(raw *model.HeuristicRaw) model.EvidenceRecord {
	if raw == nil {
		return missing(model.KindHeuristic)
	}
	if raw.Err != nil {
		return failed(model.KindHeuristic, raw.Err)
	}

	triggered := len(raw.Triggered)
	if triggered > 0 {
		return model.EvidenceRecord{
			Kind:      model.KindHeuristic,
			Strength:  capped(triggered, HeuristicCap),
			Polarity:  model.SupportsFake,
			Available: true,
			Reason:    "Suspicious patterns: " + strings.Join(humanize(raw.Triggered), ", "),
		}
	}
	if len(raw.SourceMarkers) > 0 {
		return model.EvidenceRecord{
			Kind:      model.KindHeuristic,
			Strength:  capped(len(raw.SourceMarkers), HeuristicCap),
			Polarity:  model.SupportsReal,
			Available: true,
			Reason:    "Cites sources: " + strings.Join(raw.SourceMarkers, ", "),
		}
	}
	return model.EvidenceRecord{Kind: model.KindHeuristic, Polarity: model.Neutral, Available: true}
}

// FactCheck maps per-claim corroboration outcomes
func FactCheck(raw *model.FactCheckRaw) model.EvidenceRecord {
	if raw == nil {
		return missing(model.KindFactCheck)
	}
	if raw.Err != nil {
		return failed(model.KindFactCheck, raw.Err)
	}

	neutral := model.EvidenceRecord{Kind: model.KindFactCheck, Polarity: model.Neutral, Available: true}
	total := len(raw.Claims)
	switch {
	case raw.SearchFailed:
		neutral.Reason = "Fact-check search failed"
		return neutral
	case total == 0:
		neutral.Reason = "No verifiable claims found"
		return neutral
	}

	contradicted := raw.Count(model.OutcomeContradicted)
	corroborated := raw.Count(model.OutcomeCorroborated)
	switch {
	case contradicted > 0:
		return model.EvidenceRecord{
			Kind:      model.KindFactCheck,
			Strength:  float64(contradicted) / float64(total),
			Polarity:  model.SupportsFake,
			Available: true,
			Reason:    fmt.Sprintf("%d of %d claims contradicted by web sources", contradicted, total),
		}
	case corroborated == total:
		return model.EvidenceRecord{
			Kind:      model.KindFactCheck,
			Strength:  1.0,
			Polarity:  model.SupportsReal,
			Available: true,
			Reason:    fmt.Sprintf("All %d claims corroborated by web sources", total),
		}
	default:
		neutral.Reason = fmt.Sprintf("%d of %d claims could not be verified", total-corroborated, total)
		return neutral
	}
}

// ImageForensics maps the suspicious region count
func ImageForensics(raw *model.ImageForensicsRaw) model.EvidenceRecord {
	if raw == nil {
		return missing(model.KindImageForensics)
	}
	if raw.Err != nil {
		return failed(model.KindImageForensics, raw.Err)
	}
	if raw.SuspiciousRegions < 0 {
		return model.Unavailable(model.KindImageForensics, "image forensics: negative region count")
	}

	if raw.SuspiciousRegions == 0 {
		return model.EvidenceRecord{
			Kind:      model.KindImageForensics,
			Polarity:  model.SupportsReal,
			Available: true,
			Reason:    "No manipulation indicators found in image",
		}
	}
	reason := fmt.Sprintf("%d suspicious image regions", raw.SuspiciousRegions)
	if len(raw.Details) > 0 {
		reason += " (" + strings.Join(raw.Details, "; ") + ")"
	}
	return model.EvidenceRecord{
		Kind:      model.KindImageForensics,
		Strength:  capped(raw.SuspiciousRegions, ImageRegionCap),
		Polarity:  model.SupportsFake,
		Available: true,
		Reason:    reason,
	}
}

// DomainTrust maps allow-list membership and suspicious domain patterns.
// A trusted domain wins over any suspicious pattern.
func DomainTrust(raw *model.DomainTrustRaw) model.EvidenceRecord {
	if raw == nil {
		return missing(model.KindDomainTrust)
	}
	if raw.Err != nil {
		return failed(model.KindDomainTrust, raw.Err)
	}
	if strings.TrimSpace(raw.Domain) == "" {
		return model.Unavailable(model.KindDomainTrust, "domain trust: empty domain")
	}

	switch {
	case raw.Trusted:
		return model.EvidenceRecord{
			Kind:      model.KindDomainTrust,
			Strength:  1.0,
			Polarity:  model.SupportsReal,
			Available: true,
			Reason:    fmt.Sprintf("Trusted source: %s", raw.Domain),
		}
	case len(raw.Suspicious) > 0:
		return model.EvidenceRecord{
			Kind:      model.KindDomainTrust,
			Strength:  1.0,
			Polarity:  model.SupportsFake,
			Available: true,
			Reason:    fmt.Sprintf("Suspicious domain %s: %s", raw.Domain, strings.Join(humanize(raw.Suspicious), ", ")),
		}
	default:
		return model.EvidenceRecord{Kind: model.KindDomainTrust, Polarity: model.Neutral, Available: true}
	}
}

// SSL maps the TLS probe result. Plain HTTP counts as a failure.
func SSL(raw *model.SSLRaw) model.EvidenceRecord {
	if raw == nil {
		return missing(model.KindSSL)
	}
	if raw.Err != nil {
		return failed(model.KindSSL, raw.Err)
	}
	if raw.Valid && raw.Problem == "" {
		return model.EvidenceRecord{Kind: model.KindSSL, Polarity: model.Neutral, Available: true}
	}

	problem := raw.Problem
	if problem == "" {
		problem = "invalid"
	}
	return model.EvidenceRecord{
		Kind:      model.KindSSL,
		Strength:  1.0,
		Polarity:  model.SupportsFake,
		Available: true,
		Reason:    "TLS check failed: " + humanizeOne(problem),
	}
}

func missing(kind model.EvidenceKind) model.EvidenceRecord {
	return model.Unavailable(kind, fmt.Sprintf("%s: no result", kind))
}

func failed(kind model.EvidenceKind, err error) model.EvidenceRecord {
	return model.Unavailable(kind, fmt.Sprintf("%s: %v", kind, err))
}

func capped(count, limit int) float64 {
	return math.Min(1, float64(count)/float64(limit))
}

func inUnitRange(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}

func humanize(codes []string) []string {
	out := make([]string, len(codes))
	for i, c := range codes {
		out[i] = humanizeOne(c)
	}
	return out
}

func humanizeOne(code string) string {
	return strings.ReplaceAll(code, "_", " ")
}
