package model

import "time"

// Mode is the analysis entry point a request came through
type Mode string

const (
	ModeText  Mode = "text"
	ModeURL   Mode = "url"
	ModeImage Mode = "image"
)

// textKinds are gathered for any analysis that has text to work on
var textKinds = []EvidenceKind{KindSentiment, KindHeuristic, KindFactCheck}

// Kinds returns the evidence kinds gathered for the mode.
// Image mode only includes text kinds when a caption was supplied.
func (m Mode) Kinds(hasCaption bool) []EvidenceKind {
	switch m {
	case ModeText:
		return append([]EvidenceKind(nil), textKinds...)
	case ModeURL:
		return append(append([]EvidenceKind(nil), textKinds...), KindDomainTrust, KindSSL)
	case ModeImage:
		kinds := []EvidenceKind{KindImageForensics}
		if hasCaption {
			kinds = append(kinds, textKinds...)
		}
		return kinds
	default:
		return nil
	}
}

// SentimentRaw is the sentiment classifier output
type SentimentRaw struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Model      string  `json:"model,omitempty"`
	Err        error   `json:"-"`
}

// HeuristicRaw is the heuristic scanner output
type HeuristicRaw struct {
	Triggered     []string `json:"triggered"`
	SourceMarkers []string `json:"source_markers,omitempty"`
	Err           error    `json:"-"`
}

// FactCheckRaw is the fact checker output
type FactCheckRaw struct {
	Claims       []ClaimCheck `json:"claims"`
	SearchFailed bool         `json:"search_failed"`
	Err          error        `json:"-"`
}

// Count returns how many claims ended with the given outcome
func (f *FactCheckRaw) Count(outcome ClaimOutcome) int {
	n := 0
	for _, c := range f.Claims {
		if c.Outcome == outcome {
			n++
		}
	}
	return n
}

// ImageForensicsRaw is the image forensics output
type ImageForensicsRaw struct {
	SuspiciousRegions int      `json:"suspicious_regions"`
	Details           []string `json:"details,omitempty"`
	Format            string   `json:"format,omitempty"`
	Width             int      `json:"width,omitempty"`
	Height            int      `json:"height,omitempty"`
	Err               error    `json:"-"`
}

// DomainTrustRaw is the domain trust checker output
type DomainTrustRaw struct {
	Domain     string   `json:"domain"`
	Trusted    bool     `json:"trusted"`
	TrustedBy  string   `json:"trusted_by,omitempty"` // allowlist, authority
	Suspicious []string `json:"suspicious,omitempty"`
	Err        error    `json:"-"`
}

// SSLRaw is the TLS checker output
type SSLRaw struct {
	Scheme  string     `json:"scheme"`
	Valid   bool       `json:"valid"`
	Problem string     `json:"problem,omitempty"` // no_https, expired, hostname_mismatch, unknown_authority, invalid
	Issuer  string     `json:"issuer,omitempty"`
	Expires *time.Time `json:"expires,omitempty"`
	Err     error      `json:"-"`
}

// RawEvidence bundles whatever the providers produced for one request.
// Every field is optional; nil means the provider did not run or was abandoned.
type RawEvidence struct {
	Sentiment      *SentimentRaw      `json:"sentiment,omitempty"`
	Heuristic      *HeuristicRaw      `json:"heuristic,omitempty"`
	FactCheck      *FactCheckRaw      `json:"fact_check,omitempty"`
	ImageForensics *ImageForensicsRaw `json:"image_forensics,omitempty"`
	DomainTrust    *DomainTrustRaw    `json:"domain_trust,omitempty"`
	SSL            *SSLRaw            `json:"ssl,omitempty"`
}
