package model

// EvidenceKind identifies the analysis sub-system an evidence record came from
type EvidenceKind string

const (
	KindSentiment      EvidenceKind = "sentiment"       // Sentiment classifier label + confidence
	KindHeuristic      EvidenceKind = "heuristic"       // Lexical/structural suspicion patterns
	KindFactCheck      EvidenceKind = "fact_check"      // Web search corroboration of extracted claims
	KindImageForensics EvidenceKind = "image_forensics" // Manipulation indicators from an image
	KindDomainTrust    EvidenceKind = "domain_trust"    // Allow-list and suspicious domain patterns
	KindSSL            EvidenceKind = "ssl"             // TLS certificate validity
)

// KindPriority is the tie-break order for reasons of equal weight.
// Factual and security evidence outrank stylistic evidence.
var KindPriority = []EvidenceKind{
	KindFactCheck,
	KindDomainTrust,
	KindSSL,
	KindImageForensics,
	KindHeuristic,
	KindSentiment,
}

// AllKinds returns every evidence kind in priority order
func AllKinds() []EvidenceKind {
	out := make([]EvidenceKind, len(KindPriority))
	copy(out, KindPriority)
	return out
}

// Rank returns the position of the kind in KindPriority (unknown kinds sort last)
func (k EvidenceKind) Rank() int {
	for i, p := range KindPriority {
		if p == k {
			return i
		}
	}
	return len(KindPriority)
}

// Polarity is the direction an evidence record points to
type Polarity string

const (
	SupportsFake Polarity = "supports_fake"
	SupportsReal Polarity = "supports_real"
	Neutral      Polarity = "neutral"
)

// Sign returns +1 for supports_fake, -1 for supports_real and 0 otherwise
func (p Polarity) Sign() float64 {
	switch p {
	case SupportsFake:
		return 1
	case SupportsReal:
		return -1
	default:
		return 0
	}
}

// EvidenceRecord is one normalized unit of signal.
// Records are built once by the normalizer and only read afterwards.
type EvidenceRecord struct {
	Kind      EvidenceKind `json:"kind"`
	Strength  float64      `json:"strength"` // [0,1]
	Polarity  Polarity     `json:"polarity"`
	Available bool         `json:"available"`
	Reason    string       `json:"reason,omitempty"`
}

// Unavailable builds a record for a provider that produced no usable signal
func Unavailable(kind EvidenceKind, reason string) EvidenceRecord {
	return EvidenceRecord{
		Kind:      kind,
		Polarity:  Neutral,
		Available: false,
		Reason:    reason,
	}
}

// AuthorityTier represents the classification of source authority
type AuthorityTier int

const (
	TierUnknown   AuthorityTier = 0 // Not yet classified
	TierPrimary   AuthorityTier = 1 // Government, academic, official bodies
	TierSecondary AuthorityTier = 2 // Wire agencies, major publishers, fact-checkers
	TierTertiary  AuthorityTier = 3 // Blogs, user-hosted sites, social media
)

func (t AuthorityTier) String() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierSecondary:
		return "secondary"
	case TierTertiary:
		return "tertiary"
	default:
		return "unknown"
	}
}
