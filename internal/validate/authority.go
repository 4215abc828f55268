package validate

import (
	"net"
	"net/url"
	"regexp"
	"strings"

	"github.com/ppiankov/truthscan/internal/model"
)

// AuthorityClassifier classifies sources into authority tiers. Primary sources
// make a domain trusted; fact-check search results from primary or secondary
// sources weigh double.
type AuthorityClassifier struct {
	domainMap    map[string]model.AuthorityTier
	primary      []string
	secondary    []string
	pathPatterns []compiledPattern
}

type compiledPattern struct {
	pattern *regexp.Regexp
	tier    model.AuthorityTier
}

// authorityTLDs are suffixes reserved to public institutions
var authorityTLDs = []string{".gov", ".edu", ".mil", ".int", ".ac.uk", ".gov.uk", ".gouv.fr"}

// NewAuthorityClassifier creates a new authority classifier
func NewAuthorityClassifier(config *model.AuthorityConfig) *AuthorityClassifier {
	if config == nil {
		def := model.DefaultConfig().Authority
		config = &def
	}

	classifier := &AuthorityClassifier{
		domainMap: make(map[string]model.AuthorityTier, len(config.DomainMap)),
	}

	for domain, tier := range config.DomainMap {
		classifier.domainMap[NormalizeHost(domain)] = parseTierString(tier)
	}
	for _, domain := range config.PrimaryDomains {
		classifier.primary = append(classifier.primary, NormalizeHost(domain))
	}
	for _, domain := range config.SecondaryDomains {
		classifier.secondary = append(classifier.secondary, NormalizeHost(domain))
	}

	// Invalid patterns are skipped
	for _, pp := range config.PathPatterns {
		re, err := regexp.Compile(pp.Pattern)
		if err != nil {
			continue
		}
		classifier.pathPatterns = append(classifier.pathPatterns, compiledPattern{
			pattern: re,
			tier:    parseTierString(pp.Tier),
		})
	}

	return classifier
}

// Classify classifies a URL into an authority tier
func (a *AuthorityClassifier) Classify(rawURL string) model.AuthorityTier {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return model.TierUnknown
	}

	if tier := a.ClassifyHost(parsed.Host); tier != model.TierTertiary {
		return tier
	}

	for _, cp := range a.pathPatterns {
		if cp.pattern.MatchString(parsed.Path) {
			return cp.tier
		}
	}

	return model.TierTertiary
}

// ClassifyHost classifies a bare host name
func (a *AuthorityClassifier) ClassifyHost(host string) model.AuthorityTier {
	host = NormalizeHost(host)
	if host == "" {
		return model.TierUnknown
	}

	if tier, ok := a.domainMap[host]; ok {
		return tier
	}
	if matchesAny(host, a.primary) {
		return model.TierPrimary
	}
	if matchesAny(host, a.secondary) {
		return model.TierSecondary
	}
	for _, suffix := range authorityTLDs {
		if strings.HasSuffix(host, suffix) {
			return model.TierPrimary
		}
	}

	return model.TierTertiary
}

// IsAuthoritative reports whether the URL is a primary or secondary source
func (a *AuthorityClassifier) IsAuthoritative(rawURL string) bool {
	tier := a.Classify(rawURL)
	return tier == model.TierPrimary || tier == model.TierSecondary
}

// NormalizeHost lower-cases a host and strips the port, trailing dot and leading "www."
func NormalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimSuffix(host, ".")
	return strings.TrimPrefix(host, "www.")
}

// matchesAny reports whether host equals a domain or is one of its subdomains
func matchesAny(host string, domains []string) bool {
	for _, domain := range domains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

// parseTierString converts a tier string to AuthorityTier
func parseTierString(tier string) model.AuthorityTier {
	switch strings.ToLower(tier) {
	case "primary", "1":
		return model.TierPrimary
	case "secondary", "2":
		return model.TierSecondary
	default:
		return model.TierTertiary
	}
}
