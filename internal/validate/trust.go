package validate

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/miekg/dns"

	"github.com/ppiankov/truthscan/internal/cache"
	"github.com/ppiankov/truthscan/internal/model"
)

// Suspicious domain patterns reported in DomainTrustRaw.Suspicious
const (
	PatternFreeTLD        = "free_tld"
	PatternTyposquatting  = "typosquatting"
	PatternLongHostname   = "long_hostname"
	PatternUserHosted     = "user_hosted"
	PatternDeepSubdomain  = "deep_subdomain"
	PatternDoesNotResolve = "does_not_resolve"
)

const maxLabels = 4

// Resolver reports whether a host name exists in DNS
type Resolver interface {
	Exists(ctx context.Context, host string) (bool, error)
}

// DNSResolver queries one DNS server directly and caches answers
type DNSResolver struct {
	server string
	client *dns.Client
	cache  cache.Cache
	ttl    time.Duration
}

// NewDNSResolver creates a resolver for server ("host:port"); c may be nil
func NewDNSResolver(server string, timeout time.Duration, c cache.Cache) *DNSResolver {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &DNSResolver{
		server: server,
		client: &dns.Client{Timeout: timeout},
		cache:  c,
		ttl:    time.Hour,
	}
}

// Exists returns false only for an authoritative NXDOMAIN answer
func (r *DNSResolver) Exists(ctx context.Context, host string) (bool, error) {
	key := cache.Key("dns", host)
	if r.cache != nil {
		if val, ok := r.cache.Get(key); ok {
			return string(val) == "1", nil
		}
	}

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(host), dns.TypeA)
	msg.RecursionDesired = true

	resp, _, err := r.client.ExchangeContext(ctx, msg, r.server)
	if err != nil {
		return false, fmt.Errorf("dns query %s: %w", host, err)
	}

	var exists bool
	switch resp.Rcode {
	case dns.RcodeSuccess:
		exists = true
	case dns.RcodeNameError:
		exists = false
	default:
		return false, fmt.Errorf("dns query %s: %s", host, dns.RcodeToString[resp.Rcode])
	}

	if r.cache != nil {
		val := "0"
		if exists {
			val = "1"
		}
		_ = r.cache.Set(key, []byte(val), r.ttl)
	}
	return exists, nil
}

// TrustChecker classifies the domain of an analyzed URL
type TrustChecker struct {
	trusted        []string
	suspiciousTLDs []string
	userHosted     []string
	maxLength      int
	authority      *AuthorityClassifier
	resolver       Resolver
	logger         *slog.Logger
}

// NewTrustChecker creates a domain trust checker; resolver may be nil to skip DNS
func NewTrustChecker(cfg model.DomainsConfig, authority *AuthorityClassifier, resolver Resolver, logger *slog.Logger) *TrustChecker {
	if authority == nil {
		authority = NewAuthorityClassifier(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	maxLength := cfg.MaxLength
	if maxLength <= 0 {
		maxLength = 50
	}

	c := &TrustChecker{
		maxLength: maxLength,
		authority: authority,
		resolver:  resolver,
		logger:    logger,
	}
	for _, d := range cfg.Trusted {
		c.trusted = append(c.trusted, NormalizeHost(d))
	}
	for _, tld := range cfg.SuspiciousTLDs {
		c.suspiciousTLDs = append(c.suspiciousTLDs, "."+strings.TrimPrefix(strings.ToLower(tld), "."))
	}
	for _, d := range cfg.UserHosted {
		c.userHosted = append(c.userHosted, NormalizeHost(d))
	}
	return c
}

// Check classifies the host of rawURL
func (c *TrustChecker) Check(ctx context.Context, rawURL string) model.DomainTrustRaw {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return model.DomainTrustRaw{Err: fmt.Errorf("%w: bad url %q", model.ErrInvalidInput, rawURL)}
	}
	return c.CheckHost(ctx, parsed.Host)
}

// CheckHost classifies a bare host name
func (c *TrustChecker) CheckHost(ctx context.Context, host string) model.DomainTrustRaw {
	host = NormalizeHost(host)
	result := model.DomainTrustRaw{Domain: host}

	if matchesAny(host, c.trusted) {
		result.Trusted = true
		result.TrustedBy = "allowlist"
		return result
	}
	if c.authority.ClassifyHost(host) == model.TierPrimary {
		result.Trusted = true
		result.TrustedBy = "authority"
		return result
	}

	for _, tld := range c.suspiciousTLDs {
		if strings.HasSuffix(host, tld) {
			result.Suspicious = append(result.Suspicious, PatternFreeTLD)
			break
		}
	}
	if c.isTyposquat(host) {
		result.Suspicious = append(result.Suspicious, PatternTyposquatting)
	}
	if len(host) > c.maxLength {
		result.Suspicious = append(result.Suspicious, PatternLongHostname)
	}
	for _, d := range c.userHosted {
		if strings.HasSuffix(host, "."+d) {
			result.Suspicious = append(result.Suspicious, PatternUserHosted)
			break
		}
	}
	if strings.Count(host, ".")+1 > maxLabels {
		result.Suspicious = append(result.Suspicious, PatternDeepSubdomain)
	}

	if c.resolver != nil {
		exists, err := c.resolver.Exists(ctx, host)
		switch {
		case err != nil:
			c.logger.Debug("dns probe failed", "host", host, "error", err)
		case !exists:
			result.Suspicious = append(result.Suspicious, PatternDoesNotResolve)
		}
	}

	return result
}

// isTyposquat reports hosts that imitate a trusted domain: one edit away,
// digit look-alikes, or the trusted name reused under another domain.
func (c *TrustChecker) isTyposquat(host string) bool {
	deglyphed := deglyph(host)
	for _, trusted := range c.trusted {
		if host == trusted || strings.HasSuffix(host, "."+trusted) {
			continue
		}
		if levenshtein(host, trusted) == 1 {
			return true
		}
		brand := strings.SplitN(trusted, ".", 2)[0]
		if deglyphed != host && deglyphed == trusted {
			return true
		}
		if len(brand) >= 4 && (strings.Contains(host, brand+"-") || strings.Contains(host, "-"+brand)) {
			return true
		}
	}
	return false
}

var glyphs = strings.NewReplacer("0", "o", "1", "l", "3", "e", "5", "s", "rn", "m")

func deglyph(host string) string {
	return glyphs.Replace(host)
}

// levenshtein computes the edit distance between a and b
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
