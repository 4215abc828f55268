package factcheck

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/truthscan/internal/extract"
	"github.com/ppiankov/truthscan/internal/model"
	"github.com/ppiankov/truthscan/internal/validate"
)

// trustedWeight is how much a result from a trusted source counts
const trustedWeight = 2.0

// decisiveRatio is how far one side must outweigh the other
const decisiveRatio = 1.5

// Keyword lists are matched on whole words; false keywords are checked first
var (
	falseKeywords = []string{
		"false", "fake", "hoax", "debunked", "rumor", "rumour", "misleading", "untrue", "not true",
		"fabricated", "faux", "canular", "rumeur", "démenti", "démentie", "démythifié", "infox",
		"non vérifié", "intox",
	}
	trueKeywords = []string{
		"true", "correct", "confirmed", "verified", "official", "officially",
		"vrai", "confirmé", "confirmée", "vérifié", "officiel", "officielle", "source fiable",
	}
)

// Checker extracts claims from a text and checks each against web search results
type Checker struct {
	extractor   *extract.ClaimExtractor
	searcher    Searcher
	maxChecks   int
	parallelism int
	trusted     []string
	logger      *slog.Logger
}

// NewChecker creates a fact checker from the search configuration
func NewChecker(cfg model.SearchConfig, searcher Searcher, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	maxChecks := cfg.MaxChecks
	if maxChecks <= 0 {
		maxChecks = 3
	}

	c := &Checker{
		extractor:   extract.NewClaimExtractor(cfg.MaxClaims),
		searcher:    searcher,
		maxChecks:   maxChecks,
		parallelism: 2,
		logger:      logger,
	}
	for _, d := range cfg.TrustedSources {
		c.trusted = append(c.trusted, validate.NormalizeHost(d))
	}
	return c
}

// Check extracts claims and searches at most maxChecks of them.
// SearchFailed is set when every attempted search failed.
func (c *Checker) Check(ctx context.Context, text string) model.FactCheckRaw {
	claims := c.extractor.Extract(text)
	if len(claims) == 0 {
		return model.FactCheckRaw{}
	}
	if len(claims) > c.maxChecks {
		claims = claims[:c.maxChecks]
	}

	checks := make([]model.ClaimCheck, len(claims))
	var mu sync.Mutex
	failures := 0

	var g errgroup.Group
	g.SetLimit(c.parallelism)
	for i, claim := range claims {
		i, claim := i, claim
		g.Go(func() error {
			results, err := c.searcher.Search(ctx, claim.Text)
			if err != nil {
				c.logger.Debug("claim search failed", "claim", claim.Text, "error", err)
				mu.Lock()
				failures++
				mu.Unlock()
				checks[i] = model.ClaimCheck{Claim: claim.Text, Outcome: model.OutcomeUnverified}
				return nil
			}
			checks[i] = c.Classify(claim.Text, results)
			return nil
		})
	}
	_ = g.Wait()

	if failures == len(claims) {
		return model.FactCheckRaw{SearchFailed: true}
	}
	return model.FactCheckRaw{Claims: checks}
}

// Classify tallies keyword hits in result titles for one claim
func (c *Checker) Classify(claim string, results []Result) model.ClaimCheck {
	check := model.ClaimCheck{Claim: claim, Outcome: model.OutcomeUnverified}

	for _, r := range results {
		weight := 1.0
		if c.isTrusted(r.URL) {
			weight = trustedWeight
			check.Sources = append(check.Sources, r.URL)
		}

		words := wordString(r.Title)
		switch {
		case containsAny(words, falseKeywords):
			check.FalseHits += weight
		case containsAny(words, trueKeywords):
			check.TrueHits += weight
		}
	}

	switch {
	case check.FalseHits > decisiveRatio*check.TrueHits:
		check.Outcome = model.OutcomeContradicted
	case check.TrueHits > decisiveRatio*check.FalseHits:
		check.Outcome = model.OutcomeCorroborated
	}
	return check
}

func (c *Checker) isTrusted(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return false
	}
	host := validate.NormalizeHost(parsed.Host)
	for _, d := range c.trusted {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// wordString lower-cases s and joins its words with single spaces, padded at both ends
func wordString(s string) string {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return " " + strings.Join(words, " ") + " "
}

func containsAny(words string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(words, " "+kw+" ") {
			return true
		}
	}
	return false
}
