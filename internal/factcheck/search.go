package factcheck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	nethtml "golang.org/x/net/html"

	"github.com/ppiankov/truthscan/internal/cache"
	"github.com/ppiankov/truthscan/internal/extract"
	"github.com/ppiankov/truthscan/internal/util"
	"github.com/ppiankov/truthscan/internal/worker"
)

// ErrSearchBlocked is returned when robots.txt disallows the search endpoint
var ErrSearchBlocked = errors.New("search blocked by robots.txt")

// Result is one web search hit
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

// Searcher runs one web search query
type Searcher interface {
	Search(ctx context.Context, query string) ([]Result, error)
}

// WebSearcher queries an HTML search endpoint (<base>/html/?q=) and parses
// result__a titles and result__snippet text.
type WebSearcher struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	maxResults int
	cache      cache.Cache
	cacheTTL   time.Duration
	limiter    *worker.Limiter
	robots     *util.RobotsChecker
	logger     *slog.Logger
}

// SearcherOptions holds the optional collaborators of a WebSearcher
type SearcherOptions struct {
	HTTPClient *http.Client
	UserAgent  string
	MaxResults int
	Cache      cache.Cache
	CacheTTL   time.Duration
	Limiter    *worker.Limiter
	Robots     *util.RobotsChecker
	Logger     *slog.Logger
}

// NewWebSearcher creates a searcher for baseURL
func NewWebSearcher(baseURL string, opts SearcherOptions) *WebSearcher {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 8 * time.Second}
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = 5
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 6 * time.Hour
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &WebSearcher{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: opts.HTTPClient,
		userAgent:  opts.UserAgent,
		maxResults: opts.MaxResults,
		cache:      opts.Cache,
		cacheTTL:   opts.CacheTTL,
		limiter:    opts.Limiter,
		robots:     opts.Robots,
		logger:     opts.Logger,
	}
}

// Search returns up to maxResults results for query
func (s *WebSearcher) Search(ctx context.Context, query string) ([]Result, error) {
	key := cache.Key("search", s.baseURL, query)
	if s.cache != nil {
		if data, ok := s.cache.Get(key); ok {
			var results []Result
			if err := json.Unmarshal(data, &results); err == nil {
				s.logger.Debug("search cache hit", "query", query)
				return results, nil
			}
		}
	}

	searchURL := s.baseURL + "/html/?q=" + url.QueryEscape(query)

	allowed, delay, err := s.robots.CanFetch(ctx, searchURL)
	if err != nil {
		return nil, fmt.Errorf("robots check: %w", err)
	}
	if !allowed {
		return nil, ErrSearchBlocked
	}
	if err := s.limiter.WaitWithDelay(ctx, searchURL, delay); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search request: HTTP %d", resp.StatusCode)
	}

	results, err := ParseResults(io.LimitReader(resp.Body, 2<<20), s.maxResults)
	if err != nil {
		return nil, fmt.Errorf("parse results: %w", err)
	}

	if s.cache != nil {
		if data, err := json.Marshal(results); err == nil {
			_ = s.cache.Set(key, data, s.cacheTTL)
		}
	}
	return results, nil
}

// ParseResults reads a search results page. Snippets attach to the preceding title.
func ParseResults(r io.Reader, maxResults int) ([]Result, error) {
	doc, err := nethtml.Parse(r)
	if err != nil {
		return nil, err
	}

	var results []Result
	var walk func(*nethtml.Node) bool
	walk = func(n *nethtml.Node) bool {
		if n.Type == nethtml.ElementNode {
			switch {
			case n.Data == "a" && hasClass(n, "result__a"):
				if maxResults > 0 && len(results) == maxResults {
					return false
				}
				results = append(results, Result{
					Title: extract.Sanitize(textOf(n)),
					URL:   unwrapRedirect(attrOf(n, "href")),
				})
				return true
			case hasClass(n, "result__snippet"):
				if len(results) > 0 && results[len(results)-1].Snippet == "" {
					results[len(results)-1].Snippet = extract.Sanitize(textOf(n))
				}
				return true
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if !walk(c) {
				return false
			}
		}
		return true
	}
	walk(doc)

	// Drop entries without a title
	kept := results[:0]
	for _, r := range results {
		if r.Title != "" {
			kept = append(kept, r)
		}
	}
	return kept, nil
}

// unwrapRedirect returns the target of "//duckduckgo.com/l/?uddg=<url>" style links
func unwrapRedirect(href string) string {
	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := parsed.Query().Get("uddg"); target != "" {
		return target
	}
	if parsed.Scheme == "" && strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	return href
}

func hasClass(n *nethtml.Node, class string) bool {
	for _, c := range strings.Fields(attrOf(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func attrOf(n *nethtml.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textOf(n *nethtml.Node) string {
	var sb strings.Builder
	var walk func(*nethtml.Node)
	walk = func(n *nethtml.Node) {
		if n.Type == nethtml.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
