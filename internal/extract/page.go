package extract

import (
	"html"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	nethtml "golang.org/x/net/html"
)

// Page is the readable content of a fetched HTML document
type Page struct {
	Title       string
	Description string
	Text        string
	Links       []Link
}

// Link is an outbound reference found on a page
type Link struct {
	URL        string `json:"url"`
	Host       string `json:"host"`
	IsSameHost bool   `json:"is_same_host"`
	Text       string `json:"text,omitempty"`
}

var strictPolicy = bluemonday.StrictPolicy()

// Sanitize strips all markup from user-supplied or scraped text
func Sanitize(text string) string {
	return normalizeSpace(html.UnescapeString(strictPolicy.Sanitize(text)))
}

// ParsePage extracts the title, meta description, visible text and links
func ParsePage(htmlContent, sourceURL string, maxChars int) (*Page, error) {
	doc, err := nethtml.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, err
	}

	page := &Page{}
	var buf strings.Builder

	var walk func(*nethtml.Node)
	walk = func(n *nethtml.Node) {
		if n.Type == nethtml.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "nav", "footer", "header", "aside", "form":
				return
			case "title":
				if page.Title == "" {
					page.Title = strings.TrimSpace(nodeText(n))
				}
				return
			case "meta":
				if isDescriptionMeta(n) && page.Description == "" {
					page.Description = strings.TrimSpace(attr(n, "content"))
				}
			}
		}

		if n.Type == nethtml.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	page.Text = truncateRunes(normalizeSpace(buf.String()), maxChars)
	page.Links = extractLinks(doc, sourceURL)
	return page, nil
}

// Content joins title, description and body text for the text providers
func (p *Page) Content() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{p.Title, p.Description, p.Text} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ". ")
}

func isDescriptionMeta(n *nethtml.Node) bool {
	name := strings.ToLower(attr(n, "name"))
	prop := strings.ToLower(attr(n, "property"))
	return name == "description" || prop == "og:description"
}

func attr(n *nethtml.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func nodeText(n *nethtml.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == nethtml.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

// extractLinks collects outbound http(s) links, deduplicated by URL
func extractLinks(doc *nethtml.Node, sourceURL string) []Link {
	base, err := url.Parse(sourceURL)
	if err != nil || sourceURL == "" {
		return nil
	}

	seen := make(map[string]bool)
	var links []Link

	var walk func(*nethtml.Node)
	walk = func(n *nethtml.Node) {
		if n.Type == nethtml.ElementNode && n.Data == "a" {
			if resolved := resolveURL(base, strings.TrimSpace(attr(n, "href"))); resolved != "" && !seen[resolved] {
				seen[resolved] = true
				parsed, _ := url.Parse(resolved)
				host := ""
				if parsed != nil {
					host = parsed.Hostname()
				}
				links = append(links, Link{
					URL:        resolved,
					Host:       host,
					IsSameHost: host == base.Hostname(),
					Text:       strings.TrimSpace(nodeText(n)),
				})
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return links
}

// resolveURL resolves a relative URL against a base URL
func resolveURL(base *url.URL, href string) string {
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	if strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") {
		return ""
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := base.ResolveReference(parsed)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	resolved.Fragment = ""

	return resolved.String()
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
