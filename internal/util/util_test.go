package util

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/truthscan/internal/model"
)

func TestRobotsChecker(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		hits.Add(1)
		_, _ = fmt.Fprint(w, "User-agent: truthscan\nDisallow: /private\nCrawl-delay: 2\n\nUser-agent: *\nDisallow:\n")
	}))
	defer server.Close()

	checker := NewRobotsChecker("truthscan/1.0 (+https://example.com)", time.Second)
	ctx := context.Background()

	allowed, delay, err := checker.CanFetch(ctx, server.URL+"/news/article")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed {
		t.Error("expected /news/article to be allowed")
	}
	if delay != 2*time.Second {
		t.Errorf("expected crawl delay 2s, got %v", delay)
	}

	if ok, _, _ := checker.CanFetch(ctx, server.URL+"/private/page?id=1"); ok {
		t.Error("expected /private/page to be disallowed")
	}

	if hits.Load() != 1 {
		t.Errorf("expected robots.txt to be fetched once, got %d", hits.Load())
	}

	checker.rules.Flush()
	_, _, _ = checker.CanFetch(ctx, server.URL+"/")
	if hits.Load() != 2 {
		t.Errorf("expected refetch after the rules expire, got %d fetches", hits.Load())
	}
}

func TestRobotsCheckerSharesConcurrentFetch(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		time.Sleep(50 * time.Millisecond)
		_, _ = fmt.Fprint(w, "User-agent: *\nDisallow: /admin\n")
	}))
	defer server.Close()

	checker := NewRobotsChecker("truthscan/1.0", time.Second)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _, _ := checker.CanFetch(context.Background(), server.URL+"/story"); !ok {
				t.Error("expected /story to be allowed")
			}
		}()
	}
	wg.Wait()

	if hits.Load() != 1 {
		t.Errorf("expected one robots.txt request, got %d", hits.Load())
	}
}

func TestRobotsCheckerMissingFile(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	checker := NewRobotsChecker("truthscan/1.0", time.Second)
	if ok, _, err := checker.CanFetch(context.Background(), server.URL+"/anything"); !ok || err != nil {
		t.Error("missing robots.txt should allow everything")
	}
}

func TestRobotsCheckerNil(t *testing.T) {
	var checker *RobotsChecker
	if ok, _, _ := checker.CanFetch(context.Background(), "https://example.com/"); !ok {
		t.Error("nil checker should allow everything")
	}
}

func TestRobotsCheckerBadURL(t *testing.T) {
	checker := NewRobotsChecker("truthscan/1.0", time.Second)
	if _, _, err := checker.CanFetch(context.Background(), "/relative/path"); err == nil {
		t.Error("expected error for URL without host")
	}
}

func TestNormalizeUserAgent(t *testing.T) {
	tests := map[string]string{
		"truthscan/1.0 (+https://example.com)": "truthscan",
		"Mozilla/5.0":                          "Mozilla",
		"plain":                                "plain",
		"":                                     "",
	}
	for in, want := range tests {
		if got := NormalizeUserAgent(in); got != want {
			t.Errorf("NormalizeUserAgent(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewProxyFunc(t *testing.T) {
	proxy := NewProxyFunc("http://proxy.local:3128", "http://secure.local:3128", "internal.example")

	req, _ := http.NewRequest(http.MethodGet, "https://news.example.com/", nil)
	u, err := proxy(req)
	if err != nil || u == nil || u.Host != "secure.local:3128" {
		t.Errorf("https request: got %v, %v", u, err)
	}

	req, _ = http.NewRequest(http.MethodGet, "http://news.example.com/", nil)
	u, err = proxy(req)
	if err != nil || u == nil || u.Host != "proxy.local:3128" {
		t.Errorf("http request: got %v, %v", u, err)
	}

	req, _ = http.NewRequest(http.MethodGet, "http://api.internal.example/", nil)
	u, err = proxy(req)
	if err != nil || u != nil {
		t.Errorf("no-proxy host: got %v, %v", u, err)
	}
}

func TestNewHTTPClient(t *testing.T) {
	client := NewHTTPClient(model.HTTPConfig{Timeout: 3 * time.Second})
	if client.Timeout != 3*time.Second {
		t.Errorf("expected timeout 3s, got %v", client.Timeout)
	}

	client = NewHTTPClient(model.HTTPConfig{})
	if client.Timeout != 10*time.Second {
		t.Errorf("expected default timeout 10s, got %v", client.Timeout)
	}
}
