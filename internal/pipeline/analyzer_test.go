package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/truthscan/internal/factcheck"
	"github.com/ppiankov/truthscan/internal/llm"
	"github.com/ppiankov/truthscan/internal/logging"
	"github.com/ppiankov/truthscan/internal/metrics"
	"github.com/ppiankov/truthscan/internal/model"
	"github.com/ppiankov/truthscan/internal/worker"
)

var _ worker.Analyzer = (*Analyzer)(nil)

type stubClassifier struct {
	label      string
	confidence float64
	block      bool
	panics     bool
}

func (s *stubClassifier) Name() string { return "stub" }

func (s *stubClassifier) Classify(ctx context.Context, text string) (*llm.Classification, error) {
	if s.panics {
		panic("classifier exploded")
	}
	if s.block {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(10 * time.Second):
		}
	}
	return &llm.Classification{Label: s.label, Confidence: s.confidence, Model: "stub"}, nil
}

type stubSearcher struct {
	results []factcheck.Result
}

func (s *stubSearcher) Search(ctx context.Context, query string) ([]factcheck.Result, error) {
	return s.results, nil
}

type stubResolver struct{}

func (stubResolver) Exists(ctx context.Context, host string) (bool, error) { return true, nil }

func testConfig() model.Config {
	cfg := model.DefaultConfig()
	cfg.Cache.Enabled = false
	cfg.RateLimiting.RequestsPerSecond = 0
	cfg.Providers.Timeout = 2 * time.Second
	cfg.Providers.RequestTimeout = 10 * time.Second
	return cfg
}

func newTestAnalyzer(t *testing.T, cfg model.Config, opts Options) *Analyzer {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Classifier == nil {
		opts.Classifier = &stubClassifier{label: "neutral", confidence: 0.6}
	}
	if opts.Searcher == nil {
		opts.Searcher = &stubSearcher{}
	}
	if opts.Resolver == nil {
		opts.Resolver = stubResolver{}
	}
	a, err := NewAnalyzer(cfg, opts)
	require.NoError(t, err)
	return a
}

func kinds(records []model.EvidenceRecord) []model.EvidenceKind {
	out := make([]model.EvidenceKind, 0, len(records))
	for _, r := range records {
		out = append(out, r.Kind)
	}
	return out
}

func record(t *testing.T, report *model.Report, kind model.EvidenceKind) model.EvidenceRecord {
	t.Helper()
	for _, r := range report.Evidence {
		if r.Kind == kind {
			return r
		}
	}
	t.Fatalf("no %s record in report", kind)
	return model.EvidenceRecord{}
}

func TestAnalyzeText_Debunked(t *testing.T) {
	a := newTestAnalyzer(t, testConfig(), Options{
		Classifier: &stubClassifier{label: "negative", confidence: 0.95},
		Searcher: &stubSearcher{results: []factcheck.Result{
			{Title: "Moon cheese claim debunked", URL: "https://www.snopes.com/fact-check/moon-cheese/"},
		}},
	})

	report, err := a.AnalyzeText(context.Background(),
		"Scientists confirmed that the Moon is made of cheese, according to NASA in 2024.")
	require.NoError(t, err)

	assert.Equal(t, model.ModeText, report.Mode)
	assert.NotEmpty(t, report.ID)
	assert.Equal(t, []model.EvidenceKind{model.KindSentiment, model.KindHeuristic, model.KindFactCheck}, kinds(report.Evidence))
	assert.Equal(t, model.VerdictFake, report.Result.Verdict)
	assert.InDelta(t, 1-report.Result.SuspicionScore, report.Result.ReliabilityScore, 1e-9)
	assert.Equal(t, model.SupportsFake, record(t, report, model.KindFactCheck).Polarity)
	require.NotNil(t, report.Raw)
	require.NotNil(t, report.Raw.FactCheck)
	assert.NotEmpty(t, report.Raw.FactCheck.Claims)
	assert.Empty(t, report.Warnings)
}

func TestAnalyze_InvalidInput(t *testing.T) {
	m := metrics.New()
	a := newTestAnalyzer(t, testConfig(), Options{Metrics: m})
	ctx := context.Background()

	_, err := a.AnalyzeText(ctx, "  short  ")
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = a.AnalyzeURL(ctx, "ftp://example.com/file")
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = a.AnalyzeImage(ctx, nil, "caption")
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = a.Analyze(ctx, model.AnalysisInput{Kind: "audio", Text: "something long enough"})
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `truthscan_analysis_failures_total{mode="text"} 1`)
	assert.Contains(t, rec.Body.String(), `truthscan_analysis_failures_total{mode="url"} 1`)
}

func TestAnalyzeImage_TooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.Forensics.MaxImageBytes = 16
	a := newTestAnalyzer(t, cfg, Options{})

	_, err := a.AnalyzeImage(context.Background(), make([]byte, 32), "")
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestAnalyzeText_ProviderTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.Providers.Timeout = 50 * time.Millisecond
	a := newTestAnalyzer(t, cfg, Options{Classifier: &stubClassifier{block: true}})

	start := time.Now()
	report, err := a.AnalyzeText(context.Background(), "The council approved the new budget on Monday after a long debate.")
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 5*time.Second)
	sentiment := record(t, report, model.KindSentiment)
	assert.False(t, sentiment.Available)
	assert.True(t, record(t, report, model.KindHeuristic).Available)
	require.NotEmpty(t, report.Warnings)
	assert.True(t, strings.HasPrefix(report.Warnings[0], "sentiment:"), report.Warnings[0])
	assert.ErrorIs(t, report.Raw.Sentiment.Err, model.ErrProviderUnavailable)
}

func TestAnalyzeText_ProviderPanic(t *testing.T) {
	a := newTestAnalyzer(t, testConfig(), Options{Classifier: &stubClassifier{panics: true}})

	report, err := a.AnalyzeText(context.Background(), "The council approved the new budget on Monday after a long debate.")
	require.NoError(t, err)

	assert.False(t, record(t, report, model.KindSentiment).Available)
	assert.ErrorIs(t, report.Raw.Sentiment.Err, model.ErrProviderUnavailable)
	assert.Contains(t, report.Raw.Sentiment.Err.Error(), "panicked")
}

func TestAnalyzeText_SentimentOff(t *testing.T) {
	cfg := testConfig()
	cfg.Providers.Sentiment = "off"
	a, err := NewAnalyzer(cfg, Options{Logger: logging.Discard(), Searcher: &stubSearcher{}})
	require.NoError(t, err)

	report, err := a.AnalyzeText(context.Background(), "The council approved the new budget on Monday after a long debate.")
	require.NoError(t, err)

	sentiment := record(t, report, model.KindSentiment)
	assert.False(t, sentiment.Available)
	assert.Nil(t, report.Raw.Sentiment)
}

func TestAnalyze_CancelledContext(t *testing.T) {
	a := newTestAnalyzer(t, testConfig(), Options{Classifier: &stubClassifier{block: true}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.AnalyzeText(ctx, "The council approved the new budget on Monday after a long debate.")
	assert.ErrorIs(t, err, context.Canceled)
}

const articleHTML = `<html><head><title>Council budget</title>
<meta name="description" content="Local news"></head>
<body><article><p>The city council approved the 2025 budget on Monday, according to the official minutes.</p></article></body></html>`

func TestAnalyzeURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, articleHTML)
	}))
	defer server.Close()

	a := newTestAnalyzer(t, testConfig(), Options{})
	report, err := a.AnalyzeURL(context.Background(), server.URL+"/news/budget")
	require.NoError(t, err)

	assert.Equal(t, model.ModeURL, report.Mode)
	assert.Equal(t, server.URL+"/news/budget", report.Subject)
	assert.ElementsMatch(t, model.ModeURL.Kinds(false), kinds(report.Evidence))

	require.NotNil(t, report.Content)
	assert.Equal(t, "Council budget", report.Content.Title)
	assert.Equal(t, http.StatusOK, report.Content.StatusCode)
	assert.Positive(t, report.Content.TextLength)
	assert.Empty(t, report.Content.Error)

	require.NotNil(t, report.Raw.SSL)
	assert.Equal(t, "no_https", report.Raw.SSL.Problem)
	require.NotNil(t, report.Raw.DomainTrust)
	assert.Equal(t, "127.0.0.1", report.Raw.DomainTrust.Domain)
	assert.True(t, record(t, report, model.KindHeuristic).Available)
}

func TestAnalyzeURL_FetchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	a := newTestAnalyzer(t, testConfig(), Options{})
	report, err := a.AnalyzeURL(context.Background(), server.URL+"/gone")
	require.NoError(t, err)

	require.NotNil(t, report.Content)
	assert.Contains(t, report.Content.Error, "404")
	for _, kind := range []model.EvidenceKind{model.KindSentiment, model.KindHeuristic, model.KindFactCheck} {
		assert.False(t, record(t, report, kind).Available, kind)
	}
	assert.True(t, record(t, report, model.KindDomainTrust).Available)
	assert.True(t, record(t, report, model.KindSSL).Available)
}

func TestAnalyzeURL_FetchAndTextShareDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		select {
		case <-time.After(700 * time.Millisecond):
		case <-r.Context().Done():
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, articleHTML)
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.Providers.Timeout = time.Second
	a := newTestAnalyzer(t, cfg, Options{Classifier: &stubClassifier{block: true}})

	start := time.Now()
	report, err := a.AnalyzeURL(context.Background(), server.URL+"/news/slow")
	elapsed := time.Since(start)
	require.NoError(t, err)

	assert.Less(t, elapsed, 1500*time.Millisecond, "slow page plus slow classifier ran past one provider timeout")
	assert.Empty(t, report.Content.Error)
	assert.False(t, record(t, report, model.KindSentiment).Available)
	assert.True(t, record(t, report, model.KindHeuristic).Available)
}

func noisePNG(t *testing.T, size int) []byte {
	t.Helper()
	rng := rand.New(rand.NewSource(7))
	img := image.NewGray(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(100 + rng.Intn(40))})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestAnalyzeImage(t *testing.T) {
	a := newTestAnalyzer(t, testConfig(), Options{})
	data := noisePNG(t, 128)

	report, err := a.AnalyzeImage(context.Background(), data, "")
	require.NoError(t, err)
	assert.Equal(t, []model.EvidenceKind{model.KindImageForensics}, kinds(report.Evidence))
	assert.True(t, report.Evidence[0].Available)
	assert.Equal(t, fmt.Sprintf("image (%d bytes)", len(data)), report.Subject)

	report, err = a.AnalyzeImage(context.Background(), data, "Flood waters reached the town hall in Paris on Sunday.")
	require.NoError(t, err)
	assert.ElementsMatch(t, model.ModeImage.Kinds(true), kinds(report.Evidence))
	assert.Equal(t, "png", report.Raw.ImageForensics.Format)
}

func TestAnalyzeImage_Undecodable(t *testing.T) {
	a := newTestAnalyzer(t, testConfig(), Options{})

	report, err := a.AnalyzeImage(context.Background(), []byte("definitely not an image"), "")
	require.NoError(t, err)
	assert.Equal(t, model.VerdictNotAnalyzable, report.Result.Verdict)
	assert.NotEmpty(t, report.Warnings)
}

func TestRunProvider(t *testing.T) {
	failed := func(err error) error { return err }

	got := runProvider(context.Background(), time.Second, model.KindSSL,
		func(context.Context) error { return nil }, failed)
	assert.NoError(t, got)

	got = runProvider(context.Background(), 20*time.Millisecond, model.KindSSL,
		func(ctx context.Context) error { <-ctx.Done(); time.Sleep(50 * time.Millisecond); return nil }, failed)
	assert.ErrorIs(t, got, model.ErrProviderUnavailable)
}

func TestWarnings_PriorityOrder(t *testing.T) {
	boom := errors.New("boom")
	raw := model.RawEvidence{
		Sentiment: &model.SentimentRaw{Err: boom},
		SSL:       &model.SSLRaw{Err: boom},
		Heuristic: &model.HeuristicRaw{},
	}
	assert.Equal(t, []string{"ssl: boom", "sentiment: boom"}, warnings(raw))
}
