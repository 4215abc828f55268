package pipeline

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/truthscan/internal/cache"
	"github.com/ppiankov/truthscan/internal/extract"
	"github.com/ppiankov/truthscan/internal/factcheck"
	"github.com/ppiankov/truthscan/internal/forensics"
	"github.com/ppiankov/truthscan/internal/heuristic"
	"github.com/ppiankov/truthscan/internal/llm"
	"github.com/ppiankov/truthscan/internal/metrics"
	"github.com/ppiankov/truthscan/internal/model"
	"github.com/ppiankov/truthscan/internal/score"
	"github.com/ppiankov/truthscan/internal/util"
	"github.com/ppiankov/truthscan/internal/validate"
	"github.com/ppiankov/truthscan/internal/worker"
)

// Options holds collaborators that replace the ones built from the configuration.
// Zero values mean "build from config".
type Options struct {
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
	Classifier llm.Classifier
	Searcher   factcheck.Searcher
	Resolver   validate.Resolver
	TLSRoots   *x509.CertPool
}

// Analyzer orchestrates one analysis: validate, gather, evaluate, report
type Analyzer struct {
	cfg        model.Config
	engine     *score.Engine
	fetcher    *Fetcher
	classifier llm.Classifier
	scanner    *heuristic.Scanner
	checker    *factcheck.Checker
	detector   *forensics.Detector
	trust      *validate.TrustChecker
	tls        *validate.TLSChecker
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewAnalyzer wires every provider from cfg
func NewAnalyzer(cfg model.Config, opts Options) (*Analyzer, error) {
	engine, err := score.NewEngine(cfg.Policy)
	if err != nil {
		return nil, fmt.Errorf("policy: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	classifier := opts.Classifier
	if classifier == nil {
		classifier, err = llm.ForMode(cfg.Providers.Sentiment, cfg)
		if err != nil {
			return nil, fmt.Errorf("sentiment: %w", err)
		}
	}

	shared := cache.New(cfg.Cache, logger)
	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	var robots *util.RobotsChecker
	if cfg.HTTP.RespectRobots {
		robots = util.NewRobotsChecker(cfg.HTTP.UserAgent, cfg.HTTP.Timeout)
	}

	var checker *factcheck.Checker
	if cfg.Providers.FactCheck {
		searcher := opts.Searcher
		if searcher == nil {
			searcher = factcheck.NewWebSearcher(cfg.Search.BaseURL, factcheck.SearcherOptions{
				HTTPClient: util.NewHTTPClient(cfg.HTTP),
				UserAgent:  cfg.HTTP.UserAgent,
				MaxResults: cfg.Search.MaxResults,
				Cache:      shared,
				CacheTTL:   cfg.Cache.TTL,
				Limiter:    limiter,
				Robots:     robots,
				Logger:     logger,
			})
		}
		checker = factcheck.NewChecker(cfg.Search, searcher, logger)
	}

	resolver := opts.Resolver
	if resolver == nil && cfg.Providers.DNSCheck && cfg.Domains.Resolver != "" {
		resolver = validate.NewDNSResolver(cfg.Domains.Resolver, 2*time.Second, shared)
	}

	var tlsChecker *validate.TLSChecker
	if cfg.Providers.TLSCheck {
		tlsChecker = validate.NewTLSChecker(cfg.HTTP, opts.TLSRoots)
	}

	return &Analyzer{
		cfg:        cfg,
		engine:     engine,
		fetcher:    NewFetcher(cfg.HTTP, robots, limiter),
		classifier: classifier,
		scanner:    heuristic.NewScanner(),
		checker:    checker,
		detector:   forensics.NewDetector(cfg.Forensics),
		trust:      validate.NewTrustChecker(cfg.Domains, validate.NewAuthorityClassifier(&cfg.Authority), resolver, logger),
		tls:        tlsChecker,
		metrics:    opts.Metrics,
		logger:     logger,
	}, nil
}

// Analyze dispatches on the input kind; it satisfies worker.Analyzer
func (a *Analyzer) Analyze(ctx context.Context, in model.AnalysisInput) (*model.Report, error) {
	switch in.Kind {
	case model.ModeText:
		return a.AnalyzeText(ctx, in.Text)
	case model.ModeURL:
		return a.AnalyzeURL(ctx, in.URL)
	case model.ModeImage:
		return a.AnalyzeImage(ctx, in.Image, in.Caption)
	default:
		return nil, fmt.Errorf("%w: unknown input kind %q", model.ErrInvalidInput, in.Kind)
	}
}

// AnalyzeText scores a piece of text with the sentiment, heuristic and fact-check providers
func (a *Analyzer) AnalyzeText(ctx context.Context, text string) (*model.Report, error) {
	in := model.TextInput(text)
	if err := in.Validate(); err != nil {
		a.metrics.ObserveFailure(model.ModeText)
		return nil, err
	}

	return a.run(ctx, model.ModeText, model.SubjectFromText(strings.TrimSpace(text)), false, func(ctx context.Context, raw *model.RawEvidence) *model.ContentMeta {
		a.gatherText(ctx, extract.Sanitize(text), raw)
		return nil
	})
}

// AnalyzeURL fetches the page and scores its text together with the domain and TLS providers.
// A failed fetch leaves the text providers unavailable; domain and TLS still run.
func (a *Analyzer) AnalyzeURL(ctx context.Context, rawURL string) (*model.Report, error) {
	in := model.URLInput(strings.TrimSpace(rawURL))
	if err := in.Validate(); err != nil {
		a.metrics.ObserveFailure(model.ModeURL)
		return nil, err
	}

	return a.run(ctx, model.ModeURL, in.URL, false, func(ctx context.Context, raw *model.RawEvidence) *model.ContentMeta {
		var content *model.ContentMeta
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			raw.DomainTrust = runProvider(gctx, a.cfg.Providers.Timeout, model.KindDomainTrust,
				func(ctx context.Context) *model.DomainTrustRaw {
					r := a.trust.Check(ctx, in.URL)
					return &r
				},
				func(err error) *model.DomainTrustRaw { return &model.DomainTrustRaw{Err: err} })
			return nil
		})
		if a.tls != nil {
			g.Go(func() error {
				raw.SSL = runProvider(gctx, a.cfg.Providers.Timeout, model.KindSSL,
					func(ctx context.Context) *model.SSLRaw {
						r := a.tls.Check(ctx, in.URL)
						return &r
					},
					func(err error) *model.SSLRaw { return &model.SSLRaw{Err: err} })
				return nil
			})
		}
		g.Go(func() error {
			// The fetch and the text providers share one provider deadline.
			pageCtx := gctx
			if timeout := a.cfg.Providers.Timeout; timeout > 0 {
				var cancel context.CancelFunc
				pageCtx, cancel = context.WithTimeout(gctx, timeout)
				defer cancel()
			}

			var text string
			content, text = a.fetchPage(pageCtx, in.URL)
			if text == "" {
				reason := content.Error
				if reason == "" {
					reason = "page has no readable text"
				}
				markTextUnavailable(raw, fmt.Errorf("%w: %s", model.ErrProviderUnavailable, reason))
				return nil
			}
			a.gatherText(pageCtx, text, raw)
			return nil
		})
		_ = g.Wait()
		return content
	})
}

// AnalyzeImage scores an image with the forensics detector; a caption adds the text providers
func (a *Analyzer) AnalyzeImage(ctx context.Context, data []byte, caption string) (*model.Report, error) {
	in := model.ImageInput(data, strings.TrimSpace(caption))
	if err := in.Validate(); err != nil {
		a.metrics.ObserveFailure(model.ModeImage)
		return nil, err
	}
	if limit := a.cfg.Forensics.MaxImageBytes; limit > 0 && int64(len(data)) > limit {
		a.metrics.ObserveFailure(model.ModeImage)
		return nil, fmt.Errorf("%w: image larger than %d bytes", model.ErrInvalidInput, limit)
	}

	subject := fmt.Sprintf("image (%d bytes)", len(data))
	if in.Caption != "" {
		subject = model.SubjectFromText(in.Caption)
	}
	hasCaption := in.Caption != ""

	return a.run(ctx, model.ModeImage, subject, hasCaption, func(ctx context.Context, raw *model.RawEvidence) *model.ContentMeta {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			raw.ImageForensics = runProvider(gctx, a.cfg.Providers.Timeout, model.KindImageForensics,
				func(ctx context.Context) *model.ImageForensicsRaw {
					r := a.detector.Analyze(ctx, data)
					return &r
				},
				func(err error) *model.ImageForensicsRaw { return &model.ImageForensicsRaw{Err: err} })
			return nil
		})
		if hasCaption {
			g.Go(func() error {
				a.gatherText(gctx, extract.Sanitize(in.Caption), raw)
				return nil
			})
		}
		_ = g.Wait()
		return nil
	})
}

// gatherFunc fills raw for one mode and returns fetched page metadata, if any
type gatherFunc func(ctx context.Context, raw *model.RawEvidence) *model.ContentMeta

// run applies the request budget, gathers, evaluates once and builds the report
func (a *Analyzer) run(ctx context.Context, mode model.Mode, subject string, hasCaption bool, gather gatherFunc) (*model.Report, error) {
	start := time.Now()
	if budget := a.cfg.Providers.RequestTimeout; budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, budget)
		defer cancel()
	}

	var raw model.RawEvidence
	content := gather(ctx, &raw)

	if err := ctx.Err(); errors.Is(err, context.Canceled) {
		a.metrics.ObserveFailure(mode)
		return nil, fmt.Errorf("analyze %s: %w", mode, err)
	}

	eval := a.engine.Evaluate(mode, raw, hasCaption)
	report := &model.Report{
		ID:            uuid.NewString(),
		Mode:          mode,
		Subject:       subject,
		AnalyzedAt:    start.UTC(),
		DurationMS:    time.Since(start).Milliseconds(),
		Result:        eval.Result,
		Evidence:      eval.Records,
		Contributions: eval.Contributions,
		Content:       content,
		Raw:           &raw,
		Warnings:      warnings(raw),
	}

	a.metrics.ObserveReport(report)
	a.logger.Info("analysis complete",
		"id", report.ID,
		"mode", mode,
		"verdict", report.Result.Verdict,
		"suspicion", report.Result.SuspicionScore,
		"evidence", report.Result.EvidenceCount,
		"duration_ms", report.DurationMS)
	for _, w := range report.Warnings {
		a.logger.Debug("provider unavailable", "id", report.ID, "detail", w)
	}
	return report, nil
}

// gatherText runs the text providers concurrently and waits for all of them
func (a *Analyzer) gatherText(ctx context.Context, text string, raw *model.RawEvidence) {
	if strings.TrimSpace(text) == "" {
		markTextUnavailable(raw, fmt.Errorf("%w: no text after sanitizing", model.ErrProviderUnavailable))
		return
	}
	timeout := a.cfg.Providers.Timeout

	g, gctx := errgroup.WithContext(ctx)
	if a.classifier != nil {
		g.Go(func() error {
			raw.Sentiment = runProvider(gctx, timeout, model.KindSentiment,
				func(ctx context.Context) *model.SentimentRaw {
					return llm.Raw(a.classifier.Classify(ctx, text))
				},
				func(err error) *model.SentimentRaw { return &model.SentimentRaw{Err: err} })
			return nil
		})
	}
	g.Go(func() error {
		raw.Heuristic = runProvider(gctx, timeout, model.KindHeuristic,
			func(context.Context) *model.HeuristicRaw {
				r := a.scanner.Scan(text)
				return &r
			},
			func(err error) *model.HeuristicRaw { return &model.HeuristicRaw{Err: err} })
		return nil
	})
	if a.checker != nil {
		g.Go(func() error {
			raw.FactCheck = runProvider(gctx, timeout, model.KindFactCheck,
				func(ctx context.Context) *model.FactCheckRaw {
					r := a.checker.Check(ctx, text)
					return &r
				},
				func(err error) *model.FactCheckRaw { return &model.FactCheckRaw{Err: err} })
			return nil
		})
	}
	_ = g.Wait()
}

// fetchPage downloads and parses the article under the caller's deadline;
// the returned text is empty on failure
func (a *Analyzer) fetchPage(ctx context.Context, rawURL string) (*model.ContentMeta, string) {
	meta := &model.ContentMeta{URL: rawURL, FetchedAt: time.Now().UTC()}

	result, err := a.fetcher.FetchWithRetry(ctx, rawURL)
	if err != nil {
		a.logger.Warn("page fetch failed", "url", rawURL, "error", err)
		meta.Error = err.Error()
		return meta, ""
	}
	meta.FinalURL = result.FinalURL
	meta.StatusCode = result.StatusCode
	meta.ContentType = result.ContentType
	meta.FetchedAt = result.FetchedAt

	maxChars := a.cfg.Providers.MaxTextChars
	if maxChars <= 0 {
		maxChars = 5000
	}
	page, err := extract.ParsePage(result.HTML, result.FinalURL, maxChars)
	if err != nil {
		meta.Error = fmt.Sprintf("parse page: %v", err)
		return meta, ""
	}
	meta.Title = page.Title
	meta.Description = page.Description
	meta.TextLength = len([]rune(page.Text))
	return meta, page.Content()
}

// runProvider calls one provider under its own timeout. A panic or an overrun
// is converted by failed into an output whose Err wraps ErrProviderUnavailable.
// The call keeps running in the background after an overrun; its result is dropped.
func runProvider[T any](ctx context.Context, timeout time.Duration, kind model.EvidenceKind, call func(context.Context) T, failed func(error) T) T {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("%w: %s panicked: %v", model.ErrProviderUnavailable, kind, r)}
			}
		}()
		done <- outcome{value: call(ctx)}
	}()

	select {
	case o := <-done:
		if o.err != nil {
			return failed(o.err)
		}
		return o.value
	case <-ctx.Done():
		return failed(fmt.Errorf("%w: %s: %v", model.ErrProviderUnavailable, kind, ctx.Err()))
	}
}

// markTextUnavailable records err for every text provider
func markTextUnavailable(raw *model.RawEvidence, err error) {
	raw.Sentiment = &model.SentimentRaw{Err: err}
	raw.Heuristic = &model.HeuristicRaw{Err: err}
	raw.FactCheck = &model.FactCheckRaw{Err: err}
}

// warnings lists provider failures in priority order
func warnings(raw model.RawEvidence) []string {
	errs := map[model.EvidenceKind]error{}
	if raw.Sentiment != nil {
		errs[model.KindSentiment] = raw.Sentiment.Err
	}
	if raw.Heuristic != nil {
		errs[model.KindHeuristic] = raw.Heuristic.Err
	}
	if raw.FactCheck != nil {
		errs[model.KindFactCheck] = raw.FactCheck.Err
	}
	if raw.ImageForensics != nil {
		errs[model.KindImageForensics] = raw.ImageForensics.Err
	}
	if raw.DomainTrust != nil {
		errs[model.KindDomainTrust] = raw.DomainTrust.Err
	}
	if raw.SSL != nil {
		errs[model.KindSSL] = raw.SSL.Err
	}

	var out []string
	for _, kind := range model.AllKinds() {
		if err := errs[kind]; err != nil {
			out = append(out, fmt.Sprintf("%s: %v", kind, err))
		}
	}
	return out
}
