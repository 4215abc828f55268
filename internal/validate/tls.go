package validate

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ppiankov/truthscan/internal/model"
	"github.com/ppiankov/truthscan/internal/util"
)

const tlsMaxAttempts = 2

// tlsSleepFunc is the sleep function used between retries (injectable for tests)
var tlsSleepFunc = time.Sleep

// TLS problems reported in SSLRaw.Problem
const (
	ProblemNoHTTPS          = "no_https"
	ProblemExpired          = "expired"
	ProblemHostnameMismatch = "hostname_mismatch"
	ProblemUnknownAuthority = "unknown_authority"
	ProblemInvalid          = "invalid"
)

// TLSChecker probes a URL's certificate with a verifying HEAD request
type TLSChecker struct {
	httpClient *http.Client
	userAgent  string
}

// NewTLSChecker creates a TLS checker. roots replaces the system pool when non-nil.
func NewTLSChecker(cfg model.HTTPConfig, roots *x509.CertPool) *TLSChecker {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &TLSChecker{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:           util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
				TLSClientConfig: &tls.Config{RootCAs: roots, MinVersion: tls.VersionTLS12},
			},
			// Only the first hop's certificate matters
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		userAgent: cfg.UserAgent,
	}
}

// Check probes rawURL. Certificate failures are findings; other network
// failures set Err so the evidence counts as unavailable.
func (c *TLSChecker) Check(ctx context.Context, rawURL string) model.SSLRaw {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return model.SSLRaw{Err: fmt.Errorf("%w: bad url %q", model.ErrInvalidInput, rawURL)}
	}

	result := model.SSLRaw{Scheme: strings.ToLower(parsed.Scheme)}
	if result.Scheme != "https" {
		result.Problem = ProblemNoHTTPS
		return result
	}

	var resp *http.Response
	for attempt := 0; attempt < tlsMaxAttempts; attempt++ {
		resp, err = c.probe(ctx, parsed.String())
		if err == nil || !isRetryableNetworkError(err) || ctx.Err() != nil {
			break
		}
		if attempt < tlsMaxAttempts-1 {
			tlsSleepFunc(time.Duration(attempt+1) * 500 * time.Millisecond)
		}
	}

	if err != nil {
		if problem := classifyCertError(err); problem != "" {
			result.Problem = problem
			return result
		}
		result.Err = fmt.Errorf("tls probe: %w", err)
		return result
	}
	defer func() { _ = resp.Body.Close() }()

	result.Valid = true
	if resp.TLS != nil && len(resp.TLS.PeerCertificates) > 0 {
		leaf := resp.TLS.PeerCertificates[0]
		result.Issuer = issuerName(leaf)
		expires := leaf.NotAfter
		result.Expires = &expires
	}
	return result
}

func (c *TLSChecker) probe(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return c.httpClient.Do(req)
}

// classifyCertError maps verification failures to a problem code, or "" for non-TLS errors
func classifyCertError(err error) string {
	var invalid x509.CertificateInvalidError
	if errors.As(err, &invalid) {
		if invalid.Reason == x509.Expired {
			return ProblemExpired
		}
		return ProblemInvalid
	}

	var hostname x509.HostnameError
	if errors.As(err, &hostname) {
		return ProblemHostnameMismatch
	}

	var unknown x509.UnknownAuthorityError
	if errors.As(err, &unknown) {
		return ProblemUnknownAuthority
	}

	var verification *tls.CertificateVerificationError
	if errors.As(err, &verification) {
		return ProblemInvalid
	}

	var header tls.RecordHeaderError
	if errors.As(err, &header) {
		return ProblemInvalid
	}

	return ""
}

// isRetryableNetworkError checks for transient network failures
func isRetryableNetworkError(err error) bool {
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset")
}

func issuerName(cert *x509.Certificate) string {
	if cert.Issuer.CommonName != "" {
		return cert.Issuer.CommonName
	}
	if len(cert.Issuer.Organization) > 0 {
		return cert.Issuer.Organization[0]
	}
	return ""
}
