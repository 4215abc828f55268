package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/truthscan/internal/util"
)

// maxAPIResponseBytes caps how much of a provider reply is read
const maxAPIResponseBytes = 1 << 20

// apiClient posts JSON to one provider endpoint
type apiClient struct {
	baseURL string
	headers http.Header
	http    *http.Client

	// describeError turns a non-200 body into a message; nil means use the raw body
	describeError func(body []byte) (string, bool)
}

func newAPIClient(cfg Config, fallbackURL string, fallbackTimeout time.Duration) *apiClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = fallbackURL
	}

	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = fallbackTimeout
	}

	return &apiClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		headers: http.Header{"Content-Type": []string{"application/json"}},
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
			},
		},
	}
}

// post sends in to path and decodes a 200 reply into out
func (c *apiClient) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	for k, v := range c.headers {
		req.Header[k] = v
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAPIResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := string(data)
		if c.describeError != nil {
			if described, ok := c.describeError(data); ok {
				msg = described
			}
		}
		return fmt.Errorf("API error (%d): %s", resp.StatusCode, msg)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
