package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/truthscan/internal/logging"
	"github.com/ppiankov/truthscan/internal/metrics"
	"github.com/ppiankov/truthscan/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAnalyzer struct {
	err      error
	gotText  string
	gotURL   string
	gotImage []byte
	gotCap   string
}

func (f *fakeAnalyzer) report(mode model.Mode, subject string) (*model.Report, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &model.Report{
		ID:      "r-1",
		Mode:    mode,
		Subject: subject,
		Result:  model.VerdictResult{Verdict: model.VerdictNeedsReview, SuspicionScore: 0.6, ReliabilityScore: 0.4},
		Raw:     &model.RawEvidence{Heuristic: &model.HeuristicRaw{Triggered: []string{"shouting"}}},
	}, nil
}

func (f *fakeAnalyzer) AnalyzeText(ctx context.Context, text string) (*model.Report, error) {
	f.gotText = text
	return f.report(model.ModeText, text)
}

func (f *fakeAnalyzer) AnalyzeURL(ctx context.Context, rawURL string) (*model.Report, error) {
	f.gotURL = rawURL
	return f.report(model.ModeURL, rawURL)
}

func (f *fakeAnalyzer) AnalyzeImage(ctx context.Context, data []byte, caption string) (*model.Report, error) {
	f.gotImage, f.gotCap = data, caption
	return f.report(model.ModeImage, "image")
}

func newTestServer(a Analyzer, m *metrics.Metrics) http.Handler {
	cfg := model.DefaultConfig().Server
	return NewServer(cfg, a, m, 1024, "test", logging.Discard()).Handler()
}

func do(t *testing.T, h http.Handler, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	var body map[string]any
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func TestHealth(t *testing.T) {
	w, body := do(t, newTestServer(&fakeAnalyzer{}, nil), httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "test", body["version"])
}

func TestAnalyzeText_JSON(t *testing.T) {
	fa := &fakeAnalyzer{}
	req := httptest.NewRequest(http.MethodPost, "/api/analyze/text", strings.NewReader(`{"text":"The Moon is made of cheese"}`))
	req.Header.Set("Content-Type", "application/json")

	w, body := do(t, newTestServer(fa, nil), req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "The Moon is made of cheese", fa.gotText)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "text", body["analysis_type"])
	assert.Equal(t, map[string]any{"service": "truthscan", "version": "test"}, body["metadata"])

	result := body["result"].(map[string]any)
	assert.Equal(t, "r-1", result["id"])
	assert.NotContains(t, result, "raw")
}

func TestAnalyzeText_FormWithRaw(t *testing.T) {
	form := url.Values{"text": {"The Moon is made of cheese"}}
	req := httptest.NewRequest(http.MethodPost, "/api/analyze/text?raw=true", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w, body := do(t, newTestServer(&fakeAnalyzer{}, nil), req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, body["result"].(map[string]any), "raw")
}

func TestAnalyzeText_MissingField(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/analyze/text", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")

	w, body := do(t, newTestServer(&fakeAnalyzer{}, nil), req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["success"])
	assert.NotEmpty(t, body["error"])
}

func TestAnalyzeURL(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
	}{
		{"ok", `{"url":"https://example.com/a"}`, nil, http.StatusOK},
		{"not a url", `{"url":"definitely not"}`, nil, http.StatusBadRequest},
		{"invalid input from analyzer", `{"url":"ftp://example.com/a"}`, fmt.Errorf("%w: scheme", model.ErrInvalidInput), http.StatusBadRequest},
		{"analyzer failure", `{"url":"https://example.com/a"}`, errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/analyze/url", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")

			w, _ := do(t, newTestServer(&fakeAnalyzer{err: tt.err}, nil), req)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func multipartRequest(t *testing.T, fileName string, data []byte, caption string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if fileName != "" {
		fw, err := mw.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	if caption != "" {
		require.NoError(t, mw.WriteField("caption", caption))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/analyze/image", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestAnalyzeImage(t *testing.T) {
	fa := &fakeAnalyzer{}
	w, body := do(t, newTestServer(fa, nil), multipartRequest(t, "photo.png", []byte("pixels"), "Flooded street"))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []byte("pixels"), fa.gotImage)
	assert.Equal(t, "Flooded street", fa.gotCap)
	assert.Equal(t, "image", body["analysis_type"])
}

func TestAnalyzeImage_SubjectFromFileName(t *testing.T) {
	w, body := do(t, newTestServer(&fakeAnalyzer{}, nil), multipartRequest(t, "photo.png", []byte("pixels"), ""))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "photo.png", body["result"].(map[string]any)["subject"])
}

func TestAnalyzeImage_Rejected(t *testing.T) {
	h := newTestServer(&fakeAnalyzer{}, nil)

	w, _ := do(t, h, multipartRequest(t, "", nil, "caption only"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, h, multipartRequest(t, "big.png", make([]byte, 2048), ""))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.New()
	m.ObserveFailure(model.ModeURL)

	w, _ := do(t, newTestServer(&fakeAnalyzer{}, m), httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `truthscan_analysis_failures_total{mode="url"} 1`)
}

func TestCORS(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/analyze/text", nil)
	req.Header.Set("Origin", "https://newsroom.example")
	req.Header.Set("Access-Control-Request-Method", "POST")

	w, _ := do(t, newTestServer(&fakeAnalyzer{}, nil), req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
