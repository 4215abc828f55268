package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/truthscan/internal/model"
)

func TestObserveReport(t *testing.T) {
	m := New()
	report := &model.Report{
		Mode:       model.ModeURL,
		DurationMS: 1200,
		Result:     model.VerdictResult{Verdict: model.VerdictFake, SuspicionScore: 0.8},
		Evidence: []model.EvidenceRecord{
			{Kind: model.KindSSL, Available: true},
			model.Unavailable(model.KindFactCheck, "fact_check: timeout"),
		},
	}

	m.ObserveReport(report)
	m.ObserveReport(report)
	m.ObserveFailure(model.ModeText)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.verdicts.WithLabelValues("url", "fake")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.unavailable.WithLabelValues("fact_check")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.unavailable.WithLabelValues("ssl")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("text")))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveReport(&model.Report{})
		m.ObserveFailure(model.ModeImage)
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveReport(&model.Report{Mode: model.ModeText, Result: model.VerdictResult{Verdict: model.VerdictProbablyReal}})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `truthscan_analyses_total{mode="text",verdict="probably_real"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
