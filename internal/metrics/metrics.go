// Package metrics exposes Prometheus metrics for analyses.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ppiankov/truthscan/internal/model"
)

const namespace = "truthscan"

// Metrics records analysis outcomes. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// verdicts counts finished analyses. Labels: mode, verdict
	verdicts *prometheus.CounterVec

	// unavailable counts evidence that could not be gathered. Labels: kind
	unavailable *prometheus.CounterVec

	// failures counts analyses that returned an error. Labels: mode
	failures *prometheus.CounterVec

	// duration measures end-to-end analysis time. Labels: mode
	duration *prometheus.HistogramVec

	// suspicion tracks the distribution of suspicion scores
	suspicion prometheus.Histogram
}

// New creates metrics on a dedicated registry with Go and process collectors
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		verdicts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Finished analyses by mode and verdict",
		}, []string{"mode", "verdict"}),
		unavailable: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evidence_unavailable_total",
			Help:      "Evidence records that could not be gathered, by kind",
		}, []string{"kind"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_failures_total",
			Help:      "Analyses rejected or aborted with an error, by mode",
		}, []string{"mode"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "End-to-end analysis latency in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 45},
		}, []string{"mode"}),
		suspicion: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "suspicion_score",
			Help:      "Distribution of suspicion scores",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		}),
	}
}

// ObserveReport records one finished analysis
func (m *Metrics) ObserveReport(r *model.Report) {
	if m == nil || r == nil {
		return
	}
	mode := string(r.Mode)
	m.verdicts.WithLabelValues(mode, string(r.Result.Verdict)).Inc()
	m.duration.WithLabelValues(mode).Observe(float64(r.DurationMS) / 1000)
	m.suspicion.Observe(r.Result.SuspicionScore)
	for _, rec := range r.Evidence {
		if !rec.Available {
			m.unavailable.WithLabelValues(string(rec.Kind)).Inc()
		}
	}
}

// ObserveFailure records an analysis that returned an error
func (m *Metrics) ObserveFailure(mode model.Mode) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(string(mode)).Inc()
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
