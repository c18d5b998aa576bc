package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pipeline stages.
const (
	StageEmbed    = "embed"
	StageRetrieve = "retrieve"
	StageGenerate = "generate"
	StageTotal    = "total"
)

// Request outcomes.
const (
	OutcomeSuccess      = "success"
	OutcomeInvalid      = "invalid"
	OutcomeUpstreamFail = "upstream_error"
	OutcomeTimeout      = "timeout"
	OutcomeInternal     = "internal_error"
)

// Metrics collects pipeline metrics.
type Metrics interface {
	ObserveStage(stage string, d time.Duration)
	ObserveMatches(n int)
	IncRequest(outcome string)
	IncFallback()
}

// PrometheusMetrics implements Metrics on its own registry.
type PrometheusMetrics struct {
	registry      *prometheus.Registry
	stageLatency  *prometheus.HistogramVec
	matchCount    prometheus.Histogram
	requests      *prometheus.CounterVec
	fallbackTotal prometheus.Counter
}

// NewPrometheusMetrics creates and registers the pipeline collectors.
func NewPrometheusMetrics() *PrometheusMetrics {
	m := &PrometheusMetrics{
		registry: prometheus.NewRegistry(),
		stageLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "assistant_stage_latency_ms",
			Help:    "Latency of answer pipeline stages in milliseconds",
			Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1500, 3000, 6000, 12000},
		}, []string{"stage"}),
		matchCount: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "assistant_retrieved_matches",
			Help:    "Number of product snippets with content returned per question",
			Buckets: []float64{0, 1, 2, 3, 5, 10},
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assistant_requests_total",
			Help: "Generate requests by outcome",
		}, []string{"outcome"}),
		fallbackTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "assistant_fallback_answers_total",
			Help: "Answers replaced by the fallback message",
		}),
	}

	m.registry.MustRegister(
		m.stageLatency,
		m.matchCount,
		m.requests,
		m.fallbackTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *PrometheusMetrics) ObserveStage(stage string, d time.Duration) {
	m.stageLatency.WithLabelValues(stage).Observe(float64(d.Milliseconds()))
}

func (m *PrometheusMetrics) ObserveMatches(n int) {
	m.matchCount.Observe(float64(n))
}

func (m *PrometheusMetrics) IncRequest(outcome string) {
	m.requests.WithLabelValues(outcome).Inc()
}

func (m *PrometheusMetrics) IncFallback() {
	m.fallbackTotal.Inc()
}

// Registry exposes the underlying registry.
func (m *PrometheusMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) ObserveStage(string, time.Duration) {}
func (NopMetrics) ObserveMatches(int)                 {}
func (NopMetrics) IncRequest(string)                  {}
func (NopMetrics) IncFallback()                       {}
