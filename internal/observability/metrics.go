package observability

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yungbote/gemeos-pipeline/internal/platform/envutil"
	"github.com/yungbote/gemeos-pipeline/internal/platform/logger"
)

const namespace = "gemeos"

type Metrics struct {
	registry *prometheus.Registry

	apiRequests   *prometheus.CounterVec
	apiLatency    *prometheus.HistogramVec
	apiInflight   prometheus.Gauge
	stageRuns     *prometheus.CounterVec
	stageLatency  *prometheus.HistogramVec
	modelAttempts *prometheus.CounterVec
	modelLatency  *prometheus.HistogramVec
	publishes     *prometheus.CounterVec
	suggestions   *prometheus.CounterVec
	dataQuality   *prometheus.CounterVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", true)
}

// Current returns the process metrics, or nil before Init.
func Current() *Metrics {
	return instance
}

// Init builds the process-wide registry once.
func Init(log *logger.Logger) *Metrics {
	initOnce.Do(func() {
		instance = New()
		if log != nil {
			log.Info("metrics initialized")
		}
	})
	return instance
}

// New returns an independent registry. Tests use it directly.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "api_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "api_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		apiInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "api_inflight_requests",
			Help: "HTTP requests currently being served.",
		}),
		stageRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "stage_runs_total",
			Help: "Stage invocations by stage and outcome status code.",
		}, []string{"stage", "status"}),
		stageLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "stage_duration_seconds",
			Help:    "Stage wall time.",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
		}, []string{"stage"}),
		modelAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "model_attempts_total",
			Help: "Generative model attempts by prompt and outcome.",
		}, []string{"prompt", "outcome"}),
		modelLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "model_attempt_duration_seconds",
			Help:    "Generative model call latency.",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64, 128},
		}, []string{"prompt"}),
		publishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "trigger_publishes_total",
			Help: "Follow-up trigger publishes by topic and outcome.",
		}, []string{"topic", "outcome"}),
		suggestions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "suggestions_written_total",
			Help: "Suggested rows written by kind.",
		}, []string{"kind"}),
		dataQuality: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "data_quality_issues_total",
			Help: "Rejected inputs by stage, issue and key.",
		}, []string{"stage", "issue", "key"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.stageRuns, m.stageLatency,
		m.modelAttempts, m.modelLatency,
		m.publishes, m.suggestions, m.dataQuality,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m != nil {
		m.apiInflight.Inc()
	}
}

func (m *Metrics) ApiInflightDec() {
	if m != nil {
		m.apiInflight.Dec()
	}
}

func (m *Metrics) ObserveStage(stage, status string, dur time.Duration) {
	if m == nil {
		return
	}
	stage = labelOr(stage, "unknown")
	m.stageRuns.WithLabelValues(stage, status).Inc()
	m.stageLatency.WithLabelValues(stage).Observe(dur.Seconds())
}

// ObserveModelAttempt satisfies llm.Observer.
func (m *Metrics) ObserveModelAttempt(prompt, outcome string, dur time.Duration) {
	if m == nil {
		return
	}
	prompt = labelOr(prompt, "unknown")
	m.modelAttempts.WithLabelValues(prompt, outcome).Inc()
	m.modelLatency.WithLabelValues(prompt).Observe(dur.Seconds())
}

func (m *Metrics) IncPublish(topic, outcome string) {
	if m != nil {
		m.publishes.WithLabelValues(labelOr(topic, "unknown"), outcome).Inc()
	}
}

func (m *Metrics) AddSuggestions(kind string, n int) {
	if m != nil && n > 0 {
		m.suggestions.WithLabelValues(kind).Add(float64(n))
	}
}

func (m *Metrics) IncDataQuality(stage, issue, key string) {
	if m != nil {
		m.dataQuality.WithLabelValues(labelOr(stage, "unknown"), issue, key).Inc()
	}
}

func labelOr(v, fallback string) string {
	if v = strings.TrimSpace(v); v == "" {
		return fallback
	}
	return v
}
