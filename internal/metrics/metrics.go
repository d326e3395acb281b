// Package metrics exposes Prometheus metrics for editor sessions, the
// validator and the LLM boundary.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace     = "contractcreator"
	resultLabel   = "result"
	providerLabel = "provider"
	opLabel       = "op"
)

// Result label values.
const (
	ResultPassed    = "passed"
	ResultFailed    = "failed"
	ResultError     = "error"
	ResultDiscarded = "discarded"
	ResultOK        = "ok"
)

// Metrics holds every collector. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	validationsTotal   *prometheus.CounterVec
	validationSeconds  prometheus.Histogram
	llmRequestsTotal   *prometheus.CounterVec
	llmRequestSeconds  *prometheus.HistogramVec
	importsTotal       *prometheus.CounterVec
	commandsTotal      *prometheus.CounterVec
	sessionsActive     prometheus.Gauge
	validatorCacheHits *prometheus.CounterVec
}

func New() (*Metrics, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, fmt.Errorf("register process collector: %w", err)
	}
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("register go collector: %w", err)
	}

	return &Metrics{
		registry: reg,
		validationsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "validation",
			Name:      "total",
			Help:      "Validation runs by outcome.",
		}, []string{resultLabel}),
		validationSeconds: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "validation",
			Name:      "seconds",
			Help:      "Time spent in the protocol validator.",
		}),
		llmRequestsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "requests_total",
			Help:      "LLM calls by provider and outcome.",
		}, []string{providerLabel, resultLabel}),
		llmRequestSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "request_seconds",
			Help:      "LLM call latency.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		}, []string{providerLabel}),
		importsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "imports_total",
			Help:      "Contract imports by outcome.",
		}, []string{resultLabel}),
		commandsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "commands_total",
			Help:      "Edit commands applied, by operation.",
		}, []string{opLabel}),
		sessionsActive: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "active",
			Help:      "Editor sessions currently held in memory.",
		}),
		validatorCacheHits: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "validation",
			Name:      "cache_lookups_total",
			Help:      "Validator cache lookups by outcome (hit or miss).",
		}, []string{resultLabel}),
	}, nil
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) AddValidation(result string, seconds float64) {
	if m == nil {
		return
	}
	m.validationsTotal.With(prometheus.Labels{resultLabel: result}).Inc()
	if seconds > 0 {
		m.validationSeconds.Observe(seconds)
	}
}

func (m *Metrics) AddLLMRequest(provider, result string, seconds float64) {
	if m == nil {
		return
	}
	m.llmRequestsTotal.With(prometheus.Labels{providerLabel: provider, resultLabel: result}).Inc()
	m.llmRequestSeconds.With(prometheus.Labels{providerLabel: provider}).Observe(seconds)
}

func (m *Metrics) AddImport(result string) {
	if m == nil {
		return
	}
	m.importsTotal.With(prometheus.Labels{resultLabel: result}).Inc()
}

func (m *Metrics) AddCommand(op string) {
	if m == nil {
		return
	}
	m.commandsTotal.With(prometheus.Labels{opLabel: op}).Inc()
}

func (m *Metrics) SetSessionsActive(n int) {
	if m == nil {
		return
	}
	m.sessionsActive.Set(float64(n))
}

// AddValidatorCacheLookup records a cache hit (true) or miss (false).
func (m *Metrics) AddValidatorCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.validatorCacheHits.With(prometheus.Labels{resultLabel: result}).Inc()
}
