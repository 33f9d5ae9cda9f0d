package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the chat gateway.
type Metrics struct {
	registry *prometheus.Registry

	chatRequests  *prometheus.CounterVec
	chatDuration  *prometheus.HistogramVec
	tokensTotal   *prometheus.CounterVec
	rateLimited   *prometheus.CounterVec
	cacheDecision *prometheus.CounterVec
}

// NewMetrics creates a metrics collector with its own registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		chatRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "chatgate",
				Name:      "chat_requests_total",
				Help:      "Total number of public chat requests",
			},
			[]string{"status"},
		),
		chatDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "chatgate",
				Name:      "chat_request_duration_seconds",
				Help:      "Duration of chat requests in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"status"},
		),
		tokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "chatgate",
				Name:      "tokens_total",
				Help:      "Tokens consumed by provider calls",
			},
			[]string{"type"},
		),
		rateLimited: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "chatgate",
				Name:      "rate_limited_total",
				Help:      "Requests rejected by rate limiting",
			},
			[]string{"policy"},
		),
		cacheDecision: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "chatgate",
				Name:      "prompt_cache_decisions_total",
				Help:      "Prompt cache enable/skip decisions",
			},
			[]string{"enabled"},
		),
	}

	m.registry.MustRegister(
		m.chatRequests,
		m.chatDuration,
		m.tokensTotal,
		m.rateLimited,
		m.cacheDecision,
	)
	return m
}

// RecordChat records a completed chat request.
func (m *Metrics) RecordChat(status string, duration time.Duration, inputTokens, outputTokens int) {
	m.chatRequests.WithLabelValues(status).Inc()
	m.chatDuration.WithLabelValues(status).Observe(duration.Seconds())
	m.tokensTotal.WithLabelValues("input").Add(float64(inputTokens))
	m.tokensTotal.WithLabelValues("output").Add(float64(outputTokens))
}

// RecordRateLimited records a rejection by the named policy.
func (m *Metrics) RecordRateLimited(policy string) {
	m.rateLimited.WithLabelValues(policy).Inc()
}

// RecordCacheDecision records a prompt-cache decision.
func (m *Metrics) RecordCacheDecision(enabled bool) {
	label := "false"
	if enabled {
		label = "true"
	}
	m.cacheDecision.WithLabelValues(label).Inc()
}

// Handler returns an HTTP handler serving the metrics registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
