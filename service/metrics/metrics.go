package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the application.
// Following the explicit dependency injection pattern, this struct
// is passed to all components that need to record metrics.
type Metrics struct {
	// Solana RPC Metrics
	solanaRPCCallsTotal   *prometheus.CounterVec
	solanaRPCCallDuration *prometheus.HistogramVec

	// Market Data Metrics
	marketRequestsTotal   *prometheus.CounterVec
	marketRequestDuration *prometheus.HistogramVec
	marketLookupsTotal    *prometheus.CounterVec

	// Text Generation Metrics
	generationCallsTotal   *prometheus.CounterVec
	generationCallDuration *prometheus.HistogramVec

	// Analysis Metrics
	analysesTotal    *prometheus.CounterVec
	analysisDuration *prometheus.HistogramVec

	// HTTP Metrics
	httpRequestDuration *prometheus.HistogramVec
	httpRequestsTotal   *prometheus.CounterVec

	// NATS Metrics
	natsEventsPublished *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance and registers all collectors.
// If registry is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		// Solana RPC Metrics
		solanaRPCCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "solana_rpc_calls_total",
				Help: "Total number of Solana RPC calls by method and status",
			},
			[]string{"method", "status", "endpoint"},
		),
		solanaRPCCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "solana_rpc_call_duration_seconds",
				Help:    "Duration of Solana RPC calls in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"method", "endpoint"},
		),

		// Market Data Metrics
		marketRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "market_requests_total",
				Help: "Total number of market-data HTTP requests by endpoint and status",
			},
			[]string{"endpoint", "status"},
		),
		marketRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "market_request_duration_seconds",
				Help:    "Duration of market-data HTTP requests in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
			},
			[]string{"endpoint"},
		),
		marketLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "market_metadata_lookups_total",
				Help: "Total number of token metadata lookups by resolution outcome",
			},
			[]string{"outcome"},
		),

		// Text Generation Metrics
		generationCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "generation_calls_total",
				Help: "Total number of text-generation calls by provider and status",
			},
			[]string{"provider", "status"},
		),
		generationCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "generation_call_duration_seconds",
				Help:    "Duration of text-generation calls in seconds",
				Buckets: []float64{0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0},
			},
			[]string{"provider"},
		),

		// Analysis Metrics
		analysesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analyses_total",
				Help: "Total number of transaction analyses by classification and status",
			},
			[]string{"classification", "status"},
		),
		analysisDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "analysis_duration_seconds",
				Help:    "End-to-end duration of one transaction analysis in seconds",
				Buckets: []float64{0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0},
			},
			[]string{"classification"},
		),

		// HTTP Metrics
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 30.0},
			},
			[]string{"handler", "method"},
		),
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by handler, method and status code",
			},
			[]string{"handler", "method", "status"},
		),

		// NATS Metrics
		natsEventsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nats_events_published_total",
				Help: "Total number of analysis events published to NATS by status",
			},
			[]string{"status"},
		),
	}
}

// RecordRPCCall records a Solana RPC call with its duration.
func (m *Metrics) RecordRPCCall(method, status, endpoint string, duration float64) {
	if m == nil {
		return
	}
	m.solanaRPCCallsTotal.WithLabelValues(method, status, endpoint).Inc()
	m.solanaRPCCallDuration.WithLabelValues(method, endpoint).Observe(duration)
}

// RecordMarketRequest records a market-data HTTP request with its duration.
func (m *Metrics) RecordMarketRequest(endpoint, status string, duration float64) {
	if m == nil {
		return
	}
	m.marketRequestsTotal.WithLabelValues(endpoint, status).Inc()
	m.marketRequestDuration.WithLabelValues(endpoint).Observe(duration)
}

// RecordMarketLookup records how a token metadata lookup was resolved
// (cache_hit, listing, search, synthetic).
func (m *Metrics) RecordMarketLookup(outcome string) {
	if m == nil {
		return
	}
	m.marketLookupsTotal.WithLabelValues(outcome).Inc()
}

// RecordGeneration records a text-generation call with its duration.
func (m *Metrics) RecordGeneration(provider, status string, duration float64) {
	if m == nil {
		return
	}
	m.generationCallsTotal.WithLabelValues(provider, status).Inc()
	m.generationCallDuration.WithLabelValues(provider).Observe(duration)
}

// RecordAnalysis records one completed transaction analysis.
func (m *Metrics) RecordAnalysis(classification, status string, duration float64) {
	if m == nil {
		return
	}
	m.analysesTotal.WithLabelValues(classification, status).Inc()
	m.analysisDuration.WithLabelValues(classification).Observe(duration)
}

// RecordHTTPRequest records an HTTP request with its duration.
func (m *Metrics) RecordHTTPRequest(handler, method string, statusCode int, duration float64) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(handler, method, httpStatusLabel(statusCode)).Inc()
	m.httpRequestDuration.WithLabelValues(handler, method).Observe(duration)
}

// RecordEventPublished records a NATS publish attempt.
func (m *Metrics) RecordEventPublished(status string) {
	if m == nil {
		return
	}
	m.natsEventsPublished.WithLabelValues(status).Inc()
}

// httpStatusLabel buckets status codes into class labels (2xx, 4xx, ...)
// to keep metric cardinality low.
func httpStatusLabel(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "2xx"
	case statusCode >= 300 && statusCode < 400:
		return "3xx"
	case statusCode >= 400 && statusCode < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
