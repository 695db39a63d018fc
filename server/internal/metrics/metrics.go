// Package metrics exposes the hub's Prometheus counters and gauges on a
// private registry. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Submission results used as the "result" label.
const (
	ResultAccepted = "accepted"
	ResultInvalid  = "invalid"
	ResultRejected = "rejected"
)

// Metrics holds Prometheus collectors for the detection hub.
type Metrics struct {
	registry         *prometheus.Registry
	connectionsTotal prometheus.Counter
	activeConns      prometheus.Gauge
	eventsBroadcast  *prometheus.CounterVec
	deliveries       prometheus.Counter
	sendFailures     prometheus.Counter
	broadcastPanics  prometheus.Counter
	submissions      *prometheus.CounterVec
	requestsTotal    prometheus.Counter
	errorsTotal      prometheus.Counter
}

// New creates and registers all hub metrics.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		connectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "detecthub_connections_total",
			Help: "Total number of WebSocket clients that connected",
		}),
		activeConns: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "detecthub_connections_active",
			Help: "Number of WebSocket clients currently registered",
		}),
		eventsBroadcast: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "detecthub_events_broadcast_total",
			Help: "Detection events fanned out, by event kind",
		}, []string{"kind"}),
		deliveries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "detecthub_deliveries_total",
			Help: "Messages successfully queued to individual clients",
		}),
		sendFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "detecthub_send_failures_total",
			Help: "Per-client send failures that pruned the client",
		}),
		broadcastPanics: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "detecthub_broadcast_panics_total",
			Help: "Broadcast passes aborted by a recovered panic",
		}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "detecthub_submissions_total",
			Help: "Detection events submitted over HTTP, by result",
		}, []string{"result"}),
		requestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "detecthub_http_requests_total",
			Help: "Total number of HTTP requests received",
		}),
		errorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "detecthub_http_errors_total",
			Help: "Total number of HTTP responses with error status (4xx or 5xx)",
		}),
	}

	m.registry.MustRegister(
		m.connectionsTotal,
		m.activeConns,
		m.eventsBroadcast,
		m.deliveries,
		m.sendFailures,
		m.broadcastPanics,
		m.submissions,
		m.requestsTotal,
		m.errorsTotal,
	)
	return m
}

// IncConnections counts a newly registered client.
func (m *Metrics) IncConnections() {
	if m == nil {
		return
	}
	m.connectionsTotal.Inc()
}

// SetActiveConnections sets the live client gauge.
func (m *Metrics) SetActiveConnections(n int) {
	if m == nil {
		return
	}
	m.activeConns.Set(float64(n))
}

// ObserveBroadcast records one fan-out of an event of the given kind.
func (m *Metrics) ObserveBroadcast(kind string, delivered, failed int) {
	if m == nil {
		return
	}
	m.eventsBroadcast.WithLabelValues(kind).Inc()
	m.deliveries.Add(float64(delivered))
	m.sendFailures.Add(float64(failed))
}

// IncBroadcastPanics counts a recovered broadcast panic.
func (m *Metrics) IncBroadcastPanics() {
	if m == nil {
		return
	}
	m.broadcastPanics.Inc()
}

// IncSubmissions counts an HTTP submission with the given result label.
func (m *Metrics) IncSubmissions(result string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(result).Inc()
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	if m == nil {
		return
	}
	m.requestsTotal.Inc()
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	if m == nil {
		return
	}
	m.errorsTotal.Inc()
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values.
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}
