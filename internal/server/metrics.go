package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics counts trigger request outcomes.
type Metrics struct {
	registry *prometheus.Registry
	outcomes *prometheus.CounterVec
}

// NewMetrics creates a self-contained metrics registry for the server.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "boilerwatch",
		Subsystem: "trigger",
		Name:      "requests_total",
		Help:      "Trigger requests by outcome.",
	}, []string{"outcome"})
	registry.MustRegister(outcomes)

	return &Metrics{registry: registry, outcomes: outcomes}
}

// ObserveOutcome counts one request with the given outcome label.
func (m *Metrics) ObserveOutcome(outcome string) {
	m.outcomes.WithLabelValues(outcome).Inc()
}

// Handler serves the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
