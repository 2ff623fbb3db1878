// Package metrics exposes Prometheus instruments for the intake engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "medleave"

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	registry *prometheus.Registry

	submissions    *prometheus.CounterVec
	resolutions    *prometheus.CounterVec
	folioConflicts prometheus.Counter
	folioFailures  prometheus.Counter
	folioAllocated *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "license_submissions_total",
			Help:      "License submissions by outcome.",
		}, []string{"outcome"}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "license_transitions_total",
			Help:      "Lifecycle transitions by target status and outcome.",
		}, []string{"target", "outcome"}),
		folioConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "folio_conflicts_total",
			Help:      "Folio allocation attempts that collided and were retried.",
		}),
		folioFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "folio_allocation_failures_total",
			Help:      "Folio allocations that exhausted their retries.",
		}),
		folioAllocated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "folios_allocated_total",
			Help:      "Folios handed out, by year.",
		}, []string{"year"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	reg.MustRegister(m.submissions, m.resolutions, m.folioConflicts, m.folioFailures, m.folioAllocated, m.httpDuration)
	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Submission(outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Transition(target, outcome string) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(target, outcome).Inc()
}

func (m *Metrics) FolioConflict() {
	if m == nil {
		return
	}
	m.folioConflicts.Inc()
}

func (m *Metrics) FolioFailure() {
	if m == nil {
		return
	}
	m.folioFailures.Inc()
}

func (m *Metrics) FolioAllocated(year string) {
	if m == nil {
		return
	}
	m.folioAllocated.WithLabelValues(year).Inc()
}

func (m *Metrics) ObserveHTTP(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, route, status).Observe(seconds)
}
