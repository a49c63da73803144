// Package metrics exposes bot counters in Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "scholarship_bot"

// Metrics is safe to use through a nil pointer; every method then does nothing.
type Metrics struct {
	registry *prometheus.Registry

	updates           *prometheus.CounterVec
	sessionsStarted   prometheus.Counter
	sessionsCancelled prometheus.Counter
	submitted         *prometheus.CounterVec
	storageFailures   *prometheus.CounterVec
	deliveryFailures  prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_total",
			Help:      "Telegram updates handled, by kind.",
		}, []string{"kind"}),
		sessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Application sessions started with /apply.",
		}),
		sessionsCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_cancelled_total",
			Help:      "Application sessions cancelled by the user.",
		}),
		submitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "applications_submitted_total",
			Help:      "Applications committed, by price tier.",
		}, []string{"tier"}),
		storageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_failures_total",
			Help:      "Failed application store operations.",
		}, []string{"op"}),
		deliveryFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "crm_delivery_failures_total",
			Help:      "Applications that could not be forwarded to the CRM.",
		}),
	}
	m.registry.MustRegister(
		m.updates, m.sessionsStarted, m.sessionsCancelled, m.submitted, m.storageFailures, m.deliveryFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Update(kind string) {
	if m != nil {
		m.updates.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) SessionStarted() {
	if m != nil {
		m.sessionsStarted.Inc()
	}
}

func (m *Metrics) SessionCancelled() {
	if m != nil {
		m.sessionsCancelled.Inc()
	}
}

func (m *Metrics) Submitted(tier string) {
	if m != nil {
		m.submitted.WithLabelValues(tier).Inc()
	}
}

// StorageFailure counts a failed "commit" or "lookup".
func (m *Metrics) StorageFailure(op string) {
	if m != nil {
		m.storageFailures.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) DeliveryFailure() {
	if m != nil {
		m.deliveryFailures.Inc()
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
