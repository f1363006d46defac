// Package metrics exposes authentication, authorization and session
// lifecycle counters in the Prometheus format.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aussiebroadwan/seuss/internal/seuss/store"
	"github.com/aussiebroadwan/seuss/pkg/privilege"
)

// Metrics implements authx.Observer and service.SessionObserver.
type Metrics struct {
	sessions store.Sessions
	registry *prometheus.Registry

	authnAttempts   *prometheus.CounterVec
	authzDenials    *prometheus.CounterVec
	sessionsCreated prometheus.Counter
	sessionsDeleted *prometheus.CounterVec
	sessionsLive    prometheus.Gauge
}

// New creates the collectors and registers them on a private registry.
// sessions may be nil, in which case the live session gauge stays at zero.
func New(sessions store.Sessions) *Metrics {
	m := &Metrics{
		sessions: sessions,
		registry: prometheus.NewRegistry(),
		authnAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seuss_authn_attempts_total",
				Help: "Authentication attempts by scheme and outcome",
			},
			[]string{"scheme", "outcome"},
		),
		authzDenials: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seuss_authz_denials_total",
				Help: "Requests denied for missing privileges by entity and operation",
			},
			[]string{"entity", "operation"},
		),
		sessionsCreated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "seuss_sessions_created_total",
				Help: "Sessions created",
			},
		),
		sessionsDeleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seuss_sessions_deleted_total",
				Help: "Sessions removed by reason (logout, expired, idle)",
			},
			[]string{"reason"},
		),
		sessionsLive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "seuss_sessions_live",
				Help: "Sessions currently stored, including ones not yet swept",
			},
		),
	}

	m.registry.MustRegister(m)
	return m
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.authnAttempts.Describe(ch)
	m.authzDenials.Describe(ch)
	m.sessionsCreated.Describe(ch)
	m.sessionsDeleted.Describe(ch)
	m.sessionsLive.Describe(ch)
}

// Collect implements prometheus.Collector and refreshes the live session
// gauge from the store.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	if m.sessions != nil {
		if n, err := m.sessions.CountSessions(context.Background()); err == nil {
			m.sessionsLive.Set(float64(n))
		}
	}

	m.authnAttempts.Collect(ch)
	m.authzDenials.Collect(ch)
	m.sessionsCreated.Collect(ch)
	m.sessionsDeleted.Collect(ch)
	m.sessionsLive.Collect(ch)
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) AuthnAttempt(scheme, outcome string) {
	m.authnAttempts.WithLabelValues(scheme, outcome).Inc()
}

func (m *Metrics) AuthzDenied(entity string, op privilege.Operation) {
	m.authzDenials.WithLabelValues(entity, string(op)).Inc()
}

func (m *Metrics) SessionCreated() {
	m.sessionsCreated.Inc()
}

func (m *Metrics) SessionsDeleted(reason string, n int) {
	if n <= 0 {
		return
	}
	m.sessionsDeleted.WithLabelValues(reason).Add(float64(n))
}
