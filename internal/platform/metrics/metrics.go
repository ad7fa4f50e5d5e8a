// Package metrics exposes ledger counters in the Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Ledger implements the vote ledger metrics port on a private registry so
// several instances can coexist in one process.
type Ledger struct {
	registry *prometheus.Registry

	sessionsCreated   *prometheus.CounterVec
	ballotsAccepted   *prometheus.CounterVec
	ballotsRejected   *prometheus.CounterVec
	sessionsFinalized prometheus.Counter
}

func NewLedger(namespace string) *Ledger {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Ledger{
		registry: registry,
		sessionsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_created_total",
			Help:      "Total number of voting sessions created",
		}, []string{"mode"}),
		ballotsAccepted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ballots_accepted_total",
			Help:      "Total number of accepted ballots",
		}, []string{"mode"}),
		ballotsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ballots_rejected_total",
			Help:      "Total number of rejected ballots",
		}, []string{"reason"}),
		sessionsFinalized: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_finalized_total",
			Help:      "Total number of sessions closed by the session closer",
		}),
	}
}

func (l *Ledger) SessionCreated(mode string) {
	l.sessionsCreated.WithLabelValues(mode).Inc()
}

func (l *Ledger) BallotAccepted(mode string) {
	l.ballotsAccepted.WithLabelValues(mode).Inc()
}

func (l *Ledger) BallotRejected(reason string) {
	l.ballotsRejected.WithLabelValues(reason).Inc()
}

func (l *Ledger) SessionFinalized() {
	l.sessionsFinalized.Inc()
}

// Handler serves the registry for scraping.
func (l *Ledger) Handler() http.Handler {
	return promhttp.HandlerFor(l.registry, promhttp.HandlerOpts{Registry: l.registry})
}
