// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "godutch"

// Receipt processing outcomes.
const (
	OutcomeSuccess    = "success"
	OutcomeUnreadable = "unreadable"
	OutcomeError      = "error"
)

// Metrics holds the service collectors.
type Metrics struct {
	SessionsCreated   prometheus.Counter
	ReceiptsProcessed *prometheus.CounterVec
	ScanDuration      *prometheus.HistogramVec
	Toggles           prometheus.Counter
	Settlements       prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_created_total",
			Help:      "Number of splitting sessions created.",
		}),
		ReceiptsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "receipts_processed_total",
			Help:      "Receipts submitted for extraction, by outcome.",
		}, []string{"outcome"}),
		ScanDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scan_duration_seconds",
			Help:      "Time spent in the receipt scanner.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40},
		}, []string{"scanner"}),
		Toggles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assignment_toggles_total",
			Help:      "Assignment toggles applied.",
		}),
		Settlements: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlements_computed_total",
			Help:      "Settle-up computations served.",
		}),
	}
	reg.MustRegister(m.SessionsCreated, m.ReceiptsProcessed, m.ScanDuration, m.Toggles, m.Settlements)
	return m
}

// ObserveScan records one scanner call.
func (m *Metrics) ObserveScan(scanner, outcome string, elapsed time.Duration) {
	m.ScanDuration.WithLabelValues(scanner).Observe(elapsed.Seconds())
	m.ReceiptsProcessed.WithLabelValues(outcome).Inc()
}
