package action

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks per-verb action outcomes and step latency, mirroring the
// construction style of monitoring.Metrics.
type Metrics struct {
	ActionsTotal   *prometheus.CounterVec   // verb, outcome
	ActionDuration *prometheus.HistogramVec // verb
	BatchItemsTotal *prometheus.CounterVec  // verb, outcome (per delete-multi item)
}

// NewMetrics registers the action package's metrics in the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		ActionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "s3gw_action_total",
				Help: "Total number of actions completed, by verb and outcome",
			},
			[]string{"verb", "outcome"},
		),
		ActionDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "s3gw_action_duration_seconds",
				Help:    "Duration of an action from start() to send_response",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"verb"},
		),
		BatchItemsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "s3gw_action_batch_items_total",
				Help: "Total number of per-item outcomes in batch verbs (e.g. delete-multi)",
			},
			[]string{"verb", "outcome"},
		),
	}
}
