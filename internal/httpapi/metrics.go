package httpapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	status   *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "buildcheck_requests_total",
			Help: "Snapshot requests by endpoint and outcome",
		}, []string{"endpoint", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "buildcheck_request_duration_seconds",
			Help:    "Snapshot request latency",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"endpoint"}),
		status: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "buildcheck_snapshot_overall_status_total",
			Help: "Purchased snapshots by overall status",
		}, []string{"status"}),
	}
}
