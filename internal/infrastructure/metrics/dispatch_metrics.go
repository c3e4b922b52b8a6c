package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Dispatch outcome label values.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// DispatchMetrics contains Prometheus metrics for command, query and event dispatch.
type DispatchMetrics struct {
	DispatchTotal      *prometheus.CounterVec
	DispatchDuration   *prometheus.HistogramVec
	EventsPublished    *prometheus.CounterVec
	SubscriberFailures *prometheus.CounterVec
}

// NewDispatchMetrics creates and registers dispatch metrics with the given registerer.
func NewDispatchMetrics(registerer prometheus.Registerer) *DispatchMetrics {
	metrics := &DispatchMetrics{
		DispatchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corebus_dispatch_total",
				Help: "Total number of dispatched commands and queries",
			},
			[]string{"kind", "message", "status"}, // kind: command/query
		),
		DispatchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "corebus_dispatch_duration_seconds",
				Help:    "Time spent in a command or query handler",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"kind", "message"},
		),
		EventsPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corebus_events_published_total",
				Help: "Total number of events published on the in-process event bus",
			},
			[]string{"event_type"},
		),
		SubscriberFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corebus_event_subscriber_failures_total",
				Help: "Total number of event subscribers that returned an error or panicked",
			},
			[]string{"event_type", "reason"}, // reason: error/panic
		),
	}

	registerer.MustRegister(
		metrics.DispatchTotal,
		metrics.DispatchDuration,
		metrics.EventsPublished,
		metrics.SubscriberFailures,
	)

	return metrics
}
