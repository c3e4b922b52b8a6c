// Package metrics holds the Prometheus collectors used by the dispatch engine
// and the outbox relay.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RelayMetrics tracks events relayed from the outbox onto the event bus.
// Every collector carries a constant storage label naming the outbox backend,
// so a memory outbox in tests and a Mongo outbox in production never share
// a series.
type RelayMetrics struct {
	Relayed    *prometheus.CounterVec
	Parked     *prometheus.CounterVec
	RelayLag   *prometheus.HistogramVec
	Backlog    prometheus.Gauge
	BacklogAge prometheus.Gauge
	CleanedUp  prometheus.Counter
}

// NewRelayMetrics creates and registers relay metrics for the outbox backend
// named storage.
func NewRelayMetrics(registerer prometheus.Registerer, storage string) *RelayMetrics {
	labels := prometheus.Labels{"storage": storage}

	metrics := &RelayMetrics{
		Relayed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "corebus_outbox_relayed_total",
				Help:        "Relay attempts of committed events, by outcome",
				ConstLabels: labels,
			},
			[]string{"event_type", "status"},
		),
		Parked: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "corebus_outbox_parked_total",
				Help:        "Committed events that used up their relay retries",
				ConstLabels: labels,
			},
			[]string{"event_type"},
		),
		RelayLag: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "corebus_outbox_relay_lag_seconds",
				Help:        "Time from commit to delivery on the event bus",
				Buckets:     []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
				ConstLabels: labels,
			},
			[]string{"event_type"},
		),
		Backlog: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "corebus_outbox_backlog_events",
			Help:        "Committed events not yet relayed",
			ConstLabels: labels,
		}),
		BacklogAge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "corebus_outbox_backlog_age_seconds",
			Help:        "Age of the oldest committed event not yet relayed",
			ConstLabels: labels,
		}),
		CleanedUp: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "corebus_outbox_cleaned_up_total",
			Help:        "Relayed events removed from the outbox",
			ConstLabels: labels,
		}),
	}

	registerer.MustRegister(
		metrics.Relayed,
		metrics.Parked,
		metrics.RelayLag,
		metrics.Backlog,
		metrics.BacklogAge,
		metrics.CleanedUp,
	)

	return metrics
}

// ObserveRelay records one relay attempt of an event committed at committedAt.
// Lag is observed only for successful relays.
func (m *RelayMetrics) ObserveRelay(eventType string, committedAt time.Time, err error) {
	if err != nil {
		m.Relayed.WithLabelValues(eventType, StatusFailure).Inc()
		return
	}
	m.Relayed.WithLabelValues(eventType, StatusSuccess).Inc()
	m.RelayLag.WithLabelValues(eventType).Observe(time.Since(committedAt).Seconds())
}

// ObserveBacklog sets the backlog gauges from an outbox Stats reading.
func (m *RelayMetrics) ObserveBacklog(pending int64, oldest, now time.Time) {
	m.Backlog.Set(float64(pending))
	if pending == 0 || oldest.IsZero() {
		m.BacklogAge.Set(0)
		return
	}
	m.BacklogAge.Set(now.Sub(oldest).Seconds())
}
