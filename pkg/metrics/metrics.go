package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the bot
type Metrics struct {
	EventCounter    *prometheus.CounterVec
	EventDuration   *prometheus.HistogramVec
	EventsInFlight  *prometheus.GaugeVec
	DBOperations    *prometheus.CounterVec
	SocketConnected prometheus.Gauge
}

// NewMetrics creates a new metrics instance on the default registry
func NewMetrics(serviceName string) *Metrics {
	return NewMetricsWithRegistry(serviceName, prometheus.DefaultRegisterer)
}

// NewMetricsWithRegistry creates a new metrics instance on the given registry
func NewMetricsWithRegistry(serviceName string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EventCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: serviceName,
				Name:      "events_total",
				Help:      "Total number of Slack events processed",
			},
			[]string{"handler", "status"},
		),
		EventDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: serviceName,
				Name:      "event_duration_seconds",
				Help:      "Event handling duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"handler"},
		),
		EventsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: serviceName,
				Name:      "events_in_flight",
				Help:      "Number of events currently being handled",
			},
			[]string{"handler"},
		),
		DBOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: serviceName,
				Name:      "db_operations_total",
				Help:      "Total number of database operations",
			},
			[]string{"operation", "status"},
		),
		SocketConnected: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: serviceName,
				Name:      "socket_connected",
				Help:      "Whether the Socket Mode connection is established (1) or not (0)",
			},
		),
	}
}

// ObserveEvent records the outcome and duration of one handled event
func (m *Metrics) ObserveEvent(handler string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.EventCounter.WithLabelValues(handler, status).Inc()
	m.EventDuration.WithLabelValues(handler).Observe(time.Since(start).Seconds())
}

// RecordDBOperation records the outcome of one database operation
func (m *Metrics) RecordDBOperation(operation string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.DBOperations.WithLabelValues(operation, status).Inc()
}

// SetSocketConnected updates the Socket Mode connection gauge
func (m *Metrics) SetSocketConnected(connected bool) {
	if connected {
		m.SocketConnected.Set(1)
	} else {
		m.SocketConnected.Set(0)
	}
}
