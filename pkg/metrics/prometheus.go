package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all prometheus metrics
type Metrics struct {
	BookingsSubmitted   prometheus.Counter
	FlowOutcomes        *prometheus.CounterVec
	PushMessages        *prometheus.CounterVec
	BufferedMessages    prometheus.Counter
	StaleMessages       prometheus.Counter
	ReconnectAttempts   prometheus.Counter
	PollAttempts        prometheus.Counter
	ConfirmationLatency prometheus.Histogram
	ErrorsCount         *prometheus.CounterVec
}

// NewMetrics creates prometheus metrics registered on the default registry
func NewMetrics(namespace string) *Metrics {
	return newMetrics(namespace, promauto.With(prometheus.DefaultRegisterer))
}

// NewMetricsWithRegistry registers the metrics on reg instead of the default registry.
// Tests use a fresh registry per case so repeated construction does not panic.
func NewMetricsWithRegistry(namespace string, reg prometheus.Registerer) *Metrics {
	return newMetrics(namespace, promauto.With(reg))
}

func newMetrics(namespace string, factory promauto.Factory) *Metrics {
	return &Metrics{
		BookingsSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_submitted_total",
			Help:      "The total number of bookings accepted by the gateway",
		}),
		FlowOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_flow_outcomes_total",
			Help:      "Terminal outcomes of booking confirmation flows",
		}, []string{"outcome"}),
		PushMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "push_messages_total",
			Help:      "Decoded push channel messages by type",
		}, []string{"type"}),
		BufferedMessages: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "buffered_messages_total",
			Help:      "Booking updates buffered because no matching booking was active",
		}),
		StaleMessages: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_messages_total",
			Help:      "Booking updates discarded for exceeding the retention window",
		}),
		ReconnectAttempts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "push_reconnect_attempts_total",
			Help:      "Push channel reconnect attempts",
		}),
		PollAttempts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_poll_attempts_total",
			Help:      "Booking status checks issued by the poll fallback",
		}),
		ConfirmationLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "confirmation_latency_seconds",
			Help:      "Time from submission to a confirmed or rejected outcome",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 180},
		}),
		ErrorsCount: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "The total number of errors",
		}, []string{"operation"}),
	}
}
