package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the Telegram backend.
type Metrics struct {
	// Session metrics
	ActiveSessions prometheus.Gauge
	AuthSuccesses  prometheus.Counter
	AuthErrors     *prometheus.CounterVec

	// Messaging metrics
	MessagesSent        prometheus.Counter
	MessageSendErrors   prometheus.Counter
	MessageSendDuration prometheus.Histogram

	// Event relay metrics
	EventsDelivered prometheus.Counter
	EventsDropped   prometheus.Counter
	Subscribers     prometheus.Gauge
}

var (
	// DefaultMetrics is the default metrics instance
	DefaultMetrics *Metrics
	once           sync.Once
)

// GetDefaultMetrics returns the singleton metrics instance
func GetDefaultMetrics() *Metrics {
	once.Do(func() {
		DefaultMetrics = NewMetrics()
	})
	return DefaultMetrics
}

func init() {
	GetDefaultMetrics()
}

// NewMetrics creates a new Metrics instance with all counters and gauges
func NewMetrics() *Metrics {
	return &Metrics{
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "telegram_backend_active_sessions",
			Help: "Current number of managed account sessions",
		}),
		AuthSuccesses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "telegram_backend_auth_successes_total",
			Help: "Total number of successful account authentications",
		}),
		AuthErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telegram_backend_auth_errors_total",
				Help: "Total number of authentication errors",
			},
			[]string{"error_type"},
		),

		MessagesSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "telegram_backend_messages_sent_total",
			Help: "Total number of messages sent",
		}),
		MessageSendErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "telegram_backend_message_send_errors_total",
			Help: "Total number of message send errors",
		}),
		MessageSendDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "telegram_backend_message_send_duration_seconds",
			Help:    "Duration of message send operations in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),

		EventsDelivered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "telegram_backend_events_delivered_total",
			Help: "Total number of inbound events delivered to subscribers",
		}),
		EventsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "telegram_backend_events_dropped_total",
			Help: "Total number of inbound events dropped for lack of subscribers",
		}),
		Subscribers: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "telegram_backend_event_subscribers",
			Help: "Current number of attached event subscribers",
		}),
	}
}

// UpdateSessions updates the active sessions gauge
func (m *Metrics) UpdateSessions(count int) {
	m.ActiveSessions.Set(float64(count))
}

// RecordAuthSuccess records a successful authentication
func (m *Metrics) RecordAuthSuccess() {
	m.AuthSuccesses.Inc()
}

// RecordAuthError records an authentication error with error type
func (m *Metrics) RecordAuthError(errorType string) {
	if errorType == "" {
		errorType = "unknown"
	}
	m.AuthErrors.WithLabelValues(errorType).Inc()
}

// RecordMessageSent records a successfully sent message with duration
func (m *Metrics) RecordMessageSent(duration float64) {
	m.MessagesSent.Inc()
	m.MessageSendDuration.Observe(duration)
}

// RecordSendError records a message send error
func (m *Metrics) RecordSendError() {
	m.MessageSendErrors.Inc()
}

// RecordEventDelivered records inbound events delivered to subscribers
func (m *Metrics) RecordEventDelivered(count int) {
	if count > 0 {
		m.EventsDelivered.Add(float64(count))
	}
}

// RecordEventDropped records an inbound event dropped with no subscribers
func (m *Metrics) RecordEventDropped() {
	m.EventsDropped.Inc()
}

// UpdateSubscribers updates the attached subscribers gauge
func (m *Metrics) UpdateSubscribers(delta int) {
	m.Subscribers.Add(float64(delta))
}
