package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bookingd"

var (
	once sync.Once

	bookingTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_transitions_total",
			Help:      "Bookings that entered a lifecycle status.",
		},
		[]string{"status"},
	)

	bookingFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_failures_total",
			Help:      "Rejected booking operations by operation and reason.",
		},
		[]string{"op", "reason"},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification attempts by kind and result.",
		},
		[]string{"kind", "result"},
	)

	notificationQueue = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "notification_queue_depth",
			Help:      "Notifications waiting in the async dispatcher.",
		},
	)

	paymentCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_calls_total",
			Help:      "Payment gateway calls by operation and result.",
		},
		[]string{"op", "result"},
	)

	paymentLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "payment_call_duration_seconds",
			Help:      "Payment gateway call latency.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"op"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			bookingTransitions,
			bookingFailures,
			notifications,
			notificationQueue,
			paymentCalls,
			paymentLatency,
		)
	})
}

func IncBookingTransition(status string) {
	bookingTransitions.WithLabelValues(status).Inc()
}

func IncBookingFailure(op, reason string) {
	bookingFailures.WithLabelValues(op, reason).Inc()
}

func IncNotification(kind, result string) {
	notifications.WithLabelValues(kind, result).Inc()
}

func SetNotificationQueueDepth(n int) {
	notificationQueue.Set(float64(n))
}

// ObservePayment records one gateway call.
func ObservePayment(op string, started time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	paymentCalls.WithLabelValues(op, result).Inc()
	paymentLatency.WithLabelValues(op).Observe(time.Since(started).Seconds())
}
