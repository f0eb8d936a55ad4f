package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "roomstay"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		},
		[]string{"route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	bookingOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_operations_total",
			Help:      "Booking lifecycle operations by operation and result code.",
		},
		[]string{"operation", "result"},
	)

	payments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_total",
			Help:      "Payment attempts by method and result.",
		},
		[]string{"method", "result"},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification deliveries by event type and result.",
		},
		[]string{"event", "result"},
	)

	sweepCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_auto_completed_total",
			Help:      "Confirmed bookings moved to completed by the sweeper.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, bookingOperations, payments, notifications, sweepCompleted)
	})
}

// ObserveHTTP records one served request.
func ObserveHTTP(route string, status int, dur time.Duration) {
	httpRequests.WithLabelValues(route, statusClass(status)).Inc()
	httpDuration.WithLabelValues(route).Observe(dur.Seconds())
}

// IncBookingOperation counts a lifecycle operation; result is "ok" or an error code.
func IncBookingOperation(operation, result string) {
	bookingOperations.WithLabelValues(operation, result).Inc()
}

func IncPayment(method, result string) {
	payments.WithLabelValues(method, result).Inc()
}

func IncNotification(event, result string) {
	notifications.WithLabelValues(event, result).Inc()
}

func AddAutoCompleted(n int) {
	sweepCompleted.Add(float64(n))
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
