package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "peregovorka",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	bookingsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "peregovorka",
			Name:      "bookings_created_total",
			Help:      "Successfully created bookings.",
		},
	)

	bookingConflicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "peregovorka",
			Name:      "booking_conflicts_total",
			Help:      "Rejected booking attempts by conflict kind.",
		},
		[]string{"kind"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookingsCreated, bookingConflicts)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncBookingCreated counts a committed booking.
func IncBookingCreated() {
	bookingsCreated.Inc()
}

// IncConflict counts a rejected attempt; kind is "room" or "participant".
func IncConflict(kind string) {
	bookingConflicts.WithLabelValues(kind).Inc()
}
