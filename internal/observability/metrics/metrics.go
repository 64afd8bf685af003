package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// BookingMetrics exposes counters/histograms for the booking flow backend.
type BookingMetrics struct {
	bookingsTotal     *prometheus.CounterVec
	scheduleRequests  *prometheus.CounterVec
	notificationsSent *prometheus.CounterVec
	bookingLatency    *prometheus.HistogramVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "padel",
			Subsystem: "bookings",
			Name:      "requests_total",
			Help:      "Reservation requests by format and outcome",
		}, []string{"format", "outcome"}),
		scheduleRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "padel",
			Subsystem: "schedule",
			Name:      "snapshots_total",
			Help:      "Schedule snapshots served, labelled by cache outcome",
		}, []string{"cache"}),
		notificationsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "padel",
			Subsystem: "notify",
			Name:      "deliveries_total",
			Help:      "Booking notifications by channel and status",
		}, []string{"channel", "status"}),
		bookingLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "padel",
			Subsystem: "bookings",
			Name:      "create_latency_seconds",
			Help:      "Latency of reservation creation",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.scheduleRequests, m.notificationsSent, m.bookingLatency)
	return m
}

func (m *BookingMetrics) ObserveBooking(format, outcome string, seconds float64) {
	if m == nil {
		return
	}
	if format == "" {
		format = "unknown"
	}
	m.bookingsTotal.WithLabelValues(format, outcome).Inc()
	m.bookingLatency.WithLabelValues(outcome).Observe(seconds)
}

func (m *BookingMetrics) ObserveSchedule(cache string) {
	if m == nil {
		return
	}
	m.scheduleRequests.WithLabelValues(cache).Inc()
}

func (m *BookingMetrics) ObserveNotification(channel string, err error) {
	if m == nil {
		return
	}
	status := "sent"
	if err != nil {
		status = "failed"
	}
	m.notificationsSent.WithLabelValues(channel, status).Inc()
}
