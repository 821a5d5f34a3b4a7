package obs

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects the counters the booking core cares about: request
// outcomes, booking attempts and detected conflicts.
type Metrics struct {
	requests        *prometheus.CounterVec
	requestLatency  prometheus.Histogram
	bookingCreated  prometheus.Counter
	bookingConflict prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "staybook_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "staybook_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		bookingCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "staybook_bookings_created_total",
			Help: "Successfully created bookings.",
		}),
		bookingConflict: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "staybook_booking_conflicts_total",
			Help: "Booking attempts rejected because of a date conflict.",
		}),
	}
	reg.MustRegister(m.requests, m.requestLatency, m.bookingCreated, m.bookingConflict)
	return m
}

func (m *Metrics) ObserveRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestLatency.Observe(duration.Seconds())
}

func (m *Metrics) BookingCreated()  { m.bookingCreated.Inc() }
func (m *Metrics) BookingConflict() { m.bookingConflict.Inc() }

// Handler exposes the registry on /metrics.
func Handler(reg *prometheus.Registry) gin.HandlerFunc {
	h := promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
