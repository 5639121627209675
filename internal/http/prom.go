package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the service. It also serves as
// the services.Recorder for domain events.
type Metrics struct {
	registry     *prometheus.Registry
	requests     *prometheus.CounterVec
	durations    *prometheus.HistogramVec
	bedOps       *prometheus.CounterVec
	transitions  *prometheus.CounterVec
	bedsOccupied prometheus.Gauge
	bedsFree     prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hostel_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hostel_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		bedOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hostel_bed_operations_total",
			Help: "Bed assignments, transfers and vacates by result.",
		}, []string{"op", "result"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hostel_request_transitions_total",
			Help: "Room change and personal details request transitions.",
		}, []string{"kind", "action"}),
		bedsOccupied: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hostel_beds_occupied",
			Help: "Beds currently occupied.",
		}),
		bedsFree: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hostel_beds_available",
			Help: "Beds currently available.",
		}),
	}
	m.registry.MustRegister(
		m.requests, m.durations, m.bedOps, m.transitions, m.bedsOccupied, m.bedsFree,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.durations.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) BedOperation(op, result string) {
	m.bedOps.WithLabelValues(op, result).Inc()
}

func (m *Metrics) RequestTransition(kind, action string) {
	m.transitions.WithLabelValues(kind, action).Inc()
}

func (m *Metrics) Occupancy(occupied, available int) {
	m.bedsOccupied.Set(float64(occupied))
	m.bedsFree.Set(float64(available))
}
