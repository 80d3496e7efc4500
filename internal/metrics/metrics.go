package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the service's collectors on a private prometheus registry.
type Registry struct {
	reg             *prometheus.Registry
	OrderOperations *prometheus.CounterVec
	OrderLatencySec *prometheus.HistogramVec
	HTTPRequests    *prometheus.CounterVec
	HTTPLatencySec  *prometheus.HistogramVec
}

// NewRegistry creates the service collectors and registers them, together
// with the Go runtime and process collectors, on a fresh registry.
func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	ops := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_operations_total",
		Help: "Coordinator operations by operation and outcome.",
	}, []string{"operation", "outcome"})
	opLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "orders_operation_duration_seconds",
		Help:    "Coordinator operation latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by route pattern and status code.",
	}, []string{"route", "code"})
	httpLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	r.MustRegister(
		ops, opLatency, httpRequests, httpLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Registry{
		reg:             r,
		OrderOperations: ops,
		OrderLatencySec: opLatency,
		HTTPRequests:    httpRequests,
		HTTPLatencySec:  httpLatency,
	}
}

// ObserveOperation records one coordinator operation.
func (r *Registry) ObserveOperation(op, outcome string, elapsed time.Duration) {
	r.OrderOperations.WithLabelValues(op, outcome).Inc()
	r.OrderLatencySec.WithLabelValues(op).Observe(elapsed.Seconds())
}

// ObserveRequest records one served HTTP request.
func (r *Registry) ObserveRequest(route string, code int, elapsed time.Duration) {
	r.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	r.HTTPLatencySec.WithLabelValues(route).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{
		Registry: r.reg,
	})
}
