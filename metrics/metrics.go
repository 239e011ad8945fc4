package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Outcome label values
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeFailSoft = "fail_soft"
)

// Metrics holds the service collectors, registered on their own registry
type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	Resolvers    *prometheus.CounterVec
}

// New creates and registers all collectors, including the Go runtime and process collectors
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "usersvc",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "usersvc",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		Resolvers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "usersvc",
			Subsystem: "graphql",
			Name:      "resolver_calls_total",
			Help:      "GraphQL resolver invocations by field and outcome.",
		}, []string{"field", "outcome"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequests,
		m.HTTPDuration,
		m.Resolvers,
	)
	return m
}

// ObserveResolver records one resolver call
func (m *Metrics) ObserveResolver(field, outcome string) {
	if m == nil {
		return
	}
	m.Resolvers.WithLabelValues(field, outcome).Inc()
}
