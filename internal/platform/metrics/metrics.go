// Package metrics registers the Prometheus instruments shared across
// services. Each service constructs one Metrics value at startup.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	LoginsTotal     prometheus.Counter
	LoginFailures   prometheus.Counter
	CheckInsTotal   prometheus.Counter
	CheckOutsTotal  prometheus.Counter
	UploadsTotal    prometheus.Counter
	ConflictsTotal  prometheus.Counter
	RequestDuration *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics under the given
// service namespace.
func New(service string) *Metrics {
	return NewWithRegistry(service, prometheus.DefaultRegisterer)
}

// NewWithRegistry registers against an explicit registerer so tests can
// use an isolated registry.
func NewWithRegistry(service string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		LoginsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: service,
			Name:      "logins_total",
			Help:      "Total number of successful logins",
		}),
		LoginFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: service,
			Name:      "login_failures_total",
			Help:      "Total number of rejected login attempts",
		}),
		CheckInsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: service,
			Name:      "check_ins_total",
			Help:      "Total number of committed check-in events",
		}),
		CheckOutsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: service,
			Name:      "check_outs_total",
			Help:      "Total number of committed check-out events",
		}),
		UploadsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: service,
			Name:      "evidence_uploads_total",
			Help:      "Total number of evidence objects stored",
		}),
		ConflictsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: service,
			Name:      "state_conflicts_total",
			Help:      "Total number of attendance state conflicts returned",
		}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: service,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and path",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}
