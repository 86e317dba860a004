// Package metrics exposes Prometheus metrics of the attendance service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the metrics interface used by the service layer.
type Recorder interface {
	RecordSubmission(outcome string)
	RecordEnrollment()
	RecordMatchLatency(duration time.Duration)
}

// Nop discards everything. Used when metrics are not wired, e.g. in the CLI.
type Nop struct{}

func (Nop) RecordSubmission(string)          {}
func (Nop) RecordEnrollment()                {}
func (Nop) RecordMatchLatency(time.Duration) {}

// Collector records metrics into Prometheus.
type Collector struct {
	submissions  *prometheus.CounterVec
	enrollments  prometheus.Counter
	matchLatency prometheus.Histogram
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "attendance_submissions_total",
			Help: "Attendance submissions by outcome",
		}, []string{"outcome"}),
		enrollments: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "attendance_enrollments_total",
			Help: "Employees enrolled",
		}),
		matchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "attendance_match_seconds",
			Help:    "Time spent matching a descriptor against the roster",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
	}

	reg.MustRegister(c.submissions, c.enrollments, c.matchLatency)
	return c
}

func (c *Collector) RecordSubmission(outcome string) {
	c.submissions.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordEnrollment() {
	c.enrollments.Inc()
}

func (c *Collector) RecordMatchLatency(duration time.Duration) {
	c.matchLatency.Observe(duration.Seconds())
}

// Handler returns the HTTP handler Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
