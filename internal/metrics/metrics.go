// Package metrics exports image-service telemetry to Prometheus.
package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "picshelf"

// Operation names used as label values.
const (
	OpUpload   = "upload"
	OpDownload = "download"
	OpList     = "list"
)

// Observer captures telemetry for image operations.
type Observer interface {
	RecordOperation(op string, duration time.Duration, err error)
	RecordGroups(n int)
}

// Prometheus implements Observer on a Prometheus registry.
type Prometheus struct {
	reg *prometheus.Registry

	duration *prometheus.HistogramVec
	errors   *prometheus.CounterVec
	groups   prometheus.Counter
}

// New creates a registry with the Go and process collectors plus the
// image operation metrics.
func New() (*Prometheus, error) {
	reg := prometheus.NewRegistry()
	p := &Prometheus{
		reg: reg,
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Latency of image operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_errors_total",
			Help:      "Count of failed image operations.",
		}, []string{"operation"}),
		groups: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_groups_allocated_total",
			Help:      "Image groups recorded by upload requests.",
		}),
	}

	for _, c := range []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		p.duration,
		p.errors,
		p.groups,
	} {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return nil, fmt.Errorf("register metric: %w", err)
		}
	}
	return p, nil
}

// RecordOperation tracks an operation's latency and failure.
func (p *Prometheus) RecordOperation(op string, duration time.Duration, err error) {
	if p == nil {
		return
	}
	p.duration.WithLabelValues(op).Observe(duration.Seconds())
	if err != nil {
		p.errors.WithLabelValues(op).Inc()
	}
}

// RecordGroups adds n to the allocated group counter.
func (p *Prometheus) RecordGroups(n int) {
	if p == nil || n <= 0 {
		return
	}
	p.groups.Add(float64(n))
}

// Registry exposes the underlying registry.
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.reg
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{})
}

// Nop discards all telemetry.
type Nop struct{}

func (Nop) RecordOperation(string, time.Duration, error) {}

func (Nop) RecordGroups(int) {}
