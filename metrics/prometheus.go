// Package metrics provides Prometheus instrumentation for rate limiters.
//
// Wrap any redilimit.Checker to automatically record check counts,
// latency, and backend errors:
//
//	collector := metrics.NewCollector()
//	limiter, _ := rl.Limiter(redilimit.Options{MaxRequests: 100, WindowSeconds: 60})
//	checker := metrics.Wrap(limiter, string(rl.Strategy()), collector)
//
// All metrics are partitioned by strategy. Check counts carry an
// additional "decision" label (allowed / denied). Backend errors count
// separately so operators can alert on store outages apart from normal
// throttling.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/redilimit/redilimit"
)

// Collector holds Prometheus metric vectors for rate limiter instrumentation.
type Collector struct {
	checks   *prometheus.CounterVec
	duration *prometheus.HistogramVec
	errors   *prometheus.CounterVec
}

type collectorConfig struct {
	namespace string
	subsystem string
	registry  prometheus.Registerer
	buckets   []float64
}

// CollectorOption configures a Collector.
type CollectorOption func(*collectorConfig)

// WithNamespace sets the Prometheus metric namespace (prefix).
func WithNamespace(ns string) CollectorOption {
	return func(c *collectorConfig) { c.namespace = ns }
}

// WithSubsystem sets the Prometheus metric subsystem.
func WithSubsystem(sub string) CollectorOption {
	return func(c *collectorConfig) { c.subsystem = sub }
}

// WithRegistry registers metrics with the given Registerer instead of
// prometheus.DefaultRegisterer.
func WithRegistry(r prometheus.Registerer) CollectorOption {
	return func(c *collectorConfig) { c.registry = r }
}

// WithBuckets sets custom histogram buckets for check duration.
func WithBuckets(b []float64) CollectorOption {
	return func(c *collectorConfig) { c.buckets = b }
}

var defaultBuckets = []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1}

// NewCollector creates a Collector and registers its metrics.
//
// Metrics registered:
//   - {namespace}_checks_total             counter   (strategy, decision)
//   - {namespace}_check_duration_seconds   histogram (strategy)
//   - {namespace}_backend_errors_total     counter   (strategy)
//
// Default namespace is "redilimit".
func NewCollector(opts ...CollectorOption) *Collector {
	cfg := &collectorConfig{
		namespace: "redilimit",
		registry:  prometheus.DefaultRegisterer,
		buckets:   defaultBuckets,
	}
	for _, o := range opts {
		o(cfg)
	}

	checks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.namespace,
		Subsystem: cfg.subsystem,
		Name:      "checks_total",
		Help:      "Total rate limit checks partitioned by strategy and decision.",
	}, []string{"strategy", "decision"})

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: cfg.namespace,
		Subsystem: cfg.subsystem,
		Name:      "check_duration_seconds",
		Help:      "Latency of rate limit Check calls in seconds.",
		Buckets:   cfg.buckets,
	}, []string{"strategy"})

	errors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.namespace,
		Subsystem: cfg.subsystem,
		Name:      "backend_errors_total",
		Help:      "Total rate limit checks that failed on the backend store.",
	}, []string{"strategy"})

	cfg.registry.MustRegister(checks, duration, errors)

	return &Collector{
		checks:   checks,
		duration: duration,
		errors:   errors,
	}
}

// Wrap decorates a Checker with instrumentation under the given strategy
// label. The returned Checker is safe for concurrent use if the wrapped
// one is.
func Wrap(inner redilimit.Checker, strategy string, collector *Collector) redilimit.Checker {
	return &instrumented{inner: inner, strategy: strategy, collector: collector}
}

type instrumented struct {
	inner     redilimit.Checker
	strategy  string
	collector *Collector
}

func (i *instrumented) Check(ctx context.Context, req *redilimit.Request) (*redilimit.Result, error) {
	start := time.Now()
	result, err := i.inner.Check(ctx, req)
	i.collector.duration.WithLabelValues(i.strategy).Observe(time.Since(start).Seconds())

	if err != nil {
		i.collector.errors.WithLabelValues(i.strategy).Inc()
		return result, err
	}

	decision := "allowed"
	if !result.Allowed {
		decision = "denied"
	}
	i.collector.checks.WithLabelValues(i.strategy, decision).Inc()
	return result, nil
}
