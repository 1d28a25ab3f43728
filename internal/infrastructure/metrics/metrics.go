// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"careindex/internal/domain/filter"
	"careindex/internal/domain/search"
)

const namespace = "careindex"

// Metrics holds every collector. Create one per registry.
type Metrics struct {
	// RequestTotal counts HTTP requests by method, route and status.
	RequestTotal *prometheus.CounterVec
	// RequestDuration is the latency of HTTP requests.
	RequestDuration *prometheus.HistogramVec
	// FilterOutcomes counts filter requests by result: success or an error code.
	FilterOutcomes *prometheus.CounterVec
	// FilterConditions observes how many conditions each compiled filter has.
	FilterConditions prometheus.Histogram
	// QueryDuration is executor latency by operation (count, find, periods).
	QueryDuration *prometheus.HistogramVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RequestTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		FilterOutcomes: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "filter_requests_total",
				Help:      "Filter requests by outcome",
			},
			[]string{"outcome"},
		),
		FilterConditions: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "filter_conditions",
			Help:      "Number of conditions per executed filter",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 34, 50},
		}),
		QueryDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "query_duration_seconds",
				Help:      "Executor latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation", "status"},
		),
	}
}

// ObserveFilter records one filter request outcome.
func (m *Metrics) ObserveFilter(outcome string, conditions int) {
	m.FilterOutcomes.WithLabelValues(outcome).Inc()
	if conditions > 0 {
		m.FilterConditions.Observe(float64(conditions))
	}
}

// InstrumentRepository wraps repo so every call is timed.
func (m *Metrics) InstrumentRepository(repo search.Repository) search.Repository {
	return &instrumentedRepo{next: repo, m: m}
}

type instrumentedRepo struct {
	next search.Repository
	m    *Metrics
}

func (r *instrumentedRepo) Count(ctx context.Context, spec filter.QuerySpec) (int64, error) {
	start := time.Now()
	n, err := r.next.Count(ctx, spec)
	r.m.QueryDuration.WithLabelValues("count", status(err)).Observe(time.Since(start).Seconds())
	return n, err
}

func (r *instrumentedRepo) Find(ctx context.Context, spec filter.QuerySpec) ([]filter.Record, error) {
	start := time.Now()
	rows, err := r.next.Find(ctx, spec)
	r.m.QueryDuration.WithLabelValues("find", status(err)).Observe(time.Since(start).Seconds())
	return rows, err
}

// Periods forwards to the wrapped repository when it can list periods.
func (r *instrumentedRepo) Periods(ctx context.Context) ([]search.Period, error) {
	lister, ok := r.next.(search.PeriodLister)
	if !ok {
		return nil, errors.New("store cannot list data periods")
	}
	start := time.Now()
	periods, err := lister.Periods(ctx)
	r.m.QueryDuration.WithLabelValues("periods", status(err)).Observe(time.Since(start).Seconds())
	return periods, err
}

// Ping forwards to the wrapped repository when it supports health checks.
func (r *instrumentedRepo) Ping(ctx context.Context) error {
	if p, ok := r.next.(search.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
