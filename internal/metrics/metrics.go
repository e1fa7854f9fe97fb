// Package metrics exposes Prometheus instrumentation for procedure calls.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trentd187/gym-api/internal/apperr"
	"github.com/trentd187/gym-api/internal/database"
)

// Metrics holds the gateway's collectors and the registry they live in.
type Metrics struct {
	Registry *prometheus.Registry

	CallsTotal   *prometheus.CounterVec
	CallDuration *prometheus.HistogramVec
	InFlight     prometheus.Gauge
}

// New creates a registry with the call collectors plus the standard Go and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),

		CallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gym_api",
				Subsystem: "procedure",
				Name:      "calls_total",
				Help:      "Total number of stored procedure calls by outcome",
			},
			[]string{"procedure", "outcome"},
		),

		CallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "gym_api",
				Subsystem: "procedure",
				Name:      "duration_seconds",
				Help:      "Stored procedure round-trip duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"procedure"},
		),

		InFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "gym_api",
				Subsystem: "procedure",
				Name:      "in_flight",
				Help:      "Stored procedure calls currently waiting on the database",
			},
		),
	}

	m.Registry.MustRegister(
		m.CallsTotal,
		m.CallDuration,
		m.InFlight,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// Observe records one finished call. outcome is "ok" or the error's kind.
func (m *Metrics) Observe(procedure string, err error, elapsed time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = string(apperr.KindOf(err))
	}
	m.CallsTotal.WithLabelValues(procedure, outcome).Inc()
	m.CallDuration.WithLabelValues(procedure).Observe(elapsed.Seconds())
}

// Instrument wraps a Caller so every call is counted and timed.
func (m *Metrics) Instrument(next database.Caller) database.Caller {
	return &instrumentedCaller{next: next, m: m}
}

type instrumentedCaller struct {
	next database.Caller
	m    *Metrics
}

func (c *instrumentedCaller) Call(ctx context.Context, call database.Call) (database.Result, error) {
	c.m.InFlight.Inc()
	defer c.m.InFlight.Dec()

	start := time.Now()
	res, err := c.next.Call(ctx, call)
	c.m.Observe(call.Procedure, err, time.Since(start))
	return res, err
}
