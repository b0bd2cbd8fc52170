// Package monitoring exposes upsert metrics through Prometheus.
package monitoring

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cantart/staging-upsert/upsert"
)

// PrometheusReporter implements upsert.MetricsReporter on a private
// registry, so embedding applications keep their default registry clean.
type PrometheusReporter struct {
	upsertDuration *prometheus.HistogramVec
	upsertTotal    *prometheus.CounterVec
	batchSize      *prometheus.HistogramVec
	recordsTotal   *prometheus.CounterVec

	registry *prometheus.Registry
}

var _ upsert.MetricsReporter = (*PrometheusReporter)(nil)

func NewPrometheusReporter() *PrometheusReporter {
	registry := prometheus.NewRegistry()

	r := &PrometheusReporter{
		upsertDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stagingupsert_upsert_duration_seconds",
				Help:    "Duration of upsert calls in seconds",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~32s
			},
			[]string{"strategy", "table", "status"},
		),
		upsertTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stagingupsert_upsert_total",
				Help: "Total number of upsert calls",
			},
			[]string{"strategy", "table", "status"},
		),
		batchSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stagingupsert_batch_size",
				Help:    "Size of submitted batches",
				Buckets: prometheus.ExponentialBuckets(1, 2, 15), // 1 to ~16k
			},
			[]string{"strategy", "table"},
		),
		recordsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stagingupsert_records_total",
				Help: "Total number of records submitted for upsert",
			},
			[]string{"strategy", "table"},
		),
		registry: registry,
	}

	registry.MustRegister(r.upsertDuration, r.upsertTotal, r.batchSize, r.recordsTotal)
	return r
}

func (r *PrometheusReporter) ReportUpsert(_ context.Context, m upsert.Metrics) {
	status := "success"
	if m.Err != nil {
		status = "error"
	}
	r.upsertDuration.WithLabelValues(m.Strategy, m.Table, status).Observe(m.Duration.Seconds())
	r.upsertTotal.WithLabelValues(m.Strategy, m.Table, status).Inc()
	r.batchSize.WithLabelValues(m.Strategy, m.Table).Observe(float64(m.BatchSize))
	r.recordsTotal.WithLabelValues(m.Strategy, m.Table).Add(float64(m.BatchSize))
}

// Handler serves the reporter's registry for scraping.
func (r *PrometheusReporter) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
