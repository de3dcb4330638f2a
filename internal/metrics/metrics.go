// Package metrics exposes wallet ledger metrics to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "walletd"

// Collector implements wallet.MetricsCollector on a dedicated registry.
type Collector struct {
	registry *prometheus.Registry

	operations *prometheus.CounterVec
	errors     *prometheus.CounterVec
	hydrations *prometheus.CounterVec
	persist    prometheus.Histogram
	balance    prometheus.Gauge
	moved      *prometheus.CounterVec
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "operations_total",
				Help:      "Ledger operations by result.",
			},
			[]string{"operation", "result"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "errors_total",
				Help:      "Ledger errors by operation and type.",
			},
			[]string{"operation", "type"},
		),
		hydrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "hydrations_total",
				Help:      "Ledger hydrations by outcome.",
			},
			[]string{"outcome"},
		),
		persist: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "write_duration_seconds",
				Help:      "Duration of balance write attempts.",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
			},
		),
		balance: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "last_balance",
				Help:      "Most recent balance produced by any ledger.",
			},
		),
		moved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "amount_total",
				Help:      "Total amount credited or debited.",
			},
			[]string{"direction"},
		),
	}

	c.registry.MustRegister(
		c.operations,
		c.errors,
		c.hydrations,
		c.persist,
		c.balance,
		c.moved,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

func (c *Collector) RecordOperationResult(operation, result string) {
	c.operations.WithLabelValues(operation, result).Inc()
}

func (c *Collector) RecordBalanceChange(oldBalance, newBalance int64) {
	c.balance.Set(float64(newBalance))
	switch delta := newBalance - oldBalance; {
	case delta > 0:
		c.moved.WithLabelValues("credit").Add(float64(delta))
	case delta < 0:
		c.moved.WithLabelValues("debit").Add(float64(-delta))
	}
}

func (c *Collector) RecordPersistDuration(duration time.Duration) {
	c.persist.Observe(duration.Seconds())
}

func (c *Collector) RecordHydration(outcome string) {
	c.hydrations.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordError(operation, errType string) {
	c.errors.WithLabelValues(operation, errType).Inc()
}

// Registry returns the registry the collector's metrics live in.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
