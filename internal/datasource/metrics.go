// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package datasource

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Degradation reasons.
const (
	reasonError        = "error"
	reasonThreadSafety = "thread_safety"
)

// Metrics records data source operation latency and degraded results.
type Metrics struct {
	Duration *prometheus.HistogramVec
	Degraded *prometheus.CounterVec
}

// NewMetrics creates and registers data source metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "authstore_datasource_operation_duration_seconds",
				Help:    "Latency of data source operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		Degraded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authstore_datasource_degraded_total",
				Help: "Total number of data source operations that returned a default instead of a result",
			},
			[]string{"operation", "reason"},
		),
	}

	reg.MustRegister(m.Duration)
	reg.MustRegister(m.Degraded)

	return m
}

func (m *Metrics) observe(op string, start time.Time) {
	if m == nil {
		return
	}
	m.Duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *Metrics) degraded(op, reason string) {
	if m == nil {
		return
	}
	m.Degraded.WithLabelValues(op, reason).Inc()
}
