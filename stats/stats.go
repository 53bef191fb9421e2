// Package stats exposes node-level counters and latency histograms via
// Prometheus.
package stats

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	PutCount = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "strata_put_total",
		Help: "Total number of successful object PUTs",
	})
	GetCount = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "strata_get_total",
		Help: "Total number of successful object GETs",
	})
	DeleteCount = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "strata_delete_total",
		Help: "Total number of successful object DELETEs",
	})
	ErrCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "strata_errors_total",
		Help: "Total errors by kind",
	}, []string{"kind"})
	QuorumFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "strata_quorum_failures_total",
		Help: "Metadata operations that failed to reach quorum",
	})
	TopologyGeneration = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "strata_topology_generation",
		Help: "Current topology generation",
	})
	PutLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "strata_put_latency_seconds",
		Help:    "PUT latency",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	})
	GetLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "strata_get_latency_seconds",
		Help:    "GET latency",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	})
)

func Register() {
	prometheus.MustRegister(
		PutCount, GetCount, DeleteCount, ErrCount,
		QuorumFailures, TopologyGeneration,
		PutLatency, GetLatency,
	)
}

func ObservePut(started time.Time) {
	PutCount.Inc()
	PutLatency.Observe(time.Since(started).Seconds())
}

func ObserveGet(started time.Time) {
	GetCount.Inc()
	GetLatency.Observe(time.Since(started).Seconds())
}
