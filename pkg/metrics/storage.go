package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StorageMetrics instruments the worker pool that runs repository calls.
type StorageMetrics struct {
	duration *prometheus.HistogramVec
	wait     prometheus.Histogram
	timeouts *prometheus.CounterVec
	inflight prometheus.Gauge
}

func NewStorageMetrics(reg prometheus.Registerer) *StorageMetrics {
	if reg == nil {
		return &StorageMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "agridiary_storage_operation_duration_seconds",
		Help:    "Duration of storage operations executed on the worker pool.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op", "outcome"})
	wait := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "agridiary_storage_queue_wait_seconds",
		Help:    "Time spent waiting for a free worker pool slot.",
		Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
	})
	timeouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agridiary_storage_timeouts_total",
		Help: "Storage operations abandoned after the configured timeout.",
	}, []string{"op"})
	inflight := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "agridiary_storage_inflight",
		Help: "Storage operations currently holding a worker pool slot.",
	})
	reg.MustRegister(duration, wait, timeouts, inflight)
	return &StorageMetrics{duration: duration, wait: wait, timeouts: timeouts, inflight: inflight}
}

func (m *StorageMetrics) ObserveOperation(op string, err error, d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.duration.WithLabelValues(normalizeLabel(op), outcome).Observe(d.Seconds())
}

func (m *StorageMetrics) ObserveWait(d time.Duration) {
	if m == nil || m.wait == nil {
		return
	}
	m.wait.Observe(d.Seconds())
}

func (m *StorageMetrics) IncTimeout(op string) {
	if m == nil || m.timeouts == nil {
		return
	}
	m.timeouts.WithLabelValues(normalizeLabel(op)).Inc()
}

func (m *StorageMetrics) Acquired() {
	if m == nil || m.inflight == nil {
		return
	}
	m.inflight.Inc()
}

func (m *StorageMetrics) Released() {
	if m == nil || m.inflight == nil {
		return
	}
	m.inflight.Dec()
}
