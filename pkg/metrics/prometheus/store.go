// Package prometheus provides the Prometheus-backed implementations of
// the flowcache metrics interfaces.
//
// Importing this package (usually blank, from the binary) registers its
// constructors with pkg/metrics; libraries that only depend on
// pkg/metrics never link the implementation.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ronospace/flowcache/pkg/cache"
	"github.com/ronospace/flowcache/pkg/maintenance"
	"github.com/ronospace/flowcache/pkg/metrics"
)

func init() {
	metrics.RegisterStoreMetricsConstructor(newStoreMetrics)
	metrics.RegisterSnapshotMetricsConstructor(newSnapshotMetrics)
}

// storeMetrics is the Prometheus implementation of cache.StoreMetrics.
type storeMetrics struct {
	entryCount prometheus.Gauge
	totalSize  prometheus.Gauge
	reads      *prometheus.CounterVec
	removals   *prometheus.CounterVec
}

func newStoreMetrics() cache.StoreMetrics {
	reg := metrics.GetRegistry()
	if reg == nil {
		return nil
	}

	return &storeMetrics{
		entryCount: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "flowcache_store_entries",
				Help: "Current number of entries in the data store",
			},
		),
		totalSize: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "flowcache_store_size_bytes",
				Help: "Current tracked size of the data store in bytes",
			},
		),
		reads: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowcache_store_reads_total",
				Help: "Total data store reads by status",
			},
			[]string{"status"}, // "hit", "miss"
		),
		removals: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowcache_store_removals_total",
				Help: "Total entries removed by budget enforcement or TTL",
			},
			[]string{"reason"}, // "evicted", "expired"
		),
	}
}

func (m *storeMetrics) RecordEntryCount(count int) {
	m.entryCount.Set(float64(count))
}

func (m *storeMetrics) RecordTotalSize(bytes uint64) {
	m.totalSize.Set(float64(bytes))
}

func (m *storeMetrics) RecordHit() {
	m.reads.WithLabelValues("hit").Inc()
}

func (m *storeMetrics) RecordMiss() {
	m.reads.WithLabelValues("miss").Inc()
}

func (m *storeMetrics) RecordEvictions(count int) {
	m.removals.WithLabelValues("evicted").Add(float64(count))
}

func (m *storeMetrics) RecordExpiries(count int) {
	m.removals.WithLabelValues("expired").Add(float64(count))
}

// snapshotMetrics is the Prometheus implementation of
// maintenance.SnapshotMetrics.
type snapshotMetrics struct {
	cacheSize       *prometheus.GaugeVec
	cacheEntries    *prometheus.GaugeVec
	bufferedSamples prometheus.Gauge
}

func newSnapshotMetrics() maintenance.SnapshotMetrics {
	reg := metrics.GetRegistry()
	if reg == nil {
		return nil
	}

	return &snapshotMetrics{
		cacheSize: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "flowcache_memory_bytes",
				Help: "Cache layer memory usage in bytes by store",
			},
			[]string{"store"}, // "data", "image", "total"
		),
		cacheEntries: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "flowcache_memory_entries",
				Help: "Cache layer entry counts by store",
			},
			[]string{"store"},
		),
		bufferedSamples: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "flowcache_recorder_buffered_samples",
				Help: "Current number of samples held by the recorder",
			},
		),
	}
}

func (m *snapshotMetrics) RecordMemoryUsage(u maintenance.MemoryUsage) {
	m.cacheSize.WithLabelValues("data").Set(float64(u.DataCacheSize))
	m.cacheSize.WithLabelValues("image").Set(float64(u.ImageCacheSize))
	m.cacheSize.WithLabelValues("total").Set(float64(u.TotalCacheSize))

	m.cacheEntries.WithLabelValues("data").Set(float64(u.DataEntries))
	m.cacheEntries.WithLabelValues("image").Set(float64(u.ImageEntries))
	m.cacheEntries.WithLabelValues("total").Set(float64(u.CacheEntries))
}

func (m *snapshotMetrics) RecordBufferedSamples(count int) {
	m.bufferedSamples.Set(float64(count))
}
