package metrics

import (
	"github.com/ronospace/flowcache/pkg/cache"
	"github.com/ronospace/flowcache/pkg/maintenance"
)

// NewStoreMetrics creates a Prometheus-backed cache.StoreMetrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called). When
// nil is returned, callers pass nil to the store, which results in zero
// overhead.
func NewStoreMetrics() cache.StoreMetrics {
	if !IsEnabled() || newPrometheusStoreMetrics == nil {
		return nil
	}
	return newPrometheusStoreMetrics()
}

// NewSnapshotMetrics creates a Prometheus-backed maintenance.SnapshotMetrics
// instance, or nil when metrics are disabled.
func NewSnapshotMetrics() maintenance.SnapshotMetrics {
	if !IsEnabled() || newPrometheusSnapshotMetrics == nil {
		return nil
	}
	return newPrometheusSnapshotMetrics()
}

// The Prometheus implementations live in pkg/metrics/prometheus and are
// registered during that package's initialization. The indirection keeps
// this package importable by anything without dragging the implementation
// in; binaries opt in with a blank import.
var (
	newPrometheusStoreMetrics    func() cache.StoreMetrics
	newPrometheusSnapshotMetrics func() maintenance.SnapshotMetrics
)

// RegisterStoreMetricsConstructor registers the Prometheus store metrics
// constructor. Called by pkg/metrics/prometheus during initialization.
func RegisterStoreMetricsConstructor(constructor func() cache.StoreMetrics) {
	newPrometheusStoreMetrics = constructor
}

// RegisterSnapshotMetricsConstructor registers the Prometheus snapshot
// metrics constructor. Called by pkg/metrics/prometheus during
// initialization.
func RegisterSnapshotMetricsConstructor(constructor func() maintenance.SnapshotMetrics) {
	newPrometheusSnapshotMetrics = constructor
}
