package maintenance

// MemoryUsage is a point-in-time summary of everything the cache layer
// holds, produced by the snapshot job and by Manager.MemoryUsage.
type MemoryUsage struct {
	// TotalCacheSize is DataCacheSize plus ImageCacheSize.
	TotalCacheSize uint64

	// DataCacheSize is the tracked byte size of the generic data store.
	DataCacheSize uint64

	// ImageCacheSize is the estimated pixel-buffer cost of cached images.
	ImageCacheSize uint64

	// CacheEntries is DataEntries plus ImageEntries.
	CacheEntries int

	// DataEntries is the entry count of the generic data store.
	DataEntries int

	// ImageEntries is the entry count of the image cache.
	ImageEntries int
}

// SnapshotMetrics exports memory snapshots to an external metrics system.
//
// Optional - a nil sink skips the export. The Prometheus implementation
// lives in pkg/metrics/prometheus.
type SnapshotMetrics interface {
	// RecordMemoryUsage publishes one snapshot as gauges.
	RecordMemoryUsage(u MemoryUsage)

	// RecordBufferedSamples publishes the recorder's buffer length.
	RecordBufferedSamples(count int)
}

// Sample names used for snapshot records in the perf recorder.
const (
	SampleTotalCacheBytes = "cache.total_bytes"
	SampleDataCacheBytes  = "cache.data_bytes"
	SampleImageCacheBytes = "cache.image_bytes"
	SampleDataEntries     = "cache.data_entries"
	SampleImageEntries    = "cache.image_entries"
)
