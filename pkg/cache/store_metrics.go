package cache

// StoreMetrics provides observability for store operations.
//
// Implementations can use this interface to export gauges and counters for
// the store's size, entry count, and churn. This is optional - if not
// provided, metrics collection is skipped.
//
// Example implementations:
//   - Prometheus metrics
//   - In-memory counters for testing
type StoreMetrics interface {
	// RecordEntryCount records the current number of entries
	RecordEntryCount(count int)

	// RecordTotalSize records the current tracked size in bytes
	RecordTotalSize(bytes uint64)

	// RecordHit records a Get that returned a value
	RecordHit()

	// RecordMiss records a Get that found nothing
	RecordMiss()

	// RecordEvictions records entries removed by budget enforcement
	RecordEvictions(count int)

	// RecordExpiries records entries removed because their TTL elapsed
	RecordExpiries(count int)
}

// Nil-safe record helpers. The store calls these so a nil metrics sink
// costs a single comparison per operation.

func RecordEntryCount(m StoreMetrics, count int) {
	if m != nil {
		m.RecordEntryCount(count)
	}
}

func RecordTotalSize(m StoreMetrics, bytes uint64) {
	if m != nil {
		m.RecordTotalSize(bytes)
	}
}

func RecordHit(m StoreMetrics) {
	if m != nil {
		m.RecordHit()
	}
}

func RecordMiss(m StoreMetrics) {
	if m != nil {
		m.RecordMiss()
	}
}

func RecordEvictions(m StoreMetrics, count int) {
	if m != nil {
		m.RecordEvictions(count)
	}
}

func RecordExpiries(m StoreMetrics, count int) {
	if m != nil {
		m.RecordExpiries(count)
	}
}
