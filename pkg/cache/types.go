// Package cache implements the byte-budgeted generic data store.
//
// The store keeps opaque values under string keys with a per-entry logical
// size and an absolute expiry. A global byte budget is enforced after every
// insert via oldest-first eviction down to a configurable headroom fraction,
// so a single eviction pass leaves room for several inserts before the next
// pass triggers.
//
// Key Design Principles:
//   - Every operation is total: no error returns on the hot path
//   - Expiry is lazy on read, with a periodic bulk sweep for unread entries
//   - Size accounting is logical (caller-supplied estimates), not allocator
//     truth; a bad estimate biases eviction priority but never blocks
//   - Thread-safe for concurrent use by callers and the maintenance jobs
package cache

import (
	"time"
)

// Default budget constants. All are overridable via Config.
const (
	// DefaultMaxSize is the default byte budget for the store.
	DefaultMaxSize = 10 * 1024 * 1024 // 10MiB

	// DefaultTTL is applied when Put is called without an explicit TTL.
	DefaultTTL = 15 * time.Minute

	// DefaultEvictionHeadroom is the fraction of MaxSize eviction trims to.
	// Trimming below the budget avoids evicting one entry per subsequent Put.
	DefaultEvictionHeadroom = 0.8

	// FallbackEntrySize is charged when the size estimator cannot classify
	// a value.
	FallbackEntrySize = 1024
)

// Config holds the store's budgets and policies.
type Config struct {
	// MaxSize is the byte budget (0 = unlimited).
	MaxSize uint64

	// DefaultTTL is the expiry applied by Put. PutTTL overrides per entry.
	DefaultTTL time.Duration

	// EvictionHeadroom is the fraction of MaxSize that eviction trims to.
	// Values outside (0, 1] fall back to DefaultEvictionHeadroom.
	EvictionHeadroom float64

	// Estimator computes an entry's logical size. Nil uses DefaultEstimator.
	Estimator SizeEstimator
}

// DefaultConfig returns a Config with all defaults applied.
func DefaultConfig() Config {
	return Config{
		MaxSize:          DefaultMaxSize,
		DefaultTTL:       DefaultTTL,
		EvictionHeadroom: DefaultEvictionHeadroom,
	}
}

// entry is a single cached value with its accounting metadata.
type entry struct {
	key       string
	value     any
	sizeBytes uint64
	createdAt time.Time
	expiresAt time.Time

	// seq is a monotonic insertion counter used to break createdAt ties:
	// first inserted, first evicted.
	seq uint64
}

// live reports whether the entry has not yet expired at the given instant.
func (e *entry) live(now time.Time) bool {
	return now.Before(e.expiresAt)
}

// Stats contains store statistics for observability.
type Stats struct {
	// TotalSize is the current total size of live entries in bytes.
	TotalSize uint64

	// MaxSize is the configured byte budget (0 = unlimited).
	MaxSize uint64

	// EntryCount is the number of entries currently held.
	EntryCount int

	// Hits is the number of Get calls that returned a value.
	Hits uint64

	// Misses is the number of Get calls that found nothing, including
	// lazy-expired reads.
	Misses uint64

	// Evictions is the number of entries removed by budget enforcement.
	Evictions uint64

	// Expiries is the number of entries removed because their TTL elapsed,
	// either lazily on read or by SweepExpired.
	Expiries uint64
}
