package cache

import (
	"sync"
	"time"

	"github.com/ronospace/flowcache/internal/bytesize"
	"github.com/ronospace/flowcache/internal/logger"
)

// Store is the byte-budgeted generic data store.
//
// All methods are safe for concurrent use. Operations on the same key are
// linearizable: a Get immediately following a Put for the same key observes
// the put's value unless the entry expired in between.
type Store struct {
	mu sync.Mutex

	entries   map[string]*entry
	totalSize uint64
	nextSeq   uint64

	maxSize    uint64
	defaultTTL time.Duration
	headroom   float64
	estimate   SizeEstimator

	hits      uint64
	misses    uint64
	evictions uint64
	expiries  uint64

	metrics StoreMetrics

	// now is replaced in tests to simulate the passage of time.
	now func() time.Time
}

// New creates a store with the given configuration.
// metrics may be nil, in which case observation is skipped.
func New(cfg Config, metrics StoreMetrics) *Store {
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = DefaultTTL
	}
	if cfg.EvictionHeadroom <= 0 || cfg.EvictionHeadroom > 1 {
		cfg.EvictionHeadroom = DefaultEvictionHeadroom
	}
	if cfg.Estimator == nil {
		cfg.Estimator = DefaultEstimator
	}

	return &Store{
		entries:    make(map[string]*entry),
		maxSize:    cfg.MaxSize,
		defaultTTL: cfg.DefaultTTL,
		headroom:   cfg.EvictionHeadroom,
		estimate:   cfg.Estimator,
		metrics:    metrics,
		now:        time.Now,
	}
}

// Put inserts or overwrites an entry with the store's default TTL.
func (s *Store) Put(key string, value any) {
	s.PutTTL(key, value, s.defaultTTL)
}

// PutTTL inserts or overwrites an entry with an explicit TTL.
//
// The entry's size is computed by the configured estimator. Oversized
// entries are still inserted; they simply become the prime eviction
// candidate on the next budget pass. Put never fails.
func (s *Store) PutTTL(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	size, estimated := s.estimate(value)
	if !estimated {
		logger.Warn("cache: size estimation fell back to default",
			"key", key, "assumed", bytesize.ByteSize(size))
	}

	s.mu.Lock()

	now := s.now()
	if old, ok := s.entries[key]; ok {
		s.totalSize -= old.sizeBytes
	}

	s.nextSeq++
	s.entries[key] = &entry{
		key:       key,
		value:     value,
		sizeBytes: size,
		createdAt: now,
		expiresAt: now.Add(ttl),
		seq:       s.nextSeq,
	}
	s.totalSize += size

	s.enforceBudgetLocked(now, s.nextSeq)
	s.observeLocked()
	s.mu.Unlock()
}

// Get returns the value stored under key.
//
// A missing key or an expired entry both return (nil, false). An expired
// entry is removed as a side effect of the read.
func (s *Store) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		s.misses++
		RecordMiss(s.metrics)
		return nil, false
	}

	if !e.live(s.now()) {
		s.removeLocked(e)
		s.misses++
		s.expiries++
		RecordMiss(s.metrics)
		RecordExpiries(s.metrics, 1)
		s.observeLocked()
		return nil, false
	}

	s.hits++
	RecordHit(s.metrics)
	return e.value, true
}

// Delete removes the entry stored under key, if any.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok {
		s.removeLocked(e)
		s.observeLocked()
	}
}

// Clear removes all entries and resets the tracked size to zero.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*entry)
	s.totalSize = 0
	s.observeLocked()
}

// SweepExpired removes every expired entry and returns the number removed.
//
// This is the bulk counterpart of the lazy expiry performed by Get, run
// periodically by the maintenance scheduler for entries nobody reads again.
func (s *Store) SweepExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for _, e := range s.entries {
		if !e.live(now) {
			s.removeLocked(e)
			removed++
		}
	}

	if removed > 0 {
		s.expiries += uint64(removed)
		RecordExpiries(s.metrics, removed)
		s.observeLocked()
		logger.Debug("cache: expiry sweep removed entries",
			"removed", removed, "remaining", len(s.entries))
	}

	return removed
}

// Len returns the number of entries currently held.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// TotalSize returns the tracked size of all held entries in bytes.
func (s *Store) TotalSize() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalSize
}

// Stats returns a snapshot of store statistics.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{
		TotalSize:  s.totalSize,
		MaxSize:    s.maxSize,
		EntryCount: len(s.entries),
		Hits:       s.hits,
		Misses:     s.misses,
		Evictions:  s.evictions,
		Expiries:   s.expiries,
	}
}

// removeLocked deletes an entry and adjusts the tracked size.
// Caller must hold s.mu.
func (s *Store) removeLocked(e *entry) {
	delete(s.entries, e.key)
	s.totalSize -= e.sizeBytes
}

// observeLocked publishes size and count gauges to the metrics sink.
// Caller must hold s.mu.
func (s *Store) observeLocked() {
	RecordEntryCount(s.metrics, len(s.entries))
	RecordTotalSize(s.metrics, s.totalSize)
}
