package cache

import (
	"sort"
	"time"

	"github.com/ronospace/flowcache/internal/bytesize"
	"github.com/ronospace/flowcache/internal/logger"
)

// ============================================================================
// Budget Enforcement (oldest-first eviction)
// ============================================================================
//
// The store trims to maxSize*headroom whenever a Put pushes the tracked
// size over maxSize. Eviction order is createdAt ascending, ties broken by
// insertion sequence, so the externally observable contract is strictly
// oldest-first. Expired entries are dropped before any live entry is
// considered.

// enforceBudgetLocked evicts entries until the tracked size is at or below
// the headroom target. A no-op when under budget or when maxSize is 0.
//
// protectSeq names the entry the triggering Put just inserted; it is never
// a victim of its own put, even when it alone exceeds the budget. It goes
// first on the next enforcement pass instead. Zero protects nothing.
// Caller must hold s.mu.
func (s *Store) enforceBudgetLocked(now time.Time, protectSeq uint64) {
	if s.maxSize == 0 || s.totalSize <= s.maxSize {
		return
	}

	target := uint64(float64(s.maxSize) * s.headroom)

	// Expired entries go first; they are dead weight regardless of age.
	expired := 0
	for _, e := range s.entries {
		if !e.live(now) {
			s.removeLocked(e)
			expired++
		}
	}
	if expired > 0 {
		s.expiries += uint64(expired)
		RecordExpiries(s.metrics, expired)
	}
	if s.totalSize <= target {
		return
	}

	victims := make([]*entry, 0, len(s.entries))
	for _, e := range s.entries {
		victims = append(victims, e)
	}
	sort.Slice(victims, func(i, j int) bool {
		if victims[i].createdAt.Equal(victims[j].createdAt) {
			return victims[i].seq < victims[j].seq
		}
		return victims[i].createdAt.Before(victims[j].createdAt)
	})

	evicted := 0
	var evictedBytes uint64
	for _, e := range victims {
		if s.totalSize <= target {
			break
		}
		if e.seq == protectSeq {
			continue
		}
		s.removeLocked(e)
		evicted++
		evictedBytes += e.sizeBytes
	}

	if evicted > 0 {
		s.evictions += uint64(evicted)
		RecordEvictions(s.metrics, evicted)
		logger.Debug("cache: evicted oldest entries to meet budget",
			"evicted", evicted,
			"freed", bytesize.ByteSize(evictedBytes),
			"size", bytesize.ByteSize(s.totalSize),
			"budget", bytesize.ByteSize(s.maxSize))
	}
}
