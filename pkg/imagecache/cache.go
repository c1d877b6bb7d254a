package imagecache

import (
	"context"
	"image"
	"sort"
	"sync"

	"github.com/ronospace/flowcache/internal/logger"
)

// Default budget constants. Overridable via Config.
const (
	// DefaultHighWatermark is the entry count that triggers a batch trim.
	DefaultHighWatermark = 100

	// DefaultTrimFraction is the share of the watermark dropped per trim.
	// Halving in one batch keeps trims rare instead of precise.
	DefaultTrimFraction = 0.5
)

// Config holds the image cache's count budget.
type Config struct {
	// HighWatermark is the entry count above which a trim triggers.
	HighWatermark int

	// TrimFraction is the share of HighWatermark removed by a trim,
	// oldest entries first. Values outside (0, 1) fall back to the
	// default.
	TrimFraction float64
}

// DefaultConfig returns a Config with all defaults applied.
func DefaultConfig() Config {
	return Config{
		HighWatermark: DefaultHighWatermark,
		TrimFraction:  DefaultTrimFraction,
	}
}

// imageEntry pairs a decoded handle with its insertion sequence, which
// serves as the recency proxy for batch trimming.
type imageEntry struct {
	key string
	img image.Image
	seq uint64
}

// Stats contains image cache statistics for observability.
type Stats struct {
	// EntryCount is the number of cached images.
	EntryCount int

	// HighWatermark is the configured trim threshold.
	HighWatermark int

	// Decodes is the number of decode attempts performed.
	Decodes uint64

	// DecodeFailures is the number of decodes that failed.
	DecodeFailures uint64

	// Hits is the number of lookups satisfied without decoding.
	Hits uint64

	// Trims is the number of batch trims performed.
	Trims uint64
}

// Cache is the bounded store for decoded images.
//
// Safe for concurrent use.
type Cache struct {
	mu sync.Mutex

	entries map[string]*imageEntry
	nextSeq uint64

	highWatermark int
	trimFraction  float64

	decoder Decoder

	decodes        uint64
	decodeFailures uint64
	hits           uint64
	trims          uint64
}

// New creates an image cache using decoder for cache misses.
// A nil decoder falls back to StdDecoder.
func New(cfg Config, decoder Decoder) *Cache {
	if cfg.HighWatermark <= 0 {
		cfg.HighWatermark = DefaultHighWatermark
	}
	if cfg.TrimFraction <= 0 || cfg.TrimFraction >= 1 {
		cfg.TrimFraction = DefaultTrimFraction
	}
	if decoder == nil {
		decoder = StdDecoder{}
	}

	return &Cache{
		entries:       make(map[string]*imageEntry),
		highWatermark: cfg.HighWatermark,
		trimFraction:  cfg.TrimFraction,
		decoder:       decoder,
	}
}

// CacheOptimizedImage returns the decoded image for key, decoding and
// caching it on first use.
//
// A second call with the same key returns the cached handle without
// redecoding. Decode failures are logged, leave the cache unmodified, and
// return (nil, false) - they never propagate past this boundary.
func (c *Cache) CacheOptimizedImage(ctx context.Context, key string, raw []byte, opts DecodeOptions) (image.Image, bool) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		c.hits++
		img := e.img
		c.mu.Unlock()
		return img, true
	}
	c.mu.Unlock()

	// Decode outside the lock; a slow decode must not block readers.
	img, err := c.decoder.Decode(ctx, raw, opts)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.decodes++
	if err != nil {
		c.decodeFailures++
		logger.Warn("imagecache: decode failed", "key", key, "error", err)
		return nil, false
	}

	// A concurrent decode for the same key may have won the race;
	// the first stored handle stays authoritative.
	if e, ok := c.entries[key]; ok {
		c.hits++
		return e.img, true
	}

	c.nextSeq++
	c.entries[key] = &imageEntry{key: key, img: img, seq: c.nextSeq}
	c.enforceBudgetLocked()
	return img, true
}

// Get returns the cached image for key without decoding.
func (c *Cache) Get(key string) (image.Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.hits++
	return e.img, true
}

// EnforceBudget trims the cache if it is over the high watermark.
// A no-op when under budget; safe to call at any time.
func (c *Cache) EnforceBudget() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enforceBudgetLocked()
}

// Len returns the number of cached images.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// EstimatedBytes returns a rough pixel-buffer cost for the cached images
// (4 bytes per pixel). The native decode may hold more or less; this is an
// accounting figure for memory snapshots, not allocator truth.
func (c *Cache) EstimatedBytes() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	var total uint64
	for _, e := range c.entries {
		b := e.img.Bounds()
		total += uint64(b.Dx()) * uint64(b.Dy()) * 4
	}
	return total
}

// Clear empties the store.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*imageEntry)
}

// Stats returns a snapshot of cache statistics.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		EntryCount:     len(c.entries),
		HighWatermark:  c.highWatermark,
		Decodes:        c.decodes,
		DecodeFailures: c.decodeFailures,
		Hits:           c.hits,
		Trims:          c.trims,
	}
}

// enforceBudgetLocked drops the oldest entries in one batch when the count
// exceeds the high watermark, leaving roughly
// highWatermark*(1-trimFraction) entries. Caller must hold c.mu.
func (c *Cache) enforceBudgetLocked() {
	if len(c.entries) <= c.highWatermark {
		return
	}

	keep := int(float64(c.highWatermark) * (1 - c.trimFraction))
	drop := len(c.entries) - keep

	victims := make([]*imageEntry, 0, len(c.entries))
	for _, e := range c.entries {
		victims = append(victims, e)
	}
	sort.Slice(victims, func(i, j int) bool {
		return victims[i].seq < victims[j].seq
	})

	for _, e := range victims[:drop] {
		delete(c.entries, e.key)
	}

	c.trims++
	logger.Debug("imagecache: batch trim",
		"dropped", drop, "remaining", len(c.entries), "watermark", c.highWatermark)
}
