// Package maintenance drives the periodic background jobs that keep the
// cache layer bounded: the expiry sweep, the image-cache trim, and the
// memory snapshot.
//
// Jobs only reach the stores through their exported thread-safe methods,
// never internal state, so a sweep and a foreground read on the same key
// race harmlessly: whichever runs first wins and the other observes an
// already-absent entry.
package maintenance

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ronospace/flowcache/internal/bytesize"
	"github.com/ronospace/flowcache/internal/logger"
	"github.com/ronospace/flowcache/pkg/cache"
	"github.com/ronospace/flowcache/pkg/imagecache"
	"github.com/ronospace/flowcache/pkg/perf"
)

// Default job intervals. Overridable via Config.
const (
	DefaultExpiryInterval   = time.Hour
	DefaultTrimInterval     = 10 * time.Minute
	DefaultSnapshotInterval = 5 * time.Minute
)

// Config holds the scheduler's job intervals.
type Config struct {
	// ExpiryInterval is how often expired data-store entries are swept.
	ExpiryInterval time.Duration

	// TrimInterval is how often the image-cache trim runs.
	TrimInterval time.Duration

	// SnapshotInterval is how often a memory snapshot is recorded.
	SnapshotInterval time.Duration
}

// DefaultConfig returns a Config with all defaults applied.
func DefaultConfig() Config {
	return Config{
		ExpiryInterval:   DefaultExpiryInterval,
		TrimInterval:     DefaultTrimInterval,
		SnapshotInterval: DefaultSnapshotInterval,
	}
}

// job is one periodic maintenance task. A tick that fires while the
// previous run is still in flight is skipped, not queued.
type job struct {
	name     string
	interval time.Duration
	run      func()
	running  atomic.Bool
	skipped  atomic.Uint64
}

// Scheduler owns the three maintenance jobs.
type Scheduler struct {
	data    *cache.Store
	images  *imagecache.Cache
	rec     *perf.Recorder
	metrics SnapshotMetrics

	jobs []*job

	mu       sync.Mutex
	started  bool
	disposed atomic.Bool

	stopCh    chan struct{}
	stoppedCh chan struct{}
	wg        sync.WaitGroup
}

// New creates a scheduler over the three stores.
// metrics may be nil, in which case snapshot export is skipped.
func New(cfg Config, data *cache.Store, images *imagecache.Cache, rec *perf.Recorder, metrics SnapshotMetrics) *Scheduler {
	if cfg.ExpiryInterval <= 0 {
		cfg.ExpiryInterval = DefaultExpiryInterval
	}
	if cfg.TrimInterval <= 0 {
		cfg.TrimInterval = DefaultTrimInterval
	}
	if cfg.SnapshotInterval <= 0 {
		cfg.SnapshotInterval = DefaultSnapshotInterval
	}

	s := &Scheduler{
		data:      data,
		images:    images,
		rec:       rec,
		metrics:   metrics,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}

	s.jobs = []*job{
		{name: "expiry_sweep", interval: cfg.ExpiryInterval, run: s.sweepExpired},
		{name: "image_trim", interval: cfg.TrimInterval, run: s.trimImages},
		{name: "memory_snapshot", interval: cfg.SnapshotInterval, run: s.recordSnapshot},
	}

	return s
}

// Start launches one ticker goroutine per job. Idempotent.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.disposed.Load() {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	logger.Info("Starting maintenance scheduler",
		"expiry_interval", s.jobs[0].interval,
		"trim_interval", s.jobs[1].interval,
		"snapshot_interval", s.jobs[2].interval)

	for _, j := range s.jobs {
		s.wg.Add(1)
		go s.loop(ctx, j)
	}

	// Monitor goroutine to close stoppedCh when all job loops exit
	go func() {
		s.wg.Wait()
		close(s.stoppedCh)
	}()
}

// Dispose stops all timers and clears all three stores.
//
// No job fires after Dispose starts: the loops exit before stores are
// cleared, so an in-flight run may finish but its timer never re-arms.
// Idempotent and safe to call without Start.
func (s *Scheduler) Dispose() {
	if !s.disposed.CompareAndSwap(false, true) {
		return
	}

	s.mu.Lock()
	started := s.started
	s.mu.Unlock()

	if started {
		close(s.stopCh)
		<-s.stoppedCh
	}

	s.data.Clear()
	s.images.Clear()
	s.rec.Clear()

	logger.Info("Maintenance scheduler disposed")
}

// Disposed reports whether Dispose has been called.
func (s *Scheduler) Disposed() bool {
	return s.disposed.Load()
}

// RunAll triggers every job once, synchronously. Used at startup for an
// initial snapshot and by tests; jobs already running are skipped.
func (s *Scheduler) RunAll() {
	for _, j := range s.jobs {
		s.runJob(j)
	}
}

// loop drives one job's ticker until stop or context cancellation.
func (s *Scheduler) loop(ctx context.Context, j *job) {
	defer s.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runJob(j)
		}
	}
}

// runJob runs a job unless it is already running or the scheduler is
// disposed. The overlap guard matters for RunAll racing a ticker fire.
func (s *Scheduler) runJob(j *job) {
	if s.disposed.Load() {
		return
	}
	if !j.running.CompareAndSwap(false, true) {
		j.skipped.Add(1)
		logger.Debug("maintenance: tick skipped, job still running", "job", j.name)
		return
	}
	defer j.running.Store(false)

	start := time.Now()
	j.run()
	logger.Debug("maintenance: job completed", "job", j.name, "elapsed", time.Since(start))
}

// sweepExpired removes expired data-store entries nobody read again.
func (s *Scheduler) sweepExpired() {
	removed := s.data.SweepExpired()
	if removed > 0 {
		s.rec.Record(perf.CounterSample("maintenance.expired_entries", removed, time.Time{}))
	}
}

// trimImages enforces the image-cache count budget. A no-op under budget.
func (s *Scheduler) trimImages() {
	s.images.EnforceBudget()
}

// recordSnapshot computes a MemoryUsage summary and records it as memory
// and counter samples, plus gauges when a metrics sink is configured.
func (s *Scheduler) recordSnapshot() {
	u := s.Snapshot()

	s.rec.Record(perf.MemorySample(SampleTotalCacheBytes, u.TotalCacheSize, time.Time{}))
	s.rec.Record(perf.MemorySample(SampleDataCacheBytes, u.DataCacheSize, time.Time{}))
	s.rec.Record(perf.MemorySample(SampleImageCacheBytes, u.ImageCacheSize, time.Time{}))
	s.rec.Record(perf.CounterSample(SampleDataEntries, u.DataEntries, time.Time{}))
	s.rec.Record(perf.CounterSample(SampleImageEntries, u.ImageEntries, time.Time{}))

	if s.metrics != nil {
		s.metrics.RecordMemoryUsage(u)
		s.metrics.RecordBufferedSamples(s.rec.Len())
	}

	logger.Debug("maintenance: memory snapshot",
		"total", bytesize.ByteSize(u.TotalCacheSize),
		"data_entries", u.DataEntries,
		"image_entries", u.ImageEntries)
}

// Snapshot computes the current MemoryUsage summary.
func (s *Scheduler) Snapshot() MemoryUsage {
	dataStats := s.data.Stats()
	imageBytes := s.images.EstimatedBytes()
	imageCount := s.images.Len()

	return MemoryUsage{
		TotalCacheSize: dataStats.TotalSize + imageBytes,
		DataCacheSize:  dataStats.TotalSize,
		ImageCacheSize: imageBytes,
		CacheEntries:   dataStats.EntryCount + imageCount,
		DataEntries:    dataStats.EntryCount,
		ImageEntries:   imageCount,
	}
}
