package perf

import (
	"context"
	"sync"
	"time"

	"github.com/ronospace/flowcache/internal/logger"
)

// Default retention constants. Both bounds apply together.
const (
	// DefaultRetentionWindow is how long samples are kept.
	DefaultRetentionWindow = time.Hour

	// DefaultMaxSamples caps the buffer regardless of sample age.
	DefaultMaxSamples = 1000
)

// Config holds the recorder's retention policy.
type Config struct {
	// RetentionWindow is the sliding window samples are retained for.
	RetentionWindow time.Duration

	// MaxSamples caps the buffer length.
	MaxSamples int
}

// DefaultConfig returns a Config with all defaults applied.
func DefaultConfig() Config {
	return Config{
		RetentionWindow: DefaultRetentionWindow,
		MaxSamples:      DefaultMaxSamples,
	}
}

// Recorder collects samples and manages in-flight traces.
//
// Safe for concurrent use. The sample buffer is timestamp-ordered because
// appends always carry the current time, so both trim rules cut a prefix.
type Recorder struct {
	mu sync.Mutex

	samples []Sample
	active  map[string]time.Time

	window     time.Duration
	maxSamples int

	// now is replaced in tests to simulate the passage of time.
	now func() time.Time
}

// NewRecorder creates a recorder with the given retention policy.
func NewRecorder(cfg Config) *Recorder {
	if cfg.RetentionWindow <= 0 {
		cfg.RetentionWindow = DefaultRetentionWindow
	}
	if cfg.MaxSamples <= 0 {
		cfg.MaxSamples = DefaultMaxSamples
	}

	return &Recorder{
		samples:    make([]Sample, 0, 64),
		active:     make(map[string]time.Time),
		window:     cfg.RetentionWindow,
		maxSamples: cfg.MaxSamples,
		now:        time.Now,
	}
}

// StartTrace records the start time for name.
//
// If a trace with the same name is already active, the first start remains
// authoritative - replacing it would silently shorten the reported
// duration. The duplicate start is logged and ignored.
func (r *Recorder) StartTrace(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if started, ok := r.active[name]; ok {
		logger.Warn("perf: trace already active, keeping first start",
			"trace", name, "started_ago", now.Sub(started))
		return
	}
	r.active[name] = now
}

// StopTrace completes the trace for name and appends a timing sample.
//
// Returns (0, false) when no trace with that name is active.
func (r *Recorder) StopTrace(name string) (time.Duration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	started, ok := r.active[name]
	if !ok {
		logger.Warn("perf: stop without matching start", "trace", name)
		return 0, false
	}
	delete(r.active, name)

	now := r.now()
	elapsed := now.Sub(started)
	r.appendLocked(TimingSample(name, elapsed, now))
	return elapsed, true
}

// Measure runs fn between StartTrace and StopTrace.
//
// The stop is deferred, so it runs even when fn panics or returns an
// error; fn's own failure propagates to the caller unchanged.
func (r *Recorder) Measure(name string, fn func() error) error {
	r.StartTrace(name)
	defer r.StopTrace(name)
	return fn()
}

// MeasureCtx is Measure for context-aware work. Cancellation of the
// wrapped work still stops the trace on the way out.
func (r *Recorder) MeasureCtx(ctx context.Context, name string, fn func(context.Context) error) error {
	r.StartTrace(name)
	defer r.StopTrace(name)
	return fn(ctx)
}

// Record appends a prebuilt sample, stamping it if the timestamp is zero.
// This is the low-level path used by the maintenance scheduler for memory
// and counter snapshots.
func (r *Recorder) Record(s Sample) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s.Timestamp.IsZero() {
		s.Timestamp = r.now()
	}
	r.appendLocked(s)
}

// Average returns the arithmetic mean of samples matching name recorded
// within the window (0 = the full retention window). Timing samples
// average in milliseconds. Returns 0.0 when nothing matches.
func (r *Recorder) Average(name string, window time.Duration) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if window <= 0 {
		window = r.window
	}
	cutoff := r.now().Add(-window)

	var sum float64
	var n int
	for _, s := range r.samples {
		if s.Name != name || s.Timestamp.Before(cutoff) {
			continue
		}
		sum += s.Millis()
		n++
	}

	if n == 0 {
		return 0.0
	}
	return sum / float64(n)
}

// Since returns a copy of all samples newer than now-d.
func (r *Recorder) Since(d time.Duration) []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-d)
	i := 0
	for i < len(r.samples) && !r.samples[i].Timestamp.After(cutoff) {
		i++
	}

	out := make([]Sample, len(r.samples)-i)
	copy(out, r.samples[i:])
	return out
}

// Len returns the number of buffered samples.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.samples)
}

// ActiveTraces returns the number of in-flight traces. Traces never
// stopped stay here; cardinality is bounded by distinct trace names.
func (r *Recorder) ActiveTraces() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}

// Clear drops all samples and in-flight traces.
func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.samples = r.samples[:0]
	r.active = make(map[string]time.Time)
}

// appendLocked adds a sample and applies both trim rules: the retention
// window first, then the count cap, dropping from the front in each case.
//
// The buffer is kept timestamp-sorted. Record accepts caller-supplied
// timestamps, so a backdated sample is inserted at its ordered position
// rather than appended; the front of the buffer is then always the oldest
// sample and both trims plus Since's prefix cut stay correct.
// Caller must hold r.mu.
func (r *Recorder) appendLocked(s Sample) {
	i := len(r.samples)
	for i > 0 && r.samples[i-1].Timestamp.After(s.Timestamp) {
		i--
	}
	r.samples = append(r.samples, Sample{})
	copy(r.samples[i+1:], r.samples[i:])
	r.samples[i] = s

	cutoff := r.now().Add(-r.window)
	i = 0
	for i < len(r.samples) && r.samples[i].Timestamp.Before(cutoff) {
		i++
	}
	if i > 0 {
		r.samples = append(r.samples[:0], r.samples[i:]...)
	}

	if overflow := len(r.samples) - r.maxSamples; overflow > 0 {
		r.samples = append(r.samples[:0], r.samples[overflow:]...)
	}
}
