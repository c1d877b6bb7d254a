package perf

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestRecorder(t testing.TB, cfg Config) (*Recorder, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	r := NewRecorder(cfg)
	r.now = clock.Now
	return r, clock
}

func TestTraceRoundTrip(t *testing.T) {
	r, clock := newTestRecorder(t, DefaultConfig())

	r.StartTrace("login")
	clock.Advance(25 * time.Millisecond)
	elapsed, ok := r.StopTrace("login")

	require.True(t, ok)
	assert.Equal(t, 25*time.Millisecond, elapsed)

	samples := r.Since(time.Minute)
	require.Len(t, samples, 1)
	assert.Equal(t, "login", samples[0].Name)
	assert.Equal(t, KindTiming, samples[0].Kind)
	assert.Equal(t, 25*time.Millisecond, samples[0].Duration)
	assert.Equal(t, 0, r.ActiveTraces())
}

func TestDoubleStartKeepsFirst(t *testing.T) {
	r, clock := newTestRecorder(t, DefaultConfig())

	r.StartTrace("op")
	clock.Advance(10 * time.Millisecond)
	r.StartTrace("op") // ignored, first start remains authoritative
	clock.Advance(10 * time.Millisecond)

	elapsed, ok := r.StopTrace("op")
	require.True(t, ok)
	assert.Equal(t, 20*time.Millisecond, elapsed)
	assert.Equal(t, 1, r.Len())
}

func TestStopWithoutStart(t *testing.T) {
	r, _ := newTestRecorder(t, DefaultConfig())

	elapsed, ok := r.StopTrace("never-started")
	assert.False(t, ok)
	assert.Zero(t, elapsed)
	assert.Equal(t, 0, r.Len())
}

func TestMeasure(t *testing.T) {
	t.Run("RecordsOnSuccess", func(t *testing.T) {
		r, clock := newTestRecorder(t, DefaultConfig())

		err := r.Measure("work", func() error {
			clock.Advance(5 * time.Millisecond)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, r.Len())
		assert.Equal(t, 0, r.ActiveTraces())
	})

	t.Run("StopsOnError", func(t *testing.T) {
		r, _ := newTestRecorder(t, DefaultConfig())
		sentinel := errors.New("boom")

		err := r.Measure("work", func() error { return sentinel })
		assert.ErrorIs(t, err, sentinel)
		assert.Equal(t, 1, r.Len(), "sample recorded despite the error")
		assert.Equal(t, 0, r.ActiveTraces(), "no dangling trace")
	})

	t.Run("StopsOnPanic", func(t *testing.T) {
		r, _ := newTestRecorder(t, DefaultConfig())

		assert.Panics(t, func() {
			_ = r.Measure("work", func() error { panic("boom") })
		})
		assert.Equal(t, 1, r.Len(), "sample recorded despite the panic")
		assert.Equal(t, 0, r.ActiveTraces(), "no dangling trace")
	})
}

func TestCountCapTrim(t *testing.T) {
	r, _ := newTestRecorder(t, Config{RetentionWindow: time.Hour, MaxSamples: 1000})

	for i := 0; i < 1500; i++ {
		r.Record(CounterSample(fmt.Sprintf("s%d", i), i, time.Time{}))
	}

	assert.Equal(t, 1000, r.Len())

	// The 500 oldest were dropped from the front
	samples := r.Since(2 * time.Hour)
	assert.Equal(t, "s500", samples[0].Name)
	assert.Equal(t, "s1499", samples[len(samples)-1].Name)
}

func TestWindowTrim(t *testing.T) {
	r, clock := newTestRecorder(t, Config{RetentionWindow: time.Minute, MaxSamples: 1000})

	r.Record(CounterSample("old", 1, time.Time{}))
	clock.Advance(2 * time.Minute)
	r.Record(CounterSample("new", 1, time.Time{}))

	samples := r.Since(time.Hour)
	require.Len(t, samples, 1)
	assert.Equal(t, "new", samples[0].Name)
}

func TestWindowTrimBackdatedSample(t *testing.T) {
	r, clock := newTestRecorder(t, Config{RetentionWindow: time.Minute, MaxSamples: 1000})

	// A caller-supplied timestamp older than the window must not survive
	// the append, regardless of where it lands in the buffer.
	stale := clock.Now().Add(-time.Hour)
	r.Record(CounterSample("stale", 1, stale))
	r.Record(CounterSample("fresh", 1, time.Time{}))
	r.Record(CounterSample("fresh", 2, time.Time{}))

	for _, s := range r.Since(2 * time.Hour) {
		assert.NotEqual(t, "stale", s.Name, "backdated sample beyond the window retained")
	}
	assert.Equal(t, 2, r.Len())
}

func TestBackdatedSampleKeepsBufferOrdered(t *testing.T) {
	r, clock := newTestRecorder(t, Config{RetentionWindow: time.Hour, MaxSamples: 1000})

	r.Record(CounterSample("first", 1, time.Time{}))
	clock.Advance(10 * time.Minute)
	r.Record(CounterSample("third", 3, time.Time{}))
	// Backdated but inside the window: lands between the two.
	r.Record(CounterSample("second", 2, clock.Now().Add(-5*time.Minute)))

	// Since cuts a prefix, so a query spanning only the newer samples
	// must exclude the backdated one.
	samples := r.Since(7 * time.Minute)
	require.Len(t, samples, 2)
	assert.Equal(t, "second", samples[0].Name)
	assert.Equal(t, "third", samples[1].Name)
}

func TestAverage(t *testing.T) {
	r, clock := newTestRecorder(t, DefaultConfig())

	for _, d := range []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 30 * time.Millisecond} {
		r.StartTrace("y")
		clock.Advance(d)
		_, ok := r.StopTrace("y")
		require.True(t, ok)
	}

	assert.InDelta(t, 20.0, r.Average("y", 0), 0.001)
}

func TestAverageNoMatches(t *testing.T) {
	r, _ := newTestRecorder(t, DefaultConfig())
	assert.Zero(t, r.Average("missing", 0))
}

func TestAverageWindowed(t *testing.T) {
	r, clock := newTestRecorder(t, Config{RetentionWindow: time.Hour, MaxSamples: 1000})

	r.Record(MemorySample("heap", 100, time.Time{}))
	clock.Advance(10 * time.Minute)
	r.Record(MemorySample("heap", 300, time.Time{}))

	// Narrow window only sees the second sample
	assert.InDelta(t, 300.0, r.Average("heap", time.Minute), 0.001)
	// Full window averages both
	assert.InDelta(t, 200.0, r.Average("heap", time.Hour), 0.001)
}

func TestClear(t *testing.T) {
	r, _ := newTestRecorder(t, DefaultConfig())

	r.StartTrace("dangling")
	r.Record(CounterSample("c", 1, time.Time{}))

	r.Clear()

	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 0, r.ActiveTraces())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "timing", KindTiming.String())
	assert.Equal(t, "memory", KindMemory.String())
	assert.Equal(t, "counter", KindCounter.String())
	assert.Equal(t, "network", KindNetwork.String())
	assert.Equal(t, "unknown", Kind(99).String())
}

func TestConcurrentTraces(t *testing.T) {
	r, _ := newTestRecorder(t, DefaultConfig())

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				name := fmt.Sprintf("g%d", g)
				r.StartTrace(name)
				r.StopTrace(name)
				r.Record(CounterSample(name, i, time.Time{}))
			}
		}(g)
	}
	wg.Wait()

	assert.Equal(t, 0, r.ActiveTraces())
	assert.LessOrEqual(t, r.Len(), DefaultMaxSamples)
}
