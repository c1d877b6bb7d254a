// Package perf implements the in-process metrics recorder.
//
// The recorder keeps named samples in a bounded buffer and supports paired
// start/stop traces that become timing samples on completion. Retention is
// double-bounded: samples older than the retention window are dropped, and
// the buffer never holds more than the configured maximum, both enforced on
// every append.
//
// The recorder is deliberately failure-proof: double starts and stops
// without a start are logged warnings, never errors, so instrumentation can
// never take the surrounding application down.
package perf

import (
	"time"
)

// Kind classifies a sample.
type Kind int

const (
	// KindTiming is a duration measured by a trace or recorded directly.
	KindTiming Kind = iota

	// KindMemory is a byte magnitude, typically a cache size snapshot.
	KindMemory

	// KindCounter is a unitless magnitude, typically an entry count.
	KindCounter

	// KindNetwork is a duration or magnitude attributed to network work.
	KindNetwork
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindTiming:
		return "timing"
	case KindMemory:
		return "memory"
	case KindCounter:
		return "counter"
	case KindNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// Sample is a single recorded measurement.
type Sample struct {
	// Name identifies the measured operation or resource.
	Name string

	// Kind classifies the sample.
	Kind Kind

	// Duration holds the measured time for timing and network samples.
	Duration time.Duration

	// Value holds the magnitude for memory and counter samples.
	Value float64

	// Timestamp is when the sample was recorded.
	Timestamp time.Time
}

// Millis returns the sample's magnitude normalized for averaging:
// milliseconds for duration-carrying kinds, the raw value otherwise.
func (s Sample) Millis() float64 {
	if s.Kind == KindTiming || (s.Kind == KindNetwork && s.Duration != 0) {
		return float64(s.Duration.Microseconds()) / 1000.0
	}
	return s.Value
}

// TimingSample builds a timing sample.
func TimingSample(name string, d time.Duration, at time.Time) Sample {
	return Sample{Name: name, Kind: KindTiming, Duration: d, Timestamp: at}
}

// MemorySample builds a memory sample.
func MemorySample(name string, bytes uint64, at time.Time) Sample {
	return Sample{Name: name, Kind: KindMemory, Value: float64(bytes), Timestamp: at}
}

// CounterSample builds a counter sample.
func CounterSample(name string, count int, at time.Time) Sample {
	return Sample{Name: name, Kind: KindCounter, Value: float64(count), Timestamp: at}
}
