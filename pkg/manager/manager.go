// Package manager wires the cache stores, the recorder, and the
// maintenance scheduler into one owned unit with a single lifecycle.
//
// The composition root builds exactly one Manager from its loaded
// configuration and injects it where needed; there is no package-level
// singleton.
package manager

import (
	"context"

	"github.com/ronospace/flowcache/pkg/cache"
	"github.com/ronospace/flowcache/pkg/imagecache"
	"github.com/ronospace/flowcache/pkg/maintenance"
	"github.com/ronospace/flowcache/pkg/perf"
)

// Config aggregates the per-component configuration plus the optional
// collaborators the components accept.
type Config struct {
	Cache       cache.Config
	Images      imagecache.Config
	Recorder    perf.Config
	Maintenance maintenance.Config

	// Decoder decodes raw image bytes on cache misses. Nil selects
	// imagecache.StdDecoder.
	Decoder imagecache.Decoder

	// StoreMetrics observes the data store. Nil disables export.
	StoreMetrics cache.StoreMetrics

	// SnapshotMetrics receives memory snapshots. Nil disables export.
	SnapshotMetrics maintenance.SnapshotMetrics
}

// Manager owns the data store, the image cache, the recorder, and the
// scheduler that maintains them.
type Manager struct {
	data      *cache.Store
	images    *imagecache.Cache
	rec       *perf.Recorder
	scheduler *maintenance.Scheduler
}

// New builds a Manager and its components from cfg. The scheduler is not
// started; call Start.
func New(cfg Config) *Manager {
	data := cache.New(cfg.Cache, cfg.StoreMetrics)
	images := imagecache.New(cfg.Images, cfg.Decoder)
	rec := perf.NewRecorder(cfg.Recorder)

	return &Manager{
		data:      data,
		images:    images,
		rec:       rec,
		scheduler: maintenance.New(cfg.Maintenance, data, images, rec, cfg.SnapshotMetrics),
	}
}

// Start launches the maintenance jobs and records an initial memory
// snapshot. Idempotent.
func (m *Manager) Start(ctx context.Context) {
	m.scheduler.Start(ctx)
	m.scheduler.RunAll()
}

// Dispose stops maintenance and clears every store. Idempotent; safe to
// call without Start. After Dispose the manager reports zero usage.
func (m *Manager) Dispose() {
	m.scheduler.Dispose()
}

// Disposed reports whether Dispose has been called.
func (m *Manager) Disposed() bool {
	return m.scheduler.Disposed()
}

// MemoryUsage returns a point-in-time summary of everything the cache
// layer holds.
func (m *Manager) MemoryUsage() maintenance.MemoryUsage {
	return m.scheduler.Snapshot()
}

// Data returns the generic data store.
func (m *Manager) Data() *cache.Store {
	return m.data
}

// Images returns the decoded-image cache.
func (m *Manager) Images() *imagecache.Cache {
	return m.images
}

// Recorder returns the metrics recorder.
func (m *Manager) Recorder() *perf.Recorder {
	return m.rec
}

// Measure times fn under name in the recorder. Convenience passthrough
// for callers holding only the manager.
func (m *Manager) Measure(name string, fn func() error) error {
	return m.rec.Measure(name, fn)
}
