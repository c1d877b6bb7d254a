package config

import (
	"strings"

	"github.com/ronospace/flowcache/internal/bytesize"
	"github.com/ronospace/flowcache/pkg/cache"
	"github.com/ronospace/flowcache/pkg/imagecache"
	"github.com/ronospace/flowcache/pkg/maintenance"
	"github.com/ronospace/flowcache/pkg/perf"
)

// ApplyDefaults sets default values for any unspecified configuration
// fields. Called after loading from file and environment so zero values
// are replaced while explicit values are preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyMetricsDefaults(&cfg.Metrics)
	applyCacheDefaults(&cfg.Cache)
	applyImageCacheDefaults(&cfg.ImageCache)
	applyRecorderDefaults(&cfg.Recorder)
	applyMaintenanceDefaults(&cfg.Maintenance)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyMetricsDefaults sets metrics defaults.
// Enabled defaults to false (opt-in); the port only matters when enabled.
func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Enabled && cfg.Port == 0 {
		cfg.Port = 9090
	}
}

func applyCacheDefaults(cfg *CacheConfig) {
	if cfg.MaxSize == 0 {
		cfg.MaxSize = bytesize.ByteSize(cache.DefaultMaxSize)
	}
	if cfg.DefaultTTL == 0 {
		cfg.DefaultTTL = cache.DefaultTTL
	}
	if cfg.EvictionHeadroom == 0 {
		cfg.EvictionHeadroom = cache.DefaultEvictionHeadroom
	}
}

func applyImageCacheDefaults(cfg *ImageCacheConfig) {
	if cfg.HighWatermark == 0 {
		cfg.HighWatermark = imagecache.DefaultHighWatermark
	}
	if cfg.TrimFraction == 0 {
		cfg.TrimFraction = imagecache.DefaultTrimFraction
	}
}

func applyRecorderDefaults(cfg *RecorderConfig) {
	if cfg.RetentionWindow == 0 {
		cfg.RetentionWindow = perf.DefaultRetentionWindow
	}
	if cfg.MaxSamples == 0 {
		cfg.MaxSamples = perf.DefaultMaxSamples
	}
}

func applyMaintenanceDefaults(cfg *MaintenanceConfig) {
	if cfg.ExpiryInterval == 0 {
		cfg.ExpiryInterval = maintenance.DefaultExpiryInterval
	}
	if cfg.TrimInterval == 0 {
		cfg.TrimInterval = maintenance.DefaultTrimInterval
	}
	if cfg.SnapshotInterval == 0 {
		cfg.SnapshotInterval = maintenance.DefaultSnapshotInterval
	}
}

// GetDefaultConfig returns a Config struct with all default values
// applied. Useful for generating sample configuration files and for
// testing.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
