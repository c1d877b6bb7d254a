package commands

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ronospace/flowcache/internal/logger"
	"github.com/ronospace/flowcache/pkg/cache"
	"github.com/ronospace/flowcache/pkg/config"
	"github.com/ronospace/flowcache/pkg/imagecache"
	"github.com/ronospace/flowcache/pkg/maintenance"
	"github.com/ronospace/flowcache/pkg/manager"
	"github.com/ronospace/flowcache/pkg/metrics"
	"github.com/ronospace/flowcache/pkg/perf"

	// Import prometheus metrics to register init() functions
	_ "github.com/ronospace/flowcache/pkg/metrics/prometheus"
)

var watchConfig bool

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the flowcache daemon",
	Long: `Start the flowcache daemon with the specified configuration.

The daemon runs in the foreground. Use --config to specify a custom
configuration file, or it will use the default location at
$XDG_CONFIG_HOME/flowcache/config.yaml.

Examples:
  # Start with default config location
  flowcached start

  # Start with custom config
  flowcached start --config /etc/flowcache/config.yaml

  # Reload log settings when the config file changes
  flowcached start --watch

  # Use environment variables to override config
  FLOWCACHE_LOGGING_LEVEL=DEBUG flowcached start`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().BoolVar(&watchConfig, "watch", false, "Reload runtime-adjustable settings on config file changes")
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("Log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
	}

	m := manager.New(manager.Config{
		Cache: cache.Config{
			MaxSize:          cfg.Cache.MaxSize.Bytes(),
			DefaultTTL:       cfg.Cache.DefaultTTL,
			EvictionHeadroom: cfg.Cache.EvictionHeadroom,
		},
		Images: imagecache.Config{
			HighWatermark: cfg.ImageCache.HighWatermark,
			TrimFraction:  cfg.ImageCache.TrimFraction,
		},
		Recorder: perf.Config{
			RetentionWindow: cfg.Recorder.RetentionWindow,
			MaxSamples:      cfg.Recorder.MaxSamples,
		},
		Maintenance: maintenance.Config{
			ExpiryInterval:   cfg.Maintenance.ExpiryInterval,
			TrimInterval:     cfg.Maintenance.TrimInterval,
			SnapshotInterval: cfg.Maintenance.SnapshotInterval,
		},
		StoreMetrics:    metrics.NewStoreMetrics(),
		SnapshotMetrics: metrics.NewSnapshotMetrics(),
	})
	defer m.Dispose()

	m.Start(ctx)

	if n := preloadAssets(ctx, m, cfg.PreloadAssets); n > 0 {
		logger.Info("Critical assets preloaded", "count", n)
	}

	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(cfg.Metrics.Port)
	}
	if metricsServer != nil {
		logger.Info("Metrics enabled", "port", cfg.Metrics.Port)
		go func() {
			if err := metricsServer.Start(); err != nil {
				logger.Error("Metrics server failed", "error", err)
			}
		}()
	} else {
		logger.Info("Metrics collection disabled")
	}

	if watchConfig {
		watcher := config.NewWatcher(resolveConfigPath())
		if err := watcher.Start(); err != nil {
			logger.Warn("Config watch unavailable", "error", err)
		} else {
			defer watcher.Stop()
		}
	}

	usage := m.MemoryUsage()
	logger.Info("flowcache started",
		"cache_budget", cfg.Cache.MaxSize,
		"image_watermark", cfg.ImageCache.HighWatermark,
		"entries", usage.CacheEntries)

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("Shutdown signal received", "signal", sig.String())

	cancel()

	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Metrics server shutdown error", "error", err)
		}
	}

	m.Dispose()
	logger.Info("flowcache stopped")
	return nil
}

// preloadAssets reads the configured asset files and decodes them into
// the image cache. Unreadable files are logged and skipped.
func preloadAssets(ctx context.Context, m *manager.Manager, paths []string) int {
	if len(paths) == 0 {
		return 0
	}

	assets := make([]imagecache.Asset, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("Preload asset unreadable", "path", path, "error", err)
			continue
		}
		assets = append(assets, imagecache.Asset{
			Key:  filepath.Base(path),
			Data: data,
		})
	}

	return m.Images().PreloadCriticalAssets(ctx, assets)
}

// resolveConfigPath returns the config file path the daemon runs with.
func resolveConfigPath() string {
	if path := GetConfigFile(); path != "" {
		return path
	}
	return config.GetDefaultConfigPath()
}
