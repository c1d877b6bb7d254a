package imagecache

import (
	"context"

	"github.com/ronospace/flowcache/internal/logger"
)

// Asset is a critical image supplied by application startup code.
type Asset struct {
	// Key is the cache key the asset will be served under.
	Key string

	// Data is the raw encoded image.
	Data []byte
}

// PreloadCriticalAssets decodes and caches each asset through the normal
// decode path so first paint never waits on a decode.
//
// Per-asset failures are logged and skipped; the return value is the
// number of assets successfully cached.
func (c *Cache) PreloadCriticalAssets(ctx context.Context, assets []Asset) int {
	loaded := 0
	for _, a := range assets {
		if err := ctx.Err(); err != nil {
			logger.Warn("imagecache: preload interrupted",
				"loaded", loaded, "remaining", len(assets)-loaded, "error", err)
			return loaded
		}

		if _, ok := c.CacheOptimizedImage(ctx, a.Key, a.Data, DecodeOptions{}); ok {
			loaded++
		} else {
			logger.Warn("imagecache: critical asset failed to preload", "key", a.Key)
		}
	}

	if loaded > 0 {
		logger.Info("imagecache: critical assets preloaded",
			"loaded", loaded, "total", len(assets))
	}
	return loaded
}
