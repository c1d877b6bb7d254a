package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// sampleConfig is the commented configuration template written by the
// init command. Values match the compiled-in defaults.
const sampleConfig = `# flowcache configuration
#
# Every option can be overridden with an environment variable:
#   FLOWCACHE_<SECTION>_<KEY>, e.g. FLOWCACHE_LOGGING_LEVEL=DEBUG

logging:
  # Minimum log level: DEBUG, INFO, WARN, ERROR
  level: "INFO"
  # Output format: text, json
  format: "text"
  # Destination: stdout, stderr, or a file path
  output: "stdout"

metrics:
  # Expose a Prometheus /metrics endpoint. Disabled deployments pay no
  # collection overhead.
  enabled: false
  port: 9090

cache:
  # Byte budget for the generic data store. Human-readable sizes accepted.
  max_size: "10MiB"
  # Expiry applied to entries inserted without an explicit TTL.
  default_ttl: "15m"
  # Fraction of max_size eviction trims down to.
  eviction_headroom: 0.8

image_cache:
  # Entry count above which the oldest images are dropped in one batch.
  high_watermark: 100
  # Share of the watermark removed per trim.
  trim_fraction: 0.5

recorder:
  # Sliding window metric samples are retained for.
  retention_window: "1h"
  # Hard cap on the sample buffer.
  max_samples: 1000

maintenance:
  # How often expired data-store entries are swept.
  expiry_interval: "1h"
  # How often the image-cache trim runs.
  trim_interval: "10m"
  # How often a memory snapshot is recorded.
  snapshot_interval: "5m"

# Image files decoded into the image cache at startup.
# preload_assets:
#   - /usr/share/flowcache/assets/logo.png
`

// InitConfig writes the sample configuration file to the default
// location and returns its path. Fails if the file already exists unless
// force is set.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath writes the sample configuration file to path.
func InitConfigToPath(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
