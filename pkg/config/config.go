// Package config loads and validates the flowcache configuration.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (FLOWCACHE_*)
//  2. Configuration file (YAML)
//  3. Default values
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ronospace/flowcache/internal/bytesize"
)

// Config represents the flowcache daemon configuration.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Metrics contains Prometheus metrics server configuration
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// Cache configures the generic keyed data store
	Cache CacheConfig `mapstructure:"cache" yaml:"cache"`

	// ImageCache configures the decoded-image store
	ImageCache ImageCacheConfig `mapstructure:"image_cache" yaml:"image_cache"`

	// Recorder configures the metrics/trace sample buffer
	Recorder RecorderConfig `mapstructure:"recorder" yaml:"recorder"`

	// Maintenance configures the periodic background jobs
	Maintenance MaintenanceConfig `mapstructure:"maintenance" yaml:"maintenance"`

	// PreloadAssets lists image files decoded into the image cache at
	// startup. Paths are read from disk by the start command.
	PreloadAssets []string `mapstructure:"preload_assets" yaml:"preload_assets,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// MetricsConfig configures the Prometheus metrics HTTP server.
// When Enabled is false, no metrics are collected (zero overhead).
type MetricsConfig struct {
	// Enabled controls whether metrics collection and HTTP server are enabled
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the HTTP port for the metrics endpoint
	// Default: 9090
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// CacheConfig configures the generic data store.
type CacheConfig struct {
	// MaxSize is the byte budget for the store.
	// Supports human-readable formats: "10MB", "512KiB". 0 = unlimited.
	MaxSize bytesize.ByteSize `mapstructure:"max_size" yaml:"max_size"`

	// DefaultTTL is the expiry applied to entries inserted without an
	// explicit TTL. Default: 15m
	DefaultTTL time.Duration `mapstructure:"default_ttl" validate:"omitempty,gt=0" yaml:"default_ttl"`

	// EvictionHeadroom is the fraction of MaxSize eviction trims down to.
	// Default: 0.8
	EvictionHeadroom float64 `mapstructure:"eviction_headroom" validate:"omitempty,gt=0,lte=1" yaml:"eviction_headroom"`
}

// ImageCacheConfig configures the decoded-image store.
type ImageCacheConfig struct {
	// HighWatermark is the entry count above which a batch trim triggers.
	// Default: 100
	HighWatermark int `mapstructure:"high_watermark" validate:"omitempty,gt=0" yaml:"high_watermark"`

	// TrimFraction is the share of HighWatermark dropped per trim.
	// Default: 0.5
	TrimFraction float64 `mapstructure:"trim_fraction" validate:"omitempty,gt=0,lt=1" yaml:"trim_fraction"`
}

// RecorderConfig configures the metrics recorder buffer.
type RecorderConfig struct {
	// RetentionWindow is the sliding window samples are retained for.
	// Default: 1h
	RetentionWindow time.Duration `mapstructure:"retention_window" validate:"omitempty,gt=0" yaml:"retention_window"`

	// MaxSamples caps the buffer length. Default: 1000
	MaxSamples int `mapstructure:"max_samples" validate:"omitempty,gt=0" yaml:"max_samples"`
}

// MaintenanceConfig configures the background job intervals.
type MaintenanceConfig struct {
	// ExpiryInterval is how often expired entries are swept. Default: 1h
	ExpiryInterval time.Duration `mapstructure:"expiry_interval" validate:"omitempty,gt=0" yaml:"expiry_interval"`

	// TrimInterval is how often the image trim runs. Default: 10m
	TrimInterval time.Duration `mapstructure:"trim_interval" validate:"omitempty,gt=0" yaml:"trim_interval"`

	// SnapshotInterval is how often a memory snapshot is recorded.
	// Default: 5m
	SnapshotInterval time.Duration `mapstructure:"snapshot_interval" validate:"omitempty,gt=0" yaml:"snapshot_interval"`
}

// Load loads configuration from file, environment, and defaults.
//
// An empty configPath uses the default location; a missing file is not an
// error and yields the defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	configFileFound, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	if !configFileFound {
		return GetDefaultConfig(), nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration with helpful error messages when the
// requested file does not exist.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please initialize a configuration file first:\n"+
				"  flowcached init\n\n"+
				"Or specify a custom config file:\n"+
				"  flowcached <command> --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s\n\n"+
				"Please create the configuration file:\n"+
				"  flowcached init --config %s",
				configPath, configPath)
		}
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to the specified file path in YAML.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setupViper configures viper with environment variables and config file
// settings. Environment variables use the FLOWCACHE_ prefix with
// underscores, e.g. FLOWCACHE_LOGGING_LEVEL=DEBUG.
func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("FLOWCACHE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
// Returns (fileFound, error).
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

// configDecodeHooks returns a combined decode hook for all custom types.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		durationDecodeHook(),
	)
}

// byteSizeDecodeHook converts strings and integers to bytesize.ByteSize,
// so config files can say "10MB" or "512KiB" or a plain number.
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return bytesize.Parse(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			// YAML often deserializes numbers as float64
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

// durationDecodeHook converts strings to time.Duration, so config files
// can say "30s", "5m", "1h".
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to the
// current directory if the home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "flowcache")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "flowcache")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks if a config file exists at the default location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for the
// init command).
func GetConfigDir() string {
	return getConfigDir()
}
