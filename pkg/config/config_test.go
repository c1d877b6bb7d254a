package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ronospace/flowcache/internal/bytesize"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return configPath
}

func TestLoad_AppliesDefaults(t *testing.T) {
	configPath := writeConfig(t, `
logging:
  level: "INFO"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default output 'stdout', got %q", cfg.Logging.Output)
	}
	if cfg.Cache.DefaultTTL != 15*time.Minute {
		t.Errorf("Expected default TTL 15m, got %v", cfg.Cache.DefaultTTL)
	}
	if cfg.ImageCache.HighWatermark != 100 {
		t.Errorf("Expected default high watermark 100, got %d", cfg.ImageCache.HighWatermark)
	}
	if cfg.Recorder.MaxSamples != 1000 {
		t.Errorf("Expected default max samples 1000, got %d", cfg.Recorder.MaxSamples)
	}
	if cfg.Maintenance.SnapshotInterval != 5*time.Minute {
		t.Errorf("Expected default snapshot interval 5m, got %v", cfg.Maintenance.SnapshotInterval)
	}
}

func TestLoad_HumanReadableSizes(t *testing.T) {
	configPath := writeConfig(t, `
cache:
  max_size: 64MiB
  default_ttl: 30m
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Cache.MaxSize != 64*bytesize.MiB {
		t.Errorf("Expected max_size 64MiB, got %v", cfg.Cache.MaxSize)
	}
	if cfg.Cache.DefaultTTL != 30*time.Minute {
		t.Errorf("Expected default_ttl 30m, got %v", cfg.Cache.DefaultTTL)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err != nil {
		t.Fatalf("Missing config file should not error: %v", err)
	}

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default level INFO, got %q", cfg.Logging.Level)
	}
}

func TestLoad_InvalidConfigRejected(t *testing.T) {
	configPath := writeConfig(t, `
logging:
  level: "LOUD"
`)

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected error for invalid log level")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	configPath := writeConfig(t, `
logging:
  level: "INFO"
`)

	t.Setenv("FLOWCACHE_LOGGING_LEVEL", "DEBUG")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected env override DEBUG, got %q", cfg.Logging.Level)
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := GetDefaultConfig()
	cfg.Metrics.Enabled = true
	cfg.Metrics.Port = 9191

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to reload saved config: %v", err)
	}

	if !loaded.Metrics.Enabled || loaded.Metrics.Port != 9191 {
		t.Errorf("Expected metrics enabled on port 9191, got %+v", loaded.Metrics)
	}
}

func TestMustLoad_MissingExplicitFile(t *testing.T) {
	_, err := MustLoad(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("Expected error for missing explicit config file")
	}
}
