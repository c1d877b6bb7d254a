package config

import (
	"testing"
	"time"

	"github.com/ronospace/flowcache/internal/bytesize"
)

func TestApplyDefaults_EmptyConfig(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default level INFO, got %q", cfg.Logging.Level)
	}
	if cfg.Cache.MaxSize != 10*bytesize.MiB {
		t.Errorf("Expected default max size 10MiB, got %v", cfg.Cache.MaxSize)
	}
	if cfg.Cache.EvictionHeadroom != 0.8 {
		t.Errorf("Expected default headroom 0.8, got %v", cfg.Cache.EvictionHeadroom)
	}
	if cfg.ImageCache.TrimFraction != 0.5 {
		t.Errorf("Expected default trim fraction 0.5, got %v", cfg.ImageCache.TrimFraction)
	}
	if cfg.Recorder.RetentionWindow != time.Hour {
		t.Errorf("Expected default retention 1h, got %v", cfg.Recorder.RetentionWindow)
	}
	if cfg.Maintenance.ExpiryInterval != time.Hour {
		t.Errorf("Expected default expiry interval 1h, got %v", cfg.Maintenance.ExpiryInterval)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Logging.Level = "debug"
	cfg.Cache.MaxSize = bytesize.MiB

	ApplyDefaults(cfg)

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected level normalized to DEBUG, got %q", cfg.Logging.Level)
	}
	if cfg.Cache.MaxSize != bytesize.MiB {
		t.Errorf("Expected explicit max size preserved, got %v", cfg.Cache.MaxSize)
	}
}

func TestApplyDefaults_MetricsPortOnlyWhenEnabled(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Metrics.Port != 0 {
		t.Errorf("Disabled metrics should not get a port, got %d", cfg.Metrics.Port)
	}

	cfg = &Config{}
	cfg.Metrics.Enabled = true
	ApplyDefaults(cfg)
	if cfg.Metrics.Port != 9090 {
		t.Errorf("Enabled metrics should default to port 9090, got %d", cfg.Metrics.Port)
	}
}

func TestGetDefaultConfig_Validates(t *testing.T) {
	cfg := GetDefaultConfig()
	if err := Validate(cfg); err != nil {
		t.Errorf("Default config must validate: %v", err)
	}
}
