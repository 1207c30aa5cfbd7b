package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Target != "[@metadata][age]" {
		t.Errorf("Target = %q", cfg.Target)
	}
	if cfg.ExpiredTarget != "[@metadata][expired]" {
		t.Errorf("ExpiredTarget = %q", cfg.ExpiredTarget)
	}
	if cfg.AgeLimitTarget != "[@metadata][age_limit]" {
		t.Errorf("AgeLimitTarget = %q", cfg.AgeLimitTarget)
	}
	if cfg.URL != "" {
		t.Errorf("URL = %q, want empty (remote refresh disabled)", cfg.URL)
	}
	if cfg.LimitPath != "persistent.cluster.metadata.logstash.filter.age.limit_secs" {
		t.Errorf("LimitPath = %q", cfg.LimitPath)
	}
	if cfg.MaxAgeSecs != 259200 {
		t.Errorf("MaxAgeSecs = %v, want 259200", cfg.MaxAgeSecs)
	}
	if cfg.Interval != 60*time.Second {
		t.Errorf("Interval = %v, want 60s", cfg.Interval)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agegate.yaml")
	content := []byte(`
url: "http://limits.internal:9200/_cluster/settings"
limit_path: "a.b.limit"
max_age_secs: 3600
interval: 5m
username: reader
target: "[computed][age]"
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.URL != "http://limits.internal:9200/_cluster/settings" {
		t.Errorf("URL = %q", cfg.URL)
	}
	if cfg.LimitPath != "a.b.limit" {
		t.Errorf("LimitPath = %q", cfg.LimitPath)
	}
	if cfg.MaxAgeSecs != 3600 {
		t.Errorf("MaxAgeSecs = %v", cfg.MaxAgeSecs)
	}
	if cfg.Interval != 5*time.Minute {
		t.Errorf("Interval = %v", cfg.Interval)
	}
	if cfg.Username != "reader" {
		t.Errorf("Username = %q", cfg.Username)
	}
	if cfg.Target != "[computed][age]" {
		t.Errorf("Target = %q", cfg.Target)
	}
	// Unset options keep defaults.
	if cfg.ExpiredTarget != "[@metadata][expired]" {
		t.Errorf("ExpiredTarget = %q", cfg.ExpiredTarget)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("AGEGATE_MAX_AGE_SECS", "120")
	t.Setenv("AGEGATE_URL", "http://example.test/limits")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.MaxAgeSecs != 120 {
		t.Errorf("MaxAgeSecs = %v, want 120 from env", cfg.MaxAgeSecs)
	}
	if cfg.URL != "http://example.test/limits" {
		t.Errorf("URL = %q, want env value", cfg.URL)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"non-positive max_age_secs", "AGEGATE_MAX_AGE_SECS", "0"},
		{"negative max_age_secs", "AGEGATE_MAX_AGE_SECS", "-5"},
		{"non-positive interval", "AGEGATE_INTERVAL", "0s"},
		{"non-positive request_timeout", "AGEGATE_REQUEST_TIMEOUT", "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(""); err == nil {
				t.Errorf("Load() accepted %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/agegate.yaml"); err == nil {
		t.Error("Load() should fail for missing config file")
	}
}
