package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := loadDefaults()
	if err != nil {
		t.Fatalf("loadDefaults: %v", err)
	}
	if len(cfg.Sources) == 0 {
		t.Error("expected default sources")
	}
	if cfg.CacheTTL == "" {
		t.Error("expected cache_ttl to be set")
	}
	if cfg.TargetLang != "" {
		t.Errorf("expected translation disabled by default, got %q", cfg.TargetLang)
	}
}

func TestTTL(t *testing.T) {
	tests := []struct {
		input string
		want  time.Duration
	}{
		{"15m", 15 * time.Minute},
		{"900s", 900 * time.Second},
		{"0s", 0},
		{"-1m", -time.Minute},
		{"invalid", 15 * time.Minute},
		{"", 15 * time.Minute},
	}
	for _, tt := range tests {
		cfg := &Config{CacheTTL: tt.input}
		if got := cfg.TTL(); got != tt.want {
			t.Errorf("TTL(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestDerivedDefaults(t *testing.T) {
	cfg := &Config{}
	if got := cfg.Concurrency(); got != 8 {
		t.Errorf("expected default concurrency 8, got %d", got)
	}
	if got := cfg.PerSourceLimit(); got != 50 {
		t.Errorf("expected default per-source limit 50, got %d", got)
	}
	cfg = &Config{MaxConcurrent: 3, ItemsPerSource: 10}
	if got := cfg.Concurrency(); got != 3 {
		t.Errorf("expected concurrency 3, got %d", got)
	}
	if got := cfg.PerSourceLimit(); got != 10 {
		t.Errorf("expected per-source limit 10, got %d", got)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `cache_ttl: 2h
cache_dir: ` + dir + `
sources:
  - name: Test
    url: https://example.com/feed
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CacheTTL != "2h" {
		t.Errorf("expected 2h, got %s", cfg.CacheTTL)
	}
	if len(cfg.Sources) != 1 || cfg.Sources[0].Name != "Test" {
		t.Errorf("unexpected sources: %v", cfg.Sources)
	}
	// Unset knobs come from defaults.
	if cfg.ItemsPerSource != 50 {
		t.Errorf("expected default items_per_source, got %d", cfg.ItemsPerSource)
	}
}

func TestLoadNonexistentFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Sources) == 0 {
		t.Error("expected default sources when config doesn't exist")
	}
	// First run writes the defaults out for editing.
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected defaults written to %s: %v", path, err)
	}
}

func TestEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `cache_ttl: 2h
cache_dir: ` + dir + `
sources:
  - name: Test
    url: https://example.com/feed
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	t.Setenv("NEWS_CACHE_TTL", "900")
	t.Setenv("NEWS_TARGET_LANG", "ru")
	t.Setenv("NEWS_ITEMS_PER_SOURCE", "25")
	t.Setenv("NEWS_MAX_CONCURRENT", "4")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TTL() != 900*time.Second {
		t.Errorf("expected env TTL to beat file value, got %v", cfg.TTL())
	}
	if cfg.TargetLang != "ru" {
		t.Errorf("expected target lang ru, got %q", cfg.TargetLang)
	}
	if cfg.ItemsPerSource != 25 {
		t.Errorf("expected 25 items per source, got %d", cfg.ItemsPerSource)
	}
	if cfg.MaxConcurrent != 4 {
		t.Errorf("expected concurrency 4, got %d", cfg.MaxConcurrent)
	}
}

func TestValidateMissingName(t *testing.T) {
	cfg := &Config{Sources: []Source{{URL: "https://example.com"}}}
	if err := validate(cfg); err == nil {
		t.Error("expected error for missing name")
	}
}

func TestValidateMissingURL(t *testing.T) {
	cfg := &Config{Sources: []Source{{Name: "Test"}}}
	if err := validate(cfg); err == nil {
		t.Error("expected error for missing URL")
	}
}

func TestValidateInvalidScheme(t *testing.T) {
	cfg := &Config{Sources: []Source{{Name: "Test", URL: "file:///etc/passwd"}}}
	if err := validate(cfg); err == nil {
		t.Error("expected error for file:// URL scheme")
	}
}

func TestValidateAcceptsHTTPAndHTTPS(t *testing.T) {
	for _, u := range []string{"http://example.com/feed", "https://example.com/feed"} {
		cfg := &Config{Sources: []Source{{Name: "Test", URL: u}}}
		if err := validate(cfg); err != nil {
			t.Errorf("unexpected error for %s: %v", u, err)
		}
	}
}
