package config

import (
	"embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

// Source is one configured feed: a display name and the feed URL.
type Source struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

type Config struct {
	// TargetLang enables best-effort translation of titles and
	// descriptions when non-empty (e.g. "ru").
	TargetLang string `yaml:"target_lang"`
	// CacheTTL is how long fetched feeds and the merged item list stay
	// fresh, as a Go duration string.
	CacheTTL       string   `yaml:"cache_ttl"`
	ItemsPerSource int      `yaml:"items_per_source"`
	CacheDir       string   `yaml:"cache_dir"`
	MaxConcurrent  int      `yaml:"max_concurrent"`
	Sources        []Source `yaml:"sources"`
}

// TTL returns the parsed cache TTL. Invalid values fall back to 15
// minutes; zero and negative values are returned as-is and mean
// "always stale".
func (c *Config) TTL() time.Duration {
	d, err := time.ParseDuration(c.CacheTTL)
	if err != nil {
		return 15 * time.Minute
	}
	return d
}

func (c *Config) Concurrency() int {
	if c.MaxConcurrent <= 0 {
		return 8
	}
	return c.MaxConcurrent
}

func (c *Config) PerSourceLimit() int {
	if c.ItemsPerSource <= 0 {
		return 50
	}
	return c.ItemsPerSource
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "news-agregator", "config.yaml")
}

func DefaultCacheDir() string {
	return filepath.Join(xdg.CacheHome, "news-agregator")
}

func loadDefaults() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

// Load reads the config file at path (the default path when empty),
// falling back to embedded defaults when the file does not exist, then
// applies NEWS_* environment overrides. On first run the defaults are
// written to the config path so users have something to edit.
func Load(path string) (*Config, error) {
	defaults, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = DefaultConfigPath()
	}

	cfg := defaults
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		cfg = &Config{}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
		fillMissing(cfg, defaults)
	case os.IsNotExist(err):
		// Non-fatal: just use embedded defaults
		_ = writeDefaults(path)
	default:
		return nil, fmt.Errorf("reading config: %w", err)
	}

	applyEnv(cfg)
	if cfg.CacheDir == "" {
		cfg.CacheDir = DefaultCacheDir()
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fillMissing(cfg, defaults *Config) {
	if cfg.CacheTTL == "" {
		cfg.CacheTTL = defaults.CacheTTL
	}
	if cfg.ItemsPerSource == 0 {
		cfg.ItemsPerSource = defaults.ItemsPerSource
	}
	if cfg.MaxConcurrent == 0 {
		cfg.MaxConcurrent = defaults.MaxConcurrent
	}
	if len(cfg.Sources) == 0 {
		cfg.Sources = defaults.Sources
	}
}

// applyEnv layers NEWS_* variables over the file values. NEWS_CACHE_TTL
// is plain seconds.
func applyEnv(cfg *Config) {
	if v := os.Getenv("NEWS_TARGET_LANG"); v != "" {
		cfg.TargetLang = v
	}
	if v := os.Getenv("NEWS_CACHE_TTL"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			cfg.CacheTTL = (time.Duration(secs) * time.Second).String()
		}
	}
	if v := os.Getenv("NEWS_ITEMS_PER_SOURCE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ItemsPerSource = n
		}
	}
	if v := os.Getenv("NEWS_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
	if v := os.Getenv("NEWS_MAX_CONCURRENT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxConcurrent = n
		}
	}
}

func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, _ := defaultConfigFS.ReadFile("default_config.yaml")
	return os.WriteFile(path, data, 0o644)
}

func validate(cfg *Config) error {
	for i, s := range cfg.Sources {
		if s.Name == "" {
			return fmt.Errorf("source %d: name is required", i)
		}
		if s.URL == "" {
			return fmt.Errorf("source %q: url is required", s.Name)
		}
		u, err := url.Parse(s.URL)
		if err != nil {
			return fmt.Errorf("source %q: invalid url: %w", s.Name, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("source %q: url scheme must be http or https, got %q", s.Name, u.Scheme)
		}
	}
	return nil
}
