package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/l3aro/go-partial-extract/internal/log"
)

// Output formats accepted by Output.Format.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Config holds all configuration for gpx
type Config struct {
	Analysis AnalysisConfig `yaml:"analysis"`
	Output   OutputConfig   `yaml:"output"`
	Cache    CacheConfig    `yaml:"cache"`
	Log      LogConfig      `yaml:"log"`
}

// AnalysisConfig tunes opportunity enumeration.
type AnalysisConfig struct {
	// Concurrency is the number of variables sliced in parallel; 0 means one per CPU
	Concurrency int `yaml:"concurrency" env:"GPX_CONCURRENCY"`

	// MinSliceSize drops opportunities with fewer statements
	MinSliceSize int `yaml:"min_slice_size" env:"GPX_MIN_SLICE_SIZE"`
}

// OutputConfig controls how reports are printed.
type OutputConfig struct {
	Format string `yaml:"format" env:"GPX_OUTPUT_FORMAT"`
	Color  bool   `yaml:"color" env:"GPX_COLOR"`
}

// CacheConfig controls the on-disk report cache.
type CacheConfig struct {
	Enabled    bool   `yaml:"enabled" env:"GPX_CACHE_ENABLED"`
	Dir        string `yaml:"dir" env:"GPX_CACHE_DIR"`
	MaxEntries int    `yaml:"max_entries" env:"GPX_CACHE_MAX_ENTRIES"`
}

// LogConfig controls the logger.
type LogConfig struct {
	Level string `yaml:"level" env:"GPX_LOG_LEVEL"`
	JSON  bool   `yaml:"json" env:"GPX_LOG_JSON"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			Concurrency:  0,
			MinSliceSize: 0,
		},
		Output: OutputConfig{
			Format: FormatTable,
			Color:  true,
		},
		Cache: CacheConfig{
			Enabled:    true,
			Dir:        defaultCacheDir(),
			MaxEntries: 512,
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

func defaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "gpx")
	}
	return filepath.Join(".gpx", "cache")
}

// GlobalConfigFilePath returns the global config file path (~/.gpx/config.yaml)
func GlobalConfigFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".gpx", "config.yaml")
	}
	return filepath.Join(home, ".gpx", "config.yaml")
}

// ProjectConfigFilePath returns the project-level config file path (./.gpx/config.yaml)
func ProjectConfigFilePath() string {
	return filepath.Join(".gpx", "config.yaml")
}

// Load reads configuration with the following priority (highest to lowest):
// 1. Environment variables
// 2. Project-level config (./.gpx/config.yaml)
// 3. Global config (~/.gpx/config.yaml)
// 4. Defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range []string{GlobalConfigFilePath(), ProjectConfigFilePath()} {
		if err := mergeFile(cfg, path, true); err != nil {
			return nil, err
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile reads configuration from a specific YAML file path
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := mergeFile(cfg, path, false); err != nil {
		return nil, err
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func mergeFile(cfg *Config, path string, optional bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Save writes the configuration to the specified YAML file path.
// It creates parent directories if they don't exist.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config
func applyEnvOverrides(cfg *Config) error {
	ints := []struct {
		name string
		dst  *int
	}{
		{"GPX_CONCURRENCY", &cfg.Analysis.Concurrency},
		{"GPX_MIN_SLICE_SIZE", &cfg.Analysis.MinSliceSize},
		{"GPX_CACHE_MAX_ENTRIES", &cfg.Cache.MaxEntries},
	}
	for _, e := range ints {
		if v := os.Getenv(e.name); v != "" {
			i, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s %q: %w", e.name, v, err)
			}
			*e.dst = i
		}
	}

	bools := []struct {
		name string
		dst  *bool
	}{
		{"GPX_COLOR", &cfg.Output.Color},
		{"GPX_CACHE_ENABLED", &cfg.Cache.Enabled},
		{"GPX_LOG_JSON", &cfg.Log.JSON},
	}
	for _, e := range bools {
		if v := os.Getenv(e.name); v != "" {
			*e.dst = v == "true" || v == "1" || v == "yes"
		}
	}

	if v := os.Getenv("GPX_OUTPUT_FORMAT"); v != "" {
		cfg.Output.Format = v
	}
	if v := os.Getenv("GPX_CACHE_DIR"); v != "" {
		cfg.Cache.Dir = v
	}
	if v := os.Getenv("GPX_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	return nil
}

// Validate checks that the configuration has valid required fields
func (c *Config) Validate() error {
	if c.Analysis.Concurrency < 0 {
		return fmt.Errorf("analysis.concurrency must be non-negative")
	}
	if c.Analysis.MinSliceSize < 0 {
		return fmt.Errorf("analysis.min_slice_size must be non-negative")
	}

	switch c.Output.Format {
	case FormatTable, FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("invalid output.format: %s (must be 'table', 'json' or 'yaml')", c.Output.Format)
	}

	if c.Cache.Enabled {
		if c.Cache.Dir == "" {
			return fmt.Errorf("cache.dir is required when the cache is enabled")
		}
		if c.Cache.MaxEntries <= 0 {
			return fmt.Errorf("cache.max_entries must be positive")
		}
	}

	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log.level: %w", err)
	}
	return nil
}

// LogLevel returns the configured level. Validate guarantees it parses.
func (c *Config) LogLevel() log.Level {
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.WarnLevel
	}
	return level
}
