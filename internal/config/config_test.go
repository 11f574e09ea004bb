package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/l3aro/go-partial-extract/internal/log"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"Analysis.Concurrency", cfg.Analysis.Concurrency, 0},
		{"Analysis.MinSliceSize", cfg.Analysis.MinSliceSize, 0},
		{"Output.Format", cfg.Output.Format, FormatTable},
		{"Output.Color", cfg.Output.Color, true},
		{"Cache.Enabled", cfg.Cache.Enabled, true},
		{"Cache.MaxEntries", cfg.Cache.MaxEntries, 512},
		{"Log.Level", cfg.Log.Level, "warn"},
		{"Log.JSON", cfg.Log.JSON, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("DefaultConfig().%s = %v, want %v", tt.name, tt.got, tt.expected)
			}
		})
	}

	if cfg.Cache.Dir == "" {
		t.Error("DefaultConfig().Cache.Dir is empty")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v, want nil", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		wantErr     bool
		errContains string
	}{
		{
			name:   "defaults",
			mutate: func(*Config) {},
		},
		{
			name:        "negative concurrency",
			mutate:      func(c *Config) { c.Analysis.Concurrency = -1 },
			wantErr:     true,
			errContains: "analysis.concurrency",
		},
		{
			name:        "negative min slice size",
			mutate:      func(c *Config) { c.Analysis.MinSliceSize = -2 },
			wantErr:     true,
			errContains: "analysis.min_slice_size",
		},
		{
			name:        "unknown format",
			mutate:      func(c *Config) { c.Output.Format = "xml" },
			wantErr:     true,
			errContains: "output.format",
		},
		{
			name:        "enabled cache without dir",
			mutate:      func(c *Config) { c.Cache.Dir = "" },
			wantErr:     true,
			errContains: "cache.dir",
		},
		{
			name: "disabled cache without dir",
			mutate: func(c *Config) {
				c.Cache.Enabled = false
				c.Cache.Dir = ""
				c.Cache.MaxEntries = 0
			},
		},
		{
			name:        "zero max entries",
			mutate:      func(c *Config) { c.Cache.MaxEntries = 0 },
			wantErr:     true,
			errContains: "cache.max_entries",
		},
		{
			name:        "bad log level",
			mutate:      func(c *Config) { c.Log.Level = "loud" },
			wantErr:     true,
			errContains: "log.level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("Validate() error = %v, want it to contain %q", err, tt.errContains)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	tests := []struct {
		name        string
		configYAML  string
		envVars     map[string]string
		checkCfg    func(*testing.T, *Config)
		wantErr     bool
		errContains string
	}{
		{
			name: "load valid config from file",
			configYAML: `
analysis:
  concurrency: 4
  min_slice_size: 3
output:
  format: json
  color: false
cache:
  enabled: true
  dir: /tmp/gpx-cache
  max_entries: 64
log:
  level: debug
  json: true
`,
			checkCfg: func(t *testing.T, cfg *Config) {
				if cfg.Analysis.Concurrency != 4 {
					t.Errorf("Analysis.Concurrency = %v, want 4", cfg.Analysis.Concurrency)
				}
				if cfg.Analysis.MinSliceSize != 3 {
					t.Errorf("Analysis.MinSliceSize = %v, want 3", cfg.Analysis.MinSliceSize)
				}
				if cfg.Output.Format != FormatJSON {
					t.Errorf("Output.Format = %v, want json", cfg.Output.Format)
				}
				if cfg.Output.Color {
					t.Error("Output.Color = true, want false")
				}
				if cfg.Cache.Dir != "/tmp/gpx-cache" {
					t.Errorf("Cache.Dir = %v, want /tmp/gpx-cache", cfg.Cache.Dir)
				}
				if cfg.Cache.MaxEntries != 64 {
					t.Errorf("Cache.MaxEntries = %v, want 64", cfg.Cache.MaxEntries)
				}
				if cfg.LogLevel() != log.DebugLevel {
					t.Errorf("LogLevel() = %v, want DEBUG", cfg.LogLevel())
				}
				if !cfg.Log.JSON {
					t.Error("Log.JSON = false, want true")
				}
			},
		},
		{
			name: "partial config keeps defaults",
			configYAML: `
analysis:
  min_slice_size: 2
`,
			checkCfg: func(t *testing.T, cfg *Config) {
				if cfg.Analysis.MinSliceSize != 2 {
					t.Errorf("Analysis.MinSliceSize = %v, want 2", cfg.Analysis.MinSliceSize)
				}
				if cfg.Output.Format != FormatTable {
					t.Errorf("Output.Format = %v, want table", cfg.Output.Format)
				}
				if cfg.Cache.MaxEntries != 512 {
					t.Errorf("Cache.MaxEntries = %v, want 512", cfg.Cache.MaxEntries)
				}
			},
		},
		{
			name: "env overrides file",
			configYAML: `
output:
  format: json
`,
			envVars: map[string]string{
				"GPX_OUTPUT_FORMAT": "yaml",
				"GPX_CONCURRENCY":   "8",
				"GPX_CACHE_ENABLED": "false",
				"GPX_LOG_LEVEL":     "error",
			},
			checkCfg: func(t *testing.T, cfg *Config) {
				if cfg.Output.Format != FormatYAML {
					t.Errorf("Output.Format = %v, want yaml", cfg.Output.Format)
				}
				if cfg.Analysis.Concurrency != 8 {
					t.Errorf("Analysis.Concurrency = %v, want 8", cfg.Analysis.Concurrency)
				}
				if cfg.Cache.Enabled {
					t.Error("Cache.Enabled = true, want false")
				}
				if cfg.LogLevel() != log.ErrorLevel {
					t.Errorf("LogLevel() = %v, want ERROR", cfg.LogLevel())
				}
			},
		},
		{
			name:        "invalid env integer",
			configYAML:  "{}\n",
			envVars:     map[string]string{"GPX_CONCURRENCY": "many"},
			wantErr:     true,
			errContains: "GPX_CONCURRENCY",
		},
		{
			name:        "invalid yaml",
			configYAML:  "analysis: [1, 2\n",
			wantErr:     true,
			errContains: "failed to parse config file",
		},
		{
			name: "invalid values",
			configYAML: `
output:
  format: xml
`,
			wantErr:     true,
			errContains: "output.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.configYAML), 0644); err != nil {
				t.Fatalf("failed to write config: %v", err)
			}

			cfg, err := LoadFromFile(path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("LoadFromFile() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("LoadFromFile() error = %v, want it to contain %q", err, tt.errContains)
				}
				return
			}
			tt.checkCfg(t, cfg)
		})
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil || !strings.Contains(err.Error(), "failed to read config file") {
		t.Errorf("LoadFromFile() error = %v, want read failure", err)
	}
}

func TestLoadLayers(t *testing.T) {
	home := t.TempDir()
	project := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("GPX_CACHE_DIR", "")

	global := DefaultConfig()
	global.Analysis.MinSliceSize = 2
	global.Output.Format = FormatJSON
	if err := global.Save(filepath.Join(home, ".gpx", "config.yaml")); err != nil {
		t.Fatalf("Save() = %v", err)
	}

	local := []byte("output:\n  format: yaml\n")
	if err := os.MkdirAll(filepath.Join(project, ".gpx"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(project, ".gpx", "config.yaml"), local, 0644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(project)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if cfg.Analysis.MinSliceSize != 2 {
		t.Errorf("Analysis.MinSliceSize = %v, want 2 from the global file", cfg.Analysis.MinSliceSize)
	}
	if cfg.Output.Format != FormatYAML {
		t.Errorf("Output.Format = %v, want yaml from the project file", cfg.Output.Format)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Analysis.Concurrency = 3
	cfg.Cache.Dir = "/var/cache/gpx"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() = %v", err)
	}

	got, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() = %v", err)
	}
	if *got != *cfg {
		t.Errorf("LoadFromFile() = %+v, want %+v", got, cfg)
	}
}
