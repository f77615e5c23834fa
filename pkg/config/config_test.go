package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/sdejongh/dirmerge/pkg/models"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
	if cfg.Merge.Destination != "merged_result" {
		t.Errorf("Merge.Destination = %q, want merged_result", cfg.Merge.Destination)
	}
	if cfg.Merge.PreviewLines != 10 || cfg.Merge.DiffContext != 3 {
		t.Errorf("unexpected display defaults %+v", cfg.Merge)
	}
	if len(cfg.Scan.Exclude) != 14 {
		t.Errorf("len(Scan.Exclude) = %d, want 14", len(cfg.Scan.Exclude))
	}
	if !cfg.Scan.ExcludeHidden {
		t.Error("hidden directories should be excluded by default")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"algorithm", func(c *Config) { c.Scan.Algorithm = "crc32" }, "scan.algorithm"},
		{"workers", func(c *Config) { c.Scan.Workers = 0 }, "scan.workers"},
		{"buffer", func(c *Config) { c.Scan.BufferSize = 100 }, "scan.buffer_size"},
		{"exclude", func(c *Config) { c.Scan.Exclude = []string{"a/b"} }, "scan.exclude"},
		{"destination", func(c *Config) { c.Merge.Destination = "" }, "merge.destination"},
		{"strategy", func(c *Config) { c.Merge.Strategy = "newest" }, "merge.strategy"},
		{"preview", func(c *Config) { c.Merge.PreviewLines = 0 }, "merge.preview_lines"},
		{"context", func(c *Config) { c.Merge.DiffContext = -1 }, "merge.diff_context"},
		{"bandwidth", func(c *Config) { c.Merge.BandwidthLimit = "fast" }, "merge.bandwidth_limit"},
		{"format", func(c *Config) { c.Output.Format = "xml" }, "output.format"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"log level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"rotation", func(c *Config) { c.Logging.MaxBackups = -1 }, "logging.max_size_mb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			var verr *models.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() error = %v, want *ValidationError", err)
			}
			if verr.Field != tt.field {
				t.Errorf("Field = %q, want %q", verr.Field, tt.field)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Scan.Algorithm = models.HashMD5
	cfg.Scan.Exclude = []string{".git", "*.tmp"}
	cfg.Merge.Strategy = models.StrategyTakeB
	cfg.Merge.BandwidthLimit = "10MB/s"
	cfg.Output.Format = "json"

	if err := SaveToFile(cfg, path); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if !reflect.DeepEqual(cfg, loaded) {
		t.Errorf("loaded config differs:\n got %+v\nwant %+v", loaded, cfg)
	}
}

func TestLoadPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "merge:\n  preview_lines: 25\noutput:\n  color: false\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Merge.PreviewLines != 25 || cfg.Output.Color {
		t.Errorf("file values not applied: %+v %+v", cfg.Merge, cfg.Output)
	}
	if cfg.Merge.Destination != DefaultDestinationName || cfg.Scan.Workers != 4 {
		t.Errorf("defaults lost for missing keys: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for a missing explicit file")
	}

	bad := filepath.Join(dir, "bad.yaml")
	os.WriteFile(bad, []byte("scan: [unclosed"), 0644)
	if _, err := LoadFromFile(bad); err == nil || !strings.Contains(err.Error(), "parse") {
		t.Errorf("LoadFromFile() error = %v, want parse error", err)
	}

	invalid := filepath.Join(dir, "invalid.yaml")
	os.WriteFile(invalid, []byte("scan:\n  workers: 0\n"), 0644)
	if _, err := LoadFromFile(invalid); err == nil || !strings.Contains(err.Error(), "scan.workers") {
		t.Errorf("LoadFromFile() error = %v, want scan.workers validation error", err)
	}
}

func TestLoadDefaultLocation(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Error("missing default file should yield Default()")
	}

	path, err := DefaultConfigPath()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(home, ".config", "dirmerge", "config.yaml"); path != want {
		t.Errorf("DefaultConfigPath() = %q, want %q", path, want)
	}
}
