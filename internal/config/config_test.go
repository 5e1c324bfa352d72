package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vango-dev/ley/internal/errors"
)

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Scheduler.SliceMS != DefaultSliceMS {
		t.Errorf("Scheduler.SliceMS = %d, want %d", cfg.Scheduler.SliceMS, DefaultSliceMS)
	}
	if cfg.Inspect.Addr != DefaultInspectAddr {
		t.Errorf("Inspect.Addr = %q, want %q", cfg.Inspect.Addr, DefaultInspectAddr)
	}
	if cfg.Metrics.Namespace != DefaultNamespace {
		t.Errorf("Metrics.Namespace = %q, want %q", cfg.Metrics.Namespace, DefaultNamespace)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestLoadJSON(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := Load(tmpDir)
	if !errors.HasCode(err, "E120") {
		t.Fatalf("Load(empty dir) = %v, want E120", err)
	}

	configJSON := `{
  "scheduler": {"slice_ms": 8, "debug_hooks": true},
  "log": {"level": "debug"}
}
`
	if err := os.WriteFile(filepath.Join(tmpDir, JSONFileName), []byte(configJSON), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Slice() != 8*time.Millisecond {
		t.Errorf("Slice() = %v, want 8ms", cfg.Slice())
	}
	if !cfg.Scheduler.DebugHooks || cfg.Scheduler.Sync {
		t.Errorf("Scheduler = %+v", cfg.Scheduler)
	}
	if cfg.LogLevel() != slog.LevelDebug {
		t.Errorf("LogLevel() = %v, want debug", cfg.LogLevel())
	}
	// Unset sections keep their defaults.
	if cfg.Inspect.Addr != DefaultInspectAddr || cfg.Log.Format != "text" {
		t.Errorf("defaults not applied: %+v %+v", cfg.Inspect, cfg.Log)
	}
	if cfg.Path() != filepath.Join(tmpDir, JSONFileName) {
		t.Errorf("Path() = %q", cfg.Path())
	}
}

func TestLoadYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configYAML := `scheduler:
  sync: true
inspect:
  addr: ":9000"
metrics:
  namespace: ui
`
	if err := os.WriteFile(filepath.Join(tmpDir, YAMLFileName), []byte(configYAML), 0644); err != nil {
		t.Fatal(err)
	}
	if !Exists(tmpDir) {
		t.Fatal("Exists = false")
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if !cfg.Scheduler.Sync || cfg.Scheduler.SliceMS != DefaultSliceMS {
		t.Errorf("Scheduler = %+v", cfg.Scheduler)
	}
	if cfg.Inspect.Addr != ":9000" || cfg.Metrics.Namespace != "ui" {
		t.Errorf("Inspect = %+v, Metrics = %+v", cfg.Inspect, cfg.Metrics)
	}
}

func TestLoadInvalidFile(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"json", JSONFileName, `{"scheduler": `},
		{"yaml", YAMLFileName, "scheduler: [1, 2"},
		{"wrong type", JSONFileName, `{"scheduler": {"slice_ms": "fast"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadFile(path); !errors.HasCode(err, "E121") {
				t.Errorf("LoadFile = %v, want E121", err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"slice too small", func(c *Config) { c.Scheduler.SliceMS = 0 }, true},
		{"slice too large", func(c *Config) { c.Scheduler.SliceMS = MaxSliceMS + 1 }, true},
		{"bad namespace", func(c *Config) { c.Metrics.Namespace = "my-app" }, true},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, true},
		{"upper case level", func(c *Config) { c.Log.Level = "WARN" }, false},
		{"json format", func(c *Config) { c.Log.Format = "json" }, false},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr && !errors.HasCode(err, "E122") {
				t.Errorf("Validate() = %v, want E122", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	for _, name := range []string{JSONFileName, YAMLFileName} {
		t.Run(name, func(t *testing.T) {
			cfg := New()
			cfg.Scheduler.DebugHooks = true
			cfg.Log.Level = "warn"

			path := filepath.Join(t.TempDir(), name)
			if err := cfg.SaveTo(path); err != nil {
				t.Fatalf("SaveTo: %v", err)
			}
			loaded, err := LoadFile(path)
			if err != nil {
				t.Fatalf("LoadFile: %v", err)
			}
			if !loaded.Scheduler.DebugHooks || loaded.LogLevel() != slog.LevelWarn {
				t.Errorf("loaded = %+v", loaded)
			}
		})
	}
}
