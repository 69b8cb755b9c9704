package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Search.CaseSensitive || cfg.Search.Regex || cfg.Search.WholeWord {
		t.Errorf("Search defaults = %+v, want all matching flags off", cfg.Search)
	}
	if cfg.Search.MaxSizeBytes != 0 {
		t.Errorf("MaxSizeBytes = %d, want 0 (no cap)", cfg.Search.MaxSizeBytes)
	}
	if cfg.Engine.FlushInterval != 30*time.Millisecond {
		t.Errorf("FlushInterval = %v, want 30ms", cfg.Engine.FlushInterval)
	}
	if cfg.Engine.ResultBatch != 12 || cfg.Engine.ProblemBatch != 50 {
		t.Errorf("batch caps = %d/%d, want 12/50", cfg.Engine.ResultBatch, cfg.Engine.ProblemBatch)
	}
	if cfg.Engine.BufferLimit != 4096 || cfg.Engine.Overflow != "block" {
		t.Errorf("buffer = %d/%s, want 4096/block", cfg.Engine.BufferLimit, cfg.Engine.Overflow)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
	if !cfg.History.Enabled || cfg.History.MaxRuns != 100 {
		t.Errorf("History = %+v, want enabled with 100 retained runs", cfg.History)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() error = %v", err)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v, want defaults for a missing file", err)
	}
	if cfg.Engine.FlushInterval != 30*time.Millisecond {
		t.Errorf("missing file did not yield defaults: %+v", cfg.Engine)
	}
}

func TestLoadConfigFull(t *testing.T) {
	path := writeConfig(t, `
search:
  case_sensitive: true
  regex: true
  whole_word: true
  match_names: true
  include_hidden: true
  max_size_bytes: 1048576
engine:
  threads: 4
  queue_size: 16
  flush_interval: 45ms
  result_batch: 20
  problem_batch: 10
  buffer_limit: 512
  overflow: drop-oldest
log:
  level: debug
  file_enabled: true
history:
  enabled: false
  max_runs: 5
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if !cfg.Search.CaseSensitive || !cfg.Search.Regex || !cfg.Search.WholeWord ||
		!cfg.Search.MatchNames || !cfg.Search.IncludeHidden {
		t.Errorf("Search = %+v, want every flag on", cfg.Search)
	}
	if cfg.Search.MaxSizeBytes != 1048576 {
		t.Errorf("MaxSizeBytes = %d, want 1048576", cfg.Search.MaxSizeBytes)
	}
	if cfg.Engine.Threads != 4 || cfg.Engine.QueueSize != 16 {
		t.Errorf("Engine = %+v, want threads 4 queue 16", cfg.Engine)
	}
	if cfg.Engine.FlushInterval != 45*time.Millisecond {
		t.Errorf("FlushInterval = %v, want 45ms", cfg.Engine.FlushInterval)
	}
	if cfg.Engine.Overflow != "drop-oldest" || cfg.Engine.BufferLimit != 512 {
		t.Errorf("overflow = %s/%d, want drop-oldest/512", cfg.Engine.Overflow, cfg.Engine.BufferLimit)
	}
	if cfg.Log.Level != "debug" || !cfg.Log.FileEnabled {
		t.Errorf("Log = %+v, want debug with file output", cfg.Log)
	}
	if cfg.History.Enabled {
		t.Error("History.Enabled = true, want the explicit false to override the default")
	}
	if cfg.History.MaxRuns != 5 {
		t.Errorf("History.MaxRuns = %d, want 5", cfg.History.MaxRuns)
	}
}

func TestLoadConfigPartial(t *testing.T) {
	path := writeConfig(t, `
engine:
  threads: 2
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Engine.Threads != 2 {
		t.Errorf("Threads = %d, want 2", cfg.Engine.Threads)
	}
	// Everything else keeps its default.
	if cfg.Engine.FlushInterval != 30*time.Millisecond {
		t.Errorf("FlushInterval = %v, want untouched default", cfg.Engine.FlushInterval)
	}
	if !cfg.History.Enabled {
		t.Error("History.Enabled flipped without being mentioned")
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	path := writeConfig(t, "engine: [not a map\n")
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("LoadConfig() error = nil for malformed YAML")
	}
}

func TestLoadConfigBadDuration(t *testing.T) {
	path := writeConfig(t, `
engine:
  flush_interval: soon
`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("LoadConfig() error = nil for an unparseable duration")
	}
}

func TestMergeWithFlags(t *testing.T) {
	cfg := DefaultConfig()

	caseSensitive := true
	maxSize := int64(2048)
	threads := 6
	cfg.MergeWithFlags(&caseSensitive, nil, nil, nil, nil, &maxSize, &threads, nil)

	if !cfg.Search.CaseSensitive {
		t.Error("CaseSensitive not overridden by flag")
	}
	if cfg.Search.Regex {
		t.Error("Regex changed by a nil flag")
	}
	if cfg.Search.MaxSizeBytes != 2048 {
		t.Errorf("MaxSizeBytes = %d, want 2048", cfg.Search.MaxSizeBytes)
	}
	if cfg.Engine.Threads != 6 {
		t.Errorf("Threads = %d, want 6", cfg.Engine.Threads)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want untouched default", cfg.Log.Level)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"negative max size", func(c *Config) { c.Search.MaxSizeBytes = -1 }, true},
		{"negative threads", func(c *Config) { c.Engine.Threads = -2 }, true},
		{"zero flush interval", func(c *Config) { c.Engine.FlushInterval = 0 }, true},
		{"zero result batch", func(c *Config) { c.Engine.ResultBatch = 0 }, true},
		{"zero buffer limit", func(c *Config) { c.Engine.BufferLimit = 0 }, true},
		{"unknown overflow", func(c *Config) { c.Engine.Overflow = "spill" }, true},
		{"unknown log level", func(c *Config) { c.Log.Level = "loud" }, true},
		{"negative history", func(c *Config) { c.History.MaxRuns = -1 }, true},
		{"drop-oldest overflow", func(c *Config) { c.Engine.Overflow = "drop-oldest" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestResolveThreads(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Engine.Threads = 4
	if got := cfg.ResolveThreads(); got != 4 {
		t.Errorf("ResolveThreads() = %d, want the explicit 4", got)
	}

	cfg.Engine.Threads = 0
	got := cfg.ResolveThreads()
	if got < 1 || got > 8 {
		t.Errorf("ResolveThreads() = %d, want auto value in [1,8]", got)
	}
}
