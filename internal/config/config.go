package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// SearchConfig holds the default matching options applied to every
// request unless flags override them.
type SearchConfig struct {
	// CaseSensitive disables case folding
	CaseSensitive bool `yaml:"case_sensitive"`

	// Regex treats patterns as regular expressions instead of literals
	Regex bool `yaml:"regex"`

	// WholeWord restricts literal hits to free-standing occurrences
	WholeWord bool `yaml:"whole_word"`

	// MatchNames enables the file-name fast path
	MatchNames bool `yaml:"match_names"`

	// IncludeHidden disables hidden file and directory filtering
	IncludeHidden bool `yaml:"include_hidden"`

	// MaxSizeBytes caps the size of files read into memory (0 = no cap)
	MaxSizeBytes int64 `yaml:"max_size_bytes"`
}

// EngineConfig tunes the worker pool and the batching aggregator.
type EngineConfig struct {
	// Threads is the worker count (0 = auto: min(8, NumCPU))
	Threads int `yaml:"threads"`

	// QueueSize bounds the dispatch queue (0 = match thread count)
	QueueSize int `yaml:"queue_size"`

	// FlushInterval is the aggregator pacing tick
	FlushInterval time.Duration `yaml:"flush_interval"`

	// ResultBatch caps results released per tick
	ResultBatch int `yaml:"result_batch"`

	// ProblemBatch caps problems released per tick
	ProblemBatch int `yaml:"problem_batch"`

	// BufferLimit bounds the aggregator buffers
	BufferLimit int `yaml:"buffer_limit"`

	// Overflow picks the full-buffer behavior: "block" or "drop-oldest"
	Overflow string `yaml:"overflow"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	// Level sets the logging verbosity (trace, debug, info, warn, error)
	Level string `yaml:"level"`

	// Dir is the directory for run log files (empty = <home>/logs)
	Dir string `yaml:"dir"`

	// FileEnabled also writes a per-run log file
	FileEnabled bool `yaml:"file_enabled"`
}

// HistoryConfig controls run history persistence.
type HistoryConfig struct {
	// Enabled records completed runs in the history database
	Enabled bool `yaml:"enabled"`

	// DBPath is the history database path (empty = <home>/history/runs.db)
	DBPath string `yaml:"db_path"`

	// MaxRuns is the number of runs retained (0 = keep everything)
	MaxRuns int `yaml:"max_runs"`
}

// Config represents searchex configuration options
type Config struct {
	// Search contains default matching options
	Search SearchConfig `yaml:"search"`

	// Engine contains worker pool and aggregator tuning
	Engine EngineConfig `yaml:"engine"`

	// Log contains logging configuration
	Log LogConfig `yaml:"log"`

	// History contains run history configuration
	History HistoryConfig `yaml:"history"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		Search: SearchConfig{
			CaseSensitive: false,
			Regex:         false,
			WholeWord:     false,
			MatchNames:    false,
			IncludeHidden: false,
			MaxSizeBytes:  0, // No cap
		},
		Engine: EngineConfig{
			Threads:       0, // Auto
			QueueSize:     0, // Match thread count
			FlushInterval: 30 * time.Millisecond,
			ResultBatch:   12,
			ProblemBatch:  50,
			BufferLimit:   4096,
			Overflow:      "block",
		},
		Log: LogConfig{
			Level:       "info",
			Dir:         "",
			FileEnabled: false,
		},
		History: HistoryConfig{
			Enabled: true,
			DBPath:  "",
			MaxRuns: 100,
		},
	}
}

// DefaultThreads resolves the automatic worker count: the machine's
// CPU count capped at 8.
func DefaultThreads() int {
	n := runtime.NumCPU()
	if n > 8 {
		return 8
	}
	if n < 1 {
		return 1
	}
	return n
}

// ResolveThreads returns the configured worker count, falling back to
// DefaultThreads when unset.
func (c *Config) ResolveThreads() int {
	if c.Engine.Threads > 0 {
		return c.Engine.Threads
	}
	return DefaultThreads()
}

// LoadConfig loads configuration from the specified file path
// If the file doesn't exist, returns default configuration without error
// If the file exists but is malformed, returns an error
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		// File doesn't exist, return defaults (not an error)
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Use a temporary struct to handle duration parsing
	type yamlEngine struct {
		Threads       int    `yaml:"threads"`
		QueueSize     int    `yaml:"queue_size"`
		FlushInterval string `yaml:"flush_interval"`
		ResultBatch   int    `yaml:"result_batch"`
		ProblemBatch  int    `yaml:"problem_batch"`
		BufferLimit   int    `yaml:"buffer_limit"`
		Overflow      string `yaml:"overflow"`
	}
	type yamlConfig struct {
		Search  SearchConfig  `yaml:"search"`
		Engine  yamlEngine    `yaml:"engine"`
		Log     LogConfig     `yaml:"log"`
		History HistoryConfig `yaml:"history"`
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Merge non-zero engine values over the defaults.
	if yamlCfg.Engine.Threads != 0 {
		cfg.Engine.Threads = yamlCfg.Engine.Threads
	}
	if yamlCfg.Engine.QueueSize != 0 {
		cfg.Engine.QueueSize = yamlCfg.Engine.QueueSize
	}
	if yamlCfg.Engine.FlushInterval != "" {
		interval, err := time.ParseDuration(yamlCfg.Engine.FlushInterval)
		if err != nil {
			return nil, fmt.Errorf("invalid flush_interval format %q: %w", yamlCfg.Engine.FlushInterval, err)
		}
		cfg.Engine.FlushInterval = interval
	}
	if yamlCfg.Engine.ResultBatch != 0 {
		cfg.Engine.ResultBatch = yamlCfg.Engine.ResultBatch
	}
	if yamlCfg.Engine.ProblemBatch != 0 {
		cfg.Engine.ProblemBatch = yamlCfg.Engine.ProblemBatch
	}
	if yamlCfg.Engine.BufferLimit != 0 {
		cfg.Engine.BufferLimit = yamlCfg.Engine.BufferLimit
	}
	if yamlCfg.Engine.Overflow != "" {
		cfg.Engine.Overflow = yamlCfg.Engine.Overflow
	}
	if yamlCfg.Log.Level != "" {
		cfg.Log.Level = yamlCfg.Log.Level
	}
	if yamlCfg.Log.Dir != "" {
		cfg.Log.Dir = yamlCfg.Log.Dir
	}
	if yamlCfg.History.DBPath != "" {
		cfg.History.DBPath = yamlCfg.History.DBPath
	}
	if yamlCfg.History.MaxRuns != 0 {
		cfg.History.MaxRuns = yamlCfg.History.MaxRuns
	}

	// Boolean fields default-merge wrong through zero values, so the
	// sections are re-checked for key presence before being applied.
	var rawMap map[string]interface{}
	if err := yaml.Unmarshal(data, &rawMap); err == nil {
		if section, exists := rawMap["search"]; exists && section != nil {
			searchMap, _ := section.(map[string]interface{})
			if _, ok := searchMap["case_sensitive"]; ok {
				cfg.Search.CaseSensitive = yamlCfg.Search.CaseSensitive
			}
			if _, ok := searchMap["regex"]; ok {
				cfg.Search.Regex = yamlCfg.Search.Regex
			}
			if _, ok := searchMap["whole_word"]; ok {
				cfg.Search.WholeWord = yamlCfg.Search.WholeWord
			}
			if _, ok := searchMap["match_names"]; ok {
				cfg.Search.MatchNames = yamlCfg.Search.MatchNames
			}
			if _, ok := searchMap["include_hidden"]; ok {
				cfg.Search.IncludeHidden = yamlCfg.Search.IncludeHidden
			}
			if _, ok := searchMap["max_size_bytes"]; ok {
				cfg.Search.MaxSizeBytes = yamlCfg.Search.MaxSizeBytes
			}
		}
		if section, exists := rawMap["log"]; exists && section != nil {
			logMap, _ := section.(map[string]interface{})
			if _, ok := logMap["file_enabled"]; ok {
				cfg.Log.FileEnabled = yamlCfg.Log.FileEnabled
			}
		}
		if section, exists := rawMap["history"]; exists && section != nil {
			historyMap, _ := section.(map[string]interface{})
			if _, ok := historyMap["enabled"]; ok {
				cfg.History.Enabled = yamlCfg.History.Enabled
			}
		}
	}

	return cfg, nil
}

// LoadConfigFromHome loads configuration from config.yaml in the
// searchex home directory. A missing file yields defaults.
func LoadConfigFromHome() (*Config, error) {
	home, err := GetSearchexHome()
	if err != nil {
		return nil, err
	}
	return LoadConfig(filepath.Join(home, "config.yaml"))
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values
// This allows CLI flags to take precedence over config file settings
func (c *Config) MergeWithFlags(caseSensitive, regex, wholeWord, matchNames, includeHidden *bool, maxSize *int64, threads *int, logLevel *string) {
	if caseSensitive != nil {
		c.Search.CaseSensitive = *caseSensitive
	}
	if regex != nil {
		c.Search.Regex = *regex
	}
	if wholeWord != nil {
		c.Search.WholeWord = *wholeWord
	}
	if matchNames != nil {
		c.Search.MatchNames = *matchNames
	}
	if includeHidden != nil {
		c.Search.IncludeHidden = *includeHidden
	}
	if maxSize != nil {
		c.Search.MaxSizeBytes = *maxSize
	}
	if threads != nil {
		c.Engine.Threads = *threads
	}
	if logLevel != nil {
		c.Log.Level = *logLevel
	}
}

// Validate validates the configuration values
// Returns an error if any values are invalid
func (c *Config) Validate() error {
	if c.Search.MaxSizeBytes < 0 {
		return fmt.Errorf("search.max_size_bytes must be >= 0, got %d", c.Search.MaxSizeBytes)
	}

	if c.Engine.Threads < 0 {
		return fmt.Errorf("engine.threads must be >= 0, got %d", c.Engine.Threads)
	}
	if c.Engine.QueueSize < 0 {
		return fmt.Errorf("engine.queue_size must be >= 0, got %d", c.Engine.QueueSize)
	}
	if c.Engine.FlushInterval <= 0 {
		return fmt.Errorf("engine.flush_interval must be > 0, got %v", c.Engine.FlushInterval)
	}
	if c.Engine.ResultBatch <= 0 {
		return fmt.Errorf("engine.result_batch must be > 0, got %d", c.Engine.ResultBatch)
	}
	if c.Engine.ProblemBatch <= 0 {
		return fmt.Errorf("engine.problem_batch must be > 0, got %d", c.Engine.ProblemBatch)
	}
	if c.Engine.BufferLimit <= 0 {
		return fmt.Errorf("engine.buffer_limit must be > 0, got %d", c.Engine.BufferLimit)
	}
	if c.Engine.Overflow != "block" && c.Engine.Overflow != "drop-oldest" {
		return fmt.Errorf("invalid engine.overflow %q, must be one of: block, drop-oldest", c.Engine.Overflow)
	}

	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.Log.Level] {
		return fmt.Errorf("invalid log.level %q, must be one of: trace, debug, info, warn, error", c.Log.Level)
	}

	if c.History.MaxRuns < 0 {
		return fmt.Errorf("history.max_runs must be >= 0, got %d", c.History.MaxRuns)
	}

	return nil
}
