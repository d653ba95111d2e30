// Package config loads the haes runtime configuration from YAML with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all haes configuration.
type Config struct {
	// DataDir is where the evolution snapshot and backups live.
	DataDir string `yaml:"data_dir"`

	// Routing configuration
	Routing RoutingConfig `yaml:"routing"`

	// Planner configuration
	Planner PlannerConfig `yaml:"planner"`

	// Evolution engine configuration
	Evolution EvolutionConfig `yaml:"evolution"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// RoutingConfig configures the hybrid router.
type RoutingConfig struct {
	// LLMThreshold is the confidence below which the router escalates
	// to the LLM fallback.
	LLMThreshold float64 `yaml:"llm_threshold"`
}

// PlannerConfig configures the task planner.
type PlannerConfig struct {
	CacheSize int `yaml:"cache_size"`
}

// EvolutionConfig configures feedback persistence.
type EvolutionConfig struct {
	AutoSave     bool   `yaml:"auto_save"`
	SnapshotFile string `yaml:"snapshot_file"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level       string `yaml:"level"` // debug, info, warn, error
	Development bool   `yaml:"development"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		DataDir: ".haes",
		Routing: RoutingConfig{
			LLMThreshold: 0.5,
		},
		Planner: PlannerConfig{
			CacheSize: 128,
		},
		Evolution: EvolutionConfig{
			AutoSave:     true,
			SnapshotFile: "evolution.json",
		},
		Logging: LoggingConfig{
			Level:       "info",
			Development: false,
		},
	}
}

// Load reads the config at path, falling back to defaults when the file
// does not exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save writes the config to path as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("HAES_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("HAES_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("HAES_AUTO_SAVE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Evolution.AutoSave = b
		}
	}
}

// SnapshotPath resolves the evolution snapshot location under DataDir.
func (c *Config) SnapshotPath() string {
	return filepath.Join(c.DataDir, c.Evolution.SnapshotFile)
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Routing.LLMThreshold < 0 || c.Routing.LLMThreshold > 1 {
		return fmt.Errorf("routing.llm_threshold must be in [0,1], got %v", c.Routing.LLMThreshold)
	}
	if c.Planner.CacheSize < 1 {
		return fmt.Errorf("planner.cache_size must be positive, got %d", c.Planner.CacheSize)
	}
	return nil
}
