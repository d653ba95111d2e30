package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Routing.LLMThreshold != 0.5 {
		t.Errorf("default llm_threshold = %v, want 0.5", cfg.Routing.LLMThreshold)
	}
	if cfg.Planner.CacheSize != 128 {
		t.Errorf("default cache_size = %d, want 128", cfg.Planner.CacheSize)
	}
	if !cfg.Evolution.AutoSave {
		t.Error("auto_save should default to true")
	}
}

func TestLoad_ParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
data_dir: /tmp/haes-data
routing:
  llm_threshold: 0.65
planner:
  cache_size: 16
evolution:
  auto_save: false
  snapshot_file: state.json
logging:
  level: debug
  development: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Routing.LLMThreshold != 0.65 {
		t.Errorf("llm_threshold = %v, want 0.65", cfg.Routing.LLMThreshold)
	}
	if cfg.Planner.CacheSize != 16 {
		t.Errorf("cache_size = %d, want 16", cfg.Planner.CacheSize)
	}
	if cfg.Evolution.AutoSave {
		t.Error("auto_save should be false")
	}
	if got := cfg.SnapshotPath(); got != filepath.Join("/tmp/haes-data", "state.json") {
		t.Errorf("snapshot path = %s", got)
	}
	if cfg.Logging.Level != "debug" || !cfg.Logging.Development {
		t.Errorf("logging config not parsed: %+v", cfg.Logging)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("routing: [not a map"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("data_dir: from-file\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("HAES_DATA_DIR", "from-env")
	t.Setenv("HAES_AUTO_SAVE", "false")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DataDir != "from-env" {
		t.Errorf("data_dir = %s, want env override", cfg.DataDir)
	}
	if cfg.Evolution.AutoSave {
		t.Error("auto_save env override not applied")
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}

	cfg.Routing.LLMThreshold = 1.5
	if err := cfg.Validate(); err == nil {
		t.Error("out-of-range threshold should fail validation")
	}

	cfg = DefaultConfig()
	cfg.Planner.CacheSize = 0
	if err := cfg.Validate(); err == nil {
		t.Error("zero cache size should fail validation")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Planner.CacheSize = 42

	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Planner.CacheSize != 42 {
		t.Errorf("cache_size after round trip = %d, want 42", loaded.Planner.CacheSize)
	}
}
