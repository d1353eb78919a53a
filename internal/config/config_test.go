package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.WBS != "02C" {
		t.Errorf("expected default wbs 02C, got %s", cfg.WBS)
	}
	if cfg.Burndown.Months != 3 {
		t.Errorf("expected default burndown window 3 months, got %d", cfg.Burndown.Months)
	}
	if cfg.Build.DotCmd != "dot" {
		t.Errorf("expected default dot_cmd dot, got %s", cfg.Build.DotCmd)
	}
	if cfg.Output.DefaultFormat != "yaml" {
		t.Errorf("expected default format yaml, got %s", cfg.Output.DefaultFormat)
	}
	if cfg.WBSTitle("02C.03") != "Alert Production" {
		t.Errorf("unexpected title for 02C.03: %s", cfg.WBSTitle("02C.03"))
	}
	if cfg.WBSTitle("02C.99") != "02C.99" {
		t.Errorf("unknown sub-WBS should fall back to the code, got %s", cfg.WBSTitle("02C.99"))
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromPath_MergesWithDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `data_dir: /data/milestones
burndown:
  months: 6
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}

	if cfg.DataDir != "/data/milestones" {
		t.Errorf("expected data_dir from file, got %s", cfg.DataDir)
	}
	if cfg.Burndown.Months != 6 {
		t.Errorf("expected months 6, got %d", cfg.Burndown.Months)
	}
	// Unset fields fall back to defaults.
	if cfg.Burndown.Width != 1024 || cfg.Build.DotCmd != "dot" {
		t.Errorf("defaults not merged: %+v", cfg)
	}
}

func TestLoadFromPath_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.WBS != "02C" {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadFromPath_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("output:\n  default_format: xml\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := LoadFromPath(path)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestEnvOverridesDataDir(t *testing.T) {
	t.Setenv(DataDirEnv, "/env/milestones")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("data_dir: /file/milestones\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.DataDir != "/env/milestones" {
		t.Errorf("environment should win over config file, got %s", cfg.DataDir)
	}
}

func TestRequireDataDir(t *testing.T) {
	cfg := DefaultConfig()
	if _, err := cfg.RequireDataDir(); !errors.Is(err, ErrNoDataDir) {
		t.Errorf("expected ErrNoDataDir, got %v", err)
	}

	cfg.DataDir = "/data"
	dir, err := cfg.RequireDataDir()
	if err != nil || dir != "/data" {
		t.Errorf("RequireDataDir = %s, %v", dir, err)
	}
}

func TestFindConfigDir_WalksUp(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, ConfigDirName), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	nested := filepath.Join(root, "docs", "reports")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("mkdir nested: %v", err)
	}

	found, err := FindConfigDir(nested)
	if err != nil {
		t.Fatalf("FindConfigDir: %v", err)
	}
	if found != filepath.Join(root, ConfigDirName) {
		t.Errorf("expected %s, got %s", filepath.Join(root, ConfigDirName), found)
	}
}
