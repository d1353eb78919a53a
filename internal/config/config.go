// Package config loads msr configuration from .msr/config.yaml, merged with
// defaults. The milestone store location can always be overridden with the
// MSR_DATA_DIR environment variable.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the name of the msr configuration file.
const ConfigFileName = "config.yaml"

// ConfigDirName is the name of the msr configuration directory.
const ConfigDirName = ".msr"

// DataDirEnv is the environment variable identifying the milestone store
// directory. It takes precedence over the config file.
const DataDirEnv = "MSR_DATA_DIR"

// Config holds all msr configuration.
type Config struct {
	// DataDir is the milestone store directory.
	DataDir string `yaml:"data_dir"`
	// WBS is the top-level work breakdown structure prefix reports cover.
	WBS string `yaml:"wbs"`
	// WBSTitles maps six-character sub-WBS codes to display titles.
	WBSTitles map[string]string `yaml:"wbs_titles"`

	Burndown BurndownConfig `yaml:"burndown"`
	Build    BuildConfig    `yaml:"build"`
	Output   OutputConfig   `yaml:"output"`
}

// BurndownConfig holds burndown chart settings.
type BurndownConfig struct {
	// Months is the trailing window length.
	Months int `yaml:"months"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// BuildConfig holds build orchestration settings: output locations and the
// external tools the harness invokes.
type BuildConfig struct {
	// OutputDir receives the generated index document.
	OutputDir string `yaml:"output_dir"`
	// StaticDir receives rendered images, relative to OutputDir.
	StaticDir string `yaml:"static_dir"`
	// DotCmd is the graph layout command.
	DotCmd string `yaml:"dot_cmd"`
	// SiteCmd is the document builder invocation; empty disables the site
	// target.
	SiteCmd string `yaml:"site_cmd"`
	// BibCmd refreshes bibliography files; empty disables the bib target.
	BibCmd string `yaml:"bib_cmd"`
}

// OutputConfig holds CLI output settings.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format"`
}

// ErrConfigNotFound is returned when no config directory can be found.
var ErrConfigNotFound = errors.New("config directory not found")

// ErrInvalidConfig is returned when config validation fails.
var ErrInvalidConfig = errors.New("invalid configuration")

// ErrNoDataDir is returned when neither MSR_DATA_DIR nor the config file
// names a milestone store.
var ErrNoDataDir = errors.New("milestone store not configured: set " + DataDirEnv + " or data_dir in " + ConfigDirName + "/" + ConfigFileName)

// Load reads config from .msr/config.yaml, searching from workDir up the
// directory tree. Returns defaults when no config file exists.
func Load(workDir string) (*Config, error) {
	configDir, err := FindConfigDir(workDir)
	if err != nil {
		return applyEnv(DefaultConfig()), nil
	}
	return LoadFromPath(filepath.Join(configDir, ConfigFileName))
}

// LoadFromPath reads config from a specific path, merges it with defaults,
// applies environment overrides, and validates the result.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return applyEnv(DefaultConfig()), nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	loaded := &Config{}
	if err := yaml.Unmarshal(data, loaded); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	merged := applyEnv(Merge(loaded, DefaultConfig()))
	if err := Validate(merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// applyEnv applies environment variable overrides.
func applyEnv(cfg *Config) *Config {
	if dir := os.Getenv(DataDirEnv); dir != "" {
		cfg.DataDir = dir
	}
	return cfg
}

// RequireDataDir returns the configured milestone store directory or
// ErrNoDataDir.
func (c *Config) RequireDataDir() (string, error) {
	if c.DataDir == "" {
		return "", ErrNoDataDir
	}
	return c.DataDir, nil
}

// FindConfigDir locates the .msr directory by walking up from startDir.
func FindConfigDir(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	currentDir := absDir
	for {
		configDir := filepath.Join(currentDir, ConfigDirName)
		info, err := os.Stat(configDir)
		if err == nil && info.IsDir() {
			return configDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return "", ErrConfigNotFound
		}
		currentDir = parentDir
	}
}

// EnsureConfigDir creates the .msr directory under workDir if needed.
func EnsureConfigDir(workDir string) (string, error) {
	absDir, err := filepath.Abs(workDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	configDir := filepath.Join(absDir, ConfigDirName)
	info, err := os.Stat(configDir)
	if err == nil {
		if info.IsDir() {
			return configDir, nil
		}
		return "", fmt.Errorf("%s exists but is not a directory", configDir)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}
	return configDir, nil
}

// Validate checks that config values are valid.
func Validate(cfg *Config) error {
	if cfg.Burndown.Months < 1 {
		return fmt.Errorf("%w: burndown months must be at least 1, got %d",
			ErrInvalidConfig, cfg.Burndown.Months)
	}
	if cfg.Burndown.Width <= 0 || cfg.Burndown.Height <= 0 {
		return fmt.Errorf("%w: burndown dimensions must be positive, got %dx%d",
			ErrInvalidConfig, cfg.Burndown.Width, cfg.Burndown.Height)
	}
	if cfg.WBS == "" {
		return fmt.Errorf("%w: wbs prefix must not be empty", ErrInvalidConfig)
	}
	if cfg.Build.DotCmd == "" {
		return fmt.Errorf("%w: dot_cmd must not be empty", ErrInvalidConfig)
	}
	switch cfg.Output.DefaultFormat {
	case "yaml", "json":
	default:
		return fmt.Errorf("%w: default_format must be yaml or json, got %q",
			ErrInvalidConfig, cfg.Output.DefaultFormat)
	}
	return nil
}
