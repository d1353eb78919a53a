package cmd

import (
	"fmt"
	"os"

	"github.com/skysurvey/msr/internal/config"
	"github.com/skysurvey/msr/internal/store"
)

// loadConfig resolves configuration from --config or the nearest
// .msr/config.yaml.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromPath(configPath)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}
	return config.Load(cwd)
}

// loadStore opens the configured milestone store and reports any
// skipped-record warnings on stderr.
func loadStore(cfg *config.Config) (*store.Store, error) {
	dataDir, err := cfg.RequireDataDir()
	if err != nil {
		return nil, err
	}

	s, err := store.Load(dataDir)
	if err != nil {
		return nil, err
	}
	reportWarnings(s.Warnings)
	return s, nil
}

// reportWarnings prints skipped-record warnings. Malformed individual
// records never abort a report; they are surfaced here instead.
func reportWarnings(warnings []string) {
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
}

// verbosef logs progress when --verbose is set.
func verbosef(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
