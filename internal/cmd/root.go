// Package cmd contains all CLI commands for msr.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	// Version is the current version of msr
	Version = "0.1.0"

	// Global flags
	verbose      bool
	configPath   string
	outputFormat string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "msr",
	Short: "Milestone reporting and documentation-build harness",
	Long: `msr drives the milestone documentation build: it reads the read-only
milestone store, renders the burndown chart, emits per-WBS dependency
graph descriptions, generates the root index document, and brings the
whole set of artifacts up to date before the external document builder
runs.

The milestone store is a directory of project controls baseline
snapshots (pmcs/YYYYMM-ME.csv) plus local YAML annotations
(local/*.yaml). Its location comes from the MSR_DATA_DIR environment
variable or the data_dir setting in .msr/config.yaml. Reporters never
write to the store; every artifact is a pure function of its contents.

Main capabilities:
  - Render the milestone burndown chart as a PNG image
  - Emit DOT dependency graphs per WBS element for graphviz layout
  - Generate the reStructuredText index document, byte-stable across runs
  - Rebuild only stale artifacts, with optional watch mode
  - Summarize milestone state in YAML or JSON
  - Serve milestone queries over MCP for agent use

Examples:
  msr burndown --output _static/burndown.png   # Render burndown chart
  msr graph --wbs 02C.04 --output graph.dot    # DOT graph for one WBS
  msr index --output index.rst                 # Generate the index document
  msr status --wbs 02C.03                      # Summary counts for one WBS
  msr build                                    # Bring all artifacts up to date
  msr build --watch                            # Rebuild on store changes

See 'msr <command> --help' for command-specific options.`,
	Version: Version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Accept underscore spellings for flag names (wbs_titles style).
	rootCmd.PersistentFlags().SetNormalizeFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: .msr/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "", "Output format (yaml|json)")
}
