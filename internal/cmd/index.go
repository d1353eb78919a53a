package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/skysurvey/msr/internal/report"
	"github.com/spf13/cobra"
)

// indexCmd represents the index command
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Generate the index document",
	Long: `Generate the root reStructuredText index document from the milestone
store.

The document carries completed-milestone substitutions, store
provenance, a summary with the burndown figure, overdue and by-due-date
listings, per-WBS sections with dependency graph figures and milestone
details, and the bibliography directive. The reporting date is always
the baseline snapshot month, so regenerating from an unchanged store
yields byte-identical output.

Examples:
  msr index --output index.rst
  msr index -o /tmp/index.rst`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

var indexOutput string

func init() {
	rootCmd.AddCommand(indexCmd)

	indexCmd.Flags().StringVarP(&indexOutput, "output", "o", "index.rst", "Output document path")
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := loadStore(cfg)
	if err != nil {
		return err
	}

	opts := &report.Options{
		Prefix:    cfg.WBS,
		StaticDir: cfg.Build.StaticDir,
		TitleFor:  cfg.WBSTitle,
		BibGlob:   "lsstbib/*.bib",
	}
	doc, err := report.Generate(s, opts)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(indexOutput); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(indexOutput, []byte(doc), 0644); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	verbosef("wrote %s (%d bytes)", indexOutput, len(doc))
	return nil
}
