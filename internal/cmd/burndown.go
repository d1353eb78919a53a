package cmd

import (
	"fmt"

	"github.com/skysurvey/msr/internal/burndown"
	"github.com/spf13/cobra"
)

// burndownCmd represents the burndown command
var burndownCmd = &cobra.Command{
	Use:   "burndown",
	Short: "Render the milestone burndown chart",
	Long: `Render remaining milestone effort over a trailing window as a PNG
chart.

The series is sampled monthly from the window start through the
reporting date, which is always the baseline snapshot month, never the
wall clock. Milestones without a due date are excluded from the series
and reported as warnings. An empty milestone selection still produces a
valid placeholder chart.

Examples:
  msr burndown --output _static/burndown.png
  msr burndown --output burndown.png --months 6`,
	Args: cobra.NoArgs,
	RunE: runBurndown,
}

var (
	burndownOutput string
	burndownMonths int
)

func init() {
	rootCmd.AddCommand(burndownCmd)

	burndownCmd.Flags().StringVarP(&burndownOutput, "output", "o", "", "Output PNG path (required)")
	burndownCmd.Flags().IntVar(&burndownMonths, "months", 0, "Trailing window in months (default: from config)")
	burndownCmd.MarkFlagRequired("output")
}

func runBurndown(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := loadStore(cfg)
	if err != nil {
		return err
	}

	months := burndownMonths
	if months == 0 {
		months = cfg.Burndown.Months
	}

	series, err := burndown.Compute(s.WithPrefix(cfg.WBS), months, s.AsOf())
	if err != nil {
		return err
	}
	reportWarnings(series.Warnings)
	verbosef("burndown: %d samples, window %s to %s", len(series.Points),
		series.Start().Format("2006-01"), series.End().Format("2006-01"))

	opts := &burndown.ChartOptions{
		Title:  fmt.Sprintf("Milestone burndown (%s)", cfg.WBS),
		Width:  cfg.Burndown.Width,
		Height: cfg.Burndown.Height,
	}
	if err := series.RenderFile(burndownOutput, opts); err != nil {
		return err
	}
	verbosef("wrote %s", burndownOutput)
	return nil
}
