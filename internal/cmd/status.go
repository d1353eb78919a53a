package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/skysurvey/msr/internal/config"
	"github.com/skysurvey/msr/internal/output"
	"github.com/spf13/cobra"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize milestone state",
	Long: `Summarize milestone state for the configured WBS prefix, or for one
WBS element with --wbs.

The summary reports totals, completion and overdue counts, remaining
effort, and per-sub-WBS breakdowns, all as of the baseline snapshot
month.

Examples:
  msr status
  msr status --wbs 02C.03
  msr status --format json`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

var statusWBS string

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVar(&statusWBS, "wbs", "", "Restrict the summary to one WBS element")
}

type statusSummary struct {
	Snapshot  string          `json:"snapshot" yaml:"snapshot"`
	AsOf      string          `json:"as_of" yaml:"as_of"`
	WBS       string          `json:"wbs" yaml:"wbs"`
	Total     int             `json:"total" yaml:"total"`
	Completed int             `json:"completed" yaml:"completed"`
	Overdue   int             `json:"overdue" yaml:"overdue"`
	Remaining float64         `json:"remaining_effort" yaml:"remaining_effort"`
	Elements  []elementStatus `json:"elements,omitempty" yaml:"elements,omitempty"`
	OverdueMS []string        `json:"overdue_milestones,omitempty" yaml:"overdue_milestones,omitempty"`
}

type elementStatus struct {
	WBS       string `json:"wbs" yaml:"wbs"`
	Total     int    `json:"total" yaml:"total"`
	Completed int    `json:"completed" yaml:"completed"`
	Overdue   int    `json:"overdue" yaml:"overdue"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := loadStore(cfg)
	if err != nil {
		return err
	}

	prefix := statusWBS
	if prefix == "" {
		prefix = cfg.WBS
	}
	selected := s.WithPrefix(prefix)
	asOf := s.AsOf()

	summary := statusSummary{
		Snapshot: s.Snapshot.Month.Format("200601"),
		AsOf:     asOf.Format("2006-01-02"),
		WBS:      prefix,
		Total:    len(selected),
	}
	byElement := make(map[string]*elementStatus)
	for i := range selected {
		ms := &selected[i]
		el := byElement[ms.SubWBS()]
		if el == nil {
			el = &elementStatus{WBS: ms.SubWBS()}
			byElement[ms.SubWBS()] = el
		}
		el.Total++
		if ms.IsCompleted() {
			summary.Completed++
			el.Completed++
			continue
		}
		summary.Remaining += ms.Effort
		if ms.IsOverdue(asOf) {
			summary.Overdue++
			el.Overdue++
			summary.OverdueMS = append(summary.OverdueMS, ms.Code)
		}
	}
	sort.Strings(summary.OverdueMS)
	for _, code := range sortedKeys(byElement) {
		summary.Elements = append(summary.Elements, *byElement[code])
	}

	format, err := resolveFormat(cfg)
	if err != nil {
		return err
	}
	data, err := output.Marshal(summary, format)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

func sortedKeys(m map[string]*elementStatus) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// resolveFormat picks the output format from --format, falling back to
// the configured default.
func resolveFormat(cfg *config.Config) (output.Format, error) {
	name := outputFormat
	if name == "" {
		name = cfg.Output.DefaultFormat
	}
	f, err := output.ParseFormat(name)
	if err != nil {
		return "", fmt.Errorf("invalid output format %q: %w", name, err)
	}
	return f, nil
}
