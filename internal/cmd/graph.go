package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/skysurvey/msr/internal/graph"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Emit a DOT dependency graph for a WBS element",
	Long: `Emit a graphviz DOT description of the milestone dependency graph for
one WBS element.

Milestones under the requested WBS prefix appear as ellipses; their
immediate predecessors and successors outside the prefix appear as
boxes. Completed milestones are filled dodgerblue, overdue milestones
orange. The output is deterministic: the same store contents always
produce byte-identical DOT text.

Examples:
  msr graph --wbs 02C.04 --output graph_02C.04.dot
  msr graph --wbs 02C.03                          # print to stdout`,
	Args: cobra.NoArgs,
	RunE: runGraph,
}

var (
	graphWBS    string
	graphOutput string
)

func init() {
	rootCmd.AddCommand(graphCmd)

	graphCmd.Flags().StringVar(&graphWBS, "wbs", "", "WBS element to graph (required)")
	graphCmd.Flags().StringVarP(&graphOutput, "output", "o", "", "Output DOT path (default: stdout)")
	graphCmd.MarkFlagRequired("wbs")
}

func runGraph(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := loadStore(cfg)
	if err != nil {
		return err
	}

	g, err := graph.Build(s, graphWBS)
	if err != nil {
		return err
	}
	verbosef("graph %s: %d nodes, %d edges", graphWBS, g.NodeCount(), g.EdgeCount())

	dot := g.Dot(graph.DefaultDotOptions(s.AsOf()))
	if graphOutput == "" {
		fmt.Fprint(os.Stdout, dot)
		return nil
	}
	if dir := filepath.Dir(graphOutput); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(graphOutput, []byte(dot), 0644); err != nil {
		return fmt.Errorf("write graph: %w", err)
	}
	verbosef("wrote %s", graphOutput)
	return nil
}
