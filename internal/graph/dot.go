package graph

import (
	"fmt"
	"strings"
	"time"
)

// DotOptions configures DOT graph-description generation.
type DotOptions struct {
	// Name is the digraph name; defaults to the sanitized WBS prefix.
	Name string
	// RankDir is the graphviz layout direction.
	RankDir string
	// AsOf is the reporting date used to classify milestones as overdue.
	AsOf time.Time
	// ShowDue appends the due date to node labels.
	ShowDue bool
}

// DefaultDotOptions returns sensible defaults for DOT generation.
func DefaultDotOptions(asOf time.Time) *DotOptions {
	return &DotOptions{
		RankDir: "LR",
		AsOf:    asOf,
		ShowDue: true,
	}
}

// Fill colors matching the report caption: completed milestones are blue,
// overdue milestones orange.
const (
	fillCompleted = "dodgerblue"
	fillOverdue   = "orange"
)

// Dot renders the graph as a graphviz description. Milestones inside the
// WBS prefix are ellipses, external neighbors boxes. Output is
// deterministic: nodes and edges are emitted in sorted order.
func (g *Graph) Dot(opts *DotOptions) string {
	if opts == nil {
		opts = DefaultDotOptions(time.Time{})
	}
	name := opts.Name
	if name == "" {
		name = sanitizeID(g.Prefix)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "digraph %s {\n", name)
	if opts.RankDir != "" {
		fmt.Fprintf(&sb, "    rankdir=%s;\n", opts.RankDir)
	}
	sb.WriteString("    node [fontname=\"Helvetica\"];\n")
	sb.WriteString("\n")

	for _, code := range g.NodeCodes() {
		sb.WriteString(g.dotNode(code, opts))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	for _, e := range g.Edges {
		fmt.Fprintf(&sb, "    %s -> %s;\n", sanitizeID(e.From), sanitizeID(e.To))
	}

	sb.WriteString("}\n")
	return sb.String()
}

func (g *Graph) dotNode(code string, opts *DotOptions) string {
	ms := g.Nodes[code]

	shape := "ellipse"
	if g.IsExternal(code) {
		shape = "box"
	}

	label := ms.Code
	if opts.ShowDue && !ms.Due.IsZero() {
		label = fmt.Sprintf("%s\\n%s", ms.Code, ms.Due.Format("2006-01-02"))
	}

	attrs := []string{
		fmt.Sprintf("label=\"%s\"", escapeDot(label)),
		fmt.Sprintf("shape=%s", shape),
	}
	switch {
	case ms.IsCompleted():
		attrs = append(attrs, "style=filled", fmt.Sprintf("fillcolor=%s", fillCompleted))
	case !opts.AsOf.IsZero() && ms.IsOverdue(opts.AsOf):
		attrs = append(attrs, "style=filled", fmt.Sprintf("fillcolor=%s", fillOverdue))
	}

	return fmt.Sprintf("    %s [%s];", sanitizeID(code), strings.Join(attrs, ", "))
}

// escapeDot escapes double quotes in node labels. Literal backslashes from
// label line breaks are preserved.
func escapeDot(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}
