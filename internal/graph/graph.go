// Package graph builds milestone dependency graphs and renders them as
// graph-description text for an external layout tool.
package graph

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/skysurvey/msr/internal/store"
)

// ErrNoMilestones is returned when a WBS prefix selects no milestones.
var ErrNoMilestones = errors.New("no milestones match WBS prefix")

// Edge is a directed predecessor -> successor relationship.
type Edge struct {
	From string
	To   string
}

// Graph is the dependency graph for one WBS selection: the milestones under
// the prefix plus their immediate predecessors and successors outside it.
type Graph struct {
	// Prefix is the WBS prefix the graph was built for.
	Prefix string
	// Nodes maps milestone code to its record, including external neighbors.
	Nodes map[string]*store.Milestone
	// Edges are deduplicated relationships between nodes, sorted.
	Edges []Edge
	// external marks nodes whose WBS falls outside Prefix.
	external map[string]bool
}

// Build constructs the dependency graph for milestones whose WBS code starts
// with prefix. A declared relationship appears as exactly one edge even when
// both ends declare it (predecessor on one, successor on the other).
func Build(s *store.Store, prefix string) (*Graph, error) {
	selected := s.WithPrefix(prefix)
	if len(selected) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoMilestones, prefix)
	}

	g := &Graph{
		Prefix:   prefix,
		Nodes:    make(map[string]*store.Milestone),
		external: make(map[string]bool),
	}

	inPrefix := make(map[string]bool, len(selected))
	for i := range selected {
		ms := selected[i]
		g.Nodes[ms.Code] = &selected[i]
		inPrefix[ms.Code] = true
	}

	edgeSet := make(map[Edge]struct{})
	addEdge := func(from, to string) {
		edgeSet[Edge{From: from, To: to}] = struct{}{}
	}
	// addNeighbor pulls an immediate neighbor outside the prefix into the
	// graph; neighbors declared in the baseline but absent from the store
	// are dropped.
	addNeighbor := func(code string) bool {
		if _, ok := g.Nodes[code]; ok {
			return true
		}
		ms := s.Get(code)
		if ms == nil {
			return false
		}
		g.Nodes[code] = ms
		g.external[code] = true
		return true
	}

	for i := range selected {
		ms := &selected[i]
		for _, pred := range ms.Predecessors {
			if addNeighbor(pred) {
				addEdge(pred, ms.Code)
			}
		}
		for _, succ := range ms.Successors {
			if addNeighbor(succ) {
				addEdge(ms.Code, succ)
			}
		}
	}

	// Relationships between two selected milestones are declared on both
	// ends in the baseline; the edge set collapses them to one.
	g.Edges = make([]Edge, 0, len(edgeSet))
	for e := range edgeSet {
		g.Edges = append(g.Edges, e)
	}
	sort.Slice(g.Edges, func(i, j int) bool {
		if g.Edges[i].From != g.Edges[j].From {
			return g.Edges[i].From < g.Edges[j].From
		}
		return g.Edges[i].To < g.Edges[j].To
	})

	return g, nil
}

// IsExternal reports whether the node lies outside the graph's WBS prefix.
func (g *Graph) IsExternal(code string) bool {
	return g.external[code]
}

// NodeCodes returns all node codes in sorted order.
func (g *Graph) NodeCodes() []string {
	codes := make([]string, 0, len(g.Nodes))
	for code := range g.Nodes {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.Nodes)
}

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int {
	return len(g.Edges)
}

// sanitizeID makes a milestone code safe to use as a graph-description
// identifier.
func sanitizeID(code string) string {
	var sb strings.Builder
	for _, r := range code {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	return sb.String()
}
