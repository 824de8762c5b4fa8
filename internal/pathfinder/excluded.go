// Package pathfinder walks the satisfiability graph to find every way an
// operation field or abstract-type narrowing can be resolved from a given
// point in the plan, direct moves first and cross-subgraph entity jumps
// only when nothing direct works.
package pathfinder

import "github.com/n9te9/hive-query-router/internal/supergraph"

// Excluded tracks the state an indirect (entity-move) search must not
// repeat: subgraphs already visited on this branch, and requirement
// selections already resolved once (so an equivalent key on a different edge
// is skipped). Individual edges are not tracked. It is immutable; Next
// returns a new value, leaving the receiver untouched for sibling branches.
type Excluded struct {
	graphs       map[supergraph.SubgraphId]bool
	requirements map[string]bool
}

// NewExcluded returns the empty exclusion set used to seed a fresh search.
func NewExcluded() Excluded {
	return Excluded{}
}

// Next returns the exclusion set for the branch that just crossed into
// graphID, having resolved requirementKey (the String() of the edge's
// requirement selection, or "" if the edge carried none).
func (e Excluded) Next(graphID supergraph.SubgraphId, requirementKey string) Excluded {
	out := Excluded{
		graphs:       make(map[supergraph.SubgraphId]bool, len(e.graphs)+1),
		requirements: make(map[string]bool, len(e.requirements)+1),
	}
	for g := range e.graphs {
		out.graphs[g] = true
	}
	for r := range e.requirements {
		out.requirements[r] = true
	}
	out.graphs[graphID] = true
	if requirementKey != "" {
		out.requirements[requirementKey] = true
	}
	return out
}

func (e Excluded) hasVisitedGraph(g supergraph.SubgraphId) bool {
	return e.graphs[g]
}

func (e Excluded) hasVisitedRequirement(key string) bool {
	return key != "" && e.requirements[key]
}
