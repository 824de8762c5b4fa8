package pathfinder

import (
	"github.com/n9te9/hive-query-router/internal/satisfiability"
	"github.com/n9te9/hive-query-router/internal/supergraph"
)

// RequirementResolution records how one field of an edge's @requires (or
// @key) selection was satisfied: the set of equal-cost paths that reach it
// from the path the requirement was attached to. Arguments carries the
// requirement field's own arguments straight from the field-set it came
// from, so the query tree can tell apart two resolutions of the same field
// name that need different argument values.
type RequirementResolution struct {
	FieldName string
	Arguments []supergraph.Argument
	Paths     []*OperationPath
}

// OperationPath is one candidate walk through the satisfiability graph: the
// sequence of edges taken from a root, its accumulated cost, and — for any
// edge along the way that carried a requirement selection — how each of
// its fields was resolved, so the query-tree builder can graft those
// resolutions in as sibling fetches.
type OperationPath struct {
	Tail         satisfiability.NodeID
	Edges        []satisfiability.EdgeID
	Cost         int
	Requirements []RequirementResolution
}

// NewRootPath starts a path at a satisfiability root or entrypoint node.
func NewRootPath(tail satisfiability.NodeID) *OperationPath {
	return &OperationPath{Tail: tail}
}

// advance returns a new path with edge appended, leaving the receiver
// untouched so sibling branches can keep exploring from the same point.
// extraCost is added on top of the edge's own cost (the indirect-search
// penalty for entity moves found via BFS rather than directly).
func (p *OperationPath) advance(edge satisfiability.Edge, extraCost int, requirements []RequirementResolution) *OperationPath {
	edges := make([]satisfiability.EdgeID, len(p.Edges), len(p.Edges)+1)
	copy(edges, p.Edges)
	edges = append(edges, edge.ID)

	reqs := make([]RequirementResolution, len(p.Requirements), len(p.Requirements)+len(requirements))
	copy(reqs, p.Requirements)
	reqs = append(reqs, requirements...)

	return &OperationPath{
		Tail:         edge.To,
		Edges:        edges,
		Cost:         p.Cost + edge.Cost + extraCost,
		Requirements: reqs,
	}
}
