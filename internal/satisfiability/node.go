// Package satisfiability builds the directed multigraph over (type,
// subgraph) pairs whose edges model every legal planner move: resolving a
// field, jumping to a root of a subgraph, moving between subgraphs via an
// entity key, or widening/narrowing an abstract type.
package satisfiability

import "github.com/n9te9/hive-query-router/internal/supergraph"

// NodeID is a small integer id, replacing pointer identity so the graph has
// no language-level pointer arithmetic (spec §9).
type NodeID int

// Specialization distinguishes the flavors a (type, subgraph) node can take
// beyond the plain case.
type Specialization int

const (
	SpecNone Specialization = iota
	SpecUnionSubset
)

// UnionSubsetInfo narrows a union-typed field to one object member visible
// in the node's graph.
type UnionSubsetInfo struct {
	ParentType   string
	ParentField  string
	ObjectMember string
}

// Node is one vertex of the satisfiability graph: either a root
// (IsRoot==true, GraphID=="") or a (TypeName, GraphID) pair, optionally
// specialized.
type Node struct {
	ID       NodeID
	TypeName string
	GraphID  supergraph.SubgraphId
	IsRoot   bool
	RootKind supergraph.RootKind

	Spec        Specialization
	UnionSubset *UnionSubsetInfo
}

// nodeKey is the dedup discriminant used by Graph.internNode.
type nodeKey struct {
	typeName string
	graphID  supergraph.SubgraphId
	isRoot   bool
	rootKind supergraph.RootKind
	spec     Specialization
	// UnionSubset nodes are never deduplicated against each other (each
	// union narrowing is distinct by construction); viewOrMember
	// disambiguates those instances.
	viewOrMember string
}
