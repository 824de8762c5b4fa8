package satisfiability

import (
	"strconv"

	"github.com/n9te9/hive-query-router/internal/supergraph"
)

// EdgeKind discriminates the legal planner moves (data model §3).
type EdgeKind int

const (
	KindSubgraphEntrypoint EdgeKind = iota
	KindFieldMove
	KindEntityMove
	KindAbstractMove
	KindInterfaceObjectTypeMove
)

func (k EdgeKind) String() string {
	switch k {
	case KindSubgraphEntrypoint:
		return "SubgraphEntrypoint"
	case KindFieldMove:
		return "FieldMove"
	case KindEntityMove:
		return "EntityMove"
	case KindAbstractMove:
		return "AbstractMove"
	case KindInterfaceObjectTypeMove:
		return "InterfaceObjectTypeMove"
	default:
		return "Unknown"
	}
}

// Default edge costs. EntityMove is deliberately more expensive than a
// field/abstract move so direct resolution always wins when available; see
// SPEC_FULL.md §5 for the open-question default.
const (
	CostSubgraphEntrypoint = 0
	CostFieldMove          = 1
	CostAbstractMove       = 1
	CostEntityMove         = 2

	// IndirectEntityMovePenalty is added on top of CostEntityMove for every
	// hop explored by the pathfinder's indirect (BFS) search, so a direct
	// resolution is always preferred to an indirect one of equal edge-count.
	IndirectEntityMovePenalty = 5
)

// EdgeID is a small integer id into Graph.Edges.
type EdgeID int

// Edge is one directed move of the satisfiability graph.
type Edge struct {
	ID   EdgeID
	From NodeID
	To   NodeID
	Kind EdgeKind
	Cost int

	// FieldMove payload.
	FieldName  string
	ParentType string
	IsLeaf     bool
	IsList     bool
	JoinField  *supergraph.JoinField
	Requires   supergraph.Selection
	Provides   supergraph.Selection

	// EntityMove payload.
	EntityKey supergraph.Selection

	// AbstractMove / InterfaceObjectTypeMove payload.
	TargetType string

	// SubgraphEntrypoint payload.
	EntrypointGraph supergraph.SubgraphId
	FieldNames      []string
}

// discriminant returns the key used for parallel-edge dedup: same
// (From, To, Kind) plus kind-specific payload collapse to one edge. To is
// always part of the key so moves that happen to share a payload (e.g. two
// entity moves keyed by the same field set but landing in different
// subgraphs) are never confused for duplicates of each other.
func (e Edge) discriminant() string {
	to := strconv.Itoa(int(e.To))
	switch e.Kind {
	case KindFieldMove:
		return "field:" + to + ":" + e.FieldName
	case KindEntityMove:
		return "entity:" + to + ":" + e.EntityKey.String()
	case KindAbstractMove, KindInterfaceObjectTypeMove:
		return "abstract:" + to + ":" + e.TargetType
	case KindSubgraphEntrypoint:
		return "entry:" + to
	default:
		return "?:" + to
	}
}
