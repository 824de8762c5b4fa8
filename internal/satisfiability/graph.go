package satisfiability

import "github.com/n9te9/hive-query-router/internal/supergraph"

// Graph is the immutable satisfiability multigraph. It is built once per
// supergraph version by Build and is safe for concurrent read-only use
// afterward.
type Graph struct {
	nodes []Node
	edges []Edge

	nodeIndex map[nodeKey]NodeID
	out       map[NodeID][]EdgeID
	edgeSeen  map[NodeID]map[string]EdgeID // From -> discriminant -> edge id, for parallel-edge dedup

	rootNode map[supergraph.RootKind]NodeID
}

// Node returns the node for id.
func (g *Graph) Node(id NodeID) Node { return g.nodes[id] }

// Edge returns the edge for id.
func (g *Graph) Edge(id EdgeID) Edge { return g.edges[id] }

// EdgesFrom returns every edge leaving id, in construction order.
func (g *Graph) EdgesFrom(id NodeID) []Edge {
	ids := g.out[id]
	out := make([]Edge, len(ids))
	for i, eid := range ids {
		out[i] = g.edges[eid]
	}
	return out
}

// RootNode returns the synthetic root node for a given operation kind, and
// false if the supergraph has none (e.g. no Mutation type).
func (g *Graph) RootNode(kind supergraph.RootKind) (NodeID, bool) {
	id, ok := g.rootNode[kind]
	return id, ok
}

// TypeSubgraphNode looks up a plain (non-specialized) node by type+graph.
func (g *Graph) TypeSubgraphNode(typeName string, graphID supergraph.SubgraphId) (NodeID, bool) {
	id, ok := g.nodeIndex[nodeKey{typeName: typeName, graphID: graphID}]
	return id, ok
}

func newGraph() *Graph {
	return &Graph{
		nodeIndex: make(map[nodeKey]NodeID),
		out:       make(map[NodeID][]EdgeID),
		edgeSeen:  make(map[NodeID]map[string]EdgeID),
		rootNode:  make(map[supergraph.RootKind]NodeID),
	}
}

// internNode returns the existing node for key, or creates one. Plain
// (type, graph) nodes are deduplicated; UnionSubset nodes are always
// distinct instances (callers pass a unique viewOrMember key for each).
func (g *Graph) internNode(key nodeKey, build func(id NodeID) Node) NodeID {
	if key.spec == SpecNone {
		if id, ok := g.nodeIndex[key]; ok {
			return id
		}
	}
	id := NodeID(len(g.nodes))
	n := build(id)
	g.nodes = append(g.nodes, n)
	if key.spec == SpecNone {
		g.nodeIndex[key] = id
	}
	return id
}

// addEdge appends e (assigning its ID and wiring adjacency), deduplicating
// parallel edges by (From, discriminant): a later identical edge with a
// higher cost is dropped, with a lower cost it replaces the earlier one.
func (g *Graph) addEdge(e Edge) {
	disc := e.discriminant()

	seen := g.edgeSeen[e.From]
	if seen == nil {
		seen = make(map[string]EdgeID)
		g.edgeSeen[e.From] = seen
	}
	if existingID, ok := seen[disc]; ok {
		existing := g.edges[existingID]
		if e.Cost >= existing.Cost {
			return
		}
		// replace in place, keep the same slot/id and adjacency entry
		e.ID = existing.ID
		g.edges[e.ID] = e
		return
	}

	e.ID = EdgeID(len(g.edges))
	g.edges = append(g.edges, e)
	g.out[e.From] = append(g.out[e.From], e.ID)
	seen[disc] = e.ID
}
