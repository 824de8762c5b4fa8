package pathfinder

import "github.com/n9te9/hive-query-router/internal/satisfiability"

// FindEntrypoints returns one single-edge path per SubgraphEntrypoint edge
// leaving root: the starting point for resolving every top-level field of
// an operation, since a root's children are entrypoints into whichever
// subgraphs contribute fields to that root type.
func FindEntrypoints(graph *satisfiability.Graph, root satisfiability.NodeID) []*OperationPath {
	base := NewRootPath(root)
	var out []*OperationPath
	for _, edge := range graph.EdgesFrom(root) {
		if edge.Kind != satisfiability.KindSubgraphEntrypoint {
			continue
		}
		out = append(out, base.advance(edge, 0, nil))
	}
	return out
}
