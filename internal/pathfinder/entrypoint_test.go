package pathfinder_test

import (
	"testing"

	"github.com/n9te9/hive-query-router/internal/pathfinder"
	"github.com/n9te9/hive-query-router/internal/satisfiability"
	"github.com/n9te9/hive-query-router/internal/supergraph"
)

func TestFindEntrypoints_OnePerSubgraphEntrypointEdge(t *testing.T) {
	g := buildGraph(t)
	root, ok := g.RootNode(supergraph.RootQuery)
	if !ok {
		t.Fatal("expected a query root node")
	}

	entrypoints := pathfinder.FindEntrypoints(g, root)
	if len(entrypoints) == 0 {
		t.Fatal("expected at least one entrypoint for the query root")
	}
	for _, ep := range entrypoints {
		if len(ep.Edges) != 1 {
			t.Errorf("expected a single-edge path, got %d edges", len(ep.Edges))
		}
		if g.Edge(ep.Edges[0]).Kind != satisfiability.KindSubgraphEntrypoint {
			t.Errorf("expected a SubgraphEntrypoint edge, got %v", g.Edge(ep.Edges[0]).Kind)
		}
	}
}
