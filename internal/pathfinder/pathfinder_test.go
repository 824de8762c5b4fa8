package pathfinder_test

import (
	"testing"

	"github.com/n9te9/hive-query-router/internal/pathfinder"
	"github.com/n9te9/hive-query-router/internal/satisfiability"
	"github.com/n9te9/hive-query-router/internal/supergraph"
)

const testSDL = `
enum join__Graph {
  PRODUCTS @join__graph(name: "products", url: "http://products")
  INVENTORY @join__graph(name: "inventory", url: "http://inventory")
}

type Query @join__type(graph: PRODUCTS) {
  product(id: ID!): Product @join__field(graph: PRODUCTS)
}

type Product @join__type(graph: PRODUCTS, key: "id") @join__type(graph: INVENTORY, key: "id") {
  id: ID! @join__field(graph: PRODUCTS) @join__field(graph: INVENTORY)
  name: String! @join__field(graph: PRODUCTS)
  inStock: Boolean! @join__field(graph: INVENTORY, requires: "name")
}
`

func buildGraph(t *testing.T) *satisfiability.Graph {
	t.Helper()
	state, err := supergraph.Parse([]byte(testSDL))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return satisfiability.Build(state)
}

func TestFindDirectPaths_SimpleField(t *testing.T) {
	g := buildGraph(t)
	productNode, ok := g.TypeSubgraphNode("Product", "PRODUCTS")
	if !ok {
		t.Fatal("expected (Product, PRODUCTS) node")
	}

	path := pathfinder.NewRootPath(productNode)
	results, err := pathfinder.FindDirectPaths(g, path, pathfinder.NavigationTarget{Kind: pathfinder.TargetField, FieldName: "name"})
	if err != nil {
		t.Fatalf("FindDirectPaths: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected exactly one direct path to Product.name, got %d", len(results))
	}
	if results[0].Cost != satisfiability.CostFieldMove {
		t.Errorf("cost = %d, want %d", results[0].Cost, satisfiability.CostFieldMove)
	}
}

func TestFindIndirectPaths_EntityJumpToFieldWithRequires(t *testing.T) {
	g := buildGraph(t)
	productInProducts, ok := g.TypeSubgraphNode("Product", "PRODUCTS")
	if !ok {
		t.Fatal("expected (Product, PRODUCTS) node")
	}

	path := pathfinder.NewRootPath(productInProducts)
	target := pathfinder.NavigationTarget{Kind: pathfinder.TargetField, FieldName: "inStock"}

	direct, err := pathfinder.FindDirectPaths(g, path, target)
	if err != nil {
		t.Fatalf("FindDirectPaths: %v", err)
	}
	if len(direct) != 0 {
		t.Fatalf("inStock is not available in PRODUCTS; expected no direct path, got %d", len(direct))
	}

	indirect, err := pathfinder.FindIndirectPaths(g, path, target, pathfinder.NewExcluded())
	if err != nil {
		t.Fatalf("FindIndirectPaths: %v", err)
	}
	if len(indirect) == 0 {
		t.Fatal("expected at least one indirect path to Product.inStock via INVENTORY")
	}
	for _, p := range indirect {
		if g.Node(p.Tail).GraphID != "INVENTORY" {
			t.Errorf("indirect path landed in %s, want INVENTORY", g.Node(p.Tail).GraphID)
		}
		if p.Cost < satisfiability.CostEntityMove+satisfiability.IndirectEntityMovePenalty+satisfiability.CostFieldMove {
			t.Errorf("cost %d too low for an indirect entity jump plus field move", p.Cost)
		}
	}
}
