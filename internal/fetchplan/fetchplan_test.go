package fetchplan_test

import (
	"testing"

	"github.com/n9te9/hive-query-router/internal/fetchplan"
	"github.com/n9te9/hive-query-router/internal/querytree"
	"github.com/n9te9/hive-query-router/internal/satisfiability"
	"github.com/n9te9/hive-query-router/internal/supergraph"
)

const testSDL = `
enum join__Graph {
  PRODUCTS @join__graph(name: "products", url: "http://products")
  REVIEWS @join__graph(name: "reviews", url: "http://reviews")
}

type Query @join__type(graph: PRODUCTS) {
  product(id: ID!): Product @join__field(graph: PRODUCTS)
}

type Product @join__type(graph: PRODUCTS, key: "id") @join__type(graph: REVIEWS, key: "id") {
  id: ID! @join__field(graph: PRODUCTS) @join__field(graph: REVIEWS)
  name: String! @join__field(graph: PRODUCTS)
  reviews: [Review!]! @join__field(graph: REVIEWS)
}

type Review @join__type(graph: REVIEWS, key: "id") {
  id: ID! @join__field(graph: REVIEWS)
  body: String! @join__field(graph: REVIEWS)
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

func findEdge(t *testing.T, g *satisfiability.Graph, from satisfiability.NodeID, match func(satisfiability.Edge) bool) satisfiability.Edge {
	t.Helper()
	for _, e := range g.EdgesFrom(from) {
		if match(e) {
			return e
		}
	}
	t.Fatalf("no matching edge found from node %d", from)
	return satisfiability.Edge{}
}

// buildQueryTree assembles the tree for:
//
//	product(id: ...) { name reviews { body } }
func buildQueryTree(t *testing.T, g *satisfiability.Graph) *querytree.Node {
	t.Helper()
	rootID, ok := g.RootNode(supergraph.RootQuery)
	if !ok {
		t.Fatal("expected a Query root node")
	}
	entrypoint := findEdge(t, g, rootID, func(e satisfiability.Edge) bool {
		return e.Kind == satisfiability.KindSubgraphEntrypoint && e.EntrypointGraph == "PRODUCTS"
	})
	queryInProducts := entrypoint.To

	productEdge := findEdge(t, g, queryInProducts, func(e satisfiability.Edge) bool {
		return e.Kind == satisfiability.KindFieldMove && e.FieldName == "product"
	})
	productInProducts := productEdge.To

	nameEdge := findEdge(t, g, productInProducts, func(e satisfiability.Edge) bool {
		return e.Kind == satisfiability.KindFieldMove && e.FieldName == "name"
	})
	entityMove := findEdge(t, g, productInProducts, func(e satisfiability.Edge) bool {
		return e.Kind == satisfiability.KindEntityMove
	})
	productInReviews := entityMove.To

	reviewsEdge := findEdge(t, g, productInReviews, func(e satisfiability.Edge) bool {
		return e.Kind == satisfiability.KindFieldMove && e.FieldName == "reviews"
	})
	reviewInReviews := reviewsEdge.To

	bodyEdge := findEdge(t, g, reviewInReviews, func(e satisfiability.Edge) bool {
		return e.Kind == satisfiability.KindFieldMove && e.FieldName == "body"
	})

	root := querytree.NewRoot(rootID)
	querytree.Merge(root, []satisfiability.EdgeID{entrypoint.ID, productEdge.ID, nameEdge.ID}, querytree.FieldInfo{}, nil)
	querytree.Merge(root, []satisfiability.EdgeID{entrypoint.ID, productEdge.ID, entityMove.ID, reviewsEdge.ID, bodyEdge.ID}, querytree.FieldInfo{}, nil)
	return root
}

func TestBuild_RootStepCarriesLocalField(t *testing.T) {
	g := buildGraph(t)
	tree := buildQueryTree(t, g)

	fg := fetchplan.Build(g, tree)
	roots := rootSteps(fg)
	if len(roots) != 1 {
		t.Fatalf("expected exactly one root step, got %d", len(roots))
	}
	step := fg.Step(roots[0])
	if step.SubgraphID != "PRODUCTS" {
		t.Errorf("root subgraph = %s, want PRODUCTS", step.SubgraphID)
	}
	product := findField(step.Output, "product")
	if product == nil {
		t.Fatalf("expected root step output to carry 'product', got %v", step.Output)
	}
	if !hasField(product.Children, "name") {
		t.Errorf("expected 'name' nested under 'product', got %v", product.Children)
	}
}

func TestBuild_EntityMoveCreatesChildStep(t *testing.T) {
	g := buildGraph(t)
	tree := buildQueryTree(t, g)

	fg := fetchplan.Build(g, tree)
	roots := rootSteps(fg)
	children := fg.Children(roots[0])
	if len(children) != 1 {
		t.Fatalf("expected one child step off the root, got %d", len(children))
	}
	child := fg.Step(children[0])
	if child.SubgraphID != "REVIEWS" {
		t.Errorf("child subgraph = %s, want REVIEWS", child.SubgraphID)
	}
	if child.Input.String() != "id" {
		t.Errorf("child input = %q, want %q", child.Input.String(), "id")
	}
	if !hasField(child.Output, "reviews") {
		t.Errorf("expected child step output to carry 'reviews', got %v", child.Output)
	}
}

func TestOptimize_MergesSiblingStepsIntoTheSameSubgraphRequest(t *testing.T) {
	fg := fetchplan.New()
	root := fg.AddStep(fetchplan.FetchStep{SubgraphID: "PRODUCTS", ParentType: "Query"})
	a := fg.AddStep(fetchplan.FetchStep{SubgraphID: "REVIEWS", ParentType: "Product", Input: supergraph.Selection{{Name: "id"}}, Output: supergraph.Selection{{Name: "reviews"}}})
	b := fg.AddStep(fetchplan.FetchStep{SubgraphID: "REVIEWS", ParentType: "Product", Input: supergraph.Selection{{Name: "id"}}, Output: supergraph.Selection{{Name: "__typename"}}})
	fg.Connect(root, a)
	fg.Connect(root, b)

	fetchplan.Optimize(fg, false)

	children := fg.Children(root)
	if len(children) != 1 {
		t.Fatalf("expected the two REVIEWS fetches to merge into one, got %d", len(children))
	}
	merged := fg.Step(children[0])
	if !hasField(merged.Output, "reviews") || !hasField(merged.Output, "__typename") {
		t.Errorf("expected merged step to carry both fields, got %v", merged.Output)
	}
}

func TestOptimize_MergesSoleChildIntoParentInSameSubgraph(t *testing.T) {
	fg := fetchplan.New()
	root := fg.AddStep(fetchplan.FetchStep{SubgraphID: "PRODUCTS", ParentType: "Query", Output: supergraph.Selection{{Name: "id"}}})
	child := fg.AddStep(fetchplan.FetchStep{SubgraphID: "PRODUCTS", ParentType: "Query", Output: supergraph.Selection{{Name: "name"}}})
	fg.Connect(root, child)

	fetchplan.Optimize(fg, false)

	if len(fg.Steps()) != 1 {
		t.Fatalf("expected the same-subgraph child to collapse into its parent, got %d steps", len(fg.Steps()))
	}
	survivor := fg.Step(fg.Steps()[0])
	if !hasField(survivor.Output, "id") || !hasField(survivor.Output, "name") {
		t.Errorf("expected the surviving step to carry both fields, got %v", survivor.Output)
	}
}

func TestOptimize_SequencesMutationRootSteps(t *testing.T) {
	fg := fetchplan.New()
	first := fg.AddStep(fetchplan.FetchStep{SubgraphID: "ACCOUNTS", ParentType: "Mutation", Output: supergraph.Selection{{Name: "login"}}})
	second := fg.AddStep(fetchplan.FetchStep{SubgraphID: "CARTS", ParentType: "Mutation", Output: supergraph.Selection{{Name: "checkout"}}})

	fetchplan.Optimize(fg, true)

	if parents := fg.Parents(second); len(parents) != 1 || parents[0] != first {
		t.Errorf("expected second mutation step to depend on the first, got parents %v", parents)
	}
}

func TestOptimize_RemovesRedundantDirectEdge(t *testing.T) {
	fg := fetchplan.New()
	a := fg.AddStep(fetchplan.FetchStep{SubgraphID: "PRODUCTS", ParentType: "Query", Output: supergraph.Selection{{Name: "id"}}})
	b := fg.AddStep(fetchplan.FetchStep{SubgraphID: "INVENTORY", ParentType: "Product", Input: supergraph.Selection{{Name: "id"}}, Output: supergraph.Selection{{Name: "stock"}}})
	c := fg.AddStep(fetchplan.FetchStep{SubgraphID: "SHIPPING", ParentType: "Product", Input: supergraph.Selection{{Name: "id"}}, Output: supergraph.Selection{{Name: "estimate"}}})
	fg.Connect(a, b)
	fg.Connect(b, c)
	fg.Connect(a, c) // redundant: c is already reachable via a->b->c

	fetchplan.Optimize(fg, false)

	if parents := fg.Parents(c); len(parents) != 1 || parents[0] != b {
		t.Errorf("expected c's only parent to be b after reduction, got %v", parents)
	}
}

func rootSteps(fg *fetchplan.FetchGraph) []fetchplan.StepID {
	var out []fetchplan.StepID
	for _, id := range fg.Steps() {
		if len(fg.Parents(id)) == 0 {
			out = append(out, id)
		}
	}
	return out
}

func hasField(sel supergraph.Selection, name string) bool {
	return findField(sel, name) != nil
}

func findField(sel supergraph.Selection, name string) *supergraph.SelectionField {
	for i, f := range sel {
		if f.Name == name {
			return &sel[i]
		}
	}
	return nil
}
