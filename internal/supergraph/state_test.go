package supergraph_test

import (
	"testing"

	"github.com/n9te9/hive-query-router/internal/supergraph"
)

const stateTestSDL = `
enum join__Graph {
  PRODUCTS @join__graph(name: "products", url: "http://products")
  REVIEWS @join__graph(name: "reviews", url: "http://reviews")
}

type Query @join__type(graph: PRODUCTS) {
  product(id: ID!): Product @join__field(graph: PRODUCTS)
  node: Node @join__field(graph: PRODUCTS)
}

interface Node @join__type(graph: PRODUCTS) {
  id: ID!
}

type Product implements Node @join__type(graph: PRODUCTS, key: "id") @join__type(graph: REVIEWS, key: "id") @join__implements(graph: PRODUCTS, interface: "Node") {
  id: ID! @join__field(graph: PRODUCTS) @join__field(graph: REVIEWS)
  name: String! @join__field(graph: PRODUCTS)
}

type User implements Node @join__type(graph: PRODUCTS) @join__implements(graph: PRODUCTS, interface: "Node") {
  id: ID! @join__field(graph: PRODUCTS)
}

union SearchResult @join__type(graph: PRODUCTS) @join__unionMember(graph: PRODUCTS, member: "Product") @join__unionMember(graph: PRODUCTS, member: "User") = Product | User
`

func buildState(t *testing.T) *supergraph.State {
	t.Helper()
	state, err := supergraph.Parse([]byte(stateTestSDL))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return state
}

func TestParse_ResolvesGraphAliases(t *testing.T) {
	state := buildState(t)
	id, err := state.ResolveGraphID("PRODUCTS")
	if err != nil {
		t.Fatalf("ResolveGraphID: %v", err)
	}
	if id == "" {
		t.Error("expected a non-empty SubgraphId for PRODUCTS")
	}
	if _, err := state.ResolveGraphID("NOPE"); err == nil {
		t.Error("expected an error resolving an unknown graph alias")
	}
}

func TestParse_RootTypeNames(t *testing.T) {
	state := buildState(t)
	if got := state.RootTypeName(supergraph.RootQuery); got != "Query" {
		t.Errorf("RootTypeName(Query) = %q, want Query", got)
	}
	if got := state.RootTypeName(supergraph.RootMutation); got != "" {
		t.Errorf("RootTypeName(Mutation) = %q, want empty (no mutation declared)", got)
	}
}

func TestState_TypeByName(t *testing.T) {
	state := buildState(t)
	td, ok := state.TypeByName("Product")
	if !ok {
		t.Fatal("expected Product to be found")
	}
	if td.Kind != supergraph.KindObject {
		t.Errorf("expected Product to be an object type, got %v", td.Kind)
	}
	if _, ok := state.TypeByName("Ghost"); ok {
		t.Error("expected Ghost to be absent")
	}
}

func TestState_AllImplementors(t *testing.T) {
	state := buildState(t)
	implementors := state.AllImplementors("Node")
	if len(implementors) != 2 {
		t.Fatalf("expected 2 implementors of Node, got %d", len(implementors))
	}
	names := map[string]bool{}
	for _, td := range implementors {
		names[td.Name] = true
	}
	if !names["Product"] || !names["User"] {
		t.Errorf("expected Product and User, got %v", names)
	}
}

func TestState_AllUnionMembers(t *testing.T) {
	state := buildState(t)
	members := state.AllUnionMembers("SearchResult")
	if len(members) != 2 {
		t.Fatalf("expected 2 union members, got %d", len(members))
	}
}

func TestState_GraphsHostingType(t *testing.T) {
	state := buildState(t)
	graphs := state.GraphsHostingType("Product")
	if len(graphs) != 2 {
		t.Fatalf("expected Product to be hosted in 2 graphs, got %d", len(graphs))
	}
}

func TestState_IsScalarType(t *testing.T) {
	state := buildState(t)
	if !state.IsScalarType("String") {
		t.Error("expected String to be a scalar")
	}
	if state.IsScalarType("Product") {
		t.Error("expected Product not to be a scalar")
	}
}
