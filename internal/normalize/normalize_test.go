package normalize_test

import (
	"testing"

	"github.com/n9te9/graphql-parser/ast"

	"github.com/n9te9/hive-query-router/internal/consumer"
	"github.com/n9te9/hive-query-router/internal/normalize"
	"github.com/n9te9/hive-query-router/internal/supergraph"
)

const normalizeTestSDL = `
enum join__Graph {
  A @join__graph(name: "a", url: "http://a")
}

interface Node @join__type(graph: A) {
  id: ID!
}

type Query @join__type(graph: A) {
  node: Node @join__field(graph: A)
  product(id: ID!): Product @join__field(graph: A)
}

type Product implements Node @join__type(graph: A) @join__implements(graph: A, interface: "Node") {
  id: ID! @join__field(graph: A)
  name: String! @join__field(graph: A)
}

type User implements Node @join__type(graph: A) @join__implements(graph: A, interface: "Node") {
  id: ID! @join__field(graph: A)
  email: String! @join__field(graph: A)
}
`

func buildSchema(t *testing.T) *consumer.Schema {
	t.Helper()
	state, err := supergraph.Parse([]byte(normalizeTestSDL))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return consumer.New(state)
}

func TestNormalize_InlinesSameTypeFragmentAndSortsFields(t *testing.T) {
	schema := buildSchema(t)
	result, err := normalize.Normalize(`query { product(id: "1") { name ... on Product { id } } }`, "", nil, schema)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	product := result.Operation.SelectionSet[0].(*ast.Field)
	if len(product.SelectionSet) != 2 {
		t.Fatalf("expected the same-type fragment to flatten into 2 fields, got %d", len(product.SelectionSet))
	}
	// sorted: id before name
	if got := product.SelectionSet[0].(*ast.Field).Name.String(); got != "id" {
		t.Errorf("expected sorted selections to start with 'id', got %q", got)
	}
}

func TestNormalize_KeepsApplicableInterfaceNarrowing(t *testing.T) {
	schema := buildSchema(t)
	result, err := normalize.Normalize(`query { node { id ... on User { email } } }`, "", nil, schema)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	node := result.Operation.SelectionSet[0].(*ast.Field)
	var sawFragment bool
	for _, s := range node.SelectionSet {
		if _, ok := s.(*ast.InlineFragment); ok {
			sawFragment = true
		}
	}
	if !sawFragment {
		t.Errorf("expected the User narrowing fragment to survive on the Node-typed field, got %v", node.SelectionSet)
	}
}

func TestNormalize_DropsImpossibleFragment(t *testing.T) {
	schema := buildSchema(t)
	result, err := normalize.Normalize(`query { product(id: "1") { name ... on User { email } } }`, "", nil, schema)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	product := result.Operation.SelectionSet[0].(*ast.Field)
	if len(product.SelectionSet) != 1 {
		t.Fatalf("expected the impossible User fragment on a Product selection to be dropped, got %v", product.SelectionSet)
	}
}

func TestNormalize_VariableDrivenSkipIsFullyEvaluated(t *testing.T) {
	schema := buildSchema(t)
	result, err := normalize.Normalize(
		`query($withName: Boolean!) { product(id: "1") { id name @skip(if: $withName) } }`,
		"", map[string]any{"withName": true}, schema,
	)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	product := result.Operation.SelectionSet[0].(*ast.Field)
	if len(product.SelectionSet) != 1 || product.SelectionSet[0].(*ast.Field).Name.String() != "id" {
		t.Fatalf("expected 'name' to be skipped, got %v", product.SelectionSet)
	}
}

func TestNormalize_DefaultVariableValueApplied(t *testing.T) {
	schema := buildSchema(t)
	result, err := normalize.Normalize(`query($id: ID! = "fallback") { product(id: $id) { id } }`, "", nil, schema)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if result.Variables["id"] != "fallback" {
		t.Errorf("expected default value 'fallback' to be resolved, got %v", result.Variables["id"])
	}
}

func TestNormalize_MissingRequiredVariableErrors(t *testing.T) {
	schema := buildSchema(t)
	if _, err := normalize.Normalize(`query($id: ID!) { product(id: $id) { id } }`, "", nil, schema); err == nil {
		t.Error("expected an error for a missing required variable with no default")
	}
}

func TestNormalize_IsIdempotent(t *testing.T) {
	schema := buildSchema(t)
	raw := `query { product(id: "1") { name ... on Product { id } } }`

	first, err := normalize.Normalize(raw, "", nil, schema)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	second, err := normalize.Normalize(raw, "", nil, schema)
	if err != nil {
		t.Fatalf("Normalize (second pass): %v", err)
	}

	p1 := first.Operation.SelectionSet[0].(*ast.Field)
	p2 := second.Operation.SelectionSet[0].(*ast.Field)
	if len(p1.SelectionSet) != len(p2.SelectionSet) {
		t.Fatalf("expected repeated normalization to be structurally stable, got %d vs %d fields", len(p1.SelectionSet), len(p2.SelectionSet))
	}
	for i := range p1.SelectionSet {
		a := p1.SelectionSet[i].(*ast.Field).Name.String()
		b := p2.SelectionSet[i].(*ast.Field).Name.String()
		if a != b {
			t.Errorf("field order mismatch at %d: %q vs %q", i, a, b)
		}
	}
}
