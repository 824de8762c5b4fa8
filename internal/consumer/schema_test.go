package consumer_test

import (
	"testing"

	"github.com/n9te9/hive-query-router/internal/consumer"
	"github.com/n9te9/hive-query-router/internal/supergraph"
)

const consumerTestSDL = `
enum join__Graph {
  A @join__graph(name: "a", url: "http://a")
}

interface Node @join__type(graph: A) {
  id: ID!
}

type Query @join__type(graph: A) {
  product(id: ID!): Product @join__field(graph: A)
}

type Product implements Node @join__type(graph: A) @join__implements(graph: A, interface: "Node") {
  id: ID! @join__field(graph: A)
  name: String! @join__field(graph: A)
  reviews: [String!] @join__field(graph: A)
}
`

func buildSchema(t *testing.T) *consumer.Schema {
	t.Helper()
	state, err := supergraph.Parse([]byte(consumerTestSDL))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return consumer.New(state)
}

func TestSchema_FieldByName(t *testing.T) {
	schema := buildSchema(t)

	info, err := schema.FieldByName("Product", "name")
	if err != nil {
		t.Fatalf("FieldByName: %v", err)
	}
	if info.FieldType != "String" || !info.IsNonNull || info.IsList {
		t.Errorf("unexpected FieldInfo for name: %+v", info)
	}

	info, err = schema.FieldByName("Product", "reviews")
	if err != nil {
		t.Fatalf("FieldByName: %v", err)
	}
	if !info.IsList || info.IsNonNull {
		t.Errorf("unexpected FieldInfo for reviews: %+v", info)
	}
}

func TestSchema_FieldByName_Typename(t *testing.T) {
	schema := buildSchema(t)
	info, err := schema.FieldByName("Product", "__typename")
	if err != nil {
		t.Fatalf("FieldByName(__typename): %v", err)
	}
	if info.FieldType != "String" || !info.IsNonNull {
		t.Errorf("expected __typename to be non-null String, got %+v", info)
	}
}

func TestSchema_FieldByName_Unknown(t *testing.T) {
	schema := buildSchema(t)
	if _, err := schema.FieldByName("Product", "ghost"); err == nil {
		t.Error("expected an error for an unknown field")
	}
	if _, err := schema.FieldByName("Ghost", "id"); err == nil {
		t.Error("expected an error for an unknown type")
	}
}

func TestSchema_IsAbstractType(t *testing.T) {
	schema := buildSchema(t)
	if !schema.IsAbstractType("Node") {
		t.Error("expected Node (interface) to be abstract")
	}
	if schema.IsAbstractType("Product") {
		t.Error("expected Product (object) not to be abstract")
	}
}
