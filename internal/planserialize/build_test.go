package planserialize_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/n9te9/hive-query-router/internal/fetchplan"
	"github.com/n9te9/hive-query-router/internal/planserialize"
	"github.com/n9te9/hive-query-router/internal/supergraph"
)

func TestBuild_SingleRootStepUnwraps(t *testing.T) {
	fg := fetchplan.New()
	fg.AddStep(fetchplan.FetchStep{SubgraphID: "PRODUCTS", ParentType: "Query", Output: supergraph.Selection{{Name: "name"}}})

	plan := planserialize.Build(fg, "query")
	fetch, ok := plan.Node.(planserialize.Fetch)
	if !ok {
		t.Fatalf("expected a bare Fetch node, got %T", plan.Node)
	}
	if fetch.ServiceName != "PRODUCTS" || fetch.OperationKind != "query" {
		t.Errorf("unexpected fetch: %+v", fetch)
	}
	if !strings.Contains(fetch.Operation, "name") {
		t.Errorf("operation text missing selected field: %s", fetch.Operation)
	}
}

func TestBuild_EntityMoveWrapsInFlattenWithRequires(t *testing.T) {
	fg := fetchplan.New()
	root := fg.AddStep(fetchplan.FetchStep{SubgraphID: "PRODUCTS", ParentType: "Query", Output: supergraph.Selection{{Name: "name"}}})
	child := fg.AddStep(fetchplan.FetchStep{
		SubgraphID:   "REVIEWS",
		ParentType:   "Product",
		ResponsePath: []string{"product"},
		Input:        supergraph.Selection{{Name: "id"}},
		Output:       supergraph.Selection{{Name: "reviews"}},
	})
	fg.Connect(root, child)

	plan := planserialize.Build(fg, "query")
	seq, ok := plan.Node.(planserialize.Sequence)
	if !ok || len(seq.Nodes) != 2 {
		t.Fatalf("expected a two-step Sequence, got %#v", plan.Node)
	}
	flatten, ok := seq.Nodes[1].(planserialize.Flatten)
	if !ok {
		t.Fatalf("expected the child step wrapped in Flatten, got %T", seq.Nodes[1])
	}
	if len(flatten.Path) != 1 || flatten.Path[0] != "product" {
		t.Errorf("flatten path = %v, want [product]", flatten.Path)
	}
	fetch := flatten.Node.(planserialize.Fetch)
	if fetch.OperationKind != "query" {
		t.Errorf("entity fetch kind = %s, want query", fetch.OperationKind)
	}
	if len(fetch.Requires) != 1 {
		t.Fatalf("expected one requires entry, got %d", len(fetch.Requires))
	}
	frag, ok := fetch.Requires[0].(planserialize.RequiresInlineFragment)
	if !ok || frag.TypeCondition != "Product" {
		t.Fatalf("requires[0] = %#v, want InlineFragment on Product", fetch.Requires[0])
	}
	if len(frag.Selections) != 2 {
		t.Fatalf("expected __typename + id in requires selections, got %v", frag.Selections)
	}
}

func TestBuild_VariableUsagesCollectedFromArguments(t *testing.T) {
	fg := fetchplan.New()
	fg.AddStep(fetchplan.FetchStep{
		SubgraphID: "PRODUCTS",
		ParentType: "Query",
		Output: supergraph.Selection{{
			Name: "product",
			Arguments: []supergraph.Argument{
				{Name: "id", Value: supergraph.Value{Kind: supergraph.ValueVariable, Raw: "id"}},
			},
			Children: supergraph.Selection{{Name: "name"}},
		}},
	})

	plan := planserialize.Build(fg, "query")
	fetch := plan.Node.(planserialize.Fetch)
	if len(fetch.VariableUsages) != 1 || fetch.VariableUsages[0] != "id" {
		t.Errorf("variableUsages = %v, want [id]", fetch.VariableUsages)
	}
	if !strings.Contains(fetch.Operation, "product(id: $id)") {
		t.Errorf("operation text missing rendered argument: %s", fetch.Operation)
	}
}

func TestPlanMarshalJSON_StableShape(t *testing.T) {
	fg := fetchplan.New()
	fg.AddStep(fetchplan.FetchStep{SubgraphID: "PRODUCTS", ParentType: "Query", Output: supergraph.Selection{{Name: "name"}}})
	plan := planserialize.Build(fg, "query")

	data, err := json.Marshal(plan)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded["kind"] != "QueryPlan" {
		t.Errorf("kind = %v, want QueryPlan", decoded["kind"])
	}
	node, ok := decoded["node"].(map[string]any)
	if !ok || node["kind"] != "Fetch" {
		t.Fatalf("node = %v, want a Fetch node", decoded["node"])
	}
}
