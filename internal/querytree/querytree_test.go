package querytree_test

import (
	"testing"

	"github.com/n9te9/hive-query-router/internal/querytree"
	"github.com/n9te9/hive-query-router/internal/satisfiability"
	"github.com/n9te9/hive-query-router/internal/supergraph"
)

func TestMerge_SharesCommonPrefix(t *testing.T) {
	root := querytree.NewRoot(0)

	n1 := querytree.Merge(root, []satisfiability.EdgeID{1, 2}, querytree.FieldInfo{}, nil)
	n2 := querytree.Merge(root, []satisfiability.EdgeID{1, 3}, querytree.FieldInfo{}, nil)

	if len(root.Children) != 1 {
		t.Fatalf("expected one shared child for edge 1, got %d", len(root.Children))
	}
	shared := root.Children[0]
	if len(shared.Children) != 2 {
		t.Fatalf("expected two distinct children under the shared prefix, got %d", len(shared.Children))
	}
	if n1 == n2 {
		t.Error("distinct edge chains should produce distinct nodes")
	}
}

func TestMerge_RepeatedPathReturnsSameNode(t *testing.T) {
	root := querytree.NewRoot(0)

	n1 := querytree.Merge(root, []satisfiability.EdgeID{5}, querytree.FieldInfo{}, nil)
	n2 := querytree.Merge(root, []satisfiability.EdgeID{5}, querytree.FieldInfo{}, nil)

	if n1 != n2 {
		t.Error("merging the same edge chain twice should return the same node")
	}
	if len(root.Children) != 1 {
		t.Fatalf("expected no duplicate child, got %d", len(root.Children))
	}
}

func TestMerge_AttachesRequirementSubtree(t *testing.T) {
	root := querytree.NewRoot(0)

	node := querytree.Merge(root, []satisfiability.EdgeID{9}, querytree.FieldInfo{}, map[string][]querytree.RequirementPath{
		"name": {{Edges: []satisfiability.EdgeID{42}}},
	})

	reqs, ok := node.Requirements["name"]
	if !ok || len(reqs) != 1 {
		t.Fatalf("expected a requirement sub-tree for 'name', got %v", node.Requirements)
	}
	if len(reqs[0].Children) != 1 || reqs[0].Children[0].EdgeFromParent != 42 {
		t.Errorf("requirement sub-tree did not graft edge 42: %+v", reqs[0])
	}
}

func TestMerge_RequirementsWithDifferentArgumentsGetDistinctRoots(t *testing.T) {
	root := querytree.NewRoot(0)
	usd := []supergraph.Argument{{Name: "currency", Value: supergraph.Value{Kind: supergraph.ValueString, Raw: "USD"}}}
	eur := []supergraph.Argument{{Name: "currency", Value: supergraph.Value{Kind: supergraph.ValueString, Raw: "EUR"}}}

	node := querytree.Merge(root, []satisfiability.EdgeID{9}, querytree.FieldInfo{}, map[string][]querytree.RequirementPath{
		"price": {
			{Edges: []satisfiability.EdgeID{42}, Arguments: usd},
			{Edges: []satisfiability.EdgeID{43}, Arguments: eur},
		},
	})

	reqs := node.Requirements["price"]
	if len(reqs) != 2 {
		t.Fatalf("expected two distinct requirement roots for differently-argued 'price', got %d", len(reqs))
	}
	if !supergraph.SameArguments(reqs[0].Arguments, usd) || !supergraph.SameArguments(reqs[1].Arguments, eur) {
		t.Errorf("requirement roots did not retain their distinguishing arguments: %+v", reqs)
	}
}

func TestMerge_RequirementsWithSameArgumentsShareARoot(t *testing.T) {
	root := querytree.NewRoot(0)
	usd := []supergraph.Argument{{Name: "currency", Value: supergraph.Value{Kind: supergraph.ValueString, Raw: "USD"}}}

	node := querytree.Merge(root, []satisfiability.EdgeID{9}, querytree.FieldInfo{}, map[string][]querytree.RequirementPath{
		"price": {
			{Edges: []satisfiability.EdgeID{42}, Arguments: usd},
			{Edges: []satisfiability.EdgeID{42}, Arguments: usd},
		},
	})

	reqs := node.Requirements["price"]
	if len(reqs) != 1 {
		t.Fatalf("expected identical-argument requirement resolutions to share one root, got %d", len(reqs))
	}
}
