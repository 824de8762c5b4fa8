package planserialize

import (
	"sort"

	"github.com/n9te9/hive-query-router/internal/fetchplan"
	"github.com/n9te9/hive-query-router/internal/supergraph"
)

// Build lowers an optimized fetch graph into a Plan. rootOperationKind is
// the kind of the operation the graph was planned from ("query",
// "mutation", or "subscription") and applies only to root steps; every
// entity-move step queries _entities and is always a "query".
func Build(fg *fetchplan.FetchGraph, rootOperationKind string) Plan {
	var roots []fetchplan.StepID
	for _, id := range fg.Steps() {
		if len(fg.Parents(id)) == 0 {
			roots = append(roots, id)
		}
	}
	return Plan{Node: groupNodes(fg, roots, rootOperationKind)}
}

func groupNodes(fg *fetchplan.FetchGraph, ids []fetchplan.StepID, rootOperationKind string) Node {
	nodes := make([]Node, 0, len(ids))
	for _, id := range ids {
		nodes = append(nodes, nodeFor(fg, id, rootOperationKind))
	}
	if len(nodes) == 1 {
		return nodes[0]
	}
	return Parallel{Nodes: nodes}
}

// nodeFor builds the node for one step plus everything that depends on it:
// a step with children becomes Sequence{step, nextLayer}, since a child
// cannot run until its parent's data is available.
func nodeFor(fg *fetchplan.FetchGraph, id fetchplan.StepID, rootOperationKind string) Node {
	step := fg.Step(id)
	isRoot := len(fg.Parents(id)) == 0

	var fetchNode Node = buildFetch(step, isRoot, rootOperationKind)
	if len(step.Input) > 0 {
		fetchNode = Flatten{Path: step.ResponsePath, Node: fetchNode}
	}

	children := fg.Children(id)
	if len(children) == 0 {
		return fetchNode
	}
	next := groupNodes(fg, children, rootOperationKind)
	return Sequence{Nodes: []Node{fetchNode, next}}
}

func buildFetch(step *fetchplan.FetchStep, isRoot bool, rootOperationKind string) Fetch {
	if isRoot {
		return Fetch{
			ServiceName:    string(step.SubgraphID),
			OperationKind:  rootOperationKind,
			Operation:      writeRootOperation(rootOperationKind, step.Output),
			VariableUsages: collectVariableUsages(step.Output, false),
		}
	}
	return Fetch{
		ServiceName:    string(step.SubgraphID),
		OperationKind:  "query",
		Operation:      writeEntityOperation(step.ParentType, step.Output),
		VariableUsages: collectVariableUsages(step.Output, true),
		Requires:       requiresFromSelection(step.ParentType, step.Input),
	}
}

// collectVariableUsages walks out (the step's emitted selection) for every
// argument-bound variable, the same recursive walk query_builder_v2's
// collectVariablesRecursive does for the legacy executor. An entity-move
// step always binds $representations regardless of what its own selection
// references.
func collectVariableUsages(out supergraph.Selection, needsRepresentations bool) []string {
	used := make(map[string]bool)
	if needsRepresentations {
		used[representationsVariable] = true
	}
	out.CollectVariables(used)
	if len(used) == 0 {
		return nil
	}
	names := make([]string, 0, len(used))
	for name := range used {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
