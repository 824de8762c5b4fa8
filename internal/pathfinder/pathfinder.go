package pathfinder

import (
	"github.com/n9te9/hive-query-router/internal/satisfiability"
	"github.com/n9te9/hive-query-router/internal/supergraph"
)

// TargetKind discriminates what a NavigationTarget is looking for.
type TargetKind int

const (
	TargetField TargetKind = iota
	TargetConcreteType
)

// NavigationTarget is what FindDirectPaths/FindIndirectPaths are trying to
// reach from a path's current tail: either a named field, or a concrete
// type narrowing (stepping through an abstract-move edge).
type NavigationTarget struct {
	Kind      TargetKind
	FieldName string
	TypeName  string
}

func (t NavigationTarget) matches(edge satisfiability.Edge) bool {
	switch t.Kind {
	case TargetField:
		return edge.Kind == satisfiability.KindFieldMove && edge.FieldName == t.FieldName
	case TargetConcreteType:
		switch edge.Kind {
		case satisfiability.KindAbstractMove:
			return edge.TargetType == t.TypeName
		case satisfiability.KindInterfaceObjectTypeMove:
			return edge.TargetType == t.TypeName
		}
	}
	return false
}

// FindDirectPaths explores every edge leaving path's tail that matches
// target and whose requirements (if any) are satisfiable from path itself,
// without crossing into another subgraph first.
func FindDirectPaths(graph *satisfiability.Graph, path *OperationPath, target NavigationTarget) ([]*OperationPath, error) {
	var out []*OperationPath
	for _, edge := range graph.EdgesFrom(path.Tail) {
		if !target.matches(edge) {
			continue
		}
		ok, reqs, err := CanSatisfyEdge(graph, edge, path, NewExcluded())
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		out = append(out, path.advance(edge, 0, reqs))
	}
	return out, nil
}

type indirectQueueItem struct {
	excluded Excluded
	path     *OperationPath
}

// FindIndirectPaths explores entity-move (and interface-object) edges
// breadth-first, landing in a new subgraph and then retrying a direct
// search from there; a subgraph is only ever entered once per branch. Every
// path returned pays satisfiability.IndirectEntityMovePenalty on top of its
// edges' own costs so a direct resolution is always preferred when one
// exists.
func FindIndirectPaths(graph *satisfiability.Graph, path *OperationPath, target NavigationTarget, excluded Excluded) ([]*OperationPath, error) {
	tracker := NewBestPathTracker(graph)
	sourceGraphID := graph.Node(path.Tail).GraphID

	queue := []indirectQueueItem{{excluded, path}}
	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		for _, edge := range graph.EdgesFrom(item.path.Tail) {
			if edge.Kind != satisfiability.KindEntityMove && edge.Kind != satisfiability.KindInterfaceObjectTypeMove {
				continue
			}

			targetGraphID := graph.Node(edge.To).GraphID
			if item.excluded.hasVisitedGraph(targetGraphID) {
				continue
			}
			if targetGraphID == sourceGraphID && edge.Kind != satisfiability.KindInterfaceObjectTypeMove {
				// don't bounce straight back to the graph we started in
				continue
			}

			reqKey := edgeRequirement(edge).String()
			if item.excluded.hasVisitedRequirement(reqKey) {
				continue
			}
			nextExcluded := item.excluded.Next(targetGraphID, reqKey)

			ok, reqs, err := CanSatisfyEdge(graph, edge, item.path, nextExcluded)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}

			nextPath := item.path.advance(edge, satisfiability.IndirectEntityMovePenalty, reqs)

			directPaths, err := FindDirectPaths(graph, nextPath, target)
			if err != nil {
				return nil, err
			}
			if len(directPaths) > 0 {
				for _, dp := range directPaths {
					tracker.Add(dp)
				}
				continue
			}

			queue = append(queue, indirectQueueItem{nextExcluded, nextPath})
		}
	}

	return tracker.BestPaths(), nil
}

func edgeRequirement(edge satisfiability.Edge) supergraph.Selection {
	switch edge.Kind {
	case satisfiability.KindFieldMove:
		return edge.Requires
	case satisfiability.KindEntityMove:
		return edge.EntityKey
	default:
		return nil
	}
}

// CanSatisfyEdge checks whether edge's requirement selection (its @requires
// for a field move, or its @key for an entity move) can be resolved from
// path, recursively walking into composite requirement fields. It returns
// the resolutions for every leaf requirement field actually found, so the
// query-tree builder can graft them in as sibling fetches.
func CanSatisfyEdge(graph *satisfiability.Graph, edge satisfiability.Edge, path *OperationPath, excluded Excluded) (bool, []RequirementResolution, error) {
	requirement := edgeRequirement(edge)
	if len(requirement) == 0 {
		return true, nil, nil
	}

	var resolutions []RequirementResolution
	for _, field := range requirement {
		ok, reqs, err := resolveRequirementField(graph, path, field, excluded)
		if err != nil {
			return false, nil, err
		}
		if !ok {
			return false, nil, nil
		}
		resolutions = append(resolutions, reqs...)
	}
	return true, resolutions, nil
}

func resolveRequirementField(graph *satisfiability.Graph, path *OperationPath, field supergraph.SelectionField, excluded Excluded) (bool, []RequirementResolution, error) {
	if field.Name == "__typename" {
		return true, nil, nil
	}

	target := NavigationTarget{Kind: TargetField, FieldName: field.Name}
	direct, err := FindDirectPaths(graph, path, target)
	if err != nil {
		return false, nil, err
	}
	indirect, err := FindIndirectPaths(graph, path, target, excluded)
	if err != nil {
		return false, nil, err
	}
	candidates := append(direct, indirect...)
	if len(candidates) == 0 {
		return false, nil, nil
	}

	if len(field.Children) == 0 {
		return true, []RequirementResolution{{FieldName: field.Name, Arguments: field.Arguments, Paths: FindBestPaths(candidates)}}, nil
	}

	var nested []RequirementResolution
	for _, child := range field.Children {
		satisfied := false
		for _, candidate := range candidates {
			ok, reqs, err := resolveRequirementField(graph, candidate, child, excluded)
			if err != nil {
				return false, nil, err
			}
			if ok {
				satisfied = true
				nested = append(nested, reqs...)
				break
			}
		}
		if !satisfied {
			return false, nil, nil
		}
	}
	return true, nested, nil
}
