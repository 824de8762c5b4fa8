package router

import (
	"context"
	"errors"
	"strings"

	"github.com/n9te9/graphql-parser/ast"

	"github.com/n9te9/hive-query-router/internal/pathfinder"
	"github.com/n9te9/hive-query-router/internal/querytree"
	"github.com/n9te9/hive-query-router/internal/satisfiability"
	"github.com/n9te9/hive-query-router/internal/supergraph"
)

var errDepthExceeded = errors.New("selection depth exceeded maxPlanDepth")

// maxPlanDepth guards against a pathological or cyclic supergraph sending
// field resolution into unbounded recursion; no real schema nests this
// deep.
const maxPlanDepth = 128

// startPoint is one place field resolution could begin from: either a
// subgraph entrypoint (at the operation root) or a single field's chosen
// path (everywhere else). baseRequirementCount records how many of the
// accumulated OperationPath.Requirements entries existed before this
// starting point, so a winning candidate's *new* requirements (the ones
// this hop resolved) can be sliced out without re-attaching an ancestor's
// already-merged requirements to a descendant node.
type startPoint struct {
	path                 *pathfinder.OperationPath
	baseRequirementCount int
}

// planner walks a normalized, authorized operation's selection tree,
// grafting every field's best satisfiability path onto a shared query
// tree rooted at the operation's entry node.
type planner struct {
	graph *satisfiability.Graph
}

// planOperation builds the query tree for op, whose root type is backed by
// rootNode in graph.
func (p *planner) planOperation(ctx context.Context, op *ast.OperationDefinition, rootNode satisfiability.NodeID) (*querytree.Node, error) {
	root := querytree.NewRoot(rootNode)
	entrypoints := pathfinder.FindEntrypoints(p.graph, rootNode)
	starts := make([]startPoint, len(entrypoints))
	for i, ep := range entrypoints {
		starts[i] = startPoint{path: ep}
	}
	if err := p.planSelections(ctx, op.SelectionSet, starts, root, "", 0); err != nil {
		return nil, err
	}
	return root, nil
}

func (p *planner) planSelections(ctx context.Context, selections []ast.Selection, starts []startPoint, root *querytree.Node, pathPrefix string, depth int) error {
	if depth > maxPlanDepth {
		return &PlannerFailure{Kind: PlannerInternal, Path: pathPrefix, Err: errDepthExceeded}
	}

	for _, sel := range selections {
		switch node := sel.(type) {
		case *ast.Field:
			if err := p.planField(ctx, node, starts, root, pathPrefix, depth); err != nil {
				return err
			}
		case *ast.InlineFragment:
			if err := p.planInlineFragment(ctx, node, starts, root, pathPrefix, depth); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *planner) planField(ctx context.Context, field *ast.Field, starts []startPoint, root *querytree.Node, pathPrefix string, depth int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fieldPath := joinPath(pathPrefix, responseKey(field))
	target := pathfinder.NavigationTarget{Kind: pathfinder.TargetField, FieldName: field.Name.String()}

	chosen, newReqs, err := p.resolve(ctx, starts, target, fieldPath)
	if err != nil {
		return err
	}

	info := querytree.FieldInfo{Alias: fieldAlias(field), Arguments: convertArguments(field.Arguments)}
	querytree.Merge(root, chosen.Edges, info, toRequirements(newReqs))

	if len(field.SelectionSet) == 0 {
		return nil
	}
	return p.planSelections(ctx, field.SelectionSet, []startPoint{{path: chosen, baseRequirementCount: len(chosen.Requirements)}}, root, fieldPath, depth+1)
}

func (p *planner) planInlineFragment(ctx context.Context, frag *ast.InlineFragment, starts []startPoint, root *querytree.Node, pathPrefix string, depth int) error {
	if frag.TypeCondition == nil || frag.TypeCondition.Name == nil {
		return p.planSelections(ctx, frag.SelectionSet, starts, root, pathPrefix, depth+1)
	}

	typeName := frag.TypeCondition.Name.String()
	target := pathfinder.NavigationTarget{Kind: pathfinder.TargetConcreteType, TypeName: typeName}

	chosen, _, err := p.resolve(ctx, starts, target, pathPrefix)
	if err != nil {
		return err
	}

	return p.planSelections(ctx, frag.SelectionSet, []startPoint{{path: chosen, baseRequirementCount: len(chosen.Requirements)}}, root, pathPrefix, depth+1)
}

// resolve finds the cheapest path to target reachable from any of starts,
// returning the winning OperationPath and only the requirement
// resolutions newly introduced by the hop from its starting point (not
// whatever that starting point had already accumulated).
func (p *planner) resolve(ctx context.Context, starts []startPoint, target pathfinder.NavigationTarget, path string) (*pathfinder.OperationPath, []pathfinder.RequirementResolution, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var candidates []*pathfinder.OperationPath
	baseByPath := make(map[*pathfinder.OperationPath]int)

	for _, start := range starts {
		direct, err := pathfinder.FindDirectPaths(p.graph, start.path, target)
		if err != nil {
			return nil, nil, &PlannerFailure{Kind: InvalidKeySelection, Path: path, Err: err}
		}
		indirect, err := pathfinder.FindIndirectPaths(p.graph, start.path, target, pathfinder.NewExcluded())
		if err != nil {
			return nil, nil, &PlannerFailure{Kind: InvalidKeySelection, Path: path, Err: err}
		}
		for _, c := range direct {
			baseByPath[c] = start.baseRequirementCount
			candidates = append(candidates, c)
		}
		for _, c := range indirect {
			baseByPath[c] = start.baseRequirementCount
			candidates = append(candidates, c)
		}
	}

	recordPathsExplored(len(candidates))
	if len(candidates) == 0 {
		return nil, nil, &PlannerFailure{Kind: Unsatisfiable, Path: path}
	}

	best := pathfinder.FindBestPaths(candidates)
	chosen := best[0]
	base := baseByPath[chosen]
	return chosen, chosen.Requirements[base:], nil
}

// toRequirements converts the pathfinder's resolution list into the shape
// querytree.Merge expects, keyed by the requirement field name.
func toRequirements(resolutions []pathfinder.RequirementResolution) map[string][]querytree.RequirementPath {
	if len(resolutions) == 0 {
		return nil
	}
	out := make(map[string][]querytree.RequirementPath, len(resolutions))
	for _, r := range resolutions {
		for _, p := range r.Paths {
			out[r.FieldName] = append(out[r.FieldName], querytree.RequirementPath{Edges: p.Edges, Arguments: r.Arguments})
		}
	}
	return out
}

func responseKey(field *ast.Field) string {
	if field.Alias != nil && field.Alias.String() != "" {
		return field.Alias.String()
	}
	return field.Name.String()
}

// fieldAlias returns field's explicit alias, or "" if it has none.
func fieldAlias(field *ast.Field) string {
	if field.Alias != nil {
		return field.Alias.String()
	}
	return ""
}

// convertArguments lifts a field's parsed arguments into the supergraph
// package's argument representation, the shape shared by field-set
// arguments and operation-level arguments alike once they reach fetchplan.
func convertArguments(args []*ast.Argument) []supergraph.Argument {
	if len(args) == 0 {
		return nil
	}
	out := make([]supergraph.Argument, len(args))
	for i, a := range args {
		out[i] = supergraph.Argument{Name: a.Name.String(), Value: supergraph.ValueFromAST(a.Value)}
	}
	return out
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return strings.Join([]string{prefix, key}, ".")
}
