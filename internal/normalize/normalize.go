// Package normalize runs the pre-planner rewrites every operation goes
// through before authorization and planning ever see it: pick the operation,
// resolve variables against their declared types and defaults, apply static
// @skip/@include, inline and prune fragments, and sort the tree so two
// requests that differ only in field order or whitespace normalize to the
// same shape.
package normalize

import (
	"fmt"
	"sort"

	"github.com/n9te9/graphql-parser/ast"
	"github.com/n9te9/graphql-parser/lexer"
	"github.com/n9te9/graphql-parser/parser"
	gqlast "github.com/vektah/gqlparser/v2/ast"
	gqlparser "github.com/vektah/gqlparser/v2/parser"

	"github.com/n9te9/hive-query-router/internal/consumer"
	"github.com/n9te9/hive-query-router/internal/supergraph"
)

// Result is the normalized form a request carries into authorization and
// planning.
type Result struct {
	Operation *ast.OperationDefinition
	Variables map[string]any
}

// Normalize parses raw, validates it structurally, selects operationName (or
// the sole operation when raw declares only one), resolves rawVariables
// against the operation's declared variables, and returns the normalized
// tree.
func Normalize(raw string, operationName string, rawVariables map[string]any, schema *consumer.Schema) (*Result, error) {
	if _, gqlErr := gqlparser.ParseQuery(&gqlast.Source{Input: raw}); gqlErr != nil {
		return nil, fmt.Errorf("normalize: %w", gqlErr)
	}

	l := lexer.New(raw)
	p := parser.New(l)
	doc := p.ParseDocument()
	if len(p.Errors()) > 0 {
		return nil, fmt.Errorf("normalize: %v", p.Errors())
	}

	op, err := selectOperation(doc, operationName)
	if err != nil {
		return nil, err
	}

	variables, err := resolveVariables(op.VariableDefinitions, rawVariables)
	if err != nil {
		return nil, err
	}

	rootType := rootTypeName(schema, op.Operation)
	n := &normalizer{schema: schema, fragments: collectFragments(doc), variables: variables}
	selections := n.normalizeSelections(op.SelectionSet, rootType)

	newOp := &ast.OperationDefinition{
		Operation:           op.Operation,
		Name:                op.Name,
		VariableDefinitions: sortVariableDefinitions(op.VariableDefinitions),
		Directives:          op.Directives,
		SelectionSet:        selections,
	}
	return &Result{Operation: newOp, Variables: variables}, nil
}

func selectOperation(doc *ast.Document, operationName string) (*ast.OperationDefinition, error) {
	var ops []*ast.OperationDefinition
	for _, def := range doc.Definitions {
		if op, ok := def.(*ast.OperationDefinition); ok {
			ops = append(ops, op)
		}
	}
	switch {
	case len(ops) == 0:
		return nil, fmt.Errorf("normalize: document declares no operations")
	case operationName != "":
		for _, op := range ops {
			if op.Name != nil && op.Name.String() == operationName {
				return op, nil
			}
		}
		return nil, fmt.Errorf("normalize: no operation named %q", operationName)
	case len(ops) == 1:
		return ops[0], nil
	default:
		return nil, fmt.Errorf("normalize: document declares multiple operations, operationName is required")
	}
}

func collectFragments(doc *ast.Document) map[string]*ast.FragmentDefinition {
	fragments := make(map[string]*ast.FragmentDefinition)
	for _, def := range doc.Definitions {
		if frag, ok := def.(*ast.FragmentDefinition); ok {
			fragments[frag.Name.String()] = frag
		}
	}
	return fragments
}

func rootTypeName(schema *consumer.Schema, op ast.OperationType) string {
	state := schema.State()
	switch op {
	case ast.Mutation:
		return state.RootTypeName(supergraph.RootMutation)
	case ast.Subscription:
		return state.RootTypeName(supergraph.RootSubscription)
	default:
		return state.RootTypeName(supergraph.RootQuery)
	}
}

// sortVariableDefinitions returns a copy of defs sorted lexicographically by
// variable name.
func sortVariableDefinitions(defs []*ast.VariableDefinition) []*ast.VariableDefinition {
	if len(defs) == 0 {
		return nil
	}
	out := append([]*ast.VariableDefinition{}, defs...)
	sort.Slice(out, func(i, j int) bool { return out[i].Variable.Name < out[j].Variable.Name })
	return out
}
