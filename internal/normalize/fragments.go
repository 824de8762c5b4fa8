package normalize

import (
	"sort"

	"github.com/n9te9/graphql-parser/ast"

	"github.com/n9te9/hive-query-router/internal/consumer"
	"github.com/n9te9/hive-query-router/internal/supergraph"
)

// normalizer carries the read-only context needed to inline fragments,
// prune impossible branches, and sort a selection tree. It never mutates an
// input node: every selection it keeps is rebuilt fresh, the same
// non-mutating idiom the federation planner uses to expand fragments,
// which is what makes repeated normalization idempotent.
type normalizer struct {
	schema    *consumer.Schema
	fragments map[string]*ast.FragmentDefinition
	variables map[string]any
}

// normalizeSelections inlines fragment spreads, expands (or drops)
// inline fragments by type-condition applicability against currentType,
// drops statically-skipped fields, and returns the result sorted by
// response key.
func (n *normalizer) normalizeSelections(sel []ast.Selection, currentType string) []ast.Selection {
	var out []ast.Selection
	for _, s := range sel {
		switch node := s.(type) {
		case *ast.Field:
			if field := n.normalizeField(node, currentType); field != nil {
				out = append(out, field)
			}
		case *ast.InlineFragment:
			out = append(out, n.normalizeFragmentBody(node.TypeCondition, node.Directives, node.SelectionSet, currentType)...)
		case *ast.FragmentSpread:
			if skippedByDirective(n.variables, node.Directives) {
				continue
			}
			def, ok := n.fragments[node.Name.String()]
			if !ok {
				continue
			}
			out = append(out, n.normalizeFragmentBody(def.TypeCondition, nil, def.SelectionSet, currentType)...)
		}
	}
	sortSelections(out)
	return out
}

// normalizeFragmentBody resolves one fragment body (from either an inline
// fragment or a spread's definition) against currentType: an inapplicable
// type condition drops it entirely; an applicable but narrower condition
// keeps it as an explicit InlineFragment so downstream passes (interface
// authorization, entity-move requirements) still see the narrowing; a
// condition equal to currentType is pointless wrapping and gets flattened
// away.
func (n *normalizer) normalizeFragmentBody(typeCondition *ast.NamedType, directives []*ast.Directive, body []ast.Selection, currentType string) []ast.Selection {
	if skippedByDirective(n.variables, directives) {
		return nil
	}
	condition := currentType
	if typeCondition != nil && typeCondition.Name != nil {
		condition = typeCondition.Name.String()
	}
	if !n.typeConditionApplies(currentType, condition) {
		return nil
	}
	if condition == currentType {
		return n.normalizeSelections(body, currentType)
	}
	return []ast.Selection{&ast.InlineFragment{
		TypeCondition: typeCondition,
		SelectionSet:  n.normalizeSelections(body, condition),
	}}
}

// typeConditionApplies reports whether a selection under currentType could
// ever match condition: the two types' possible-concrete-type sets must
// overlap.
func (n *normalizer) typeConditionApplies(currentType, condition string) bool {
	if currentType == condition {
		return true
	}
	a := n.possibleTypes(currentType)
	b := n.possibleTypes(condition)
	for t := range a {
		if b[t] {
			return true
		}
	}
	return false
}

// possibleTypes returns the set of concrete type names a value of typeName
// could be at runtime: itself for an object type, its implementors for an
// interface, its members for a union.
func (n *normalizer) possibleTypes(typeName string) map[string]bool {
	state := n.schema.State()
	td, ok := state.TypeByName(typeName)
	if !ok {
		return map[string]bool{typeName: true}
	}
	switch td.Kind {
	case supergraph.KindInterface:
		out := make(map[string]bool)
		for _, impl := range state.AllImplementors(typeName) {
			out[impl.Name] = true
		}
		return out
	case supergraph.KindUnion:
		out := make(map[string]bool)
		for _, member := range state.AllUnionMembers(typeName) {
			out[member] = true
		}
		return out
	default:
		return map[string]bool{typeName: true}
	}
}

func (n *normalizer) normalizeField(f *ast.Field, currentType string) *ast.Field {
	if skippedByDirective(n.variables, f.Directives) {
		return nil
	}

	name := f.Name.String()
	out := &ast.Field{
		Alias:      f.Alias,
		Name:       f.Name,
		Arguments:  sortArguments(f.Arguments),
		Directives: remainingDirectives(n.variables, f.Directives),
	}
	if len(f.SelectionSet) == 0 {
		return out
	}

	childType, err := n.schema.FieldByName(currentType, name)
	if err != nil {
		out.SelectionSet = n.normalizeSelections(f.SelectionSet, currentType)
		return out
	}
	out.SelectionSet = n.normalizeSelections(f.SelectionSet, childType.FieldType)
	return out
}

func sortArguments(args []*ast.Argument) []*ast.Argument {
	if len(args) == 0 {
		return nil
	}
	out := append([]*ast.Argument{}, args...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name.String() < out[j].Name.String() })
	return out
}

func sortSelections(sel []ast.Selection) {
	sort.SliceStable(sel, func(i, j int) bool {
		return selectionSortKey(sel[i]) < selectionSortKey(sel[j])
	})
}

func selectionSortKey(s ast.Selection) string {
	switch node := s.(type) {
	case *ast.Field:
		if node.Alias != nil {
			return node.Alias.String()
		}
		return node.Name.String()
	case *ast.InlineFragment:
		if node.TypeCondition != nil && node.TypeCondition.Name != nil {
			return "..." + node.TypeCondition.Name.String()
		}
		return "..."
	default:
		return ""
	}
}
