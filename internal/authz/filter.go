package authz

import (
	"strings"

	"github.com/n9te9/graphql-parser/ast"
	"github.com/n9te9/hive-query-router/internal/supergraph"
)

// Mode selects what an authorization failure produces.
type Mode int

const (
	// Filter removes unauthorized fields and returns partial data alongside
	// errors (HTTP 200).
	Filter Mode = iota
	// Reject turns any authorization failure into a whole-operation
	// rejection (HTTP 403).
	Reject
)

// Error is one authorization failure, emitted once per originally
// unauthorized field even when its removal bubbles further up the tree.
type Error struct {
	Code         string
	AffectedPath string
}

// Outcome is the result of filtering an operation.
type Outcome interface {
	isOutcome()
}

// NoChange means every field was authorized; the operation is unmodified.
type NoChange struct{}

func (NoChange) isOutcome() {}

// Modified means at least one field was removed. Operation.SelectionSet is
// empty if every root field ended up removed.
type Modified struct {
	Operation *ast.OperationDefinition
	Errors    []Error
}

func (Modified) isOutcome() {}

// Reject means the whole operation is rejected.
type Reject struct {
	Errors []Error
}

func (Reject) isOutcome() {}

// Filter walks op depth-first against meta and jwt, in mode, and returns
// the resulting Outcome.
func Filter(op *ast.OperationDefinition, meta *Metadata, jwt JWTState, mode Mode) (Outcome, error) {
	rootType := rootTypeName(meta, op.Operation)

	w := &walker{meta: meta, jwt: jwt}
	filtered, collapsed := w.filterSelections(op.SelectionSet, rootType, nil)

	if len(w.errors) == 0 {
		return NoChange{}, nil
	}
	if mode == Reject {
		return Reject{Errors: w.errors}, nil
	}
	if collapsed && rootIsNonNullEverywhere(meta, rootType, op.SelectionSet) {
		return Reject{Errors: w.errors}, nil
	}

	newOp := &ast.OperationDefinition{
		Operation:    op.Operation,
		Name:         op.Name,
		Directives:   op.Directives,
		SelectionSet: filtered,
	}
	pruneUnusedVariables(op, newOp)
	return Modified{Operation: newOp, Errors: w.errors}, nil
}

func rootTypeName(meta *Metadata, op ast.OperationType) string {
	switch op {
	case ast.Mutation:
		return meta.RootTypeName(supergraph.RootMutation)
	case ast.Subscription:
		return meta.RootTypeName(supergraph.RootSubscription)
	default:
		return meta.RootTypeName(supergraph.RootQuery)
	}
}

// rootIsNonNullEverywhere reports whether every top-level root field the
// operation selected was non-null, per the Filter-mode "non-null root
// field unauthorized" rejection rule.
func rootIsNonNullEverywhere(meta *Metadata, rootType string, sel []ast.Selection) bool {
	for _, s := range sel {
		f, ok := s.(*ast.Field)
		if !ok {
			continue
		}
		if !meta.FieldIsNonNull(rootType, f.Name.String()) {
			return false
		}
	}
	return true
}

type walker struct {
	meta   *Metadata
	jwt    JWTState
	errors []Error
}

// filterSelections filters sel (selected against currentType) and reports
// whether every entry ended up removed, the signal a composite field above
// uses to decide whether it must itself bubble.
func (w *walker) filterSelections(sel []ast.Selection, currentType string, path []string) ([]ast.Selection, bool) {
	var out []ast.Selection
	bubbled := false
	for _, s := range sel {
		switch node := s.(type) {
		case *ast.Field:
			keep, bubble := w.filterField(node, currentType, path)
			if keep {
				out = append(out, node)
			} else if bubble {
				// keep walking so every unauthorized sibling still reports
				// its own error
				bubbled = true
			}
		case *ast.InlineFragment:
			kept := w.filterInlineFragment(node, currentType, path)
			if kept != nil {
				out = append(out, kept)
			}
		default:
			// FragmentSpreads should already be inlined by normalization;
			// pass through anything else unchanged.
			out = append(out, s)
		}
	}
	if bubbled {
		return nil, true
	}
	return out, len(out) == 0
}

func (w *walker) filterInlineFragment(node *ast.InlineFragment, currentType string, path []string) ast.Selection {
	target := currentType
	if node.TypeCondition != nil && node.TypeCondition.Name != nil {
		target = node.TypeCondition.Name.String()
	}
	filtered, collapsed := w.filterSelections(node.SelectionSet, target, path)
	if collapsed {
		return nil
	}
	return &ast.InlineFragment{TypeCondition: node.TypeCondition, Directives: node.Directives, SelectionSet: filtered}
}

// filterField evaluates one field: directive-driven skip, authorization,
// and (for composite fields) recursion into its children. keep is false
// when the field must be dropped from its parent's selection set; bubble
// is true when that removal also violates this field's own non-null type,
// forcing the parent to reconsider itself.
func (w *walker) filterField(f *ast.Field, currentType string, path []string) (keep bool, bubble bool) {
	if skippedByDirective(f.Directives) {
		return false, false
	}

	name := f.Name.String()
	childPath := append(append([]string{}, path...), responseKey(f))
	nonNull := w.meta.FieldIsNonNull(currentType, name)

	policy := w.fieldPolicy(currentType, name)
	if !w.jwt.Satisfies(policy) {
		w.errors = append(w.errors, Error{Code: "UNAUTHORIZED_FIELD_OR_TYPE", AffectedPath: strings.Join(childPath, ".")})
		return false, nonNull
	}

	if len(f.SelectionSet) == 0 {
		return true, false
	}

	returnType := w.meta.FieldReturnType(currentType, name)
	if w.meta.IsAbstract(returnType) && hasInlineFragment(f.SelectionSet) {
		filtered, dropEntirely := w.filterInterfaceSelection(f.SelectionSet, returnType, childPath)
		if dropEntirely {
			return false, nonNull
		}
		f.SelectionSet = filtered
		return true, false
	}

	filtered, collapsed := w.filterSelections(f.SelectionSet, returnType, childPath)
	if collapsed {
		return false, nonNull
	}
	f.SelectionSet = filtered
	return true, false
}

// filterInterfaceSelection implements the all-or-nothing rule for an
// interface-typed field selected through per-implementor inline fragments:
// any authorization failure inside ANY fragment drops the whole field's
// selection, not just the offending fragment.
func (w *walker) filterInterfaceSelection(sel []ast.Selection, interfaceType string, path []string) ([]ast.Selection, bool) {
	before := len(w.errors)
	filtered, _ := w.filterSelections(sel, interfaceType, path)
	if len(w.errors) > before {
		return nil, true
	}
	return filtered, false
}

func hasInlineFragment(sel []ast.Selection) bool {
	for _, s := range sel {
		if _, ok := s.(*ast.InlineFragment); ok {
			return true
		}
	}
	return false
}

func responseKey(f *ast.Field) string {
	if f.Alias != nil {
		return f.Alias.String()
	}
	return f.Name.String()
}

func (w *walker) fieldPolicy(currentType, fieldName string) Policy {
	if fieldName == "__typename" {
		return w.meta.TypePolicy(currentType)
	}
	if w.meta.IsAbstract(currentType) {
		return w.meta.InterfaceFieldPolicy(currentType, fieldName)
	}
	return w.meta.FieldPolicy(currentType, fieldName)
}

func skippedByDirective(directives []*ast.Directive) bool {
	for _, d := range directives {
		switch d.Name {
		case "skip":
			if v, static := literalBoolArg(d.Arguments); static && v {
				return true
			}
		case "include":
			if v, static := literalBoolArg(d.Arguments); static && !v {
				return true
			}
		}
	}
	return false
}

func literalBoolArg(args []*ast.Argument) (value bool, static bool) {
	for _, a := range args {
		if a.Name == nil || a.Name.String() != "if" {
			continue
		}
		if b, ok := a.Value.(*ast.BooleanValue); ok {
			return b.Value, true
		}
		return false, false
	}
	return false, false
}

// pruneUnusedVariables drops variable definitions from newOp that are no
// longer referenced by any surviving argument, comparing against the
// original operation's declared variables.
func pruneUnusedVariables(orig, newOp *ast.OperationDefinition) {
	if len(orig.VariableDefinitions) == 0 {
		return
	}
	used := make(map[string]bool)
	collectVariableUsages(newOp.SelectionSet, used)
	for _, vd := range orig.VariableDefinitions {
		if vd.Variable == nil {
			continue
		}
		if used[vd.Variable.Name] {
			newOp.VariableDefinitions = append(newOp.VariableDefinitions, vd)
		}
	}
}

func collectVariableUsages(sel []ast.Selection, used map[string]bool) {
	for _, s := range sel {
		switch node := s.(type) {
		case *ast.Field:
			for _, arg := range node.Arguments {
				collectVariableUsagesFromValue(arg.Value, used)
			}
			collectVariableUsages(node.SelectionSet, used)
		case *ast.InlineFragment:
			collectVariableUsages(node.SelectionSet, used)
		}
	}
}

func collectVariableUsagesFromValue(v ast.Value, used map[string]bool) {
	switch val := v.(type) {
	case *ast.Variable:
		used[val.Name] = true
	case *ast.ListValue:
		for _, item := range val.Values {
			collectVariableUsagesFromValue(item, used)
		}
	case *ast.ObjectValue:
		for _, f := range val.Fields {
			collectVariableUsagesFromValue(f.Value, used)
		}
	}
}
