package normalize

import "github.com/n9te9/graphql-parser/ast"

// skippedByDirective evaluates @skip/@include against variables, which are
// fully resolved by the time normalization runs. Unlike the authorization
// pass (which only statically evaluates literal boolean conditions, since a
// JWT's scopes have no bearing on them), a variable-bound if: argument is
// fully resolved here: nothing downstream of normalization ever sees a
// @skip/@include directive again, since the fetch-graph's selections carry
// field names only, so this is the only point such a condition is ever
// evaluated for.
func skippedByDirective(variables map[string]any, directives []*ast.Directive) bool {
	for _, d := range directives {
		switch d.Name {
		case "skip":
			if v, ok := boolArg(variables, d.Arguments); ok && v {
				return true
			}
		case "include":
			if v, ok := boolArg(variables, d.Arguments); ok && !v {
				return true
			}
		}
	}
	return false
}

// remainingDirectives drops @skip/@include (already fully resolved above)
// and keeps everything else unchanged.
func remainingDirectives(variables map[string]any, directives []*ast.Directive) []*ast.Directive {
	if len(directives) == 0 {
		return nil
	}
	var out []*ast.Directive
	for _, d := range directives {
		if d.Name == "skip" || d.Name == "include" {
			continue
		}
		out = append(out, d)
	}
	return out
}

func boolArg(variables map[string]any, args []*ast.Argument) (value bool, ok bool) {
	for _, a := range args {
		if a.Name == nil || a.Name.String() != "if" {
			continue
		}
		switch v := a.Value.(type) {
		case *ast.BooleanValue:
			return v.Value, true
		case *ast.Variable:
			b, isBool := variables[v.Name].(bool)
			return b, isBool
		}
	}
	return false, false
}
