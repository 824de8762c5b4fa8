package normalize

import (
	"fmt"

	"github.com/n9te9/graphql-parser/ast"

	"github.com/n9te9/hive-query-router/internal/supergraph"
)

// resolveVariables merges rawVariables with each definition's default value,
// erroring on a missing non-null variable with no default.
func resolveVariables(defs []*ast.VariableDefinition, rawVariables map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(defs))
	for _, vd := range defs {
		name := vd.Variable.Name
		if v, ok := rawVariables[name]; ok {
			out[name] = v
			continue
		}
		if vd.DefaultValue != nil {
			v, err := literalToGo(vd.DefaultValue)
			if err != nil {
				return nil, fmt.Errorf("normalize: default value for $%s: %w", name, err)
			}
			out[name] = v
			continue
		}
		if supergraph.IsNonNull(vd.Type) {
			return nil, fmt.Errorf("normalize: missing required variable $%s", name)
		}
	}
	return out, nil
}

// literalToGo converts a literal AST value (as found in a default value or
// an argument) into a plain Go value. Variables are rejected: default
// values may not reference other variables.
func literalToGo(v ast.Value) (any, error) {
	switch val := v.(type) {
	case *ast.StringValue:
		return val.Value, nil
	case *ast.IntValue:
		return val.Value, nil
	case *ast.FloatValue:
		return val.Value, nil
	case *ast.BooleanValue:
		return val.Value, nil
	case *ast.EnumValue:
		return val.Value, nil
	case *ast.ListValue:
		out := make([]any, 0, len(val.Values))
		for _, item := range val.Values {
			converted, err := literalToGo(item)
			if err != nil {
				return nil, err
			}
			out = append(out, converted)
		}
		return out, nil
	case *ast.ObjectValue:
		out := make(map[string]any, len(val.Fields))
		for _, f := range val.Fields {
			converted, err := literalToGo(f.Value)
			if err != nil {
				return nil, err
			}
			out[f.Name.String()] = converted
		}
		return out, nil
	case *ast.Variable:
		return nil, fmt.Errorf("variable $%s used where a literal is required", val.Name)
	case nil:
		return nil, nil
	default:
		return nil, nil
	}
}
