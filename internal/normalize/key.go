package normalize

import (
	"fmt"
	"sort"
	"strings"

	"github.com/n9te9/graphql-parser/ast"

	"github.com/n9te9/hive-query-router/internal/plancache"
)

// CacheKey renders a normalized result back to canonical text, suitable as
// a plancache.Key: since Normalize already sorts fields, arguments, and
// variable definitions, two requests that only differ in source field
// order or whitespace render to byte-identical text here, and therefore
// hash identically.
func CacheKey(result *Result) plancache.Key {
	var sb strings.Builder
	sb.WriteString(string(result.Operation.Operation))
	writeVariableDefinitions(&sb, result.Operation.VariableDefinitions)
	writeSelectionSet(&sb, result.Operation.SelectionSet)
	writeVariableValues(&sb, result.Variables)
	return plancache.Key(sb.String())
}

func writeVariableDefinitions(sb *strings.Builder, defs []*ast.VariableDefinition) {
	if len(defs) == 0 {
		return
	}
	sb.WriteByte('(')
	for i, vd := range defs {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte('$')
		sb.WriteString(vd.Variable.Name)
	}
	sb.WriteByte(')')
}

func writeSelectionSet(sb *strings.Builder, sel []ast.Selection) {
	sb.WriteByte('{')
	for _, s := range sel {
		writeSelection(sb, s)
	}
	sb.WriteByte('}')
}

func writeSelection(sb *strings.Builder, sel ast.Selection) {
	switch s := sel.(type) {
	case *ast.Field:
		if s.Alias != nil && s.Alias.String() != "" {
			sb.WriteString(s.Alias.String())
			sb.WriteByte(':')
		}
		sb.WriteString(s.Name.String())
		writeArguments(sb, s.Arguments)
		if len(s.SelectionSet) > 0 {
			writeSelectionSet(sb, s.SelectionSet)
		}
	case *ast.InlineFragment:
		sb.WriteString("...on ")
		if s.TypeCondition != nil && s.TypeCondition.Name != nil {
			sb.WriteString(s.TypeCondition.Name.String())
		}
		writeSelectionSet(sb, s.SelectionSet)
	}
}

func writeArguments(sb *strings.Builder, args []*ast.Argument) {
	if len(args) == 0 {
		return
	}
	sb.WriteByte('(')
	for i, a := range args {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(a.Name.String())
		sb.WriteByte(':')
		writeValue(sb, a.Value)
	}
	sb.WriteByte(')')
}

func writeValue(sb *strings.Builder, val ast.Value) {
	switch v := val.(type) {
	case *ast.StringValue:
		sb.WriteByte('"')
		sb.WriteString(v.Value)
		sb.WriteByte('"')
	case *ast.IntValue:
		fmt.Fprintf(sb, "%v", v.Value)
	case *ast.FloatValue:
		fmt.Fprintf(sb, "%v", v.Value)
	case *ast.BooleanValue:
		fmt.Fprintf(sb, "%t", v.Value)
	case *ast.Variable:
		sb.WriteByte('$')
		sb.WriteString(v.Name)
	case *ast.EnumValue:
		sb.WriteString(v.Value)
	case *ast.ListValue:
		sb.WriteByte('[')
		for i, item := range v.Values {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeValue(sb, item)
		}
		sb.WriteByte(']')
	case *ast.ObjectValue:
		sb.WriteByte('{')
		for i, f := range v.Fields {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(f.Name.String())
			sb.WriteByte(':')
			writeValue(sb, f.Value)
		}
		sb.WriteByte('}')
	default:
		sb.WriteString("null")
	}
}

// writeVariableValues appends the resolved variable values (sorted by
// name) to the key: two requests with the same operation shape but
// different argument values (e.g. different @skip conditions already
// baked out by Normalize, or different leaf scalar arguments) must not
// collide on the same cache entry.
func writeVariableValues(sb *strings.Builder, variables map[string]any) {
	if len(variables) == 0 {
		return
	}
	names := make([]string, 0, len(variables))
	for name := range variables {
		names = append(names, name)
	}
	sort.Strings(names)
	sb.WriteByte('|')
	for i, name := range names {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(name)
		sb.WriteByte('=')
		fmt.Fprintf(sb, "%v", variables[name])
	}
}
