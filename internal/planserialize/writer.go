package planserialize

import (
	"strings"

	"github.com/n9te9/hive-query-router/internal/supergraph"
)

// representationsVariable is the variable name every entity-move Fetch's
// _entities call binds its representations to.
const representationsVariable = "representations"

// writeRootOperation renders a root step's fetch as `<kind> { <selection> }`.
func writeRootOperation(kind string, sel supergraph.Selection) string {
	var sb strings.Builder
	sb.WriteString(kind)
	sb.WriteByte(' ')
	writeSelectionSet(&sb, sel)
	return sb.String()
}

// writeEntityOperation renders an entity-move step's fetch as a query
// against `_entities`, narrowed to parentType.
func writeEntityOperation(parentType string, sel supergraph.Selection) string {
	var sb strings.Builder
	sb.WriteString("query($")
	sb.WriteString(representationsVariable)
	sb.WriteString(":[_Any!]!){_entities(representations:$")
	sb.WriteString(representationsVariable)
	sb.WriteString("){...on ")
	sb.WriteString(parentType)
	sb.WriteByte(' ')
	writeSelectionSet(&sb, sel)
	sb.WriteByte('}')
	sb.WriteByte('}')
	return sb.String()
}

func writeSelectionSet(sb *strings.Builder, sel supergraph.Selection) {
	sb.WriteByte('{')
	for i, f := range sel {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if f.Alias != "" && f.Alias != f.Name {
			sb.WriteString(f.Alias)
			sb.WriteString(": ")
		}
		sb.WriteString(f.Name)
		writeArguments(sb, f.Arguments)
		if len(f.Children) > 0 {
			sb.WriteByte(' ')
			writeSelectionSet(sb, f.Children)
		}
	}
	sb.WriteByte('}')
}

func writeArguments(sb *strings.Builder, args []supergraph.Argument) {
	if len(args) == 0 {
		return
	}
	sb.WriteByte('(')
	for i, a := range args {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(a.Name)
		sb.WriteString(": ")
		sb.WriteString(a.Value.String())
	}
	sb.WriteByte(')')
}

// requiresFromSelection converts a field-set selection into the requires
// wire shape: an InlineFragment on parentType with __typename first,
// followed by the selection's own fields.
func requiresFromSelection(parentType string, sel supergraph.Selection) []RequiresNode {
	if len(sel) == 0 {
		return nil
	}
	selections := make([]RequiresNode, 0, len(sel)+1)
	selections = append(selections, RequiresField{Name: "__typename"})
	selections = append(selections, requiresFields(sel)...)
	return []RequiresNode{RequiresInlineFragment{TypeCondition: parentType, Selections: selections}}
}

func requiresFields(sel supergraph.Selection) []RequiresNode {
	out := make([]RequiresNode, 0, len(sel))
	for _, f := range sel {
		field := RequiresField{Name: f.Name}
		if len(f.Children) > 0 {
			field.Selections = requiresFields(f.Children)
		}
		out = append(out, field)
	}
	return out
}
