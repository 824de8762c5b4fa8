package supergraph

import (
	"fmt"
	"strings"
)

// SelectionField is one field reference inside a selection: either a
// federation field-set entry (a @key/@requires/@provides argument, e.g. the
// "id" and "variation { id }" pieces of `"id variation { id }"`) or, once
// the fetch graph builder starts assembling a step's actual operation text,
// a real operation-level field carrying its alias and arguments. Field-set
// parsing never populates Alias; field-sets do support constant arguments
// (e.g. `price(currency: "USD")` in a @requires string), which is why
// Arguments is parsed there too.
type SelectionField struct {
	Name      string
	Alias     string
	Arguments []Argument
	Children  Selection
}

// Argument is one name/value pair attached to a SelectionField.
type Argument struct {
	Name  string
	Value Value
}

// ResponseKey is the key this field occupies in the response object: its
// alias if it has one, otherwise its name.
func (f SelectionField) ResponseKey() string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

// SameArguments reports whether a and b are the same argument list: same
// names in the same order with textually identical values. Used to decide
// whether two selections of the same field name are actually redundant (and
// can be merged) or genuinely conflict (and need a conflict-aware alias).
func SameArguments(a, b []Argument) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || a[i].Value.String() != b[i].Value.String() {
			return false
		}
	}
	return true
}

// Selection is an ordered list of field references. It started out modeling
// only federation field-set strings; fetchplan now also uses it to
// represent a step's real output/input selection, so fields may carry an
// alias and arguments as well as nested children.
type Selection []SelectionField

// String renders the selection back into GraphQL selection syntax, used by
// the fetch graph builder when materializing `requires` representations
// and by the plan serializer when it falls back to this type directly.
func (s Selection) String() string {
	var sb strings.Builder
	for i, f := range s {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if f.Alias != "" && f.Alias != f.Name {
			sb.WriteString(f.Alias)
			sb.WriteString(": ")
		}
		sb.WriteString(f.Name)
		writeArguments(&sb, f.Arguments)
		if len(f.Children) > 0 {
			sb.WriteString(" { ")
			sb.WriteString(f.Children.String())
			sb.WriteString(" }")
		}
	}
	return sb.String()
}

// CollectVariables walks every field in s (recursively into children) and
// records the name of every variable referenced by an argument into used.
func (s Selection) CollectVariables(used map[string]bool) {
	for _, f := range s {
		for _, a := range f.Arguments {
			a.Value.CollectVariables(used)
		}
		f.Children.CollectVariables(used)
	}
}

func writeArguments(sb *strings.Builder, args []Argument) {
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

// ParseSelection parses a bare federation field-set string into a
// Selection, with no availability checking. Grammar:
//
//	selection := field (ws field)*
//	field     := name (ws? arguments)? (ws? '{' selection '}')?
//	arguments := '(' name ':' value (',' name ':' value)* ')'
func ParseSelection(raw string) (Selection, error) {
	p := &selectionParser{src: raw}
	p.skipSpace()
	sel, err := p.parseSelectionSet()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("%w: unexpected trailing input in %q at %d", ErrInvalidKeySelection, raw, p.pos)
	}
	return sel, nil
}

type selectionParser struct {
	src string
	pos int
}

func (p *selectionParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t' || p.src[p.pos] == '\n') {
		p.pos++
	}
}

func (p *selectionParser) parseSelectionSet() (Selection, error) {
	var out Selection
	for {
		p.skipSpace()
		if p.pos >= len(p.src) || p.src[p.pos] == '}' {
			break
		}
		f, err := p.parseField()
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: empty selection in %q", ErrInvalidKeySelection, p.src)
	}
	return out, nil
}

func (p *selectionParser) parseField() (SelectionField, error) {
	start := p.pos
	if p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		return SelectionField{}, fmt.Errorf("%w: field name may not start with a digit in %q at %d", ErrInvalidKeySelection, p.src, p.pos)
	}
	for p.pos < len(p.src) && isNameByte(p.src[p.pos]) {
		p.pos++
	}
	if start == p.pos {
		return SelectionField{}, fmt.Errorf("%w: expected field name in %q at %d", ErrInvalidKeySelection, p.src, p.pos)
	}
	name := p.src[start:p.pos]

	p.skipSpace()
	var args []Argument
	if p.pos < len(p.src) && p.src[p.pos] == '(' {
		var err error
		args, err = p.parseArguments()
		if err != nil {
			return SelectionField{}, err
		}
		p.skipSpace()
	}

	if p.pos < len(p.src) && p.src[p.pos] == '{' {
		p.pos++
		children, err := p.parseSelectionSet()
		if err != nil {
			return SelectionField{}, err
		}
		p.skipSpace()
		if p.pos >= len(p.src) || p.src[p.pos] != '}' {
			return SelectionField{}, fmt.Errorf("%w: unterminated { in %q", ErrInvalidKeySelection, p.src)
		}
		p.pos++
		return SelectionField{Name: name, Arguments: args, Children: children}, nil
	}

	return SelectionField{Name: name, Arguments: args}, nil
}

// parseArguments parses a field-set argument list: "(" name ":" value ("," name ":" value)* ")",
// where value is a constant GraphQL value (field-sets never carry variables).
func (p *selectionParser) parseArguments() ([]Argument, error) {
	p.pos++ // '('
	var args []Argument
	for {
		p.skipSpace()
		if p.pos < len(p.src) && p.src[p.pos] == ')' {
			p.pos++
			return args, nil
		}
		start := p.pos
		for p.pos < len(p.src) && isNameByte(p.src[p.pos]) {
			p.pos++
		}
		if start == p.pos {
			return nil, fmt.Errorf("%w: expected argument name in %q at %d", ErrInvalidKeySelection, p.src, p.pos)
		}
		name := p.src[start:p.pos]
		p.skipSpace()
		if p.pos >= len(p.src) || p.src[p.pos] != ':' {
			return nil, fmt.Errorf("%w: expected ':' after argument %s in %q", ErrInvalidKeySelection, name, p.src)
		}
		p.pos++
		val, err := p.parseConstValue()
		if err != nil {
			return nil, err
		}
		args = append(args, Argument{Name: name, Value: val})
		p.skipSpace()
		if p.pos < len(p.src) && p.src[p.pos] == ',' {
			p.pos++
		}
	}
}

func isNameByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}

// SelectionResolver parses field-set strings scoped to one subgraph,
// validating that every referenced field is actually available there.
type SelectionResolver struct {
	state   *State
	graphID SubgraphId
}

// Resolve parses raw as a field-set rooted at parentType and checks that
// every field in it (recursively) is available in the resolver's subgraph.
func (r *SelectionResolver) Resolve(parentType, raw string) (Selection, error) {
	sel, err := ParseSelection(raw)
	if err != nil {
		return nil, err
	}
	if err := r.validate(parentType, sel); err != nil {
		return nil, err
	}
	return sel, nil
}

func (r *SelectionResolver) validate(parentType string, sel Selection) error {
	td, ok := r.state.types[parentType]
	if !ok {
		return fmt.Errorf("%w: unknown type %s", ErrInvalidKeySelection, parentType)
	}
	for _, f := range sel {
		if f.Name == "__typename" {
			continue
		}
		fd, ok := td.Fields[f.Name]
		if !ok || !fd.AvailableInGraph(r.graphID) {
			return fmt.Errorf("%w: field %s.%s not available in graph %s", ErrInvalidKeySelection, parentType, f.Name, r.graphID)
		}
		if len(f.Children) > 0 {
			childType := NamedTypeOf(fd.FieldType)
			if err := r.validate(childType, f.Children); err != nil {
				return err
			}
		}
	}
	return nil
}
