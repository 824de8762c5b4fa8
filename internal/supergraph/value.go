package supergraph

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/n9te9/graphql-parser/ast"
)

// ValueKind discriminates the literal variants a Value can take.
type ValueKind int

const (
	ValueString ValueKind = iota
	ValueInt
	ValueFloat
	ValueBoolean
	ValueNull
	ValueEnum
	ValueVariable
	ValueList
	ValueObject
)

// ObjectField is one name/value pair inside an object-literal Value.
type ObjectField struct {
	Name  string
	Value Value
}

// Value is a constant (or variable-referencing) GraphQL value attached to a
// selection argument, e.g. the "USD" in price(currency: "USD") or the $id in
// product(id: $id). Raw carries the unescaped payload for scalar kinds
// (string content, int/float/enum text, variable name); List and Object
// carry their nested values for the composite kinds.
type Value struct {
	Kind   ValueKind
	Raw    string
	List   []Value
	Object []ObjectField
}

// String renders v back into GraphQL literal syntax.
func (v Value) String() string {
	var sb strings.Builder
	v.write(&sb)
	return sb.String()
}

func (v Value) write(sb *strings.Builder) {
	switch v.Kind {
	case ValueString:
		sb.WriteByte('"')
		sb.WriteString(v.Raw)
		sb.WriteByte('"')
	case ValueInt, ValueFloat, ValueEnum:
		sb.WriteString(v.Raw)
	case ValueBoolean:
		sb.WriteString(v.Raw)
	case ValueNull:
		sb.WriteString("null")
	case ValueVariable:
		sb.WriteByte('$')
		sb.WriteString(v.Raw)
	case ValueList:
		sb.WriteByte('[')
		for i, item := range v.List {
			if i > 0 {
				sb.WriteString(", ")
			}
			item.write(sb)
		}
		sb.WriteByte(']')
	case ValueObject:
		sb.WriteByte('{')
		for i, f := range v.Object {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(f.Name)
			sb.WriteString(": ")
			f.Value.write(sb)
		}
		sb.WriteByte('}')
	default:
		sb.WriteString("null")
	}
}

// CollectVariables walks v and records the name of every variable it
// references into used.
func (v Value) CollectVariables(used map[string]bool) {
	switch v.Kind {
	case ValueVariable:
		used[v.Raw] = true
	case ValueList:
		for _, item := range v.List {
			item.CollectVariables(used)
		}
	case ValueObject:
		for _, f := range v.Object {
			f.Value.CollectVariables(used)
		}
	}
}

// ValueFromAST converts a parsed operation argument value into a Value,
// the same case analysis internal/normalize's writeValue uses to render
// cache keys.
func ValueFromAST(val ast.Value) Value {
	switch v := val.(type) {
	case *ast.StringValue:
		return Value{Kind: ValueString, Raw: v.Value}
	case *ast.IntValue:
		return Value{Kind: ValueInt, Raw: fmt.Sprintf("%v", v.Value)}
	case *ast.FloatValue:
		return Value{Kind: ValueFloat, Raw: fmt.Sprintf("%v", v.Value)}
	case *ast.BooleanValue:
		return Value{Kind: ValueBoolean, Raw: fmt.Sprintf("%t", v.Value)}
	case *ast.EnumValue:
		return Value{Kind: ValueEnum, Raw: v.Value}
	case *ast.Variable:
		return Value{Kind: ValueVariable, Raw: v.Name}
	case *ast.ListValue:
		items := make([]Value, len(v.Values))
		for i, item := range v.Values {
			items[i] = ValueFromAST(item)
		}
		return Value{Kind: ValueList, List: items}
	case *ast.ObjectValue:
		fields := make([]ObjectField, len(v.Fields))
		for i, f := range v.Fields {
			fields[i] = ObjectField{Name: f.Name.String(), Value: ValueFromAST(f.Value)}
		}
		return Value{Kind: ValueObject, Object: fields}
	default:
		return Value{Kind: ValueNull}
	}
}

// parseConstValue parses a constant GraphQL value (no variables) from a
// field-set argument list, e.g. the "USD" in "price(currency: \"USD\")".
func (p *selectionParser) parseConstValue() (Value, error) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return Value{}, fmt.Errorf("%w: expected value in %q at %d", ErrInvalidKeySelection, p.src, p.pos)
	}

	switch c := p.src[p.pos]; {
	case c == '"':
		return p.parseStringValue()
	case c == '-' || (c >= '0' && c <= '9'):
		return p.parseNumberValue()
	case c == '[':
		return p.parseListValue()
	case c == '{':
		return p.parseObjectValue()
	case isNameByte(c):
		return p.parseWordValue()
	default:
		return Value{}, fmt.Errorf("%w: unexpected byte %q in %q at %d", ErrInvalidKeySelection, c, p.src, p.pos)
	}
}

func (p *selectionParser) parseStringValue() (Value, error) {
	start := p.pos
	p.pos++ // opening quote
	var sb strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '"' {
			p.pos++
			return Value{Kind: ValueString, Raw: sb.String()}, nil
		}
		if c == '\\' && p.pos+1 < len(p.src) {
			p.pos++
			sb.WriteByte(p.src[p.pos])
			p.pos++
			continue
		}
		sb.WriteByte(c)
		p.pos++
	}
	return Value{}, fmt.Errorf("%w: unterminated string in %q at %d", ErrInvalidKeySelection, p.src, start)
}

func (p *selectionParser) parseNumberValue() (Value, error) {
	start := p.pos
	if p.src[p.pos] == '-' {
		p.pos++
	}
	for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
	}
	isFloat := false
	if p.pos < len(p.src) && p.src[p.pos] == '.' {
		isFloat = true
		p.pos++
		for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
			p.pos++
		}
	}
	if p.pos < len(p.src) && (p.src[p.pos] == 'e' || p.src[p.pos] == 'E') {
		isFloat = true
		p.pos++
		if p.pos < len(p.src) && (p.src[p.pos] == '+' || p.src[p.pos] == '-') {
			p.pos++
		}
		for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
			p.pos++
		}
	}
	text := p.src[start:p.pos]
	if _, err := strconv.ParseFloat(text, 64); err != nil {
		return Value{}, fmt.Errorf("%w: invalid number %q in %q", ErrInvalidKeySelection, text, p.src)
	}
	if isFloat {
		return Value{Kind: ValueFloat, Raw: text}, nil
	}
	return Value{Kind: ValueInt, Raw: text}, nil
}

func (p *selectionParser) parseWordValue() (Value, error) {
	start := p.pos
	for p.pos < len(p.src) && isNameByte(p.src[p.pos]) {
		p.pos++
	}
	word := p.src[start:p.pos]
	switch word {
	case "true":
		return Value{Kind: ValueBoolean, Raw: "true"}, nil
	case "false":
		return Value{Kind: ValueBoolean, Raw: "false"}, nil
	case "null":
		return Value{Kind: ValueNull}, nil
	default:
		return Value{Kind: ValueEnum, Raw: word}, nil
	}
}

func (p *selectionParser) parseListValue() (Value, error) {
	p.pos++ // '['
	var items []Value
	for {
		p.skipSpace()
		if p.pos < len(p.src) && p.src[p.pos] == ']' {
			p.pos++
			return Value{Kind: ValueList, List: items}, nil
		}
		v, err := p.parseConstValue()
		if err != nil {
			return Value{}, err
		}
		items = append(items, v)
	}
}

func (p *selectionParser) parseObjectValue() (Value, error) {
	p.pos++ // '{'
	var fields []ObjectField
	for {
		p.skipSpace()
		if p.pos < len(p.src) && p.src[p.pos] == '}' {
			p.pos++
			return Value{Kind: ValueObject, Object: fields}, nil
		}
		start := p.pos
		for p.pos < len(p.src) && isNameByte(p.src[p.pos]) {
			p.pos++
		}
		if start == p.pos {
			return Value{}, fmt.Errorf("%w: expected object field name in %q at %d", ErrInvalidKeySelection, p.src, p.pos)
		}
		name := p.src[start:p.pos]
		p.skipSpace()
		if p.pos >= len(p.src) || p.src[p.pos] != ':' {
			return Value{}, fmt.Errorf("%w: expected ':' in %q at %d", ErrInvalidKeySelection, p.src, p.pos)
		}
		p.pos++
		v, err := p.parseConstValue()
		if err != nil {
			return Value{}, err
		}
		fields = append(fields, ObjectField{Name: name, Value: v})
	}
}
