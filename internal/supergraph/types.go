// Package supergraph builds the in-memory model of a composed supergraph
// SDL: which subgraphs own which types and fields, under which keys
// entities are addressable, and which fields are external or gated behind
// sibling data.
package supergraph

import "github.com/n9te9/graphql-parser/ast"

// SubgraphId is an opaque identifier bound to a subgraph's join__Graph enum
// value. It is stable for the lifetime of a supergraph version.
type SubgraphId string

// TypeKind enumerates the GraphQL type system kinds a SupergraphTypeDef can
// take.
type TypeKind int

const (
	KindObject TypeKind = iota
	KindInterface
	KindUnion
	KindEnum
	KindScalar
	KindInputObject
)

func (k TypeKind) String() string {
	switch k {
	case KindObject:
		return "OBJECT"
	case KindInterface:
		return "INTERFACE"
	case KindUnion:
		return "UNION"
	case KindEnum:
		return "ENUM"
	case KindScalar:
		return "SCALAR"
	case KindInputObject:
		return "INPUT_OBJECT"
	default:
		return "UNKNOWN"
	}
}

// JoinType mirrors one @join__type occurrence on a type definition: the type
// is present in GraphID, possibly addressable by Key.
type JoinType struct {
	GraphID           SubgraphId
	Key               string // federation key selection string, "" if none
	Resolvable        bool
	Extension         bool
	IsInterfaceObject bool
}

// JoinImplements mirrors one @join__implements occurrence.
type JoinImplements struct {
	GraphID       SubgraphId
	InterfaceName string
}

// JoinUnionMember mirrors one @join__unionMember occurrence.
type JoinUnionMember struct {
	GraphID        SubgraphId
	MemberTypeName string
}

// Override describes an @override(from:) clause on a join__field entry.
type Override struct {
	From          string
	Label         string
	UsedOverridden bool
}

// JoinField mirrors one @join__field occurrence on a field definition.
type JoinField struct {
	GraphID      SubgraphId // empty means "applies in every graph hosting the parent"
	TypeInGraph  string     // type string as declared in that graph, "" if identical
	Requires     string     // @requires selection string
	Provides     string     // @provides selection string
	External     bool
	Override     *Override
}

// AuthPolicy is the raw authorization annotation parsed directly off a type
// or field: @authenticated and/or @requiresScopes(scopes: [[String!]!]!).
type AuthPolicy struct {
	Authenticated bool
	Scopes        [][]string // outer = OR, inner = AND
}

// IsEmpty reports whether the policy grants access unconditionally.
func (p AuthPolicy) IsEmpty() bool {
	return !p.Authenticated && len(p.Scopes) == 0
}

// FieldDef describes one field of a SupergraphTypeDef.
type FieldDef struct {
	Name      string
	FieldType ast.Type
	Arguments []*ast.InputValueDefinition

	JoinField []JoinField

	Auth AuthPolicy
}

// AvailableInGraph implements the "field availability in g" rule from the
// data model: if JoinField is empty the field is available wherever the
// parent type is present; otherwise it is available in g iff some
// JoinField{GraphID: g} exists and either is not External or carries
// Requires.
func (f *FieldDef) AvailableInGraph(g SubgraphId) bool {
	if len(f.JoinField) == 0 {
		return true
	}
	for _, jf := range f.JoinField {
		if jf.GraphID != g {
			continue
		}
		if !jf.External || jf.Requires != "" {
			return true
		}
	}
	return false
}

// JoinFieldFor returns the join__field entry (if any) describing this field
// inside graph g.
func (f *FieldDef) JoinFieldFor(g SubgraphId) (JoinField, bool) {
	for _, jf := range f.JoinField {
		if jf.GraphID == g {
			return jf, true
		}
	}
	return JoinField{}, false
}

// SupergraphTypeDef describes one named type across the whole supergraph.
type SupergraphTypeDef struct {
	Name string
	Kind TypeKind

	JoinType        []JoinType
	JoinImplements  []JoinImplements
	JoinUnionMember []JoinUnionMember

	Fields map[string]*FieldDef

	Auth AuthPolicy
}

// PresentInGraph implements the "a type is present in graph g" invariant:
// true iff it has a JoinType entry for g.
func (t *SupergraphTypeDef) PresentInGraph(g SubgraphId) bool {
	for _, jt := range t.JoinType {
		if jt.GraphID == g {
			return true
		}
	}
	return false
}

// JoinTypeFor returns the join__type entry for graph g, if present.
func (t *SupergraphTypeDef) JoinTypeFor(g SubgraphId) (JoinType, bool) {
	for _, jt := range t.JoinType {
		if jt.GraphID == g {
			return jt, true
		}
	}
	return JoinType{}, false
}

// ResolvableKeysIn returns every resolvable join__type key declared for the
// type in graph g (a type may carry more than one @key).
func (t *SupergraphTypeDef) ResolvableKeysIn(g SubgraphId) []string {
	var keys []string
	for _, jt := range t.JoinType {
		if jt.GraphID == g && jt.Resolvable && jt.Key != "" {
			keys = append(keys, jt.Key)
		}
	}
	return keys
}

// Interface implementor lookups live on State; see State.Implementors and
// State.AllImplementors.
