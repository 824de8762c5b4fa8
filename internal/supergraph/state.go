package supergraph

import (
	"fmt"

	"github.com/n9te9/graphql-parser/ast"
)

// State is the immutable, parsed view of one supergraph version. It is safe
// for concurrent reads from many request goroutines; construction
// (Parse) is the only writer.
type State struct {
	types      map[string]*SupergraphTypeDef
	graphAlias map[string]SubgraphId
	rootNames  map[RootKind]string
	doc        *ast.Document
}

// ResolveGraphID maps a join-graph enum value or declared `name:` alias to
// its SubgraphId.
func (st *State) ResolveGraphID(alias string) (SubgraphId, error) {
	id, ok := st.graphAlias[alias]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownGraphId, alias)
	}
	return id, nil
}

// SelectionResolverForSubgraph returns a helper that parses federation
// key/requires/provides field-set strings into Selections scoped to the
// field set visible in g.
func (st *State) SelectionResolverForSubgraph(g SubgraphId) *SelectionResolver {
	return &SelectionResolver{state: st, graphID: g}
}

// IsScalarType reports whether name is a scalar, including the five
// built-ins.
func (st *State) IsScalarType(name string) bool {
	if _, ok := builtinScalars[name]; ok {
		return true
	}
	td, ok := st.types[name]
	return ok && td.Kind == KindScalar
}

// TypeByName returns the type definition for name, if any.
func (st *State) TypeByName(name string) (*SupergraphTypeDef, bool) {
	td, ok := st.types[name]
	return td, ok
}

// RootTypeName returns the type name backing a root operation kind, "" if
// the supergraph defines no such root (mutation/subscription are optional).
func (st *State) RootTypeName(kind RootKind) string {
	name := st.rootNames[kind]
	if _, ok := st.types[name]; !ok {
		return ""
	}
	return name
}

// DefinitionsByRoot returns the unique SupergraphTypeDef backing a root
// operation kind, or nil if the supergraph has none.
func (st *State) DefinitionsByRoot(kind RootKind) *SupergraphTypeDef {
	name := st.rootNames[kind]
	if name == "" {
		return nil
	}
	return st.types[name]
}

// AllTypes returns every indexed type definition. Callers must not mutate
// the returned definitions.
func (st *State) AllTypes() map[string]*SupergraphTypeDef {
	return st.types
}

// Implementors returns every object type that @join__implements the named
// interface in graph g (empty slice if none).
func (st *State) Implementors(interfaceName string, g SubgraphId) []*SupergraphTypeDef {
	var out []*SupergraphTypeDef
	for _, td := range st.types {
		if td.Kind != KindObject {
			continue
		}
		for _, ji := range td.JoinImplements {
			if ji.InterfaceName == interfaceName && ji.GraphID == g {
				out = append(out, td)
				break
			}
		}
	}
	return out
}

// AllImplementors returns every object type that @join__implements the
// named interface in any graph, used by the authorization filter's
// interface-field AND-of-implementors rule which is graph-agnostic.
func (st *State) AllImplementors(interfaceName string) []*SupergraphTypeDef {
	seen := make(map[string]bool)
	var out []*SupergraphTypeDef
	for _, td := range st.types {
		if td.Kind != KindObject {
			continue
		}
		for _, ji := range td.JoinImplements {
			if ji.InterfaceName == interfaceName && !seen[td.Name] {
				seen[td.Name] = true
				out = append(out, td)
			}
		}
	}
	return out
}

// UnionMembersIn returns the member type names of a union visible in graph
// g.
func (st *State) UnionMembersIn(unionName string, g SubgraphId) []string {
	td, ok := st.types[unionName]
	if !ok {
		return nil
	}
	var out []string
	for _, jm := range td.JoinUnionMember {
		if jm.GraphID == g {
			out = append(out, jm.MemberTypeName)
		}
	}
	return out
}

// AllUnionMembers returns the member type names of a union in any graph,
// used by passes (normalization's fragment-applicability check,
// authorization's union-field policy) that need the graph-agnostic
// membership set rather than one subgraph's view of it.
func (st *State) AllUnionMembers(unionName string) []string {
	td, ok := st.types[unionName]
	if !ok {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, jm := range td.JoinUnionMember {
		if !seen[jm.MemberTypeName] {
			seen[jm.MemberTypeName] = true
			out = append(out, jm.MemberTypeName)
		}
	}
	return out
}

// GraphsHostingType returns every SubgraphId the type is present in.
func (st *State) GraphsHostingType(typeName string) []SubgraphId {
	td, ok := st.types[typeName]
	if !ok {
		return nil
	}
	out := make([]SubgraphId, 0, len(td.JoinType))
	for _, jt := range td.JoinType {
		out = append(out, jt.GraphID)
	}
	return out
}
