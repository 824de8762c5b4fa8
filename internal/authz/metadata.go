package authz

import "github.com/n9te9/hive-query-router/internal/supergraph"

// Metadata is the authorization view over a supergraph version: effective
// policies per type and field, built once per supergraph load and shared
// across requests (read-only after construction).
type Metadata struct {
	state *supergraph.State
}

// BuildMetadata derives authorization metadata from an already-parsed
// supergraph state.
func BuildMetadata(state *supergraph.State) *Metadata {
	return &Metadata{state: state}
}

// TypePolicy returns a concrete object type's own policy.
func (m *Metadata) TypePolicy(typeName string) Policy {
	td, ok := m.state.TypeByName(typeName)
	if !ok {
		return Policy{}
	}
	return FromSupergraph(td.Auth)
}

// FieldPolicy returns typeName.fieldName's effective policy: its own
// annotation OR'd with its return type's policy. __typename inherits the
// parent type's own policy directly.
func (m *Metadata) FieldPolicy(typeName, fieldName string) Policy {
	if fieldName == "__typename" {
		return m.TypePolicy(typeName)
	}
	td, ok := m.state.TypeByName(typeName)
	if !ok {
		return Policy{}
	}
	fd, ok := td.Fields[fieldName]
	if !ok {
		return Policy{}
	}
	own := FromSupergraph(fd.Auth)
	ret := m.TypePolicy(supergraph.NamedTypeOf(fd.FieldType))
	return Or(own, ret)
}

// InterfaceFieldPolicy ANDs fieldName's effective policy across every
// object type implementing interfaceName, for the case where the field is
// queried directly on the interface rather than under a per-implementor
// inline fragment.
func (m *Metadata) InterfaceFieldPolicy(interfaceName, fieldName string) Policy {
	implementors := m.state.AllImplementors(interfaceName)
	if len(implementors) == 0 {
		return m.FieldPolicy(interfaceName, fieldName)
	}
	combined := m.FieldPolicy(implementors[0].Name, fieldName)
	for _, impl := range implementors[1:] {
		combined = And(combined, m.FieldPolicy(impl.Name, fieldName))
	}
	return combined
}

// IsAbstract reports whether typeName names an interface.
func (m *Metadata) IsAbstract(typeName string) bool {
	td, ok := m.state.TypeByName(typeName)
	return ok && td.Kind == supergraph.KindInterface
}

// Implementors returns every object type implementing interfaceName, in
// any graph.
func (m *Metadata) Implementors(interfaceName string) []string {
	tds := m.state.AllImplementors(interfaceName)
	out := make([]string, 0, len(tds))
	for _, td := range tds {
		out = append(out, td.Name)
	}
	return out
}

// FieldReturnType returns the named return type of typeName.fieldName, or
// "" if unknown.
func (m *Metadata) FieldReturnType(typeName, fieldName string) string {
	if fieldName == "__typename" {
		return "String"
	}
	td, ok := m.state.TypeByName(typeName)
	if !ok {
		return ""
	}
	fd, ok := td.Fields[fieldName]
	if !ok {
		return ""
	}
	return supergraph.NamedTypeOf(fd.FieldType)
}

// FieldIsNonNull reports whether typeName.fieldName is declared non-null.
func (m *Metadata) FieldIsNonNull(typeName, fieldName string) bool {
	if fieldName == "__typename" {
		return true
	}
	td, ok := m.state.TypeByName(typeName)
	if !ok {
		return false
	}
	fd, ok := td.Fields[fieldName]
	if !ok {
		return false
	}
	return supergraph.IsNonNull(fd.FieldType)
}

// RootTypeName returns the concrete type name backing a root operation
// kind.
func (m *Metadata) RootTypeName(kind supergraph.RootKind) string {
	return m.state.RootTypeName(kind)
}
