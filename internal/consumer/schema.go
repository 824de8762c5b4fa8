// Package consumer builds a federation-free view of the supergraph used by
// the pre/post-planner passes: normalization, authorization, and plan
// serialization all need field types and nullability but must never see
// join__* directives.
package consumer

import (
	"fmt"

	"github.com/n9te9/hive-query-router/internal/supergraph"
)

// FieldInfo describes one field's shape for nullability-aware passes (§4.2).
type FieldInfo struct {
	FieldType string // named type, e.g. "Product"
	IsNonNull bool
	IsList    bool
}

// Schema is the consumer-facing (federation-stripped) schema view.
type Schema struct {
	state *supergraph.State
}

// New builds a Schema view over an already-parsed supergraph state.
func New(state *supergraph.State) *Schema {
	return &Schema{state: state}
}

// FieldByName returns the nullability descriptor for typeName.fieldName.
func (s *Schema) FieldByName(typeName, fieldName string) (FieldInfo, error) {
	if fieldName == "__typename" {
		return FieldInfo{FieldType: "String", IsNonNull: true}, nil
	}

	td, ok := s.state.TypeByName(typeName)
	if !ok {
		return FieldInfo{}, fmt.Errorf("consumer: unknown type %s", typeName)
	}
	fd, ok := td.Fields[fieldName]
	if !ok {
		return FieldInfo{}, fmt.Errorf("consumer: unknown field %s.%s", typeName, fieldName)
	}

	return FieldInfo{
		FieldType: supergraph.NamedTypeOf(fd.FieldType),
		IsNonNull: supergraph.IsNonNull(fd.FieldType),
		IsList:    supergraph.IsListType(fd.FieldType),
	}, nil
}

// IsAbstractType reports whether name names an interface or union, the
// types for which query selections may require a concrete-type narrowing
// fragment.
func (s *Schema) IsAbstractType(name string) bool {
	td, ok := s.state.TypeByName(name)
	if !ok {
		return false
	}
	return td.Kind == supergraph.KindInterface || td.Kind == supergraph.KindUnion
}

// State exposes the underlying supergraph state for lookups the consumer
// view does not carry itself: normalization's root-type lookup and its
// fragment-applicability check (interface implementors, union members).
func (s *Schema) State() *supergraph.State {
	return s.state
}
