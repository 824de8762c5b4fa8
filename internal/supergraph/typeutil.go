package supergraph

import "github.com/n9te9/graphql-parser/ast"

// NamedTypeOf unwraps list/non-null wrappers down to the named type.
func NamedTypeOf(t ast.Type) string {
	switch typ := t.(type) {
	case *ast.NamedType:
		return typ.Name.String()
	case *ast.ListType:
		return NamedTypeOf(typ.Type)
	case *ast.NonNullType:
		return NamedTypeOf(typ.Type)
	default:
		return ""
	}
}

// IsNonNull reports whether the outermost wrapper is non-null.
func IsNonNull(t ast.Type) bool {
	_, ok := t.(*ast.NonNullType)
	return ok
}

// IsListType reports whether t is (optionally non-null-wrapped) a list.
func IsListType(t ast.Type) bool {
	switch typ := t.(type) {
	case *ast.ListType:
		return true
	case *ast.NonNullType:
		return IsListType(typ.Type)
	default:
		return false
	}
}
