package supergraph

import (
	"fmt"

	"github.com/n9te9/graphql-parser/ast"
	"github.com/n9te9/graphql-parser/lexer"
	"github.com/n9te9/graphql-parser/parser"
)

// builtinScalars are the five scalar types every GraphQL schema carries
// implicitly.
var builtinScalars = map[string]struct{}{
	"Int":     {},
	"Float":   {},
	"String":  {},
	"Boolean": {},
	"ID":      {},
}

// Parse parses a composed supergraph SDL (with join__* federation
// directives already present, i.e. the output of schema composition) into a
// State. Composition itself is out of scope: this never merges multiple
// documents, it only reads the single SDL already produced by a composer.
func Parse(sdl []byte) (*State, error) {
	l := lexer.New(string(sdl))
	p := parser.New(l)
	doc := p.ParseDocument()
	if len(p.Errors()) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrParse, p.Errors())
	}

	st := &State{
		types:       make(map[string]*SupergraphTypeDef),
		graphAlias:  make(map[string]SubgraphId),
		rootNames:   make(map[RootKind]string),
		doc:         doc,
	}

	if err := st.indexGraphEnum(doc); err != nil {
		return nil, err
	}
	if err := st.indexSchemaDefinition(doc); err != nil {
		return nil, err
	}
	if err := st.indexTypes(doc); err != nil {
		return nil, err
	}
	if err := st.checkInvariants(); err != nil {
		return nil, err
	}

	return st, nil
}

// indexGraphEnum locates the `join__Graph` enum and records each value's
// name as a resolvable alias for ResolveGraphID. Values may additionally
// carry `@join__graph(name: "...", url: "...")`; when present `name` is
// registered as an extra alias pointing at the same SubgraphId.
func (st *State) indexGraphEnum(doc *ast.Document) error {
	for _, def := range doc.Definitions {
		enumDef, ok := def.(*ast.EnumTypeDefinition)
		if !ok || enumDef.Name.String() != "join__Graph" {
			continue
		}
		for _, v := range enumDef.Values {
			enumValueName := v.Name.String()
			id := SubgraphId(enumValueName)
			st.graphAlias[enumValueName] = id

			for _, d := range v.Directives {
				if d.Name != "join__graph" {
					continue
				}
				for _, arg := range d.Arguments {
					if arg.Name.String() == "name" {
						if s, ok := arg.Value.(*ast.StringValue); ok {
							st.graphAlias[s.Value] = id
						}
					}
				}
			}
		}
	}
	return nil
}

// RootKind enumerates the three GraphQL root operation kinds.
type RootKind int

const (
	RootQuery RootKind = iota
	RootMutation
	RootSubscription
)

// indexSchemaDefinition records which named type backs each root operation
// kind, defaulting to the conventional Query/Mutation/Subscription names
// when no explicit `schema { ... }` block overrides them.
func (st *State) indexSchemaDefinition(doc *ast.Document) error {
	st.rootNames[RootQuery] = "Query"
	st.rootNames[RootMutation] = "Mutation"
	st.rootNames[RootSubscription] = "Subscription"

	for _, def := range doc.Definitions {
		sd, ok := def.(*ast.SchemaDefinition)
		if !ok {
			continue
		}
		for _, otd := range sd.OperationTypes {
			name := otd.Type.String()
			switch otd.Operation {
			case ast.Query:
				st.rootNames[RootQuery] = name
			case ast.Mutation:
				st.rootNames[RootMutation] = name
			case ast.Subscription:
				st.rootNames[RootSubscription] = name
			}
		}
	}
	return nil
}

func (st *State) indexTypes(doc *ast.Document) error {
	for _, def := range doc.Definitions {
		switch d := def.(type) {
		case *ast.ObjectTypeDefinition:
			td, err := st.typeDef(d.Name.String(), KindObject)
			if err != nil {
				return err
			}
			if err := st.fillJoinType(td, d.Directives); err != nil {
				return err
			}
			if err := st.fillJoinImplements(td, d.Directives); err != nil {
				return err
			}
			td.Auth = mergeAuth(td.Auth, parseAuth(d.Directives))
			for _, f := range d.Fields {
				if err := st.fillField(td, f); err != nil {
					return err
				}
			}
		case *ast.InterfaceTypeDefinition:
			td, err := st.typeDef(d.Name.String(), KindInterface)
			if err != nil {
				return err
			}
			if err := st.fillJoinType(td, d.Directives); err != nil {
				return err
			}
			td.Auth = mergeAuth(td.Auth, parseAuth(d.Directives))
			for _, f := range d.Fields {
				if err := st.fillField(td, f); err != nil {
					return err
				}
			}
		case *ast.UnionTypeDefinition:
			td, err := st.typeDef(d.Name.String(), KindUnion)
			if err != nil {
				return err
			}
			if err := st.fillJoinType(td, d.Directives); err != nil {
				return err
			}
			if err := st.fillJoinUnionMember(td, d.Directives); err != nil {
				return err
			}
		case *ast.EnumTypeDefinition:
			if d.Name.String() == "join__Graph" {
				continue
			}
			if _, err := st.typeDef(d.Name.String(), KindEnum); err != nil {
				return err
			}
		case *ast.ScalarTypeDefinition:
			td, err := st.typeDef(d.Name.String(), KindScalar)
			if err != nil {
				return err
			}
			td.Auth = mergeAuth(td.Auth, parseAuth(d.Directives))
		case *ast.InputObjectTypeDefinition:
			if _, err := st.typeDef(d.Name.String(), KindInputObject); err != nil {
				return err
			}
		}
	}
	return nil
}

func (st *State) typeDef(name string, kind TypeKind) (*SupergraphTypeDef, error) {
	if td, ok := st.types[name]; ok {
		return td, nil
	}
	td := &SupergraphTypeDef{
		Name:   name,
		Kind:   kind,
		Fields: make(map[string]*FieldDef),
	}
	st.types[name] = td
	return td, nil
}

// fillJoinType parses every @join__type occurrence on a type definition.
func (st *State) fillJoinType(td *SupergraphTypeDef, directives []*ast.Directive) error {
	for _, d := range directives {
		if d.Name != "join__type" {
			continue
		}
		jt := JoinType{Resolvable: true}
		for _, arg := range d.Arguments {
			switch arg.Name.String() {
			case "graph":
				id, err := st.resolveEnumArgToGraph(arg.Value)
				if err != nil {
					return err
				}
				jt.GraphID = id
			case "key":
				if s, ok := arg.Value.(*ast.StringValue); ok {
					jt.Key = s.Value
				}
			case "resolvable":
				if b, ok := arg.Value.(*ast.BooleanValue); ok {
					jt.Resolvable = b.Value
				}
			case "extension":
				if b, ok := arg.Value.(*ast.BooleanValue); ok {
					jt.Extension = b.Value
				}
			case "isInterfaceObject":
				if b, ok := arg.Value.(*ast.BooleanValue); ok {
					jt.IsInterfaceObject = b.Value
				}
			}
		}
		if jt.GraphID == "" {
			return fmt.Errorf("%w: %s: @join__type missing graph argument", ErrInvalidKeySelection, td.Name)
		}
		td.JoinType = append(td.JoinType, jt)
	}
	return nil
}

func (st *State) fillJoinImplements(td *SupergraphTypeDef, directives []*ast.Directive) error {
	for _, d := range directives {
		if d.Name != "join__implements" {
			continue
		}
		var ji JoinImplements
		for _, arg := range d.Arguments {
			switch arg.Name.String() {
			case "graph":
				id, err := st.resolveEnumArgToGraph(arg.Value)
				if err != nil {
					return err
				}
				ji.GraphID = id
			case "interface":
				if s, ok := arg.Value.(*ast.StringValue); ok {
					ji.InterfaceName = s.Value
				}
			}
		}
		td.JoinImplements = append(td.JoinImplements, ji)
	}
	return nil
}

func (st *State) fillJoinUnionMember(td *SupergraphTypeDef, directives []*ast.Directive) error {
	for _, d := range directives {
		if d.Name != "join__unionMember" {
			continue
		}
		var jm JoinUnionMember
		for _, arg := range d.Arguments {
			switch arg.Name.String() {
			case "graph":
				id, err := st.resolveEnumArgToGraph(arg.Value)
				if err != nil {
					return err
				}
				jm.GraphID = id
			case "member":
				if s, ok := arg.Value.(*ast.StringValue); ok {
					jm.MemberTypeName = s.Value
				}
			}
		}
		td.JoinUnionMember = append(td.JoinUnionMember, jm)
	}
	return nil
}

func (st *State) fillField(td *SupergraphTypeDef, f *ast.FieldDefinition) error {
	fd := &FieldDef{
		Name:      f.Name.String(),
		FieldType: f.Type,
		Arguments: f.Arguments,
	}

	for _, d := range f.Directives {
		switch d.Name {
		case "join__field":
			jf, err := st.parseJoinField(d)
			if err != nil {
				return err
			}
			fd.JoinField = append(fd.JoinField, jf)
		}
	}
	fd.Auth = parseAuth(f.Directives)

	td.Fields[fd.Name] = fd
	return nil
}

func (st *State) parseJoinField(d *ast.Directive) (JoinField, error) {
	var jf JoinField
	for _, arg := range d.Arguments {
		switch arg.Name.String() {
		case "graph":
			id, err := st.resolveEnumArgToGraph(arg.Value)
			if err != nil {
				return JoinField{}, err
			}
			jf.GraphID = id
		case "type":
			if s, ok := arg.Value.(*ast.StringValue); ok {
				jf.TypeInGraph = s.Value
			}
		case "requires":
			if s, ok := arg.Value.(*ast.StringValue); ok {
				jf.Requires = s.Value
			}
		case "provides":
			if s, ok := arg.Value.(*ast.StringValue); ok {
				jf.Provides = s.Value
			}
		case "external":
			if b, ok := arg.Value.(*ast.BooleanValue); ok {
				jf.External = b.Value
			}
		case "override":
			if s, ok := arg.Value.(*ast.StringValue); ok {
				if jf.Override == nil {
					jf.Override = &Override{}
				}
				jf.Override.From = s.Value
			}
		case "overrideLabel":
			if s, ok := arg.Value.(*ast.StringValue); ok {
				if jf.Override == nil {
					jf.Override = &Override{}
				}
				jf.Override.Label = s.Value
			}
		case "usedOverridden":
			if b, ok := arg.Value.(*ast.BooleanValue); ok {
				if jf.Override == nil {
					jf.Override = &Override{}
				}
				jf.Override.UsedOverridden = b.Value
			}
		}
	}
	return jf, nil
}

// resolveEnumArgToGraph resolves an enum-valued directive argument (the
// `graph:` argument of every join__* directive) to a SubgraphId via the
// join__Graph alias table.
func (st *State) resolveEnumArgToGraph(v ast.Value) (SubgraphId, error) {
	ev, ok := v.(*ast.EnumValue)
	if !ok {
		return "", fmt.Errorf("%w: graph argument is not an enum value", ErrInvalidKeySelection)
	}
	id, ok := st.graphAlias[ev.Value]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownGraphId, ev.Value)
	}
	return id, nil
}

// parseAuth extracts @authenticated / @requiresScopes from a directive list.
func parseAuth(directives []*ast.Directive) AuthPolicy {
	var p AuthPolicy
	for _, d := range directives {
		switch d.Name {
		case "authenticated":
			p.Authenticated = true
		case "requiresScopes":
			for _, arg := range d.Arguments {
				if arg.Name.String() != "scopes" {
					continue
				}
				if lv, ok := arg.Value.(*ast.ListValue); ok {
					for _, group := range lv.Values {
						glv, ok := group.(*ast.ListValue)
						if !ok {
							continue
						}
						var and []string
						for _, scope := range glv.Values {
							if s, ok := scope.(*ast.StringValue); ok {
								and = append(and, s.Value)
							} else if s, ok := scope.(*ast.EnumValue); ok {
								and = append(and, s.Value)
							}
						}
						p.Scopes = append(p.Scopes, and)
					}
				}
			}
		}
	}
	return p
}

func mergeAuth(a, b AuthPolicy) AuthPolicy {
	if b.IsEmpty() {
		return a
	}
	if a.IsEmpty() {
		return b
	}
	out := AuthPolicy{Authenticated: a.Authenticated || b.Authenticated}
	out.Scopes = append(append([][]string{}, a.Scopes...), b.Scopes...)
	return out
}

// checkInvariants enforces that every join_field.graph_id also appears in
// the parent type's join_type[].graph_id set.
func (st *State) checkInvariants() error {
	for _, td := range st.types {
		for _, fd := range td.Fields {
			for _, jf := range fd.JoinField {
				if jf.GraphID == "" {
					continue
				}
				if !td.PresentInGraph(jf.GraphID) {
					return fmt.Errorf("%w: %s.%s references graph %q not present on %s",
						ErrInconsistentFederationMetadata, td.Name, fd.Name, jf.GraphID, td.Name)
				}
			}
		}
	}
	return nil
}

