package satisfiability

import (
	"sort"

	"github.com/n9te9/hive-query-router/internal/supergraph"
)

// Build constructs the satisfiability graph for one supergraph version.
// Construction is a single leaves-first pass per the data-model algorithm:
//
//  1. root nodes, one per root operation kind the supergraph defines
//  2. subgraph entrypoints: root -> (rootType, g) for every graph hosting
//     a root type, carrying the set of top-level field names reachable
//     directly from that entrypoint
//  3. field-move edges: (T, g) -> (fieldType, g) for every field available
//     in g, plus a mandatory __typename edge on every object/interface/
//     union node; a union-typed field additionally fans out to one
//     UnionSubset node per member visible in g
//  4. entity-move edges: (T, g1) -> (T, g2) for every other graph g2
//     hosting T under a resolvable key, including self-edges when T
//     declares more than one resolvable key in the same graph
//  5. abstract-move edges: (Iface, g) -> (Impl, g) for every
//     @join__implements relationship visible in g, and (Union, g) ->
//     UnionSubset(member) for every @join__unionMember visible in g
//
// A field carrying @provides does not get its own graph node: the provided
// sub-selection is carried as metadata on the FieldMove edge (Edge.Provides)
// for the fetch-graph optimizer to consume when deciding whether a
// downstream entity fetch can be skipped, the same way Requires is carried
// for the pathfinder's satisfiability check.
func Build(state *supergraph.State) *Graph {
	b := &builder{state: state, g: newGraph()}
	b.buildRoots()
	for _, td := range sortedTypes(state) {
		if td.Kind != supergraph.KindObject && td.Kind != supergraph.KindInterface && td.Kind != supergraph.KindUnion {
			continue
		}
		for _, jt := range td.JoinType {
			b.typeSubgraphNode(td.Name, jt.GraphID)
		}
	}
	for _, td := range sortedTypes(state) {
		b.buildFieldEdges(td)
	}
	for _, td := range sortedTypes(state) {
		b.buildEntityEdges(td)
	}
	for _, td := range sortedTypes(state) {
		b.buildAbstractEdges(td)
	}
	return b.g
}

func sortedTypes(state *supergraph.State) []*supergraph.SupergraphTypeDef {
	all := state.AllTypes()
	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*supergraph.SupergraphTypeDef, len(names))
	for i, n := range names {
		out[i] = all[n]
	}
	return out
}

type builder struct {
	state *supergraph.State
	g     *Graph
}

func (b *builder) typeSubgraphNode(typeName string, g supergraph.SubgraphId) NodeID {
	key := nodeKey{typeName: typeName, graphID: g}
	return b.g.internNode(key, func(id NodeID) Node {
		return Node{ID: id, TypeName: typeName, GraphID: g}
	})
}

func (b *builder) buildRoots() {
	for _, kind := range []supergraph.RootKind{supergraph.RootQuery, supergraph.RootMutation, supergraph.RootSubscription} {
		rootTypeName := b.state.RootTypeName(kind)
		if rootTypeName == "" {
			continue
		}
		rootID := b.g.internNode(nodeKey{isRoot: true, rootKind: kind}, func(id NodeID) Node {
			return Node{ID: id, IsRoot: true, RootKind: kind, TypeName: rootTypeName}
		})
		b.g.rootNode[kind] = rootID

		td := b.state.DefinitionsByRoot(kind)
		if td == nil {
			continue
		}
		for _, jt := range td.JoinType {
			fields := fieldsAvailableIn(td, jt.GraphID)
			targetID := b.typeSubgraphNode(td.Name, jt.GraphID)
			b.g.addEdge(Edge{
				From:            rootID,
				To:              targetID,
				Kind:            KindSubgraphEntrypoint,
				Cost:            CostSubgraphEntrypoint,
				EntrypointGraph: jt.GraphID,
				FieldNames:      fields,
			})
		}
	}
}

func fieldsAvailableIn(td *supergraph.SupergraphTypeDef, g supergraph.SubgraphId) []string {
	names := make([]string, 0, len(td.Fields))
	for name, fd := range td.Fields {
		if fd.AvailableInGraph(g) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func (b *builder) buildFieldEdges(td *supergraph.SupergraphTypeDef) {
	if td.Kind != supergraph.KindObject && td.Kind != supergraph.KindInterface {
		return
	}
	fieldNames := make([]string, 0, len(td.Fields))
	for name := range td.Fields {
		fieldNames = append(fieldNames, name)
	}
	sort.Strings(fieldNames)

	for _, jt := range td.JoinType {
		g := jt.GraphID
		fromID, ok := b.g.TypeSubgraphNode(td.Name, g)
		if !ok {
			continue
		}

		b.addTypenameEdge(fromID, td.Name, g)

		for _, name := range fieldNames {
			fd := td.Fields[name]
			if !fd.AvailableInGraph(g) {
				continue
			}
			jf, _ := fd.JoinFieldFor(g)
			childTypeName := supergraph.NamedTypeOf(fd.FieldType)
			isList := supergraph.IsListType(fd.FieldType)
			childDef, isComposite := b.state.TypeByName(childTypeName)

			// @requires names fields g does not resolve itself, so the
			// selection is parsed without checking availability in g; the
			// pathfinder resolves it from other subgraphs.
			var requires supergraph.Selection
			if jf.Requires != "" {
				if sel, err := supergraph.ParseSelection(jf.Requires); err == nil {
					requires = sel
				}
			}
			var provides supergraph.Selection
			if jf.Provides != "" {
				if sel, err := supergraph.ParseSelection(jf.Provides); err == nil {
					provides = sel
				}
			}

			if !isComposite || childDef.Kind == supergraph.KindScalar || childDef.Kind == supergraph.KindEnum {
				b.g.addEdge(Edge{
					From:       fromID,
					To:         fromID, // leaf fields don't move the cursor; recorded for plan serialization via FieldName
					Kind:       KindFieldMove,
					Cost:       CostFieldMove,
					FieldName:  name,
					ParentType: td.Name,
					IsLeaf:     true,
					IsList:     isList,
					JoinField:  jfPtr(jf),
					Requires:   requires,
				})
				continue
			}

			if childDef.Kind == supergraph.KindUnion {
				b.buildUnionFieldEdges(fromID, td.Name, name, childDef, g, jf, requires, provides, isList)
				continue
			}

			// toID is usable even when childDef isn't present in g: it
			// becomes a pivot point reachable only via the entity/abstract
			// moves registered from childDef's own JoinType loop.
			toID := b.typeSubgraphNode(childTypeName, g)
			b.g.addEdge(Edge{
				From:       fromID,
				To:         toID,
				Kind:       KindFieldMove,
				Cost:       CostFieldMove,
				FieldName:  name,
				ParentType: td.Name,
				IsList:     isList,
				JoinField:  jfPtr(jf),
				Requires:   requires,
				Provides:   provides,
			})
		}
	}
}

func (b *builder) addTypenameEdge(fromID NodeID, typeName string, g supergraph.SubgraphId) {
	b.g.addEdge(Edge{
		From:       fromID,
		To:         fromID,
		Kind:       KindFieldMove,
		Cost:       CostFieldMove,
		FieldName:  "__typename",
		ParentType: typeName,
		IsLeaf:     true,
	})
}

// buildUnionFieldEdges fans a union-typed field out to one UnionSubset node
// per member visible in g, each carrying its own field edges narrowed to
// that member's concrete fields via the abstract-move step.
func (b *builder) buildUnionFieldEdges(fromID NodeID, parentType, fieldName string, unionDef *supergraph.SupergraphTypeDef, g supergraph.SubgraphId, jf supergraph.JoinField, requires, provides supergraph.Selection, isList bool) {
	for _, member := range b.state.UnionMembersIn(unionDef.Name, g) {
		viewKey := unionDef.Name + ":" + parentType + ":" + fieldName + ":" + member
		subsetID := b.g.internNode(nodeKey{typeName: member, graphID: g, spec: SpecUnionSubset, viewOrMember: viewKey}, func(id NodeID) Node {
			return Node{
				ID:       id,
				TypeName: member,
				GraphID:  g,
				Spec:     SpecUnionSubset,
				UnionSubset: &UnionSubsetInfo{
					ParentType:   parentType,
					ParentField:  fieldName,
					ObjectMember: member,
				},
			}
		})
		b.g.addEdge(Edge{
			From:       fromID,
			To:         subsetID,
			Kind:       KindFieldMove,
			Cost:       CostFieldMove,
			FieldName:  fieldName,
			ParentType: parentType,
			IsList:     isList,
			JoinField:  jfPtr(jf),
			Requires:   requires,
			Provides:   provides,
			TargetType: member,
		})

		memberDef, ok := b.state.TypeByName(member)
		if !ok {
			continue
		}
		b.addTypenameEdge(subsetID, member, g)
		for name, fd := range memberDef.Fields {
			if !fd.AvailableInGraph(g) {
				continue
			}
			childTypeName := supergraph.NamedTypeOf(fd.FieldType)
			childDef, isComposite := b.state.TypeByName(childTypeName)
			leaf := !isComposite || childDef.Kind == supergraph.KindScalar || childDef.Kind == supergraph.KindEnum
			to := subsetID
			if !leaf {
				to = b.typeSubgraphNode(childTypeName, g)
			}
			b.g.addEdge(Edge{
				From:       subsetID,
				To:         to,
				Kind:       KindFieldMove,
				Cost:       CostFieldMove,
				FieldName:  name,
				ParentType: member,
				IsLeaf:     leaf,
				IsList:     supergraph.IsListType(fd.FieldType),
			})
		}
	}
}

func jfPtr(jf supergraph.JoinField) *supergraph.JoinField {
	if jf.GraphID == "" && jf.TypeInGraph == "" && jf.Requires == "" && jf.Provides == "" && !jf.External && jf.Override == nil {
		return nil
	}
	cp := jf
	return &cp
}

// buildEntityEdges wires moves between subgraphs that both host td under a
// resolvable key, plus self-edges when a graph declares more than one
// resolvable key for td (spec data-model: entity moves are keyed by which
// key selection was used, so two keys in the same graph are distinct
// edges).
func (b *builder) buildEntityEdges(td *supergraph.SupergraphTypeDef) {
	if td.Kind != supergraph.KindObject {
		return
	}
	for _, fromJT := range td.JoinType {
		fromID, ok := b.g.TypeSubgraphNode(td.Name, fromJT.GraphID)
		if !ok {
			continue
		}
		for _, toJT := range td.JoinType {
			keys := td.ResolvableKeysIn(toJT.GraphID)
			if toJT.GraphID == fromJT.GraphID && len(keys) < 2 {
				continue
			}
			for _, key := range keys {
				// toJT.GraphID == fromJT.GraphID is a legal self-edge: a
				// type can declare more than one resolvable @key in the
				// same graph, and the planner may need to re-enter via the
				// other key to reach a field gated behind it.
				resolver := b.state.SelectionResolverForSubgraph(toJT.GraphID)
				sel, err := resolver.Resolve(td.Name, key)
				if err != nil {
					continue
				}
				toID := b.typeSubgraphNode(td.Name, toJT.GraphID)
				b.g.addEdge(Edge{
					From:      fromID,
					To:        toID,
					Kind:      KindEntityMove,
					Cost:      CostEntityMove,
					EntityKey: sel,
				})
			}
		}
	}
}

// buildAbstractEdges wires interface -> implementor and union -> member
// moves visible within one graph.
func (b *builder) buildAbstractEdges(td *supergraph.SupergraphTypeDef) {
	switch td.Kind {
	case supergraph.KindInterface:
		for _, jt := range td.JoinType {
			fromID, ok := b.g.TypeSubgraphNode(td.Name, jt.GraphID)
			if !ok {
				continue
			}
			for _, impl := range b.state.Implementors(td.Name, jt.GraphID) {
				toID := b.typeSubgraphNode(impl.Name, jt.GraphID)
				b.g.addEdge(Edge{
					From:       fromID,
					To:         toID,
					Kind:       KindAbstractMove,
					Cost:       CostAbstractMove,
					TargetType: impl.Name,
				})
			}
			if jt.IsInterfaceObject {
				// an @interfaceObject type resolves every implementor's
				// fields directly from this node without narrowing; model
				// that as a self-loop target reuse rather than a distinct
				// edge kind, since field edges on this node already cover
				// every shared field.
				b.g.addEdge(Edge{
					From:       fromID,
					To:         fromID,
					Kind:       KindInterfaceObjectTypeMove,
					Cost:       CostFieldMove,
					TargetType: td.Name,
				})
			}
		}
	case supergraph.KindUnion:
		for _, jt := range td.JoinType {
			fromID, ok := b.g.TypeSubgraphNode(td.Name, jt.GraphID)
			if !ok {
				continue
			}
			for _, member := range b.state.UnionMembersIn(td.Name, jt.GraphID) {
				toID := b.typeSubgraphNode(member, jt.GraphID)
				b.g.addEdge(Edge{
					From:       fromID,
					To:         toID,
					Kind:       KindAbstractMove,
					Cost:       CostAbstractMove,
					TargetType: member,
				})
			}
		}
	}
}
