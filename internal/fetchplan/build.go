package fetchplan

import (
	"fmt"
	"strings"

	"github.com/n9te9/hive-query-router/internal/querytree"
	"github.com/n9te9/hive-query-router/internal/satisfiability"
	"github.com/n9te9/hive-query-router/internal/supergraph"
)

// aliasPrefix marks a field alias fetchplan minted itself to resolve a
// conflict-aware argument aliasing case, rather than one the client wrote.
const aliasPrefix = "_internal_qp_alias_"

// Build lowers a merged query tree into an unoptimized fetch graph: one
// FetchStep per subgraph entrypoint or entity jump, with requirement
// sub-trees wired in as extra parents of the step that needs them. Call
// Optimize on the result before handing it to the serializer.
func Build(graph *satisfiability.Graph, root *querytree.Node) *FetchGraph {
	b := &builder{sg: graph, fg: New()}
	b.lowerRoots(root)
	return b.fg
}

type builder struct {
	sg *satisfiability.Graph
	fg *FetchGraph
}

// lowerRoots walks the children of the query tree root, each of which is a
// SubgraphEntrypoint edge: every entrypoint gets its own root FetchStep.
func (b *builder) lowerRoots(root *querytree.Node) {
	for _, child := range root.OrderedChildren() {
		edge := b.sg.Edge(child.EdgeFromParent)
		if edge.Kind != satisfiability.KindSubgraphEntrypoint {
			continue
		}
		stepID := b.fg.AddStep(FetchStep{SubgraphID: edge.EntrypointGraph, ParentType: b.sg.Node(edge.To).TypeName})
		step := b.fg.Step(stepID)
		b.lower(child, stepID, &step.Output, nil)
	}
}

// lower walks node's children, appending leaf field moves into *parent and
// spawning new FetchSteps for entity/interface-object moves that cross into
// another subgraph. parent is the exact Selection slot currentStep's cursor
// sits at right now (the step's own Output at the top, or the Children of
// whichever field this walk last descended into); responsePath is the
// absolute path from the response root to that same position, independent
// of how many steps/subgraphs were crossed to get here.
func (b *builder) lower(node *querytree.Node, currentStep StepID, parent *supergraph.Selection, responsePath []string) {
	for _, child := range node.OrderedChildren() {
		edge := b.sg.Edge(child.EdgeFromParent)
		switch edge.Kind {
		case satisfiability.KindFieldMove:
			b.lowerFieldMove(child, edge, currentStep, parent, responsePath)
		case satisfiability.KindAbstractMove, satisfiability.KindInterfaceObjectTypeMove:
			// Narrowing to a concrete/interfaceObject type never leaves the
			// current subgraph request; it only refines which fields are
			// legal beneath it.
			b.lower(child, currentStep, parent, responsePath)
		case satisfiability.KindEntityMove:
			b.lowerEntityMove(child, edge, currentStep, responsePath)
		}
	}
}

func (b *builder) lowerFieldMove(node *querytree.Node, edge satisfiability.Edge, currentStep StepID, parent *supergraph.Selection, responsePath []string) {
	for fieldName, reqRoots := range node.Requirements {
		for _, reqRoot := range reqRoots {
			anchor := b.anchorFor(currentStep)
			end, key := b.lowerRequirement(reqRoot, anchor, currentStep, responsePath, fieldName, reqRoot.Arguments)
			if end != currentStep {
				b.fg.Connect(end, currentStep)
				// The requiring step's own representation needs to carry
				// the resolved value in, under whatever key it actually
				// ended up at (its real name, or a conflict-aware alias).
				step := b.fg.Step(currentStep)
				step.Input = appendField(step.Input, key, nil)
			}
		}
	}

	var key string
	*parent, key = appendArgField(*parent, edge.FieldName, node.Alias, node.Arguments, nil)

	if edge.IsLeaf {
		return
	}
	childPath := append(append([]string{}, responsePath...), edge.FieldName)
	if edge.IsList {
		childPath = append(childPath, listSegment)
	}
	idx := indexOfResponseKey(*parent, key)
	b.lower(node, currentStep, &(*parent)[idx].Children, childPath)
}

func (b *builder) lowerEntityMove(node *querytree.Node, edge satisfiability.Edge, currentStep StepID, responsePath []string) {
	targetNode := b.sg.Node(edge.To)
	newStep := b.fg.AddStep(FetchStep{
		SubgraphID:   targetNode.GraphID,
		ParentType:   targetNode.TypeName,
		ResponsePath: append([]string{}, responsePath...),
		Input:        edge.EntityKey,
	})
	b.fg.Connect(currentStep, newStep)
	step := b.fg.Step(newStep)
	b.lower(node, newStep, &step.Output, responsePath)
}

// indexOfResponseKey returns the index of the field in sel with the given
// response key (its alias if it has one, else its name), or -1.
func indexOfResponseKey(sel supergraph.Selection, key string) int {
	for i, f := range sel {
		if f.ResponseKey() == key {
			return i
		}
	}
	return -1
}

// locateSlot walks sel along path, skipping the list-index sentinel and
// matching each remaining segment against an existing field's response key,
// and returns a pointer to the Children slot at that position. path is
// always a suffix recorded off fields already appended during this same
// lowering pass, so every segment resolves; locateSlot only falls short if
// called with a path that doesn't describe a real ancestor of sel, which
// would be a caller bug rather than a runtime condition to recover from.
func locateSlot(sel *supergraph.Selection, path []string) *supergraph.Selection {
	cur := sel
	for _, seg := range path {
		if seg == listSegment {
			continue
		}
		idx := indexOfResponseKey(*cur, seg)
		if idx < 0 {
			return cur
		}
		cur = &(*cur)[idx].Children
	}
	return cur
}

// listSegment is the sentinel response-path segment standing in for "the
// list index", materialized wherever a field move crosses a list field.
const listSegment = "List"

// anchorFor returns the step a requirement selection should be resolved
// from: currentStep's own parent if it has one (the data currentStep was
// derived from), else currentStep itself for a root step.
func (b *builder) anchorFor(currentStep StepID) StepID {
	if parents := b.fg.Parents(currentStep); len(parents) > 0 {
		return parents[0]
	}
	return currentStep
}

// lowerRequirement lowers one requirement sub-tree (a chain of field/entity
// moves resolving a single @requires or @key field) starting from anchor,
// applying arguments to the requirement field itself (the sub-tree's only
// field-move edge; entity/abstract moves along the way never carry
// arguments). fromStep is the step that actually needs the value (the one
// anchor was derived from via anchorFor): its ResponsePath, minus whatever
// prefix anchor's own ResponsePath already accounts for, locates the exact
// nested slot in anchor's Output the requirement field has to land in —
// anchor may be sitting several field-moves deep in its own request by the
// time a descendant subgraph needs something back from it.
//
// It returns the step whose Output ultimately carries the resolved value,
// and the response key (its name, or a conflict-aware alias) that value was
// written under, so the caller can wire both in as an extra dependency of
// the requiring step.
func (b *builder) lowerRequirement(node *querytree.Node, anchor, fromStep StepID, responsePath []string, fieldName string, arguments []supergraph.Argument) (StepID, string) {
	anchorStep := b.fg.Step(anchor)
	fromPath := b.fg.Step(fromStep).ResponsePath
	relative := fromPath
	if len(anchorStep.ResponsePath) <= len(fromPath) {
		relative = fromPath[len(anchorStep.ResponsePath):]
	}
	slot := locateSlot(&anchorStep.Output, relative)
	return b.lowerRequirementAt(node, anchor, slot, responsePath, fieldName, arguments)
}

func (b *builder) lowerRequirementAt(node *querytree.Node, last StepID, slot *supergraph.Selection, responsePath []string, fieldName string, arguments []supergraph.Argument) (StepID, string) {
	key := fieldName
	for _, child := range node.OrderedChildren() {
		edge := b.sg.Edge(child.EdgeFromParent)
		switch edge.Kind {
		case satisfiability.KindFieldMove:
			*slot, key = appendArgField(*slot, edge.FieldName, "", arguments, nil)
			if !edge.IsLeaf {
				idx := indexOfResponseKey(*slot, key)
				last, key = b.lowerRequirementAt(child, last, &(*slot)[idx].Children, responsePath, fieldName, arguments)
			}
		case satisfiability.KindEntityMove:
			targetNode := b.sg.Node(edge.To)
			newStep := b.fg.AddStep(FetchStep{
				SubgraphID:          targetNode.GraphID,
				ParentType:          targetNode.TypeName,
				ResponsePath:        append([]string{}, responsePath...),
				Input:               edge.EntityKey,
				ReservedForRequires: supergraph.Selection{{Name: fieldName}},
			})
			b.fg.Connect(last, newStep)
			step := b.fg.Step(newStep)
			last, key = b.lowerRequirementAt(child, newStep, &step.Output, responsePath, fieldName, arguments)
		case satisfiability.KindAbstractMove, satisfiability.KindInterfaceObjectTypeMove:
			last, key = b.lowerRequirementAt(child, last, slot, responsePath, fieldName, arguments)
		}
	}
	return last, key
}

// appendField merges name (with children, if any) into sel, folding into an
// existing field of the same name rather than adding a duplicate leaf. It
// never carries arguments, so it's used only for plain field-set-shaped
// selections: entity keys and the Input keys recorded for requirement
// consumers (where only "what key to read" matters, not how it was
// produced).
func appendField(sel supergraph.Selection, name string, children supergraph.Selection) supergraph.Selection {
	for i, f := range sel {
		if f.Name == name {
			if len(children) > 0 {
				sel[i].Children = mergeSelections(f.Children, children)
			}
			return sel
		}
	}
	return append(sel, supergraph.SelectionField{Name: name, Children: children})
}

func mergeSelections(a, b supergraph.Selection) supergraph.Selection {
	out := a
	for _, f := range b {
		out = appendField(out, f.Name, f.Children)
	}
	return out
}

// appendArgField merges a real operation-level field (possibly aliased,
// possibly with arguments) into sel, the step-output-building entry point
// for conflict-aware argument aliasing (spec §4.6): a field already present
// under the same response key with the same arguments folds together
// (children unioned) exactly like appendField; a field with the same
// response key but *different* arguments instead gets a fresh
// "_internal_qp_alias_<N>" alias so both survive as distinct selections. It
// returns the updated selection and the response key the field actually
// ended up under, so callers can reference it from a dependent selection.
func appendArgField(sel supergraph.Selection, name, alias string, args []supergraph.Argument, children supergraph.Selection) (supergraph.Selection, string) {
	key := alias
	if key == "" {
		key = name
	}
	for i, f := range sel {
		if f.ResponseKey() != key {
			continue
		}
		if supergraph.SameArguments(f.Arguments, args) {
			if len(children) > 0 {
				sel[i].Children = mergeSelections(f.Children, children)
			}
			return sel, key
		}
		newAlias := nextInternalAlias(sel)
		sel = append(sel, supergraph.SelectionField{Name: name, Alias: newAlias, Arguments: args, Children: children})
		return sel, newAlias
	}
	sel = append(sel, supergraph.SelectionField{Name: name, Alias: alias, Arguments: args, Children: children})
	return sel, key
}

// nextInternalAlias returns the next unused "_internal_qp_alias_<N>" alias
// for sel, numbering conflict-aware aliases in the order they're minted.
func nextInternalAlias(sel supergraph.Selection) string {
	n := 0
	for _, f := range sel {
		if strings.HasPrefix(f.Alias, aliasPrefix) {
			n++
		}
	}
	return fmt.Sprintf("%s%d", aliasPrefix, n)
}
