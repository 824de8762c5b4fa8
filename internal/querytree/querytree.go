// Package querytree merges the per-field best paths the pathfinder found
// into a single tree rooted at an operation's entry node: siblings that
// took the same edge off a shared parent collapse into one node, so the
// fetch-graph builder sees one fan-out per distinct subgraph move rather
// than one per selected field.
package querytree

import (
	"github.com/n9te9/hive-query-router/internal/satisfiability"
	"github.com/n9te9/hive-query-router/internal/supergraph"
)

// Node is one vertex of the merged query tree. EdgeFromParent is the
// satisfiability edge that produced this node from its parent (HasEdge is
// false at the tree root, which has no incoming edge). Alias/Arguments
// record the source operation field that reached this node (empty for
// nodes that only exist to narrow an abstract type or hop subgraphs).
// Requirements holds the requirement sub-trees that must be fetched before
// EdgeFromParent's move can be taken, keyed by the requirement field name
// so fetchplan can wire `parent -> requires_step -> requiring_step` edges;
// a field name maps to more than one root only when distinct @requires
// occurrences of it were resolved with different arguments.
type Node struct {
	Tail           satisfiability.NodeID
	EdgeFromParent satisfiability.EdgeID
	HasEdge        bool
	Alias          string
	Arguments      []supergraph.Argument
	Children       []*Node
	Requirements   map[string][]*Node
}

// FieldInfo carries the alias/arguments of the operation field that
// resolved to a Merge call's target node.
type FieldInfo struct {
	Alias     string
	Arguments []supergraph.Argument
}

// NewRoot creates the tree root at tail, with no incoming edge.
func NewRoot(tail satisfiability.NodeID) *Node {
	return &Node{Tail: tail}
}

// RequirementPath is the chain of edges a pathfinder resolution walked to
// satisfy one requirement field, the minimal shape this package needs to
// graft a requirement sub-tree onto a node. Arguments is the requirement
// field's own arguments (e.g. the currency in a @requires(fields:
// "price(currency: \"USD\")")), used to tell apart two requirement
// resolutions of the same field name that need different argument values.
type RequirementPath struct {
	Edges     []satisfiability.EdgeID
	Arguments []supergraph.Argument
}

// Merge grafts a path (the chain of edges a field's best resolution took)
// onto the tree rooted at root, sharing the longest common prefix of edges
// with whatever is already there. Sibling nodes that resolved via the same
// edge off the same parent collapse into one; distinct edges (even to the
// same tail node, e.g. two different fields) stay as distinct children,
// ordered by first insertion. field records the alias/arguments of the
// operation field that produced this merge. requirements, if non-empty,
// attaches requirement sub-trees (grafted the same way) to the node the
// path ends at, keyed by the requirement field name.
func Merge(root *Node, edges []satisfiability.EdgeID, field FieldInfo, requirements map[string][]RequirementPath) *Node {
	cur := root
	for _, edgeID := range edges {
		cur = cur.childFor(edgeID)
	}
	cur.Alias = field.Alias
	cur.Arguments = field.Arguments
	cur.mergeRequirements(requirements)
	return cur
}

func (n *Node) childFor(edgeID satisfiability.EdgeID) *Node {
	for _, c := range n.Children {
		if c.HasEdge && c.EdgeFromParent == edgeID {
			return c
		}
	}
	child := &Node{
		EdgeFromParent: edgeID,
		HasEdge:        true,
	}
	n.Children = append(n.Children, child)
	return child
}

func (n *Node) mergeRequirements(requirements map[string][]RequirementPath) {
	if len(requirements) == 0 {
		return
	}
	if n.Requirements == nil {
		n.Requirements = make(map[string][]*Node)
	}
	for fieldName, paths := range requirements {
		for _, p := range paths {
			reqRoot := n.requirementRootFor(fieldName, p.Arguments)
			cur := reqRoot
			for _, edgeID := range p.Edges {
				cur = cur.childFor(edgeID)
			}
		}
	}
}

// requirementRootFor returns the requirement sub-tree root for fieldName
// that was itself resolved with arguments, creating one if this is the
// first time that particular (fieldName, arguments) pair was requested.
// Two requirement resolutions of the same field name with different
// arguments (e.g. two @requires clauses both needing "price" but at
// different currencies) get distinct roots here, since the edge-identity
// merge rule alone can't tell them apart: a schema-level field-move edge
// doesn't vary per argument value.
func (n *Node) requirementRootFor(fieldName string, arguments []supergraph.Argument) *Node {
	roots := n.Requirements[fieldName]
	for _, r := range roots {
		if supergraph.SameArguments(r.Arguments, arguments) {
			return r
		}
	}
	root := &Node{Arguments: arguments}
	n.Requirements[fieldName] = append(roots, root)
	return root
}

// OrderedChildren returns this node's children in first-insertion order,
// the only tie-break applied between equal-cost siblings.
func (n *Node) OrderedChildren() []*Node {
	out := make([]*Node, len(n.Children))
	copy(out, n.Children)
	return out
}
