// Package fetchplan lowers a merged query tree into a dependency DAG of
// per-subgraph fetch steps and optimizes it: steps that can run together
// get merged, and a plan whose root is a mutation gets its top-level steps
// linearized into a strict sequence.
package fetchplan

import "github.com/n9te9/hive-query-router/internal/supergraph"

// StepID is a small integer id into FetchGraph, replacing pointer identity
// (spec §9).
type StepID int

// FetchStep is one subgraph request: fetch Output starting from ParentType
// at ResponsePath, using Input as the `representations`/argument selection
// it needs from its parent step (empty for a root step).
type FetchStep struct {
	ID           StepID
	SubgraphID   supergraph.SubgraphId
	ParentType   string
	ResponsePath []string
	Input        supergraph.Selection
	Output       supergraph.Selection

	// ReservedForRequires, when non-nil, marks this step as existing only
	// to satisfy a requirement selection rather than operation output; the
	// serializer emits it under a Flatten feeding the step that required
	// it, not under the plan's visible root.
	ReservedForRequires supergraph.Selection
}

// FetchGraph is the dependency DAG of fetch steps for one operation.
type FetchGraph struct {
	steps    map[StepID]*FetchStep
	children map[StepID][]StepID
	parents  map[StepID][]StepID
	nextID   StepID
}

// New returns an empty fetch graph.
func New() *FetchGraph {
	return &FetchGraph{
		steps:    make(map[StepID]*FetchStep),
		children: make(map[StepID][]StepID),
		parents:  make(map[StepID][]StepID),
	}
}

// AddStep inserts step (its ID is assigned here, any value in step.ID is
// overwritten) and returns the assigned id.
func (g *FetchGraph) AddStep(step FetchStep) StepID {
	id := g.nextID
	g.nextID++
	step.ID = id
	g.steps[id] = &step
	return id
}

// Connect records that child depends on parent completing first (parent's
// output feeds child's input, or child simply must run after parent).
func (g *FetchGraph) Connect(parent, child StepID) {
	g.children[parent] = append(g.children[parent], child)
	g.parents[child] = append(g.parents[child], parent)
}

func (g *FetchGraph) disconnect(parent, child StepID) {
	g.children[parent] = removeID(g.children[parent], child)
	g.parents[child] = removeID(g.parents[child], parent)
}

func removeID(ids []StepID, target StepID) []StepID {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

// Step returns the step for id, or nil if it has been removed.
func (g *FetchGraph) Step(id StepID) *FetchStep { return g.steps[id] }

// Children returns id's direct dependents.
func (g *FetchGraph) Children(id StepID) []StepID { return append([]StepID(nil), g.children[id]...) }

// Parents returns id's direct dependencies.
func (g *FetchGraph) Parents(id StepID) []StepID { return append([]StepID(nil), g.parents[id]...) }

// Steps returns every live step id, in insertion order.
func (g *FetchGraph) Steps() []StepID {
	out := make([]StepID, 0, len(g.steps))
	for id := StepID(0); id < g.nextID; id++ {
		if _, ok := g.steps[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

func (g *FetchGraph) removeStep(id StepID) {
	delete(g.steps, id)
	delete(g.children, id)
	delete(g.parents, id)
	for p, children := range g.children {
		g.children[p] = removeID(children, id)
	}
	for c, parents := range g.parents {
		g.parents[c] = removeID(parents, id)
	}
}

func (g *FetchGraph) bfs(root StepID) []StepID {
	if _, ok := g.steps[root]; !ok {
		return nil
	}
	var order []StepID
	visited := map[StepID]bool{root: true}
	queue := []StepID{root}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		order = append(order, cur)
		for _, child := range g.children[cur] {
			if !visited[child] {
				visited[child] = true
				queue = append(queue, child)
			}
		}
	}
	return order
}
