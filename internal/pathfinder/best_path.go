package pathfinder

import "github.com/n9te9/hive-query-router/internal/satisfiability"

// FindBestPaths narrows candidates to those sharing the lowest cost,
// discarding everything strictly more expensive. Used for leaf requirement
// fields, where only the cheapest resolution(s) matter.
func FindBestPaths(candidates []*OperationPath) []*OperationPath {
	var best []*OperationPath
	bestCost := 0
	haveBest := false

	for _, p := range candidates {
		switch {
		case !haveBest:
			best = []*OperationPath{p}
			bestCost = p.Cost
			haveBest = true
		case p.Cost == bestCost:
			best = append(best, p)
		case p.Cost < bestCost:
			best = []*OperationPath{p}
			bestCost = p.Cost
		}
	}
	return best
}

// BestPathTracker keeps, per subgraph reached, only the equal-cost cheapest
// paths landing there. An indirect search that jumps into the same
// subgraph by two different routes should only keep going from the
// cheapest of them.
type BestPathTracker struct {
	graph    *satisfiability.Graph
	bySubgraph map[supergraphID][]*OperationPath
	costBySubgraph map[supergraphID]int
}

type supergraphID = string

// NewBestPathTracker creates a tracker scoped to one satisfiability graph.
func NewBestPathTracker(graph *satisfiability.Graph) *BestPathTracker {
	return &BestPathTracker{
		graph:          graph,
		bySubgraph:     make(map[supergraphID][]*OperationPath),
		costBySubgraph: make(map[supergraphID]int),
	}
}

// Add records path, keyed by the subgraph its tail node belongs to.
func (t *BestPathTracker) Add(path *OperationPath) {
	key := string(t.graph.Node(path.Tail).GraphID)

	existingCost, ok := t.costBySubgraph[key]
	switch {
	case !ok:
		t.costBySubgraph[key] = path.Cost
		t.bySubgraph[key] = []*OperationPath{path}
	case path.Cost < existingCost:
		t.costBySubgraph[key] = path.Cost
		t.bySubgraph[key] = []*OperationPath{path}
	case path.Cost == existingCost:
		t.bySubgraph[key] = append(t.bySubgraph[key], path)
	}
}

// BestPaths flattens the tracked per-subgraph winners into one slice.
func (t *BestPathTracker) BestPaths() []*OperationPath {
	var out []*OperationPath
	for _, paths := range t.bySubgraph {
		out = append(out, paths...)
	}
	return out
}
