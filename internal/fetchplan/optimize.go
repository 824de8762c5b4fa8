package fetchplan

import (
	"sort"
	"strconv"
)

// Optimize runs the fixed four-pass optimization over fg, in the order that
// matters: steps redundant after lowering are pruned first, then a child
// that only ever serves one parent collapses into it, then same-subgraph
// siblings at the same response path fold together, and finally — if the
// operation is a mutation — the remaining top-level steps are forced into a
// strict sequence instead of running in parallel, since mutation side
// effects must observe each other in field order.
func Optimize(fg *FetchGraph, isMutation bool) {
	deduplicateAndPrune(fg)
	mergeChildrenWithParents(fg)
	mergeSiblings(fg)
	if isMutation {
		turnMutationsIntoSequence(fg)
	}
}

// deduplicateAndPrune removes steps left with nothing to fetch (no output
// fields and nobody depends on them), collapses steps that ended up
// identical — same subgraph, parent type, response path and input — by
// merging their outputs and re-parenting their children onto the survivor,
// then removes any direct edge A→C that's also reachable via some longer
// path A→B→…→C: the direct edge buys nothing once the longer path already
// forces C to wait for A's data.
func deduplicateAndPrune(fg *FetchGraph) {
	pruneEmptyLeaves(fg)
	pruneUnreachable(fg)

	seen := make(map[string]StepID)
	for _, id := range fg.Steps() {
		step := fg.Step(id)
		if step == nil {
			continue
		}
		key := dedupeKey(step) + "|" + parentSetKey(fg, id)
		existing, ok := seen[key]
		if !ok {
			seen[key] = id
			continue
		}
		mergeStepInto(fg, existing, id)
	}

	reduceTransitiveEdges(fg)
}

// reduceTransitiveEdges drops every direct edge A→C for which C is also
// reachable from A through some other parent.
func reduceTransitiveEdges(fg *FetchGraph) {
	for _, c := range fg.Steps() {
		for _, a := range fg.Parents(c) {
			if reachableViaOtherParent(fg, c, a) {
				fg.disconnect(a, c)
			}
		}
	}
}

// reachableViaOtherParent walks c's incoming edges backward, skipping the
// direct a→c edge at the first hop, and reports whether a is still
// reachable that way — i.e. whether some path A→B→…→C exists besides the
// direct edge being tested.
func reachableViaOtherParent(fg *FetchGraph, c, a StepID) bool {
	visited := map[StepID]bool{c: true}
	queue := []StepID{c}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, p := range fg.Parents(cur) {
			if cur == c && p == a {
				continue
			}
			if p == a {
				return true
			}
			if !visited[p] {
				visited[p] = true
				queue = append(queue, p)
			}
		}
	}
	return false
}

func parentSetKey(fg *FetchGraph, id StepID) string {
	parents := fg.Parents(id)
	sort.Slice(parents, func(i, j int) bool { return parents[i] < parents[j] })
	out := ""
	for _, p := range parents {
		out += strconv.Itoa(int(p)) + ","
	}
	return out
}

func pruneEmptyLeaves(fg *FetchGraph) {
	for {
		removed := false
		for _, id := range fg.Steps() {
			step := fg.Step(id)
			if step == nil {
				continue
			}
			if len(step.Output) > 0 || len(step.ReservedForRequires) > 0 {
				continue
			}
			if len(fg.Children(id)) > 0 {
				continue
			}
			for _, p := range fg.Parents(id) {
				fg.disconnect(p, id)
			}
			fg.removeStep(id)
			removed = true
		}
		if !removed {
			return
		}
	}
}

// pruneUnreachable drops steps left orphaned by earlier merges: anything
// not reachable by walking children from a root step (a step with no
// parents) can never actually run.
func pruneUnreachable(fg *FetchGraph) {
	reachable := make(map[StepID]bool)
	for _, id := range fg.Steps() {
		if len(fg.Parents(id)) == 0 {
			for _, r := range fg.bfs(id) {
				reachable[r] = true
			}
		}
	}
	for _, id := range fg.Steps() {
		if !reachable[id] {
			fg.removeStep(id)
		}
	}
}

func dedupeKey(step *FetchStep) string {
	return string(step.SubgraphID) + "|" + step.ParentType + "|" + pathKey(step.ResponsePath) + "|" + step.Input.String()
}

func pathKey(path []string) string {
	out := ""
	for _, p := range path {
		out += p + "."
	}
	return out
}

// mergeStepInto folds src into dst: dst's Output absorbs src's, every edge
// touching src is redirected to dst, and src is removed.
func mergeStepInto(fg *FetchGraph, dst, src StepID) {
	if dst == src {
		return
	}
	dstStep, srcStep := fg.Step(dst), fg.Step(src)
	if dstStep == nil || srcStep == nil {
		return
	}
	dstStep.Output = mergeSelections(dstStep.Output, srcStep.Output)

	for _, p := range fg.Parents(src) {
		if p != dst {
			fg.Connect(p, dst)
		}
		fg.disconnect(p, src)
	}
	for _, c := range fg.Children(src) {
		fg.disconnect(src, c)
		fg.Connect(dst, c)
	}
	fg.removeStep(src)
}

// mergeChildrenWithParents collapses a child step into its parent whenever
// the parent is the child's only dependency and both run against the same
// subgraph at the same response path: the child adds nothing a single
// request to that subgraph couldn't already carry.
func mergeChildrenWithParents(fg *FetchGraph) {
	for {
		merged := false
		for _, id := range fg.Steps() {
			step := fg.Step(id)
			if step == nil {
				continue
			}
			parents := fg.Parents(id)
			if len(parents) != 1 {
				continue
			}
			parent := parents[0]
			if !canMerge(fg, parent, id) {
				continue
			}
			mergeStepInto(fg, parent, id)
			merged = true
		}
		if !merged {
			return
		}
	}
}

// mergeSiblings folds same-subgraph, same-response-path steps that share a
// parent set into one request, so two fields that both needed an entity
// jump to the same subgraph and type don't pay for it twice.
func mergeSiblings(fg *FetchGraph) {
	for {
		merged := false
		for _, id := range fg.Steps() {
			step := fg.Step(id)
			if step == nil {
				continue
			}
			for _, parent := range fg.Parents(id) {
				for _, sibling := range fg.Children(parent) {
					if sibling <= id {
						continue
					}
					if !sameParentSet(fg, id, sibling) {
						continue
					}
					if !canMerge(fg, id, sibling) {
						continue
					}
					mergeStepInto(fg, id, sibling)
					merged = true
				}
			}
		}
		if merged {
			continue
		}
		return
	}
}

func sameParentSet(fg *FetchGraph, a, b StepID) bool {
	pa, pb := fg.Parents(a), fg.Parents(b)
	if len(pa) != len(pb) {
		return false
	}
	sort.Slice(pa, func(i, j int) bool { return pa[i] < pa[j] })
	sort.Slice(pb, func(i, j int) bool { return pb[i] < pb[j] })
	for i := range pa {
		if pa[i] != pb[i] {
			return false
		}
	}
	return true
}

// canMerge reports whether b can be folded into a: same subgraph request,
// same type the request starts from, same place in the response, and b must
// not be reserved to satisfy a requirement a itself depends on (merging
// would make a depend on its own output).
func canMerge(fg *FetchGraph, a, b StepID) bool {
	if a == b {
		return false
	}
	sa, sb := fg.Step(a), fg.Step(b)
	if sa == nil || sb == nil {
		return false
	}
	if sa.SubgraphID != sb.SubgraphID || sa.ParentType != sb.ParentType {
		return false
	}
	if pathKey(sa.ResponsePath) != pathKey(sb.ResponsePath) {
		return false
	}
	return !dependsOn(fg, a, b)
}

func dependsOn(fg *FetchGraph, step, on StepID) bool {
	for _, p := range fg.Parents(step) {
		if p == on {
			return true
		}
		if dependsOn(fg, p, on) {
			return true
		}
	}
	return false
}

// turnMutationsIntoSequence chains the fetch graph's root steps (those with
// no parents) one after another in their existing order, so the serializer
// emits a Sequence instead of a Parallel at the top level.
func turnMutationsIntoSequence(fg *FetchGraph) {
	var roots []StepID
	for _, id := range fg.Steps() {
		if len(fg.Parents(id)) == 0 {
			roots = append(roots, id)
		}
	}
	for i := 1; i < len(roots); i++ {
		fg.Connect(roots[i-1], roots[i])
	}
}
