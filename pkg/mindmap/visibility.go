package mindmap

// =============================================================================
// Visibility Resolver
// =============================================================================

// Visible returns the subset of nodes currently visible in the view: those
// reachable from some root by traversing only through non-collapsed
// ancestors. Roots are always visible. A node behind a collapsed ancestor
// is excluded entirely — absent from both the rendered set and connector
// drawing — although it still exists in the store with all its state.
//
// The result preserves the insertion order of the input set.
func Visible(nodes []Node) []Node {
	visible := VisibleIDs(nodes)
	out := make([]Node, 0, len(visible))
	for _, n := range nodes {
		if visible[n.ID] {
			out = append(out, n)
		}
	}
	return out
}

// VisibleIDs computes the visible set as an ID lookup.
// The traversal is breadth-first, seeded with all roots: every dequeued
// visible node that is not collapsed enqueues its direct children.
func VisibleIDs(nodes []Node) map[string]bool {
	idx := indexByID(nodes)
	children := childIndex(nodes)

	visible := make(map[string]bool)
	queue := roots(nodes)
	for _, id := range queue {
		visible[id] = true
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		if nodes[idx[id]].Collapsed {
			continue
		}
		for _, childID := range children[id] {
			if !visible[childID] {
				visible[childID] = true
				queue = append(queue, childID)
			}
		}
	}

	return visible
}
