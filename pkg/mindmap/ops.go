package mindmap

import "slices"

// This file holds the pure state transforms behind the Store's mutation
// operations. Each transform maps a prior node set to a new one without
// touching its input, so interleaving independent operations (a user action
// firing while a generation batch is mid-flight) can never observe a
// half-applied state.

// =============================================================================
// Child Specification
// =============================================================================

// ChildSpec describes a node to insert under a parent.
// The zero value produces a content-minimized, expanded, idle child with an
// empty payload, which is the default for manually added nodes.
type ChildSpec struct {
	Title string
	Data  Payload

	// Collapsed inserts the child with its (future) descendants hidden.
	Collapsed bool

	// Loading marks the child as a generation placeholder.
	Loading bool

	// FullHeight inserts the child with its body content shown instead of
	// the default compact rendering.
	FullHeight bool
}

// =============================================================================
// Transforms
// =============================================================================

// addRoot appends a new root-typed node anchored at pos.
func addRoot(nodes []Node, id, title string, pos Position) ([]Node, Node) {
	n := Node{
		ID:       id,
		Type:     TypeRoot,
		Title:    title,
		Level:    0,
		Position: pos,
	}
	return append(slices.Clone(nodes), n), n
}

// addChild appends a new node one level below parentID, its type derived
// from the parent's type progression. If the parent was collapsed it is
// un-collapsed so the new child becomes visible. Returns ok=false and the
// input set unchanged when the parent does not exist.
func addChild(nodes []Node, parentID, id string, spec ChildSpec) ([]Node, Node, bool) {
	idx := indexByID(nodes)
	pi, ok := idx[parentID]
	if !ok {
		return nodes, Node{}, false
	}

	out := slices.Clone(nodes)
	parent := &out[pi]
	parent.Collapsed = false

	n := Node{
		ID:               id,
		ParentID:         parentID,
		Type:             parent.Type.Child(),
		Title:            spec.Title,
		Level:            parent.Level + 1,
		Collapsed:        spec.Collapsed,
		ContentMinimized: !spec.FullHeight,
		Loading:          spec.Loading,
		Data:             spec.Data,
	}
	return append(out, n), n, true
}

// deleteSubtree removes the node and its entire descendant subtree.
// Unknown IDs leave the set unchanged.
func deleteSubtree(nodes []Node, id string) []Node {
	idx := indexByID(nodes)
	if _, ok := idx[id]; !ok {
		return nodes
	}

	children := childIndex(nodes)
	doomed := map[string]bool{id: true}
	stack := []string{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, childID := range children[cur] {
			if !doomed[childID] {
				doomed[childID] = true
				stack = append(stack, childID)
			}
		}
	}

	out := make([]Node, 0, len(nodes)-len(doomed))
	for _, n := range nodes {
		if !doomed[n.ID] {
			out = append(out, n)
		}
	}
	return out
}

// updateNode applies fn to the node with the given ID, preserving identity
// and structural fields. Unknown IDs leave the set unchanged.
func updateNode(nodes []Node, id string, fn func(Node) Node) ([]Node, bool) {
	idx := indexByID(nodes)
	i, ok := idx[id]
	if !ok {
		return nodes, false
	}

	out := slices.Clone(nodes)
	prev := out[i]
	next := fn(prev)
	// Identity and tree structure are not updatable through this path.
	next.ID = prev.ID
	next.ParentID = prev.ParentID
	next.Type = prev.Type
	next.Level = prev.Level
	out[i] = next
	return out, true
}

// pruneOrphans removes non-root nodes whose parent chain does not reach an
// existing root. Persisted sets are swept on load so a partially written
// snapshot can never resurrect dangling children.
func pruneOrphans(nodes []Node) []Node {
	idx := indexByID(nodes)
	children := childIndex(nodes)

	alive := make(map[string]bool, len(nodes))
	stack := roots(nodes)
	for _, id := range stack {
		alive[id] = true
	}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, childID := range children[cur] {
			if !alive[childID] {
				alive[childID] = true
				stack = append(stack, childID)
			}
		}
	}

	if len(alive) == len(idx) {
		return nodes
	}
	out := make([]Node, 0, len(alive))
	for _, n := range nodes {
		if alive[n.ID] {
			out = append(out, n)
		}
	}
	return out
}

// cloneNodes deep-copies a node set, including payload slices, so snapshots
// handed to subscribers can outlive the next mutation.
func cloneNodes(nodes []Node) []Node {
	out := slices.Clone(nodes)
	for i := range out {
		out[i].Data.LearningPoints = slices.Clone(out[i].Data.LearningPoints)
		out[i].Data.CorePoints = slices.Clone(out[i].Data.CorePoints)
	}
	return out
}
