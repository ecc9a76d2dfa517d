package mindmap

// =============================================================================
// Layout Constants - Single Source of Truth
// =============================================================================

// Height rules in layout units, keyed by node type and content state.
const (
	// HeightCompact applies to any content-minimized node regardless of type.
	HeightCompact = 80.0

	// HeightRoot is the fixed height of a topic root card.
	HeightRoot = 120.0

	// HeightChapter applies to chapters carrying a brief summary.
	HeightChapter = 160.0

	// HeightSubchapter applies to subchapters carrying learning points.
	HeightSubchapter = 220.0

	// HeightDetail is the height of a full detail explanation card.
	HeightDetail = 400.0

	// HeightDefault applies to expanded nodes with no content to show.
	HeightDefault = 100.0
)

// Spacing between related nodes.
const (
	// ChildIndent is the horizontal offset of a child relative to its parent.
	ChildIndent = 60.0

	// VerticalGap separates a node from the subtree laid out below it.
	VerticalGap = 30.0
)

// =============================================================================
// Layout Engine
// =============================================================================

// Layout recomputes Position and Height for every node reachable from a
// root, passing all other fields through unchanged. It is a pure,
// deterministic function of the tree shape, each node's Collapsed /
// ContentMinimized / Type / Data fields, and each root's stored Position.
//
// Each root tree is laid out independently, anchored at the root's stored
// position. Children stack top-to-bottom in insertion order, indented by
// ChildIndent, each separated by VerticalGap; a parent makes room for its
// entire subtree through the recursive footprint accumulation (see
// subtreeFootprints). Collapsed nodes contribute only their own height and
// their descendants keep whatever position and height they last had.
//
// Nodes referencing a non-existent parent are skipped and pass through
// unchanged; callers must hand Layout a self-consistent set.
func Layout(nodes []Node) []Node {
	out := make([]Node, len(nodes))
	copy(out, nodes)

	idx := indexByID(out)
	children := childIndex(out)
	footprints := subtreeFootprints(out, idx, children)

	// Pre-order walk per root with an explicit stack. Positions are
	// assigned when the parent is processed, so stack order only affects
	// traversal order, not the result.
	var stack []string
	for _, rootID := range roots(out) {
		// Roots keep their stored position as the anchor.
		root := &out[idx[rootID]]
		root.Height = nodeHeight(*root)
		stack = append(stack[:0], rootID)

		for len(stack) > 0 {
			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			n := &out[idx[id]]
			if n.Collapsed {
				continue
			}

			cursor := n.Position.Y + n.Height + VerticalGap
			for _, childID := range children[id] {
				c := &out[idx[childID]]
				c.Height = nodeHeight(*c)
				c.Position = Position{X: n.Position.X + ChildIndent, Y: cursor}
				cursor += footprints[childID] + VerticalGap
				stack = append(stack, childID)
			}
		}
	}

	return out
}

// nodeHeight applies the fixed height rule table.
func nodeHeight(n Node) float64 {
	if n.ContentMinimized {
		return HeightCompact
	}
	switch {
	case n.Type == TypeRoot:
		return HeightRoot
	case n.Type == TypeDetail:
		return HeightDetail
	case n.Type == TypeSubchapter && len(n.Data.LearningPoints) > 0:
		return HeightSubchapter
	case n.Type == TypeChapter && n.Data.Summary != "":
		return HeightChapter
	default:
		return HeightDefault
	}
}

// =============================================================================
// Subtree Footprints
// =============================================================================

// subtreeFootprints computes the total vertical footprint of every subtree:
//
//	collapsed node:  own height
//	expanded node:   own height + gap + Σ (child footprint + gap)
//
// This recurrence is what lets a parent make room for arbitrarily deep,
// variable-height descendants without overlap. The traversal is an explicit
// post-order stack over the adjacency index, so very deep trees cannot
// exhaust call-stack depth.
func subtreeFootprints(nodes []Node, idx map[string]int, children map[string][]string) map[string]float64 {
	footprints := make(map[string]float64, len(nodes))

	type frame struct {
		id       string
		expanded bool // children already pushed
	}

	var stack []frame
	for _, rootID := range roots(nodes) {
		stack = append(stack[:0], frame{id: rootID})

		for len(stack) > 0 {
			f := stack[len(stack)-1]
			n := nodes[idx[f.id]]

			if n.Collapsed {
				footprints[f.id] = nodeHeight(n)
				stack = stack[:len(stack)-1]
				continue
			}

			if !f.expanded {
				stack[len(stack)-1].expanded = true
				for _, childID := range children[f.id] {
					stack = append(stack, frame{id: childID})
				}
				continue
			}

			total := nodeHeight(n) + VerticalGap
			for _, childID := range children[f.id] {
				total += footprints[childID] + VerticalGap
			}
			footprints[f.id] = total
			stack = stack[:len(stack)-1]
		}
	}

	return footprints
}
