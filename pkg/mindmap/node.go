// Package mindmap implements the canopy knowledge tree: a forest of
// variable-height nodes (topic roots, chapters, subchapters, detail points)
// together with the layout engine and visibility resolver that position it
// in 2D space.
//
// The package is organized around three pieces:
//
//   - Node and the flat ordered node set, the single source of truth
//     ([Store] owns it and exposes the mutation operations)
//   - [Layout], a pure function recomputing position and height for the
//     whole set after every structural change
//   - [Visible], a pure function computing the subset reachable from a
//     root without crossing a collapsed node
//
// Nodes never hold child pointers. Parent/child relationships are resolved
// through an adjacency index built from ParentID fields, so the structure
// stays serialization-friendly and cycle-free by construction.
package mindmap

// =============================================================================
// Node Types
// =============================================================================

// NodeType identifies a node's place in the fixed content hierarchy.
type NodeType string

// The four node types. A node's type is fixed at creation from its
// parent's type and never changes.
const (
	TypeRoot       NodeType = "root"
	TypeChapter    NodeType = "chapter"
	TypeSubchapter NodeType = "subchapter"
	TypeDetail     NodeType = "detail"
)

// Child returns the type assigned to children of this type.
// The progression is root → chapter → subchapter → detail and does not
// continue past detail: children of detail nodes are detail nodes too.
func (t NodeType) Child() NodeType {
	switch t {
	case TypeRoot:
		return TypeChapter
	case TypeChapter:
		return TypeSubchapter
	case TypeSubchapter:
		return TypeDetail
	default:
		return TypeDetail
	}
}

// Terminal reports whether the type offers no further generation step.
func (t NodeType) Terminal() bool { return t == TypeDetail }

// =============================================================================
// Position
// =============================================================================

// Position is a 2D coordinate in layout units.
// It is derived by the layout engine for every node except roots, whose
// stored position seeds their subtree (set by AddRoot or Reposition).
type Position struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// =============================================================================
// Payload
// =============================================================================

// Payload carries the type-dependent content of a node.
// Chapters use Summary, subchapters use LearningPoints, detail nodes use
// Explanation and CorePoints. Unused fields stay empty.
type Payload struct {
	Summary        string   `json:"summary,omitempty" bson:"summary,omitempty"`
	LearningPoints []string `json:"learning_points,omitempty" bson:"learning_points,omitempty"`
	Explanation    string   `json:"explanation,omitempty" bson:"explanation,omitempty"`
	CorePoints     []string `json:"core_points,omitempty" bson:"core_points,omitempty"`
}

// Empty reports whether the payload carries no content at all.
func (p Payload) Empty() bool {
	return p.Summary == "" && p.Explanation == "" &&
		len(p.LearningPoints) == 0 && len(p.CorePoints) == 0
}

// =============================================================================
// Node
// =============================================================================

// Node is a single element of the knowledge forest.
//
// Position and Height are derived caches owned by the layout engine; every
// mutation operation recomputes them before the new state becomes visible.
// The one exception is a root's Position, which doubles as the manual-drag
// seed anchoring its subtree.
type Node struct {
	ID       string   `json:"id" bson:"id"`
	ParentID string   `json:"parent_id,omitempty" bson:"parent_id,omitempty"`
	Type     NodeType `json:"type" bson:"type"`
	Title    string   `json:"title" bson:"title"`

	// Level is the depth from the node's root: 0 for roots, parent+1 otherwise.
	Level int `json:"level" bson:"level"`

	Position Position `json:"position" bson:"position"`
	Height   float64  `json:"height" bson:"height"`

	Collapsed        bool `json:"collapsed,omitempty" bson:"collapsed,omitempty"`
	ContentMinimized bool `json:"content_minimized,omitempty" bson:"content_minimized,omitempty"`

	// Loading marks an in-flight generation call targeting this node.
	// It is transient UI state and never survives a failed call.
	Loading bool `json:"loading,omitempty" bson:"loading,omitempty"`

	Data Payload `json:"data,omitempty" bson:"data,omitempty"`
}

// IsRoot reports whether the node anchors its own tree.
// A node with no parent is a root regardless of its declared type.
func (n Node) IsRoot() bool { return n.Type == TypeRoot || n.ParentID == "" }

// =============================================================================
// Adjacency Index
// =============================================================================

// childIndex builds the parent → ordered child IDs adjacency map for a node
// set. Child order follows insertion order of the backing slice, which is
// also the top-to-bottom layout order. Nodes whose parent ID does not
// resolve to an existing node are omitted entirely.
func childIndex(nodes []Node) map[string][]string {
	exists := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		exists[n.ID] = true
	}
	children := make(map[string][]string)
	for _, n := range nodes {
		if n.IsRoot() {
			continue
		}
		if !exists[n.ParentID] {
			continue
		}
		children[n.ParentID] = append(children[n.ParentID], n.ID)
	}
	return children
}

// roots returns the IDs of all root nodes in insertion order.
func roots(nodes []Node) []string {
	var out []string
	for _, n := range nodes {
		if n.IsRoot() {
			out = append(out, n.ID)
		}
	}
	return out
}

// indexByID maps node ID to its slice index.
func indexByID(nodes []Node) map[string]int {
	idx := make(map[string]int, len(nodes))
	for i, n := range nodes {
		idx[n.ID] = i
	}
	return idx
}
