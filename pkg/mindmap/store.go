package mindmap

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jholzmann/canopy/pkg/observability"
)

// =============================================================================
// Store - Owned Node Set
// =============================================================================

// Subscriber receives a deep copy of the node set after every mutation.
// Persistence backends register as subscribers so saving is a reaction to
// state changes rather than an inline side effect of the mutation itself.
type Subscriber func(nodes []Node)

// Store owns the flat ordered node set and exposes the mutation operations.
// Every mutation is a pure transform of the prior state followed by a
// synchronous layout pass, so observers never see stale positions or
// heights. All methods are safe for concurrent use; mutations are atomic
// with respect to each other.
type Store struct {
	mu    sync.Mutex
	nodes []Node
	subs  []Subscriber

	// newID is swappable for deterministic tests.
	newID func() string
}

// NewStore creates a store seeded with the given node set.
// The set is swept for orphans and laid out before it becomes visible, so
// a partially written snapshot loads into a consistent forest.
func NewStore(initial []Node) *Store {
	nodes := pruneOrphans(cloneNodes(initial))
	return &Store{
		nodes: Layout(nodes),
		newID: uuid.NewString,
	}
}

// Subscribe registers fn to be called with a snapshot after every mutation.
// Subscribers run outside the store lock, in registration order.
func (s *Store) Subscribe(fn Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// =============================================================================
// Reads
// =============================================================================

// Nodes returns a deep copy of the full node set in insertion order.
func (s *Store) Nodes() []Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneNodes(s.nodes)
}

// Visible returns a deep copy of the currently visible subset.
func (s *Store) Visible() []Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneNodes(Visible(s.nodes))
}

// Get returns the node with the given ID.
func (s *Store) Get(id string) (Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.nodes {
		if n.ID == id {
			return cloneNodes([]Node{n})[0], true
		}
	}
	return Node{}, false
}

// Children returns the direct children of id in layout order.
func (s *Store) Children(id string) []Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := indexByID(s.nodes)
	var out []Node
	for _, childID := range childIndex(s.nodes)[id] {
		out = append(out, s.nodes[idx[childID]])
	}
	return cloneNodes(out)
}

// Len returns the number of nodes in the store.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.nodes)
}

// =============================================================================
// Mutation Operations
// =============================================================================

// AddRoot creates a new root-typed node anchored at pos and relays out.
func (s *Store) AddRoot(title string, pos Position) Node {
	var created Node
	s.apply("add_root", true, func(nodes []Node) []Node {
		next, n := addRoot(nodes, s.newID(), title, pos)
		created = n
		return next
	})
	return created
}

// AddChild creates a node one level below parentID, its type derived from
// the fixed progression, content-minimized unless the spec says otherwise.
// A collapsed parent is implicitly un-collapsed so the child is visible.
// Returns ok=false without mutating anything when the parent is unknown.
func (s *Store) AddChild(parentID string, spec ChildSpec) (Node, bool) {
	var (
		created Node
		ok      bool
	)
	s.apply("add_child", true, func(nodes []Node) []Node {
		next, n, inserted := addChild(nodes, parentID, s.newID(), spec)
		created, ok = n, inserted
		return next
	})
	return created, ok
}

// Delete removes the node and, recursively, its entire descendant subtree.
// Unknown IDs are a silent no-op.
func (s *Store) Delete(id string) {
	s.apply("delete", true, func(nodes []Node) []Node {
		return deleteSubtree(nodes, id)
	})
}

// EditTitle replaces the title of the matching node. Title does not affect
// height, so no relayout is performed. Unknown IDs are a no-op.
func (s *Store) EditTitle(id, title string) {
	s.apply("edit_title", false, func(nodes []Node) []Node {
		next, _ := updateNode(nodes, id, func(n Node) Node {
			n.Title = title
			return n
		})
		return next
	})
}

// ToggleCollapse flips the collapsed flag of the matching node and relays
// out, since the subtree's height contribution appears or disappears.
func (s *Store) ToggleCollapse(id string) {
	s.apply("toggle_collapse", true, func(nodes []Node) []Node {
		next, _ := updateNode(nodes, id, func(n Node) Node {
			n.Collapsed = !n.Collapsed
			return n
		})
		return next
	})
}

// ToggleContent flips the content-minimized flag of the matching node and
// relays out under the changed height rule.
func (s *Store) ToggleContent(id string) {
	s.apply("toggle_content", true, func(nodes []Node) []Node {
		next, _ := updateNode(nodes, id, func(n Node) Node {
			n.ContentMinimized = !n.ContentMinimized
			return n
		})
		return next
	})
}

// Reposition overwrites a root's stored position, propagating through its
// entire subtree on relayout. Non-root nodes derive their position from
// their parent, so repositioning them is a no-op.
func (s *Store) Reposition(id string, pos Position) {
	s.apply("reposition", true, func(nodes []Node) []Node {
		next, _ := updateNode(nodes, id, func(n Node) Node {
			if !n.IsRoot() {
				return n
			}
			n.Position = pos
			return n
		})
		return next
	})
}

// SetLoading sets the transient loading flag. Loading does not affect
// layout, so no relayout is performed.
func (s *Store) SetLoading(id string, loading bool) {
	s.apply("set_loading", false, func(nodes []Node) []Node {
		next, _ := updateNode(nodes, id, func(n Node) Node {
			n.Loading = loading
			return n
		})
		return next
	})
}

// Update applies fn to the matching node and relays out. Identity and
// structural fields (ID, ParentID, Type, Level) are preserved regardless of
// what fn returns. Generation write-backs use this to splice provider
// results into placeholders.
func (s *Store) Update(id string, fn func(Node) Node) bool {
	var ok bool
	s.apply("update", true, func(nodes []Node) []Node {
		next, updated := updateNode(nodes, id, fn)
		ok = updated
		return next
	})
	return ok
}

// Replace swaps in an entirely new node set (snapshot load). The set is
// swept for orphans and laid out before it becomes visible.
func (s *Store) Replace(nodes []Node) {
	s.apply("replace", true, func([]Node) []Node {
		return pruneOrphans(cloneNodes(nodes))
	})
}

// =============================================================================
// Internal
// =============================================================================

// apply runs a pure transform under the store lock, optionally follows it
// with a layout pass, then notifies subscribers outside the lock.
func (s *Store) apply(op string, relayout bool, transform func([]Node) []Node) {
	s.mu.Lock()
	next := transform(s.nodes)
	if relayout {
		start := time.Now()
		next = Layout(next)
		observability.Layout().OnLayout(len(next), time.Since(start))
	}
	s.nodes = next
	observability.Store().OnMutate(op, len(next))

	snapshot := cloneNodes(next)
	subs := slices.Clone(s.subs)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}

// SetIDGenerator overrides node ID generation. Intended for tests that
// need stable IDs.
func (s *Store) SetIDGenerator(fn func() string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.newID = fn
}
