// Package navtree holds the lazily-expanded tree of navigation links.
//
// The tree is persistent: a toggle produces a new root that shares every
// unrelated subtree by identity with the old one, so two snapshots never
// observe each other's mutations.
package navtree

import "stanza/internal/catalog"

// State is a node's position in the expansion lifecycle
type State int

const (
	// StateUnprobed means the node has never been fetched
	StateUnprobed State = iota
	// StateLoading means a fetch for this node is in flight
	StateLoading
	// StateExpanded means children are cached and shown
	StateExpanded
	// StateCollapsed means children are cached but hidden
	StateCollapsed
	// StateLeaf means a probe returned zero children; terminal, the UI
	// must stop offering an expand affordance
	StateLeaf
	// StateFailed means the probe failed; terminal but distinguishable
	// from a genuinely childless node for diagnostics
	StateFailed
)

// String returns a human-readable representation of the state
func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateExpanded:
		return "expanded"
	case StateCollapsed:
		return "collapsed"
	case StateLeaf:
		return "leaf"
	case StateFailed:
		return "failed"
	default:
		return "unprobed"
	}
}

// Node is one navigation link with its expansion state. Nodes are never
// mutated after construction; all updates clone the path from root.
type Node struct {
	Link     catalog.NavigationLink
	State    State
	Children []*Node // nil until a probe succeeds
}

// CanExpand reports whether the UI should offer an expand affordance
func (n *Node) CanExpand() bool {
	if n.Link.Rel == catalog.RelCatalogRoot {
		// A link to another catalog's root is always terminal
		return false
	}
	switch n.State {
	case StateUnprobed, StateCollapsed, StateExpanded:
		return true
	default:
		return false
	}
}

// Tree is an immutable snapshot of the navigation tree
type Tree struct {
	roots []*Node
}

// New builds a tree from a feed's navigation links
func New(links []catalog.NavigationLink) *Tree {
	roots := make([]*Node, 0, len(links))
	for _, link := range links {
		roots = append(roots, newNode(link))
	}
	return &Tree{roots: roots}
}

func newNode(link catalog.NavigationLink) *Node {
	state := StateUnprobed
	if link.Rel == catalog.RelCatalogRoot {
		state = StateLeaf
	}
	return &Node{Link: link, State: state}
}

// Roots returns the top-level nodes
func (t *Tree) Roots() []*Node {
	return t.roots
}

// At returns the node at path, or nil for an invalid path. Each path
// element is a child index, starting at the root level.
func (t *Tree) At(path ...int) *Node {
	nodes := t.roots
	var node *Node
	for _, i := range path {
		if i < 0 || i >= len(nodes) {
			return nil
		}
		node = nodes[i]
		nodes = node.Children
	}
	return node
}

// Toggle flips the expansion state of the node at path. The returned bool
// reports whether the caller must now fetch the node's URL and feed the
// outcome to Apply; a toggle on a Loading node is an idempotent no-op.
func (t *Tree) Toggle(path ...int) (*Tree, bool) {
	node := t.At(path...)
	if node == nil {
		return t, false
	}

	switch node.State {
	case StateExpanded:
		return t.patch(path, func(n *Node) {
			n.State = StateCollapsed
		}), false
	case StateCollapsed:
		// Children are already cached; no refetch
		return t.patch(path, func(n *Node) {
			n.State = StateExpanded
		}), false
	case StateUnprobed:
		return t.patch(path, func(n *Node) {
			n.State = StateLoading
		}), true
	default:
		// Loading, Leaf, Failed: nothing to do
		return t, false
	}
}

// Apply records the outcome of a probe started by Toggle. Zero children
// transitions the node to the terminal Leaf state; a failure to Failed.
func (t *Tree) Apply(path []int, children []catalog.NavigationLink, failed bool) *Tree {
	node := t.At(path...)
	if node == nil || node.State != StateLoading {
		return t
	}

	return t.patch(path, func(n *Node) {
		switch {
		case failed:
			n.State = StateFailed
		case len(children) == 0:
			n.State = StateLeaf
		default:
			n.State = StateExpanded
			n.Children = make([]*Node, 0, len(children))
			for _, link := range children {
				n.Children = append(n.Children, newNode(link))
			}
		}
	})
}

// patch clones exactly the nodes on path, applies update to the last one,
// and returns a new tree sharing all other nodes by identity.
func (t *Tree) patch(path []int, update func(*Node)) *Tree {
	if len(path) == 0 {
		return t
	}

	newRoots := append([]*Node(nil), t.roots...)
	level := newRoots
	for depth, i := range path {
		clone := *level[i]
		if depth == len(path)-1 {
			update(&clone)
			level[i] = &clone
			break
		}
		clone.Children = append([]*Node(nil), clone.Children...)
		level[i] = &clone
		level = clone.Children
	}
	return &Tree{roots: newRoots}
}

// Visible is one row of the flattened tree for rendering
type Visible struct {
	Node  *Node
	Depth int
	Path  []int
}

// Flatten walks the tree in display order, descending only into expanded
// nodes.
func (t *Tree) Flatten() []Visible {
	var out []Visible
	var walk func(nodes []*Node, depth int, prefix []int)
	walk = func(nodes []*Node, depth int, prefix []int) {
		for i, node := range nodes {
			path := append(append([]int(nil), prefix...), i)
			out = append(out, Visible{Node: node, Depth: depth, Path: path})
			if node.State == StateExpanded {
				walk(node.Children, depth+1, path)
			}
		}
	}
	walk(t.roots, 0, nil)
	return out
}
