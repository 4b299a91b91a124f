// Package tree provides an arena-backed syntax tree addressed by integer
// handles, with precomputed content and structure hashes for constant-time
// subtree comparisons.
package tree

import (
	"fmt"
	"strings"
)

// ID is a handle to a node inside a Tree.
type ID int32

// Nil is the handle of a missing node.
const Nil ID = -1

// Valid reports whether the handle points at a node.
func (id ID) Valid() bool { return id >= 0 }

type node struct {
	typ      string
	label    string
	pos      int
	length   int
	parent   ID
	children []ID
	hash     uint64
	shape    uint64
	size     int
	height   int
	depth    int
}

// Tree is an immutable syntax tree. Nodes are stored in preorder-compatible
// order: a parent always has a smaller handle than its children.
type Tree struct {
	nodes []node
}

// Root returns the root handle, or Nil for an empty tree.
func (t *Tree) Root() ID {
	if t == nil || len(t.nodes) == 0 {
		return Nil
	}

	return 0
}

// Len returns the number of nodes.
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}

	return len(t.nodes)
}

// Contains reports whether id addresses a node of this tree.
func (t *Tree) Contains(id ID) bool {
	return t != nil && id >= 0 && int(id) < len(t.nodes)
}

// Type returns the node type tag.
func (t *Tree) Type(id ID) string { return t.nodes[id].typ }

// Label returns the node label. Internal nodes usually have none.
func (t *Tree) Label(id ID) string { return t.nodes[id].label }

// Pos returns the start byte offset of the node.
func (t *Tree) Pos(id ID) int { return t.nodes[id].pos }

// Length returns the byte length of the node span.
func (t *Tree) Length(id ID) int { return t.nodes[id].length }

// End returns the end byte offset (exclusive) of the node.
func (t *Tree) End(id ID) int { return t.nodes[id].pos + t.nodes[id].length }

// Parent returns the parent handle, or Nil for the root.
func (t *Tree) Parent(id ID) ID { return t.nodes[id].parent }

// Children returns the ordered child handles. The slice must not be modified.
func (t *Tree) Children(id ID) []ID { return t.nodes[id].children }

// ChildIndex returns the position of id among its siblings, or -1 for the root.
func (t *Tree) ChildIndex(id ID) int {
	parent := t.nodes[id].parent
	if parent == Nil {
		return -1
	}

	for i, c := range t.nodes[parent].children {
		if c == id {
			return i
		}
	}

	return -1
}

// IsLeaf reports whether the node has no children.
func (t *Tree) IsLeaf(id ID) bool { return len(t.nodes[id].children) == 0 }

// Hash returns the content hash covering type, label and all descendants.
func (t *Tree) Hash(id ID) uint64 { return t.nodes[id].hash }

// StructureHash returns the hash covering types of the subtree only.
func (t *Tree) StructureHash(id ID) uint64 { return t.nodes[id].shape }

// Size returns the number of nodes in the subtree rooted at id.
func (t *Tree) Size(id ID) int { return t.nodes[id].size }

// Height returns the height of the subtree; leaves have height 1.
func (t *Tree) Height(id ID) int { return t.nodes[id].height }

// Depth returns the distance from the root.
func (t *Tree) Depth(id ID) int { return t.nodes[id].depth }

// IsIsomorphic reports whether the subtree at a in t and the subtree at b in
// other are identical in structure and content.
func (t *Tree) IsIsomorphic(a ID, other *Tree, b ID) bool {
	na, nb := &t.nodes[a], &other.nodes[b]

	return na.hash == nb.hash && na.size == nb.size
}

// IsIsoStructural reports whether the two subtrees have the same shape,
// ignoring labels.
func (t *Tree) IsIsoStructural(a ID, other *Tree, b ID) bool {
	na, nb := &t.nodes[a], &other.nodes[b]

	return na.shape == nb.shape && na.size == nb.size
}

// Preorder returns the subtree rooted at id in preorder.
func (t *Tree) Preorder(id ID) []ID {
	out := make([]ID, 0, t.nodes[id].size)
	stack := []ID{id}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, cur)

		children := t.nodes[cur].children
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}

	return out
}

// Postorder returns the subtree rooted at id in postorder.
func (t *Tree) Postorder(id ID) []ID {
	out := make([]ID, 0, t.nodes[id].size)

	var walk func(ID)

	walk = func(cur ID) {
		for _, c := range t.nodes[cur].children {
			walk(c)
		}

		out = append(out, cur)
	}

	walk(id)

	return out
}

// Descendants returns every node below id in preorder, excluding id.
func (t *Tree) Descendants(id ID) []ID {
	return t.Preorder(id)[1:]
}

// Ancestors returns the parents of id from the closest up to the root.
func (t *Tree) Ancestors(id ID) []ID {
	var out []ID

	for p := t.nodes[id].parent; p != Nil; p = t.nodes[p].parent {
		out = append(out, p)
	}

	return out
}

// IsAncestor reports whether a is a strict ancestor of b.
func (t *Tree) IsAncestor(a, b ID) bool {
	for p := t.nodes[b].parent; p != Nil; p = t.nodes[p].parent {
		if p == a {
			return true
		}
	}

	return false
}

// String renders a node for diagnostics.
func (t *Tree) String(id ID) string {
	if !t.Contains(id) {
		return "<nil>"
	}

	n := &t.nodes[id]
	if n.label == "" {
		return fmt.Sprintf("%s [%d,%d]", n.typ, n.pos, n.pos+n.length)
	}

	return fmt.Sprintf("%s: %s [%d,%d]", n.typ, n.label, n.pos, n.pos+n.length)
}

// Dump renders the whole subtree, one node per line, indented by depth.
func (t *Tree) Dump(id ID) string {
	var sb strings.Builder

	base := t.nodes[id].depth
	for _, n := range t.Preorder(id) {
		sb.WriteString(strings.Repeat("  ", t.nodes[n].depth-base))
		sb.WriteString(t.String(n))
		sb.WriteByte('\n')
	}

	return sb.String()
}
