package tree

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/zeebo/xxh3"
)

// ErrUnknownParent is returned when a node is attached to a handle the builder
// has not produced.
var ErrUnknownParent = errors.New("unknown parent handle")

// Builder assembles a Tree top-down. Hashes, sizes and heights are computed
// once in Build.
type Builder struct {
	nodes []node
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Add appends a node under parent (Nil for the root) and returns its handle.
func (b *Builder) Add(parent ID, typ, label string, pos, length int) (ID, error) {
	if parent != Nil && (parent < 0 || int(parent) >= len(b.nodes)) {
		return Nil, fmt.Errorf("%w: %d", ErrUnknownParent, parent)
	}

	id := ID(len(b.nodes))
	depth := 0

	if parent != Nil {
		b.nodes[parent].children = append(b.nodes[parent].children, id)
		depth = b.nodes[parent].depth + 1
	}

	b.nodes = append(b.nodes, node{
		typ:    typ,
		label:  label,
		pos:    pos,
		length: length,
		parent: parent,
		depth:  depth,
	})

	return id, nil
}

// Len returns the number of nodes added so far.
func (b *Builder) Len() int { return len(b.nodes) }

// Build finalizes the tree. The builder must not be used afterwards.
func (b *Builder) Build() *Tree {
	nodes := b.nodes
	b.nodes = nil

	var (
		content = xxh3.New()
		shape   = xxh3.New()
		buf     [8]byte
	)

	// Children always carry larger handles than their parent, so a reverse
	// scan visits every child before its parent.
	for i := len(nodes) - 1; i >= 0; i-- {
		n := &nodes[i]

		content.Reset()
		shape.Reset()

		_, _ = content.WriteString(n.typ)
		_, _ = content.Write([]byte{0})
		_, _ = content.WriteString(n.label)
		_, _ = content.Write([]byte{0})
		_, _ = shape.WriteString(n.typ)
		_, _ = shape.Write([]byte{0})

		n.size = 1
		n.height = 1

		for _, c := range n.children {
			child := &nodes[c]

			binary.LittleEndian.PutUint64(buf[:], child.hash)
			_, _ = content.Write(buf[:])
			binary.LittleEndian.PutUint64(buf[:], child.shape)
			_, _ = shape.Write(buf[:])

			n.size += child.size
			n.height = max(n.height, child.height+1)
		}

		n.hash = content.Sum64()
		n.shape = shape.Sum64()
	}

	return &Tree{nodes: nodes}
}
