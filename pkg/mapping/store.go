package mapping

import (
	"slices"

	"github.com/Sumatoshi-tech/astdiff/pkg/tree"
)

// Store is a one-to-one mapping between two trees.
type Store struct {
	src      *tree.Tree
	dst      *tree.Tree
	srcToDst map[tree.ID]tree.ID
	dstToSrc map[tree.ID]tree.ID
}

// NewStore creates an empty one-to-one store.
func NewStore(src, dst *tree.Tree) *Store {
	return &Store{
		src:      src,
		dst:      dst,
		srcToDst: make(map[tree.ID]tree.ID),
		dstToSrc: make(map[tree.ID]tree.ID),
	}
}

// Src returns the source tree.
func (s *Store) Src() *tree.Tree { return s.src }

// Dst returns the destination tree.
func (s *Store) Dst() *tree.Tree { return s.dst }

// Len returns the number of pairs.
func (s *Store) Len() int { return len(s.srcToDst) }

// Add records (src, dst) when neither side is mapped yet.
func (s *Store) Add(src, dst tree.ID) bool {
	if _, ok := s.srcToDst[src]; ok {
		return false
	}

	if _, ok := s.dstToSrc[dst]; ok {
		return false
	}

	s.srcToDst[src] = dst
	s.dstToSrc[dst] = src

	return true
}

// Has reports whether (src, dst) is recorded.
func (s *Store) Has(src, dst tree.ID) bool {
	d, ok := s.srcToDst[src]

	return ok && d == dst
}

// DstOf returns the partner of src, or Nil.
func (s *Store) DstOf(src tree.ID) tree.ID {
	if d, ok := s.srcToDst[src]; ok {
		return d
	}

	return tree.Nil
}

// SrcOf returns the partner of dst, or Nil.
func (s *Store) SrcOf(dst tree.ID) tree.ID {
	if src, ok := s.dstToSrc[dst]; ok {
		return src
	}

	return tree.Nil
}

// IsSrcMapped reports whether src has a partner.
func (s *Store) IsSrcMapped(src tree.ID) bool {
	_, ok := s.srcToDst[src]

	return ok
}

// IsDstMapped reports whether dst has a partner.
func (s *Store) IsDstMapped(dst tree.ID) bool {
	_, ok := s.dstToSrc[dst]

	return ok
}

// Pairs returns all pairs ordered by source handle.
func (s *Store) Pairs() []Pair {
	out := make([]Pair, 0, len(s.srcToDst))
	for src, dst := range s.srcToDst {
		out = append(out, Pair{Src: src, Dst: dst})
	}

	slices.SortFunc(out, func(a, b Pair) int { return int(a.Src - b.Src) })

	return out
}

// Primary projects the multi-mapping onto a one-to-one store. Unambiguous
// pairs are kept as they are. For a node with several candidates the one
// whose parent is already paired with the node's parent wins, falling back
// to the first free candidate. Sources are visited in preorder so parents
// are resolved before their children.
func (ms *MultiStore) Primary() *Store {
	out := NewStore(ms.src, ms.dst)

	for _, p := range ms.Pairs() {
		if len(ms.srcToDst[p.Src]) == 1 && len(ms.dstToSrc[p.Dst]) == 1 {
			out.Add(p.Src, p.Dst)
		}
	}

	if ms.src.Len() == 0 {
		return out
	}

	for _, s := range ms.src.Preorder(ms.src.Root()) {
		if out.IsSrcMapped(s) || !ms.IsSrcMapped(s) {
			continue
		}

		chosen := tree.Nil
		srcParent := ms.src.Parent(s)

		for _, d := range ms.Dsts(s) {
			if out.IsDstMapped(d) {
				continue
			}

			if chosen == tree.Nil {
				chosen = d
			}

			if srcParent != tree.Nil && out.Has(srcParent, ms.dst.Parent(d)) {
				chosen = d

				break
			}
		}

		if chosen != tree.Nil {
			out.Add(s, chosen)
		}
	}

	return out
}
