package actions

import (
	"slices"

	"github.com/Sumatoshi-tech/astdiff/pkg/mapping"
	"github.com/Sumatoshi-tech/astdiff/pkg/tree"
)

// MultiMoveBuilder derives clone moves from a many-to-many mapping. A clone
// group is a connected component of the mapping with at least two pairs,
// which is exactly a component holding a multi-mapped node.
type MultiMoveBuilder struct {
	ms *mapping.MultiStore
}

// NewMultiMoveBuilder creates a builder over ms.
func NewMultiMoveBuilder(ms *mapping.MultiStore) *MultiMoveBuilder {
	return &MultiMoveBuilder{ms: ms}
}

// Closure returns one MultiMove per pair of every clone group. Groups are
// numbered from 1 in preorder of their first source node.
func (b *MultiMoveBuilder) Closure() []Action {
	src, dst := b.ms.Src(), b.ms.Dst()
	if src.Len() == 0 {
		return nil
	}

	seenSrc := make(map[tree.ID]bool)
	seenDst := make(map[tree.ID]bool)
	group := 0

	var out []Action

	for _, s := range src.Preorder(src.Root()) {
		if seenSrc[s] || !b.ms.IsSrcMapped(s) {
			continue
		}

		pairs := b.component(s, seenSrc, seenDst)
		if len(pairs) < 2 {
			continue
		}

		group++

		for _, p := range pairs {
			a := newAction(MultiMove, p.Src)
			a.Dst = p.Dst
			a.Group = group
			a.Updated = src.IsLeaf(p.Src) && dst.IsLeaf(p.Dst) && src.Hash(p.Src) != dst.Hash(p.Dst)
			out = append(out, a)
		}
	}

	return out
}

// component collects the pairs reachable from s, ordered by source then
// destination.
func (b *MultiMoveBuilder) component(s tree.ID, seenSrc, seenDst map[tree.ID]bool) []mapping.Pair {
	var (
		srcs  []tree.ID
		queue = []tree.ID{s}
	)

	seenSrc[s] = true

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		srcs = append(srcs, cur)

		for _, d := range b.ms.Dsts(cur) {
			if seenDst[d] {
				continue
			}

			seenDst[d] = true

			for _, other := range b.ms.Srcs(d) {
				if !seenSrc[other] {
					seenSrc[other] = true
					queue = append(queue, other)
				}
			}
		}
	}

	slices.Sort(srcs)

	var pairs []mapping.Pair

	for _, cs := range srcs {
		for _, d := range b.ms.Dsts(cs) {
			pairs = append(pairs, mapping.Pair{Src: cs, Dst: d})
		}
	}

	return pairs
}

// Simplify drops the clone moves implied by an ancestor-level clone move.
// Actions are grouped once by source node and once by destination node; a
// group goes when none of its actions is updated and, for each of them, the
// parents on both sides are fully covered by the original action set.
func Simplify(moves []Action, src, dst *tree.Tree) []Action {
	srcCovered := make(map[tree.ID]bool, len(moves))
	dstCovered := make(map[tree.ID]bool, len(moves))
	bySrc := make(map[tree.ID][]int)
	byDst := make(map[tree.ID][]int)

	for i, a := range moves {
		srcCovered[a.Node] = true
		dstCovered[a.Dst] = true
		bySrc[a.Node] = append(bySrc[a.Node], i)
		byDst[a.Dst] = append(byDst[a.Dst], i)
	}

	implied := func(group []int) bool {
		for _, i := range group {
			a := moves[i]
			if a.Updated {
				return false
			}

			if !covered(src, src.Parent(a.Node), srcCovered) || !covered(dst, dst.Parent(a.Dst), dstCovered) {
				return false
			}
		}

		return true
	}

	removed := make([]bool, len(moves))

	for _, groups := range []map[tree.ID][]int{bySrc, byDst} {
		for _, group := range groups {
			if !implied(group) {
				continue
			}

			for _, i := range group {
				removed[i] = true
			}
		}
	}

	out := make([]Action, 0, len(moves))

	for i, a := range moves {
		if !removed[i] {
			out = append(out, a)
		}
	}

	return out
}

// covered reports whether n and all its descendants are in set.
func covered(t *tree.Tree, n tree.ID, set map[tree.ID]bool) bool {
	if n == tree.Nil {
		return false
	}

	for _, id := range t.Preorder(n) {
		if !set[id] {
			return false
		}
	}

	return true
}
