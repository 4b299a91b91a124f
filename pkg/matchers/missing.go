package matchers

import (
	"github.com/Sumatoshi-tech/astdiff/pkg/mapping"
	"github.com/Sumatoshi-tech/astdiff/pkg/tree"
)

// DefaultMinSubtreeHeight is the smallest subtree the sweep considers.
const DefaultMinSubtreeHeight = 2

// MissingIdenticalSubtree maps unmapped subtrees that are identical on both
// sides and that no construct-specific pass reached. Subtrees are explored
// greedily from the largest down; a hash group maps when it is unique on
// both sides, or per node when exactly one candidate sits under the node's
// mapped parent.
type MissingIdenticalSubtree struct {
	MinHeight int
}

// Match implements Matcher.
func (m MissingIdenticalSubtree) Match(s, d tree.ID, ms *mapping.MultiStore) {
	src, dst := ms.Src(), ms.Dst()
	if !src.Contains(s) || !dst.Contains(d) {
		return
	}

	minHeight := m.MinHeight
	if minHeight <= 0 {
		minHeight = DefaultMinSubtreeHeight
	}

	srcFree := unmappedSubtrees(src, s, ms.IsSrcMapped)
	dstFree := unmappedSubtrees(dst, d, ms.IsDstMapped)

	srcQueue := []tree.ID{s}
	dstQueue := []tree.ID{d}

	for len(srcQueue) > 0 && len(dstQueue) > 0 {
		hs, hd := maxHeight(src, srcQueue), maxHeight(dst, dstQueue)
		if max(hs, hd) < minHeight {
			return
		}

		if hs != hd {
			if hs > hd {
				srcQueue = open(src, srcQueue, hs)
			} else {
				dstQueue = open(dst, dstQueue, hd)
			}

			continue
		}

		srcLevel := atHeight(src, srcQueue, hs)
		dstLevel := atHeight(dst, dstQueue, hd)

		matched := m.matchLevel(ms, srcLevel, dstLevel, srcFree, dstFree)

		srcQueue = open(src, srcQueue, hs, matched.src)
		dstQueue = open(dst, dstQueue, hd, matched.dst)
	}
}

type matchedSet struct {
	src map[tree.ID]bool
	dst map[tree.ID]bool
}

func (m MissingIdenticalSubtree) matchLevel(
	ms *mapping.MultiStore, srcLevel, dstLevel []tree.ID, srcFree, dstFree map[tree.ID]bool,
) matchedSet {
	src, dst := ms.Src(), ms.Dst()
	out := matchedSet{src: make(map[tree.ID]bool), dst: make(map[tree.ID]bool)}

	dstGroups := make(map[uint64][]tree.ID)

	for _, n := range dstLevel {
		if dstFree[n] {
			dstGroups[dst.Hash(n)] = append(dstGroups[dst.Hash(n)], n)
		}
	}

	srcGroups := make(map[uint64][]tree.ID)

	var order []uint64

	for _, n := range srcLevel {
		if !srcFree[n] {
			continue
		}

		hash := src.Hash(n)
		if _, ok := srcGroups[hash]; !ok {
			order = append(order, hash)
		}

		srcGroups[hash] = append(srcGroups[hash], n)
	}

	for _, hash := range order {
		srcs, dsts := srcGroups[hash], dstGroups[hash]
		if len(dsts) == 0 {
			continue
		}

		if len(srcs) == 1 && len(dsts) == 1 {
			if src.IsIsomorphic(srcs[0], dst, dsts[0]) {
				ms.AddRecursively(srcs[0], dsts[0])
				out.src[srcs[0]] = true
				out.dst[dsts[0]] = true
			}

			continue
		}

		for _, sn := range srcs {
			dn := uniqueUnderMappedParent(ms, sn, dsts, out.dst)
			if dn == tree.Nil || !src.IsIsomorphic(sn, dst, dn) {
				continue
			}

			ms.AddRecursively(sn, dn)
			out.src[sn] = true
			out.dst[dn] = true
		}
	}

	return out
}

func uniqueUnderMappedParent(ms *mapping.MultiStore, s tree.ID, dsts []tree.ID, taken map[tree.ID]bool) tree.ID {
	sp := ms.Src().Parent(s)
	if sp == tree.Nil {
		return tree.Nil
	}

	found := tree.Nil

	for _, d := range dsts {
		if taken[d] || !ms.Has(sp, ms.Dst().Parent(d)) {
			continue
		}

		if found != tree.Nil {
			return tree.Nil
		}

		found = d
	}

	return found
}

// unmappedSubtrees flags every node whose whole subtree is unmapped.
func unmappedSubtrees(t *tree.Tree, root tree.ID, mapped func(tree.ID) bool) map[tree.ID]bool {
	free := make(map[tree.ID]bool)

	for _, n := range t.Postorder(root) {
		if mapped(n) {
			continue
		}

		ok := true

		for _, c := range t.Children(n) {
			if !free[c] {
				ok = false

				break
			}
		}

		if ok {
			free[n] = true
		}
	}

	return free
}

func maxHeight(t *tree.Tree, queue []tree.ID) int {
	h := 0
	for _, n := range queue {
		h = max(h, t.Height(n))
	}

	return h
}

func atHeight(t *tree.Tree, queue []tree.ID, h int) []tree.ID {
	var out []tree.ID

	for _, n := range queue {
		if t.Height(n) == h {
			out = append(out, n)
		}
	}

	return out
}

// open replaces every queued node of height h by its children. Nodes found
// in done were matched and leave the queue entirely.
func open(t *tree.Tree, queue []tree.ID, h int, done ...map[tree.ID]bool) []tree.ID {
	var out []tree.ID

	for _, n := range queue {
		if t.Height(n) != h {
			out = append(out, n)

			continue
		}

		if len(done) > 0 && done[0][n] {
			continue
		}

		out = append(out, t.Children(n)...)
	}

	return out
}
