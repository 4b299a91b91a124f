// Package mapping holds node correspondences between two syntax trees: the
// many-to-many MultiStore used throughout matching and the one-to-one Store
// handed to the edit script generator.
package mapping

import (
	"errors"
	"fmt"
	"slices"

	"github.com/Sumatoshi-tech/astdiff/pkg/tree"
)

// ErrInconsistent is reported by Check when the two indices disagree.
var ErrInconsistent = errors.New("mapping indices out of sync")

// Pair is one source to destination correspondence.
type Pair struct {
	Src tree.ID
	Dst tree.ID
}

type idSet map[tree.ID]struct{}

// MultiStore is a bidirectional many-to-many index between the nodes of one
// source tree and one destination tree.
type MultiStore struct {
	src      *tree.Tree
	dst      *tree.Tree
	srcToDst map[tree.ID]idSet
	dstToSrc map[tree.ID]idSet
	size     int
}

// NewMultiStore creates an empty store bound to the two trees.
func NewMultiStore(src, dst *tree.Tree) *MultiStore {
	return &MultiStore{
		src:      src,
		dst:      dst,
		srcToDst: make(map[tree.ID]idSet),
		dstToSrc: make(map[tree.ID]idSet),
	}
}

// Src returns the source tree.
func (ms *MultiStore) Src() *tree.Tree { return ms.src }

// Dst returns the destination tree.
func (ms *MultiStore) Dst() *tree.Tree { return ms.dst }

// Len returns the number of pairs.
func (ms *MultiStore) Len() int { return ms.size }

// Add records (s, d). Pairs outside the two trees or between nodes of
// different types are ignored. It reports whether the pair is now present.
func (ms *MultiStore) Add(s, d tree.ID) bool {
	if !ms.src.Contains(s) || !ms.dst.Contains(d) {
		return false
	}

	if ms.src.Type(s) != ms.dst.Type(d) {
		return false
	}

	if ms.Has(s, d) {
		return true
	}

	link(ms.srcToDst, s, d)
	link(ms.dstToSrc, d, s)
	ms.size++

	return true
}

// AddRecursively maps s to d and, when the subtrees have the same shape,
// every descendant pairwise in preorder.
func (ms *MultiStore) AddRecursively(s, d tree.ID) {
	if !ms.src.Contains(s) || !ms.dst.Contains(d) {
		return
	}

	if !ms.src.IsIsoStructural(s, ms.dst, d) {
		ms.Add(s, d)

		return
	}

	srcNodes := ms.src.Preorder(s)
	dstNodes := ms.dst.Preorder(d)

	for i := range srcNodes {
		ms.Add(srcNodes[i], dstNodes[i])
	}
}

// Remove deletes (s, d) from both indices.
func (ms *MultiStore) Remove(s, d tree.ID) {
	if !ms.Has(s, d) {
		return
	}

	unlink(ms.srcToDst, s, d)
	unlink(ms.dstToSrc, d, s)
	ms.size--
}

// RemoveSrc deletes every pair whose source is s.
func (ms *MultiStore) RemoveSrc(s tree.ID) {
	for _, d := range ms.Dsts(s) {
		ms.Remove(s, d)
	}
}

// RemoveDst deletes every pair whose destination is d.
func (ms *MultiStore) RemoveDst(d tree.ID) {
	for _, s := range ms.Srcs(d) {
		ms.Remove(s, d)
	}
}

// Has reports whether (s, d) is recorded.
func (ms *MultiStore) Has(s, d tree.ID) bool {
	_, ok := ms.srcToDst[s][d]

	return ok
}

// Dsts returns the destinations of s in ascending order, nil when unmapped.
func (ms *MultiStore) Dsts(s tree.ID) []tree.ID {
	return sortedKeys(ms.srcToDst[s])
}

// Srcs returns the sources of d in ascending order, nil when unmapped.
func (ms *MultiStore) Srcs(d tree.ID) []tree.ID {
	return sortedKeys(ms.dstToSrc[d])
}

// IsSrcMapped reports whether s has at least one destination.
func (ms *MultiStore) IsSrcMapped(s tree.ID) bool { return len(ms.srcToDst[s]) > 0 }

// IsDstMapped reports whether d has at least one source.
func (ms *MultiStore) IsDstMapped(d tree.ID) bool { return len(ms.dstToSrc[d]) > 0 }

// IsSrcMultiMapped reports whether s has more than one destination.
func (ms *MultiStore) IsSrcMultiMapped(s tree.ID) bool { return len(ms.srcToDst[s]) > 1 }

// IsDstMultiMapped reports whether d has more than one source.
func (ms *MultiStore) IsDstMultiMapped(d tree.ID) bool { return len(ms.dstToSrc[d]) > 1 }

// Pairs returns all pairs ordered by source then destination handle.
func (ms *MultiStore) Pairs() []Pair {
	out := make([]Pair, 0, ms.size)

	for _, s := range sortedKeys(keySet(ms.srcToDst)) {
		for _, d := range sortedKeys(ms.srcToDst[s]) {
			out = append(out, Pair{Src: s, Dst: d})
		}
	}

	return out
}

// Merge adds every pair of other into ms.
func (ms *MultiStore) Merge(other *MultiStore) {
	if other == nil {
		return
	}

	for _, p := range other.Pairs() {
		ms.Add(p.Src, p.Dst)
	}
}

// ReplaceWith substitutes provisional mappings with the ones in other: every
// pair touching a node mapped in other is dropped first, then all pairs of
// other are added.
func (ms *MultiStore) ReplaceWith(other *MultiStore) {
	if other == nil || other.Len() == 0 {
		return
	}

	pairs := other.Pairs()

	for _, p := range pairs {
		ms.RemoveSrc(p.Src)
		ms.RemoveDst(p.Dst)
	}

	for _, p := range pairs {
		ms.Add(p.Src, p.Dst)
	}
}

// ReplaceSubtrees is ReplaceWith at subtree granularity: for isomorphic
// pairs, every node of both subtrees is released and re-mapped pairwise.
func (ms *MultiStore) ReplaceSubtrees(other *MultiStore) {
	if other == nil || other.Len() == 0 {
		return
	}

	pairs := other.Pairs()

	for _, p := range pairs {
		if ms.src.IsIsomorphic(p.Src, ms.dst, p.Dst) {
			for _, s := range ms.src.Preorder(p.Src) {
				ms.RemoveSrc(s)
			}

			for _, d := range ms.dst.Preorder(p.Dst) {
				ms.RemoveDst(d)
			}

			continue
		}

		ms.RemoveSrc(p.Src)
		ms.RemoveDst(p.Dst)
	}

	for _, p := range pairs {
		ms.AddRecursively(p.Src, p.Dst)
	}
}

// Clone returns an independent copy bound to the same trees.
func (ms *MultiStore) Clone() *MultiStore {
	out := NewMultiStore(ms.src, ms.dst)
	out.Merge(ms)

	return out
}

// Equal reports whether both stores hold exactly the same pairs.
func (ms *MultiStore) Equal(other *MultiStore) bool {
	if ms.size != other.size {
		return false
	}

	for s, dsts := range ms.srcToDst {
		for d := range dsts {
			if !other.Has(s, d) {
				return false
			}
		}
	}

	return true
}

// Check verifies that the two indices mirror each other and that every
// pair is type compatible.
func (ms *MultiStore) Check() error {
	count := 0

	for s, dsts := range ms.srcToDst {
		for d := range dsts {
			if _, ok := ms.dstToSrc[d][s]; !ok {
				return fmt.Errorf("%w: (%d,%d) missing from reverse index", ErrInconsistent, s, d)
			}

			if ms.src.Type(s) != ms.dst.Type(d) {
				return fmt.Errorf("%w: (%d,%d) type %s != %s",
					ErrInconsistent, s, d, ms.src.Type(s), ms.dst.Type(d))
			}

			count++
		}
	}

	reverse := 0
	for _, srcs := range ms.dstToSrc {
		reverse += len(srcs)
	}

	if count != ms.size || reverse != ms.size {
		return fmt.Errorf("%w: size %d, forward %d, reverse %d", ErrInconsistent, ms.size, count, reverse)
	}

	return nil
}

func link(index map[tree.ID]idSet, from, to tree.ID) {
	set, ok := index[from]
	if !ok {
		set = make(idSet)
		index[from] = set
	}

	set[to] = struct{}{}
}

func unlink(index map[tree.ID]idSet, from, to tree.ID) {
	set := index[from]
	delete(set, to)

	if len(set) == 0 {
		delete(index, from)
	}
}

func keySet(index map[tree.ID]idSet) idSet {
	out := make(idSet, len(index))
	for k := range index {
		out[k] = struct{}{}
	}

	return out
}

func sortedKeys(set idSet) []tree.ID {
	if len(set) == 0 {
		return nil
	}

	out := make([]tree.ID, 0, len(set))
	for k := range set {
		out = append(out, k)
	}

	slices.Sort(out)

	return out
}
