package matchers

import (
	"slices"

	"github.com/Sumatoshi-tech/astdiff/pkg/mapping"
	"github.com/Sumatoshi-tech/astdiff/pkg/syntax/kind"
	"github.com/Sumatoshi-tech/astdiff/pkg/tree"
)

// DefaultSimilarity is the minimum dice coefficient for container matches.
const DefaultSimilarity = 0.5

// LeafMatcher maps the nodes of two subtrees known to correspond. Isomorphic
// subtrees are mapped pairwise; otherwise identical subtrees are matched
// top-down, containers bottom-up by the share of common descendants, and the
// remaining children of matched containers by type.
type LeafMatcher struct {
	// Similarity is the minimum dice coefficient for a container match.
	Similarity float64
	// Prune excludes nested subtrees of the given types; nil keeps all.
	Prune func(typ string) bool
}

// NewCompositeMatcher returns a matcher for statement headers: nested
// bodies are left to their own statement correspondences.
func NewCompositeMatcher(similarity float64) LeafMatcher {
	return LeafMatcher{Similarity: similarity, Prune: kind.IsBody}
}

// Match implements Matcher.
func (m LeafMatcher) Match(s, d tree.ID, ms *mapping.MultiStore) {
	src, dst := ms.Src(), ms.Dst()
	if !src.Contains(s) || !dst.Contains(d) {
		return
	}

	if m.Prune == nil && src.IsIsomorphic(s, dst, d) {
		ms.AddRecursively(s, d)

		return
	}

	similarity := m.Similarity
	if similarity <= 0 {
		similarity = DefaultSimilarity
	}

	lm := newLocalMatch(src, dst, s, d, m.Prune)
	if src.Type(s) == dst.Type(d) {
		lm.store.Add(s, d)
	}

	lm.topDown()
	lm.bottomUp(similarity)
	lm.recover()

	for _, p := range lm.store.Pairs() {
		ms.Add(p.Src, p.Dst)
	}
}

type region struct {
	t     *tree.Tree
	root  tree.ID
	nodes []tree.ID
	in    map[tree.ID]bool
	clean map[tree.ID]bool
	desc  map[tree.ID]int
}

func newRegion(t *tree.Tree, root tree.ID, prune func(string) bool) *region {
	r := &region{
		t:     t,
		root:  root,
		in:    make(map[tree.ID]bool),
		clean: make(map[tree.ID]bool),
		desc:  make(map[tree.ID]int),
	}

	var walk func(tree.ID) (bool, int)

	walk = func(id tree.ID) (bool, int) {
		r.nodes = append(r.nodes, id)
		r.in[id] = true

		ok, count := true, 0

		for _, c := range t.Children(id) {
			if prune != nil && prune(t.Type(c)) {
				ok = false

				continue
			}

			childOK, childCount := walk(c)
			ok = ok && childOK
			count += childCount + 1
		}

		r.clean[id] = ok
		r.desc[id] = count

		return ok, count
	}

	walk(root)

	return r
}

func (r *region) children(id tree.ID) []tree.ID {
	var out []tree.ID

	for _, c := range r.t.Children(id) {
		if r.in[c] {
			out = append(out, c)
		}
	}

	return out
}

func (r *region) postorder() []tree.ID {
	out := make([]tree.ID, 0, len(r.nodes))

	var walk func(tree.ID)

	walk = func(id tree.ID) {
		for _, c := range r.children(id) {
			walk(c)
		}

		out = append(out, id)
	}

	walk(r.root)

	return out
}

type localMatch struct {
	src   *region
	dst   *region
	store *mapping.Store
}

func newLocalMatch(src, dst *tree.Tree, s, d tree.ID, prune func(string) bool) *localMatch {
	return &localMatch{
		src:   newRegion(src, s, prune),
		dst:   newRegion(dst, d, prune),
		store: mapping.NewStore(src, dst),
	}
}

// topDown maps identical clean subtrees, largest first. Unique hash groups
// map directly; ambiguous groups of inner subtrees are resolved by parent
// and position, ambiguous leaves are left to recovery.
func (lm *localMatch) topDown() {
	maxHeight := 0

	for _, id := range lm.src.nodes {
		maxHeight = max(maxHeight, lm.src.t.Height(id))
	}

	for h := maxHeight; h >= 1; h-- {
		srcGroups, srcOrder := lm.candidates(lm.src, h, true)
		dstGroups, _ := lm.candidates(lm.dst, h, false)

		for _, hash := range srcOrder {
			srcs, dsts := srcGroups[hash], dstGroups[hash]
			if len(dsts) == 0 {
				continue
			}

			if len(srcs) == 1 && len(dsts) == 1 {
				lm.mapSubtree(srcs[0], dsts[0])

				continue
			}

			if h < 2 {
				continue
			}

			for _, s := range srcs {
				if d := lm.pick(s, dsts); d != tree.Nil {
					lm.mapSubtree(s, d)
				}
			}
		}
	}
}

func (lm *localMatch) candidates(r *region, height int, isSrc bool) (map[uint64][]tree.ID, []uint64) {
	groups := make(map[uint64][]tree.ID)

	var order []uint64

	for _, id := range r.nodes {
		if !r.clean[id] || r.t.Height(id) != height {
			continue
		}

		if isSrc && lm.store.IsSrcMapped(id) || !isSrc && lm.store.IsDstMapped(id) {
			continue
		}

		hash := r.t.Hash(id)
		if _, ok := groups[hash]; !ok {
			order = append(order, hash)
		}

		groups[hash] = append(groups[hash], id)
	}

	return groups, order
}

func (lm *localMatch) pick(s tree.ID, dsts []tree.ID) tree.ID {
	src, dst := lm.src.t, lm.dst.t
	sp := src.Parent(s)

	var free []tree.ID

	for _, d := range dsts {
		if lm.store.IsDstMapped(d) || src.Size(s) != dst.Size(d) {
			continue
		}

		free = append(free, d)
	}

	if len(free) == 0 {
		return tree.Nil
	}

	for _, d := range free {
		if sp != tree.Nil && lm.store.Has(sp, dst.Parent(d)) {
			return d
		}
	}

	for _, d := range free {
		dp := dst.Parent(d)
		if sp != tree.Nil && dp != tree.Nil && src.Type(sp) == dst.Type(dp) && src.ChildIndex(s) == dst.ChildIndex(d) {
			return d
		}
	}

	return free[0]
}

func (lm *localMatch) mapSubtree(s, d tree.ID) {
	srcNodes := lm.src.t.Preorder(s)
	dstNodes := lm.dst.t.Preorder(d)

	if len(srcNodes) != len(dstNodes) {
		lm.store.Add(s, d)

		return
	}

	for i := range srcNodes {
		lm.store.Add(srcNodes[i], dstNodes[i])
	}
}

// bottomUp matches unmapped containers to the same-typed dst ancestor that
// shares the most mapped descendants.
func (lm *localMatch) bottomUp(similarity float64) {
	src, dst := lm.src.t, lm.dst.t

	for _, s := range lm.src.postorder() {
		if lm.store.IsSrcMapped(s) || len(lm.src.children(s)) == 0 {
			continue
		}

		best, bestScore := tree.Nil, 0.0

		for _, c := range lm.containerCandidates(s) {
			score := lm.dice(s, c)
			if score > bestScore {
				best, bestScore = c, score
			}
		}

		if best != tree.Nil && bestScore >= similarity && src.Type(s) == dst.Type(best) {
			lm.store.Add(s, best)
		}
	}
}

func (lm *localMatch) containerCandidates(s tree.ID) []tree.ID {
	src, dst := lm.src.t, lm.dst.t
	seen := make(map[tree.ID]bool)

	var out []tree.ID

	for _, x := range src.Descendants(s) {
		if !lm.src.in[x] {
			continue
		}

		y := lm.store.DstOf(x)
		if y == tree.Nil {
			continue
		}

		for p := dst.Parent(y); p != tree.Nil && lm.dst.in[p]; p = dst.Parent(p) {
			if seen[p] {
				continue
			}

			seen[p] = true

			if dst.Type(p) == src.Type(s) && !lm.store.IsDstMapped(p) {
				out = append(out, p)
			}
		}
	}

	slices.Sort(out)

	return out
}

func (lm *localMatch) dice(s, c tree.ID) float64 {
	total := lm.src.desc[s] + lm.dst.desc[c]
	if total == 0 {
		return 0
	}

	common := 0

	for _, x := range lm.src.t.Descendants(s) {
		if !lm.src.in[x] {
			continue
		}

		if y := lm.store.DstOf(x); y != tree.Nil && lm.dst.t.IsAncestor(c, y) {
			common++
		}
	}

	return 2 * float64(common) / float64(total)
}

// recover pairs the leftover children of matched nodes, first by type and
// label, then by type alone.
func (lm *localMatch) recover() {
	src, dst := lm.src.t, lm.dst.t

	for _, s := range lm.src.nodes {
		d := lm.store.DstOf(s)
		if d == tree.Nil {
			continue
		}

		srcKids := lm.src.children(s)
		dstKids := lm.dst.children(d)

		for _, sameLabel := range []bool{true, false} {
			for _, sc := range srcKids {
				if lm.store.IsSrcMapped(sc) {
					continue
				}

				for _, dc := range dstKids {
					if lm.store.IsDstMapped(dc) || src.Type(sc) != dst.Type(dc) {
						continue
					}

					if sameLabel && src.Label(sc) != dst.Label(dc) {
						continue
					}

					if lm.src.clean[sc] && lm.dst.clean[dc] && src.IsIsoStructural(sc, dst, dc) {
						lm.mapSubtree(sc, dc)
					} else {
						lm.store.Add(sc, dc)
					}

					break
				}
			}
		}
	}
}
