package actions

import (
	"github.com/Sumatoshi-tech/astdiff/pkg/mapping"
	"github.com/Sumatoshi-tech/astdiff/pkg/tree"
)

// Chawathe computes the edit script of a one-to-one mapping: node
// insertions, updates and moves in after-tree order, reorderings inside
// matched parents, deletions, and finally whole inserted or deleted subtrees
// collapsed to a single action at their root.
func Chawathe(m *mapping.Store) *Script {
	return collapse(generate(m), m.Src(), m.Dst())
}

func generate(m *mapping.Store) *Script {
	src, dst := m.Src(), m.Dst()
	s := &Script{}

	if dst.Len() > 0 {
		order := dst.Preorder(dst.Root())

		for _, x := range order {
			s.visit(m, x)
		}

		for _, x := range order {
			s.align(m, x)
		}
	}

	if src.Len() > 0 {
		for _, w := range src.Postorder(src.Root()) {
			if !m.IsSrcMapped(w) {
				s.Add(newAction(Delete, w))
			}
		}
	}

	return s
}

func (s *Script) visit(m *mapping.Store, x tree.ID) {
	src, dst := m.Src(), m.Dst()
	y := dst.Parent(x)

	w := m.SrcOf(x)
	if w == tree.Nil {
		a := newAction(Insert, x)
		a.Parent, a.Pos = y, dst.ChildIndex(x)
		s.Add(a)

		return
	}

	if src.Label(w) != dst.Label(x) {
		a := newAction(Update, w)
		a.Dst, a.Value = x, dst.Label(x)
		s.Add(a)
	}

	if y == tree.Nil {
		return
	}

	if z := src.Parent(w); z == tree.Nil || m.DstOf(z) != y {
		s.Add(moveTo(w, x, y, dst.ChildIndex(x)))
	}
}

// align emits moves for the children of a matched pair that kept their
// parent but changed their relative order.
func (s *Script) align(m *mapping.Store, x tree.ID) {
	src, dst := m.Src(), m.Dst()

	w := m.SrcOf(x)
	if w == tree.Nil {
		return
	}

	var srcKids, dstKids []tree.ID

	for _, c := range src.Children(w) {
		if d := m.DstOf(c); d != tree.Nil && dst.Parent(d) == x {
			srcKids = append(srcKids, c)
		}
	}

	for _, c := range dst.Children(x) {
		if sc := m.SrcOf(c); sc != tree.Nil && src.Parent(sc) == w {
			dstKids = append(dstKids, c)
		}
	}

	if len(srcKids) < 2 {
		return
	}

	inOrder := lcs(srcKids, dstKids, func(a, b tree.ID) bool { return m.DstOf(a) == b })

	for _, b := range dstKids {
		if a := m.SrcOf(b); !inOrder[a] {
			s.Add(moveTo(a, b, x, dst.ChildIndex(b)))
		}
	}
}

func moveTo(w, x, parent tree.ID, pos int) Action {
	a := newAction(Move, w)
	a.Dst, a.Parent, a.Pos = x, parent, pos

	return a
}

// lcs returns the elements of a that belong to a longest common subsequence
// of a and b.
func lcs(a, b []tree.ID, eq func(x, y tree.ID) bool) map[tree.ID]bool {
	n, k := len(a), len(b)

	table := make([][]int, n+1)
	for i := range table {
		table[i] = make([]int, k+1)
	}

	for i := n - 1; i >= 0; i-- {
		for j := k - 1; j >= 0; j-- {
			if eq(a[i], b[j]) {
				table[i][j] = table[i+1][j+1] + 1
			} else {
				table[i][j] = max(table[i+1][j], table[i][j+1])
			}
		}
	}

	out := make(map[tree.ID]bool, table[0][0])

	for i, j := 0, 0; i < n && j < k; {
		switch {
		case eq(a[i], b[j]):
			out[a[i]] = true
			i++
			j++
		case table[i+1][j] >= table[i][j+1]:
			i++
		default:
			j++
		}
	}

	return out
}

// collapse folds fully inserted or deleted subtrees into a single
// TreeInsert or TreeDelete at their highest node.
func collapse(s *Script, src, dst *tree.Tree) *Script {
	deleted := make(map[tree.ID]bool)
	inserted := make(map[tree.ID]bool)

	for _, a := range s.actions {
		switch a.Kind {
		case Delete:
			deleted[a.Node] = true
		case Insert:
			inserted[a.Node] = true
		}
	}

	fullDel := fully(src, deleted)
	fullIns := fully(dst, inserted)
	out := &Script{actions: make([]Action, 0, len(s.actions))}

	for _, a := range s.actions {
		switch a.Kind {
		case Delete:
			if p := src.Parent(a.Node); p != tree.Nil && fullDel[p] {
				continue
			}

			if fullDel[a.Node] && !src.IsLeaf(a.Node) {
				a.Kind = TreeDelete
			}
		case Insert:
			if p := dst.Parent(a.Node); p != tree.Nil && fullIns[p] {
				continue
			}

			if fullIns[a.Node] && !dst.IsLeaf(a.Node) {
				a.Kind = TreeInsert
			}
		}

		out.Add(a)
	}

	return out
}

// fully flags the marked nodes whose whole subtree is marked.
func fully(t *tree.Tree, marked map[tree.ID]bool) map[tree.ID]bool {
	out := make(map[tree.ID]bool)
	if len(marked) == 0 || t.Len() == 0 {
		return out
	}

	for _, n := range t.Postorder(t.Root()) {
		if !marked[n] {
			continue
		}

		ok := true

		for _, c := range t.Children(n) {
			if !out[c] {
				ok = false

				break
			}
		}

		out[n] = ok
	}

	return out
}
