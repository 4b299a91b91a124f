package actions

import (
	"slices"

	"github.com/Sumatoshi-tech/astdiff/pkg/tree"
)

// NodeSet is a set of node handles.
type NodeSet map[tree.ID]struct{}

// Add inserts id.
func (s NodeSet) Add(id tree.ID) { s[id] = struct{}{} }

// Has reports whether id is in the set.
func (s NodeSet) Has(id tree.ID) bool {
	_, ok := s[id]

	return ok
}

// Sorted returns the members in ascending order.
func (s NodeSet) Sorted() []tree.ID {
	out := make([]tree.ID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}

	slices.Sort(out)

	return out
}

// RootClassification partitions an edit script into the roots of its change
// regions, per side.
type RootClassification struct {
	SrcDeleted  NodeSet
	DstInserted NodeSet
	SrcUpdated  NodeSet
	DstUpdated  NodeSet
	SrcMoved    NodeSet
	DstMoved    NodeSet
	// SrcMultiMoves and DstMultiMoves index clone moves by their source and
	// destination node.
	SrcMultiMoves map[tree.ID][]Action
	DstMultiMoves map[tree.ID][]Action
	MoveIns       map[tree.ID]Action
	MoveOuts      map[tree.ID]Action
}

// Classify reduces script to root-only sets. A Delete or Insert is a root
// unless its parent is deleted or inserted too. A TreeDelete or TreeInsert
// stands for its whole subtree and is a root unless its parent already is.
// Updates and moves are kept per node, on both sides.
func Classify(script *Script, src, dst *tree.Tree) *RootClassification {
	rc := &RootClassification{
		SrcDeleted:    make(NodeSet),
		DstInserted:   make(NodeSet),
		SrcUpdated:    make(NodeSet),
		DstUpdated:    make(NodeSet),
		SrcMoved:      make(NodeSet),
		DstMoved:      make(NodeSet),
		SrcMultiMoves: make(map[tree.ID][]Action),
		DstMultiMoves: make(map[tree.ID][]Action),
		MoveIns:       make(map[tree.ID]Action),
		MoveOuts:      make(map[tree.ID]Action),
	}

	deleted := make(map[tree.ID]Kind)
	inserted := make(map[tree.ID]Kind)

	for _, a := range script.Actions() {
		switch a.Kind {
		case Delete, TreeDelete:
			deleted[a.Node] = a.Kind
		case Insert, TreeInsert:
			inserted[a.Node] = a.Kind
		case Update:
			rc.SrcUpdated.Add(a.Node)
			rc.DstUpdated.Add(a.Dst)
		case Move:
			rc.SrcMoved.Add(a.Node)
			rc.DstMoved.Add(a.Dst)
		case MultiMove:
			rc.SrcMultiMoves[a.Node] = append(rc.SrcMultiMoves[a.Node], a)
			rc.DstMultiMoves[a.Dst] = append(rc.DstMultiMoves[a.Dst], a)
		case MoveIn:
			rc.MoveIns[a.Node] = a
		case MoveOut:
			rc.MoveOuts[a.Node] = a
		}
	}

	rootsOf(src, deleted, TreeDelete, rc.SrcDeleted)
	rootsOf(dst, inserted, TreeInsert, rc.DstInserted)

	return rc
}

// rootsOf fills roots from the marked nodes of t. Handles are preorder, so
// visiting them in ascending order settles every parent before its children.
func rootsOf(t *tree.Tree, marked map[tree.ID]Kind, subtree Kind, roots NodeSet) {
	ids := make([]tree.ID, 0, len(marked))
	for id := range marked {
		ids = append(ids, id)
	}

	slices.Sort(ids)

	for _, id := range ids {
		parent := t.Parent(id)

		if marked[id] == subtree {
			if !roots.Has(parent) {
				roots.Add(id)
			}

			continue
		}

		if _, ok := marked[parent]; !ok {
			roots.Add(id)
		}
	}
}
