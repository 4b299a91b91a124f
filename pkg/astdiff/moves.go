package astdiff

import (
	"context"

	"github.com/Sumatoshi-tech/astdiff/pkg/actions"
	"github.com/Sumatoshi-tech/astdiff/pkg/mapping"
	"github.com/Sumatoshi-tech/astdiff/pkg/matchers"
	"github.com/Sumatoshi-tech/astdiff/pkg/model"
	"github.com/Sumatoshi-tech/astdiff/pkg/observability"
	"github.com/Sumatoshi-tech/astdiff/pkg/tree"
)

// movedDeclaration is one declaration relocated to another file.
type movedDeclaration struct {
	before model.Location
	after  model.Location
	src    tree.ID
	dst    tree.ID
}

// detectMoves turns cross-file declaration moves into move diffs, one per
// file pair, and marks the moved declarations in the file diffs of both
// ends with MoveOut and MoveIn.
func (d *Differ) detectMoves(ctx context.Context, r *run) error {
	leaf := matchers.LeafMatcher{Similarity: d.opts.Similarity}

	var moved []movedDeclaration

	for _, ref := range r.refs {
		if !ref.IsMove() {
			continue
		}

		for _, loc := range moveEnds(ref) {
			md, ok := d.moveDiff(ctx, r, ref, loc[0], loc[1])
			if !ok {
				continue
			}

			s, t := loc[0].Find(md.Src, ""), loc[1].Find(md.Dst, "")
			if s == tree.Nil || t == tree.Nil {
				d.logger.DebugContext(ctx, "moved declaration not found",
					"src", loc[0].FilePath, "src_start", loc[0].Start,
					"dst", loc[1].FilePath, "dst_start", loc[1].Start)

				continue
			}

			leaf.Match(s, t, md.Store)
			md.Declarations = append(md.Declarations, mapping.Pair{Src: s, Dst: t})
			moved = append(moved, movedDeclaration{before: loc[0], after: loc[1], src: s, dst: t})
		}
	}

	for _, md := range r.out.moves {
		if err := ctx.Err(); err != nil {
			return err
		}

		md.Script = moveScript(md)
	}

	for _, m := range moved {
		if fd := r.out.bySrc(m.before.FilePath); fd != nil {
			markMove(fd.Script, actions.TreeDelete, actions.NewMoveOut(m.src, m.after.FilePath))
		}

		if fd := r.out.byDst(m.after.FilePath); fd != nil {
			markMove(fd.Script, actions.TreeInsert, actions.NewMoveIn(m.dst, m.before.FilePath))
		}
	}

	return nil
}

// moveEnds returns the (before, after) declaration locations of a move.
func moveEnds(ref *model.Refactoring) [][2]model.Location {
	var out [][2]model.Location

	for _, bm := range ref.BodyMappers {
		if bm.Before != nil && bm.After != nil {
			out = append(out, [2]model.Location{bm.Before.Location, bm.After.Location})
		}
	}

	if len(out) == 0 && len(ref.Before) > 0 && len(ref.After) > 0 {
		out = append(out, [2]model.Location{ref.Before[0], ref.After[0]})
	}

	return out
}

// moveDiff returns the move diff of the file pair of (before, after),
// creating it on first use. Moves inside a file pair that already has a
// file diff are left to the matchers of that diff.
func (d *Differ) moveDiff(ctx context.Context, r *run, ref *model.Refactoring,
	before, after model.Location,
) (*MoveDiff, bool) {
	key := PairKey{Src: before.FilePath, Dst: after.FilePath}
	ctx = observability.WithFilePair(ctx, key.Src, key.Dst)

	if _, ok := r.out.Diff(key.Src, key.Dst); ok {
		return nil, false
	}

	if md := r.out.move(key); md != nil {
		if len(md.Refactorings) == 0 || md.Refactorings[len(md.Refactorings)-1] != ref {
			md.Refactorings = append(md.Refactorings, ref)
		}

		return md, true
	}

	src, ok := r.model.Before.Get(key.Src)
	if !ok {
		d.logger.DebugContext(ctx, "before file not parsed")

		return nil, false
	}

	dst, ok := r.model.After.Get(key.Dst)
	if !ok {
		d.logger.DebugContext(ctx, "after file not parsed")

		return nil, false
	}

	md := &MoveDiff{
		PairedFileDiff: newPairedFileDiff(key, src, dst),
		Refactorings:   []*model.Refactoring{ref},
	}
	r.out.addMove(md)

	return md, true
}

// moveScript computes the script of a move diff. The roots are mapped while
// the script is built so the moved declarations get positions, and the
// script keeps only the actions inside the moved declarations.
func moveScript(md *MoveDiff) *actions.Script {
	ms := md.Store
	sr, dr := md.Src.Root(), md.Dst.Root()

	added := !ms.Has(sr, dr) && ms.Add(sr, dr)
	script := actions.Builder{}.Build(ms)

	if added {
		ms.Remove(sr, dr)
	}

	script.Filter(func(a actions.Action) bool {
		for _, p := range md.Declarations {
			if a.OnSrc() && within(md.Src, a.Node, p.Src) {
				return true
			}

			if !a.OnSrc() && within(md.Dst, a.Node, p.Dst) {
				return true
			}
		}

		return false
	})

	return script
}

func within(t *tree.Tree, id, root tree.ID) bool {
	return id == root || t.IsAncestor(root, id)
}

// markMove replaces the removal or addition of the moved subtree root with
// the move marker, or appends the marker when the subtree was not reported
// on its own.
func markMove(script *actions.Script, k actions.Kind, marker actions.Action) {
	if script == nil {
		return
	}

	if !script.Replace(func(a actions.Action) bool { return a.Kind == k && a.Node == marker.Node }, marker) {
		script.Add(marker)
	}
}
