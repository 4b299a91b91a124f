package matchers

import (
	"context"
	"log/slog"

	"github.com/Sumatoshi-tech/astdiff/pkg/mapping"
	"github.com/Sumatoshi-tech/astdiff/pkg/model"
	"github.com/Sumatoshi-tech/astdiff/pkg/syntax/kind"
	"github.com/Sumatoshi-tech/astdiff/pkg/tree"
)

// Scratch collects the decisions of one file pair that can only be taken
// once every pass has run: ambiguous expression correspondences and
// subtree-level mappings that must win over whatever the passes produced.
// It is proposed to during matching and resolved exactly once.
type Scratch struct {
	lastStep []*model.CodeMapping
	subtrees *mapping.MultiStore
	resolved bool
}

// NewScratch creates the scratch of one file pair.
func NewScratch(src, dst *tree.Tree) *Scratch {
	return &Scratch{subtrees: mapping.NewMultiStore(src, dst)}
}

// Defer queues correspondences to resolve after matching. Ignored once the
// scratch is resolved.
func (sc *Scratch) Defer(mappings ...*model.CodeMapping) {
	if sc.resolved {
		return
	}

	sc.lastStep = append(sc.lastStep, mappings...)
}

// Subtrees exposes the subtree-level store. Passes add to it through
// ProposeSubtree or by running a matcher against it.
func (sc *Scratch) Subtrees() *mapping.MultiStore { return sc.subtrees }

// ProposeSubtree records a subtree pair that overrides provisional mappings.
func (sc *Scratch) ProposeSubtree(s, d tree.ID) {
	if sc.resolved {
		return
	}

	sc.subtrees.Add(s, d)
}

// LastStep returns the queued correspondences.
func (sc *Scratch) LastStep() []*model.CodeMapping { return sc.lastStep }

// Resolved reports whether Resolve already ran.
func (sc *Scratch) Resolved() bool { return sc.resolved }

// Resolve applies the queued decisions to the main store of the pair
// (srcPath, dstPath). Candidates that cannot be located are skipped.
func (sc *Scratch) Resolve(ctx context.Context, ms *mapping.MultiStore, srcPath, dstPath string,
	leaf LeafMatcher, logger *slog.Logger,
) {
	if sc.resolved {
		return
	}

	sc.resolved = true

	src, dst := ms.Src(), ms.Dst()
	side := mapping.NewMultiStore(src, dst)

	for _, cm := range sc.lastStep {
		before, after := cm.Before.Location, cm.After.Location
		if before.FilePath != srcPath || after.FilePath != dstPath {
			continue
		}

		if before.Kind == model.KindStringLiteral && after.Kind == model.KindStringLiteral {
			s := before.Find(src, kind.StringLiteral)
			d := after.Find(dst, kind.StringLiteral)

			if s != tree.Nil && d != tree.Nil {
				ms.Add(s, d)
			}

			continue
		}

		s, d := before.Find(src, ""), after.Find(dst, "")
		if s == tree.Nil || d == tree.Nil {
			logger.DebugContext(ctx, "deferred mapping not found",
				"src_start", before.Start, "dst_start", after.Start)

			continue
		}

		if needToOverride(ms, s, d) {
			leaf.Match(s, d, side)
		} else {
			leaf.Match(s, d, ms)
		}
	}

	ms.ReplaceWith(side)
	ms.ReplaceSubtrees(sc.subtrees)
}

// needToOverride reports whether the provisional mapping around (s, d)
// should give way to the candidate. An exact structural match always wins
// over a looser one.
func needToOverride(ms *mapping.MultiStore, s, d tree.ID) bool {
	src, dst := ms.Src(), ms.Dst()

	if !src.IsIsomorphic(s, dst, d) {
		return true
	}

	if dsts := ms.Dsts(s); dsts != nil {
		for _, other := range dsts {
			if !src.IsIsomorphic(s, dst, other) {
				return true
			}
		}

		return false
	}

	if srcs := ms.Srcs(d); srcs != nil {
		return !src.IsIsomorphic(srcs[0], dst, d)
	}

	return true
}
