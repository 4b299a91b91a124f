package astdiff

import (
	"context"

	"github.com/Sumatoshi-tech/astdiff/pkg/mapping"
	"github.com/Sumatoshi-tech/astdiff/pkg/matchers"
	"github.com/Sumatoshi-tech/astdiff/pkg/model"
	"github.com/Sumatoshi-tech/astdiff/pkg/observability"
	"github.com/Sumatoshi-tech/astdiff/pkg/tree"
)

// matchAll runs the matcher pipeline for every class diff. Common diffs go
// first, then renames and moves in corrected order; inner-class moves and
// anonymous-class replacements only add to diffs.
func (d *Differ) matchAll(ctx context.Context, r *run) error {
	groups := []struct {
		diffs []*model.ClassDiff
		merge bool
	}{
		{r.model.Common, false},
		{withCorrectOrder(r.model.Renamed), false},
		{withCorrectOrder(r.model.Moved), false},
		{r.model.InnerMoved, true},
		{extraDiffs(r.refs), true},
	}

	for _, g := range groups {
		for _, cd := range g.diffs {
			if err := ctx.Err(); err != nil {
				return err
			}

			d.makeDiff(ctx, r, cd, g.merge)
		}
	}

	return nil
}

// makeDiff matches one class diff. A class diff whose file pair already has
// a diff is matched into a fresh store that is then merged into it, and so
// is one flagged for merging; neither gets the root and package mappings.
func (d *Differ) makeDiff(ctx context.Context, r *run, cd *model.ClassDiff, merge bool) {
	if cd == nil || cd.Original == nil || cd.Next == nil {
		return
	}

	key := PairKey{Src: cd.SrcPath(), Dst: cd.DstPath()}
	ctx = observability.WithFilePair(ctx, key.Src, key.Dst)

	existing, found := r.out.Diff(key.Src, key.Dst)
	if found {
		ms := mapping.NewMultiStore(existing.Src, existing.Dst)
		d.match(d.env(existing), cd, r.refs, ms, true)
		existing.Store.Merge(ms)

		return
	}

	src, ok := r.model.Before.Get(key.Src)
	if !ok {
		d.logger.WarnContext(ctx, "before file not parsed", "class", cd.Original.Name)

		return
	}

	dst, ok := r.model.After.Get(key.Dst)
	if !ok {
		d.logger.WarnContext(ctx, "after file not parsed", "class", cd.Next.Name)

		return
	}

	fd := newPairedFileDiff(key, src, dst)
	d.match(d.env(fd), cd, r.refs, fd.Store, merge)
	r.out.add(fd)
}

func (d *Differ) env(fd *PairedFileDiff) *matchers.Env {
	logger := d.logger.With(observability.LogSrc, fd.SrcPath, observability.LogDst, fd.DstPath)

	return matchers.NewEnv(fd.SrcPath, fd.DstPath, fd.scratch, d.opts.Similarity, logger)
}

// match runs the passes of one class diff against ms in their fixed order.
func (d *Differ) match(env *matchers.Env, cd *model.ClassDiff, refs []*model.Refactoring,
	ms *mapping.MultiStore, merge bool,
) {
	var passes []matchers.Matcher

	if !merge {
		passes = append(passes, matchers.MatcherFunc(mapRoots), matchers.PackageMatcher{Env: env})

		if cd.IsBase() {
			passes = append(passes, matchers.ImportMatcher{Env: env, Diff: cd.Imports})
		}
	}

	if cd.IsBase() {
		passes = append(passes, matchers.ClassDeclarationMatcher{Env: env, Diff: cd})
	}

	passes = append(passes,
		matchers.ClassAttrMatcher{Env: env, Diff: cd},
		matchers.EnumConstantsMatcher{Env: env, Diff: cd},
	)

	for _, bm := range cd.Operations {
		passes = append(passes, matchers.MethodMatcher{Env: env, Mapper: bm})
	}

	passes = append(passes, matchers.ModelRefactoringsMatcher{Env: env, Refactorings: refs})

	if cd.IsBase() {
		passes = append(passes, matchers.RefactoringMatcher{Env: env, Refactorings: refs})
	}

	src, dst := ms.Src().Root(), ms.Dst().Root()
	for _, p := range passes {
		p.Match(src, dst, ms)
	}
}

func mapRoots(src, dst tree.ID, ms *mapping.MultiStore) { ms.Add(src, dst) }
