package matchers

import (
	"strings"

	"github.com/Sumatoshi-tech/astdiff/pkg/mapping"
	"github.com/Sumatoshi-tech/astdiff/pkg/model"
	"github.com/Sumatoshi-tech/astdiff/pkg/syntax/kind"
	"github.com/Sumatoshi-tech/astdiff/pkg/tree"
)

// BodyMapperMatcher projects the statement correspondence of two operation
// bodies onto the trees. Expression-level correspondences are ambiguous on
// their own and go to the scratch instead.
type BodyMapperMatcher struct {
	Env    *Env
	Mapper *model.BodyMapper
	// Extracted marks bodies related by an extract or inline refactoring;
	// their return statements do not override the caller's.
	Extracted bool
}

// Match implements Matcher.
func (m BodyMapperMatcher) Match(src, dst tree.ID, ms *mapping.MultiStore) {
	if m.Mapper == nil {
		return
	}

	for _, acd := range m.Mapper.AnonymousClassDiffs {
		if acd.Original != nil && acd.Next != nil && !m.Env.InPair(acd.Original.Location, acd.Next.Location) {
			continue
		}

		ClassAttrMatcher{Env: m.Env, Diff: acd}.Match(src, dst, ms)

		for _, bm := range acd.Operations {
			MethodMatcher{Env: m.Env, Mapper: bm}.Match(src, dst, ms)
		}
	}

	for _, cm := range m.Mapper.Mappings {
		if !m.Env.InPair(cm.Before.Location, cm.After.Location) {
			continue
		}

		if cm.Composite {
			m.composite(ms, cm)
		} else {
			m.leaf(ms, cm)
		}
	}

	if m.Extracted {
		m.javadoc(ms)
	}

	CommentMatcher{Env: m.Env, Comments: m.Mapper.Comments}.Match(src, dst, ms)
}

// javadoc maps the doc comments of an extracted body and the body it was
// extracted from.
func (m BodyMapperMatcher) javadoc(ms *mapping.MultiStore) {
	if m.Mapper.Before == nil || m.Mapper.After == nil {
		return
	}

	if s, d, ok := m.Env.Locate(ms, m.Mapper.Before.Location, m.Mapper.After.Location, ""); ok {
		m.Env.mapJavadoc(ms, s, d)
	}
}

func (m BodyMapperMatcher) leaf(ms *mapping.MultiStore, cm *model.CodeMapping) {
	m.deferInitializer(cm)

	if cm.Before.Expression || cm.After.Expression {
		m.Env.Scratch.Defer(cm)

		return
	}

	s, d, ok := m.Env.Locate(ms, cm.Before.Location, cm.After.Location, "")
	if !ok {
		return
	}

	src, dst := ms.Src(), ms.Dst()

	m.Env.Leaf.Match(s, d, ms)

	for _, loc := range cm.AdditionallyMatchedBefore {
		if extra := loc.Find(src, ""); extra != tree.Nil {
			m.Env.Leaf.Match(extra, d, ms)
		}
	}

	for _, loc := range cm.AdditionallyMatchedAfter {
		if extra := loc.Find(dst, ""); extra != tree.Nil {
			m.Env.Leaf.Match(s, extra, ms)
		}
	}

	if !m.Extracted && src.Type(s) == kind.ReturnStatement && dst.Type(d) == kind.ReturnStatement {
		m.Env.Scratch.ProposeSubtree(s, d)
	}

	unmapExtractedReferences(ms, cm)
}

// deferInitializer queues a last-step mapping from the initializer of a
// variable declared on one side only onto the other side's statement, when
// that statement contains the initializer text. It covers inlined and
// extracted variables.
func (m BodyMapperMatcher) deferInitializer(cm *model.CodeMapping) {
	before, after := cm.Before.Declarations, cm.After.Declarations

	switch {
	case len(before) == 1 && len(after) == 0:
		if init := before[0].Initializer; init != nil && init.Text != "" && strings.Contains(cm.After.Text, init.Text) {
			m.Env.Scratch.Defer(&model.CodeMapping{Before: *init, After: cm.After})
		}
	case len(before) == 0 && len(after) == 1:
		if init := after[0].Initializer; init != nil && init.Text != "" && strings.Contains(cm.Before.Text, init.Text) {
			m.Env.Scratch.Defer(&model.CodeMapping{Before: cm.Before, After: *init})
		}
	}
}

// unmapExtractedReferences drops the mapping of each dst reference to an
// extracted variable, unless the reference is mapped more than once. The
// reference replaced an expression and has no counterpart of its own.
func unmapExtractedReferences(ms *mapping.MultiStore, cm *model.CodeMapping) {
	dst := ms.Dst()

	for _, ev := range cm.ExtractedVariables {
		for _, loc := range ev.References {
			ref := loc.Find(dst, "")
			if ref == tree.Nil {
				continue
			}

			if kids := dst.Children(ref); len(kids) > 0 {
				ref = kids[0]
			}

			if ms.IsDstMapped(ref) && !ms.IsDstMultiMapped(ref) {
				ms.Remove(ms.Srcs(ref)[0], ref)
			}
		}
	}
}

func (m BodyMapperMatcher) composite(ms *mapping.MultiStore, cm *model.CodeMapping) {
	s, d, ok := m.Env.Locate(ms, cm.Before.Location, cm.After.Location, "")
	if !ok {
		return
	}

	src := ms.Src()

	ms.Add(s, d)

	pairByType(ms, s, d, kind.Block)
	pairByType(ms, s, d, kind.SwitchBlock)

	if src.Type(s) == kind.TryStatement || src.Type(s) == kind.TryWithResourcesStatement {
		m.matchTry(ms, s, d)
	}

	m.Env.Composite.Match(s, d, ms)
}

func (m BodyMapperMatcher) matchTry(ms *mapping.MultiStore, s, d tree.ID) {
	src, dst := ms.Src(), ms.Dst()

	sc := src.ChildrenByType(s, kind.CatchClause)
	dc := dst.ChildrenByType(d, kind.CatchClause)

	for i := range min(len(sc), len(dc)) {
		ms.Add(sc[i], dc[i])
		m.Env.mapChild(ms, sc[i], dc[i], kind.CatchFormalParameter)
		pairByType(ms, sc[i], dc[i], kind.Block)
	}

	if sf, df := src.ChildByType(s, kind.FinallyClause), dst.ChildByType(d, kind.FinallyClause); ms.Add(sf, df) {
		pairByType(ms, sf, df, kind.Block)
	}

	m.Env.mapChild(ms, s, d, kind.ResourceSpecification)
}

// pairByType maps the children of type typ under s and d by position.
func pairByType(ms *mapping.MultiStore, s, d tree.ID, typ string) {
	sk := ms.Src().ChildrenByType(s, typ)
	dk := ms.Dst().ChildrenByType(d, typ)

	for i := range min(len(sk), len(dk)) {
		ms.Add(sk[i], dk[i])
	}
}
