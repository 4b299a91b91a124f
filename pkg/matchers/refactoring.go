package matchers

import (
	"github.com/Sumatoshi-tech/astdiff/pkg/mapping"
	"github.com/Sumatoshi-tech/astdiff/pkg/model"
	"github.com/Sumatoshi-tech/astdiff/pkg/syntax/kind"
	"github.com/Sumatoshi-tech/astdiff/pkg/tree"
)

// ModelRefactoringsMatcher projects declaration moves whose both ends lie in
// this file pair: moved operations and moved attributes.
type ModelRefactoringsMatcher struct {
	Env          *Env
	Refactorings []*model.Refactoring
}

// Match implements Matcher.
func (m ModelRefactoringsMatcher) Match(src, dst tree.ID, ms *mapping.MultiStore) {
	for _, r := range m.Refactorings {
		switch r.Type {
		case model.MoveOperation, model.MoveAndRenameOperation, model.PullUpOperation, model.PushDownOperation:
			for _, bm := range r.BodyMappers {
				if bm.Before != nil && bm.After != nil && m.Env.InPair(bm.Before.Location, bm.After.Location) {
					MethodMatcher{Env: m.Env, Mapper: bm}.Match(src, dst, ms)
				}
			}
		case model.ExtractAndMoveOperation, model.MoveAndInlineOperation:
			for _, bm := range r.BodyMappers {
				BodyMapperMatcher{Env: m.Env, Mapper: bm, Extracted: true}.Match(src, dst, ms)
			}
		case model.MoveAttribute, model.MoveAndRenameAttribute, model.PullUpAttribute, model.PushDownAttribute:
			if len(r.Before) == 0 || len(r.After) == 0 || !m.Env.InPair(r.Before[0], r.After[0]) {
				continue
			}

			m.Env.matchField(ms, &model.Attribute{Location: r.Before[0]}, &model.Attribute{Location: r.After[0]})
		}
	}
}

// RefactoringMatcher projects class-level refactorings onto the trees:
// extracted and inlined bodies, variable renames, merges and splits.
type RefactoringMatcher struct {
	Env          *Env
	Refactorings []*model.Refactoring
}

// Match implements Matcher.
func (m RefactoringMatcher) Match(src, dst tree.ID, ms *mapping.MultiStore) {
	for _, r := range m.Refactorings {
		switch r.Type {
		case model.ExtractOperation, model.InlineOperation, model.MergeOperation, model.SplitOperation,
			model.MoveCode, model.ParameterizeTest:
			for _, bm := range r.BodyMappers {
				BodyMapperMatcher{Env: m.Env, Mapper: bm, Extracted: true}.Match(src, dst, ms)
			}

			m.deferInPair(r.Deferred)
		case model.ExtractVariable, model.InlineVariable, model.SplitConditional, model.MergeConditional:
			m.deferInPair(r.Deferred)
			m.references(ms, r.References)
		case model.ExtractAttribute, model.InlineAttribute:
			m.references(ms, r.References)
			m.deferInPair(r.Deferred)
		case model.MergeVariable, model.MergeParameter, model.MergeCatch:
			m.manyToOne(ms, r)
		case model.RenameVariable, model.RenameParameter, model.RenameAttribute,
			model.ReplaceVariableWithAttribute, model.ParameterizeVariable, model.ParameterizeAttribute,
			model.LocalizeParameter:
			m.rename(r)
			m.deferInPair(r.References)
		}
	}
}

func (m RefactoringMatcher) deferInPair(mappings []*model.CodeMapping) {
	for _, cm := range mappings {
		if m.Env.InPair(cm.Before.Location, cm.After.Location) {
			m.Env.Scratch.Defer(cm)
		}
	}
}

func (m RefactoringMatcher) references(ms *mapping.MultiStore, mappings []*model.CodeMapping) {
	for _, cm := range mappings {
		m.Env.matchLeaf(ms, cm.Before.Location, cm.After.Location)
	}
}

func (m RefactoringMatcher) manyToOne(ms *mapping.MultiStore, r *model.Refactoring) {
	if len(r.After) == 0 {
		return
	}

	for _, before := range r.Before {
		m.Env.matchLeaf(ms, before, r.After[0])
	}
}

// rename maps the two declarations of a renamed element into the subtree
// store, so the pairing survives whatever the passes guessed.
func (m RefactoringMatcher) rename(r *model.Refactoring) {
	if len(r.Before) == 0 || len(r.After) == 0 || !m.Env.InPair(r.Before[0], r.After[0]) {
		return
	}

	side := m.Env.Scratch.Subtrees()
	if m.Env.Scratch.Resolved() {
		return
	}

	s, d, ok := m.Env.Locate(side, r.Before[0], r.After[0], "")
	if !ok {
		return
	}

	src, dst := side.Src(), side.Dst()

	// Declarations of different shapes (a parameter turned into a local or
	// a field) still pair their names.
	if src.Type(s) != dst.Type(d) {
		s, d = nameOf(src, s), nameOf(dst, d)
	}

	m.Env.Leaf.Match(s, d, side)
}

func nameOf(t *tree.Tree, decl tree.ID) tree.ID {
	if t.Type(decl) == kind.Identifier {
		return decl
	}

	if v := t.DescendantByType(decl, kind.VariableDeclarator); v != tree.Nil {
		return t.ChildByType(v, kind.Identifier)
	}

	return t.ChildByType(decl, kind.Identifier)
}
