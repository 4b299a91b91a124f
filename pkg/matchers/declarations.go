package matchers

import (
	"github.com/Sumatoshi-tech/astdiff/pkg/mapping"
	"github.com/Sumatoshi-tech/astdiff/pkg/model"
	"github.com/Sumatoshi-tech/astdiff/pkg/syntax/kind"
	"github.com/Sumatoshi-tech/astdiff/pkg/tree"
)

// PackageMatcher maps the package declarations of two compilation units.
type PackageMatcher struct {
	Env *Env
}

// Match implements Matcher.
func (m PackageMatcher) Match(src, dst tree.ID, ms *mapping.MultiStore) {
	m.Env.mapChild(ms, src, dst, kind.PackageDeclaration)
}

// ImportMatcher maps unchanged, grouped and ungrouped imports.
type ImportMatcher struct {
	Env  *Env
	Diff *model.ImportDiff
}

// Match implements Matcher.
func (m ImportMatcher) Match(_, _ tree.ID, ms *mapping.MultiStore) {
	if m.Diff == nil {
		return
	}

	for _, p := range m.Diff.Common {
		if s, d, ok := m.Env.Locate(ms, p.Before.Location, p.After.Location, kind.ImportDeclaration); ok {
			m.Env.mapSame(ms, s, d)
		}
	}

	groups := append(append([]model.ImportGroup(nil), m.Diff.Grouped...), m.Diff.Ungrouped...)

	for _, g := range groups {
		for _, b := range g.Before {
			for _, a := range g.After {
				if s, d, ok := m.Env.Locate(ms, b.Location, a.Location, kind.ImportDeclaration); ok {
					m.Env.Leaf.Match(s, d, ms)
				}
			}
		}
	}
}

// ClassDeclarationMatcher maps the signature of two corresponding type
// declarations: keyword, name, modifiers, type parameters, supertypes, body
// container and doc comment.
type ClassDeclarationMatcher struct {
	Env  *Env
	Diff *model.ClassDiff
}

// Match implements Matcher.
func (m ClassDeclarationMatcher) Match(_, _ tree.ID, ms *mapping.MultiStore) {
	s, d, ok := m.Env.Locate(ms, m.Diff.Original.Location, m.Diff.Next.Location, "")
	if !ok {
		return
	}

	src, dst := ms.Src(), ms.Dst()
	if !kind.IsTypeDeclaration(src.Type(s)) || !ms.Add(s, d) {
		return
	}

	m.Env.mapModifiers(ms, s, d)
	ms.Add(src.ChildByType(s, kind.DeclarationKind), dst.ChildByType(d, kind.DeclarationKind))
	ms.Add(src.ChildByType(s, kind.Identifier), dst.ChildByType(d, kind.Identifier))
	m.Env.mapChild(ms, s, d, kind.TypeParameters)
	m.Env.mapChild(ms, s, d, kind.Superclass)

	for _, typ := range []string{kind.SuperInterfaces, kind.ExtendsInterfaces} {
		m.mapInterfaces(ms, src.ChildByType(s, typ), dst.ChildByType(d, typ))
	}

	for _, body := range []string{kind.ClassBody, kind.InterfaceBody, kind.EnumBody} {
		ms.Add(src.ChildByType(s, body), dst.ChildByType(d, body))
	}

	if m.Diff.Original.Enum {
		ms.Add(
			src.ChildByType(src.ChildByType(s, kind.EnumBody), kind.EnumBodyDeclarations),
			dst.ChildByType(dst.ChildByType(d, kind.EnumBody), kind.EnumBodyDeclarations),
		)
	}

	m.Env.mapJavadoc(ms, s, d)
}

func (m ClassDeclarationMatcher) mapInterfaces(ms *mapping.MultiStore, s, d tree.ID) {
	if s == tree.Nil || d == tree.Nil {
		return
	}

	src, dst := ms.Src(), ms.Dst()

	ms.Add(s, d)

	sl, dl := src.ChildByType(s, kind.TypeList), dst.ChildByType(d, kind.TypeList)
	if !ms.Add(sl, dl) {
		return
	}

	for _, st := range src.Children(sl) {
		for _, dt := range dst.Children(dl) {
			if !ms.IsDstMapped(dt) && src.IsIsomorphic(st, dst, dt) {
				ms.AddRecursively(st, dt)

				break
			}
		}
	}
}

// ClassAttrMatcher maps the fields of a class pair.
type ClassAttrMatcher struct {
	Env  *Env
	Diff *model.ClassDiff
}

// Match implements Matcher.
func (m ClassAttrMatcher) Match(_, _ tree.ID, ms *mapping.MultiStore) {
	for _, p := range m.Diff.Attributes {
		m.Env.matchField(ms, p.Before, p.After)
	}
}

// matchField maps two corresponding field declarations. Identical
// declarations map wholesale; otherwise modifiers, type and the declarator
// map individually.
func (e *Env) matchField(ms *mapping.MultiStore, before, after *model.Attribute) {
	if before == nil || after == nil {
		return
	}

	s, d, ok := e.Locate(ms, before.Location, after.Location, kind.FieldDeclaration)
	if !ok {
		return
	}

	if e.mapHeader(ms, s, d) {
		return
	}

	src, dst := ms.Src(), ms.Dst()
	e.mapSame(ms, typeChild(src, s), typeChild(dst, d))

	sv := declarator(src, s, before.Declarator)
	dv := declarator(dst, d, after.Declarator)

	if sv != tree.Nil && dv != tree.Nil {
		ms.Add(sv, dv)
		e.Leaf.Match(sv, dv, ms)
		ms.Add(src.ChildByType(sv, kind.Identifier), dst.ChildByType(dv, kind.Identifier))
	}

	e.mapJavadoc(ms, s, d)
}

func declarator(t *tree.Tree, field tree.ID, loc model.Location) tree.ID {
	if !loc.IsZero() {
		if id := loc.Find(t, kind.VariableDeclarator); id != tree.Nil {
			return id
		}
	}

	return t.ChildByType(field, kind.VariableDeclarator)
}

// EnumConstantsMatcher maps the constants of an enum pair.
type EnumConstantsMatcher struct {
	Env  *Env
	Diff *model.ClassDiff
}

// Match implements Matcher.
func (m EnumConstantsMatcher) Match(_, _ tree.ID, ms *mapping.MultiStore) {
	src, dst := ms.Src(), ms.Dst()

	for _, p := range m.Diff.EnumConstants {
		if p.Before == nil || p.After == nil {
			continue
		}

		s, d, ok := m.Env.Locate(ms, p.Before.Location, p.After.Location, kind.EnumConstant)
		if !ok {
			continue
		}

		if m.Env.mapHeader(ms, s, d) {
			continue
		}

		ms.Add(src.ChildByType(s, kind.Identifier), dst.ChildByType(d, kind.Identifier))
		m.Env.mapChild(ms, s, d, kind.ArgumentList)
		ms.Add(src.ChildByType(s, kind.ClassBody), dst.ChildByType(d, kind.ClassBody))
	}
}

// MethodMatcher maps the signature of two corresponding operations and then
// their bodies through the statement correspondence.
type MethodMatcher struct {
	Env    *Env
	Mapper *model.BodyMapper
}

// Match implements Matcher.
func (m MethodMatcher) Match(src, dst tree.ID, ms *mapping.MultiStore) {
	if m.Mapper.Before == nil || m.Mapper.After == nil {
		BodyMapperMatcher{Env: m.Env, Mapper: m.Mapper}.Match(src, dst, ms)

		return
	}

	s, d, ok := m.Env.Locate(ms, m.Mapper.Before.Location, m.Mapper.After.Location, "")
	if !ok {
		return
	}

	st, dt := ms.Src(), ms.Dst()
	if !kind.IsOperation(st.Type(s)) {
		return
	}

	if m.Env.mapHeader(ms, s, d) {
		m.Env.mapJavadoc(ms, s, d)

		return
	}

	ms.Add(st.ChildByType(s, kind.Identifier), dt.ChildByType(d, kind.Identifier))

	for _, typ := range []string{kind.TypeParameters, kind.FormalParameters, kind.Throws, kind.Dimensions} {
		m.Env.mapChild(ms, s, d, typ)
	}

	if sr, dr := typeChild(st, s), typeChild(dt, d); sr != tree.Nil && dr != tree.Nil && !kind.IsBody(st.Type(sr)) {
		m.Env.mapSame(ms, sr, dr)
	}

	for _, body := range []string{kind.Block, kind.ConstructorBody} {
		ms.Add(st.ChildByType(s, body), dt.ChildByType(d, body))
	}

	m.Env.mapJavadoc(ms, s, d)

	BodyMapperMatcher{Env: m.Env, Mapper: m.Mapper}.Match(src, dst, ms)
}
