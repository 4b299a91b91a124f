// Package matchers contains the passes that turn a declaration-level
// correspondence into node mappings between two syntax trees. Each pass adds
// to a shared mapping.MultiStore and never removes what earlier passes found.
package matchers

import (
	"log/slog"
	"strings"

	"github.com/Sumatoshi-tech/astdiff/pkg/mapping"
	"github.com/Sumatoshi-tech/astdiff/pkg/model"
	"github.com/Sumatoshi-tech/astdiff/pkg/syntax/kind"
	"github.com/Sumatoshi-tech/astdiff/pkg/tree"
)

// Matcher contributes mappings between the subtrees rooted at src and dst.
type Matcher interface {
	Match(src, dst tree.ID, ms *mapping.MultiStore)
}

// MatcherFunc adapts a function to Matcher.
type MatcherFunc func(src, dst tree.ID, ms *mapping.MultiStore)

// Match calls f.
func (f MatcherFunc) Match(src, dst tree.ID, ms *mapping.MultiStore) { f(src, dst, ms) }

// Env is what every pass of one file pair shares. Logger is expected to
// name the file pair already.
type Env struct {
	SrcPath   string
	DstPath   string
	Scratch   *Scratch
	Leaf      LeafMatcher
	Composite LeafMatcher
	Logger    *slog.Logger
}

// NewEnv creates the environment of the file pair (srcPath, dstPath).
func NewEnv(srcPath, dstPath string, scratch *Scratch, similarity float64, logger *slog.Logger) *Env {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Env{
		SrcPath:   srcPath,
		DstPath:   dstPath,
		Scratch:   scratch,
		Leaf:      LeafMatcher{Similarity: similarity},
		Composite: NewCompositeMatcher(similarity),
		Logger:    logger,
	}
}

// InPair reports whether two locations belong to this file pair.
func (e *Env) InPair(before, after model.Location) bool {
	return before.FilePath == e.SrcPath && after.FilePath == e.DstPath
}

// Locate resolves a pair of locations, logging misses.
func (e *Env) Locate(ms *mapping.MultiStore, before, after model.Location, typ string) (tree.ID, tree.ID, bool) {
	s := before.Find(ms.Src(), typ)
	d := after.Find(ms.Dst(), typ)

	if s == tree.Nil || d == tree.Nil {
		e.Logger.Debug("location not found",
			"src_start", before.Start, "src_length", before.Length,
			"dst_start", after.Start, "dst_length", after.Length,
			"type", typ)

		return tree.Nil, tree.Nil, false
	}

	return s, d, true
}

// matchLeaf runs the leaf matcher on a pair of locations of this file pair.
func (e *Env) matchLeaf(ms *mapping.MultiStore, before, after model.Location) {
	if !e.InPair(before, after) {
		return
	}

	if s, d, ok := e.Locate(ms, before, after, ""); ok {
		e.Leaf.Match(s, d, ms)
	}
}

// mapHeader maps two isomorphic declarations wholesale and reports true.
// Otherwise it maps only the two nodes and their modifiers.
func (e *Env) mapHeader(ms *mapping.MultiStore, s, d tree.ID) bool {
	if ms.Src().IsIsomorphic(s, ms.Dst(), d) {
		ms.AddRecursively(s, d)

		return true
	}

	ms.Add(s, d)
	e.mapModifiers(ms, s, d)

	return false
}

// mapSame maps two corresponding nodes: pairwise when they have the same
// shape, through the leaf matcher otherwise.
func (e *Env) mapSame(ms *mapping.MultiStore, s, d tree.ID) {
	if s == tree.Nil || d == tree.Nil {
		return
	}

	if ms.Src().IsIsoStructural(s, ms.Dst(), d) {
		ms.AddRecursively(s, d)

		return
	}

	e.Leaf.Match(s, d, ms)
}

// mapChild maps the first children of type typ under s and d.
func (e *Env) mapChild(ms *mapping.MultiStore, s, d tree.ID, typ string) {
	e.mapSame(ms, ms.Src().ChildByType(s, typ), ms.Dst().ChildByType(d, typ))
}

// mapModifiers maps the modifiers lists of two declarations: keywords by
// label, annotations by content or by name.
func (e *Env) mapModifiers(ms *mapping.MultiStore, s, d tree.ID) {
	src, dst := ms.Src(), ms.Dst()

	sm, dm := src.ChildByType(s, kind.Modifiers), dst.ChildByType(d, kind.Modifiers)
	if sm == tree.Nil || dm == tree.Nil {
		return
	}

	ms.Add(sm, dm)

	for _, c := range src.Children(sm) {
		switch src.Type(c) {
		case kind.Modifier:
			ms.Add(c, dst.ChildByTypeAndLabel(dm, kind.Modifier, src.Label(c)))
		case kind.Annotation, kind.MarkerAnnotation:
			if other := findAnnotation(src, c, dst, dm); other != tree.Nil {
				e.mapSame(ms, c, other)
			}
		}
	}
}

func findAnnotation(src *tree.Tree, a tree.ID, dst *tree.Tree, mods tree.ID) tree.ID {
	name := annotationName(src, a)
	byName := tree.Nil

	for _, c := range dst.Children(mods) {
		if dst.Type(c) != kind.Annotation && dst.Type(c) != kind.MarkerAnnotation {
			continue
		}

		if src.IsIsomorphic(a, dst, c) {
			return c
		}

		if byName == tree.Nil && annotationName(dst, c) == name {
			byName = c
		}
	}

	return byName
}

func annotationName(t *tree.Tree, a tree.ID) string {
	for _, c := range t.Children(a) {
		switch t.Type(c) {
		case kind.Identifier:
			return t.Label(c)
		case kind.ScopedIdentifier:
			if parts := t.Children(c); len(parts) > 0 {
				return t.Label(parts[len(parts)-1])
			}
		}
	}

	return ""
}

// mapJavadoc maps the doc comments directly preceding two declarations.
func (e *Env) mapJavadoc(ms *mapping.MultiStore, s, d tree.ID) {
	sd, dd := javadoc(ms.Src(), s), javadoc(ms.Dst(), d)
	if sd == tree.Nil || dd == tree.Nil {
		return
	}

	ms.Add(sd, dd)
}

func javadoc(t *tree.Tree, id tree.ID) tree.ID {
	idx := t.ChildIndex(id)
	if idx <= 0 {
		return tree.Nil
	}

	prev := t.Children(t.Parent(id))[idx-1]
	if t.Type(prev) == kind.BlockComment && strings.HasPrefix(t.Label(prev), "/**") {
		return prev
	}

	return tree.Nil
}

// typeChild returns the declared type of a field, method or parameter: the
// first child that is neither a modifier list, a name, nor a comment.
func typeChild(t *tree.Tree, id tree.ID) tree.ID {
	for _, c := range t.Children(id) {
		switch typ := t.Type(c); {
		case typ == kind.Modifiers, typ == kind.TypeParameters, typ == kind.Identifier,
			typ == kind.VariableDeclarator, typ == kind.FormalParameters, kind.IsComment(typ):
			continue
		default:
			return c
		}
	}

	return tree.Nil
}
