package astdiff

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/astdiff/pkg/mapping"
	"github.com/Sumatoshi-tech/astdiff/pkg/model"
	"github.com/Sumatoshi-tech/astdiff/pkg/tree"
)

func classDiff(original, next string) *model.ClassDiff {
	return &model.ClassDiff{
		Kind:     model.DiffRename,
		Original: &model.Class{Name: original, SourceFile: original + ".java"},
		Next:     &model.Class{Name: next, SourceFile: next + ".java"},
	}
}

func TestWithCorrectOrder(t *testing.T) {
	t.Parallel()

	t.Run("empty", func(t *testing.T) {
		t.Parallel()

		assert.Empty(t, withCorrectOrder(nil))
	})

	t.Run("duplicates_stay_behind_first_occurrence", func(t *testing.T) {
		t.Parallel()

		x, y, z := classDiff("a", "b"), classDiff("c", "d"), classDiff("a", "b")

		assert.Equal(t, []*model.ClassDiff{y, x, z}, withCorrectOrder([]*model.ClassDiff{x, y, z}))
	})

	t.Run("distinct_names_reverse", func(t *testing.T) {
		t.Parallel()

		x, y, z := classDiff("a", "b"), classDiff("c", "d"), classDiff("e", "f")

		assert.Equal(t, []*model.ClassDiff{z, y, x}, withCorrectOrder([]*model.ClassDiff{x, y, z}))
	})

	t.Run("input_untouched", func(t *testing.T) {
		t.Parallel()

		x, y := classDiff("a", "b"), classDiff("c", "d")
		in := []*model.ClassDiff{x, y}

		withCorrectOrder(in)
		assert.Equal(t, []*model.ClassDiff{x, y}, in)
	})
}

func TestExtraDiffs(t *testing.T) {
	t.Parallel()

	cd := classDiff("Outer$1", "Named")
	refs := []*model.Refactoring{
		{Type: model.RenameVariable},
		{Type: model.ReplaceAnonymousWithClass, ClassDiff: cd},
		{Type: model.ReplaceAnonymousWithClass},
	}

	assert.Equal(t, []*model.ClassDiff{cd}, extraDiffs(refs))
}

const twoClasses = `(program
	(class_declaration (declaration_kind "class") (identifier "A")
		(class_body (field_declaration (integral_type "int") (variable_declarator (identifier "x")))))
	(class_declaration (declaration_kind "class") (identifier "B")
		(class_body (field_declaration (integral_type "int") (variable_declarator (identifier "y"))))))`

const twoClassesAfter = `(program
	(class_declaration (declaration_kind "class") (identifier "A")
		(class_body (field_declaration (integral_type "long") (variable_declarator (identifier "x")))))
	(class_declaration (declaration_kind "class") (identifier "B")
		(class_body (field_declaration (integral_type "long") (variable_declarator (identifier "y"))))))`

// sameFileDiffs returns two class diffs living in the same file pair.
func sameFileDiffs(src, dst *tree.Tree) []*model.ClassDiff {
	at := func(t *tree.Tree, id tree.ID) model.Location {
		return model.Location{FilePath: "F.java", Start: t.Pos(id), Length: t.Length(id)}
	}

	classes := func(t *tree.Tree) []tree.ID { return t.Children(t.Root()) }
	field := func(t *tree.Tree, class tree.ID) tree.ID {
		return t.DescendantByType(class, "field_declaration")
	}

	out := make([]*model.ClassDiff, 0, 2)

	for i, name := range []string{"A", "B"} {
		s, d := classes(src)[i], classes(dst)[i]
		out = append(out, &model.ClassDiff{
			Kind:     model.DiffCommon,
			Original: &model.Class{Name: name, SourceFile: "F.java", Location: at(src, s)},
			Next:     &model.Class{Name: name, SourceFile: "F.java", Location: at(dst, d)},
			Attributes: []model.AttributePair{{
				Before: &model.Attribute{Location: at(src, field(src, s))},
				After:  &model.Attribute{Location: at(dst, field(dst, d))},
			}},
		})
	}

	return out
}

func TestMatchAll_MergeIdempotence(t *testing.T) {
	t.Parallel()

	src, dst := tree.MustParse(twoClasses), tree.MustParse(twoClassesAfter)
	before, after := tree.NewContext(), tree.NewContext()
	before.Put("F.java", src)
	after.Put("F.java", dst)

	diffs := sameFileDiffs(src, dst)
	d := NewDiffer(DefaultOptions(), Deps{})

	r := &run{
		model: &model.Diff{Common: diffs, Before: before, After: after},
		out:   newProjectDiff(before, after),
	}
	require.NoError(t, d.matchAll(context.Background(), r))
	require.Len(t, r.out.Diffs(), 1)

	merged := r.out.Diffs()[0]

	shared := mapping.NewMultiStore(src, dst)
	env := d.env(newPairedFileDiff(PairKey{Src: "F.java", Dst: "F.java"}, src, dst))
	d.match(env, diffs[0], nil, shared, false)
	d.match(env, diffs[1], nil, shared, true)

	assert.True(t, merged.Store.Equal(shared))
	require.NoError(t, merged.Store.Check())

	for _, id := range src.Preorder(src.Root()) {
		if src.Type(id) == "identifier" {
			assert.True(t, merged.Store.IsSrcMapped(id), src.Label(id))
		}
	}

	assert.Equal(t, []tree.ID{src.Root()}, merged.Store.Srcs(dst.Root()))
}
