package syntax_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/astdiff/pkg/syntax"
	"github.com/Sumatoshi-tech/astdiff/pkg/syntax/kind"
	"github.com/Sumatoshi-tech/astdiff/pkg/tree"
)

const source = `package p;

public class A {
    private static final String NAME = "a" + "b";

    int m() { return 1; }
}
`

func TestParse_JavaClass(t *testing.T) {
	t.Parallel()

	tr, err := syntax.NewParser().Parse(context.Background(), []byte(source))
	require.NoError(t, err)

	root := tr.Root()
	assert.Equal(t, kind.Program, tr.Type(root))
	assert.Equal(t, 0, tr.Pos(root))

	class := tr.ChildByType(root, kind.ClassDeclaration)
	require.NotEqual(t, tree.Nil, class)

	t.Run("declaration_keyword_is_kept", func(t *testing.T) {
		t.Parallel()

		kw := tr.ChildByType(class, kind.DeclarationKind)
		require.NotEqual(t, tree.Nil, kw)
		assert.Equal(t, "class", tr.Label(kw))
	})

	t.Run("modifiers_are_leaves", func(t *testing.T) {
		t.Parallel()

		field := tr.DescendantByType(class, kind.FieldDeclaration)
		mods := tr.ChildByType(field, kind.Modifiers)
		require.NotEqual(t, tree.Nil, mods)

		labels := make([]string, 0, 3)
		for _, c := range tr.Children(mods) {
			assert.Equal(t, kind.Modifier, tr.Type(c))
			labels = append(labels, tr.Label(c))
		}

		assert.Equal(t, []string{"private", "static", "final"}, labels)
	})

	t.Run("string_literals_collapse", func(t *testing.T) {
		t.Parallel()

		lit := tr.DescendantByType(class, kind.StringLiteral)
		require.NotEqual(t, tree.Nil, lit)
		assert.True(t, tr.IsLeaf(lit))
		assert.Equal(t, `"a"`, tr.Label(lit))
	})

	t.Run("operators_are_kept", func(t *testing.T) {
		t.Parallel()

		op := tr.DescendantByType(class, kind.Operator)
		require.NotEqual(t, tree.Nil, op)
		assert.Equal(t, "+", tr.Label(op))
	})

	t.Run("spans_resolve", func(t *testing.T) {
		t.Parallel()

		ret := tr.DescendantByType(class, kind.ReturnStatement)
		require.NotEqual(t, tree.Nil, ret)
		assert.Equal(t, "return 1;", source[tr.Pos(ret):tr.End(ret)])
		assert.Equal(t, ret, tr.FindByLocation(tr.Pos(ret), tr.Length(ret), ""))
	})
}

func TestParseAll(t *testing.T) {
	t.Parallel()

	files := map[string][]byte{
		"A.java": []byte("class A {}"),
		"B.java": []byte("class B { void f() {} }"),
	}

	ctx, err := syntax.NewParser().ParseAll(context.Background(), files, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"A.java", "B.java"}, ctx.Paths())
}
