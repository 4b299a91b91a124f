package mapping_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/astdiff/pkg/mapping"
	"github.com/Sumatoshi-tech/astdiff/pkg/tree"
)

func trees() (src, dst *tree.Tree) {
	src = tree.MustParse(`(block (expression_statement (identifier "a")) (expression_statement (identifier "b")))`)
	dst = tree.MustParse(`(block (expression_statement (identifier "a")) (expression_statement (identifier "a")))`)

	return src, dst
}

func TestMultiStore_AddRemove(t *testing.T) {
	t.Parallel()

	src, dst := trees()
	ms := mapping.NewMultiStore(src, dst)

	require.True(t, ms.Add(1, 1))
	require.True(t, ms.Add(1, 3))
	assert.True(t, ms.Add(1, 3), "re-adding is idempotent")
	assert.Equal(t, 2, ms.Len())
	assert.Equal(t, []tree.ID{1, 3}, ms.Dsts(1))
	assert.Equal(t, []tree.ID{1}, ms.Srcs(3))
	assert.True(t, ms.IsSrcMultiMapped(1))
	assert.False(t, ms.IsDstMultiMapped(1))

	ms.Remove(1, 1)
	assert.Equal(t, []tree.ID{3}, ms.Dsts(1))
	assert.Nil(t, ms.Srcs(1))
	assert.False(t, ms.IsDstMapped(1))
	require.NoError(t, ms.Check())
}

func TestMultiStore_RejectsIncompatible(t *testing.T) {
	t.Parallel()

	src, dst := trees()
	ms := mapping.NewMultiStore(src, dst)

	t.Run("type_mismatch", func(t *testing.T) {
		t.Parallel()

		assert.False(t, ms.Clone().Add(0, 1))
	})

	t.Run("outside_trees", func(t *testing.T) {
		t.Parallel()

		assert.False(t, ms.Clone().Add(0, 99))
		assert.False(t, ms.Clone().Add(tree.Nil, 0))
	})
}

func TestMultiStore_AddRecursively(t *testing.T) {
	t.Parallel()

	src, dst := trees()
	ms := mapping.NewMultiStore(src, dst)

	ms.AddRecursively(1, 1)
	ms.AddRecursively(1, 3)

	assert.Equal(t, 4, ms.Len())
	assert.Equal(t, []tree.ID{2, 4}, ms.Dsts(2))

	// Same shape with different labels still maps pairwise.
	ms.AddRecursively(3, 1)
	assert.True(t, ms.Has(3, 1))
	assert.True(t, ms.Has(4, 2))
	require.NoError(t, ms.Check())

	t.Run("different_shape_maps_roots_only", func(t *testing.T) {
		t.Parallel()

		other := tree.MustParse(`(block (expression_statement (identifier "a") (identifier "c")))`)
		shallow := mapping.NewMultiStore(src, other)
		shallow.AddRecursively(1, 1)

		assert.True(t, shallow.Has(1, 1))
		assert.False(t, shallow.Has(2, 2))
	})
}

func TestMultiStore_MergeAndEqual(t *testing.T) {
	t.Parallel()

	src, dst := trees()

	a := mapping.NewMultiStore(src, dst)
	a.Add(0, 0)
	a.AddRecursively(1, 1)

	b := mapping.NewMultiStore(src, dst)
	b.AddRecursively(3, 3)
	b.Add(0, 0)

	merged := a.Clone()
	merged.Merge(b)

	shared := mapping.NewMultiStore(src, dst)
	shared.Add(0, 0)
	shared.AddRecursively(1, 1)
	shared.AddRecursively(3, 3)

	assert.True(t, merged.Equal(shared))
	assert.False(t, a.Equal(shared))
	require.NoError(t, merged.Check())
}

func TestMultiStore_ReplaceWith(t *testing.T) {
	t.Parallel()

	src, dst := trees()

	ms := mapping.NewMultiStore(src, dst)
	ms.Add(2, 2)
	ms.Add(2, 4)
	ms.Add(4, 4)

	side := mapping.NewMultiStore(src, dst)
	side.Add(4, 2)

	ms.ReplaceWith(side)

	assert.Equal(t, []mapping.Pair{{Src: 2, Dst: 4}, {Src: 4, Dst: 2}}, ms.Pairs())
	require.NoError(t, ms.Check())
}

func TestMultiStore_ReplaceSubtrees(t *testing.T) {
	t.Parallel()

	src, dst := trees()

	ms := mapping.NewMultiStore(src, dst)
	ms.AddRecursively(1, 3)

	sub := mapping.NewMultiStore(src, dst)
	sub.Add(1, 1)

	ms.ReplaceSubtrees(sub)

	assert.Equal(t, []mapping.Pair{{Src: 1, Dst: 1}, {Src: 2, Dst: 2}}, ms.Pairs())
	require.NoError(t, ms.Check())
}

func TestMultiStore_Primary(t *testing.T) {
	t.Parallel()

	src, dst := trees()

	ms := mapping.NewMultiStore(src, dst)
	ms.Add(0, 0)
	ms.AddRecursively(1, 1)
	ms.AddRecursively(1, 3)

	primary := ms.Primary()

	assert.Equal(t, 3, primary.Len())
	assert.True(t, primary.Has(0, 0))
	assert.True(t, primary.Has(1, 1))
	assert.True(t, primary.Has(2, 2), "children follow their parent's choice")
	assert.Equal(t, tree.Nil, primary.SrcOf(3))
}
