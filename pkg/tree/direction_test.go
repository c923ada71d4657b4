package tree_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bpowers/mathquill/pkg/tree"
)

func TestDirectionNegate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, tree.Right, tree.Left.Negate())
	assert.Equal(t, tree.Left, tree.Right.Negate())

	for _, d := range []tree.Direction{tree.Left, tree.Right} {
		assert.Equal(t, d, d.Negate().Negate())
		assert.NotEqual(t, d, d.Negate())
		assert.True(t, d.Valid())
	}

	assert.False(t, tree.Direction(7).Valid())
	assert.Equal(t, "left", tree.Left.String())
	assert.Equal(t, "right", tree.Right.String())
	assert.Equal(t, "invalid", tree.Direction(2).String())
}

func TestEndsIsEmpty(t *testing.T) {
	t.Parallel()

	assert.True(t, tree.Ends{}.IsEmpty())
	assert.False(t, tree.Ends{1, 1}.IsEmpty())
}

func TestPointSide(t *testing.T) {
	t.Parallel()

	p := tree.Point{Parent: 1, Left: 2, Right: 3}
	assert.Equal(t, tree.NodeID(2), p.Side(tree.Left))
	assert.Equal(t, tree.NodeID(3), p.Side(tree.Right))
	assert.True(t, p.Equal(tree.Point{Parent: 1, Left: 2, Right: 3}))
	assert.False(t, p.Equal(tree.Point{Parent: 1, Left: 3, Right: 2}))
}
