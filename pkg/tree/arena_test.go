package tree_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpowers/mathquill/pkg/tree"
)

func TestCreateAssignsIncreasingIDs(t *testing.T) {
	t.Parallel()

	arena := tree.NewArena()
	a := arena.Create("a")
	b := arena.Create("b")

	assert.NotEqual(t, tree.None, a)
	assert.Greater(t, b, a)
	assert.Equal(t, 2, arena.Len())

	nd, err := arena.Lookup(a)
	require.NoError(t, err)
	assert.Equal(t, tree.Node{ID: a, Kind: "a"}, nd)
	assert.True(t, nd.IsEmpty())
}

func TestLookupUnknown(t *testing.T) {
	t.Parallel()

	arena := tree.NewArena()

	_, err := arena.Lookup(tree.None)
	require.ErrorIs(t, err, tree.ErrNotFound)

	_, err = arena.Lookup(99)
	require.ErrorIs(t, err, tree.ErrNotFound)

	assert.False(t, arena.Contains(99))
	assert.Equal(t, tree.None, arena.Parent(99))
	assert.Equal(t, tree.None, arena.Sibling(99, tree.Left))
	assert.Equal(t, tree.None, arena.End(99, tree.Right))
	assert.Equal(t, tree.Kind(""), arena.KindOf(99))
	assert.True(t, arena.IsEmpty(99))
}

func TestDisposeRequiresDisown(t *testing.T) {
	t.Parallel()

	observer := newRecordingObserver()
	arena := tree.NewArena(tree.WithObserver(observer))
	p := arena.Create("block")
	ids := appendChildren(t, arena, p, "a", "b")

	err := arena.Dispose(ids[0])
	require.ErrorIs(t, err, tree.ErrStillAttached)
	assert.True(t, arena.Contains(ids[0]))
	assert.Len(t, observer.violations, 1)

	frag, err := arena.Span(ids[0], ids[0])
	require.NoError(t, err)
	require.NoError(t, frag.Disown())
	require.NoError(t, arena.Dispose(ids[0]))
	require.NoError(t, arena.Dispose(ids[0]))

	assert.False(t, arena.Contains(ids[0]))
	assert.Equal(t, 2, arena.Len())
	assert.Equal(t, []tree.NodeID{ids[0]}, observer.disposed)

	_, err = arena.Lookup(ids[0])
	require.ErrorIs(t, err, tree.ErrNotFound)

	require.ErrorIs(t, arena.Dispose(99), tree.ErrNotFound)
}

func TestDisposedMembersCannotBeSpliced(t *testing.T) {
	t.Parallel()

	arena := tree.NewArena()
	p := arena.Create("block")
	a := arena.Create("a")

	frag, err := arena.Span(a, a)
	require.NoError(t, err)
	require.NoError(t, arena.Dispose(a))

	err = frag.Adopt(p, tree.None, tree.None)
	require.ErrorIs(t, err, tree.ErrNotFound)
	assert.True(t, arena.IsEmpty(p))
}

func TestRemoveSubtree(t *testing.T) {
	t.Parallel()

	observer := newRecordingObserver()
	arena := tree.NewArena(tree.WithObserver(observer))
	root := arena.Create("root")
	ids := appendChildren(t, arena, root, "a", "frac", "c")
	parts := appendChildren(t, arena, ids[1], "num", "den")
	leaf := appendChildren(t, arena, parts[0], "x")[0]

	require.NoError(t, arena.Remove(ids[1]))

	assert.Equal(t, []tree.NodeID{ids[0], ids[2]}, childrenOf(t, arena, root))
	assert.Equal(t, []tree.NodeID{leaf, parts[0], parts[1], ids[1]}, observer.disposed)
	assert.Equal(t, 3, arena.Len())
	require.NoError(t, arena.Verify(root))
	require.ErrorIs(t, arena.Remove(ids[1]), tree.ErrNotFound)
}

func TestDisposeAndRemoveMembersOfDisownedRun(t *testing.T) {
	t.Parallel()

	observer := newRecordingObserver()
	arena := tree.NewArena(tree.WithObserver(observer))
	p := arena.Create("block")
	q := arena.Create("block")
	ids := appendChildren(t, arena, p, "a", "b", "c")

	frag, err := arena.Span(ids[0], ids[2])
	require.NoError(t, err)
	require.NoError(t, frag.Disown())

	require.NoError(t, arena.Remove(ids[2]))
	assert.False(t, arena.Contains(ids[2]))
	assert.Empty(t, observer.violations)

	require.NoError(t, arena.Dispose(ids[0]))
	assert.False(t, arena.Contains(ids[0]))
	assert.Empty(t, observer.violations)

	rest, err := arena.Span(ids[1], ids[1])
	require.NoError(t, err)
	require.NoError(t, rest.Adopt(q, tree.None, tree.None))

	assert.Equal(t, []tree.NodeID{ids[1]}, childrenOf(t, arena, q))
	assert.True(t, arena.IsEmpty(p))
	require.NoError(t, arena.Verify(q))
}

func TestDisposeRejectsInteriorChild(t *testing.T) {
	t.Parallel()

	arena := tree.NewArena()
	p := arena.Create("block")
	ids := appendChildren(t, arena, p, "a", "b", "c")

	require.ErrorIs(t, arena.Dispose(ids[1]), tree.ErrStillAttached)
	assert.Equal(t, ids, childrenOf(t, arena, p))
}

func TestPostOrderAndAncestors(t *testing.T) {
	t.Parallel()

	arena := tree.NewArena()
	root := arena.Create("root")
	ids := appendChildren(t, arena, root, "a", "b")
	x := appendChildren(t, arena, ids[0], "x")[0]

	var order []tree.NodeID
	for id := range arena.PostOrder(root) {
		order = append(order, id)
	}

	assert.Equal(t, []tree.NodeID{x, ids[0], ids[1], root}, order)

	var up []tree.NodeID
	for id := range arena.Ancestors(x) {
		up = append(up, id)
	}

	assert.Equal(t, []tree.NodeID{x, ids[0], root}, up)

	for id := range arena.Ancestors(x) {
		assert.Equal(t, x, id)

		break
	}
}

func TestResetRetiresIDs(t *testing.T) {
	t.Parallel()

	observer := newRecordingObserver()
	arena := tree.NewArena(tree.WithObserver(observer))
	p := arena.Create("block")
	a := appendChildren(t, arena, p, "a")[0]

	arena.Reset()

	assert.Equal(t, 0, arena.Len())
	assert.False(t, arena.Contains(p))
	assert.Len(t, observer.disposed, 2)
	require.NoError(t, arena.Dispose(a))

	next := arena.Create("b")
	assert.Greater(t, next, a)
}

func TestRenderableHooks(t *testing.T) {
	t.Parallel()

	arena := tree.NewArena()
	p := arena.Create("block")
	a := arena.Create("a")
	renderable := &recordingRenderable{}

	require.NoError(t, arena.Attach(a, renderable))
	require.ErrorIs(t, arena.Attach(99, renderable), tree.ErrNotFound)

	frag, err := arena.Span(a, a)
	require.NoError(t, err)
	require.NoError(t, frag.Adopt(p, tree.None, tree.None))

	assert.Equal(t, []tree.Point{{Parent: p}}, renderable.placed)

	require.NoError(t, arena.Remove(a))
	assert.Equal(t, 1, renderable.removed)
}

func TestRenderableDetach(t *testing.T) {
	t.Parallel()

	arena := tree.NewArena()
	p := arena.Create("block")
	a := arena.Create("a")
	renderable := &recordingRenderable{}

	require.NoError(t, arena.Attach(a, renderable))
	require.NoError(t, arena.Attach(a, nil))
	require.NoError(t, arena.Remove(p))
	require.NoError(t, arena.Remove(a))

	assert.Empty(t, renderable.placed)
	assert.Zero(t, renderable.removed)
}

func TestObserverCountsSplices(t *testing.T) {
	t.Parallel()

	observer := newRecordingObserver()
	arena := tree.NewArena(tree.WithObserver(observer), tree.WithObserver(nil), tree.WithLogger(nil))
	p := arena.Create("block")
	appendChildren(t, arena, p, "a", "b", "c")

	assert.Len(t, observer.created, 4)
	assert.Equal(t, 3, observer.splices[tree.OpAdopt])
	assert.Empty(t, observer.violations)
	assert.False(t, arena.Assertions())
}

func TestClass(t *testing.T) {
	t.Parallel()

	arena := tree.NewArena()

	_, err := arena.Span(arena.Create("a"), tree.None)
	assert.Equal(t, "malformed_fragment", tree.Class(err))
	assert.Equal(t, "not_found", tree.Class(arena.Dispose(77)))
	assert.Empty(t, tree.Class(nil))
	assert.Empty(t, tree.Class(assert.AnError))
}
