package tree_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpowers/mathquill/pkg/tree"
)

func TestHibernateBootRoundTrip(t *testing.T) {
	t.Parallel()

	arena := tree.NewArena()
	root := arena.Create("root")
	ids := appendChildren(t, arena, root, "a", "frac", "c")
	parts := appendChildren(t, arena, ids[1], "num", "den")

	frag, err := arena.Span(ids[2], ids[2])
	require.NoError(t, err)
	require.NoError(t, frag.Disown())
	require.NoError(t, arena.Dispose(ids[2]))

	all := []tree.NodeID{root, ids[0], ids[1], parts[0], parts[1]}
	before := records(t, arena, all...)

	require.NoError(t, arena.Hibernate())
	assert.True(t, arena.Hibernated())
	assert.Positive(t, arena.HibernatedSize())
	assert.Equal(t, 5, arena.Len())
	assert.Panics(t, func() { arena.Create("x") })
	assert.Panics(t, func() { _ = arena.Hibernate() })

	require.NoError(t, arena.Boot())
	assert.False(t, arena.Hibernated())
	assert.Zero(t, arena.HibernatedSize())

	if diff := cmp.Diff(before, records(t, arena, all...)); diff != "" {
		t.Errorf("boot restored a different tree (-want +got):\n%s", diff)
	}

	assert.False(t, arena.Contains(ids[2]))
	require.NoError(t, arena.Verify(root))
	require.NoError(t, arena.Boot())
}

func TestHibernateBelowThreshold(t *testing.T) {
	t.Parallel()

	arena := tree.NewArena(tree.WithHibernationThreshold(10))
	arena.Create("a")

	require.NoError(t, arena.Hibernate())
	assert.False(t, arena.Hibernated())
	assert.NotPanics(t, func() { arena.Create("b") })
}

func TestHibernateEmptyArena(t *testing.T) {
	t.Parallel()

	arena := tree.NewArena()

	require.NoError(t, arena.Hibernate())
	assert.True(t, arena.Hibernated())
	require.NoError(t, arena.Boot())

	id := arena.Create("a")
	assert.True(t, arena.Contains(id))
}

func TestCompressUInt32Slice(t *testing.T) {
	t.Parallel()

	data := make([]uint32, 1000)
	for idx := range data {
		data[idx] = uint32(idx % 7)
	}

	compressed, err := tree.CompressUInt32Slice(data)
	require.NoError(t, err)
	assert.Less(t, len(compressed), len(data)*4)

	restored := make([]uint32, len(data))
	require.NoError(t, tree.DecompressUInt32Slice(compressed, restored))
	assert.Equal(t, data, restored)
}
