package tree //nolint:testpackage // corrupts slots directly to exercise the structural checks.

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildRow(t *testing.T, arena *Arena, count int) (NodeID, []NodeID) {
	t.Helper()

	parent := arena.Create("block")
	ids := make([]NodeID, 0, count)

	for range count {
		id := arena.Create("symbol")

		frag, err := arena.Span(id, id)
		require.NoError(t, err)
		require.NoError(t, frag.Adopt(parent, arena.End(parent, Right), None))

		ids = append(ids, id)
	}

	return parent, ids
}

func TestVerifyDetectsBrokenBackPointer(t *testing.T) {
	t.Parallel()

	arena := NewArena()
	parent, ids := buildRow(t, arena, 3)

	require.NoError(t, arena.Verify(parent))

	arena.slotOf(ids[1]).sib[Left] = None

	err := arena.Verify(parent)
	require.ErrorIs(t, err, ErrStructuralInvariant)
}

func TestVerifyDetectsHalfEmptyEnds(t *testing.T) {
	t.Parallel()

	arena := NewArena()
	parent, _ := buildRow(t, arena, 2)

	arena.slotOf(parent).ends[Right] = None

	require.ErrorIs(t, arena.Verify(parent), ErrStructuralInvariant)
}

func TestVerifyDetectsSiblingLoop(t *testing.T) {
	t.Parallel()

	arena := NewArena()
	parent, ids := buildRow(t, arena, 3)

	arena.slotOf(parent).ends[Right] = parent
	arena.slotOf(ids[2]).sib[Right] = ids[0]

	require.ErrorIs(t, arena.Verify(parent), ErrStructuralInvariant)
}

func TestDisownRefusesCorruptedNeighbour(t *testing.T) {
	t.Parallel()

	arena := NewArena()
	parent, ids := buildRow(t, arena, 3)

	arena.slotOf(ids[0]).sib[Right] = None

	frag, err := arena.Span(ids[1], ids[1])
	require.NoError(t, err)

	err = frag.Disown()
	require.ErrorIs(t, err, ErrStructuralInvariant)
	assert.False(t, frag.Disowned())
	assert.Equal(t, ids[2], arena.slotOf(ids[1]).sib[Right])
	assert.Equal(t, ids[1], arena.slotOf(ids[2]).sib[Left])
	assert.Equal(t, Ends{ids[0], ids[2]}, arena.slotOf(parent).ends)
}

// skipOverMiddle points A's right sibling at C while C still names B as its
// left sibling.
func skipOverMiddle(t *testing.T) (*Arena, NodeID, []NodeID) {
	t.Helper()

	arena := NewArena()
	parent, ids := buildRow(t, arena, 3)

	arena.slotOf(ids[0]).sib[Right] = ids[2]

	return arena, parent, ids
}

func TestDisownRefusesOneSidedSkip(t *testing.T) {
	t.Parallel()

	arena, parent, ids := skipOverMiddle(t)

	frag, err := arena.Span(ids[1], ids[1])
	require.NoError(t, err)

	err = frag.Disown()
	require.ErrorIs(t, err, ErrStructuralInvariant)
	assert.False(t, frag.Disowned())
	assert.Equal(t, ids[2], arena.slotOf(ids[0]).sib[Right])
	assert.Equal(t, ids[1], arena.slotOf(ids[2]).sib[Left])
	assert.Equal(t, Ends{ids[0], ids[2]}, arena.slotOf(ids[1]).sib)
	assert.Equal(t, Ends{ids[0], ids[2]}, arena.slotOf(parent).ends)
}

func TestAdoptRefusesOneSidedSkip(t *testing.T) {
	t.Parallel()

	for _, gap := range [][2]int{{0, 2}, {0, 1}} {
		arena, parent, ids := skipOverMiddle(t)
		x := arena.Create("symbol")

		frag, err := arena.Span(x, x)
		require.NoError(t, err)

		err = frag.Adopt(parent, ids[gap[0]], ids[gap[1]])
		require.ErrorIs(t, err, ErrStructuralInvariant, "gap %v", gap)
		assert.Equal(t, None, arena.slotOf(x).parent)
		assert.Equal(t, ids[2], arena.slotOf(ids[0]).sib[Right])
		assert.Equal(t, ids[1], arena.slotOf(ids[2]).sib[Left])
		assert.Equal(t, Ends{ids[0], ids[2]}, arena.slotOf(ids[1]).sib)
	}
}

func TestMembersBoundedOnLoop(t *testing.T) {
	t.Parallel()

	arena := NewArena()
	_, ids := buildRow(t, arena, 3)

	arena.slotOf(ids[1]).sib[Right] = ids[0]

	frag := &Fragment{arena: arena, ends: Ends{ids[0], ids[2]}}

	_, err := frag.members()
	require.ErrorIs(t, err, ErrUnreachableEnd)
}

func TestSlotsStayHalfEmptyFree(t *testing.T) {
	t.Parallel()

	arena := NewArena()
	_, _ = buildRow(t, arena, 4)

	for idx, nd := range arena.storage {
		assert.False(t, nd.ends.halfEmpty(), "slot %d", idx)
	}
}
